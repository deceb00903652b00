package service

import (
	"github.com/ndewijer/Classroom-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/money"
)

// WithdrawalDecision is the outcome of the withdrawal-limit policy for a
// withdrawal that is allowed to proceed.
type WithdrawalDecision struct {
	// CountWithdrawal is set when the share type limits withdrawals and the
	// share's LimitedWithdrawalCount must be incremented.
	CountWithdrawal bool
	// Fee is charged as a separate F transaction when ChargeFee is set.
	ChargeFee bool
	Fee       money.Money
}

// EvaluateWithdrawal applies the withdrawal-limit policy of shareType to a
// withdrawal from share. Period resets happen elsewhere; the share's count is
// assumed to belong to the current window.
//
// A share at or over its limit is denied with *apperrors.WithdrawalLimitError
// unless the share type charges a fee instead.
func EvaluateWithdrawal(share model.Share, shareType model.ShareType) (WithdrawalDecision, error) {
	if shareType.WithdrawalLimitCount <= 0 {
		return WithdrawalDecision{}, nil
	}

	if share.LimitedWithdrawalCount < shareType.WithdrawalLimitCount {
		return WithdrawalDecision{CountWithdrawal: true}, nil
	}

	if !shareType.WithdrawalLimitShouldFee {
		return WithdrawalDecision{}, &apperrors.WithdrawalLimitError{
			ShareTypeID: shareType.ID,
			ShareID:     share.ID,
			Limit:       shareType.WithdrawalLimitCount,
		}
	}

	return WithdrawalDecision{
		CountWithdrawal: true,
		ChargeFee:       true,
		Fee:             shareType.WithdrawalLimitFee.Abs(),
	}, nil
}

// isLimitedWithdrawal reports whether a posting is subject to the policy.
func isLimitedWithdrawal(t model.TransactionType, amount money.Money) bool {
	return amount.IsNegative() && (t == model.TypeWithdrawal || t == model.TypeTransfer)
}
