package model

import (
	"time"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/money"
)

// MaxCommentLength is the longest comment, in characters, a ledger row can hold.
const MaxCommentLength = 255

// Transfer comments name the other side of the transfer before the caller's comment.
const (
	TransferToPrefix   = "Transfer to share"
	TransferFromPrefix = "Transfer from share"

	// MaxTransferCommentLength leaves room for the longer prefix, a share id
	// and the ": " separator.
	MaxTransferCommentLength = MaxCommentLength - len(TransferFromPrefix) - len(" ") - 36 - len(": ")
)

// TransactionType is the single-character ledger code of a transaction.
type TransactionType string

const (
	TypeDeposit    TransactionType = "D"
	TypeWithdrawal TransactionType = "W"
	TypeTransfer   TransactionType = "T"
	TypeCorrection TransactionType = "C"
	TypeDividend   TransactionType = "V"
	TypeFee        TransactionType = "F"
)

// Valid reports whether t is a known ledger code.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeTransfer, TypeCorrection, TypeDividend, TypeFee:
		return true
	}
	return false
}

// ResolveTransactionType picks the code for an amount posted without one:
// zero is a correction, positive a deposit, negative a withdrawal.
func ResolveTransactionType(amount money.Money) TransactionType {
	switch {
	case amount.IsZero():
		return TypeCorrection
	case amount.IsPositive():
		return TypeDeposit
	default:
		return TypeWithdrawal
	}
}

// Transaction is an immutable ledger record. Amount is signed (positive
// increases the balance) and NewBalance is the balance after applying it.
//
// Failed marks a denied attempt kept for audit; its NewBalance is the
// unchanged balance. DividendRunID is set on dividend postings so that a run
// can be resumed without paying a share twice.
type Transaction struct {
	ID            string          `json:"id"`
	TargetShareID string          `json:"targetShareId"`
	Type          TransactionType `json:"transactionType"`
	Amount        money.Money     `json:"amount"`
	NewBalance    money.Money     `json:"newBalance"`
	Comment       string          `json:"comment,omitempty"`
	EffectiveDate time.Time       `json:"effectiveDate"`
	PostedAt      time.Time       `json:"postedAt"`
	Failed        bool            `json:"failed"`
	DividendRunID string          `json:"dividendRunId,omitempty"`
}
