package apperrors

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/money"
)

// NonsufficientFundsError carries the share and amount of a denied debit.
// Attempt is the failed-attempt ledger record kept for audit.
type NonsufficientFundsError struct {
	ShareID string
	Amount  money.Money
	Balance money.Money
	Attempt *model.Transaction
}

func (e *NonsufficientFundsError) Error() string {
	return fmt.Sprintf("%s: share %s has %s, attempted %s", ErrNonsufficientFunds, e.ShareID, e.Balance, e.Amount)
}

func (e *NonsufficientFundsError) Unwrap() error { return ErrNonsufficientFunds }

// WithdrawalLimitError carries the share type and share that hit their withdrawal limit.
type WithdrawalLimitError struct {
	ShareTypeID string
	ShareID     string
	Limit       int
}

func (e *WithdrawalLimitError) Error() string {
	return fmt.Sprintf("%s: share %s reached %d withdrawals allowed by share type %s",
		ErrWithdrawalLimitExceeded, e.ShareID, e.Limit, e.ShareTypeID)
}

func (e *WithdrawalLimitError) Unwrap() error { return ErrWithdrawalLimitExceeded }

// QuantityError carries the product or stock and the quantity that could not be served.
// Kind is ErrInvalidQuantity for products and ErrInvalidShareQuantity for stocks.
type QuantityError struct {
	Kind      error
	ItemID    string
	Requested int64
	Available int64
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("%s: %s requested %d, available %d", e.Kind, e.ItemID, e.Requested, e.Available)
}

func (e *QuantityError) Unwrap() error { return e.Kind }

// OutOfRange builds an ErrArgumentOutOfRange with a description of the offending argument.
func OutOfRange(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrArgumentOutOfRange, fmt.Sprintf(format, args...))
}

// DatabaseError wraps a storage failure. Unwrap only reaches ErrDatabase so
// callers can never type-assert on driver errors; the cause text is kept for logs.
type DatabaseError struct {
	Op    string
	cause string
}

// Database wraps err as a DatabaseError. Errors that already carry a ledger
// kind (and nil) pass through unchanged.
func Database(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsKnown(err) {
		return err
	}
	return &DatabaseError{Op: op, cause: err.Error()}
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrDatabase, e.Op, e.cause)
}

func (e *DatabaseError) Unwrap() error { return ErrDatabase }

// Cause returns the text of the underlying storage error.
func (e *DatabaseError) Cause() string { return e.cause }

// AggregateError reports every failure of a compensation sequence together.
type AggregateError struct {
	errs *multierror.Error
}

// Aggregate combines the non-nil errors. A single error is returned as is.
func Aggregate(errs ...error) error {
	var merr *multierror.Error
	for _, err := range errs {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	if merr == nil {
		return nil
	}
	if len(merr.Errors) == 1 {
		return merr.Errors[0]
	}
	return &AggregateError{errs: merr}
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAggregate, e.errs.Error())
}

// Errors returns the combined errors in the order they occurred.
func (e *AggregateError) Errors() []error {
	return e.errs.WrappedErrors()
}

// Is reports ErrAggregate as well as any kind carried by a member.
func (e *AggregateError) Is(target error) bool {
	if target == ErrAggregate {
		return true
	}
	for _, err := range e.errs.Errors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// As lets errors.As find a structured member such as *NonsufficientFundsError.
func (e *AggregateError) As(target any) bool {
	for _, err := range e.errs.Errors {
		if errors.As(err, target) {
			return true
		}
	}
	return false
}

var kinds = []error{
	ErrShareNotFound, ErrShareTypeNotFound, ErrStockNotFound, ErrStudentNotFound, ErrTransactionNotFound,
	ErrNonsufficientFunds, ErrWithdrawalLimitExceeded, ErrInvalidQuantity, ErrInvalidShareQuantity,
	ErrUnauthorizedPurchase, ErrArgumentOutOfRange, ErrInvalidUUID, ErrDatabase, ErrAggregate,
}

// IsKnown reports whether err already carries one of the ledger error kinds.
func IsKnown(err error) bool {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
