package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrShareNotFound indicates that a share does not exist, is soft-deleted,
	// or belongs to a soft-deleted student.
	ErrShareNotFound = errors.New("share not found")

	// ErrShareTypeNotFound indicates that a share type with the given ID does not exist.
	ErrShareTypeNotFound = errors.New("share type not found")

	// ErrStockNotFound indicates that a stock with the given ID does not exist.
	ErrStockNotFound = errors.New("stock not found")

	// ErrStudentNotFound indicates that a student does not exist or is soft-deleted.
	ErrStudentNotFound = errors.New("student not found")

	ErrTransactionNotFound = errors.New("transaction not found")
)

// Business logic errors represent validation failures or violated financial invariants.
// Validation kinds are raised before any mutation and need no compensation.
var (
	// ErrNonsufficientFunds indicates that a debit would take a balance below zero.
	// A failed-attempt transaction is still recorded for audit.
	ErrNonsufficientFunds = errors.New("nonsufficient funds")

	// ErrWithdrawalLimitExceeded indicates that the share already used every
	// withdrawal allowed in the current window and the share type does not charge a fee instead.
	ErrWithdrawalLimitExceeded = errors.New("withdrawal limit exceeded")

	// ErrInvalidQuantity indicates a product purchase larger than the available inventory.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrInvalidShareQuantity indicates a stock trade larger than the available or owned shares.
	ErrInvalidShareQuantity = errors.New("invalid share quantity")

	// ErrUnauthorizedPurchase indicates an item not offered to the share's instance.
	ErrUnauthorizedPurchase = errors.New("unauthorized purchase")

	// ErrArgumentOutOfRange indicates an invalid request shape.
	ErrArgumentOutOfRange = errors.New("argument out of range")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")
)

// Operation failure errors represent system-level failures.
var (
	// ErrDatabase marks any storage failure. The driver error itself is never exposed.
	ErrDatabase = errors.New("database error")

	// ErrAggregate marks two or more failures raised during a compensation sequence.
	ErrAggregate = errors.New("multiple errors occurred")
)
