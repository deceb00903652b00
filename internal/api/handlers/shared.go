package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/api/response"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/apperrors"
)

// parseJSON decodes the request body into T, rejecting unknown fields.
func parseJSON[T any](r *http.Request) (T, error) {
	var req T
	if r.Body == nil {
		return req, errors.New("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid JSON: %w", err)
	}
	return req, nil
}

// statusFor maps a ledger error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	// Aggregate first: its members would otherwise decide the status.
	case errors.Is(err, apperrors.ErrAggregate):
		return http.StatusInternalServerError
	case errors.Is(err, apperrors.ErrShareNotFound),
		errors.Is(err, apperrors.ErrShareTypeNotFound),
		errors.Is(err, apperrors.ErrStockNotFound),
		errors.Is(err, apperrors.ErrStudentNotFound),
		errors.Is(err, apperrors.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrArgumentOutOfRange),
		errors.Is(err, apperrors.ErrInvalidUUID),
		errors.Is(err, apperrors.ErrInvalidQuantity),
		errors.Is(err, apperrors.ErrInvalidShareQuantity):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorizedPurchase):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrNonsufficientFunds),
		errors.Is(err, apperrors.ErrWithdrawalLimitExceeded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err using statusFor. Server errors are logged in
// full and answered with a generic detail so storage errors never leave the process.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(message, zap.Error(err))
		detail := apperrors.ErrDatabase.Error()
		if errors.Is(err, apperrors.ErrAggregate) {
			detail = apperrors.ErrAggregate.Error()
		}
		response.RespondError(w, status, message, detail)
		return
	}
	response.RespondError(w, status, message, err.Error())
}
