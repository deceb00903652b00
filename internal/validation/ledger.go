package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/api/request"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
)

// DateLayout is the accepted format of effective dates.
const DateLayout = "2006-01-02"

// ValidatePostTransaction validates a single posting request.
//
// Optional fields (validated if provided):
//   - transactionType: one of D, W, T, C, V, F
//   - effectiveDate: YYYY-MM-DD or RFC3339
func ValidatePostTransaction(req request.PostTransactionRequest) error {
	errors := make(map[string]string)
	validatePosting("", req, errors)

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

func validatePosting(prefix string, req request.PostTransactionRequest, errors map[string]string) {
	if req.Type != "" && !model.TransactionType(req.Type).Valid() {
		errors[prefix+"transactionType"] = fmt.Sprintf("unknown transaction type %q", req.Type)
	}
	if req.EffectiveDate != "" {
		if _, err := ParseEffectiveDate(req.EffectiveDate); err != nil {
			errors[prefix+"effectiveDate"] = err.Error()
		}
	}
	if utf8.RuneCountInString(req.Comment) > model.MaxCommentLength {
		errors[prefix+"comment"] = fmt.Sprintf("comment must be at most %d characters", model.MaxCommentLength)
	}
}

// ValidatePostBatch validates a batch of postings. Field errors of items are
// keyed as items[i].field.
func ValidatePostBatch(req request.PostBatchRequest) error {
	errors := make(map[string]string)

	if len(req.Items) == 0 {
		errors["items"] = "at least one item is required"
	}
	for i, item := range req.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		if err := ValidateUUID(item.ShareID); err != nil {
			errors[prefix+"shareId"] = err.Error()
		}
		validatePosting(prefix, item.PostTransactionRequest, errors)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateTransfer validates a transfer between two shares.
func ValidateTransfer(req request.TransferRequest) error {
	errors := make(map[string]string)

	if err := ValidateUUID(req.SourceShareID); err != nil {
		errors["sourceShareId"] = err.Error()
	}
	if err := ValidateUUID(req.DestinationShareID); err != nil {
		errors["destinationShareId"] = err.Error()
	}
	if req.SourceShareID != "" && req.SourceShareID == req.DestinationShareID {
		errors["destinationShareId"] = "destination must differ from source"
	}
	if !req.Amount.IsPositive() {
		errors["amount"] = "amount must be positive"
	}
	if utf8.RuneCountInString(req.Comment) > model.MaxTransferCommentLength {
		errors["comment"] = fmt.Sprintf("transfer comment must be at most %d characters", model.MaxTransferCommentLength)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidatePurchase validates a product purchase.
func ValidatePurchase(req request.PurchaseRequest) error {
	errors := make(map[string]string)

	if len(req.Items) == 0 {
		errors["items"] = "at least one item is required"
	}
	for i, item := range req.Items {
		if err := ValidateUUID(item.ProductID); err != nil {
			errors[fmt.Sprintf("items[%d].productId", i)] = err.Error()
		}
		if item.Count < 1 {
			errors[fmt.Sprintf("items[%d].count", i)] = "count must be at least 1"
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateStockTrade validates a stock trade.
func ValidateStockTrade(req request.StockTradeRequest) error {
	errors := make(map[string]string)

	if err := ValidateUUID(req.StockID); err != nil {
		errors["stockId"] = err.Error()
	}
	if req.Quantity == 0 {
		errors["quantity"] = "quantity must not be zero"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateDividend validates a dividend run request.
func ValidateDividend(req request.DividendRequest) error {
	errors := make(map[string]string)

	if err := ValidateUUIDs(req.InstanceIDs); err != nil {
		errors["instanceIds"] = err.Error()
	}
	if strings.TrimSpace(req.RunID) != "" {
		if err := ValidateUUID(req.RunID); err != nil {
			errors["runId"] = err.Error()
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ParseEffectiveDate accepts a plain date or an RFC3339 timestamp.
func ParseEffectiveDate(value string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD or RFC3339: %q", value)
	}
	return t, nil
}
