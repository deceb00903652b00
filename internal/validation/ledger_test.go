package validation_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/api/request"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/money"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/validation"
)

const (
	shareA = "550e8400-e29b-41d4-a716-446655440000"
	shareB = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
)

// fieldsOf returns the field errors of err, failing the test when err is not a *validation.Error.
func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var vErr *validation.Error
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected *validation.Error, got %T (%v)", err, err)
	}
	return vErr.Fields
}

// TestValidateTransfer tests the transfer request checks.
//
// WHY: The destination row's comment is built from a fixed prefix, the source
// share id and the caller's comment. A caller comment that does not leave
// room for the rest must be rejected before anything is posted.
func TestValidateTransfer(t *testing.T) {
	valid := request.TransferRequest{
		SourceShareID:      shareA,
		DestinationShareID: shareB,
		Amount:             money.FromCents(500),
		Comment:            "lunch",
	}

	t.Run("accepts a valid transfer", func(t *testing.T) {
		if err := validation.ValidateTransfer(valid); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})

	t.Run("accepts the longest comment", func(t *testing.T) {
		req := valid
		req.Comment = strings.Repeat("é", model.MaxTransferCommentLength)
		if err := validation.ValidateTransfer(req); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
		if got := len("Transfer from share ") + len(shareA) + len(": ") + model.MaxTransferCommentLength; got != model.MaxCommentLength {
			t.Errorf("Expected the longest transfer comment to fill %d characters, got %d", model.MaxCommentLength, got)
		}
	})

	t.Run("rejects a comment that leaves no room for the share reference", func(t *testing.T) {
		req := valid
		req.Comment = strings.Repeat("a", model.MaxTransferCommentLength+1)
		fields := fieldsOf(t, validation.ValidateTransfer(req))
		if _, ok := fields["comment"]; !ok || len(fields) != 1 {
			t.Errorf("Expected only a comment error, got %v", fields)
		}
	})

	t.Run("reports every bad field", func(t *testing.T) {
		fields := fieldsOf(t, validation.ValidateTransfer(request.TransferRequest{
			SourceShareID:      "not-a-uuid",
			DestinationShareID: "also-bad",
			Amount:             money.Zero,
		}))
		for _, field := range []string{"sourceShareId", "destinationShareId", "amount"} {
			if _, ok := fields[field]; !ok {
				t.Errorf("Expected an error for %s, got %v", field, fields)
			}
		}
	})

	t.Run("rejects a transfer to the same share", func(t *testing.T) {
		req := valid
		req.DestinationShareID = req.SourceShareID
		fields := fieldsOf(t, validation.ValidateTransfer(req))
		if _, ok := fields["destinationShareId"]; !ok {
			t.Errorf("Expected a destinationShareId error, got %v", fields)
		}
	})
}

func TestValidatePostTransaction(t *testing.T) {
	tests := []struct {
		name    string
		req     request.PostTransactionRequest
		wantErr string
	}{
		{"empty request", request.PostTransactionRequest{}, ""},
		{"known type and date", request.PostTransactionRequest{Type: "D", EffectiveDate: "2026-01-31"}, ""},
		{"rfc3339 date", request.PostTransactionRequest{EffectiveDate: "2026-01-31T08:00:00Z"}, ""},
		{"unknown type", request.PostTransactionRequest{Type: "Z"}, "transactionType"},
		{"bad date", request.PostTransactionRequest{EffectiveDate: "31/01/2026"}, "effectiveDate"},
		{"longest comment", request.PostTransactionRequest{Comment: strings.Repeat("é", model.MaxCommentLength)}, ""},
		{"overlong comment", request.PostTransactionRequest{Comment: strings.Repeat("a", model.MaxCommentLength+1)}, "comment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.ValidatePostTransaction(tt.req)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if _, ok := fieldsOf(t, err)[tt.wantErr]; !ok {
				t.Errorf("Expected a %s error, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidatePostBatch(t *testing.T) {
	t.Run("requires items", func(t *testing.T) {
		fields := fieldsOf(t, validation.ValidatePostBatch(request.PostBatchRequest{}))
		if _, ok := fields["items"]; !ok {
			t.Errorf("Expected an items error, got %v", fields)
		}
	})

	t.Run("keys item errors by index", func(t *testing.T) {
		fields := fieldsOf(t, validation.ValidatePostBatch(request.PostBatchRequest{
			Items: []request.BatchItem{
				{ShareID: shareA},
				{ShareID: "bad", PostTransactionRequest: request.PostTransactionRequest{Type: "Z"}},
			},
		}))
		want := []string{"items[1].shareId", "items[1].transactionType"}
		if len(fields) != len(want) {
			t.Fatalf("Expected %d errors, got %v", len(want), fields)
		}
		for _, field := range want {
			if _, ok := fields[field]; !ok {
				t.Errorf("Expected an error for %s, got %v", field, fields)
			}
		}
	})
}

func TestValidatePurchaseAndStockTrade(t *testing.T) {
	t.Run("purchase counts must be positive", func(t *testing.T) {
		fields := fieldsOf(t, validation.ValidatePurchase(request.PurchaseRequest{
			Items: []request.PurchaseItem{{ProductID: shareA, Count: 1}, {ProductID: shareB, Count: 0}},
		}))
		if _, ok := fields["items[1].count"]; !ok || len(fields) != 1 {
			t.Errorf("Expected only items[1].count, got %v", fields)
		}
	})

	t.Run("stock trade quantity must not be zero", func(t *testing.T) {
		if err := validation.ValidateStockTrade(request.StockTradeRequest{StockID: shareA, Quantity: -3}); err != nil {
			t.Errorf("Expected a sell to validate, got %v", err)
		}
		fields := fieldsOf(t, validation.ValidateStockTrade(request.StockTradeRequest{StockID: shareA}))
		if _, ok := fields["quantity"]; !ok {
			t.Errorf("Expected a quantity error, got %v", fields)
		}
	})
}

func TestError(t *testing.T) {
	err := &validation.Error{Fields: map[string]string{
		"items[0].count": "count must be at least 1",
		"amount":         "amount must be positive",
		"comment":        "too long",
	}}

	want := "amount: amount must be positive; comment: too long; items[0].count: count must be at least 1"
	for i := 0; i < 5; i++ {
		if got := err.Error(); got != want {
			t.Fatalf("Error() = %q, want %q", got, want)
		}
	}
}
