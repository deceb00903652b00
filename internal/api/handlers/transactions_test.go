package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/testutil"
)

func TestTransactionHandler_PostBatch(t *testing.T) {
	post := func(t *testing.T, handler *TransactionHandler, body any) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/api/transactions/batch", strings.NewReader(mustJSON(t, body)))
		w := httptest.NewRecorder()
		handler.PostBatch(w, req)
		return w
	}

	t.Run("posts every item", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewTransactionHandler(testutil.NewTestLedgerService(t, db), zaptest.NewLogger(t))
		a := testutil.NewShare().WithBalance(testutil.Dollars(10)).Build(t, db)
		b := testutil.NewShare().WithBalance(testutil.Dollars(10)).Build(t, db)

		w := post(t, handler, map[string]any{"items": []map[string]any{
			{"shareId": a.Share.ID, "amount": 5},
			{"shareId": b.Share.ID, "amount": -5},
		}})

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var got BatchResponse
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&got)
		if len(got.Transactions) != 2 {
			t.Errorf("Expected 2 transactions, got %d", len(got.Transactions))
		}
		testutil.AssertBalance(t, db, a.Share.ID, testutil.Dollars(15))
		testutil.AssertBalance(t, db, b.Share.ID, testutil.Dollars(5))
	})

	t.Run("stops on overdraft by default", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewTransactionHandler(testutil.NewTestLedgerService(t, db), zaptest.NewLogger(t))
		a := testutil.NewShare().WithBalance(testutil.Dollars(10)).Build(t, db)
		b := testutil.NewShare().WithBalance(testutil.Dollars(1)).Build(t, db)

		w := post(t, handler, map[string]any{"items": []map[string]any{
			{"shareId": a.Share.ID, "amount": 5},
			{"shareId": b.Share.ID, "amount": -5},
		}})

		if w.Code != http.StatusConflict {
			t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
		}
		testutil.AssertBalance(t, db, a.Share.ID, testutil.Dollars(10))
	})

	t.Run("continues past overdraft when asked", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewTransactionHandler(testutil.NewTestLedgerService(t, db), zaptest.NewLogger(t))
		a := testutil.NewShare().WithBalance(testutil.Dollars(10)).Build(t, db)
		b := testutil.NewShare().WithBalance(testutil.Dollars(1)).Build(t, db)

		w := post(t, handler, map[string]any{
			"stopOnException": false,
			"items": []map[string]any{
				{"shareId": a.Share.ID, "amount": 5},
				{"shareId": b.Share.ID, "amount": -5},
			},
		})

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}
		testutil.AssertBalance(t, db, a.Share.ID, testutil.Dollars(15))
		testutil.AssertBalance(t, db, b.Share.ID, testutil.Dollars(1))
	})

	t.Run("rejects invalid items", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewTransactionHandler(testutil.NewTestLedgerService(t, db), zaptest.NewLogger(t))

		w := post(t, handler, map[string]any{"items": []map[string]any{{"shareId": "nope", "amount": 1}}})

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), "items[0].shareId") {
			t.Errorf("Expected field error for items[0].shareId, got %s", w.Body.String())
		}
	})
}

func TestTransactionHandler_Transfer(t *testing.T) {
	transfer := func(t *testing.T, handler *TransactionHandler, body any) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/api/transfers", strings.NewReader(mustJSON(t, body)))
		w := httptest.NewRecorder()
		handler.Transfer(w, req)
		return w
	}

	t.Run("moves money within an instance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewTransactionHandler(testutil.NewTestLedgerService(t, db), zaptest.NewLogger(t))
		instance := testutil.NewInstance().Build(t, db)
		src := testutil.NewShare().WithInstance(instance.ID).WithBalance(testutil.Dollars(30)).Build(t, db)
		dst := testutil.NewShare().WithInstance(instance.ID).Build(t, db)

		w := transfer(t, handler, map[string]any{
			"sourceShareId":      src.Share.ID,
			"destinationShareId": dst.Share.ID,
			"amount":             "12.00",
		})

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var got model.TransferResult
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&got)
		if got.Source.Type != model.TypeTransfer || got.Destination.Type != model.TypeTransfer {
			t.Errorf("Expected transfer transactions, got %+v", got)
		}
		testutil.AssertBalance(t, db, src.Share.ID, testutil.Dollars(18))
		testutil.AssertBalance(t, db, dst.Share.ID, testutil.Dollars(12))
	})

	t.Run("returns 400 across instances", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewTransactionHandler(testutil.NewTestLedgerService(t, db), zaptest.NewLogger(t))
		src := testutil.NewShare().WithBalance(testutil.Dollars(30)).Build(t, db)
		dst := testutil.NewShare().Build(t, db)

		w := transfer(t, handler, map[string]any{
			"sourceShareId":      src.Share.ID,
			"destinationShareId": dst.Share.ID,
			"amount":             5,
		})

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewTransactionHandler(testutil.NewTestLedgerService(t, db), zaptest.NewLogger(t))

		w := transfer(t, handler, map[string]any{
			"sourceShareId":      testutil.MakeID(),
			"destinationShareId": testutil.MakeID(),
			"amount":             -5,
		})

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}
