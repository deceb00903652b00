package service_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/money"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/service"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/testutil"
)

// TestDividendService_PostDividends tests paying dividends to a share type.
//
// WHY: Dividend runs touch many shares and commit page by page. A run that
// fails part way must be resumable without paying any share twice.
func TestDividendService_PostDividends(t *testing.T) {
	ctx := context.Background()

	t.Run("pays balance times rate", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestDividendService(t, db)
		instance := testutil.NewInstance().Build(t, db)
		shareType := testutil.NewShareType().WithDividendRate(money.Percent(5)).WithInstance(instance.ID).Build(t, db)
		account := testutil.NewShare().WithInstance(instance.ID).WithShareType(shareType.ID).WithBalance(testutil.Dollars(100)).Build(t, db)

		// Execute
		result, err := svc.PostDividends(ctx, model.DividendRequest{
			ShareTypeID: shareType.ID,
			InstanceIDs: []string{instance.ID},
		})

		// Assert
		if err != nil {
			t.Fatalf("PostDividends() returned unexpected error: %v", err)
		}
		if result.RunID == "" || result.SharesPaid != 1 || result.PagesCommitted != 1 || !result.TotalPaid.Equal(testutil.Dollars(5)) {
			t.Errorf("Unexpected result: %+v", result)
		}

		testutil.AssertBalance(t, db, account.Share.ID, testutil.Dollars(105))
		share := testutil.GetShare(t, db, account.Share.ID)
		if !share.TotalDividends.Equal(testutil.Dollars(5)) || !share.DividendLastAmount.Equal(testutil.Dollars(5)) {
			t.Errorf("Unexpected dividend totals: last=%s total=%s", share.DividendLastAmount, share.TotalDividends)
		}

		ledger := testutil.GetTransactions(t, db, account.Share.ID)
		dividend := ledger[len(ledger)-1]
		if dividend.Type != model.TypeDividend || dividend.DividendRunID != result.RunID || !dividend.Amount.Equal(testutil.Dollars(5)) {
			t.Errorf("Unexpected dividend transaction: %+v", dividend)
		}
	})

	t.Run("skips ineligible shares", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestDividendService(t, db)
		instance := testutil.NewInstance().Build(t, db)
		other := testutil.NewInstance().Build(t, db)
		shareType := testutil.NewShareType().WithDividendRate(money.Percent(10)).Build(t, db)
		otherType := testutil.NewShareType().WithDividendRate(money.Percent(10)).Build(t, db)

		paid := testutil.NewShare().WithInstance(instance.ID).WithShareType(shareType.ID).WithBalance(testutil.Dollars(10)).Build(t, db)
		empty := testutil.NewShare().WithInstance(instance.ID).WithShareType(shareType.ID).Build(t, db)
		overdrawn := testutil.NewShare().WithInstance(instance.ID).WithShareType(shareType.ID).WithBalance(testutil.Dollars(-10)).Build(t, db)
		wrongType := testutil.NewShare().WithInstance(instance.ID).WithShareType(otherType.ID).WithBalance(testutil.Dollars(10)).Build(t, db)
		wrongInstance := testutil.NewShare().WithInstance(other.ID).WithShareType(shareType.ID).WithBalance(testutil.Dollars(10)).Build(t, db)
		student, _ := testutil.NewStudent().WithInstance(instance.ID).SoftDeleted().Build(t, db)
		deleted := testutil.NewShare().WithStudent(student.ID).WithShareType(shareType.ID).WithBalance(testutil.Dollars(10)).Build(t, db)
		tiny := testutil.NewShare().WithInstance(instance.ID).WithShareType(shareType.ID).WithBalance(money.FromCents(4)).Build(t, db)

		result, err := svc.PostDividends(ctx, model.DividendRequest{ShareTypeID: shareType.ID, InstanceIDs: []string{instance.ID}})
		if err != nil {
			t.Fatalf("PostDividends() returned unexpected error: %v", err)
		}
		if result.SharesPaid != 1 || !result.TotalPaid.Equal(testutil.Dollars(1)) {
			t.Errorf("Unexpected result: %+v", result)
		}

		testutil.AssertBalance(t, db, paid.Share.ID, testutil.Dollars(11))
		testutil.AssertBalance(t, db, empty.Share.ID, money.Zero)
		testutil.AssertBalance(t, db, overdrawn.Share.ID, testutil.Dollars(-10))
		testutil.AssertBalance(t, db, wrongType.Share.ID, testutil.Dollars(10))
		testutil.AssertBalance(t, db, wrongInstance.Share.ID, testutil.Dollars(10))
		testutil.AssertBalance(t, db, tiny.Share.ID, money.FromCents(4))
		if got := len(testutil.GetTransactions(t, db, deleted.Share.ID)); got != 1 {
			t.Errorf("Expected no dividend for a deleted student, got %d rows", got)
		}
	})

	t.Run("resumes a partially committed run", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestDividendService(t, db)
		instance := testutil.NewInstance().Build(t, db)
		shareType := testutil.NewShareType().WithDividendRate(money.Percent(5)).Build(t, db)

		total := service.DividendPageSize + service.DividendPageSize/2
		for i := 0; i < total; i++ {
			testutil.NewShare().WithInstance(instance.ID).WithShareType(shareType.ID).WithBalance(testutil.Dollars(100)).Build(t, db)
		}

		// The second page fails on its first dividend.
		restore := testutil.InjectFailure(t, db, "INSERT", "ledger_transaction", fmt.Sprintf(
			"NEW.transaction_type = 'V' AND (SELECT COUNT(*) FROM ledger_transaction WHERE transaction_type = 'V') >= %d",
			service.DividendPageSize))

		req := model.DividendRequest{ShareTypeID: shareType.ID, InstanceIDs: []string{instance.ID}}
		partial, err := svc.PostDividends(ctx, req)
		if !errors.Is(err, apperrors.ErrDatabase) {
			t.Fatalf("Expected ErrDatabase, got %v", err)
		}
		if partial.PagesCommitted != 1 || partial.SharesPaid != service.DividendPageSize {
			t.Errorf("Unexpected partial result: %+v", partial)
		}
		if got := countDividends(t, db); got != service.DividendPageSize {
			t.Fatalf("Expected %d committed dividends, got %d", service.DividendPageSize, got)
		}

		restore()
		req.RunID = partial.RunID
		resumed, err := svc.PostDividends(ctx, req)
		if err != nil {
			t.Fatalf("PostDividends() resume returned unexpected error: %v", err)
		}
		if resumed.RunID != partial.RunID || resumed.SharesPaid != total-service.DividendPageSize {
			t.Errorf("Unexpected resumed result: %+v", resumed)
		}
		if got := countDividends(t, db); got != total {
			t.Errorf("Expected %d dividends after resume, got %d", total, got)
		}

		again, err := svc.PostDividends(ctx, req)
		if err != nil {
			t.Fatalf("PostDividends() rerun returned unexpected error: %v", err)
		}
		if again.SharesPaid != 0 || again.PagesCommitted != 0 || !again.TotalPaid.IsZero() {
			t.Errorf("Expected completed run to pay nothing, got %+v", again)
		}
		if got := countDividends(t, db); got != total {
			t.Errorf("Expected %d dividends after rerun, got %d", total, got)
		}
	})

	t.Run("rejects invalid requests", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestDividendService(t, db)
		instance := testutil.NewInstance().Build(t, db)
		paying := testutil.NewShareType().WithDividendRate(money.Percent(5)).Build(t, db)
		zeroRate := testutil.NewShareType().Build(t, db)

		tests := []struct {
			name    string
			req     model.DividendRequest
			wantErr error
		}{
			{"unknown share type", model.DividendRequest{ShareTypeID: testutil.MakeID(), InstanceIDs: []string{instance.ID}}, apperrors.ErrShareTypeNotFound},
			{"zero rate", model.DividendRequest{ShareTypeID: zeroRate.ID, InstanceIDs: []string{instance.ID}}, apperrors.ErrArgumentOutOfRange},
			{"no instances", model.DividendRequest{ShareTypeID: paying.ID}, apperrors.ErrArgumentOutOfRange},
			{"unknown instance", model.DividendRequest{ShareTypeID: paying.ID, InstanceIDs: []string{instance.ID, testutil.MakeID()}}, apperrors.ErrArgumentOutOfRange},
			{"malformed run id", model.DividendRequest{ShareTypeID: paying.ID, InstanceIDs: []string{instance.ID}, RunID: "run-1"}, apperrors.ErrArgumentOutOfRange},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := svc.PostDividends(ctx, tt.req); !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
			})
		}
	})
}

func countDividends(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM ledger_transaction WHERE transaction_type = 'V'`).Scan(&n); err != nil {
		t.Fatalf("Failed to count dividends: %v", err)
	}
	return n
}
