package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/testutil"
)

// TestShareService tests the read side of shares.
//
// WHY: The API and the CLI both rely on these reads to show balances and
// to detect a cached balance that drifted from the ledger.
func TestShareService(t *testing.T) {
	ctx := context.Background()

	t.Run("GetShare resolves share type and instance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestShareService(t, db)
		instance := testutil.NewInstance().Build(t, db)
		shareType := testutil.NewShareType().WithWithdrawalLimit(3, model.PeriodDaily).Build(t, db)
		account := testutil.NewShare().WithInstance(instance.ID).WithShareType(shareType.ID).Build(t, db)

		got, err := svc.GetShare(ctx, account.Share.ID)
		if err != nil {
			t.Fatalf("GetShare() returned unexpected error: %v", err)
		}
		if got.Context.InstanceID != instance.ID || got.ShareType.WithdrawalLimitCount != 3 {
			t.Errorf("Unexpected share context: %+v", got)
		}

		if _, err := svc.GetShare(ctx, testutil.MakeID()); !errors.Is(err, apperrors.ErrShareNotFound) {
			t.Errorf("Expected ErrShareNotFound, got %v", err)
		}
	})

	t.Run("ListHoldings returns a student's holdings", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestShareService(t, db)
		account := testutil.NewShare().Build(t, db)
		first := testutil.NewStock().Build(t, db)
		second := testutil.NewStock().Build(t, db)
		testutil.CreateHolding(t, db, account, first.ID, 4)
		testutil.CreateHolding(t, db, account, second.ID, 0)
		other := testutil.NewShare().Build(t, db)
		testutil.CreateHolding(t, db, other, first.ID, 9)

		holdings, err := svc.ListHoldings(ctx, account.Context.StudentID)
		if err != nil {
			t.Fatalf("ListHoldings() returned unexpected error: %v", err)
		}
		if len(holdings) != 2 {
			t.Fatalf("Expected 2 holdings, got %+v", holdings)
		}
		owned := map[string]int64{}
		for _, h := range holdings {
			if h.StudentID != account.Context.StudentID || h.ShareID != account.Share.ID {
				t.Errorf("Unexpected holding owner: %+v", h)
			}
			owned[h.StockID] = h.SharesOwned
		}
		if owned[first.ID] != 4 || owned[second.ID] != 0 {
			t.Errorf("Unexpected shares owned: %v", owned)
		}
	})

	t.Run("ListHoldings of a missing or deleted student", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestShareService(t, db)
		deleted, _ := testutil.NewStudent().SoftDeleted().Build(t, db)
		active, _ := testutil.NewStudent().Build(t, db)

		for _, id := range []string{testutil.MakeID(), deleted.ID} {
			if _, err := svc.ListHoldings(ctx, id); !errors.Is(err, apperrors.ErrStudentNotFound) {
				t.Errorf("ListHoldings(%s): expected ErrStudentNotFound, got %v", id, err)
			}
		}

		holdings, err := svc.ListHoldings(ctx, active.ID)
		if err != nil || len(holdings) != 0 {
			t.Errorf("Expected no holdings and no error, got %v, %v", holdings, err)
		}
	})

	t.Run("ListTransactions returns ledger in posting order", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svcs := testutil.NewTestServices(t, db)
		account := testutil.NewShare().WithBalance(testutil.Dollars(5)).Build(t, db)

		for _, amount := range []int64{3, -1, -20} {
			_, _ = svcs.Ledger.Post(ctx, model.PostRequest{ShareID: account.Share.ID, Amount: testutil.Dollars(amount)})
		}

		transactions, err := svcs.Share.ListTransactions(ctx, account.Share.ID)
		if err != nil {
			t.Fatalf("ListTransactions() returned unexpected error: %v", err)
		}
		if len(transactions) != 4 {
			t.Fatalf("Expected 4 transactions, got %d", len(transactions))
		}
		if transactions[0].Comment != "Opening balance" || !transactions[3].Failed {
			t.Errorf("Unexpected ledger order: %+v", transactions)
		}
	})

	t.Run("VerifyBalance detects drift", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestShareService(t, db)
		account := testutil.NewShare().WithBalance(testutil.Dollars(5)).Build(t, db)

		if err := svc.VerifyBalance(ctx, account.Share.ID); err != nil {
			t.Fatalf("VerifyBalance() returned unexpected error: %v", err)
		}

		if _, err := db.Exec(`UPDATE share SET balance = balance + 1 WHERE id = ?`, account.Share.ID); err != nil {
			t.Fatalf("Failed to corrupt balance: %v", err)
		}
		if err := svc.VerifyBalance(ctx, account.Share.ID); err == nil {
			t.Error("Expected VerifyBalance() to report a mismatch")
		}
	})
}
