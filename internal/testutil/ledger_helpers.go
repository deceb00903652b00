package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/money"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/repository"
)

// GetShare reloads a share straight from the database.
func GetShare(t *testing.T, db *sql.DB, shareID string) model.Share {
	t.Helper()

	share, err := repository.NewShareRepository(NewTestStore(t, db)).GetShare(context.Background(), shareID)
	if err != nil {
		t.Fatalf("Failed to load share %s: %v", shareID, err)
	}
	return share
}

// GetTransactions returns the full ledger of a share, failed attempts included.
func GetTransactions(t *testing.T, db *sql.DB, shareID string) []model.Transaction {
	t.Helper()

	transactions, err := repository.NewTransactionRepository(NewTestStore(t, db)).ListByShare(context.Background(), shareID)
	if err != nil {
		t.Fatalf("Failed to load transactions of %s: %v", shareID, err)
	}
	return transactions
}

// AssertBalance asserts the cached balance of a share and that it matches
// the NewBalance of the share's latest applied transaction.
func AssertBalance(t *testing.T, db *sql.DB, shareID string, expected money.Money) {
	t.Helper()

	share := GetShare(t, db, shareID)
	if !share.Balance.Equal(expected) {
		t.Errorf("Expected balance %s, got %s", expected, share.Balance)
	}

	svc := NewTestShareService(t, db)
	if err := svc.VerifyBalance(context.Background(), shareID); err != nil {
		t.Errorf("Balance invariant violated: %v", err)
	}
}

// Dollars converts whole dollars to Money.
func Dollars(d int64) money.Money {
	return money.FromCents(d * money.MoneyScale)
}
