package testutil

import (
	"database/sql"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/database"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/repository"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/service"
)

// Services bundles every service wired against one test database.
type Services = service.Services

// NewTestStore creates a Store over db that logs to the test output.
func NewTestStore(t *testing.T, db *sql.DB) *repository.Store {
	t.Helper()

	return repository.NewStore(db, database.DriverSQLite, zaptest.NewLogger(t))
}

// NewTestServices wires every service the way cmd/server does.
func NewTestServices(t *testing.T, db *sql.DB) *Services {
	t.Helper()

	logger := zaptest.NewLogger(t)
	return service.NewServices(repository.NewStore(db, database.DriverSQLite, logger), logger)
}

func NewTestLedgerService(t *testing.T, db *sql.DB) *service.LedgerService {
	t.Helper()
	return NewTestServices(t, db).Ledger
}

func NewTestPurchaseService(t *testing.T, db *sql.DB) *service.PurchaseService {
	t.Helper()
	return NewTestServices(t, db).Purchase
}

func NewTestStockService(t *testing.T, db *sql.DB) *service.StockService {
	t.Helper()
	return NewTestServices(t, db).Stock
}

func NewTestDividendService(t *testing.T, db *sql.DB) *service.DividendService {
	t.Helper()
	return NewTestServices(t, db).Dividend
}

func NewTestLimitResetService(t *testing.T, db *sql.DB) *service.LimitResetService {
	t.Helper()
	return NewTestServices(t, db).LimitReset
}

func NewTestShareService(t *testing.T, db *sql.DB) *service.ShareService {
	t.Helper()
	return NewTestServices(t, db).Share
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()
	return NewTestServices(t, db).System
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeSymbol generates a stock ticker symbol for testing.
//
// Example usage:
//
//	symbol := testutil.MakeSymbol("AAPL")
//	// Returns: "AAPL1A2B"
func MakeSymbol(base string) string {
	if base == "" {
		base = "TEST"
	}
	return base + randomAlphanumeric(4)
}

// MakeName generates a unique display name for testing.
//
// Example usage:
//
//	name := testutil.MakeName("Room")
//	// Returns: "Room ABC123"
func MakeName(base string) string {
	if base == "" {
		base = "Test"
	}
	return base + " " + randomAlphanumeric(6)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
