package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/database"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database with the production
// migrations applied. The database is automatically closed when the test completes.
//
// The pool is limited to one connection so every query sees the same
// in-memory database.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Test connection
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	// Configure SQLite for testing
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	// Create schema
	if _, err := database.Migrate(context.Background(), database.DriverSQLite, db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	// Cleanup when test ends
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// CleanDatabase deletes all rows in dependency order.
// Useful for reusing the same database across multiple tests.
func CleanDatabase(t *testing.T, db *sql.DB) {
	t.Helper()

	// Order matters: delete children before parents due to foreign keys
	tables := []string{
		"student_stock_history",
		"student_stock",
		"stock_instance",
		"stock",
		"student_purchase_item",
		"student_purchase",
		"product_instance",
		"product",
		"ledger_transaction",
		"share",
		"share_type_instance",
		"share_type",
		"student",
		"student_group",
		"instance",
	}

	for _, table := range tables {
		//nolint:gosec // G202: Table names are from hardcoded slice, no SQL injection risk
		query := "DELETE FROM " + table
		if _, err := db.Exec(query); err != nil {
			t.Fatalf("Failed to clean table %s: %v", table, err)
		}
	}
}

// CountRows returns the number of rows in a table.
// Useful for assertions in tests.
//
// Example usage:
//
//	count := testutil.CountRows(t, db, "ledger_transaction")
//	assert.Equal(t, 2, count)
func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var count int
	query := "SELECT COUNT(*) FROM " + table
	err := db.QueryRow(query).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}

	return count
}

// AssertRowCount asserts that a table has the expected number of rows.
//
// Example usage:
//
//	testutil.AssertRowCount(t, db, "student_purchase", 0)
func AssertRowCount(t *testing.T, db *sql.DB, table string, expected int) {
	t.Helper()

	actual := CountRows(t, db, table)
	if actual != expected {
		t.Errorf("Expected %d rows in %s, got %d", expected, table, actual)
	}
}

// InjectFailure installs a SQLite trigger that aborts every statement of
// event ("INSERT", "UPDATE" or "DELETE") on table matching when (a SQL
// condition over NEW/OLD, or "" for always). It returns a function that
// removes the trigger.
//
// Example usage:
//
//	restore := testutil.InjectFailure(t, db, "DELETE", "student_purchase_item", "")
//	defer restore()
func InjectFailure(t *testing.T, db *sql.DB, event, table, when string) func() {
	t.Helper()

	name := fmt.Sprintf("fail_%s_%s", table, randomAlphanumeric(6))
	condition := ""
	if when != "" {
		condition = "WHEN " + when
	}

	//nolint:gosec // G201: Test-only DDL built from test constants
	ddl := fmt.Sprintf(`CREATE TRIGGER %s BEFORE %s ON %s %s
		BEGIN SELECT RAISE(ABORT, 'injected failure'); END`, name, event, table, condition)
	if _, err := db.Exec(ddl); err != nil {
		t.Fatalf("Failed to install failure trigger: %v", err)
	}

	return func() {
		if _, err := db.Exec("DROP TRIGGER IF EXISTS " + name); err != nil {
			t.Fatalf("Failed to drop failure trigger: %v", err)
		}
	}
}
