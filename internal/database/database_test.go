package database

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenAndMigrate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bank.db")

	db, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open() returned unexpected error: %v", err)
	}
	defer db.Close()

	version, err := Migrate(ctx, DriverSQLite, db)
	if err != nil {
		t.Fatalf("Migrate() returned unexpected error: %v", err)
	}
	if version != 1 {
		t.Errorf("Expected schema version 1, got %d", version)
	}

	// Running again is a no-op.
	if _, err := Migrate(ctx, DriverSQLite, db); err != nil {
		t.Fatalf("second Migrate() returned unexpected error: %v", err)
	}

	got, err := Version(ctx, DriverSQLite, db)
	if err != nil {
		t.Fatalf("Version() returned unexpected error: %v", err)
	}
	if got != version {
		t.Errorf("Expected version %d, got %d", version, got)
	}

	var fk int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("failed to read pragma: %v", err)
	}
	if fk != 1 {
		t.Error("Expected foreign keys to be enabled")
	}

	if err := HealthCheck(ctx, db); err != nil {
		t.Errorf("HealthCheck() returned unexpected error: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "whatever"); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"bank.db", "bank.db?" + sqliteParams},
		{"file:bank.db?mode=rwc", "file:bank.db?mode=rwc&" + sqliteParams},
		{"bank.db?_txlock=deferred", "bank.db?_txlock=deferred"},
	}
	for _, tt := range tests {
		if got := sqliteDSN(tt.in); got != tt.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
