package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/claude/liftlog/internal/config"
)

// TestOpenSQLiteDriver verifies the sqlite driver opens a usable store
// without touching migrations.
func TestOpenSQLiteDriver(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "open.db")}
	db, err := Open(context.Background(), cfg, PostgresOptions{}, "does-not-exist")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if db.Pool != nil {
		t.Error("sqlite store has a pgx pool")
	}
	if _, err := db.GetOrCreateUser(context.Background(), "open@test", ""); err != nil {
		t.Errorf("GetOrCreateUser: %v", err)
	}
}

// TestOpenUnknownDriver verifies an unsupported driver is rejected.
func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "mysql"}, PostgresOptions{}, "migrations")
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
