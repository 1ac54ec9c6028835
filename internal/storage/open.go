package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftlog/internal/config"
)

// Open connects the backend cfg selects. PostgreSQL migrations from
// migrationsPath are applied first; SQLite applies its embedded schema.
func Open(ctx context.Context, cfg config.DatabaseConfig, opts PostgresOptions, migrationsPath string) (*DB, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.Path)
	case config.DriverPostgres:
		dsn := cfg.DSN()
		if err := RunMigrations(dsn, migrationsPath); err != nil {
			return nil, err
		}
		return OpenPostgres(ctx, dsn, opts)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
