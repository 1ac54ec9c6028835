package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the query surface shared by a connection pool and a
// transaction. SQL is written with $n placeholders for every backend.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// Rows is a forward-only result set.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Row is a single-row result. Scan returns an error matching
// models.ErrNotFound when the query produced no row.
type Row interface {
	Scan(dest ...any) error
}

type backend interface {
	Querier
	inTx(ctx context.Context, fn func(Querier) error) error
	ping(ctx context.Context) error
	close()
}

// DB provides repository methods over a PostgreSQL or SQLite backend.
// A DB handed to a WithTx callback is bound to that transaction.
type DB struct {
	q       Querier
	backend backend

	// Pool is set for PostgreSQL so callers can attach pool collectors.
	Pool *pgxpool.Pool

	newID func() string
	now   func() time.Time
}

func newDB(b backend) *DB {
	return &DB{
		q:       b,
		backend: b,
		newID:   uuid.NewString,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Close closes the underlying connections.
func (db *DB) Close() {
	if db.backend != nil {
		db.backend.close()
	}
}

// Ping checks that the store is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if db.backend == nil {
		return nil
	}
	return db.backend.ping(ctx)
}

// WithTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise. Calling WithTx on a DB that is
// already bound to a transaction reuses it.
func (db *DB) WithTx(ctx context.Context, fn func(tx *DB) error) error {
	if db.backend == nil {
		return fn(db)
	}
	return db.backend.inTx(ctx, func(q Querier) error {
		return fn(&DB{q: q, Pool: db.Pool, newID: db.newID, now: db.now})
	})
}

// NewID returns a fresh entity id.
func (db *DB) NewID() string {
	return db.newID()
}

// RunMigrations applies all pending PostgreSQL migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// utc normalizes timestamps before they are written so both backends
// compare and order them consistently.
func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
