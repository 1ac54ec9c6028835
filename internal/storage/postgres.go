package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresOptions tunes the PostgreSQL pool.
type PostgresOptions struct {
	// Tracing attaches an OpenTelemetry query tracer to every connection.
	Tracing bool
}

// OpenPostgres creates a DB backed by a pgx connection pool.
func OpenPostgres(ctx context.Context, dsn string, opts PostgresOptions) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if opts.Tracing {
		poolConfig.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db := newDB(&pgBackend{pgQuerier: pgQuerier{pool}, pool: pool})
	db.Pool = pool
	return db, nil
}

type pgConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgQuerier struct {
	conn pgConn
}

func (q pgQuerier) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := q.conn.Exec(ctx, sql, args...)
	if err != nil {
		return 0, translatePgError(err)
	}
	return tag.RowsAffected(), nil
}

func (q pgQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rows, err := q.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, translatePgError(err)
	}
	return pgRows{rows}, nil
}

func (q pgQuerier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return pgRow{q.conn.QueryRow(ctx, sql, args...)}
}

type pgRows struct {
	rows pgx.Rows
}

func (r pgRows) Next() bool             { return r.rows.Next() }
func (r pgRows) Scan(dest ...any) error { return translatePgError(r.rows.Scan(dest...)) }
func (r pgRows) Err() error             { return translatePgError(r.rows.Err()) }
func (r pgRows) Close()                 { r.rows.Close() }

type pgRow struct {
	row pgx.Row
}

func (r pgRow) Scan(dest ...any) error { return translatePgError(r.row.Scan(dest...)) }

type pgBackend struct {
	pgQuerier
	pool *pgxpool.Pool
}

func (b *pgBackend) inTx(ctx context.Context, fn func(Querier) error) error {
	return pgx.BeginFunc(ctx, b.pool, func(tx pgx.Tx) error {
		return fn(pgQuerier{tx})
	})
}

func (b *pgBackend) ping(ctx context.Context) error { return b.pool.Ping(ctx) }
func (b *pgBackend) close()                         { b.pool.Close() }

// translatePgError maps no-row results and integrity violations onto the
// models error taxonomy. Other errors pass through unchanged.
func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503", "23514", "23502":
			name := pgErr.ConstraintName
			if name == "" {
				name = pgErr.ColumnName
			}
			return &models.ConstraintError{Constraint: name, Reason: pgErr.Message, Err: err}
		}
	}
	return err
}
