package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"time"

	"github.com/claude/liftlog/internal/models"
	"go.uber.org/multierr"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// OpenSQLite opens (or creates) a SQLite database file and applies the
// embedded schema.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	// One writer at a time; callers inside WithTx must only use the tx handle.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging sqlite %s: %w", path, err)
	}
	if _, err := sqlDB.ExecContext(ctx, sqliteSchema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("applying sqlite schema: %w", err)
	}

	return newDB(&sqliteBackend{sqliteQuerier: sqliteQuerier{sqlDB}, db: sqlDB}), nil
}

type sqlConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqliteQuerier struct {
	conn sqlConn
}

func (q sqliteQuerier) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.conn.ExecContext(ctx, rebind(query), sqliteArgs(args)...)
	if err != nil {
		return 0, translateSQLiteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}
	return n, nil
}

func (q sqliteQuerier) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := q.conn.QueryContext(ctx, rebind(query), sqliteArgs(args)...)
	if err != nil {
		return nil, translateSQLiteError(err)
	}
	return sqliteRows{rows}, nil
}

func (q sqliteQuerier) QueryRow(ctx context.Context, query string, args ...any) Row {
	return sqliteRow{q.conn.QueryRowContext(ctx, rebind(query), sqliteArgs(args)...)}
}

type sqliteRows struct {
	rows *sql.Rows
}

func (r sqliteRows) Next() bool             { return r.rows.Next() }
func (r sqliteRows) Scan(dest ...any) error { return translateSQLiteError(r.rows.Scan(dest...)) }
func (r sqliteRows) Err() error             { return translateSQLiteError(r.rows.Err()) }
func (r sqliteRows) Close()                 { r.rows.Close() }

type sqliteRow struct {
	row *sql.Row
}

func (r sqliteRow) Scan(dest ...any) error { return translateSQLiteError(r.row.Scan(dest...)) }

type sqliteBackend struct {
	sqliteQuerier
	db *sql.DB
}

func (b *sqliteBackend) inTx(ctx context.Context, fn func(Querier) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(sqliteQuerier{tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = multierr.Append(err, fmt.Errorf("rolling back: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", translateSQLiteError(err))
	}
	return nil
}

func (b *sqliteBackend) ping(ctx context.Context) error { return b.db.PingContext(ctx) }
func (b *sqliteBackend) close()                         { b.db.Close() }

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

// rebind rewrites $n placeholders to SQLite's ?n form.
func rebind(query string) string {
	return placeholderRe.ReplaceAllString(query, "?$1")
}

// sqliteArgs dereferences pointer arguments and normalizes timestamps to
// UTC so stored text sorts chronologically.
func sqliteArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if a != nil {
			if v := reflect.ValueOf(a); v.Kind() == reflect.Pointer {
				if v.IsNil() {
					a = nil
				} else {
					a = v.Elem().Interface()
				}
			}
		}
		if t, ok := a.(time.Time); ok {
			a = t.UTC()
		}
		out[i] = a
	}
	return out
}

func translateSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) && sqErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return &models.ConstraintError{Constraint: constraintKind(sqErr.Code()), Reason: sqErr.Error(), Err: err}
	}
	return err
}

func constraintKind(code int) string {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return "unique"
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return "foreign_key"
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return "check"
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return "not_null"
	}
	return ""
}
