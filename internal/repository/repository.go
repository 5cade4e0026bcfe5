// Package repository implements the SQL persistence layer. Every query uses
// ? placeholders and runs through database.ConvertPlaceholders; row-level
// visibility comes from the scope fragments, never from ad-hoc role checks.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/deskflow-io/deskflow/internal/database"
)

// DBTX is the subset of *sql.DB and *sql.Tx the repositories need. Write
// paths that must be atomic receive the caller's transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// insertReturningID inserts a row and returns its generated ID. The query
// must end with "RETURNING id"; for MySQL the clause is stripped and
// LastInsertId used instead.
func insertReturningID(ctx context.Context, q DBTX, query string, args ...any) (int64, error) {
	if database.IsMySQL() {
		stripped := strings.TrimSpace(query)
		if idx := strings.LastIndex(strings.ToUpper(stripped), "RETURNING"); idx >= 0 {
			stripped = strings.TrimSpace(stripped[:idx])
		}
		res, err := q.ExecContext(ctx, database.ConvertPlaceholders(stripped), args...)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}

	var id int64
	if err := q.QueryRowContext(ctx, database.ConvertPlaceholders(query), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// isUniqueViolation reports whether err is the driver's unique-constraint
// error (postgres 23505, mysql 1062). Insert paths translate it into a
// client error instead of letting it surface as an internal one.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}

// WithTx runs fn inside a transaction, rolling back on error. Multi-row
// writes (ticket + event, comment + event + outbox) go through here so the
// rows commit or vanish together.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
