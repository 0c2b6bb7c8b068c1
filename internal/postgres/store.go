// Package postgres is the pgx-backed implementation of orders.Backend.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
)

// DB is the part of *pgxpool.Pool the store runs on.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

type Store struct{ DB DB }

var _ orders.Backend = (*Store)(nil)

type scanner interface {
	Scan(dest ...any) error
}

// update collects "col = $n" assignments for a partial UPDATE.
type update struct {
	cols []string
	args []any
}

// arg binds v and returns its placeholder.
func (u *update) arg(v any) string {
	u.args = append(u.args, v)
	return fmt.Sprintf("$%d", len(u.args))
}

func (u *update) set(col string, v any) {
	u.cols = append(u.cols, col+" = "+u.arg(v))
}

func (u *update) empty() bool { return len(u.cols) == 0 }

func (u *update) assignments() string { return strings.Join(u.cols, ", ") }

// mapErr turns driver errors into the orders error taxonomy.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, orders.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", op, &orders.ConflictError{Message: uniqueMessage(pgErr.ConstraintName)})
		case "23503":
			return fmt.Errorf("%s: %w", op, &orders.ConflictError{Message: "referenced record does not exist or is still in use"})
		case "23514":
			return fmt.Errorf("%s: %w", op, &orders.ConflictError{Message: "value violates " + pgErr.ConstraintName})
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func uniqueMessage(constraint string) string {
	switch constraint {
	case "uq_parcel_item":
		return "order item is already in this parcel"
	case "uq_carrier_slug":
		return "carrier with this slug already exists"
	case "uq_store_slug":
		return "store with this slug already exists"
	}
	return "record already exists"
}
