package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
)

func (s *Store) ListCarriers(ctx context.Context, userID string) ([]orders.Carrier, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, user_id, slug, name FROM carriers WHERE user_id = $1 ORDER BY slug`, userID)
	if err != nil {
		return nil, mapErr("list carriers", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (orders.Carrier, error) {
		var c orders.Carrier
		err := r.Scan(&c.ID, &c.UserID, &c.Slug, &c.Name)
		return c, err
	})
	return out, mapErr("list carriers", err)
}

func (s *Store) CreateCarrier(ctx context.Context, c *orders.Carrier) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.DB.Exec(ctx, `INSERT INTO carriers(id, user_id, slug, name) VALUES ($1,$2,$3,$4)`, c.ID, c.UserID, c.Slug, c.Name)
	return mapErr("create carrier", err)
}

// DeleteCarrier refuses while any parcel of the user still names the carrier.
func (s *Store) DeleteCarrier(ctx context.Context, userID, id string) error {
	return s.deleteCatalogEntry(ctx, "carriers", userID, id,
		`SELECT EXISTS(SELECT 1 FROM parcels WHERE user_id = $1 AND carrier_slug = $2)`,
		"cannot delete: parcels still use this carrier")
}

func (s *Store) ListStores(ctx context.Context, userID string) ([]orders.Store, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, user_id, slug, name FROM stores WHERE user_id = $1 ORDER BY slug`, userID)
	if err != nil {
		return nil, mapErr("list stores", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (orders.Store, error) {
		var st orders.Store
		err := r.Scan(&st.ID, &st.UserID, &st.Slug, &st.Name)
		return st, err
	})
	return out, mapErr("list stores", err)
}

func (s *Store) CreateStore(ctx context.Context, st *orders.Store) error {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	_, err := s.DB.Exec(ctx, `INSERT INTO stores(id, user_id, slug, name) VALUES ($1,$2,$3,$4)`, st.ID, st.UserID, st.Slug, st.Name)
	return mapErr("create store", err)
}

// DeleteStore refuses while any order of the user is placed on the store.
func (s *Store) DeleteStore(ctx context.Context, userID, id string) error {
	return s.deleteCatalogEntry(ctx, "stores", userID, id,
		`SELECT EXISTS(SELECT 1 FROM orders WHERE user_id = $1 AND platform = $2)`,
		"cannot delete: orders are still placed on this store")
}

func (s *Store) deleteCatalogEntry(ctx context.Context, table, userID, id, inUse, conflict string) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var slug string
	q := fmt.Sprintf(`SELECT slug FROM %s WHERE id = $1 AND user_id = $2 FOR UPDATE`, table)
	if err := tx.QueryRow(ctx, q, id, userID).Scan(&slug); err != nil {
		return mapErr("delete "+table, err)
	}
	var used bool
	if err := tx.QueryRow(ctx, inUse, userID, slug).Scan(&used); err != nil {
		return mapErr("delete "+table, err)
	}
	if used {
		return &orders.ConflictError{Message: conflict}
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id); err != nil {
		return mapErr("delete "+table, err)
	}
	return tx.Commit(ctx)
}
