package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
	"github.com/ariefcatur/go-parcel-ledger/internal/reconcile"
)

const itemColumns = `id, order_id, parcel_id, item_name, image_url, tags, quantity_ordered, quantity_received,
	item_status, price_per_item`

func scanItem(s scanner) (orders.OrderItem, error) {
	var it orders.OrderItem
	err := s.Scan(&it.ID, &it.OrderID, &it.ParcelID, &it.Name, &it.ImageURL, &it.Tags, &it.QuantityOrdered,
		&it.QuantityReceived, &it.Status, &it.PricePerItem)
	return it, err
}

// ownedItem scopes an order item to the user owning its order.
const ownedItem = `order_id IN (SELECT id FROM orders WHERE user_id = %s)`

func (s *Store) CreateOrderItem(ctx context.Context, userID string, it *orders.OrderItem) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.Tags == nil {
		it.Tags = []string{}
	}
	if it.Status == "" {
		it.Status = orders.ItemSellerPacking
	}
	ct, err := s.DB.Exec(ctx, `INSERT INTO order_items(`+itemColumns+`)
		SELECT $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
		FROM orders WHERE id = $2 AND user_id = $11`,
		it.ID, it.OrderID, it.ParcelID, it.Name, it.ImageURL, it.Tags, it.QuantityOrdered, it.QuantityReceived,
		it.Status, it.PricePerItem, userID)
	if err != nil {
		return mapErr("create order item", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("create order item: order %s: %w", it.OrderID, orders.ErrNotFound)
	}
	return nil
}

func itemUpdate(p orders.OrderItemPatch) *update {
	u := &update{}
	if p.Name != nil {
		u.set("item_name", *p.Name)
	}
	if p.ImageURL.Set {
		u.set("image_url", p.ImageURL.Ptr())
	}
	if p.Tags != nil {
		u.set("tags", p.Tags)
	}
	if p.QuantityOrdered != nil {
		u.set("quantity_ordered", *p.QuantityOrdered)
	}
	if p.QuantityReceived != nil {
		u.set("quantity_received", *p.QuantityReceived)
	}
	if p.Status != nil {
		u.set("item_status", *p.Status)
	}
	if p.PricePerItem.Set {
		u.set("price_per_item", p.PricePerItem.Ptr())
	}
	return u
}

// UpdateOrderItem refuses to shrink quantity_ordered below what is already in parcels.
func (s *Store) UpdateOrderItem(ctx context.Context, userID, id string, p orders.OrderItemPatch) (orders.OrderItem, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return orders.OrderItem{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	it, err := lockItem(ctx, tx, userID, id)
	if err != nil {
		return orders.OrderItem{}, err
	}
	if p.QuantityOrdered != nil {
		var inParcels int
		if err := tx.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM parcel_items WHERE order_item_id = $1`, id).Scan(&inParcels); err != nil {
			return orders.OrderItem{}, mapErr("sum parcel items", err)
		}
		if *p.QuantityOrdered < inParcels {
			return orders.OrderItem{}, &orders.ConflictError{
				Message: fmt.Sprintf("quantity_ordered %d is below the %d units already in parcels", *p.QuantityOrdered, inParcels),
			}
		}
	}

	u := itemUpdate(p)
	if !u.empty() {
		q := fmt.Sprintf(`UPDATE order_items SET %s WHERE id = %s RETURNING %s`, u.assignments(), u.arg(id), itemColumns)
		if it, err = scanItem(tx.QueryRow(ctx, q, u.args...)); err != nil {
			return orders.OrderItem{}, mapErr("update order item", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return orders.OrderItem{}, err
	}
	return it, nil
}

func (s *Store) DeleteOrderItem(ctx context.Context, userID, id string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM order_items WHERE id = $1 AND `+fmt.Sprintf(ownedItem, "$2"), id, userID)
	if err != nil {
		return mapErr("delete order item", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("delete order item %s: %w", id, orders.ErrNotFound)
	}
	return nil
}

// lockItem reads the item FOR UPDATE so concurrent link writers serialize on it.
func lockItem(ctx context.Context, tx pgx.Tx, userID, id string) (orders.OrderItem, error) {
	it, err := scanItem(tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM order_items
		WHERE id = $1 AND `+fmt.Sprintf(ownedItem, "$2")+` FOR UPDATE`, id, userID))
	if err != nil {
		return it, mapErr("order item "+id, err)
	}
	return it, nil
}

func itemLinks(ctx context.Context, tx pgx.Tx, itemID string) ([]orders.ParcelItem, error) {
	rows, err := tx.Query(ctx, `SELECT id, parcel_id, order_item_id, quantity FROM parcel_items WHERE order_item_id = $1`, itemID)
	if err != nil {
		return nil, mapErr("parcel items", err)
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (orders.ParcelItem, error) {
		var l orders.ParcelItem
		err := r.Scan(&l.ID, &l.ParcelID, &l.OrderItemID, &l.Quantity)
		return l, err
	})
}

func ownsParcel(ctx context.Context, tx pgx.Tx, userID, parcelID string) error {
	var ok bool
	err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM parcels WHERE id = $1 AND user_id = $2)`, parcelID, userID).Scan(&ok)
	if err != nil {
		return mapErr("parcel", err)
	}
	if !ok {
		return fmt.Errorf("parcel %s: %w", parcelID, orders.ErrNotFound)
	}
	return nil
}

func (s *Store) ListParcelItems(ctx context.Context, userID, parcelID string) ([]orders.ParcelItem, error) {
	rows, err := s.DB.Query(ctx, `SELECT pi.id, pi.parcel_id, pi.order_item_id, pi.quantity
		FROM parcel_items pi JOIN parcels p ON p.id = pi.parcel_id
		WHERE pi.parcel_id = $1 AND p.user_id = $2
		ORDER BY pi.created_at, pi.id`, parcelID, userID)
	if err != nil {
		return nil, mapErr("list parcel items", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (orders.ParcelItem, error) {
		var l orders.ParcelItem
		err := r.Scan(&l.ID, &l.ParcelID, &l.OrderItemID, &l.Quantity)
		return l, err
	})
	return out, mapErr("list parcel items", err)
}

// CreateParcelItem links qty units of an order item to a parcel. The item row is locked
// while the capacity check runs, so two writers cannot both take the last units.
func (s *Store) CreateParcelItem(ctx context.Context, userID, parcelID, orderItemID string, qty int) (orders.ParcelItem, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return orders.ParcelItem{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := ownsParcel(ctx, tx, userID, parcelID); err != nil {
		return orders.ParcelItem{}, err
	}
	it, err := lockItem(ctx, tx, userID, orderItemID)
	if err != nil {
		return orders.ParcelItem{}, err
	}
	links, err := itemLinks(ctx, tx, orderItemID)
	if err != nil {
		return orders.ParcelItem{}, err
	}
	if err := reconcile.CheckCapacity(it, links, "", qty); err != nil {
		return orders.ParcelItem{}, err
	}

	l := orders.ParcelItem{ID: uuid.NewString(), ParcelID: parcelID, OrderItemID: orderItemID, Quantity: qty}
	if _, err := tx.Exec(ctx, `INSERT INTO parcel_items(id, parcel_id, order_item_id, quantity) VALUES ($1,$2,$3,$4)`,
		l.ID, l.ParcelID, l.OrderItemID, l.Quantity); err != nil {
		return orders.ParcelItem{}, mapErr("create parcel item", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return orders.ParcelItem{}, err
	}
	return l, nil
}

func (s *Store) UpdateParcelItem(ctx context.Context, userID, parcelID, id string, qty int) (orders.ParcelItem, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return orders.ParcelItem{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := ownsParcel(ctx, tx, userID, parcelID); err != nil {
		return orders.ParcelItem{}, err
	}
	var l orders.ParcelItem
	err = tx.QueryRow(ctx, `SELECT id, parcel_id, order_item_id, quantity FROM parcel_items
		WHERE id = $1 AND parcel_id = $2`, id, parcelID).Scan(&l.ID, &l.ParcelID, &l.OrderItemID, &l.Quantity)
	if err != nil {
		return orders.ParcelItem{}, mapErr("parcel item "+id, err)
	}
	it, err := lockItem(ctx, tx, userID, l.OrderItemID)
	if err != nil {
		return orders.ParcelItem{}, err
	}
	links, err := itemLinks(ctx, tx, l.OrderItemID)
	if err != nil {
		return orders.ParcelItem{}, err
	}
	if err := reconcile.CheckCapacity(it, links, id, qty); err != nil {
		return orders.ParcelItem{}, err
	}

	if _, err := tx.Exec(ctx, `UPDATE parcel_items SET quantity = $2 WHERE id = $1`, id, qty); err != nil {
		return orders.ParcelItem{}, mapErr("update parcel item", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return orders.ParcelItem{}, err
	}
	l.Quantity = qty
	return l, nil
}

func (s *Store) DeleteParcelItem(ctx context.Context, userID, parcelID, id string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM parcel_items pi USING parcels p
		WHERE pi.id = $1 AND pi.parcel_id = $2 AND p.id = pi.parcel_id AND p.user_id = $3`, id, parcelID, userID)
	if err != nil {
		return mapErr("delete parcel item", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("delete parcel item %s: %w", id, orders.ErrNotFound)
	}
	return nil
}
