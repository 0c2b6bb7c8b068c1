package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
	"github.com/ariefcatur/go-parcel-ledger/internal/reconcile"
)

const orderColumns = `id, user_id, platform, order_number_external, label, order_date, protection_end_date,
	price_original, currency_original, exchange_rate_frozen, price_final_base, is_price_estimated,
	shipping_cost, customs_cost, comment, is_archived, deleted_at`

func scanOrder(s scanner) (orders.Order, error) {
	var o orders.Order
	err := s.Scan(&o.ID, &o.UserID, &o.Platform, &o.ExternalNumber, &o.Label, &o.OrderDate, &o.ProtectionEnd,
		&o.PriceOriginal, &o.CurrencyOriginal, &o.ExchangeRate, &o.PriceBase, &o.IsPriceEstimated,
		&o.ShippingCost, &o.CustomsCost, &o.Comment, &o.IsArchived, &o.DeletedAt)
	return o, err
}

// archiveFilter renders the archive predicate of a list call.
func archiveFilter(opt orders.ListOptions) string {
	switch {
	case opt.ArchivedOnly:
		return " AND is_archived"
	case !opt.IncludeArchived:
		return " AND NOT is_archived"
	}
	return ""
}

func (s *Store) ListOrders(ctx context.Context, userID string, opt orders.ListOptions) ([]orders.Order, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1 AND deleted_at IS NULL`+archiveFilter(opt)+`
		ORDER BY order_date DESC, id`, userID)
	if err != nil {
		return nil, mapErr("list orders", err)
	}
	defer rows.Close()

	var out []orders.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, mapErr("scan order", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list orders", err)
	}
	if !opt.IncludeItems || len(out) == 0 {
		return out, nil
	}
	if err := s.attachItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachItems loads the items of list and enriches each with its split links and aggregate.
func (s *Store) attachItems(ctx context.Context, list []orders.Order) error {
	ids := make([]string, len(list))
	idx := make(map[string]int, len(list))
	for i, o := range list {
		ids[i] = o.ID
		idx[o.ID] = i
	}

	rows, err := s.DB.Query(ctx, `SELECT `+itemColumns+` FROM order_items
		WHERE order_id = ANY($1) ORDER BY created_at, id`, ids)
	if err != nil {
		return mapErr("list order items", err)
	}
	var items []orders.OrderItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			rows.Close()
			return mapErr("scan order item", err)
		}
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return mapErr("list order items", err)
	}

	itemIDs := make([]string, len(items))
	for i, it := range items {
		itemIDs[i] = it.ID
	}
	links, err := s.linksFor(ctx, itemIDs)
	if err != nil {
		return err
	}

	for _, it := range items {
		ls := links[it.ID]
		for _, l := range ls {
			it.InParcels = append(it.InParcels, orders.Allocation{ParcelID: l.ParcelID, Quantity: l.Quantity})
		}
		r := reconcile.ResolveLinks(it, ls)
		in, remaining := r.InParcels, r.Remaining
		it.QuantityInParcels, it.RemainingQuantity = &in, &remaining

		o := &list[idx[it.OrderID]]
		o.Items = append(o.Items, it)
	}
	return nil
}

func (s *Store) linksFor(ctx context.Context, itemIDs []string) (map[string][]orders.ParcelItem, error) {
	out := make(map[string][]orders.ParcelItem)
	if len(itemIDs) == 0 {
		return out, nil
	}
	rows, err := s.DB.Query(ctx, `SELECT id, parcel_id, order_item_id, quantity FROM parcel_items
		WHERE order_item_id = ANY($1) ORDER BY created_at, id`, itemIDs)
	if err != nil {
		return nil, mapErr("list parcel items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l orders.ParcelItem
		if err := rows.Scan(&l.ID, &l.ParcelID, &l.OrderItemID, &l.Quantity); err != nil {
			return nil, mapErr("scan parcel item", err)
		}
		out[l.OrderItemID] = append(out[l.OrderItemID], l)
	}
	return out, mapErr("list parcel items", rows.Err())
}

func (s *Store) CreateOrder(ctx context.Context, o *orders.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	_, err := s.DB.Exec(ctx, `INSERT INTO orders(`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		o.ID, o.UserID, o.Platform, o.ExternalNumber, o.Label, o.OrderDate, o.ProtectionEnd,
		o.PriceOriginal, o.CurrencyOriginal, o.ExchangeRate, o.PriceBase, o.IsPriceEstimated,
		o.ShippingCost, o.CustomsCost, o.Comment, o.IsArchived, o.DeletedAt)
	return mapErr("create order", err)
}

func orderUpdate(p orders.OrderPatch) *update {
	u := &update{}
	if p.Platform != nil {
		u.set("platform", *p.Platform)
	}
	if p.ExternalNumber != nil {
		u.set("order_number_external", *p.ExternalNumber)
	}
	if p.Label.Set {
		u.set("label", p.Label.Ptr())
	}
	if p.OrderDate != nil {
		u.set("order_date", *p.OrderDate)
	}
	if p.ProtectionEnd.Set {
		u.set("protection_end_date", p.ProtectionEnd.Ptr())
	}
	if p.PriceOriginal != nil {
		u.set("price_original", *p.PriceOriginal)
	}
	if p.CurrencyOriginal != nil {
		u.set("currency_original", *p.CurrencyOriginal)
	}
	if p.ExchangeRate != nil {
		u.set("exchange_rate_frozen", *p.ExchangeRate)
	}
	if p.PriceBase != nil {
		u.set("price_final_base", *p.PriceBase)
	}
	if p.ShippingCost.Set {
		u.set("shipping_cost", p.ShippingCost.Ptr())
	}
	if p.CustomsCost.Set {
		u.set("customs_cost", p.CustomsCost.Ptr())
	}
	if p.Comment.Set {
		u.set("comment", p.Comment.Ptr())
	}
	if p.IsArchived != nil {
		u.set("is_archived", *p.IsArchived)
	}
	return u
}

func (s *Store) UpdateOrder(ctx context.Context, userID, id string, p orders.OrderPatch) (orders.Order, error) {
	u := orderUpdate(p)
	if u.empty() {
		return scanOrderRow(s.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, id, userID))
	}
	q := fmt.Sprintf(`UPDATE orders SET %s WHERE id = %s AND user_id = %s RETURNING %s`,
		u.assignments(), u.arg(id), u.arg(userID), orderColumns)
	return scanOrderRow(s.DB.QueryRow(ctx, q, u.args...))
}

func scanOrderRow(s scanner) (orders.Order, error) {
	o, err := scanOrder(s)
	return o, mapErr("order", err)
}

// DeleteOrder removes the order with its items and their parcel links.
func (s *Store) DeleteOrder(ctx context.Context, userID, id string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM orders WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return mapErr("delete order", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("delete order %s: %w", id, orders.ErrNotFound)
	}
	return nil
}
