package tracker

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
)

func (s *Service) ParcelItems(ctx context.Context, userID, parcelID string) ([]orders.ParcelItem, error) {
	links, err := s.Store.ListParcelItems(ctx, userID, parcelID)
	if err != nil {
		return nil, &orders.FetchError{Op: "list parcel items", Err: err}
	}
	return links, nil
}

// AddParcelItem puts qty units of an order item into a parcel. Over-allocation fails with
// *orders.CapacityError and nothing is written.
func (s *Service) AddParcelItem(ctx context.Context, userID, parcelID, orderItemID string, qty int) (orders.ParcelItem, error) {
	if orderItemID == "" {
		return orders.ParcelItem{}, fmt.Errorf("%w: order_item_id is required", orders.ErrValidation)
	}
	if qty < 1 {
		return orders.ParcelItem{}, fmt.Errorf("%w: quantity must be at least 1", orders.ErrValidation)
	}
	l, err := s.Store.CreateParcelItem(ctx, userID, parcelID, orderItemID, qty)
	if err != nil {
		return orders.ParcelItem{}, err
	}
	s.changed(ctx, userID, orders.EntityParcelItem, l.ID, orders.ActionCreated)
	return l, nil
}

func (s *Service) UpdateParcelItem(ctx context.Context, userID, parcelID, id string, qty int) (orders.ParcelItem, error) {
	if qty < 1 {
		return orders.ParcelItem{}, fmt.Errorf("%w: quantity must be at least 1", orders.ErrValidation)
	}
	l, err := s.Store.UpdateParcelItem(ctx, userID, parcelID, id, qty)
	if err != nil {
		return orders.ParcelItem{}, err
	}
	s.changed(ctx, userID, orders.EntityParcelItem, id, orders.ActionUpdated)
	return l, nil
}

func (s *Service) RemoveParcelItem(ctx context.Context, userID, parcelID, id string) error {
	if err := s.Store.DeleteParcelItem(ctx, userID, parcelID, id); err != nil {
		return err
	}
	s.changed(ctx, userID, orders.EntityParcelItem, id, orders.ActionDeleted)
	return nil
}

// ParcelContent is one wanted line of a parcel: Quantity units of an order item.
// Quantity 0 removes the item from the parcel.
type ParcelContent struct {
	OrderItemID string `json:"order_item_id" validate:"required"`
	Quantity    int    `json:"quantity" validate:"min=0"`
}

type OpKind string

const (
	OpRemove OpKind = "remove"
	OpUpdate OpKind = "update"
	OpAdd    OpKind = "add"
)

type LinkOp struct {
	Kind        OpKind `json:"op"`
	LinkID      string `json:"link_id,omitempty"`
	OrderItemID string `json:"order_item_id"`
	Quantity    int    `json:"quantity"`
}

// PlanSync diffs a parcel's current links against the wanted contents. Removals come first
// and additions last so freed units are available to later operations.
func PlanSync(current []orders.ParcelItem, want []ParcelContent) []LinkOp {
	byItem := make(map[string]orders.ParcelItem, len(current))
	for _, l := range current {
		byItem[l.OrderItemID] = l
	}
	wanted := make(map[string]bool, len(want))

	var removes, updates, adds []LinkOp
	for _, w := range want {
		wanted[w.OrderItemID] = true
		l, ok := byItem[w.OrderItemID]
		switch {
		case !ok && w.Quantity > 0:
			adds = append(adds, LinkOp{Kind: OpAdd, OrderItemID: w.OrderItemID, Quantity: w.Quantity})
		case ok && w.Quantity == 0:
			removes = append(removes, LinkOp{Kind: OpRemove, LinkID: l.ID, OrderItemID: l.OrderItemID})
		case ok && w.Quantity != l.Quantity:
			updates = append(updates, LinkOp{Kind: OpUpdate, LinkID: l.ID, OrderItemID: l.OrderItemID, Quantity: w.Quantity})
		}
	}
	for _, l := range current {
		if !wanted[l.OrderItemID] {
			removes = append(removes, LinkOp{Kind: OpRemove, LinkID: l.ID, OrderItemID: l.OrderItemID})
		}
	}
	ops := append(removes, updates...)
	return append(ops, adds...)
}

// SyncParcelItems makes the parcel hold exactly want, one store call at a time.
// The first failing call stops the batch with *orders.BatchError; earlier calls stay applied.
func (s *Service) SyncParcelItems(ctx context.Context, userID, parcelID string, want []ParcelContent) ([]orders.ParcelItem, error) {
	seen := make(map[string]bool, len(want))
	for _, w := range want {
		if err := s.check(w); err != nil {
			return nil, err
		}
		if seen[w.OrderItemID] {
			return nil, fmt.Errorf("%w: order item %s listed twice", orders.ErrValidation, w.OrderItemID)
		}
		seen[w.OrderItemID] = true
	}

	current, err := s.ParcelItems(ctx, userID, parcelID)
	if err != nil {
		return nil, err
	}
	ops := PlanSync(current, want)
	for i, op := range ops {
		if err := s.apply(ctx, userID, parcelID, op); err != nil {
			if i > 0 {
				s.changed(ctx, userID, orders.EntityParcelItem, parcelID, orders.ActionUpdated)
			}
			return nil, &orders.BatchError{Index: i, Applied: i, Skipped: len(ops) - i - 1, Err: err}
		}
	}
	if len(ops) > 0 {
		s.changed(ctx, userID, orders.EntityParcelItem, parcelID, orders.ActionUpdated)
	}
	return s.ParcelItems(ctx, userID, parcelID)
}

func (s *Service) apply(ctx context.Context, userID, parcelID string, op LinkOp) error {
	switch op.Kind {
	case OpRemove:
		return s.Store.DeleteParcelItem(ctx, userID, parcelID, op.LinkID)
	case OpUpdate:
		_, err := s.Store.UpdateParcelItem(ctx, userID, parcelID, op.LinkID, op.Quantity)
		return err
	case OpAdd:
		_, err := s.Store.CreateParcelItem(ctx, userID, parcelID, op.OrderItemID, op.Quantity)
		return err
	}
	return fmt.Errorf("%w: unknown op %q", orders.ErrValidation, op.Kind)
}
