package tracker

import (
	"context"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
)

// CreateOrder stores a new order owned by userID. Identity, soft-delete state and items are
// server-owned: items are added through CreateOrderItem.
func (s *Service) CreateOrder(ctx context.Context, userID string, o *orders.Order) error {
	o.ID, o.UserID = "", userID
	o.DeletedAt = nil
	o.Items = nil
	if err := s.check(o); err != nil {
		return err
	}
	if err := s.Store.CreateOrder(ctx, o); err != nil {
		return err
	}
	s.changed(ctx, userID, orders.EntityOrder, o.ID, orders.ActionCreated)
	return nil
}

// UpdateOrder with only IsArchived set is the archive/unarchive operation; status and links
// are untouched.
func (s *Service) UpdateOrder(ctx context.Context, userID, id string, p orders.OrderPatch) (orders.Order, error) {
	if err := s.check(p); err != nil {
		return orders.Order{}, err
	}
	o, err := s.Store.UpdateOrder(ctx, userID, id, p)
	if err != nil {
		return orders.Order{}, err
	}
	s.changed(ctx, userID, orders.EntityOrder, id, archiveAction(p.IsArchived))
	return o, nil
}

func (s *Service) DeleteOrder(ctx context.Context, userID, id string) error {
	if err := s.Store.DeleteOrder(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, userID, orders.EntityOrder, id, orders.ActionDeleted)
	return nil
}

func (s *Service) CreateParcel(ctx context.Context, userID string, p *orders.Parcel) error {
	p.ID, p.UserID = "", userID
	if err := s.check(p); err != nil {
		return err
	}
	if err := s.Store.CreateParcel(ctx, p); err != nil {
		return err
	}
	s.changed(ctx, userID, orders.EntityParcel, p.ID, orders.ActionCreated)
	return nil
}

func (s *Service) UpdateParcel(ctx context.Context, userID, id string, p orders.ParcelPatch) (orders.Parcel, error) {
	if err := s.check(p); err != nil {
		return orders.Parcel{}, err
	}
	out, err := s.Store.UpdateParcel(ctx, userID, id, p)
	if err != nil {
		return orders.Parcel{}, err
	}
	s.changed(ctx, userID, orders.EntityParcel, id, archiveAction(p.IsArchived))
	return out, nil
}

func (s *Service) DeleteParcel(ctx context.Context, userID, id string) error {
	if err := s.Store.DeleteParcel(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, userID, orders.EntityParcel, id, orders.ActionDeleted)
	return nil
}

func (s *Service) CreateOrderItem(ctx context.Context, userID string, it *orders.OrderItem) error {
	it.ID = ""
	it.InParcels = nil
	it.QuantityInParcels, it.RemainingQuantity = nil, nil
	if err := s.check(it); err != nil {
		return err
	}
	if err := s.Store.CreateOrderItem(ctx, userID, it); err != nil {
		return err
	}
	s.changed(ctx, userID, orders.EntityOrderItem, it.ID, orders.ActionCreated)
	return nil
}

func (s *Service) UpdateOrderItem(ctx context.Context, userID, id string, p orders.OrderItemPatch) (orders.OrderItem, error) {
	if err := s.check(p); err != nil {
		return orders.OrderItem{}, err
	}
	it, err := s.Store.UpdateOrderItem(ctx, userID, id, p)
	if err != nil {
		return orders.OrderItem{}, err
	}
	s.changed(ctx, userID, orders.EntityOrderItem, id, orders.ActionUpdated)
	return it, nil
}

func (s *Service) DeleteOrderItem(ctx context.Context, userID, id string) error {
	if err := s.Store.DeleteOrderItem(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, userID, orders.EntityOrderItem, id, orders.ActionDeleted)
	return nil
}

// Carriers is the visible built-in catalog merged with the user's own carriers.
func (s *Service) Carriers(ctx context.Context, userID string) ([]orders.Carrier, error) {
	own, err := s.Store.ListCarriers(ctx, userID)
	if err != nil {
		return nil, &orders.FetchError{Op: "list carriers", Err: err}
	}
	return s.Prefs.CarrierOptions(own), nil
}

func (s *Service) Currencies() []string { return s.Prefs.CurrencyOptions() }

func (s *Service) CreateCarrier(ctx context.Context, userID string, c *orders.Carrier) error {
	c.UserID = userID
	if err := s.check(c); err != nil {
		return err
	}
	if err := s.Store.CreateCarrier(ctx, c); err != nil {
		return err
	}
	s.changed(ctx, userID, orders.EntityCarrier, c.ID, orders.ActionCreated)
	return nil
}

// DeleteCarrier surfaces the store's *orders.ConflictError when parcels still use the carrier.
func (s *Service) DeleteCarrier(ctx context.Context, userID, id string) error {
	if err := s.Store.DeleteCarrier(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, userID, orders.EntityCarrier, id, orders.ActionDeleted)
	return nil
}

func (s *Service) Stores(ctx context.Context, userID string) ([]orders.Store, error) {
	own, err := s.Store.ListStores(ctx, userID)
	if err != nil {
		return nil, &orders.FetchError{Op: "list stores", Err: err}
	}
	return s.Prefs.StoreOptions(own), nil
}

func (s *Service) CreateStore(ctx context.Context, userID string, st *orders.Store) error {
	st.UserID = userID
	if err := s.check(st); err != nil {
		return err
	}
	if err := s.Store.CreateStore(ctx, st); err != nil {
		return err
	}
	s.changed(ctx, userID, orders.EntityStore, st.ID, orders.ActionCreated)
	return nil
}

func (s *Service) DeleteStore(ctx context.Context, userID, id string) error {
	if err := s.Store.DeleteStore(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, userID, orders.EntityStore, id, orders.ActionDeleted)
	return nil
}
