package tracker

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-parcel-ledger/internal/config"
	kafkax "github.com/ariefcatur/go-parcel-ledger/internal/kafka"
	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
	"github.com/ariefcatur/go-parcel-ledger/internal/reconcile"
	"github.com/ariefcatur/go-parcel-ledger/internal/redisx"
)

// memStore is an in-memory orders.Backend for a single test.
type memStore struct {
	mu        sync.Mutex
	orders    []orders.Order
	parcels   []orders.Parcel
	items     []orders.OrderItem
	links     []orders.ParcelItem
	carriers  []orders.Carrier
	listErr   error
	linkErr   map[string]error // CreateParcelItem failures by order item id
	listCalls int
	writes    int

	// beforeListParcels runs ahead of ListParcels, outside the lock
	beforeListParcels func()
}

var _ orders.Backend = (*memStore)(nil)

func visible(archived bool, opt orders.ListOptions) bool {
	switch {
	case opt.ArchivedOnly:
		return archived
	case !opt.IncludeArchived:
		return !archived
	}
	return true
}

func (m *memStore) ListOrders(_ context.Context, userID string, opt orders.ListOptions) ([]orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []orders.Order
	for _, o := range m.orders {
		if o.UserID != userID || !visible(o.IsArchived, opt) {
			continue
		}
		if opt.IncludeItems {
			for _, it := range m.items {
				if it.OrderID != o.ID {
					continue
				}
				for _, l := range m.links {
					if l.OrderItemID == it.ID {
						it.InParcels = append(it.InParcels, orders.Allocation{ParcelID: l.ParcelID, Quantity: l.Quantity})
					}
				}
				o.Items = append(o.Items, it)
			}
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *memStore) CreateOrder(_ context.Context, o *orders.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	m.orders = append(m.orders, *o)
	m.writes++
	return nil
}

func (m *memStore) UpdateOrder(_ context.Context, userID, id string, p orders.OrderPatch) (orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		o := &m.orders[i]
		if o.ID == id && o.UserID == userID {
			if p.IsArchived != nil {
				o.IsArchived = *p.IsArchived
			}
			if p.Platform != nil {
				o.Platform = *p.Platform
			}
			m.writes++
			return *o, nil
		}
	}
	return orders.Order{}, orders.ErrNotFound
}

func (m *memStore) DeleteOrder(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, o := range m.orders {
		if o.ID == id && o.UserID == userID {
			m.orders = append(m.orders[:i], m.orders[i+1:]...)
			m.writes++
			return nil
		}
	}
	return orders.ErrNotFound
}

func (m *memStore) ListParcels(_ context.Context, userID string, opt orders.ListOptions) ([]orders.Parcel, error) {
	if hook := m.beforeListParcels; hook != nil {
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []orders.Parcel
	for _, p := range m.parcels {
		if p.UserID == userID && visible(p.IsArchived, opt) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) CreateParcel(_ context.Context, p *orders.Parcel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.parcels = append(m.parcels, *p)
	m.writes++
	return nil
}

func (m *memStore) UpdateParcel(_ context.Context, userID, id string, p orders.ParcelPatch) (orders.Parcel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.parcels {
		pc := &m.parcels[i]
		if pc.ID == id && pc.UserID == userID {
			if p.IsArchived != nil {
				pc.IsArchived = *p.IsArchived
			}
			if p.Status != nil {
				pc.Status = *p.Status
			}
			if p.WeightKg.Set {
				pc.WeightKg = p.WeightKg.Ptr()
			}
			m.writes++
			return *pc, nil
		}
	}
	return orders.Parcel{}, orders.ErrNotFound
}

func (m *memStore) DeleteParcel(_ context.Context, userID, id string) error {
	return fmt.Errorf("delete parcel: %w", orders.ErrNotFound)
}

func (m *memStore) CreateOrderItem(_ context.Context, _ string, it *orders.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	m.items = append(m.items, *it)
	m.writes++
	return nil
}

func (m *memStore) UpdateOrderItem(_ context.Context, _, id string, _ orders.OrderItemPatch) (orders.OrderItem, error) {
	return orders.OrderItem{}, orders.ErrNotFound
}

func (m *memStore) DeleteOrderItem(_ context.Context, _, id string) error {
	return orders.ErrNotFound
}

func (m *memStore) ListParcelItems(_ context.Context, _, parcelID string) ([]orders.ParcelItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []orders.ParcelItem
	for _, l := range m.links {
		if l.ParcelID == parcelID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) item(id string) (orders.OrderItem, bool) {
	for _, it := range m.items {
		if it.ID == id {
			return it, true
		}
	}
	return orders.OrderItem{}, false
}

func (m *memStore) itemLinks(itemID string) []orders.ParcelItem {
	var out []orders.ParcelItem
	for _, l := range m.links {
		if l.OrderItemID == itemID {
			out = append(out, l)
		}
	}
	return out
}

func (m *memStore) CreateParcelItem(_ context.Context, _, parcelID, orderItemID string, qty int) (orders.ParcelItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.linkErr[orderItemID]; err != nil {
		return orders.ParcelItem{}, err
	}
	it, ok := m.item(orderItemID)
	if !ok {
		return orders.ParcelItem{}, orders.ErrNotFound
	}
	if err := reconcile.CheckCapacity(it, m.itemLinks(orderItemID), "", qty); err != nil {
		return orders.ParcelItem{}, err
	}
	l := orders.ParcelItem{ID: uuid.NewString(), ParcelID: parcelID, OrderItemID: orderItemID, Quantity: qty}
	m.links = append(m.links, l)
	m.writes++
	return l, nil
}

func (m *memStore) UpdateParcelItem(_ context.Context, _, parcelID, id string, qty int) (orders.ParcelItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.links {
		l := &m.links[i]
		if l.ID != id || l.ParcelID != parcelID {
			continue
		}
		it, _ := m.item(l.OrderItemID)
		if err := reconcile.CheckCapacity(it, m.itemLinks(l.OrderItemID), id, qty); err != nil {
			return orders.ParcelItem{}, err
		}
		l.Quantity = qty
		m.writes++
		return *l, nil
	}
	return orders.ParcelItem{}, orders.ErrNotFound
}

func (m *memStore) DeleteParcelItem(_ context.Context, _, parcelID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.links {
		if l.ID == id && l.ParcelID == parcelID {
			m.links = append(m.links[:i], m.links[i+1:]...)
			m.writes++
			return nil
		}
	}
	return orders.ErrNotFound
}

func (m *memStore) ListCarriers(_ context.Context, userID string) ([]orders.Carrier, error) {
	return m.carriers, nil
}

func (m *memStore) CreateCarrier(_ context.Context, c *orders.Carrier) error {
	m.carriers = append(m.carriers, *c)
	return nil
}

func (m *memStore) DeleteCarrier(_ context.Context, _, _ string) error {
	return &orders.ConflictError{Message: "cannot delete: parcels still use this carrier"}
}

func (m *memStore) ListStores(_ context.Context, _ string) ([]orders.Store, error) { return nil, nil }

func (m *memStore) CreateStore(_ context.Context, _ *orders.Store) error { return nil }

func (m *memStore) DeleteStore(_ context.Context, _, _ string) error { return nil }

// recorder captures emitted envelopes.
type recorder struct {
	mu   sync.Mutex
	keys []string
	envs []orders.Envelope
}

func (r *recorder) Emit(key []byte, env orders.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, string(key))
	r.envs = append(r.envs, env)
}

func (r *recorder) payloads(t *testing.T) []orders.ChangedPayload {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]orders.ChangedPayload, 0, len(r.envs))
	for _, env := range r.envs {
		p, err := kafkax.UnwrapPayload[orders.ChangedPayload](env.Payload)
		if err != nil {
			t.Fatalf("payload: %v", err)
		}
		out = append(out, p)
	}
	return out
}

type fixture struct {
	svc   *Service
	store *memStore
	pub   *recorder
	rdb   *redis.Client
	mr    *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := &memStore{}
	pub := &recorder{}
	svc := NewService(store, redisx.NewSnapshotCache(rdb, 0), pub, config.Preferences{}, zap.NewNop(), "parcel-ledger-test")
	return &fixture{svc: svc, store: store, pub: pub, rdb: rdb, mr: mr}
}
