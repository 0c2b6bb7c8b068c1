package httpx

import (
	"context"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
	"github.com/ariefcatur/go-parcel-ledger/internal/reconcile"
	"github.com/ariefcatur/go-parcel-ledger/internal/tracker"
	"github.com/ariefcatur/go-parcel-ledger/internal/view"
)

// Ledger is what the handlers need from the tracker service.
type Ledger interface {
	Reconciled(ctx context.Context, userID string, mode view.ArchiveMode) (reconcile.Result, error)

	CreateOrder(ctx context.Context, userID string, o *orders.Order) error
	UpdateOrder(ctx context.Context, userID, id string, p orders.OrderPatch) (orders.Order, error)
	DeleteOrder(ctx context.Context, userID, id string) error

	CreateParcel(ctx context.Context, userID string, p *orders.Parcel) error
	UpdateParcel(ctx context.Context, userID, id string, p orders.ParcelPatch) (orders.Parcel, error)
	DeleteParcel(ctx context.Context, userID, id string) error

	CreateOrderItem(ctx context.Context, userID string, it *orders.OrderItem) error
	UpdateOrderItem(ctx context.Context, userID, id string, p orders.OrderItemPatch) (orders.OrderItem, error)
	DeleteOrderItem(ctx context.Context, userID, id string) error

	ParcelItems(ctx context.Context, userID, parcelID string) ([]orders.ParcelItem, error)
	AddParcelItem(ctx context.Context, userID, parcelID, orderItemID string, qty int) (orders.ParcelItem, error)
	UpdateParcelItem(ctx context.Context, userID, parcelID, id string, qty int) (orders.ParcelItem, error)
	RemoveParcelItem(ctx context.Context, userID, parcelID, id string) error
	SyncParcelItems(ctx context.Context, userID, parcelID string, want []tracker.ParcelContent) ([]orders.ParcelItem, error)

	Carriers(ctx context.Context, userID string) ([]orders.Carrier, error)
	CreateCarrier(ctx context.Context, userID string, c *orders.Carrier) error
	DeleteCarrier(ctx context.Context, userID, id string) error
	Stores(ctx context.Context, userID string) ([]orders.Store, error)
	CreateStore(ctx context.Context, userID string, s *orders.Store) error
	DeleteStore(ctx context.Context, userID, id string) error
	Currencies() []string
}

var _ Ledger = (*tracker.Service)(nil)

type LedgerHandler struct {
	Ledger       Ledger
	BaseCurrency string
	Log          *zap.Logger
}

func (h *LedgerHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Get("/views/orders", h.orderView)
		r.Get("/views/parcels", h.parcelView)
		r.Get("/views/items", h.itemView)
		r.Get("/summary", h.summary)
		r.Get("/facets", h.facets)
		r.Get("/export/items.csv", h.exportCSV)
		r.Get("/export/items.xlsx", h.exportXLSX)
		r.Get("/preferences", h.preferences)

		r.Post("/orders", h.createOrder)
		r.Patch("/orders/{id}", h.updateOrder)
		r.Delete("/orders/{id}", h.deleteOrder)
		r.Post("/orders/{id}/items", h.createItem)
		r.Patch("/items/{id}", h.updateItem)
		r.Delete("/items/{id}", h.deleteItem)

		r.Post("/parcels", h.createParcel)
		r.Patch("/parcels/{id}", h.updateParcel)
		r.Delete("/parcels/{id}", h.deleteParcel)
		r.Get("/parcels/{id}/items", h.listParcelItems)
		r.Post("/parcels/{id}/items", h.addParcelItem)
		r.Put("/parcels/{id}/items", h.syncParcelItems)
		r.Patch("/parcels/{id}/items/{linkID}", h.updateParcelItem)
		r.Delete("/parcels/{id}/items/{linkID}", h.removeParcelItem)

		r.Get("/carriers", h.listCarriers)
		r.Post("/carriers", h.createCarrier)
		r.Delete("/carriers/{id}", h.deleteCarrier)
		r.Get("/stores", h.listStores)
		r.Post("/stores", h.createStore)
		r.Delete("/stores/{id}", h.deleteStore)
	})
}
