package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type ListOptions struct {
	IncludeItems    bool
	IncludeArchived bool
	ArchivedOnly    bool
}

// OrderPatch updates only the fields present. Nil pointers leave a column alone; Nullable
// fields also accept an explicit null that clears the column. IsArchived is the
// archive/unarchive switch.
type OrderPatch struct {
	Platform         *string                   `json:"platform,omitempty"`
	ExternalNumber   *string                   `json:"order_number_external,omitempty"`
	Label            Nullable[string]          `json:"label"`
	OrderDate        *time.Time                `json:"order_date,omitempty"`
	ProtectionEnd    Nullable[time.Time]       `json:"protection_end_date"`
	PriceOriginal    *decimal.Decimal          `json:"price_original,omitempty"`
	CurrencyOriginal *string                   `json:"currency_original,omitempty" validate:"omitempty,len=3,uppercase"`
	ExchangeRate     *decimal.Decimal          `json:"exchange_rate_frozen,omitempty"`
	PriceBase        *decimal.Decimal          `json:"price_final_base,omitempty"`
	ShippingCost     Nullable[decimal.Decimal] `json:"shipping_cost"`
	CustomsCost      Nullable[decimal.Decimal] `json:"customs_cost"`
	Comment          Nullable[string]          `json:"comment"`
	IsArchived       *bool                     `json:"is_archived,omitempty"`
}

type ParcelPatch struct {
	TrackingNumber *string           `json:"tracking_number,omitempty" validate:"omitempty,min=1"`
	Carrier        *string           `json:"carrier_slug,omitempty" validate:"omitempty,min=1"`
	Label          Nullable[string]  `json:"label"`
	Status         *ParcelStatus     `json:"status,omitempty" validate:"omitempty,parcel_status"`
	WeightKg       Nullable[float64] `json:"weight_kg" validate:"omitempty,gte=0"`
	IsArchived     *bool             `json:"is_archived,omitempty"`
}

type OrderItemPatch struct {
	Name             *string                   `json:"item_name,omitempty" validate:"omitempty,min=1"`
	ImageURL         Nullable[string]          `json:"image_url"`
	Tags             []string                  `json:"tags,omitempty"`
	QuantityOrdered  *int                      `json:"quantity_ordered,omitempty" validate:"omitempty,min=1"`
	QuantityReceived *int                      `json:"quantity_received,omitempty" validate:"omitempty,min=0"`
	Status           *ItemStatus               `json:"item_status,omitempty" validate:"omitempty,item_status"`
	PricePerItem     Nullable[decimal.Decimal] `json:"price_per_item"`
}

// Backend is the record-oriented backing store. Every call is scoped to one owning user.
type Backend interface {
	ListOrders(ctx context.Context, userID string, opt ListOptions) ([]Order, error)
	CreateOrder(ctx context.Context, o *Order) error
	UpdateOrder(ctx context.Context, userID, id string, p OrderPatch) (Order, error)
	DeleteOrder(ctx context.Context, userID, id string) error

	ListParcels(ctx context.Context, userID string, opt ListOptions) ([]Parcel, error)
	CreateParcel(ctx context.Context, p *Parcel) error
	UpdateParcel(ctx context.Context, userID, id string, p ParcelPatch) (Parcel, error)
	DeleteParcel(ctx context.Context, userID, id string) error

	CreateOrderItem(ctx context.Context, userID string, it *OrderItem) error
	UpdateOrderItem(ctx context.Context, userID, id string, p OrderItemPatch) (OrderItem, error)
	DeleteOrderItem(ctx context.Context, userID, id string) error

	ListParcelItems(ctx context.Context, userID, parcelID string) ([]ParcelItem, error)
	CreateParcelItem(ctx context.Context, userID, parcelID, orderItemID string, qty int) (ParcelItem, error)
	UpdateParcelItem(ctx context.Context, userID, parcelID, id string, qty int) (ParcelItem, error)
	DeleteParcelItem(ctx context.Context, userID, parcelID, id string) error

	ListCarriers(ctx context.Context, userID string) ([]Carrier, error)
	CreateCarrier(ctx context.Context, c *Carrier) error
	DeleteCarrier(ctx context.Context, userID, id string) error

	ListStores(ctx context.Context, userID string) ([]Store, error)
	CreateStore(ctx context.Context, s *Store) error
	DeleteStore(ctx context.Context, userID, id string) error
}
