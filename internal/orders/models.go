package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID               string              `json:"id"`
	UserID           string              `json:"user_id"`
	Platform         string              `json:"platform" validate:"required"`
	ExternalNumber   string              `json:"order_number_external" validate:"required"`
	Label            *string             `json:"label,omitempty"`
	OrderDate        time.Time           `json:"order_date" validate:"required"`
	ProtectionEnd    *time.Time          `json:"protection_end_date,omitempty"`
	PriceOriginal    decimal.Decimal     `json:"price_original"`
	CurrencyOriginal string              `json:"currency_original" validate:"omitempty,len=3,uppercase"`
	ExchangeRate     decimal.Decimal     `json:"exchange_rate_frozen"`
	PriceBase        decimal.Decimal     `json:"price_final_base"`
	IsPriceEstimated bool                `json:"is_price_estimated"`
	ShippingCost     decimal.NullDecimal `json:"shipping_cost"`
	CustomsCost      decimal.NullDecimal `json:"customs_cost"`
	Comment          *string             `json:"comment,omitempty"`
	IsArchived       bool                `json:"is_archived"`
	DeletedAt        *time.Time          `json:"deleted_at,omitempty"` // soft delete when parcels are shared
	Items            []OrderItem         `json:"order_items,omitempty"`
}

// DisplayLabel is the label, or "platform #number" when none is set.
func (o Order) DisplayLabel() string {
	if o.Label != nil && *o.Label != "" {
		return *o.Label
	}
	return o.Platform + " #" + o.ExternalNumber
}

type Parcel struct {
	ID                string       `json:"id"`
	UserID            string       `json:"user_id"`
	TrackingNumber    string       `json:"tracking_number" validate:"required"`
	Carrier           string       `json:"carrier_slug" validate:"required"`
	Label             *string      `json:"label,omitempty"`
	Status            ParcelStatus `json:"status" validate:"omitempty,parcel_status"`
	TrackingUpdatedAt *time.Time   `json:"tracking_updated_at,omitempty"`
	WeightKg          *float64     `json:"weight_kg,omitempty" validate:"omitempty,gte=0"`
	IsArchived        bool         `json:"is_archived"`
}

func (p Parcel) DisplayLabel() string {
	if p.Label != nil && *p.Label != "" {
		return *p.Label
	}
	return p.TrackingNumber
}

// Allocation is how many units of an order item travel in one parcel.
type Allocation struct {
	ParcelID string `json:"parcel_id"`
	Quantity int    `json:"quantity"`
}

type OrderItem struct {
	ID               string              `json:"id"`
	OrderID          string              `json:"order_id" validate:"required"`
	ParcelID         *string             `json:"parcel_id,omitempty"` // legacy single-parcel link
	Name             string              `json:"item_name" validate:"required"`
	ImageURL         *string             `json:"image_url,omitempty"`
	Tags             []string            `json:"tags"`
	QuantityOrdered  int                 `json:"quantity_ordered" validate:"min=1"`
	QuantityReceived int                 `json:"quantity_received" validate:"min=0"`
	Status           ItemStatus          `json:"item_status" validate:"omitempty,item_status"`
	PricePerItem     decimal.NullDecimal `json:"price_per_item"`
	InParcels        []Allocation        `json:"in_parcels,omitempty"`

	// Aggregate precomputed by the store; informational only.
	QuantityInParcels *int `json:"quantity_in_parcels,omitempty"`
	RemainingQuantity *int `json:"remaining_quantity,omitempty"`
}

// ParcelItem is the normalized split link between a parcel and an order item.
type ParcelItem struct {
	ID          string `json:"id"`
	ParcelID    string `json:"parcel_id"`
	OrderItemID string `json:"order_item_id"`
	Quantity    int    `json:"quantity"`
}

// Carrier and Store are the user's catalog of carriers and purchase platforms.
type Carrier struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Slug   string `json:"slug" validate:"required"`
	Name   string `json:"name" validate:"required"`
}

type Store struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Slug   string `json:"slug" validate:"required"`
	Name   string `json:"name" validate:"required"`
}

// Snapshot is one consistent read of a user's orders and parcels.
type Snapshot struct {
	Orders    []Order   `json:"orders"`
	Parcels   []Parcel  `json:"parcels"`
	FetchedAt time.Time `json:"fetched_at"`
}
