package view

import (
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-parcel-ledger/internal/reconcile"
)

// Cost breaks an order's price down in its original currency.
type Cost struct {
	Currency string          `json:"currency"`
	Items    decimal.Decimal `json:"items"`
	Shipping decimal.Decimal `json:"shipping"`
	Customs  decimal.Decimal `json:"customs"`
	Total    decimal.Decimal `json:"total"`
}

// OrderCost sums price_per_item x quantity_ordered over priced items and adds the order's
// shipping and customs costs. Missing prices and costs count as zero.
func OrderCost(r reconcile.OrderRow) Cost {
	c := Cost{
		Currency: r.Order.CurrencyOriginal,
		Items:    decimal.Zero,
		Shipping: decimal.Zero,
		Customs:  decimal.Zero,
	}
	for _, it := range r.Items {
		if it.PricePerItem.Valid {
			c.Items = c.Items.Add(it.PricePerItem.Decimal.Mul(decimal.NewFromInt(int64(it.QuantityOrdered))))
		}
	}
	if r.Order.ShippingCost.Valid {
		c.Shipping = r.Order.ShippingCost.Decimal
	}
	if r.Order.CustomsCost.Valid {
		c.Customs = r.Order.CustomsCost.Decimal
	}
	c.Total = c.Items.Add(c.Shipping).Add(c.Customs)
	return c
}
