// Package export writes the item-flattened view as CSV or XLSX, one line per order item.
package export

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-parcel-ledger/internal/view"
)

const dateLayout = "2006-01-02"

var Header = []string{
	"Date",
	"Order ID",
	"Item Name",
	"Tags",
	"Price (Original)",
	"Price (Base)",
	"Tracking",
	"Status",
}

// Line is one exported order item. Prices are the owning order's totals.
type Line struct {
	Date          string
	OrderNumber   string
	ItemName      string
	Tags          string
	PriceOriginal decimal.Decimal
	Currency      string
	PriceBase     decimal.Decimal
	BaseCurrency  string
	Tracking      string
	Status        string
}

func Lines(rows []view.ItemRow, baseCurrency string) []Line {
	out := make([]Line, 0, len(rows))
	for _, r := range rows {
		tracking := make([]string, 0, len(r.Parcels))
		for _, s := range r.Parcels {
			tracking = append(tracking, s.Parcel.TrackingNumber)
		}
		out = append(out, Line{
			Date:          r.Order.OrderDate.Format(dateLayout),
			OrderNumber:   r.Order.ExternalNumber,
			ItemName:      r.Item.Name,
			Tags:          strings.Join(r.Item.Tags, ", "),
			PriceOriginal: r.Order.PriceOriginal,
			Currency:      r.Order.CurrencyOriginal,
			PriceBase:     r.Order.PriceBase,
			BaseCurrency:  baseCurrency,
			Tracking:      strings.Join(tracking, ", "),
			Status:        string(r.Item.Status),
		})
	}
	return out
}

func (l Line) record() []string {
	return []string{
		l.Date,
		l.OrderNumber,
		l.ItemName,
		l.Tags,
		money(l.PriceOriginal, l.Currency),
		money(l.PriceBase, l.BaseCurrency),
		l.Tracking,
		l.Status,
	}
}

func money(d decimal.Decimal, currency string) string {
	return strings.TrimSpace(d.StringFixed(2) + " " + currency)
}
