package reconcile

import (
	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
)

// Item is an order item with its resolved allocations.
type Item struct {
	orders.OrderItem
	Resolution Resolution `json:"resolution"`
}

type OrderRow struct {
	Order   orders.Order    `json:"order"`
	Items   []Item          `json:"items"`
	Parcels []orders.Parcel `json:"parcels"`
}

type Result struct {
	Rows    []OrderRow      `json:"rows"`
	Orphans []orders.Parcel `json:"orphan_parcels"`
	// Parcels is every parcel of the snapshot, in snapshot order.
	Parcels []orders.Parcel `json:"parcels"`
}

// Reconcile joins every order to its items and, through their allocations, to parcels.
// A parcel shared by two orders shows up in both rows; de-duplication is per row only.
func Reconcile(snap orders.Snapshot) Result {
	byID := make(map[string]orders.Parcel, len(snap.Parcels))
	for _, p := range snap.Parcels {
		byID[p.ID] = p
	}

	res := Result{
		Rows:    make([]OrderRow, 0, len(snap.Orders)),
		Parcels: snap.Parcels,
	}
	linked := make(map[string]bool)
	for _, o := range snap.Orders {
		row := OrderRow{Order: o, Items: make([]Item, 0, len(o.Items))}
		seen := make(map[string]bool)
		for _, it := range o.Items {
			r := Resolve(it)
			row.Items = append(row.Items, Item{OrderItem: it, Resolution: r})
			for _, a := range r.Allocations {
				if a.Quantity <= 0 || seen[a.ParcelID] {
					continue
				}
				p, ok := byID[a.ParcelID]
				if !ok || !sameOwner(o, p) {
					continue
				}
				seen[a.ParcelID] = true
				linked[a.ParcelID] = true
				row.Parcels = append(row.Parcels, p)
			}
		}
		res.Rows = append(res.Rows, row)
	}

	for _, p := range snap.Parcels {
		if !linked[p.ID] {
			res.Orphans = append(res.Orphans, p)
		}
	}
	return res
}

func sameOwner(o orders.Order, p orders.Parcel) bool {
	return o.UserID == "" || p.UserID == "" || o.UserID == p.UserID
}
