package view

import (
	"cmp"
	"time"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
	"github.com/ariefcatur/go-parcel-ledger/internal/reconcile"
)

// Contribution is one order's item travelling in a parcel.
type Contribution struct {
	Item     reconcile.Item `json:"item"`
	Quantity int            `json:"quantity"`
	Order    orders.Order   `json:"order"`
}

type ParcelRow struct {
	Parcel   orders.Parcel  `json:"parcel"`
	Contents []Contribution `json:"contents"`
	Orphan   bool           `json:"orphan"`
}

type ParcelView struct {
	Rows   []ParcelRow        `json:"rows"`
	Groups []Group[ParcelRow] `json:"groups,omitempty"`
}

const (
	NoOrderGroupKey   = "no_order"
	NoOrderGroupLabel = "No order"
)

func Parcels(res reconcile.Result, st State) ParcelView {
	c := newCollator(st.Lang)
	rows := run(ParcelRows(res), st, parcelPolicy, c)
	v := ParcelView{Rows: rows}
	switch st.ParcelGroup {
	case ParcelGroupStatus:
		v.Groups = groupBy(rows, func(r ParcelRow) []groupKey {
			return []groupKey{{key: string(r.Parcel.Status), label: r.Parcel.Status.Label()}}
		}, groupKey{}, c)
	case ParcelGroupCarrier:
		v.Groups = groupBy(rows, func(r ParcelRow) []groupKey {
			return []groupKey{{key: r.Parcel.Carrier, label: r.Parcel.Carrier}}
		}, groupKey{}, c)
	case ParcelGroupOrder:
		v.Groups = groupBy(rows, func(r ParcelRow) []groupKey {
			var ks []groupKey
			seen := make(map[string]bool)
			for _, ct := range r.Contents {
				if seen[ct.Order.ID] {
					continue
				}
				seen[ct.Order.ID] = true
				ks = append(ks, groupKey{key: ct.Order.ID, label: ct.Order.DisplayLabel()})
			}
			return ks
		}, groupKey{key: NoOrderGroupKey, label: NoOrderGroupLabel}, c)
	}
	return v
}

// ParcelRows reverse-joins the reconciled rows: every parcel with the items that
// every order allocates into it, in snapshot parcel order.
func ParcelRows(res reconcile.Result) []ParcelRow {
	contents := make(map[string][]Contribution)
	for _, row := range res.Rows {
		for _, p := range row.Parcels {
			for _, it := range row.Items {
				if q := it.Resolution.Quantity(p.ID); q > 0 {
					contents[p.ID] = append(contents[p.ID], Contribution{Item: it, Quantity: q, Order: row.Order})
				}
			}
		}
	}
	orphan := make(map[string]bool, len(res.Orphans))
	for _, p := range res.Orphans {
		orphan[p.ID] = true
	}
	out := make([]ParcelRow, 0, len(res.Parcels))
	for _, p := range res.Parcels {
		out = append(out, ParcelRow{Parcel: p, Contents: contents[p.ID], Orphan: orphan[p.ID]})
	}
	return out
}

var parcelPolicy = policy[ParcelRow]{
	archived: func(r ParcelRow) bool { return r.Parcel.IsArchived },
	search:   parcelMatchesSearch,
	facets: func(r ParcelRow, st State) bool {
		if len(st.Platforms) > 0 {
			ok := false
			for _, ct := range r.Contents {
				if selected(st.Platforms, ct.Order.Platform) {
					ok = true
					break
				}
			}
			if !ok {
				return false
			}
		}
		return selected(st.Carriers, r.Parcel.Carrier) && selected(st.Statuses, r.Parcel.Status)
	},
	preset:  parcelMatchesPreset,
	compare: compareParcels,
}

func parcelMatchesSearch(r ParcelRow, q string) bool {
	p := r.Parcel
	if contains(p.TrackingNumber, q) || contains(p.Carrier, q) || containsPtr(p.Label, q) {
		return true
	}
	for _, ct := range r.Contents {
		o := ct.Order
		if contains(o.Platform, q) || contains(o.ExternalNumber, q) || containsPtr(o.Label, q) || contains(ct.Item.Name, q) {
			return true
		}
	}
	return false
}

func parcelMatchesPreset(r ParcelRow, pr Preset, _ time.Time) bool {
	switch pr {
	case PresetLost:
		return r.Parcel.Status == orders.ParcelLost
	case PresetPickup:
		return r.Parcel.Status == orders.ParcelPickUpReady
	case PresetCompleted, PresetReceived:
		return r.Parcel.Status.Done()
	case PresetProtection, PresetNoItems:
		return false
	}
	return true
}

func compareParcels(a, b ParcelRow, k SortKey, c *collator) int {
	pa, pb := a.Parcel, b.Parcel
	switch k {
	case SortStatus:
		return cmp.Compare(pa.Status.Rank(), pb.Status.Rank())
	case SortPlatform:
		return c.compare(pa.Carrier, pb.Carrier)
	case SortLabel:
		return c.compare(pa.DisplayLabel(), pb.DisplayLabel())
	case SortDate:
		return compareTimePtr(pa.TrackingUpdatedAt, pb.TrackingUpdatedAt)
	case SortWeight:
		return compareFloatPtr(pa.WeightKg, pb.WeightKg)
	case SortQuantity:
		return cmp.Compare(unitsCarried(a), unitsCarried(b))
	case SortArchived:
		return compareBool(pa.IsArchived, pb.IsArchived)
	}
	return c.compare(pa.TrackingNumber, pb.TrackingNumber)
}

func unitsCarried(r ParcelRow) int {
	n := 0
	for _, ct := range r.Contents {
		n += ct.Quantity
	}
	return n
}
