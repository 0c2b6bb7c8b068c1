package view

import (
	"cmp"
	"time"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
	"github.com/ariefcatur/go-parcel-ledger/internal/reconcile"
)

// ParcelShare is an item allocation joined to its parcel.
type ParcelShare struct {
	Parcel   orders.Parcel `json:"parcel"`
	Quantity int           `json:"quantity"`
}

type ItemRow struct {
	Item    reconcile.Item `json:"item"`
	Order   orders.Order   `json:"order"`
	Parcels []ParcelShare  `json:"parcels"`
}

type ItemView struct {
	Rows   []ItemRow        `json:"rows"`
	Groups []Group[ItemRow] `json:"groups,omitempty"`
}

const (
	NoParcelGroupKey   = "no_parcel"
	NoParcelGroupLabel = "No parcel"
)

func Items(res reconcile.Result, st State) ItemView {
	c := newCollator(st.Lang)
	rows := run(ItemRows(res, st.Archive), st, itemPolicy, c)
	v := ItemView{Rows: rows}
	switch st.ItemGroup {
	case ItemGroupOrder:
		v.Groups = groupBy(rows, func(r ItemRow) []groupKey {
			return []groupKey{{key: r.Order.ID, label: r.Order.DisplayLabel()}}
		}, groupKey{}, c)
	case ItemGroupPlatform:
		v.Groups = groupBy(rows, func(r ItemRow) []groupKey {
			return []groupKey{{key: r.Order.Platform, label: r.Order.Platform}}
		}, groupKey{}, c)
	case ItemGroupStatus:
		v.Groups = groupBy(rows, func(r ItemRow) []groupKey {
			return []groupKey{{key: string(r.Item.Status), label: r.Item.Status.Label()}}
		}, groupKey{}, c)
	case ItemGroupParcel:
		v.Groups = groupBy(rows, func(r ItemRow) []groupKey {
			ks := make([]groupKey, 0, len(r.Parcels))
			for _, s := range r.Parcels {
				ks = append(ks, groupKey{key: s.Parcel.ID, label: s.Parcel.DisplayLabel()})
			}
			return ks
		}, groupKey{key: NoParcelGroupKey, label: NoParcelGroupLabel}, c)
	}
	return v
}

// ItemRows flattens every order's items with their allocations joined to parcels.
// The active mode drops archived parcels from the join.
func ItemRows(res reconcile.Result, m ArchiveMode) []ItemRow {
	var out []ItemRow
	for _, row := range res.Rows {
		for _, it := range row.Items {
			r := ItemRow{Item: it, Order: row.Order}
			for _, p := range row.Parcels {
				if !m.linkedVisible(p) {
					continue
				}
				if q := it.Resolution.Quantity(p.ID); q > 0 {
					r.Parcels = append(r.Parcels, ParcelShare{Parcel: p, Quantity: q})
				}
			}
			out = append(out, r)
		}
	}
	return out
}

func (r ItemRow) parcels() []orders.Parcel {
	ps := make([]orders.Parcel, 0, len(r.Parcels))
	for _, s := range r.Parcels {
		ps = append(ps, s.Parcel)
	}
	return ps
}

var itemPolicy = policy[ItemRow]{
	archived: func(r ItemRow) bool { return r.Order.IsArchived },
	search:   itemMatchesSearch,
	facets: func(r ItemRow, st State) bool {
		return selected(st.Platforms, r.Order.Platform) && parcelFacets(r.parcels(), st)
	},
	preset:  itemMatchesPreset,
	compare: compareItems,
}

func itemMatchesSearch(r ItemRow, q string) bool {
	o := r.Order
	if contains(r.Item.Name, q) || contains(o.Platform, q) || contains(o.ExternalNumber, q) || containsPtr(o.Label, q) {
		return true
	}
	for _, t := range r.Item.Tags {
		if contains(t, q) {
			return true
		}
	}
	for _, s := range r.Parcels {
		if contains(s.Parcel.TrackingNumber, q) {
			return true
		}
	}
	return false
}

func itemMatchesPreset(r ItemRow, pr Preset, now time.Time) bool {
	switch pr {
	case PresetNoItems, PresetOrphansOnly:
		return false
	case PresetProtection:
		return withinProtection(r.Order.ProtectionEnd, now)
	}
	return linkedPreset(r.parcels(), pr)
}

func compareItems(a, b ItemRow, k SortKey, c *collator) int {
	switch k {
	case SortDate:
		return a.Order.OrderDate.Compare(b.Order.OrderDate)
	case SortProtection:
		return compareTimePtr(a.Order.ProtectionEnd, b.Order.ProtectionEnd)
	case SortPlatform:
		return c.compare(a.Order.Platform, b.Order.Platform)
	case SortAmount:
		return compareMoney(a.Item, b.Item)
	case SortStatus:
		return c.compare(string(a.Item.Status), string(b.Item.Status))
	case SortOrderNumber:
		return c.compare(a.Order.ExternalNumber, b.Order.ExternalNumber)
	case SortQuantity:
		return cmp.Compare(a.Item.QuantityOrdered, b.Item.QuantityOrdered)
	case SortArchived:
		return compareBool(a.Order.IsArchived, b.Order.IsArchived)
	case SortParcels:
		if n := cmp.Compare(len(a.Parcels), len(b.Parcels)); n != 0 {
			return n
		}
		return c.compare(firstTracking(a), firstTracking(b))
	}
	return c.compare(a.Item.Name, b.Item.Name)
}

func firstTracking(r ItemRow) string {
	if len(r.Parcels) == 0 {
		return ""
	}
	return r.Parcels[0].Parcel.TrackingNumber
}

// compareMoney orders by unit price; a missing price sorts lowest.
func compareMoney(a, b reconcile.Item) int {
	pa, pb := a.PricePerItem, b.PricePerItem
	switch {
	case !pa.Valid && !pb.Valid:
		return 0
	case !pa.Valid:
		return -1
	case !pb.Valid:
		return 1
	}
	return pa.Decimal.Cmp(pb.Decimal)
}
