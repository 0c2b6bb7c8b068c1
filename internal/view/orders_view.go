package view

import (
	"cmp"
	"time"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
	"github.com/ariefcatur/go-parcel-ledger/internal/reconcile"
)

// OrderView is the order-centric listing. Orphan parcels trail the rows as their own group.
// The flat and tabular layouts render the same Rows. Costs is keyed by order id.
type OrderView struct {
	Rows    []reconcile.OrderRow `json:"rows"`
	Costs   map[string]Cost      `json:"costs"`
	Orphans []orders.Parcel      `json:"orphans"`
}

func Orders(res reconcile.Result, st State) OrderView {
	c := newCollator(st.Lang)
	rows := make([]reconcile.OrderRow, 0, len(res.Rows))
	for _, r := range res.Rows {
		rows = append(rows, withVisibleParcels(r, st.Archive))
	}

	orphans := make([]ParcelRow, 0, len(res.Orphans))
	for _, p := range res.Orphans {
		orphans = append(orphans, ParcelRow{Parcel: p, Orphan: true})
	}
	orphans = run(orphans, st, parcelPolicy, c)

	v := OrderView{
		Rows:    run(rows, st, orderPolicy, c),
		Orphans: make([]orders.Parcel, 0, len(orphans)),
	}
	v.Costs = make(map[string]Cost, len(v.Rows))
	for _, r := range v.Rows {
		v.Costs[r.Order.ID] = OrderCost(r)
	}
	for _, o := range orphans {
		v.Orphans = append(v.Orphans, o.Parcel)
	}
	return v
}

func withVisibleParcels(r reconcile.OrderRow, m ArchiveMode) reconcile.OrderRow {
	ps := make([]orders.Parcel, 0, len(r.Parcels))
	for _, p := range r.Parcels {
		if m.linkedVisible(p) {
			ps = append(ps, p)
		}
	}
	r.Parcels = ps
	return r
}

var orderPolicy = policy[reconcile.OrderRow]{
	archived: func(r reconcile.OrderRow) bool { return r.Order.IsArchived },
	search:   orderMatchesSearch,
	facets: func(r reconcile.OrderRow, st State) bool {
		return selected(st.Platforms, r.Order.Platform) && parcelFacets(r.Parcels, st)
	},
	preset:  orderMatchesPreset,
	compare: compareOrders,
}

func orderMatchesSearch(r reconcile.OrderRow, q string) bool {
	o := r.Order
	if contains(o.Platform, q) || contains(o.ExternalNumber, q) || containsPtr(o.Label, q) {
		return true
	}
	for _, p := range r.Parcels {
		if contains(p.TrackingNumber, q) {
			return true
		}
	}
	for _, it := range r.Items {
		if contains(it.Name, q) {
			return true
		}
	}
	return false
}

func orderMatchesPreset(r reconcile.OrderRow, pr Preset, now time.Time) bool {
	switch pr {
	case PresetOrphansOnly:
		return false
	case PresetNoItems:
		return len(r.Items) == 0
	case PresetProtection:
		return withinProtection(r.Order.ProtectionEnd, now)
	}
	return linkedPreset(r.Parcels, pr)
}

// OrderStatusRank is the most actionable (lowest) rank among the row's parcels.
func OrderStatusRank(r reconcile.OrderRow) int {
	rank := orders.UnrankedStatus
	for _, p := range r.Parcels {
		rank = min(rank, p.Status.Rank())
	}
	return rank
}

func compareOrders(a, b reconcile.OrderRow, k SortKey, c *collator) int {
	oa, ob := a.Order, b.Order
	switch k {
	case SortDate:
		return oa.OrderDate.Compare(ob.OrderDate)
	case SortProtection:
		return compareTimePtr(oa.ProtectionEnd, ob.ProtectionEnd)
	case SortPlatform:
		return c.compare(oa.Platform, ob.Platform)
	case SortAmount:
		return oa.PriceBase.Cmp(ob.PriceBase)
	case SortStatus:
		return cmp.Compare(OrderStatusRank(a), OrderStatusRank(b))
	case SortOrderNumber:
		return c.compare(oa.ExternalNumber, ob.ExternalNumber)
	case SortLabel:
		return c.compare(deref(oa.Label), deref(ob.Label))
	case SortQuantity:
		return cmp.Compare(unitsOrdered(a), unitsOrdered(b))
	case SortArchived:
		return compareBool(oa.IsArchived, ob.IsArchived)
	}
	return 0
}

func unitsOrdered(r reconcile.OrderRow) int {
	n := 0
	for _, it := range r.Items {
		n += it.QuantityOrdered
	}
	return n
}
