package view

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
	"github.com/ariefcatur/go-parcel-ledger/internal/reconcile"
)

// StaleAfter is how long an open parcel may go without a tracking update.
const StaleAfter = 30 * 24 * time.Hour

type Summary struct {
	Orders    int             `json:"orders"`
	Parcels   int             `json:"parcels"`
	Orphans   int             `json:"orphans"`
	InTransit int             `json:"in_transit"`
	Stale     int             `json:"stale"`
	TotalBase decimal.Decimal `json:"total_base"`
}

// Summarize counts what the current archive mode shows.
func Summarize(res reconcile.Result, st State) Summary {
	now := st.now()
	s := Summary{TotalBase: decimal.Zero}
	for _, r := range res.Rows {
		if !st.Archive.Visible(r.Order.IsArchived) {
			continue
		}
		s.Orders++
		s.TotalBase = s.TotalBase.Add(r.Order.PriceBase)
	}
	for _, p := range res.Parcels {
		if !st.Archive.Visible(p.IsArchived) {
			continue
		}
		s.Parcels++
		if p.Status == orders.ParcelInTransit {
			s.InTransit++
		}
		if stale(p, now) {
			s.Stale++
		}
	}
	for _, p := range res.Orphans {
		if st.Archive.Visible(p.IsArchived) {
			s.Orphans++
		}
	}
	return s
}

func stale(p orders.Parcel, now time.Time) bool {
	if p.Status != orders.ParcelInTransit && p.Status != orders.ParcelCreated {
		return false
	}
	return p.TrackingUpdatedAt == nil || now.Sub(*p.TrackingUpdatedAt) > StaleAfter
}

// Facets lists the filter values present in the data, not the configured catalog.
type Facets struct {
	Platforms []string              `json:"platforms"`
	Carriers  []string              `json:"carriers"`
	Statuses  []orders.ParcelStatus `json:"statuses"`
}

func FacetOptions(res reconcile.Result, st State) Facets {
	c := newCollator(st.Lang)
	var f Facets
	seen := make(map[string]bool)
	for _, r := range res.Rows {
		if !seen["p:"+r.Order.Platform] {
			seen["p:"+r.Order.Platform] = true
			f.Platforms = append(f.Platforms, r.Order.Platform)
		}
	}
	for _, p := range res.Parcels {
		if !seen["c:"+p.Carrier] {
			seen["c:"+p.Carrier] = true
			f.Carriers = append(f.Carriers, p.Carrier)
		}
		if !seen["s:"+string(p.Status)] {
			seen["s:"+string(p.Status)] = true
			f.Statuses = append(f.Statuses, p.Status)
		}
	}
	slices.SortFunc(f.Platforms, c.compare)
	slices.SortFunc(f.Carriers, c.compare)
	slices.SortFunc(f.Statuses, func(a, b orders.ParcelStatus) int { return a.Rank() - b.Rank() })
	return f
}
