package view

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
)

// collator wraps a non-concurrent x/text collator; build one per projection.
type collator struct {
	c *collate.Collator
}

func newCollator(tag language.Tag) *collator {
	return &collator{c: collate.New(tag)}
}

func (c *collator) compare(a, b string) int {
	return c.c.CompareString(a, b)
}

// policy is what a view contributes to the shared pipeline.
type policy[T any] struct {
	archived func(T) bool
	search   func(T, string) bool // query is trimmed and lower-cased
	facets   func(T, State) bool
	preset   func(T, Preset, time.Time) bool
	compare  func(a, b T, k SortKey, c *collator) int
}

// run filters in the fixed order archive, search, facets, preset, then sorts stably.
func run[T any](rows []T, st State, p policy[T], c *collator) []T {
	q := strings.ToLower(strings.TrimSpace(st.Search))
	now := st.now()
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if !st.Archive.Visible(p.archived(r)) {
			continue
		}
		if q != "" && !p.search(r, q) {
			continue
		}
		if !p.facets(r, st) {
			continue
		}
		if !p.preset(r, st.Preset, now) {
			continue
		}
		out = append(out, r)
	}
	sortRows(out, st.Sort, p.compare, c)
	return out
}

func sortRows[T any](rows []T, s SortState, compare func(a, b T, k SortKey, c *collator) int, c *collator) {
	slices.SortStableFunc(rows, func(a, b T) int {
		n := compare(a, b, s.Key, c)
		if s.Dir == Desc {
			return -n
		}
		return n
	})
}

type Group[T any] struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Rows  []T    `json:"rows"`
}

type groupKey struct {
	key, label string
}

// groupBy buckets rows by zero or more keys each, keeping row order inside a bucket.
// Rows without a key land in the trailing group, which is dropped when empty.
func groupBy[T any](rows []T, keys func(T) []groupKey, trailing groupKey, c *collator) []Group[T] {
	var groups []Group[T]
	idx := make(map[string]int)
	var rest []T
	for _, r := range rows {
		ks := keys(r)
		if len(ks) == 0 {
			rest = append(rest, r)
			continue
		}
		for _, k := range ks {
			i, ok := idx[k.key]
			if !ok {
				i = len(groups)
				idx[k.key] = i
				groups = append(groups, Group[T]{Key: k.key, Label: k.label})
			}
			groups[i].Rows = append(groups[i].Rows, r)
		}
	}
	slices.SortStableFunc(groups, func(a, b Group[T]) int {
		return c.compare(a.Label, b.Label)
	})
	if len(rest) > 0 {
		groups = append(groups, Group[T]{Key: trailing.key, Label: trailing.label, Rows: rest})
	}
	return groups
}

func contains(s, q string) bool {
	return strings.Contains(strings.ToLower(s), q)
}

func containsPtr(s *string, q string) bool {
	return s != nil && contains(*s, q)
}

// selected treats an empty selection as "all".
func selected[S ~string](sel []S, v S) bool {
	return len(sel) == 0 || slices.Contains(sel, v)
}

func anyParcel(ps []orders.Parcel, f func(orders.Parcel) bool) bool {
	for _, p := range ps {
		if f(p) {
			return true
		}
	}
	return false
}

// parcelFacets applies carrier and status selections to a set of linked parcels.
func parcelFacets(ps []orders.Parcel, st State) bool {
	if len(st.Carriers) > 0 && !anyParcel(ps, func(p orders.Parcel) bool { return slices.Contains(st.Carriers, p.Carrier) }) {
		return false
	}
	if len(st.Statuses) > 0 && !anyParcel(ps, func(p orders.Parcel) bool { return slices.Contains(st.Statuses, p.Status) }) {
		return false
	}
	return true
}

// linkedPreset is the order-side preset rule over a set of linked parcels.
func linkedPreset(ps []orders.Parcel, pr Preset) bool {
	switch pr {
	case PresetLost:
		return anyParcel(ps, func(p orders.Parcel) bool { return p.Status == orders.ParcelLost })
	case PresetPickup:
		return anyParcel(ps, func(p orders.Parcel) bool { return p.Status == orders.ParcelPickUpReady })
	case PresetCompleted, PresetReceived:
		return len(ps) > 0 && !anyParcel(ps, func(p orders.Parcel) bool { return !p.Status.Done() })
	}
	return true
}

// withinProtection: end date falls within [0, ProtectionWindow] whole days from now.
func withinProtection(end *time.Time, now time.Time) bool {
	if end == nil {
		return false
	}
	days := ceilDays(end.Sub(now))
	return days >= 0 && days <= ProtectionWindow
}

func ceilDays(d time.Duration) int {
	day := 24 * time.Hour
	n := d / day
	if d%day > 0 {
		n++
	}
	return int(n)
}

// Missing values sort lowest.
func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func compareFloatPtr(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cmp.Compare(*a, *b)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	}
	return -1
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
