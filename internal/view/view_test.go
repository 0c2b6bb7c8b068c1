package view

import (
	"net/url"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
	"github.com/ariefcatur/go-parcel-ledger/internal/reconcile"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func strp(s string) *string { return &s }
func timep(t time.Time) *time.Time { return &t }
func day(d int) time.Time { return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC) }

// fixture:
//
//	A (AliExpress) X x5 -> p1:2, p2:3      protection in 3 days
//	B (Ozon)       Y x1 -> p2 (legacy), Z x2 unlinked, protection in 10 days
//	C (Amazon)     no items, archived
//	D (eBay)       W x1 -> p4 (legacy), archived; p4 itself is active
//	p3 lost orphan, p5 archived orphan
func fixture() reconcile.Result {
	snap := orders.Snapshot{
		Orders: []orders.Order{
			{ID: "A", UserID: "u1", Platform: "AliExpress", ExternalNumber: "1001", OrderDate: day(10),
				ProtectionEnd: timep(now.Add(3 * 24 * time.Hour)), PriceBase: decimal.NewFromInt(100),
				Items: []orders.OrderItem{{ID: "X", OrderID: "A", Name: "Phone case", Tags: []string{"gift"}, QuantityOrdered: 5,
					Status: orders.ItemShipped,
					InParcels: []orders.Allocation{{ParcelID: "p1", Quantity: 2}, {ParcelID: "p2", Quantity: 3}}}}},
			{ID: "B", UserID: "u1", Platform: "Ozon", ExternalNumber: "2002", OrderDate: day(20),
				ProtectionEnd: timep(now.Add(10 * 24 * time.Hour)), PriceBase: decimal.NewFromInt(50),
				Items: []orders.OrderItem{
					{ID: "Y", OrderID: "B", Name: "Cable", QuantityOrdered: 1, ParcelID: strp("p2"), Status: orders.ItemShipped},
					{ID: "Z", OrderID: "B", Name: "Charger", QuantityOrdered: 2, Status: orders.ItemSellerPacking},
				}},
			{ID: "C", UserID: "u1", Platform: "Amazon", ExternalNumber: "3003", OrderDate: day(5),
				PriceBase: decimal.NewFromInt(75), IsArchived: true},
			{ID: "D", UserID: "u1", Platform: "eBay", ExternalNumber: "4004", OrderDate: day(15), IsArchived: true,
				PriceBase: decimal.NewFromInt(10),
				Items: []orders.OrderItem{{ID: "W", OrderID: "D", Name: "Lamp", QuantityOrdered: 1, ParcelID: strp("p4"), Status: orders.ItemReceived}}},
		},
		Parcels: []orders.Parcel{
			{ID: "p1", UserID: "u1", TrackingNumber: "TRK1", Carrier: "cdek", Status: orders.ParcelInTransit},
			{ID: "p2", UserID: "u1", TrackingNumber: "TRK2", Carrier: "dhl", Status: orders.ParcelPickUpReady, TrackingUpdatedAt: timep(now)},
			{ID: "p3", UserID: "u1", TrackingNumber: "TRK3", Carrier: "cdek", Status: orders.ParcelLost},
			{ID: "p4", UserID: "u1", TrackingNumber: "TRK4", Carrier: "usps", Status: orders.ParcelDelivered},
			{ID: "p5", UserID: "u1", TrackingNumber: "TRK5", Carrier: "dhl", Status: orders.ParcelArchived, IsArchived: true},
		},
	}
	return reconcile.Reconcile(snap)
}

func state(mut func(*State)) State {
	st := DefaultState()
	st.Now = now
	if mut != nil {
		mut(&st)
	}
	return st
}

func orderIDs(rows []reconcile.OrderRow) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r.Order.ID)
	}
	return out
}

func parcelRowIDs(rows []ParcelRow) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r.Parcel.ID)
	}
	return out
}

func itemIDs(rows []ItemRow) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r.Item.ID)
	}
	return out
}

func ids(ps []orders.Parcel) []string {
	var out []string
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestOrdersDefaultActive(t *testing.T) {
	v := Orders(fixture(), state(nil))
	assert.Equal(t, []string{"B", "A"}, orderIDs(v.Rows), "date desc, archived hidden")
	assert.Equal(t, []string{"p3"}, ids(v.Orphans), "archived orphan hidden")
}

func TestParcelContentsSplitExample(t *testing.T) {
	v := Parcels(fixture(), state(nil))
	var p1 *ParcelRow
	for i := range v.Rows {
		if v.Rows[i].Parcel.ID == "p1" {
			p1 = &v.Rows[i]
		}
	}
	require.NotNil(t, p1)
	require.Len(t, p1.Contents, 1)
	assert.Equal(t, "X", p1.Contents[0].Item.ID)
	assert.Equal(t, 2, p1.Contents[0].Quantity)
	assert.Equal(t, "A", p1.Contents[0].Order.ID)
	assert.Equal(t, 0, p1.Contents[0].Item.Resolution.Remaining)

	rows := ParcelRows(fixture())
	assert.Len(t, rows[1].Contents, 2, "p2 carries X from A and Y from B")
}

func TestOrphansOnlyPreset(t *testing.T) {
	res := fixture()
	st := state(func(s *State) { s.Preset = PresetOrphansOnly })

	ov := Orders(res, st)
	assert.Empty(t, ov.Rows)
	assert.Equal(t, []string{"p3"}, ids(ov.Orphans))

	pv := Parcels(res, st)
	assert.Contains(t, parcelRowIDs(pv.Rows), "p3")

	assert.Empty(t, Items(res, st).Rows)
}

func TestOrderPresets(t *testing.T) {
	tests := []struct {
		preset Preset
		want   []string
	}{
		{PresetNone, []string{"A", "B", "C", "D"}},
		{PresetLost, nil},
		{PresetPickup, []string{"A", "B"}},
		{PresetProtection, []string{"A"}},
		{PresetNoItems, []string{"C"}},
		{PresetOrphansOnly, nil},
		{PresetCompleted, []string{"D"}},
		{PresetReceived, []string{"D"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.preset), func(t *testing.T) {
			st := state(func(s *State) {
				s.Archive = ArchiveAll
				s.Preset = tt.preset
				s.Sort = SortState{Key: SortOrderNumber, Dir: Asc}
			})
			assert.Equal(t, tt.want, orderIDs(Orders(fixture(), st).Rows))
		})
	}
}

func TestCompletedNeverMatchesWithoutParcels(t *testing.T) {
	row := reconcile.OrderRow{
		Order: orders.Order{ID: "E"},
		Items: []reconcile.Item{{OrderItem: orders.OrderItem{ID: "i", Status: orders.ItemReceived}}},
	}
	assert.False(t, orderMatchesPreset(row, PresetCompleted, now))
	assert.False(t, orderMatchesPreset(row, PresetReceived, now))
}

func TestParcelPresets(t *testing.T) {
	tests := []struct {
		preset Preset
		want   []string
	}{
		{PresetLost, []string{"p3"}},
		{PresetPickup, []string{"p2"}},
		{PresetProtection, nil},
		{PresetNoItems, nil},
		{PresetOrphansOnly, []string{"p1", "p2", "p3", "p4", "p5"}},
		{PresetCompleted, []string{"p4", "p5"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.preset), func(t *testing.T) {
			st := state(func(s *State) {
				s.Archive = ArchiveAll
				s.Preset = tt.preset
				s.Sort = SortState{Key: SortOrderNumber, Dir: Asc}
			})
			assert.Equal(t, tt.want, parcelRowIDs(Parcels(fixture(), st).Rows))
		})
	}
}

func TestProtectionWindowBounds(t *testing.T) {
	assert.True(t, withinProtection(timep(now), now))
	assert.True(t, withinProtection(timep(now.Add(7*24*time.Hour)), now))
	assert.False(t, withinProtection(timep(now.Add(7*24*time.Hour+time.Minute)), now))
	assert.True(t, withinProtection(timep(now.Add(-time.Hour)), now), "rounds up to day 0")
	assert.False(t, withinProtection(timep(now.Add(-25*time.Hour)), now))
	assert.False(t, withinProtection(nil, now))
}

func TestSearchAcrossAssociatedFields(t *testing.T) {
	res := fixture()
	tests := []struct {
		q    string
		want []string
	}{
		{"OZON", []string{"B"}},
		{"1001", []string{"A"}},
		{"trk1", []string{"A"}},
		{"cable", []string{"B"}},
		{"  phone ", []string{"A"}},
		{"nothing", nil},
	}
	for _, tt := range tests {
		st := state(func(s *State) { s.Search = tt.q })
		assert.Equal(t, tt.want, orderIDs(Orders(res, st).Rows), tt.q)
	}

	st := state(func(s *State) { s.Search = "gift" })
	assert.Equal(t, []string{"X"}, itemIDs(Items(res, st).Rows), "item tags are searchable")

	st = state(func(s *State) { s.Search = "ozon" })
	assert.Equal(t, []string{"p2"}, parcelRowIDs(Parcels(res, st).Rows), "parcel matches through its orders")
}

func TestFacets(t *testing.T) {
	res := fixture()

	st := state(func(s *State) { s.Carriers = []string{"cdek"} })
	assert.Equal(t, []string{"A"}, orderIDs(Orders(res, st).Rows))
	assert.Equal(t, []string{"p3"}, ids(Orders(res, st).Orphans))

	st = state(func(s *State) { s.Platforms = []string{"Ozon"} })
	v := Orders(res, st)
	assert.Equal(t, []string{"B"}, orderIDs(v.Rows))
	assert.Empty(t, v.Orphans, "orphans have no platform")
	assert.Equal(t, []string{"p2"}, parcelRowIDs(Parcels(res, st).Rows))

	st = state(func(s *State) { s.Statuses = []orders.ParcelStatus{orders.ParcelInTransit} })
	assert.Equal(t, []string{"A"}, orderIDs(Orders(res, st).Rows))
	assert.Equal(t, []string{"p1"}, parcelRowIDs(Parcels(res, st).Rows))
	assert.Equal(t, []string{"X"}, itemIDs(Items(res, st).Rows))
}

func TestFilterCompositionIsOrderIndependent(t *testing.T) {
	res := fixture()
	st := state(func(s *State) {
		s.Archive = ArchiveAll
		s.Search = "trk"
		s.Carriers = []string{"dhl", "usps"}
		s.Preset = PresetPickup
	})
	q := "trk"
	stages := []func(reconcile.OrderRow) bool{
		func(r reconcile.OrderRow) bool { return orderPolicy.search(r, q) },
		func(r reconcile.OrderRow) bool { return orderPolicy.facets(r, st) },
		func(r reconcile.OrderRow) bool { return orderPolicy.preset(r, st.Preset, now) },
	}
	perms := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

	var want []string
	for i, perm := range perms {
		rows := res.Rows
		for _, s := range perm {
			var next []reconcile.OrderRow
			for _, r := range rows {
				if stages[s](r) {
					next = append(next, r)
				}
			}
			rows = next
		}
		got := orderIDs(rows)
		if i == 0 {
			want = got
			continue
		}
		assert.Equal(t, want, got, "permutation %v", perm)
	}
	assert.Equal(t, []string{"A", "B"}, want)

	piped := orderIDs(Orders(res, state(func(s *State) {
		*s = st
		s.Sort = SortState{Key: SortOrderNumber, Dir: Asc}
	})).Rows)
	assert.Equal(t, want, piped)
}

func TestSortStatusUsesMostActionableParcel(t *testing.T) {
	st := state(func(s *State) {
		s.Archive = ArchiveAll
		s.Sort = SortState{Key: SortStatus, Dir: Asc}
	})
	assert.Equal(t, []string{"A", "B", "D", "C"}, orderIDs(Orders(fixture(), st).Rows), "no parcels sorts last")
	assert.Equal(t, orders.UnrankedStatus, OrderStatusRank(reconcile.OrderRow{}))
}

func TestSortIsStableAndReversible(t *testing.T) {
	res := fixture()
	all := func(k SortKey, d Direction) State {
		return state(func(s *State) {
			s.Archive = ArchiveAll
			s.Sort = SortState{Key: k, Dir: d}
		})
	}

	asc := parcelRowIDs(Parcels(res, all(SortStatus, Asc)).Rows)
	assert.Equal(t, asc, parcelRowIDs(Parcels(res, all(SortStatus, Asc)).Rows), "idempotent")
	desc := parcelRowIDs(Parcels(res, all(SortStatus, Desc)).Rows)
	rev := slices.Clone(asc)
	slices.Reverse(rev)
	assert.Equal(t, rev, desc, "total order reverses exactly")

	// ties keep input order in both directions
	assert.Equal(t, []string{"p1", "p2", "p3", "p4", "p5"}, parcelRowIDs(Parcels(res, all(SortArchived, Asc)).Rows))
	assert.Equal(t, []string{"p5", "p1", "p2", "p3", "p4"}, parcelRowIDs(Parcels(res, all(SortArchived, Desc)).Rows))
}

func TestSortMissingNumbersLowest(t *testing.T) {
	w := 1.5
	res := reconcile.Result{Parcels: []orders.Parcel{
		{ID: "heavy", WeightKg: &w},
		{ID: "unknown"},
	}}
	st := state(func(s *State) { s.Sort = SortState{Key: SortWeight, Dir: Asc} })
	assert.Equal(t, []string{"unknown", "heavy"}, parcelRowIDs(Parcels(res, st).Rows))
}

func TestSortStateSelect(t *testing.T) {
	s := DefaultSort
	assert.Equal(t, SortState{Key: SortDate, Dir: Asc}, s.Select(SortDate))
	assert.Equal(t, SortState{Key: SortPlatform, Dir: Asc}, s.Select(SortPlatform))
	assert.Equal(t, SortState{Key: SortWeight, Dir: Desc}, s.Select(SortPlatform).Select(SortWeight))
	assert.Equal(t, SortState{Key: SortLabel, Dir: Desc}, s.Select(SortLabel).Select(SortLabel))
	for _, k := range []SortKey{SortDate, SortProtection, SortAmount, SortQuantity, SortWeight} {
		assert.Equal(t, Desc, k.DefaultDirection(), k)
	}
}

func TestArchiveModes(t *testing.T) {
	res := fixture()

	archived := state(func(s *State) { s.Archive = ArchiveArchived })
	ov := Orders(res, archived)
	assert.Equal(t, []string{"D", "C"}, orderIDs(ov.Rows))
	assert.Equal(t, []string{"p4"}, ids(ov.Rows[0].Parcels), "active parcel still resolves for archived order")
	assert.Equal(t, []string{"p5"}, ids(ov.Orphans))
	assert.Equal(t, []string{"p5"}, parcelRowIDs(Parcels(res, archived).Rows))
	assert.Equal(t, []string{"W"}, itemIDs(Items(res, archived).Rows))

	all := state(func(s *State) { s.Archive = ArchiveAll })
	assert.Len(t, Orders(res, all).Rows, 4)
	assert.Len(t, Parcels(res, all).Rows, 5)
}

func TestActiveModeHidesArchivedLinkedParcel(t *testing.T) {
	snap := orders.Snapshot{
		Orders:  []orders.Order{{ID: "A", Items: []orders.OrderItem{{ID: "X", QuantityOrdered: 1, ParcelID: strp("p1")}}}},
		Parcels: []orders.Parcel{{ID: "p1", IsArchived: true}},
	}
	res := reconcile.Reconcile(snap)
	v := Orders(res, state(nil))
	require.Len(t, v.Rows, 1)
	assert.Empty(t, v.Rows[0].Parcels)
	assert.Empty(t, Items(res, state(nil)).Rows[0].Parcels)
	assert.Len(t, res.Rows[0].Parcels, 1, "snapshot result is untouched")
}

func TestArchiveScope(t *testing.T) {
	o, p := ArchiveActive.Scope()
	assert.Equal(t, orders.ListOptions{IncludeItems: true}, o)
	assert.Equal(t, orders.ListOptions{}, p)

	for _, m := range []ArchiveMode{ArchiveAll, ArchiveArchived} {
		o, p = m.Scope()
		assert.True(t, o.IncludeArchived && p.IncludeArchived, m)
		assert.False(t, o.ArchivedOnly || p.ArchivedOnly, "fetch broad, filter narrow")
	}
	assert.Equal(t, ArchiveActive, ParseArchiveMode("bogus"))
}

func TestParcelGrouping(t *testing.T) {
	res := fixture()
	st := state(func(s *State) {
		s.Archive = ArchiveAll
		s.Sort = SortState{Key: SortLabel, Dir: Asc}
		s.ParcelGroup = ParcelGroupOrder
	})
	groups := Parcels(res, st).Groups
	require.Len(t, groups, 4)
	assert.Equal(t, "AliExpress #1001", groups[0].Label)
	assert.Equal(t, []string{"p1", "p2"}, parcelRowIDs(groups[0].Rows))
	assert.Equal(t, "eBay #4004", groups[1].Label)
	assert.Equal(t, "Ozon #2002", groups[2].Label)
	assert.Equal(t, []string{"p2"}, parcelRowIDs(groups[2].Rows))
	assert.Equal(t, NoOrderGroupKey, groups[3].Key)
	assert.Equal(t, []string{"p3", "p5"}, parcelRowIDs(groups[3].Rows))

	st.ParcelGroup = ParcelGroupCarrier
	groups = Parcels(res, st).Groups
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"cdek", "dhl", "usps"}, []string{groups[0].Label, groups[1].Label, groups[2].Label})

	st.ParcelGroup = ParcelGroupNone
	assert.Nil(t, Parcels(res, st).Groups)
}

func TestItemGrouping(t *testing.T) {
	res := fixture()
	st := state(func(s *State) {
		s.Archive = ArchiveAll
		s.Sort = SortState{Key: SortLabel, Dir: Asc}
		s.ItemGroup = ItemGroupParcel
	})
	v := Items(res, st)
	assert.Equal(t, []string{"Y", "Z", "W", "X"}, itemIDs(v.Rows))
	require.Len(t, v.Groups, 4)
	assert.Equal(t, "TRK1", v.Groups[0].Label)
	assert.Equal(t, []string{"X"}, itemIDs(v.Groups[0].Rows))
	assert.Equal(t, "TRK2", v.Groups[1].Label)
	assert.Equal(t, []string{"Y", "X"}, itemIDs(v.Groups[1].Rows), "split item listed under each parcel")
	assert.Equal(t, "TRK4", v.Groups[2].Label)
	assert.Equal(t, NoParcelGroupLabel, v.Groups[3].Label)
	assert.Equal(t, []string{"Z"}, itemIDs(v.Groups[3].Rows))

	st.ItemGroup = ItemGroupPlatform
	v = Items(res, st)
	var labels []string
	for _, g := range v.Groups {
		labels = append(labels, g.Label)
	}
	assert.Equal(t, []string{"AliExpress", "eBay", "Ozon"}, labels)
}

func TestItemAllocations(t *testing.T) {
	v := Items(fixture(), state(func(s *State) { s.Sort = SortState{Key: SortDate, Dir: Asc} }))
	require.Equal(t, []string{"X", "Y", "Z"}, itemIDs(v.Rows[:3]))
	x := v.Rows[0]
	require.Len(t, x.Parcels, 2)
	assert.Equal(t, "p1", x.Parcels[0].Parcel.ID)
	assert.Equal(t, 2, x.Parcels[0].Quantity)
	assert.Equal(t, 3, x.Parcels[1].Quantity)
	assert.Empty(t, v.Rows[2].Parcels)
}

func TestItemSortByParcels(t *testing.T) {
	sorted := func(dir Direction) []string {
		return itemIDs(Items(fixture(), state(func(s *State) {
			s.Archive = ArchiveAll
			s.Sort = SortState{Key: SortParcels, Dir: dir}
		})).Rows)
	}
	// parcel count first, then the first parcel's tracking number (Y on TRK2, W on TRK4)
	assert.Equal(t, []string{"Z", "Y", "W", "X"}, sorted(Asc))
	assert.Equal(t, []string{"X", "W", "Y", "Z"}, sorted(Desc))

	assert.Equal(t, Asc, SortParcels.DefaultDirection())
	st := ParseState(url.Values{"sort": {"parcels"}})
	assert.Equal(t, SortParcels, st.Sort.Key)
}

func TestSummarize(t *testing.T) {
	s := Summarize(fixture(), state(nil))
	assert.Equal(t, 2, s.Orders)
	assert.Equal(t, 4, s.Parcels)
	assert.Equal(t, 1, s.InTransit)
	assert.Equal(t, 1, s.Stale, "p1 was never tracked")
	assert.Equal(t, 1, s.Orphans)
	assert.True(t, decimal.NewFromInt(150).Equal(s.TotalBase))
}

func TestFacetOptions(t *testing.T) {
	f := FacetOptions(fixture(), state(nil))
	assert.Equal(t, []string{"AliExpress", "Amazon", "eBay", "Ozon"}, f.Platforms)
	assert.Equal(t, []string{"cdek", "dhl", "usps"}, f.Carriers)
	assert.Equal(t, orders.ParcelPickUpReady, f.Statuses[0])
}

func TestParseState(t *testing.T) {
	v := url.Values{
		"q":        {"phone"},
		"platform": {"Ozon", "eBay"},
		"status":   {"Lost", "Nope"},
		"preset":   {"pickup"},
		"sort":     {"weight"},
		"archive":  {"archived"},
		"group":    {"parcel"},
	}
	st := ParseState(v)
	assert.Equal(t, "phone", st.Search)
	assert.Equal(t, []string{"Ozon", "eBay"}, st.Platforms)
	assert.Equal(t, []orders.ParcelStatus{orders.ParcelLost}, st.Statuses)
	assert.Equal(t, PresetPickup, st.Preset)
	assert.Equal(t, SortState{Key: SortWeight, Dir: Desc}, st.Sort)
	assert.Equal(t, ArchiveArchived, st.Archive)
	assert.Equal(t, ItemGroupParcel, st.ItemGroup)
	assert.Equal(t, ParcelGroupNone, st.ParcelGroup)

	st = ParseState(url.Values{"sort": {"platform"}, "dir": {"desc"}, "preset": {"bogus"}})
	assert.Equal(t, SortState{Key: SortPlatform, Dir: Desc}, st.Sort)
	assert.Equal(t, PresetNone, st.Preset)
	assert.Equal(t, DefaultSort, ParseState(url.Values{}).Sort)
}
