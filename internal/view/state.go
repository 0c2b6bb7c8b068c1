// Package view projects reconciled orders into order, parcel and item listings and runs
// them through one filter/sort/group pipeline.
package view

import (
	"net/url"
	"time"

	"golang.org/x/text/language"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
)

type Preset string

const (
	PresetNone        Preset = "none"
	PresetLost        Preset = "lost"
	PresetProtection  Preset = "protection"
	PresetPickup      Preset = "pickup"
	PresetNoItems     Preset = "no_items"
	PresetOrphansOnly Preset = "orphans_only"
	PresetCompleted   Preset = "completed"
	PresetReceived    Preset = "received" // same predicate as completed
)

// ProtectionWindow is how close a protection end date must be for the protection preset.
const ProtectionWindow = 7

func ParsePreset(s string) Preset {
	switch p := Preset(s); p {
	case PresetLost, PresetProtection, PresetPickup, PresetNoItems, PresetOrphansOnly, PresetCompleted, PresetReceived:
		return p
	}
	return PresetNone
}

type SortKey string

const (
	SortDate        SortKey = "date"
	SortProtection  SortKey = "protection"
	SortPlatform    SortKey = "platform"
	SortAmount      SortKey = "amount"
	SortStatus      SortKey = "status"
	SortOrderNumber SortKey = "order_number"
	SortLabel       SortKey = "label"
	SortQuantity    SortKey = "quantity"
	SortWeight      SortKey = "weight"
	SortArchived    SortKey = "archived"
	SortParcels     SortKey = "parcels" // item view only
)

var sortKeys = map[SortKey]bool{
	SortDate: true, SortProtection: true, SortPlatform: true, SortAmount: true, SortStatus: true,
	SortOrderNumber: true, SortLabel: true, SortQuantity: true, SortWeight: true, SortArchived: true,
	SortParcels: true,
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func (d Direction) Flip() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// DefaultDirection is descending for time and magnitude keys, ascending otherwise.
func (k SortKey) DefaultDirection() Direction {
	switch k {
	case SortDate, SortProtection, SortAmount, SortQuantity, SortWeight:
		return Desc
	}
	return Asc
}

type SortState struct {
	Key SortKey   `json:"key"`
	Dir Direction `json:"dir"`
}

var DefaultSort = SortState{Key: SortDate, Dir: Desc}

// Select applies a column click: the same key flips direction, a new key starts at its default.
func (s SortState) Select(k SortKey) SortState {
	if k == s.Key {
		return SortState{Key: k, Dir: s.Dir.Flip()}
	}
	return SortState{Key: k, Dir: k.DefaultDirection()}
}

type ParcelGroup string

const (
	ParcelGroupNone    ParcelGroup = "none"
	ParcelGroupStatus  ParcelGroup = "status"
	ParcelGroupCarrier ParcelGroup = "carrier"
	ParcelGroupOrder   ParcelGroup = "order"
)

func ParseParcelGroup(s string) ParcelGroup {
	switch g := ParcelGroup(s); g {
	case ParcelGroupStatus, ParcelGroupCarrier, ParcelGroupOrder:
		return g
	}
	return ParcelGroupNone
}

type ItemGroup string

const (
	ItemGroupNone     ItemGroup = "none"
	ItemGroupOrder    ItemGroup = "order"
	ItemGroupPlatform ItemGroup = "platform"
	ItemGroupStatus   ItemGroup = "status"
	ItemGroupParcel   ItemGroup = "parcel"
)

func ParseItemGroup(s string) ItemGroup {
	switch g := ItemGroup(s); g {
	case ItemGroupOrder, ItemGroupPlatform, ItemGroupStatus, ItemGroupParcel:
		return g
	}
	return ItemGroupNone
}

// State is every input of a projection besides the snapshot itself.
type State struct {
	Search      string
	Platforms   []string
	Carriers    []string
	Statuses    []orders.ParcelStatus
	Preset      Preset
	Sort        SortState
	Archive     ArchiveMode
	ParcelGroup ParcelGroup
	ItemGroup   ItemGroup
	// Lang drives string collation; the zero value is the root locale.
	Lang language.Tag
	// Now anchors the protection preset and staleness; zero means time.Now().
	Now time.Time
}

func DefaultState() State {
	return State{
		Preset:      PresetNone,
		Sort:        DefaultSort,
		Archive:     ArchiveActive,
		ParcelGroup: ParcelGroupNone,
		ItemGroup:   ItemGroupNone,
	}
}

func (s State) now() time.Time {
	if s.Now.IsZero() {
		return time.Now()
	}
	return s.Now
}

// ParseState reads q, platform, carrier, status, preset, sort, dir, archive, group and lang.
func ParseState(v url.Values) State {
	st := DefaultState()
	st.Search = v.Get("q")
	st.Platforms = v["platform"]
	st.Carriers = v["carrier"]
	for _, s := range v["status"] {
		if ps := orders.ParcelStatus(s); ps.Valid() {
			st.Statuses = append(st.Statuses, ps)
		}
	}
	st.Preset = ParsePreset(v.Get("preset"))
	if k := SortKey(v.Get("sort")); sortKeys[k] {
		st.Sort = SortState{Key: k, Dir: k.DefaultDirection()}
	}
	switch d := Direction(v.Get("dir")); d {
	case Asc, Desc:
		st.Sort.Dir = d
	}
	st.Archive = ParseArchiveMode(v.Get("archive"))
	st.ParcelGroup = ParseParcelGroup(v.Get("group"))
	st.ItemGroup = ParseItemGroup(v.Get("group"))
	if tag, err := language.Parse(v.Get("lang")); err == nil {
		st.Lang = tag
	}
	return st
}
