package view

import "github.com/ariefcatur/go-parcel-ledger/internal/orders"

// ArchiveMode selects between active, all and archived records. Any mode can follow any other.
type ArchiveMode string

const (
	ArchiveActive   ArchiveMode = "active"
	ArchiveAll      ArchiveMode = "all"
	ArchiveArchived ArchiveMode = "archived"
)

func ParseArchiveMode(s string) ArchiveMode {
	switch ArchiveMode(s) {
	case ArchiveAll, ArchiveArchived:
		return ArchiveMode(s)
	}
	return ArchiveActive
}

// Scope is what to request from the store for orders and for parcels.
//
// The archived mode still fetches the unfiltered union: an archived order must be able to
// resolve a linked parcel that is itself active, and orphan detection needs every order.
// The narrowing to archived-only happens client-side in Visible.
func (m ArchiveMode) Scope() (ordersOpt, parcelsOpt orders.ListOptions) {
	switch m {
	case ArchiveAll, ArchiveArchived:
		ordersOpt = orders.ListOptions{IncludeItems: true, IncludeArchived: true}
		parcelsOpt = orders.ListOptions{IncludeArchived: true}
	default:
		ordersOpt = orders.ListOptions{IncludeItems: true}
		parcelsOpt = orders.ListOptions{}
	}
	return ordersOpt, parcelsOpt
}

// Visible reports whether a record with the given archived flag belongs to the primary listing.
func (m ArchiveMode) Visible(archived bool) bool {
	switch m {
	case ArchiveAll:
		return true
	case ArchiveArchived:
		return archived
	default:
		return !archived
	}
}

// linkedVisible decides whether a parcel stays attached to a visible row. Only the active
// mode hides archived parcels; the archived mode keeps them all so references resolve.
func (m ArchiveMode) linkedVisible(p orders.Parcel) bool {
	if m == ArchiveAll || m == ArchiveArchived {
		return true
	}
	return !p.IsArchived
}
