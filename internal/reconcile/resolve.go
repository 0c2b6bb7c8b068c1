// Package reconcile joins order items to the parcels that carry them.
package reconcile

import (
	"fmt"

	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
)

// Linkage is how an order item points at parcels: Unlinked, SingleParcel or Split.
type Linkage interface {
	allocations(qtyOrdered int) []orders.Allocation
}

type Unlinked struct{}

// SingleParcel is the legacy parcel_id link; the whole ordered quantity sits in one parcel.
type SingleParcel struct {
	ParcelID string
}

type Split struct {
	Allocations []orders.Allocation
}

func (Unlinked) allocations(int) []orders.Allocation { return nil }

func (l SingleParcel) allocations(qty int) []orders.Allocation {
	return []orders.Allocation{{ParcelID: l.ParcelID, Quantity: qty}}
}

func (l Split) allocations(int) []orders.Allocation {
	out := make([]orders.Allocation, len(l.Allocations))
	copy(out, l.Allocations)
	return out
}

// LinkageOf picks the split list when present; parcel_id is only a fallback.
func LinkageOf(it orders.OrderItem) Linkage {
	if len(it.InParcels) > 0 {
		return Split{Allocations: it.InParcels}
	}
	if it.ParcelID != nil && *it.ParcelID != "" {
		return SingleParcel{ParcelID: *it.ParcelID}
	}
	return Unlinked{}
}

type Resolution struct {
	Allocations []orders.Allocation `json:"allocations"`
	InParcels   int                 `json:"quantity_in_parcels"`
	Remaining   int                 `json:"remaining_quantity"`
}

// Resolve computes the canonical allocation list of an item from its embedded links.
func Resolve(it orders.OrderItem) Resolution {
	return resolution(it.QuantityOrdered, LinkageOf(it).allocations(it.QuantityOrdered))
}

// ResolveLinks resolves an item against the normalized ParcelItem set instead of its
// embedded in_parcels. Links for other items are ignored.
func ResolveLinks(it orders.OrderItem, links []orders.ParcelItem) Resolution {
	var allocs []orders.Allocation
	for _, l := range links {
		if l.OrderItemID == it.ID {
			allocs = append(allocs, orders.Allocation{ParcelID: l.ParcelID, Quantity: l.Quantity})
		}
	}
	if len(allocs) == 0 {
		return Resolve(orders.OrderItem{ID: it.ID, ParcelID: it.ParcelID, QuantityOrdered: it.QuantityOrdered})
	}
	return resolution(it.QuantityOrdered, allocs)
}

func resolution(ordered int, allocs []orders.Allocation) Resolution {
	r := Resolution{Allocations: allocs}
	for _, a := range allocs {
		r.InParcels += a.Quantity
	}
	r.Remaining = max(0, ordered-r.InParcels)
	return r
}

// Quantity is the number of units allocated to parcelID.
func (r Resolution) Quantity(parcelID string) int {
	n := 0
	for _, a := range r.Allocations {
		if a.ParcelID == parcelID {
			n += a.Quantity
		}
	}
	return n
}

// References reports whether any positive allocation points at parcelID.
func (r Resolution) References(parcelID string) bool {
	return r.Quantity(parcelID) > 0
}

// CheckCapacity validates creating (replacingID == "") or resizing (replacingID = link id)
// a split link of qty units. Over-allocation is rejected, never clamped.
func CheckCapacity(it orders.OrderItem, links []orders.ParcelItem, replacingID string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("%w: quantity must be at least 1, got %d", orders.ErrValidation, qty)
	}
	used := 0
	for _, l := range links {
		if l.OrderItemID != it.ID || (replacingID != "" && l.ID == replacingID) {
			continue
		}
		used += l.Quantity
	}
	available := max(0, it.QuantityOrdered-used)
	if qty > available {
		return &orders.CapacityError{OrderItemID: it.ID, Requested: qty, Available: available}
	}
	return nil
}
