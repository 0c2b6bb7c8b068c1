package orders

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("not found")
	ErrCapacity   = errors.New("quantity exceeds remaining capacity")
	ErrConflict   = errors.New("conflict")
	ErrFetch      = errors.New("fetch failed")
)

// CapacityError rejects a parcel link that would allocate more units than remain.
type CapacityError struct {
	OrderItemID string
	Requested   int
	Available   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("order item %s: requested %d, only %d remaining", e.OrderItemID, e.Requested, e.Available)
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacity }

// ConflictError carries the store's refusal message verbatim.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// FetchError marks a failed snapshot read. Callers re-invoke the fetch themselves.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

func (e *FetchError) Retryable() bool { return true }

// BatchError reports a sequential batch that stopped at Index.
// Operations before Index stay applied.
type BatchError struct {
	Index   int
	Applied int
	Skipped int
	Err     error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch stopped at op %d (%d applied, %d skipped): %v", e.Index, e.Applied, e.Skipped, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
