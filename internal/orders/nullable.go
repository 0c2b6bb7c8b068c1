package orders

import (
	"bytes"
	"encoding/json"
)

// Nullable is a patch field that tells an absent key (Set false) from an explicit JSON null
// (Set and Null), which clears the column.
type Nullable[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Value sets the field to v.
func Value[T any](v T) Nullable[T] { return Nullable[T]{Set: true, Value: v} }

// Null clears the field.
func Null[T any]() Nullable[T] { return Nullable[T]{Set: true, Null: true} }

func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	var zero T
	n.Set, n.Value = true, zero
	n.Null = bytes.Equal(bytes.TrimSpace(b), []byte("null"))
	if n.Null {
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Set || n.Null {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Ptr is the value to write: nil for a cleared (or unset) field.
func (n Nullable[T]) Ptr() *T {
	if !n.Set || n.Null {
		return nil
	}
	v := n.Value
	return &v
}
