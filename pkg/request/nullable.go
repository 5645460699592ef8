package request

import (
	"bytes"
	"encoding/json"
)

// Nullable is a PATCH field that tells an absent key from an explicit null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON records that the key was present. null clears Value.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// ApplyTo overwrites *dst when the key was sent.
func (n Nullable[T]) ApplyTo(dst **T) {
	if n.Set {
		*dst = n.Value
	}
}
