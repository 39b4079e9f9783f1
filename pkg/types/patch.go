package types

import (
	"bytes"
	"encoding/json"
)

// Patch is a field of a partial update. Set is true when the key was present in the
// payload, so an explicit null (clear the value) differs from an omitted key (keep it).
type Patch[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Patch[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	p.Set = true
	if bytes.Equal(trimmed, []byte("null")) {
		p.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	p.Value = &v
	return nil
}

// Ptr returns a fresh pointer to the value, or nil for an explicit null.
func (p Patch[T]) Ptr() *T {
	if p.Value == nil {
		return nil
	}
	v := *p.Value
	return &v
}
