// Package entity provides the record representation shared by models and stores.
package entity

import (
	"time"

	"tombstone/internal/core/id"
)

// Record is a single row of a governed model keyed by model field name
// (not by storage column). Stores translate field names to columns.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Has reports whether the field is present (even when its value is nil).
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// ID returns the record identifier stored under field.
func (r Record) ID(field string) (id.ID, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return id.ID{}, false
	}
	parsed, err := id.FromAny(v)
	if err != nil {
		return id.ID{}, false
	}
	return parsed, true
}

// Bool returns the boolean stored under field; anything else is false.
func (r Record) Bool(field string) bool {
	b, _ := r[field].(bool)
	return b
}

// Time returns the timestamp stored under field, or nil when absent or null.
func (r Record) Time(field string) *time.Time {
	switch v := r[field].(type) {
	case time.Time:
		return &v
	case *time.Time:
		return v
	default:
		return nil
	}
}
