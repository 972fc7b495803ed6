// Package id provides UUIDv7 generation for governed records.
// UUIDv7 is time-ordered, allowing natural sorting by creation time.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is a type alias for UUID, used as the identity of every record.
type ID = uuid.UUID

// New generates a new UUIDv7 (time-ordered UUID).
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to V4 if V7 fails (should never happen)
		return uuid.New()
	}
	return id
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// FromAny converts values coming out of drivers and decoded JSON into an ID.
// Accepted: ID, string, []byte (text or 16 raw bytes) and [16]byte.
func FromAny(v any) (ID, error) {
	switch x := v.(type) {
	case ID:
		return x, nil
	case *ID:
		if x == nil {
			return uuid.Nil, fmt.Errorf("nil id")
		}
		return *x, nil
	case string:
		return uuid.Parse(x)
	case []byte:
		if len(x) == 16 {
			return uuid.FromBytes(x)
		}
		return uuid.ParseBytes(x)
	case [16]byte:
		return ID(x), nil
	default:
		return uuid.Nil, fmt.Errorf("unsupported id type %T", v)
	}
}

// IsNil checks if ID is zero-value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}
