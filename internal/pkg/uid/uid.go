// Package uid generates identifiers: snowflake numbers for rows and UUIDv7
// strings for correlation and token IDs.
package uid

import "github.com/google/uuid"

// NumberID generates unique, roughly time-ordered int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}

// UUID yields time-ordered UUIDv7 strings.
type UUID struct{}

func NewUUID() UUID { return UUID{} }

// Generate falls back to a random v4 value when v7 cannot read the clock
// source.
func (UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
