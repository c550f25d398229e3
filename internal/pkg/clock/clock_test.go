package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeClocker_Now(t *testing.T) {
	before := time.Now()
	got := New().Now()
	after := time.Now()

	assert.Equal(t, time.UTC, got.Location())
	assert.False(t, got.Before(before.UTC().Truncate(time.Second)))
	assert.False(t, got.After(after.UTC().Add(time.Second)))
}

func TestManual(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewManual(start)

	assert.Equal(t, start, c.Now())

	c.Advance(301 * time.Second)
	assert.Equal(t, start.Add(301*time.Second), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}
