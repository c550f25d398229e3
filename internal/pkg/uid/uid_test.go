package uid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflake_UniqueAndIncreasing(t *testing.T) {
	s, err := NewSnowflakeNode(1)
	require.NoError(t, err)

	seen := make(map[int64]struct{}, 1000)
	var prev int64
	for range 1000 {
		id := s.Generate()
		assert.Greater(t, id, prev)
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
		prev = id
	}
}

func TestNewSnowflakeNode_Range(t *testing.T) {
	_, err := NewSnowflakeNode(-1)
	assert.ErrorIs(t, err, ErrInvalidNode)

	_, err = NewSnowflakeNode(1024)
	assert.ErrorIs(t, err, ErrInvalidNode)

	_, err = NewSnowflake()
	assert.NoError(t, err)
}

func TestUUID_Generate(t *testing.T) {
	var gen StringID = NewUUID()

	a, b := gen.Generate(), gen.Generate()
	assert.NotEqual(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}
