package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsUniqueAndIncreasing(t *testing.T) {
	require.NoError(t, Init(3))

	seen := make(map[int64]struct{}, 1000)
	prev := int64(0)
	for i := 0; i < 1000; i++ {
		v := New()
		_, dup := seen[v]
		require.False(t, dup, "duplicate id %d", v)
		seen[v] = struct{}{}
		assert.Greater(t, v, prev)
		prev = v
	}
}

func TestInitOnlyOnce(t *testing.T) {
	New()
	// Out of range for snowflake, but ignored once a node exists.
	assert.NoError(t, Init(1<<20))
}
