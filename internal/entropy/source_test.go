package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeededIsReplayable(t *testing.T) {
	a, b := NewSeeded(42), NewSeeded(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Float64(), b.Float64())
		require.Equal(t, a.IntN(17), b.IntN(17))
	}
	assert.Equal(t, uint64(42), a.Seed())
	assert.NotZero(t, NewSeeded(0).Seed())
	assert.Zero(t, a.IntN(0))
}

func TestRangeAndChance(t *testing.T) {
	src := NewSeeded(7)
	for i := 0; i < 200; i++ {
		v := Range(src, -0.5, 0.5)
		require.GreaterOrEqual(t, v, -0.5)
		require.Less(t, v, 0.5)
	}
	assert.False(t, Chance(src, 0))
	assert.True(t, Chance(src, 1))
}

func TestScaleNStaysInRange(t *testing.T) {
	assert.Equal(t, 0, scaleN(0, 5))
	assert.Equal(t, 4, scaleN(0.999999, 5))
	assert.Equal(t, 4, scaleN(1, 5))
	assert.Zero(t, scaleN(0.5, 0))
}
