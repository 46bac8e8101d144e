package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeededReproducible(t *testing.T) {
	a := NewSeeded(99)
	b := NewSeeded(99)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestSeededInRange(t *testing.T) {
	s := NewSeeded(3)
	for i := 0; i < 1000; i++ {
		v := s.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestCryptoInRange(t *testing.T) {
	c := NewCrypto()
	for i := 0; i < 100; i++ {
		v := c.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestChanceDegenerateProbabilities(t *testing.T) {
	src := NewSeeded(1)
	assert.False(t, Chance(src, 0))
	assert.False(t, Chance(src, -0.5))
	assert.True(t, Chance(src, 1))
	assert.True(t, Chance(src, 1.5))
}

func TestChanceRoughlyCalibrated(t *testing.T) {
	src := NewSeeded(7)
	hits := 0
	for i := 0; i < 10000; i++ {
		if Chance(src, 0.3) {
			hits++
		}
	}
	assert.InDelta(t, 3000, hits, 300)
}
