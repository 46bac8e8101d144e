// Package entropy provides the pseudo-random source behind every
// probabilistic branch in the simulation (betrayal checks, relapse draws).
// A single Source is injected into the world at construction; tests and
// reproducible runs use a seeded source, live runs may use crypto/rand.
// No code in this module reads global random state.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"sync"
)

// Source yields uniform floats in [0, 1). Implementations need not be
// safe for concurrent use; the simulation is turn-synchronous.
type Source interface {
	Float64() float64
}

// Seeded is a deterministic Source. Two Seeded sources with the same seed
// produce identical draw sequences, which is what makes probabilistic
// outcomes reproducible across runs.
type Seeded struct {
	rng *mrand.Rand
}

// NewSeeded creates a deterministic source from a seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: mrand.New(mrand.NewSource(seed))}
}

// Float64 returns the next draw in [0, 1).
func (s *Seeded) Float64() float64 {
	return s.rng.Float64()
}

// Crypto is a Source backed by crypto/rand, for live worlds where replay
// is not needed. Safe for concurrent use.
type Crypto struct {
	mu sync.Mutex
}

// NewCrypto creates a crypto/rand-backed source.
func NewCrypto() *Crypto {
	return &Crypto{}
}

// Float64 returns a uniform draw in [0, 1).
func (c *Crypto) Float64() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Chance draws once from src and reports whether an event with the given
// probability occurred. Probabilities outside [0, 1] are clamped.
func Chance(src Source, probability float64) bool {
	if probability <= 0 {
		return false
	}
	if probability >= 1 {
		return true
	}
	return src.Float64() < probability
}
