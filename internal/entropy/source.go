// Package entropy provides the random sources shared by rides, guests and staff.
// Simulation randomness is seeded so a run can be replayed; breakdown rolls may
// optionally draw true randomness from random.org, falling back to crypto/rand
// when the API is unavailable.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
	"time"
)

// Source is the random stream every stochastic decision draws from.
type Source interface {
	Float64() float64 // uniform in [0, 1)
	IntN(n int) int   // uniform in [0, n); n must be > 0
}

// Seeded is a deterministic Source.
type Seeded struct {
	r    *mrand.Rand
	seed uint64
}

// NewSeeded returns a deterministic source. A zero seed picks one from crypto/rand.
func NewSeeded(seed uint64) *Seeded {
	if seed == 0 {
		seed = cryptoUint64()
	}
	return &Seeded{r: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), seed: seed}
}

// Seed returns the seed the source was created with.
func (s *Seeded) Seed() uint64 { return s.seed }

func (s *Seeded) Float64() float64 { return s.r.Float64() }

func (s *Seeded) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return s.r.IntN(n)
}

// Range returns a uniform value in [lo, hi).
func Range(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Chance reports true with probability p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// scaleN maps a fraction in [0, 1) onto [0, n).
func scaleN(f float64, n int) int {
	if n <= 0 {
		return 0
	}
	return min(int(f*float64(n)), n-1)
}

// cryptoFloat64 keeps the top 53 bits of a crypto/rand word.
func cryptoFloat64() float64 {
	return float64(cryptoUint64()>>11) / (1 << 53)
}

func cryptoUint64() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(buf[:])
}
