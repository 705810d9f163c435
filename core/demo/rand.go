package demo

import (
	"encoding/binary"
	"hash/fnv"
	"time"
)

const (
	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

// Rand is a seeded linear congruential generator.
// Two Rands built from the same seed yield the same stream. A Rand is owned by a single run.
type Rand struct {
	state int64
}

func NewRand(seed int64) *Rand {
	s := seed % lcgModulus
	if s < 0 {
		s += lcgModulus
	}
	return &Rand{state: s}
}

// Float returns the next value in [0,1).
func (r *Rand) Float() float64 {
	r.state = (r.state*lcgMultiplier + lcgIncrement) % lcgModulus
	return float64(r.state) / lcgModulus
}

// Intn returns a value in [0,n). It panics if n <= 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		panic("demo: invalid argument to Intn")
	}
	return int(r.Float() * float64(n))
}

// Between returns a value in [min,max].
func (r *Rand) Between(min, max int) int {
	if max < min {
		min, max = max, min
	}
	return min + r.Intn(max-min+1)
}

// FloatBetween returns a value in [min,max).
func (r *Rand) FloatBetween(min, max float64) float64 {
	if max < min {
		min, max = max, min
	}
	return min + r.Float()*(max-min)
}

// Chance returns true with probability p.
func (r *Rand) Chance(p float64) bool {
	return r.Float() < p
}

// Shuffle is a Fisher-Yates shuffle driven by r.
func (r *Rand) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, r.Intn(i+1))
	}
}

// RunSeed derives the seed of a run from the tenant and the run start time.
func RunSeed(tenantID string, at time.Time) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tenantID))
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(at.UnixNano()))
	_, _ = h.Write(b[:])
	return int64(h.Sum64() >> 1)
}
