// Package seeded builds the explicit pseudo-random generators threaded through
// sampling and shuffling. Nothing in the pipeline uses the global generator.
package seeded

import "math/rand/v2"

// New returns a generator whose stream is fully determined by seed.
func New(seed int64) *rand.Rand {
	s := uint64(seed)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}
