// Package sampler provides the probabilistic inclusion gate for recording.
package sampler

import (
	"github.com/spaolacci/murmur3"
)

// samplerSeed keeps replay sampling decisions independent from other
// murmur3-based hashing in the pipeline (resource content addressing).
const samplerSeed = 0x7265706c

// Sampler decides whether a view is recorded. The decision is derived from a
// hash of the session and view identifiers together, so within one recording
// session a view is either recorded completely or not at all, while a fresh
// session rolls a fresh decision for every view.
type Sampler struct {
	rate float64 // percentage, 0-100
}

// New creates a sampler with the given rate. Rates outside [0, 100] are
// clamped.
func New(rate float64) *Sampler {
	if rate < 0 {
		rate = 0
	}
	if rate > 100 {
		rate = 100
	}
	return &Sampler{rate: rate}
}

// Rate returns the configured rate.
func (s *Sampler) Rate() float64 {
	return s.rate
}

// Sample reports whether the given view should be recorded in the given
// session. The NUL separator keeps ("ab","c") and ("a","bc") from colliding.
func (s *Sampler) Sample(sessionID, viewID string) bool {
	if s.rate <= 0 {
		return false
	}
	if s.rate >= 100 {
		return true
	}
	key := make([]byte, 0, len(sessionID)+1+len(viewID))
	key = append(key, sessionID...)
	key = append(key, 0)
	key = append(key, viewID...)
	h := murmur3.Sum32WithSeed(key, samplerSeed)
	// Map the hash onto [0, 100) with two decimal places of resolution.
	bucket := float64(h%10000) / 100.0
	return bucket < s.rate
}
