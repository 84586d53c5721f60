// Package krand provides deterministic, independently seedable random
// streams for the render path.
//
// Two voices started in the same render frame must not draw from the
// same sequence: a voice stealing or retriggering another mid-note
// should not perturb its sibling's random draws. So every Channel and
// every Voice here owns its own Stream, derived from a parent seed and
// a sub-index rather than sharing one global *rand.Rand.
package krand

import "math/rand"

// Stream is an independent pseudo-random sequence.
type Stream struct {
	r *rand.Rand
}

// NewStream creates a root stream from a seed.
func NewStream(seed int64) *Stream {
	return &Stream{r: rand.New(rand.NewSource(seed))}
}

// Sub derives an independent child stream from this one, keyed by
// index. Re-deriving with the same index from a stream in the same
// state yields the same child sequence, which keeps playback
// reproducible across identical render sessions.
const goldenRatio64 uint64 = 0x9E3779B97F4A7C15

func (s *Stream) Sub(index int64) *Stream {
	mixed := uint64(s.r.Int63()) ^ (uint64(index)*goldenRatio64 + 1)
	return NewStream(int64(mixed))
}

// Reseed resets the stream to a fresh sequence from seed.
func (s *Stream) Reseed(seed int64) {
	s.r = rand.New(rand.NewSource(seed))
}

// Intn returns a pseudo-random int in [0, n).
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return s.r.Intn(n)
}

// Float64 returns a pseudo-random float64 in [0, 1).
func (s *Stream) Float64() float64 {
	return s.r.Float64()
}

// NormFloat64 returns a normally distributed float64, mean 0 stddev 1.
func (s *Stream) NormFloat64() float64 {
	return s.r.NormFloat64()
}
