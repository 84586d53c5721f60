// Package tstamp implements rational musical timestamps.
//
// A Tstamp is an ordered pair (beats, rem) with 0 <= rem < Beat. Beat
// is chosen divisible by many small integers so that common tempo
// arithmetic (halves, thirds, quarters, 1/24ths for tempo-slide
// granularity) stays exact in integer space.
package tstamp

import "fmt"

// Beat is the number of rem units in one beat.
const Beat int64 = 882161280

// Tstamp is a musical duration or position.
type Tstamp struct {
	Beats int64
	Rem   int32
}

// New builds a normalised Tstamp from beats and rem, folding any
// rem overflow/underflow into beats.
func New(beats int64, rem int32) Tstamp {
	t := Tstamp{Beats: beats, Rem: rem}
	t.normalise()
	return t
}

func (t *Tstamp) normalise() {
	for t.Rem < 0 {
		t.Rem += int32(Beat)
		t.Beats--
	}
	for int64(t.Rem) >= Beat {
		t.Rem -= int32(Beat)
		t.Beats++
	}
}

// Zero is the Tstamp at position/duration 0.
var Zero = Tstamp{}

// Add returns t + other, normalised.
func Add(t, other Tstamp) Tstamp {
	return New(t.Beats+other.Beats, t.Rem+other.Rem)
}

// Sub returns t - other, normalised.
func Sub(t, other Tstamp) Tstamp {
	return New(t.Beats-other.Beats, t.Rem-other.Rem)
}

// Cmp returns -1, 0, or 1 as t is less than, equal to, or greater
// than other. It is a total order.
func Cmp(t, other Tstamp) int {
	switch {
	case t.Beats < other.Beats:
		return -1
	case t.Beats > other.Beats:
		return 1
	case t.Rem < other.Rem:
		return -1
	case t.Rem > other.Rem:
		return 1
	default:
		return 0
	}
}

// Less reports whether t < other.
func Less(t, other Tstamp) bool { return Cmp(t, other) < 0 }

// LessOrEqual reports whether t <= other.
func LessOrEqual(t, other Tstamp) bool { return Cmp(t, other) <= 0 }

// IsZero reports whether t is the zero timestamp.
func IsZero(t Tstamp) bool { return t.Beats == 0 && t.Rem == 0 }

// Min returns the smaller of a and b.
func Min(a, b Tstamp) Tstamp {
	if Less(a, b) {
		return a
	}
	return b
}

// ToFloatBeats returns t expressed as a floating-point number of beats.
func ToFloatBeats(t Tstamp) float64 {
	return float64(t.Beats) + float64(t.Rem)/float64(Beat)
}

// FromFloatBeats builds a Tstamp from a floating-point beat count.
func FromFloatBeats(beats float64) Tstamp {
	whole := int64(beats)
	frac := beats - float64(whole)
	return New(whole, int32(frac*float64(Beat)))
}

// ToFrames converts t to a frame count at the given tempo (BPM) and
// audio sample rate, per spec: frames = beats_total * 60 * rate / tempo.
func ToFrames(t Tstamp, tempo, rate float64) float64 {
	if tempo <= 0 {
		return 0
	}
	return ToFloatBeats(t) * 60.0 * rate / tempo
}

// FromFrames is the inverse of ToFrames.
func FromFrames(frames, tempo, rate float64) Tstamp {
	if rate <= 0 {
		return Zero
	}
	beats := frames * tempo / (60.0 * rate)
	return FromFloatBeats(beats)
}

func (t Tstamp) String() string {
	return fmt.Sprintf("%d+%d/%d", t.Beats, t.Rem, Beat)
}
