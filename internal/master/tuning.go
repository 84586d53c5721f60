package master

import (
	"math"

	"github.com/kunquat/kunquat-go/internal/kqerr"
)

// TuningTable gives the reference note, pitch offset, octave width,
// and per-degree offsets of one scale.
type TuningTable struct {
	RefNote          int
	PitchOffsetCents float64
	OctaveWidthCents float64
	NoteOffsetsCents []float64 // one per scale degree, ascending within an octave
}

// TuningState wraps a TuningTable with the mutable global offset,
// reference-pitch target, and drift estimate a channel's retuning
// accumulates during playback.
type TuningState struct {
	Table             *TuningTable
	GlobalOffsetCents float64
	RefPitchTarget    float64
	Drift             float64
}

// NewTuningState creates a state over table with no accumulated offset.
func NewTuningState(table *TuningTable) *TuningState {
	return &TuningState{Table: table}
}

// GetRetunedPitch quantises cents to the nearest scale degree of the
// table and returns the retuned pitch in cents, including the
// accumulated global offset.
func (s *TuningState) GetRetunedPitch(cents float64) float64 {
	t := s.Table
	if t == nil || len(t.NoteOffsetsCents) == 0 {
		return cents + s.GlobalOffsetCents
	}

	degrees := len(t.NoteOffsetsCents)
	rel := cents - t.PitchOffsetCents
	step := t.OctaveWidthCents / float64(degrees)

	octave := math.Floor(rel / t.OctaveWidthCents)
	within := rel - octave*t.OctaveWidthCents
	degree := int(math.Round(within / step))
	if degree >= degrees {
		degree -= degrees
		octave++
	}

	quantized := octave*t.OctaveWidthCents + t.NoteOffsetsCents[degree]
	return t.PitchOffsetCents + quantized + s.GlobalOffsetCents
}

// Retune shifts the global offset so newRefCents lands where the
// table's own reference degree currently does, keeping degree 0 the
// fixed point.
func (s *TuningState) Retune(newRefCents float64) {
	fixedPoint := s.GetRetunedPitch(s.RefPitchTarget)
	s.GlobalOffsetCents += newRefCents - fixedPoint
	s.RefPitchTarget = newRefCents
}

// RetuneWithSource copies degree offsets from other's table, provided
// both tables have the same degree count.
func (s *TuningState) RetuneWithSource(other *TuningState) error {
	if s.Table == nil || other == nil || other.Table == nil {
		return kqerr.NewHere(kqerr.ArgumentError, "tuning state missing a table")
	}
	if len(s.Table.NoteOffsetsCents) != len(other.Table.NoteOffsetsCents) {
		return kqerr.NewHere(kqerr.ArgumentError, "tuning tables have different degree counts")
	}
	copy(s.Table.NoteOffsetsCents, other.Table.NoteOffsetsCents)
	return nil
}
