package proc

import (
	"math"

	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/wbuf"
)

// Stream produces a control-rate signal with an init value, a slider
// towards a target, and a sinusoidal LFO (speed + depth), interpreted
// by a target processor named in the owning Audio Unit's stream map.
type Stream struct {
	Value       float64 // current value, starts at the init value
	SlideTarget float64
	SlideLeft   int // frames remaining in the current slide
	SlideFrames int // slide length applied by the next SlideTo ("/=s")

	LFOSpeedHz float64
	LFODepth   float64

	phase float64
}

func (s *Stream) Kind() Kind { return KindStream }

// Set immediately assigns the stream's value (the ".s" event).
func (s *Stream) Set(v float64) {
	s.Value = v
	s.SlideLeft = 0
}

// SetSlideFrames records the slide length ("/=s") applied by
// subsequent SlideTo calls.
func (s *Stream) SetSlideFrames(frames int) {
	s.SlideFrames = frames
	if s.SlideLeft > 0 {
		s.SlideLeft = frames
	}
}

// SlideTo begins a linear slide to target over the configured slide
// length (the "/s" event); with no length configured the value jumps.
func (s *Stream) SlideTo(target float64) {
	s.SlideTarget = target
	if s.SlideFrames <= 0 {
		s.Value = target
		s.SlideLeft = 0
		return
	}
	s.SlideLeft = s.SlideFrames
}

// Fill advances the stream by [start, stop) frames at rate, writing
// its per-frame value into dst. This is the stream's render core; the
// player calls it directly to route a named stream into the shared
// control buffer its target processor reads.
func (s *Stream) Fill(dst []float32, rate float64, start, stop int) {
	for i := start; i < stop && i < len(dst); i++ {
		if s.SlideLeft > 0 {
			step := (s.SlideTarget - s.Value) / float64(s.SlideLeft)
			s.Value += step
			s.SlideLeft--
		}

		lfo := 0.0
		if s.LFODepth != 0 {
			lfo = math.Sin(2*math.Pi*s.phase) * s.LFODepth
			s.phase += s.LFOSpeedHz / rate
			s.phase -= math.Floor(s.phase)
		}

		dst[i] = float32(s.Value + lfo)
	}
}

func (s *Stream) RenderMixed(base *devstate.Base, wbs *wbuf.Buffers, start, stop int) {
	out := base.OutPorts[PortCtrl]
	if out == nil {
		return
	}
	s.Fill(out.Data, float64(base.Rate), start, stop)
}
