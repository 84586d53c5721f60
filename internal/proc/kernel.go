// Package proc implements the processor kernels: per-type voice-render
// and mixed-render functions for the leaf DSP nodes of an Audio Unit's
// connection graph.
//
// Exactly one of the two render signatures is implemented per kernel,
// selected by its signal type. VoiceKernel synthesizes or
// shapes a per-note signal from per-voice state; MixedKernel processes
// a block-wide signal with no per-note state.
package proc

import (
	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/krand"
	"github.com/kunquat/kunquat-go/internal/wbuf"
)

// SignalType distinguishes voice processors (one instance per active
// note) from mixed processors (one shared instance per Audio Unit).
type SignalType int

const (
	SignalVoice SignalType = iota
	SignalMixed
)

// Kind names a processor's DSP algorithm.
type Kind string

const (
	KindDebug      Kind = "debug"
	KindSine       Kind = "sine"
	KindTriangle   Kind = "triangle"
	KindSquare     Kind = "square"
	KindSawtooth   Kind = "sawtooth"
	KindNoise      Kind = "noise"
	KindSample     Kind = "sample"
	KindFilter     Kind = "filter"
	KindEnvgen     Kind = "envgen"
	KindGaincomp   Kind = "gaincomp"
	KindBitcrusher Kind = "bitcrusher"
	KindDelay      Kind = "delay"
	KindChorus     Kind = "chorus"
	KindFreeverb   Kind = "freeverb"
	KindLooper     Kind = "looper"
	KindPhaser     Kind = "phaser"
	KindPanning    Kind = "panning"
	KindVolume     Kind = "volume"
	KindForce      Kind = "force"
	KindPitch      Kind = "pitch"
	KindStream     Kind = "stream"
	KindOutput     Kind = "output" // internal sentinel: an Audio Unit's in/out bus passthrough
)

// OutPort/InPort numbering used consistently across kernels: stereo
// processors use 0=left, 1=right; control-only processors use port 0
// for their scalar control-rate signal.
const (
	PortLeft  = devstate.Port(0)
	PortRight = devstate.Port(1)
	PortCtrl  = devstate.Port(0)
)

// VoiceState is the fixed-size per-voice state a voice kernel reads
// and writes. All kernel-specific fields live in one struct (a
// "fixed-size variant") instead of a per-kind allocation.
type VoiceState struct {
	Kind Kind

	// Oscillator
	Phase float64

	// Sample player
	SamplePos float64
	SampleDir int

	// Envelope-driven (envgen, force, pitch, filter-env)
	EnvPos          float64
	ReleaseStarted  bool
	ReleaseStartPos float64

	// Filter
	Biquad        [2]biquadState // two states, crossfaded on coefficient jumps
	ActiveBiquad  int
	XfadeRemain   int
	LastCutoff    float64
	LastResonance float64

	// Bitcrusher
	HoldCounter int
	HoldL       float32
	HoldR       float32

	// Single-pulse test tone (debug kernel)
	PulseFired bool

	// Per-voice RNG, derived by the voice pool at allocation time.
	RNG *krand.Stream

	// KeepAliveStop lets a voice claim buffer residency past the
	// current trigger event (set_keep_alive_stop).
	KeepAliveStop int
}

type biquadState struct {
	x1, x2, y1, y2 float64
}

// Control is the bundle of per-frame control-rate signals a voice
// kernel reads: pitch in Hz, force as a linear gain, and pan in
// [-1, 1]. These are produced upstream (by Force/Pitch/Envgen
// processors or directly by the channel) and passed in via wbuf.
type Control struct {
	WBS   *wbuf.Buffers
	Rate  float64
	Tempo float64
}

func (c *Control) pitchAt(i int) float64 {
	return float64(c.WBS.Get(wbuf.KindPitch)[i])
}

func (c *Control) forceAt(i int) float64 {
	return float64(c.WBS.Get(wbuf.KindForce)[i])
}

func (c *Control) panAt(i int) float64 {
	return float64(c.WBS.Get(wbuf.KindPan)[i])
}

// VoiceKernel is a processor whose render_voice function synthesizes
// or shapes one active note's signal.
type VoiceKernel interface {
	Kind() Kind
	NewVoiceState(rng *krand.Stream) *VoiceState
	// RenderVoice writes into out's [start:stop) range and returns
	// new_stop, the position rendering actually reached.
	RenderVoice(vs *VoiceState, ctl *Control, start, stop int, out map[devstate.Port]*devstate.PortBuffer) int
}

// MixedKernel is a processor whose render_mixed function processes a
// block-wide signal with no per-note state.
type MixedKernel interface {
	Kind() Kind
	RenderMixed(base *devstate.Base, wbs *wbuf.Buffers, start, stop int)
}

// applyBiquad runs one cascaded biquad with direct-form-II-transposed
// state, returning the filtered sample.
func applyBiquad(st *biquadState, x float64, b0, b1, b2, a1, a2 float64) float64 {
	y := b0*x + st.x1
	st.x1 = b1*x - a1*y + st.x2
	st.x2 = b2*x - a2*y
	return y
}
