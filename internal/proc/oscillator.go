package proc

import (
	"math"

	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/krand"
)

// Waveform is the shape function for one cycle, phi in [0, 1).
type Waveform func(phi float64) float64

func sineWave(phi float64) float64 {
	return math.Sin(2 * math.Pi * phi)
}

func triangleWave(phi float64) float64 {
	// starts at -1, rises to 1 at phi=0.5, falls back to -1 at phi=1
	return 2*(2*math.Abs(phi-math.Floor(phi+0.5))) - 1
}

func squareWave(phi float64) float64 {
	if phi < 0.5 {
		return 1
	}
	return -1
}

func sawtoothWave(phi float64) float64 {
	return 2*phi - 1
}

// Oscillator is the shared implementation behind sine/triangle/square/
// sawtooth, which differ only in their Waveform function.
type Oscillator struct {
	kind    Kind
	wave    Waveform
	MidFreq float64 // Hz used wherever the pitch control holds no positive value
}

func NewSine() *Oscillator     { return &Oscillator{kind: KindSine, wave: sineWave, MidFreq: 220} }
func NewTriangle() *Oscillator { return &Oscillator{kind: KindTriangle, wave: triangleWave, MidFreq: 220} }
func NewSquare() *Oscillator   { return &Oscillator{kind: KindSquare, wave: squareWave, MidFreq: 220} }
func NewSawtooth() *Oscillator { return &Oscillator{kind: KindSawtooth, wave: sawtoothWave, MidFreq: 220} }

func (o *Oscillator) Kind() Kind { return o.kind }

func (o *Oscillator) NewVoiceState(rng *krand.Stream) *VoiceState {
	return &VoiceState{Kind: o.kind, RNG: rng}
}

func (o *Oscillator) RenderVoice(vs *VoiceState, ctl *Control, start, stop int, out map[devstate.Port]*devstate.PortBuffer) int {
	for i := start; i < stop; i++ {
		freqHz := ctl.pitchAt(i)
		if freqHz <= 0 {
			freqHz = o.MidFreq
		}
		force := ctl.forceAt(i)
		sample := float32(o.wave(vs.Phase) * force)
		writeStereo(out, i, sample, sample)

		vs.Phase += freqHz / ctl.Rate
		vs.Phase -= math.Floor(vs.Phase)
	}
	return stop
}

// Noise is a per-voice white-noise generator driven by the voice's
// own random stream, so retriggers of the same note do not repeat
// identical noise.
type Noise struct{}

func (n *Noise) Kind() Kind { return KindNoise }

func (n *Noise) NewVoiceState(rng *krand.Stream) *VoiceState {
	return &VoiceState{Kind: KindNoise, RNG: rng}
}

func (n *Noise) RenderVoice(vs *VoiceState, ctl *Control, start, stop int, out map[devstate.Port]*devstate.PortBuffer) int {
	for i := start; i < stop; i++ {
		force := ctl.forceAt(i)
		var v float32
		if vs.RNG != nil {
			v = float32(vs.RNG.Float64()*2-1) * float32(force)
		}
		writeStereo(out, i, v, v)
	}
	return stop
}
