package proc

import (
	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/krand"
)

// Force is a voice kernel that smooths the channel's raw force target
// into a de-zippered control-rate signal on its output port, for
// processors downstream that read force as an audio-rate control.
type Force struct {
	SlewPerSecond float64 // max change in linear gain per second, 0 disables smoothing
}

func (f *Force) Kind() Kind { return KindForce }

func (f *Force) NewVoiceState(rng *krand.Stream) *VoiceState {
	return &VoiceState{Kind: KindForce, RNG: rng}
}

func (f *Force) RenderVoice(vs *VoiceState, ctl *Control, start, stop int, out map[devstate.Port]*devstate.PortBuffer) int {
	current := vs.EnvPos // reuses EnvPos as the smoothed value; force has no other use for it
	maxStep := f.SlewPerSecond / ctl.Rate

	for i := start; i < stop; i++ {
		target := ctl.forceAt(i)
		if f.SlewPerSecond <= 0 {
			current = target
		} else {
			diff := target - current
			if diff > maxStep {
				diff = maxStep
			} else if diff < -maxStep {
				diff = -maxStep
			}
			current += diff
		}
		v := float32(current)
		if p := out[PortCtrl]; p != nil && i < len(p.Data) {
			p.Data[i] = v
		}
	}
	vs.EnvPos = current
	return stop
}

// Pitch is a voice kernel implementing portamento: it glides the
// channel's raw pitch target (Hz) towards the note's destination over
// GlideSeconds, writing the glided pitch to its control output port.
type Pitch struct {
	GlideSeconds float64
}

func (p *Pitch) Kind() Kind { return KindPitch }

func (p *Pitch) NewVoiceState(rng *krand.Stream) *VoiceState {
	return &VoiceState{Kind: KindPitch, RNG: rng}
}

func (p *Pitch) RenderVoice(vs *VoiceState, ctl *Control, start, stop int, out map[devstate.Port]*devstate.PortBuffer) int {
	current := vs.LastCutoff // reuses LastCutoff field as the glide state; pitch has no filter of its own
	if current == 0 {
		if start < stop {
			current = ctl.pitchAt(start)
		}
	}

	for i := start; i < stop; i++ {
		target := ctl.pitchAt(i)
		if p.GlideSeconds <= 0 {
			current = target
		} else {
			rate := 1.0 / (p.GlideSeconds * ctl.Rate)
			current += (target - current) * rate
		}
		v := float32(current)
		if outp := out[PortCtrl]; outp != nil && i < len(outp.Data) {
			outp.Data[i] = v
		}
	}
	vs.LastCutoff = current
	return stop
}
