package proc

import (
	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/envelope"
	"github.com/kunquat/kunquat-go/internal/krand"
)

// EnvgenTarget records which control signal an Envgen processor was
// configured for: force, force-release, filter, or pitch-pan. All
// targets share this one envelope-playback mechanism; RenderVoice does
// not read Target and writes the envelope to both output ports.
type EnvgenTarget int

const (
	EnvgenForce EnvgenTarget = iota
	EnvgenForceRelease
	EnvgenFilter
	EnvgenPitchPan
)

// Envgen plays an envelope over a voice's lifetime, advancing at a
// rate that may itself depend on pitch (PitchScale != 0 lets higher
// notes play their envelope faster), and switches to a release
// envelope once the voice's note-off has been signalled.
type Envgen struct {
	Target     EnvgenTarget
	Env        *envelope.Envelope
	ReleaseEnv *envelope.Envelope
	PitchScale float64 // scales (pitchHz-CenterHz)/CenterHz into a speed change; 0 disables
	CenterHz   float64
}

func (e *Envgen) Kind() Kind { return KindEnvgen }

func (e *Envgen) NewVoiceState(rng *krand.Stream) *VoiceState {
	return &VoiceState{Kind: KindEnvgen, RNG: rng}
}

func (e *Envgen) RenderVoice(vs *VoiceState, ctl *Control, start, stop int, out map[devstate.Port]*devstate.PortBuffer) int {
	env := e.Env
	for i := start; i < stop; i++ {
		active := env
		if vs.ReleaseStarted && e.ReleaseEnv != nil {
			active = e.ReleaseEnv
		}
		if active == nil {
			writeStereo(out, i, 0, 0)
			continue
		}

		speed := 1.0
		if e.PitchScale != 0 && e.CenterHz > 0 {
			pitchHz := ctl.pitchAt(i)
			if pitchHz > 0 {
				speed = 1 + e.PitchScale*(pitchHz-e.CenterHz)/e.CenterHz
				if speed < 0.01 {
					speed = 0.01
				}
			}
		}

		v := float32(active.At(vs.EnvPos))
		writeStereo(out, i, v, v)

		vs.EnvPos += speed / ctl.Rate
	}
	return stop
}

// NoteOff switches the envelope generator to its release envelope and
// resets the release-local time origin.
func (e *Envgen) NoteOff(vs *VoiceState) {
	if !vs.ReleaseStarted {
		vs.ReleaseStarted = true
		vs.ReleaseStartPos = vs.EnvPos
		vs.EnvPos = 0
	}
}

// Finished reports whether the active envelope (release envelope if a
// note-off has fired, otherwise the main envelope) has reached its
// last node and is not looping. The player retires voices by the stop
// index RenderVoice returns and does not call Finished.
func (e *Envgen) Finished(vs *VoiceState) bool {
	active := e.Env
	if vs.ReleaseStarted && e.ReleaseEnv != nil {
		active = e.ReleaseEnv
	}
	if active == nil || len(active.Nodes) == 0 {
		return true
	}
	if active.IsLooping {
		return false
	}
	return vs.EnvPos >= active.Nodes[len(active.Nodes)-1].X
}
