package proc

import (
	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/krand"
)

// Debug is the "debug" processor kernel: in single-pulse mode it
// emits exactly one sample of amplitude 1.0 then goes silent.
type Debug struct {
	SinglePulse bool
}

func (d *Debug) Kind() Kind { return KindDebug }

func (d *Debug) NewVoiceState(rng *krand.Stream) *VoiceState {
	return &VoiceState{Kind: KindDebug, RNG: rng}
}

func (d *Debug) RenderVoice(vs *VoiceState, ctl *Control, start, stop int, out map[devstate.Port]*devstate.PortBuffer) int {
	if !d.SinglePulse {
		for i := start; i < stop; i++ {
			writeStereo(out, i, 1.0, 1.0)
		}
		return stop
	}

	if vs.PulseFired {
		return start
	}
	if start >= stop {
		return start
	}
	writeStereo(out, start, 1.0, 1.0)
	vs.PulseFired = true
	return start + 1
}

func writeStereo(out map[devstate.Port]*devstate.PortBuffer, i int, l, r float32) {
	if p := out[PortLeft]; p != nil && i < len(p.Data) {
		p.Data[i] = l
	}
	if p := out[PortRight]; p != nil && i < len(p.Data) {
		p.Data[i] = r
	}
}
