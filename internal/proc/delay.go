package proc

import (
	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/tstamp"
	"github.com/kunquat/kunquat-go/internal/wbuf"
)

// Delay is a circular-buffer delay line per channel, tapping at
// DelayTime (converted from a Tstamp to samples at the current tempo
// each block, since tempo may slide mid-playback), with feedback and
// wet/dry mix read from control signals.
type Delay struct {
	DelayTime   tstamp.Tstamp
	MaxDelaySec float64

	bufL, bufR []float32
	pos        int
}

func (d *Delay) Kind() Kind { return KindDelay }

func (d *Delay) ensureBuf(rate int) {
	maxSec := d.MaxDelaySec
	if maxSec <= 0 {
		maxSec = 5
	}
	need := int(maxSec * float64(rate))
	if len(d.bufL) != need {
		d.bufL = make([]float32, need)
		d.bufR = make([]float32, need)
		d.pos = 0
	}
}

func (d *Delay) RenderMixed(base *devstate.Base, wbs *wbuf.Buffers, start, stop int) {
	d.ensureBuf(base.Rate)
	if len(d.bufL) == 0 {
		return
	}

	inL := base.InPorts[PortLeft]
	inR := base.InPorts[PortRight]
	outL := base.OutPorts[PortLeft]
	outR := base.OutPorts[PortRight]
	if inL == nil || outL == nil {
		return
	}

	feedbackBuf := wbs.Get(wbuf.KindScratch1)
	mixBuf := wbs.Get(wbuf.KindScratch2)

	delayFrames := int(tstamp.ToFrames(d.DelayTime, base.Tempo, float64(base.Rate)))
	if delayFrames <= 0 {
		delayFrames = 1
	}
	if delayFrames >= len(d.bufL) {
		delayFrames = len(d.bufL) - 1
	}

	n := len(d.bufL)
	for i := start; i < stop && i < len(inL.Data); i++ {
		feedback := float64(feedbackBuf[i])
		mix := float64(mixBuf[i])

		tapIdx := (d.pos - delayFrames + n) % n
		tapL := d.bufL[tapIdx]
		tapR := d.bufR[tapIdx]

		dryL := inL.Data[i]
		dryR := dryL
		if inR != nil && i < len(inR.Data) {
			dryR = inR.Data[i]
		}

		d.bufL[d.pos] = dryL + tapL*float32(feedback)
		d.bufR[d.pos] = dryR + tapR*float32(feedback)

		outL.Data[i] = dryL + float32(mix)*(tapL-dryL)
		if outR != nil {
			outR.Data[i] = dryR + float32(mix)*(tapR-dryR)
		}

		d.pos = (d.pos + 1) % n
	}
}
