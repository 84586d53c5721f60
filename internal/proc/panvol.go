package proc

import (
	"math"

	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/wbuf"
)

// Panning applies an equal-power stereo pan, read per-frame from the
// shared pan control buffer.
type Panning struct{}

func (p *Panning) Kind() Kind { return KindPanning }

func (p *Panning) RenderMixed(base *devstate.Base, wbs *wbuf.Buffers, start, stop int) {
	inL := base.InPorts[PortLeft]
	inR := base.InPorts[PortRight]
	outL := base.OutPorts[PortLeft]
	outR := base.OutPorts[PortRight]
	if inL == nil || outL == nil {
		return
	}

	panBuf := wbs.Get(wbuf.KindPan)

	for i := start; i < stop && i < len(inL.Data); i++ {
		pan := float64(panBuf[i]) // -1..1
		angle := (pan + 1) * math.Pi / 4
		gl := math.Cos(angle)
		gr := math.Sin(angle)

		l := inL.Data[i]
		r := l
		if inR != nil && i < len(inR.Data) {
			r = inR.Data[i]
		}
		mono := (l + r) / 2

		outL.Data[i] = mono * float32(gl)
		if outR != nil {
			outR.Data[i] = mono * float32(gr)
		}
	}
}

// Volume applies a static linear gain, the simplest mixed kernel.
type Volume struct {
	GainDB float64
}

func (v *Volume) Kind() Kind { return KindVolume }

func (v *Volume) RenderMixed(base *devstate.Base, wbs *wbuf.Buffers, start, stop int) {
	gain := float32(dbToLinear(v.GainDB))
	for _, port := range []devstate.Port{PortLeft, PortRight} {
		in := base.InPorts[port]
		out := base.OutPorts[port]
		if in == nil || out == nil {
			continue
		}
		for i := start; i < stop && i < len(in.Data); i++ {
			out.Data[i] = in.Data[i] * gain
		}
	}
}
