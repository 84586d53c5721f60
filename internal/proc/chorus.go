package proc

import (
	"math"

	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/wbuf"
)

// Chorus is a modulated short-delay-line mixed kernel: a sinusoidal
// LFO sweeps the tap position of a small circular buffer, producing
// the comb-filtered thickening effect.
type Chorus struct {
	RateHz  float64
	DepthMs float64
	MixWet  float64

	buf   []float32
	pos   int
	phase float64
}

func (c *Chorus) Kind() Kind { return KindChorus }

func (c *Chorus) ensureBuf(rate int) {
	need := int(0.05*float64(rate)) + 1 // 50ms max sweep window
	if len(c.buf) != need {
		c.buf = make([]float32, need)
		c.pos = 0
	}
}

func (c *Chorus) RenderMixed(base *devstate.Base, wbs *wbuf.Buffers, start, stop int) {
	c.ensureBuf(base.Rate)
	in := base.InPorts[PortLeft]
	out := base.OutPorts[PortLeft]
	inR := base.InPorts[PortRight]
	outR := base.OutPorts[PortRight]
	if in == nil || out == nil || len(c.buf) == 0 {
		return
	}

	rate := base.Rate
	n := len(c.buf)
	baseDelay := c.DepthMs / 1000.0 * float64(rate)

	for i := start; i < stop && i < len(in.Data); i++ {
		c.buf[c.pos] = in.Data[i]

		sweep := (math.Sin(2*math.Pi*c.phase) + 1) / 2 * baseDelay
		tapPos := float64(c.pos) - sweep
		for tapPos < 0 {
			tapPos += float64(n)
		}
		i0 := int(tapPos) % n
		i1 := (i0 + 1) % n
		frac := tapPos - math.Floor(tapPos)
		wet := c.buf[i0] + float32(frac)*(c.buf[i1]-c.buf[i0])

		dry := in.Data[i]
		out.Data[i] = dry + float32(c.MixWet)*(wet-dry)
		if outR != nil {
			dryR := dry
			if inR != nil && i < len(inR.Data) {
				dryR = inR.Data[i]
			}
			outR.Data[i] = dryR + float32(c.MixWet)*(wet-dryR)
		}

		c.phase += c.RateHz / float64(rate)
		c.phase -= math.Floor(c.phase)
		c.pos = (c.pos + 1) % n
	}
}
