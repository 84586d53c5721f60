package proc

import (
	"math"

	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/wbuf"
)

// Gaincomp applies a static gain curve: a dB offset plus a simple
// knee-free compressor ratio above a threshold.
type Gaincomp struct {
	GainDB   float64
	ThreshDB float64
	Ratio    float64 // 1.0 = no compression
}

func (g *Gaincomp) Kind() Kind { return KindGaincomp }

func (g *Gaincomp) RenderMixed(base *devstate.Base, wbs *wbuf.Buffers, start, stop int) {
	gain := dbToLinear(g.GainDB)
	thresh := dbToLinear(g.ThreshDB)
	ratio := g.Ratio
	if ratio <= 0 {
		ratio = 1
	}

	for _, port := range []devstate.Port{PortLeft, PortRight} {
		in := base.InPorts[port]
		out := base.OutPorts[port]
		if in == nil || out == nil {
			continue
		}
		for i := start; i < stop && i < len(in.Data); i++ {
			x := float64(in.Data[i]) * gain
			mag := math.Abs(x)
			if mag > thresh && thresh > 0 {
				over := mag / thresh
				compressed := thresh * math.Pow(over, 1.0/ratio)
				if x < 0 {
					compressed = -compressed
				}
				x = compressed
			}
			out.Data[i] = float32(x)
		}
	}
}

func dbToLinear(db float64) float64 { return math.Pow(10, db/20) }
