package proc

import (
	"math"

	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/wbuf"
)

// Bitcrusher reduces bit depth (quantisation to 2^bits levels) and
// effective sample rate (holding each output for floor(rate/cutoff)
// frames). ResIgnoreMin specifies the minimum bit
// depth below which quantisation is bypassed.
type Bitcrusher struct {
	Bits         float64
	CutoffHz     float64
	ResIgnoreMin float64

	holdCounter int
	holdL       float32
	holdR       float32
}

func (b *Bitcrusher) Kind() Kind { return KindBitcrusher }

func (b *Bitcrusher) RenderMixed(base *devstate.Base, wbs *wbuf.Buffers, start, stop int) {
	inL := base.InPorts[PortLeft]
	inR := base.InPorts[PortRight]
	outL := base.OutPorts[PortLeft]
	outR := base.OutPorts[PortRight]
	if inL == nil || outL == nil {
		return
	}

	holdFrames := 1
	if b.CutoffHz > 0 && b.CutoffHz < float64(base.Rate) {
		holdFrames = int(math.Floor(float64(base.Rate) / b.CutoffHz))
		if holdFrames < 1 {
			holdFrames = 1
		}
	}

	for i := start; i < stop && i < len(inL.Data); i++ {
		if b.holdCounter <= 0 {
			l := inL.Data[i]
			r := l
			if inR != nil && i < len(inR.Data) {
				r = inR.Data[i]
			}
			b.holdL = quantize(l, b.Bits, b.ResIgnoreMin)
			b.holdR = quantize(r, b.Bits, b.ResIgnoreMin)
			b.holdCounter = holdFrames
		}
		outL.Data[i] = b.holdL
		if outR != nil {
			outR.Data[i] = b.holdR
		}
		b.holdCounter--
	}
}

func quantize(x float32, bits, ignoreMin float64) float32 {
	if bits <= 0 || bits < ignoreMin {
		return x
	}
	levels := math.Pow(2, bits)
	return float32(math.Round(float64(x)*levels) / levels)
}
