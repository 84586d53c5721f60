package proc

import (
	"math"

	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/wbuf"
)

// FilterType selects the Filter kernel's response shape.
type FilterType int

const (
	FilterLowPass FilterType = iota
	FilterHighPass
)

type coeffs struct {
	b0, b1, b2, a1, a2 float64
}

// Filter is the second-order resonant filter kernel. It
// runs as a mixed processor: cutoff (cents) and resonance are read
// per-frame from control buffers, coefficients are recomputed only
// when cutoff moves by more than a quarter-tone to amortise the
// tan()-equivalent trig work, and a short crossfade between two
// biquad states hides the resulting coefficient jump.
type Filter struct {
	Type FilterType

	left                  [2]biquadState
	right                 [2]biquadState
	coef                  [2]coeffs
	active                int
	xfadeLeft, xfadeTotal int
	lastCutoffHz          float64
}

const quarterToneRatio = 1.0293022366 // 2^(1/24)

func (f *Filter) Kind() Kind { return KindFilter }

func cutoffCentsToHz(cents float64) float64 {
	return 8.1757989156 * math.Pow(2, cents/1200.0)
}

func (f *Filter) coeffsFor(cutoffHz, resonance, rate float64) coeffs {
	if cutoffHz <= 0 {
		cutoffHz = 1
	}
	if cutoffHz > rate/2.01 {
		cutoffHz = rate / 2.01
	}
	if resonance <= 0 {
		resonance = 0.01
	}
	omega := 2 * math.Pi * cutoffHz / rate
	alpha := math.Sin(omega) / (2 * resonance)
	cosw := math.Cos(omega)

	var b0n, b1n, b2n, a0, a1n, a2n float64
	switch f.Type {
	case FilterHighPass:
		b0n = (1 + cosw) / 2
		b1n = -(1 + cosw)
		b2n = (1 + cosw) / 2
	default:
		b0n = (1 - cosw) / 2
		b1n = 1 - cosw
		b2n = (1 - cosw) / 2
	}
	a0 = 1 + alpha
	a1n = -2 * cosw
	a2n = 1 - alpha

	return coeffs{b0n / a0, b1n / a0, b2n / a0, a1n / a0, a2n / a0}
}

// RenderMixed implements the mixed-signal render contract: it pulls
// the summed stereo input (already summed into InPorts by the graph
// executor) and writes the filtered result to OutPorts.
func (f *Filter) RenderMixed(base *devstate.Base, wbs *wbuf.Buffers, start, stop int) {
	in := base.InPorts[PortLeft]
	inR := base.InPorts[PortRight]
	outL := base.OutPorts[PortLeft]
	outR := base.OutPorts[PortRight]
	if in == nil || outL == nil {
		return
	}

	cutoffBuf := wbs.Get(wbuf.KindFilterCutoff)
	resBuf := wbs.Get(wbuf.KindFilterResonance)

	const xfadeMs = 1.0
	xfadeFrames := int(xfadeMs / 1000.0 * float64(base.Rate))
	if xfadeFrames < 1 {
		xfadeFrames = 1
	}

	for i := start; i < stop && i < len(in.Data); i++ {
		// an unwritten cutoff control (0 cents) means "no filtering
		// requested": leave the band wide open instead of collapsing
		// to the 0-cent frequency of ~8 Hz.
		cutoffHz := float64(base.Rate) / 2.01
		if cutoffBuf[i] != 0 {
			cutoffHz = cutoffCentsToHz(float64(cutoffBuf[i]))
		}
		resonance := float64(resBuf[i])
		if resonance <= 0 {
			resonance = 0.707
		}

		if f.lastCutoffHz == 0 || cutoffHz > f.lastCutoffHz*quarterToneRatio || cutoffHz < f.lastCutoffHz/quarterToneRatio {
			next := 1 - f.active
			f.coef[next] = f.coeffsFor(cutoffHz, resonance, float64(base.Rate))
			f.left[next] = biquadState{}
			f.right[next] = biquadState{}
			f.xfadeLeft = xfadeFrames
			f.xfadeTotal = xfadeFrames
			f.lastCutoffHz = cutoffHz
			f.active = next
		}

		l := float64(in.Data[i])
		r := l
		if inR != nil && i < len(inR.Data) {
			r = float64(inR.Data[i])
		}

		cNow := f.coef[f.active]
		yl := applyBiquad(&f.left[f.active], l, cNow.b0, cNow.b1, cNow.b2, cNow.a1, cNow.a2)
		yr := applyBiquad(&f.right[f.active], r, cNow.b0, cNow.b1, cNow.b2, cNow.a1, cNow.a2)

		if f.xfadeLeft > 0 {
			prev := 1 - f.active
			cPrev := f.coef[prev]
			pl := applyBiquad(&f.left[prev], l, cPrev.b0, cPrev.b1, cPrev.b2, cPrev.a1, cPrev.a2)
			pr := applyBiquad(&f.right[prev], r, cPrev.b0, cPrev.b1, cPrev.b2, cPrev.a1, cPrev.a2)
			t := 1 - float64(f.xfadeLeft)/float64(f.xfadeTotal)
			yl = pl + t*(yl-pl)
			yr = pr + t*(yr-pr)
			f.xfadeLeft--
		}

		outL.Data[i] = float32(yl)
		if outR != nil {
			outR.Data[i] = float32(yr)
		}
	}
}
