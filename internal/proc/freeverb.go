package proc

import (
	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/wbuf"
)

// comb is one Schroeder comb filter with damped feedback:
// output = buffer[pos]; buffer[pos] = in + filter_store*feedback
// where filter_store = output*(1-damp) + filter_store*damp.
type comb struct {
	buf          []float32
	pos          int
	filterStore  float32
	feedback     float32
	damp1, damp2 float32
}

func newComb(size int, feedback, damp float32) *comb {
	return &comb{buf: make([]float32, size), feedback: feedback, damp1: damp, damp2: 1 - damp}
}

func (c *comb) process(in float32) float32 {
	out := c.buf[c.pos]
	c.filterStore = out*c.damp2 + c.filterStore*c.damp1
	c.buf[c.pos] = in + c.filterStore*c.feedback
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

// allpass is the standard one-pole all-pass filter used in series
// after the parallel combs.
type allpass struct {
	buf      []float32
	pos      int
	feedback float32
}

func newAllpass(size int, feedback float32) *allpass {
	return &allpass{buf: make([]float32, size), feedback: feedback}
}

func (a *allpass) process(in float32) float32 {
	buffered := a.buf[a.pos]
	out := -in + buffered
	a.buf[a.pos] = in + buffered*a.feedback
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}

// combTuningL are the 8 comb sizes (in samples at 44100Hz) from the
// original Freeverb; combTuningR adds the classic stereo spread so the
// two channels decorrelate.
var combTuningL = [8]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
var allpassTuningL = [4]int{556, 441, 341, 225}

const stereoSpread = 23

// Freeverb is the Schroeder reverb kernel (8 parallel combs + 4 series
// allpasses per channel, stereo-spread on the right channel).
type Freeverb struct {
	RoomSize float32 // 0..1
	Damp     float32 // 0..1
	Wet      float32
	Dry      float32

	combsL, combsR         [8]*comb
	allpassesL, allpassesR [4]*allpass
	initialisedAtRate      int
}

func (f *Freeverb) Kind() Kind { return KindFreeverb }

func (f *Freeverb) ensure(rate int) {
	if f.initialisedAtRate == rate {
		return
	}
	scale := float64(rate) / 44100.0
	feedback := 0.28 + f.RoomSize*0.7
	for i := 0; i < 8; i++ {
		sizeL := int(float64(combTuningL[i]) * scale)
		sizeR := int(float64(combTuningL[i]+stereoSpread) * scale)
		f.combsL[i] = newComb(sizeL, feedback, f.Damp)
		f.combsR[i] = newComb(sizeR, feedback, f.Damp)
	}
	for i := 0; i < 4; i++ {
		sizeL := int(float64(allpassTuningL[i]) * scale)
		sizeR := int(float64(allpassTuningL[i]+stereoSpread) * scale)
		f.allpassesL[i] = newAllpass(sizeL, 0.5)
		f.allpassesR[i] = newAllpass(sizeR, 0.5)
	}
	f.initialisedAtRate = rate
}

func (f *Freeverb) RenderMixed(base *devstate.Base, wbs *wbuf.Buffers, start, stop int) {
	f.ensure(base.Rate)

	inL := base.InPorts[PortLeft]
	inR := base.InPorts[PortRight]
	outL := base.OutPorts[PortLeft]
	outR := base.OutPorts[PortRight]
	if inL == nil || outL == nil {
		return
	}

	for i := start; i < stop && i < len(inL.Data); i++ {
		dryL := inL.Data[i]
		dryR := dryL
		if inR != nil && i < len(inR.Data) {
			dryR = inR.Data[i]
		}
		monoIn := (dryL + dryR) * 0.5

		var wetL, wetR float32
		for c := 0; c < 8; c++ {
			wetL += f.combsL[c].process(monoIn)
			wetR += f.combsR[c].process(monoIn)
		}
		for a := 0; a < 4; a++ {
			wetL = f.allpassesL[a].process(wetL)
			wetR = f.allpassesR[a].process(wetR)
		}

		outL.Data[i] = dryL*f.Dry + wetL*f.Wet
		if outR != nil {
			outR.Data[i] = dryR*f.Dry + wetR*f.Wet
		}
	}
}
