package proc

import (
	"math"

	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/wbuf"
)

// Phaser is a classic LFO-swept cascade of one-pole all-pass stages.
type Phaser struct {
	RateHz   float64
	Depth    float64 // 0..1
	Stages   int
	Feedback float64
	Mix      float64

	phase   float64
	stateL  []float64
	lastFbL float64
	stateR  []float64
	lastFbR float64
}

func (p *Phaser) Kind() Kind { return KindPhaser }

func (p *Phaser) ensure() {
	n := p.Stages
	if n <= 0 {
		n = 4
	}
	if len(p.stateL) != n {
		p.stateL = make([]float64, n)
		p.stateR = make([]float64, n)
	}
}

func (p *Phaser) allpassChain(x float64, state []float64, coeff float64) float64 {
	for i := range state {
		y := -coeff*x + state[i]
		state[i] = x + coeff*y
		x = y
	}
	return x
}

func (p *Phaser) RenderMixed(base *devstate.Base, wbs *wbuf.Buffers, start, stop int) {
	p.ensure()
	inL := base.InPorts[PortLeft]
	inR := base.InPorts[PortRight]
	outL := base.OutPorts[PortLeft]
	outR := base.OutPorts[PortRight]
	if inL == nil || outL == nil {
		return
	}

	for i := start; i < stop && i < len(inL.Data); i++ {
		lfo := (math.Sin(2*math.Pi*p.phase) + 1) / 2
		coeff := (1 - p.Depth) + p.Depth*lfo*0.9

		dryL := float64(inL.Data[i])
		dryR := dryL
		if inR != nil && i < len(inR.Data) {
			dryR = float64(inR.Data[i])
		}

		wetL := p.allpassChain(dryL+p.lastFbL*p.Feedback, p.stateL, coeff)
		wetR := p.allpassChain(dryR+p.lastFbR*p.Feedback, p.stateR, coeff)
		p.lastFbL = wetL
		p.lastFbR = wetR

		outL.Data[i] = float32(dryL + p.Mix*(wetL-dryL))
		if outR != nil {
			outR.Data[i] = float32(dryR + p.Mix*(wetR-dryR))
		}

		p.phase += p.RateHz / float64(base.Rate)
		p.phase -= math.Floor(p.phase)
	}
}
