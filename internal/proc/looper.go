package proc

import (
	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/wbuf"
)

// LooperState is the state machine driving Looper's record/play
// transitions.
type LooperState int

const (
	LooperIdle LooperState = iota
	LooperRecording
	LooperPlaying
)

// Looper records up to MaxRecTime seconds of input on a record device
// event and loops the recorded buffer on play, crossfading at both
// state transitions (StateXfadeTime) and at the loop boundary
// (PlayXfadeTime) to avoid clicks.
type Looper struct {
	MaxRecTime    float64
	StateXfadeSec float64
	PlayXfadeSec  float64

	state      LooperState
	bufL, bufR []float32
	recLen     int
	playPos    int
	xfadeLeft  int
	xfadeTotal int
	prevOutL   float32
	prevOutR   float32
}

func (l *Looper) Kind() Kind { return KindLooper }

func (l *Looper) ensureBuf(rate int) {
	maxSec := l.MaxRecTime
	if maxSec <= 0 {
		maxSec = 10
	}
	need := int(maxSec * float64(rate))
	if len(l.bufL) != need {
		l.bufL = make([]float32, need)
		l.bufR = make([]float32, need)
	}
}

// Record begins recording input into the loop buffer, starting a
// state-transition crossfade from whatever was last playing.
func (l *Looper) Record() {
	l.state = LooperRecording
	l.recLen = 0
	l.startXfade()
}

// Play stops recording and begins looping the recorded buffer.
func (l *Looper) Play() {
	l.state = LooperPlaying
	l.playPos = 0
	l.startXfade()
}

// Stop returns the looper to idle passthrough, crossfading out of
// whatever the loop was playing.
func (l *Looper) Stop() {
	l.state = LooperIdle
	l.startXfade()
}

func (l *Looper) startXfade() {
	l.xfadeTotal = 1
	l.xfadeLeft = 1
}

func (l *Looper) RenderMixed(base *devstate.Base, wbs *wbuf.Buffers, start, stop int) {
	l.ensureBuf(base.Rate)
	if l.xfadeTotal == 1 {
		l.xfadeTotal = maxInt(1, int(l.StateXfadeSec*float64(base.Rate)))
		l.xfadeLeft = l.xfadeTotal
	}

	inL := base.InPorts[PortLeft]
	inR := base.InPorts[PortRight]
	outL := base.OutPorts[PortLeft]
	outR := base.OutPorts[PortRight]
	if outL == nil {
		return
	}

	playXfade := maxInt(1, int(l.PlayXfadeSec*float64(base.Rate)))

	for i := start; i < stop; i++ {
		var rawL, rawR float32

		switch l.state {
		case LooperIdle, LooperRecording:
			// both monitor the input; recording also captures it.
			if inL != nil && i < len(inL.Data) {
				rawL = inL.Data[i]
			}
			rawR = rawL
			if inR != nil && i < len(inR.Data) {
				rawR = inR.Data[i]
			}
			if l.state == LooperRecording && l.recLen < len(l.bufL) {
				l.bufL[l.recLen] = rawL
				l.bufR[l.recLen] = rawR
				l.recLen++
			}
		case LooperPlaying:
			if l.recLen > 0 {
				rawL = l.bufL[l.playPos]
				rawR = l.bufR[l.playPos]

				distToEnd := l.recLen - l.playPos
				if distToEnd < playXfade {
					t := float32(distToEnd) / float32(playXfade)
					startL := l.bufL[0]
					startR := l.bufR[0]
					rawL = rawL*t + startL*(1-t)
					rawR = rawR*t + startR*(1-t)
				}

				l.playPos++
				if l.playPos >= l.recLen {
					l.playPos = 0
				}
			}
		}

		outVal := rawL
		outValR := rawR
		if l.xfadeLeft > 0 {
			t := 1 - float32(l.xfadeLeft)/float32(l.xfadeTotal)
			outVal = l.prevOutL*(1-t) + rawL*t
			outValR = l.prevOutR*(1-t) + rawR*t
			l.xfadeLeft--
		}

		outL.Data[i] = outVal
		if outR != nil {
			outR.Data[i] = outValR
		}
		l.prevOutL = outVal
		l.prevOutR = outValR
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
