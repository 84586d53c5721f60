package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func synthSample(values []float32) *Sample {
	return &Sample{
		Channels: 1,
		Rate:     44100,
		Frames:   [][]float32{values},
		LoopMode: LoopOff,
	}
}

func TestLinearInterpolationBetweenFrames(t *testing.T) {
	s := synthSample([]float32{0, 1, 0})
	assert.InDelta(t, 0.5, float64(s.At(0, 0.5)), 1e-6)
	assert.InDelta(t, 1.0, float64(s.At(0, 1.0)), 1e-6)
}

func TestClampsAtEdges(t *testing.T) {
	s := synthSample([]float32{0.2, 0.4, 0.6})
	assert.Equal(t, float32(0.2), s.At(0, -10))
	assert.Equal(t, float32(0.6), s.At(0, 100))
}

func TestUniLoopWraps(t *testing.T) {
	s := synthSample([]float32{0, 1, 2, 3})
	s.LoopMode = LoopUni
	s.LoopStart = 1
	s.LoopEnd = 3
	// position 1 + span(2) == wraps back to loop start region
	v1 := s.At(0, 1)
	v2 := s.At(0, 3)
	assert.Equal(t, v1, v2)
}

func TestBiLoopBounces(t *testing.T) {
	s := synthSample([]float32{0, 1, 2, 3})
	s.LoopMode = LoopBi
	s.LoopStart = 0
	s.LoopEnd = 3
	forward := s.At(0, 1)
	// one full bounce period later should mirror
	mirrored := s.At(0, 5) // 2*span(3)=6, offset=5 -> mirrored to 1
	assert.Equal(t, forward, mirrored)
}
