package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearInterpolation(t *testing.T) {
	e := New([]Node{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}})
	require.NotNil(t, e)

	assert.InDelta(t, 0.0, e.At(0), 1e-9)
	assert.InDelta(t, 0.5, e.At(0.5), 1e-9)
	assert.InDelta(t, 1.0, e.At(1.0), 1e-9)
	assert.InDelta(t, 0.5, e.At(1.5), 1e-9)
}

func TestClampsOutsideRange(t *testing.T) {
	e := New([]Node{{X: 0, Y: 0.2}, {X: 1, Y: 0.8}})
	assert.InDelta(t, 0.2, e.At(-5), 1e-9)
	assert.InDelta(t, 0.8, e.At(5), 1e-9)
}

func TestLoopingEnvelope(t *testing.T) {
	e := New([]Node{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}})
	e.IsLooping = true
	e.LoopStart = 0
	e.LoopEnd = 2

	v1 := e.At(0.5)
	v2 := e.At(2.5) // one loop period (2.0) later
	assert.InDelta(t, v1, v2, 1e-9)
}

func TestForceADSRShape(t *testing.T) {
	e := Force(0.1, 0.2, 0.6, 0.3)
	assert.InDelta(t, 0.0, e.At(0), 1e-9)
	assert.InDelta(t, 1.0, e.At(0.1), 1e-9)
	assert.InDelta(t, 0.6, e.At(0.3), 1e-9)
	assert.InDelta(t, 0.0, e.At(0.6), 1e-9)
}
