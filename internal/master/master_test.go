package master

import (
	"testing"

	"github.com/kunquat/kunquat-go/internal/tstamp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempoSlideReachesMidpointAfterHalfLength(t *testing.T) {
	p := New(60)
	p.SlideTempoTo(120)
	p.SetTempoSlideLength(tstamp.New(4, 0))
	require.True(t, p.TempoSlider.Active())

	for i := 0; i < 24*2; i++ {
		p.ApplySlideSlice()
	}
	assert.InDelta(t, 90.0, p.Tempo, 0.01)

	for i := 0; i < 24*2; i++ {
		p.ApplySlideSlice()
	}
	assert.InDelta(t, 120.0, p.Tempo, 0.01)
	assert.False(t, p.TempoSlider.Active())
}

func TestJumpCounterDecrementsAndExpires(t *testing.T) {
	p := New(120)
	p.CurPatternID, p.CurPos, p.CurChannel, p.CurTrigger = 0, tstamp.New(4, 0), 0, 0

	p.Jump(2, tstamp.New(0, 0))
	row, ok := p.ConsumeJump()
	require.True(t, ok)
	assert.Equal(t, tstamp.Zero, row)
	assert.Len(t, p.ActiveJumps, 1)

	// second evaluation of the same occurrence: counter 1 -> 0.
	p.Jump(2, tstamp.New(0, 0))
	_, ok = p.ConsumeJump()
	require.True(t, ok)

	// third evaluation: the context is exhausted and stays pinned at
	// zero, so the trigger's own counter argument cannot reseed it.
	p.Jump(2, tstamp.New(0, 0))
	_, ok = p.ConsumeJump()
	assert.False(t, ok)
	require.Len(t, p.ActiveJumps, 1)
	for _, ctx := range p.ActiveJumps {
		assert.Equal(t, 0, ctx.Counter)
	}
}

func TestNoteAdvanceTripsSafetyLimitOnStall(t *testing.T) {
	p := New(120)
	var err error
	for i := 0; i < GotoSafetyLimit; i++ {
		err = p.NoteAdvance(false)
		require.NoError(t, err)
	}
	err = p.NoteAdvance(false)
	assert.Error(t, err)

	require.NoError(t, p.NoteAdvance(true))
}

func TestTuningRetuneKeepsReferenceDegreeFixed(t *testing.T) {
	table := &TuningTable{
		OctaveWidthCents: 1200,
		NoteOffsetsCents: []float64{0, 100, 200, 300, 400, 500, 600, 700, 800, 900, 1000, 1100},
	}
	st := NewTuningState(table)
	before := st.GetRetunedPitch(0)
	st.Retune(50)
	after := st.GetRetunedPitch(0)
	assert.NotEqual(t, before, after)
	assert.InDelta(t, 50.0, after, 1e-9)
}
