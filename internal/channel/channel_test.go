package channel

import (
	"testing"

	"github.com/kunquat/kunquat-go/internal/krand"
	"github.com/stretchr/testify/assert"
)

func TestCarryOnStreamScenario(t *testing.T) {
	// ".sn" sets the target name; ".s"/"->s+" style events are
	// handled by the event package, but the channel must retain the
	// target name across them.
	st := New(0, krand.NewStream(1))
	st.SetActiveName(CategoryStream, "cutoff")
	assert.Equal(t, "cutoff", st.LastActiveName(CategoryStream))
}

func TestNoteOnGroupIDsIncrease(t *testing.T) {
	st := New(0, krand.NewStream(1))
	a := st.NewNoteOnGroup()
	b := st.NewNoteOnGroup()
	assert.Less(t, a, b)
}

func TestLFOSingleShotFreezes(t *testing.T) {
	l := &LFO{On: true, Single: true, SpeedHz: 1, Depth: 1}
	var last float64
	for i := 0; i < 200; i++ {
		last = l.Advance(1000, 44100) // large steps to force wraparound quickly
	}
	assert.Equal(t, 0.0, last)
}
