package voice

import (
	"testing"

	"github.com/kunquat/kunquat-go/internal/proc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allocNote(t *testing.T, p *Pool, channel int, group uint64) Handle {
	t.Helper()
	_, h := p.Allocate(Handle{Slot: -1}, channel, group, 0, &proc.Debug{}, int64(group))
	v, _ := p.Validate(h)
	require.NotNil(t, v)
	v.SetPriority(PriorityFg)
	return h
}

// A pool of size 4 given five note-ons in sequence must steal the
// oldest voice for the fifth.
func TestVoiceStealingOldestFirst(t *testing.T) {
	p := New(4, 1)

	var handles []Handle
	for ch := 0; ch < 4; ch++ {
		handles = append(handles, allocNote(t, p, ch, uint64(ch+1)))
	}
	require.Equal(t, 4, p.GetActiveCount())

	fifth := allocNote(t, p, 4, 5)
	assert.NotEqual(t, handles[0].Slot == fifth.Slot && handles[0].ID == fifth.ID, true)

	// the oldest voice's original handle must no longer resolve
	_, ok := p.Validate(handles[0])
	assert.False(t, ok, "stolen voice's original handle should be invalid")
}

func TestGetVoiceHonoursLiveReservation(t *testing.T) {
	p := New(2, 1)
	_, h := p.Allocate(Handle{Slot: -1}, 0, 1, 0, &proc.Debug{}, 1)
	v, _ := p.Validate(h)
	v.SetPriority(PriorityFg)

	v2, h2 := p.GetVoice(h)
	assert.Equal(t, h, h2)
	assert.Same(t, v, v2)
}

func TestNoteOffTransitionsFgToBg(t *testing.T) {
	p := New(2, 1)
	_, h := p.Allocate(Handle{Slot: -1}, 0, 1, 0, &proc.Debug{}, 1)
	v, _ := p.Validate(h)
	v.SetPriority(PriorityFg)

	p.NoteOffGroup(1)
	assert.Equal(t, PriorityBg, v.Priority())
}

func TestResetClearsAllSlots(t *testing.T) {
	p := New(3, 1)
	allocNote(t, p, 0, 1)
	allocNote(t, p, 1, 2)
	p.Reset()
	assert.Equal(t, 0, p.GetActiveCount())
}
