// Package voice implements the per-note voice state machine and the
// voice pool's priority-based allocation and stealing.
package voice

import (
	"github.com/kunquat/kunquat-go/internal/krand"
	"github.com/kunquat/kunquat-go/internal/proc"
)

// Priority is a voice's standing in the pool's stealing order.
// Inactive voices are stolen first, then Bg, then Fg; New voices are
// never stolen in the same allocation pass that created them.
type Priority int

const (
	PriorityInactive Priority = iota
	PriorityBg
	PriorityFg
	PriorityNew
)

// Handle is an external reference to a pool slot: (slot index,
// generation id). External holders validate against the pool before
// using it, replacing pointer comparison with a value type
// that cannot be dereferenced after reuse.
type Handle struct {
	Slot int
	ID   uint64
}

// Voice is a running instance of one processor, triggered by one
// note-on. All processor voices sharing one note-on carry the same
// GroupID.
type Voice struct {
	id       uint64
	priority Priority

	GroupID   uint64
	ChannelID int
	AUIndex   int // index of the owning Audio Unit, disambiguating ProcID across Audio Units
	ProcID    int // index into the owning Audio Unit's Proc_table

	Kernel proc.VoiceKernel
	State  *proc.VoiceState

	updated       bool
	keepAliveStop int
}

// ID returns the voice's current allocation id (0 if unallocated).
func (v *Voice) ID() uint64 { return v.id }

// Priority returns the voice's current priority.
func (v *Voice) Priority() Priority { return v.priority }

// SetPriority transitions the voice's state-machine priority
// among Inactive/New/Fg/Bg.
func (v *Voice) SetPriority(p Priority) { v.priority = p }

// SetKeepAliveStop lets a voice claim buffer residency past the
// current trigger event, e.g. for a single-pulse test
// tone that must still render once after the note-on event itself.
func (v *Voice) SetKeepAliveStop(stop int) { v.keepAliveStop = stop }

// KeepAliveStop returns the currently claimed keep-alive stop index.
func (v *Voice) KeepAliveStop() int { return v.keepAliveStop }

// newVoiceRNG derives this voice's own random stream so retriggers on the
// same channel do not repeat the sibling voice's sequence.
func newVoiceRNG(parent *krand.Stream, subIndex int64) *krand.Stream {
	if parent == nil {
		return krand.NewStream(1)
	}
	return parent.Sub(subIndex)
}
