package voice

import (
	"github.com/kunquat/kunquat-go/internal/krand"
	"github.com/kunquat/kunquat-go/internal/proc"
)

// Pool is a fixed-size array of Voice slots with priority-based
// stealing. A voice at PriorityFg is stolen only when no Inactive or
// Bg slot remains; the stealing channel is not taken into account.
type Pool struct {
	slots   []Voice
	nextID  uint64
	rootRNG *krand.Stream
}

// New builds a Pool with size fixed voice slots.
func New(size int, seed int64) *Pool {
	p := &Pool{
		slots:   make([]Voice, size),
		nextID:  1,
		rootRNG: krand.NewStream(seed),
	}
	for i := range p.slots {
		p.slots[i].priority = PriorityInactive
	}
	return p
}

// Size returns the number of voice slots in the pool.
func (p *Pool) Size() int { return len(p.slots) }

// GetActiveCount returns the number of non-Inactive voices.
func (p *Pool) GetActiveCount() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].priority != PriorityInactive {
			n++
		}
	}
	return n
}

// GetVoice implements the voice allocator:
//  1. if prev is still the same live voice (matching id), return it;
//  2. otherwise pick the lowest-priority slot (ties -> lower index),
//     claiming it if Inactive or stealing it otherwise;
//  3. assign a fresh monotonically increasing id.
func (p *Pool) GetVoice(prev Handle) (*Voice, Handle) {
	if prev.Slot >= 0 && prev.Slot < len(p.slots) {
		v := &p.slots[prev.Slot]
		if v.id == prev.ID && v.priority != PriorityInactive {
			return v, prev
		}
	}

	target := p.lowestPrioritySlot()
	v := &p.slots[target]
	*v = Voice{priority: PriorityNew}
	p.nextID++
	v.id = p.nextID
	return v, Handle{Slot: target, ID: v.id}
}

// lowestPrioritySlot finds the slot with the lowest priority, the
// lowest index breaking ties.
func (p *Pool) lowestPrioritySlot() int {
	best := 0
	for i := 1; i < len(p.slots); i++ {
		if p.slots[i].priority < p.slots[best].priority {
			best = i
		}
	}
	return best
}

// Allocate starts a new voice for (channelID, groupID, procID) bound
// to kernel, deriving a per-voice RNG sub-stream from subIndex so
// simultaneous voices in the same block do not share a draw sequence.
func (p *Pool) Allocate(prev Handle, channelID int, groupID uint64, procID int, kernel proc.VoiceKernel, subIndex int64) (*Voice, Handle) {
	v, h := p.GetVoice(prev)
	v.ChannelID = channelID
	v.GroupID = groupID
	v.ProcID = procID
	v.Kernel = kernel
	v.State = kernel.NewVoiceState(newVoiceRNG(p.rootRNG, subIndex))
	v.priority = PriorityNew
	return v, h
}

// Validate reports whether h still refers to a live voice.
func (p *Pool) Validate(h Handle) (*Voice, bool) {
	if h.Slot < 0 || h.Slot >= len(p.slots) {
		return nil, false
	}
	v := &p.slots[h.Slot]
	if v.id != h.ID || v.priority == PriorityInactive {
		return nil, false
	}
	return v, true
}

// NoteOffGroup transitions every voice in groupID from Fg to Bg:
// on note-off the channel walks all its foreground voices and
// transitions them to Bg.
func (p *Pool) NoteOffGroup(groupID uint64) {
	for i := range p.slots {
		v := &p.slots[i]
		if v.GroupID == groupID && v.priority == PriorityFg {
			v.priority = PriorityBg
		}
	}
}

// PromoteNewToFg transitions every New voice to Fg, once it has
// rendered at least once. Called once per render block.
func (p *Pool) PromoteNewToFg() {
	for i := range p.slots {
		if p.slots[i].priority == PriorityNew {
			p.slots[i].priority = PriorityFg
		}
	}
}

// Deactivate moves a slot to Inactive directly, e.g. when its kernel
// reports the voice finished.
func (p *Pool) Deactivate(slot int) {
	if slot < 0 || slot >= len(p.slots) {
		return
	}
	p.slots[slot].priority = PriorityInactive
}

// Reset clears every slot to Inactive (e.g. on playback stop).
func (p *Pool) Reset() {
	for i := range p.slots {
		p.slots[i] = Voice{priority: PriorityInactive}
	}
}

// Active returns a slice of pointers to every non-Inactive voice, for
// the player to iterate during render_all.
func (p *Pool) Active() []*Voice {
	out := make([]*Voice, 0, len(p.slots))
	for i := range p.slots {
		if p.slots[i].priority != PriorityInactive {
			out = append(out, &p.slots[i])
		}
	}
	return out
}

// ForEachSlot invokes fn for every slot in index order, its index and
// a pointer to the slot, regardless of priority.
func (p *Pool) ForEachSlot(fn func(idx int, v *Voice)) {
	for i := range p.slots {
		fn(i, &p.slots[i])
	}
}
