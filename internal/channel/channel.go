// Package channel implements per-channel playback state: the active
// Audio Unit input, carry flags, arpeggio/vibrato/tremolo LFOs,
// foreground voice handles, and control-variable state.
package channel

import (
	"math"

	"github.com/kunquat/kunquat-go/internal/krand"
	"github.com/kunquat/kunquat-go/internal/voice"
)

// NameCategory is one of the categories whose "last active name" and
// carry flag the channel tracks independently.
type NameCategory int

const (
	CategoryControlVar NameCategory = iota
	CategoryStream
	CategoryChExpression
	CategoryNoteExpression
	CategoryDeviceEvent
	categoryCount
)

// LFO is the shared phase-accumulator state behind arpeggio, vibrato,
// and tremolo.
type LFO struct {
	On       bool
	Single   bool // one-shot mode: stops after one cycle
	SpeedHz  float64
	Depth    float64
	phase    float64
	finished bool
}

// Advance steps the LFO by nframes at audio rate and returns its
// current value; in Single mode the value freezes at 0 once one cycle
// completes.
func (l *LFO) Advance(nframes int, rate float64) float64 {
	if !l.On || l.finished {
		return 0
	}
	val := sin2pi(l.phase) * l.Depth
	l.phase += l.SpeedHz * float64(nframes) / rate
	if l.Single && l.phase >= 1 {
		l.finished = true
		l.phase = 0
		return 0
	}
	for l.phase >= 1 {
		l.phase -= 1
	}
	return val
}

// Reset returns the LFO to its initial phase, e.g. on note-on if the
// instrument does not carry arpeggio phase across notes.
func (l *LFO) Reset() {
	l.phase = 0
	l.finished = false
}

// Phase returns the LFO's current phase in [0, 1), the step index
// arpeggio reads to pick which tone offset is currently active.
func (l *LFO) Phase() float64 { return l.phase }

func sin2pi(phase float64) float64 {
	return math.Sin(2 * math.Pi * phase)
}

// State is one channel's full mutable playback state.
type State struct {
	ChannelID int
	AUIndex   int // currently active Audio Unit input index

	lastActiveName [categoryCount]string
	carryFlag      [categoryCount]bool

	ArpeggioRefPitch float64
	ArpeggioIndex    int
	ArpeggioTones    []float64 // pitch offsets in cents, appended by ".arpn"
	Arpeggio         LFO
	Vibrato          LFO
	Tremolo          LFO

	// VibratoSpeedRamp/VibratoDepthRamp and TremoloSpeedRamp/
	// TremoloDepthRamp back the "v/=s"/"v/=d"/"t/=s"/"t/=d" slides:
	// "vs"/"vd"/"ts"/"td" set the ramp target directly (an instant
	// change with no length event is just a zero-frame slide).
	VibratoSpeedRamp  Ramp
	VibratoDepthRamp  Ramp
	TremoloSpeedRamp  Ramp
	TremoloDepthRamp  Ramp

	// StreamTarget is the name of the stream this channel is
	// currently addressing (set by ".sn", consumed by ".s"/"/s"/"->s+").
	StreamTarget string

	// CurrentPitchHz/CurrentForce/CurrentPan are the channel's present
	// note control targets, set by the player on note-on and read each
	// block to fill the shared pitch/force/pan control buffers every
	// active voice kernel on this channel's processors reads from.
	// ForceRamp/PitchRamp back the "/f"/"/=f" and "/p"/"/=p" slide
	// events; CurrentForce/CurrentPitchHz always mirror their value.
	ForceRamp      Ramp
	PitchRamp      Ramp
	CurrentPitchHz float64
	CurrentForce   float64
	CurrentPan     float64

	// CarryForce/CarryPitch persist the force/pitch ramps across a
	// note-on ("->f+"/"->p+") instead of the player resetting them to
	// the note's initial values.
	CarryForce bool
	CarryPitch bool

	// ForegroundVoice[procID] holds the channel's current voice
	// handle for a given processor slot.
	ForegroundVoice map[int]voice.Handle

	NoteOffPending bool

	ControlVars map[string]float64

	// ActiveGroupID is the voice-group id of this channel's current
	// (most recent) note-on, used by note-off to walk every
	// foreground voice the note started.
	ActiveGroupID uint64

	// ControlSeq is the last render-chunk sequence number for which
	// the channel's LFOs and ramps were advanced. Every active voice
	// on the channel refreshes the shared control buffers per chunk,
	// but the phase/ramp state must advance exactly once per chunk.
	ControlSeq uint64

	// VibratoOffset/TremoloOffset hold the LFOs' most recent outputs
	// (semitones and dB respectively), refreshed alongside ControlSeq.
	VibratoOffset float64
	TremoloOffset float64

	// nextGroupID assigns a fresh voice-group id to each note-on this
	// channel fires.
	nextGroupID uint64

	RNG *krand.Stream
}

// New creates a channel state with a derived RNG sub-stream.
func New(channelID int, parentRNG *krand.Stream) *State {
	return &State{
		ChannelID:       channelID,
		ForegroundVoice: make(map[int]voice.Handle),
		ControlVars:     make(map[string]float64),
		RNG:             parentRNG.Sub(int64(channelID)),
		CurrentForce:    1,
		ForceRamp:       NewRamp(1),
		PitchRamp:       NewRamp(0),
	}
}

// LastActiveName returns the last name set in category, used when an
// event is fired with no explicit name (carry semantics).
func (s *State) LastActiveName(cat NameCategory) string { return s.lastActiveName[cat] }

// SetActiveName records the active name for category; the carry flag
// is left unchanged.
func (s *State) SetActiveName(cat NameCategory, name string) { s.lastActiveName[cat] = name }

// Carry reports whether category's value persists across note-ons.
func (s *State) Carry(cat NameCategory) bool { return s.carryFlag[cat] }

// SetCarry sets category's carry flag.
func (s *State) SetCarry(cat NameCategory, on bool) { s.carryFlag[cat] = on }

// NewNoteOnGroup assigns and returns a fresh voice-group id for a new
// note-on fired on this channel.
func (s *State) NewNoteOnGroup() uint64 {
	s.nextGroupID++
	return s.nextGroupID
}
