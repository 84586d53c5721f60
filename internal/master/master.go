// Package master implements the master playback cursor: position,
// tempo and volume sliders, jump/goto handling with the replay-safety
// counter, and per-channel tuning state.
package master

import (
	"github.com/kunquat/kunquat-go/internal/kqerr"
	"github.com/kunquat/kunquat-go/internal/tstamp"
)

// SliceLength is the granularity at which tempo and volume slides
// update: 1/24 beat. Beat was chosen divisible by 24 so this is exact.
var SliceLength = tstamp.New(0, int32(tstamp.Beat/24))

// GotoSafetyLimit bounds consecutive zero-advance gotos so a
// pathological score cannot spin the render loop forever.
const GotoSafetyLimit = 64

// Params is the single-valued playback cursor.
type Params struct {
	PlaybackID uint64

	CurPos       tstamp.Tstamp
	CurPatternID int
	CurChannel   int
	CurTrigger   int
	DelayLeft    tstamp.Tstamp

	Tempo       float64
	TempoSlider Slider
	Volume      float64
	VolSlider   Slider

	ActiveJumps map[JumpKey]*JumpContext

	Tuning map[int]*TuningState // keyed by channel id

	DoJump        bool
	JumpTargetRow tstamp.Tstamp
	DoGoto        bool
	GotoTargetRow tstamp.Tstamp

	pendingTempoTarget    float64
	hasPendingTempoTarget bool
	pendingVolTarget      float64
	hasPendingVolTarget   bool

	gotoSafetyCounter int
}

// New creates playback state at the given starting tempo (BPM).
func New(tempo float64) *Params {
	return &Params{
		Tempo:       tempo,
		TempoSlider: NewSlider(tempo),
		VolSlider:   NewSlider(0),
		ActiveJumps: make(map[JumpKey]*JumpContext),
		Tuning:      make(map[int]*TuningState),
	}
}

// SlideTempoTo records the pending tempo slide target ("m.t"); the
// slide only starts once SetTempoSlideLength supplies its duration.
func (p *Params) SlideTempoTo(bpm float64) {
	p.pendingTempoTarget = bpm
	p.hasPendingTempoTarget = true
}

// SetTempoSlideLength starts the tempo slide over length, at 1/24-beat
// granularity ("m/=t").
func (p *Params) SetTempoSlideLength(length tstamp.Tstamp) {
	if !p.hasPendingTempoTarget {
		return
	}
	p.TempoSlider.SlideTo(p.pendingTempoTarget, slideSteps(length))
	p.hasPendingTempoTarget = false
}

// SlideVolumeTo records the pending global volume slide target ("m.v").
func (p *Params) SlideVolumeTo(db float64) {
	p.pendingVolTarget = db
	p.hasPendingVolTarget = true
}

// SetVolumeSlideLength starts the volume slide over length ("m/=v").
func (p *Params) SetVolumeSlideLength(length tstamp.Tstamp) {
	if !p.hasPendingVolTarget {
		return
	}
	p.VolSlider.SlideTo(p.pendingVolTarget, slideSteps(length))
	p.hasPendingVolTarget = false
}

func slideSteps(length tstamp.Tstamp) int {
	beats := tstamp.ToFloatBeats(length)
	return int(beats*24 + 0.5)
}

// SetDelay schedules a pattern delay ("pause"): musical time stands
// still for length while audio keeps rendering, and any triggers
// remaining on the current row wait until the delay has elapsed.
func (p *Params) SetDelay(length tstamp.Tstamp) {
	p.DelayLeft = tstamp.Add(p.DelayLeft, length)
}

// SlidesActive reports whether either slider still has updates to apply.
func (p *Params) SlidesActive() bool {
	return p.TempoSlider.Active() || p.VolSlider.Active()
}

// ApplySlideSlice advances any active slider by one 1/24-beat slice.
func (p *Params) ApplySlideSlice() {
	if p.TempoSlider.Active() {
		p.Tempo = p.TempoSlider.Step()
	}
	if p.VolSlider.Active() {
		p.Volume = p.VolSlider.Step()
	}
}

// Retune applies a scale retune to the current channel's tuning state;
// it does nothing when the current channel has no tuning state.
func (p *Params) Retune(newRefCents float64) {
	st, ok := p.Tuning[p.CurChannel]
	if !ok {
		return
	}
	st.Retune(newRefCents)
}

// Jump creates or advances a jump context keyed by the trigger's
// originating occurrence. If the occurrence is new, counter seeds it;
// once the context's counter reaches zero the jump no longer fires.
// The exhausted context stays pinned at zero so control returning to
// the same occurrence cannot reseed it mid-session, keeping the
// counter monotonically non-increasing.
func (p *Params) Jump(counter int, targetRow tstamp.Tstamp) {
	key := JumpKey{PatternID: p.CurPatternID, Row: p.CurPos, Channel: p.CurChannel, TriggerIndex: p.CurTrigger}
	ctx, ok := p.ActiveJumps[key]
	if !ok {
		ctx = &JumpContext{Counter: counter, TargetPatternID: p.CurPatternID, TargetRow: targetRow}
		p.ActiveJumps[key] = ctx
	}
	if ctx.Counter <= 0 {
		return
	}
	p.DoJump = true
	p.JumpTargetRow = targetRow
	ctx.Counter--
}

// Goto requests an unconditional seek to row.
func (p *Params) Goto(row tstamp.Tstamp) {
	p.DoGoto = true
	p.GotoTargetRow = row
}

// ConsumeJump clears and returns a pending jump request, if any.
func (p *Params) ConsumeJump() (tstamp.Tstamp, bool) {
	if !p.DoJump {
		return tstamp.Zero, false
	}
	p.DoJump = false
	return p.JumpTargetRow, true
}

// ConsumeGoto clears and returns a pending goto request, if any.
func (p *Params) ConsumeGoto() (tstamp.Tstamp, bool) {
	if !p.DoGoto {
		return tstamp.Zero, false
	}
	p.DoGoto = false
	return p.GotoTargetRow, true
}

// NoteAdvance tells the safety counter whether cur_pos genuinely moved
// forward this step. A run of consecutive non-advances past
// GotoSafetyLimit returns a FormatError, aborting playback rather than
// spinning forever on a pathological score.
func (p *Params) NoteAdvance(advanced bool) error {
	if advanced {
		p.gotoSafetyCounter = 0
		return nil
	}
	p.gotoSafetyCounter++
	if p.gotoSafetyCounter > GotoSafetyLimit {
		return kqerr.NewHere(kqerr.FormatError, "goto safety counter exceeded consecutive zero-advance limit")
	}
	return nil
}
