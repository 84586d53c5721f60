// Package player implements the top-level render loop: advancing
// musical time to the next breakpoint, firing triggers, mixing
// voices, executing the processor graph, and producing separate
// per-channel output buffers for the caller. It is the sole owner of a playback
// session's mutable state, tying together every lower-level package
// the way the design notes describe a "Handle struct owning the
// entire module+player state."
package player

import (
	"encoding/json"
	"math"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/kunquat/kunquat-go/internal/audiounit"
	"github.com/kunquat/kunquat-go/internal/channel"
	"github.com/kunquat/kunquat-go/internal/cgiter"
	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/event"
	"github.com/kunquat/kunquat-go/internal/kqerr"
	"github.com/kunquat/kunquat-go/internal/krand"
	"github.com/kunquat/kunquat-go/internal/master"
	"github.com/kunquat/kunquat-go/internal/module"
	"github.com/kunquat/kunquat-go/internal/proc"
	"github.com/kunquat/kunquat-go/internal/tstamp"
	"github.com/kunquat/kunquat-go/internal/voice"
	"github.com/kunquat/kunquat-go/internal/wbuf"
)

// A4Hz is the reference pitch a note's retuned cents value converts
// from, absent any Audio-Unit-specific reference.
const A4Hz = 440.0

func centsToHz(cents float64) float64 {
	return A4Hz * math.Pow(2, cents/1200.0)
}

// FiredEvent is one entry of the event buffer the external get_events
// interface reads: every trigger fired since the last reset, in
// firing order.
type FiredEvent struct {
	Pos     [2]int64 `json:"pos"`
	Channel int      `json:"channel"`
	Name    string   `json:"name"`
}

// AUState is the per-Audio-Unit runtime state a.b/a.s/a.e events mutate.
type AUState struct {
	Bypass  bool
	Sustain bool
}

// Handle owns an entire playback session: the loaded Module, the
// master cursor, every channel's state, the voice pool, the built
// processor graphs, and the caller-visible output and event buffers.
// There is no package-level mutable state; everything lives here.
type Handle struct {
	Module    *module.Module
	Rate      int
	BlockSize int

	Master   *master.Params
	Channels []*channel.State
	Cgiters  []*cgiter.Cgiter

	Voices *voice.Pool
	wbs    *wbuf.Buffers

	moduleGraph *audiounit.Graph
	auGraphs    map[int]*audiounit.Graph
	auKernels   map[int]map[int]any
	auStates    map[int]*AUState

	scratchL *devstate.PortBuffer
	scratchR *devstate.PortBuffer

	curSongIdx         int
	curOrderIdx        int
	curPattern         *module.Pattern
	curPatternInstance module.PatternInstanceRef

	outL, outR   []float32
	lastRendered int

	Events []FiredEvent
	Errors kqerr.Box

	Stopped    bool
	PlaybackID uint64

	rng *krand.Stream

	// renderSeq numbers render chunks so each channel's LFO and ramp
	// state advances exactly once per chunk (see Channel.ControlSeq).
	renderSeq uint64

	// pending is the remainder of a trigger row suspended by a
	// pattern delay, resumed once the delay elapses.
	pending *rowResume

	// sliceAcc accumulates advanced musical time towards the next
	// 1/24-beat slider slice.
	sliceAcc tstamp.Tstamp
}

// New builds a playback session over mod with channelCount channels
// (each bound 1:1 to a pattern column), a voice pool of voicePoolSize
// slots, and a render block capacity of blockSize frames.
func New(mod *module.Module, rate, channelCount, voicePoolSize, blockSize int) (*Handle, error) {
	if channelCount <= 0 || channelCount > module.MaxColumns {
		return nil, kqerr.NewHere(kqerr.ArgumentError, "player: channel count out of range")
	}

	moduleGraph, auGraphs, auKernels, err := buildGraphs(mod, rate, blockSize)
	if err != nil {
		return nil, err
	}

	h := &Handle{
		Module:      mod,
		Rate:        rate,
		BlockSize:   blockSize,
		Master:      master.New(120),
		Voices:      voice.New(voicePoolSize, time.Now().UnixNano()),
		wbs:         wbuf.New(blockSize),
		moduleGraph: moduleGraph,
		auGraphs:    auGraphs,
		auKernels:   auKernels,
		auStates:    make(map[int]*AUState),
		scratchL:    devstate.NewPortBuffer(blockSize),
		scratchR:    devstate.NewPortBuffer(blockSize),
		outL:        make([]float32, blockSize),
		outR:        make([]float32, blockSize),
		PlaybackID:  uint64(time.Now().UnixNano()),
		rng:         krand.NewStream(1),
	}

	h.Channels = make([]*channel.State, channelCount)
	for i := range h.Channels {
		h.Channels[i] = channel.New(i, h.rng)
	}

	if err := h.gotoOrderIndex(0, 0); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Handle) auState(auIndex int) *AUState {
	st, ok := h.auStates[auIndex]
	if !ok {
		st = &AUState{}
		h.auStates[auIndex] = st
	}
	return st
}

// SetBypass implements the "a.b" event: a bypassed Audio Unit's
// internal graph is skipped entirely and its received input is passed
// through to its output unchanged.
func (h *Handle) SetBypass(auIndex int, on bool) { h.auState(auIndex).Bypass = on }

// SetSustain implements the "a.s" event: holds an Audio Unit's voices
// in Bg rather than letting them auto-deactivate once their release
// envelope completes, used for infinite-sustain pads under manual control.
func (h *Handle) SetSustain(auIndex int, on bool) { h.auState(auIndex).Sustain = on }

// FireDeviceEvent implements "d"/"a.e": remaps the event name through
// the owning Audio Unit's EventMap, if any, and drives every kernel in
// the unit that exposes a device-event surface. The looper's
// record/play/stop transitions are the concrete surface today; kernels
// without one ignore the event.
func (h *Handle) FireDeviceEvent(auIndex int, args map[string]any) {
	au := h.Module.AUs.Get(auIndex)
	if au == nil {
		return
	}
	name, _ := args["name"].(string)
	if remapped, ok := au.EventMap[name]; ok {
		name = remapped
	}
	for _, procID := range au.Procs.Indices() {
		lp, ok := h.auKernels[auIndex][procID].(*proc.Looper)
		if !ok {
			continue
		}
		switch name {
		case "record":
			lp.Record()
		case "play":
			lp.Play()
		case "stop":
			lp.Stop()
		}
	}
}

func (h *Handle) fireNoteOn(ch *channel.State, pitchOffsetCents float64) {
	cents := pitchOffsetCents
	if st, ok := h.Master.Tuning[ch.ChannelID]; ok {
		cents = st.GetRetunedPitch(pitchOffsetCents)
	}
	pitchHz := centsToHz(cents)
	if ch.CarryPitch {
		ch.PitchRamp.SlideTo(pitchHz)
	} else {
		ch.PitchRamp.Set(pitchHz)
	}
	ch.CurrentPitchHz = ch.PitchRamp.Value()
	if !ch.CarryForce {
		ch.ForceRamp.Set(1)
		ch.CurrentForce = 1
	}
	ch.NoteOffPending = false

	au := h.Module.AUs.Get(ch.AUIndex)
	if au == nil {
		return
	}

	groupID := ch.NewNoteOnGroup()
	ch.ActiveGroupID = groupID

	enabled := au.EnabledProcs(
		ch.LastActiveName(channel.CategoryNoteExpression),
		ch.LastActiveName(channel.CategoryChExpression))

	for _, procID := range au.Procs.Indices() {
		def := au.Procs.Get(procID)
		if def == nil || def.Signal != module.SignalVoice {
			continue
		}
		if enabled != nil && !enabled[procID] {
			continue
		}
		kernel, ok := h.auKernels[ch.AUIndex][procID].(proc.VoiceKernel)
		if !ok {
			continue
		}
		prev := ch.ForegroundVoice[procID]
		subIndex := int64(groupID)*4096 + int64(procID)
		v, handle := h.Voices.Allocate(prev, ch.ChannelID, groupID, procID, kernel, subIndex)
		v.AUIndex = ch.AUIndex
		v.SetPriority(voice.PriorityNew)
		ch.ForegroundVoice[procID] = handle
	}
}

func (h *Handle) fireNoteOff(ch *channel.State) {
	h.Voices.NoteOffGroup(ch.ActiveGroupID)
}

func (h *Handle) fireHit(ch *channel.State, index int64) {
	au := h.Module.AUs.Get(ch.AUIndex)
	if au == nil {
		return
	}
	if name, ok := au.HitMap[int(index)]; ok {
		h.FireDeviceEvent(ch.AUIndex, map[string]any{"name": name})
	}
	h.fireNoteOn(ch, 0)
}

func (h *Handle) setStream(ch *channel.State, name string, value float64) {
	au := h.Module.AUs.Get(ch.AUIndex)
	if au == nil {
		return
	}
	procID, ok := au.Streams[name]
	if !ok {
		return
	}
	if s, ok := h.auKernels[ch.AUIndex][procID].(*proc.Stream); ok {
		s.Set(value)
	}
}

func (h *Handle) eventCtxFor(ch *channel.State) *event.Context {
	return &event.Context{
		Channel:         ch,
		Master:          h.Master,
		AU:              h,
		NoteOn:          h.fireNoteOn,
		NoteOff:         h.fireNoteOff,
		Hit:             h.fireHit,
		SetStream:       h.setStream,
		SlideStream:     h.slideStream,
		FramesForTstamp: h.framesForTstamp,
		Stop:            func() { h.Stopped = true },
	}
}

// framesForTstamp converts a slide-length argument to an audio-frame
// count at the current tempo and rate.
func (h *Handle) framesForTstamp(ts tstamp.Tstamp) int {
	return int(tstamp.ToFrames(ts, h.Master.Tempo, float64(h.Rate)) + 0.5)
}

// slideStream implements the stream slide/LFO event family: "/s"
// slides the stream's value over the length "/=s" configured,
// "os"/"od" set the LFO speed/depth at once; "o/=s"/"o/=d" are accepted
// and ignored, so the LFO speed/depth never slide.
func (h *Handle) slideStream(ch *channel.State, name, eventName string, arg any) {
	au := h.Module.AUs.Get(ch.AUIndex)
	if au == nil {
		return
	}
	procID, ok := au.Streams[name]
	if !ok {
		return
	}
	s, ok := h.auKernels[ch.AUIndex][procID].(*proc.Stream)
	if !ok {
		return
	}
	switch eventName {
	case "/s":
		if v, ok := arg.(float64); ok {
			s.SlideTo(v)
		}
	case "/=s":
		if ts, ok := arg.(tstamp.Tstamp); ok {
			s.SetSlideFrames(h.framesForTstamp(ts))
		}
	case "os":
		s.LFOSpeedHz = arg.(float64)
	case "od":
		s.LFODepth = arg.(float64)
	case "o/=s", "o/=d":
		// No effect: LFO speed/depth changes made by "os"/"od" apply
		// immediately and have no slide ramp.
	}
}

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// FireEvent implements the external fire_event entry point:
// event_json is `["name", arg]`; arg is re-encoded back to its raw
// JSON text since that is the shape Trigger re-parses on every fire.
func (h *Handle) FireEvent(chNum int, eventJSON string) bool {
	if chNum < 0 || chNum >= len(h.Channels) {
		h.Errors.Set(kqerr.NewHere(kqerr.ArgumentError, "fire_event: channel index out of range"))
		return false
	}
	var pair [2]json.RawMessage
	if err := jsonAPI.Unmarshal([]byte(eventJSON), &pair); err != nil {
		h.Errors.Set(kqerr.NewHere(kqerr.ArgumentError, "fire_event: malformed event JSON"))
		return false
	}
	var name string
	if err := jsonAPI.Unmarshal(pair[0], &name); err != nil {
		h.Errors.Set(kqerr.NewHere(kqerr.ArgumentError, "fire_event: event name is not a string"))
		return false
	}

	ch := h.Channels[chNum]
	h.Master.CurChannel = chNum
	ok := event.FireWithBind(h.eventCtxFor(ch), h.Module.Bind, name, string(pair[1]))
	h.Events = append(h.Events, FiredEvent{Pos: [2]int64{h.Master.CurPos.Beats, int64(h.Master.CurPos.Rem)}, Channel: chNum, Name: name})
	return ok
}

// GetEvents implements get_events: every event fired since the last
// ClearEvents call, as a JSON array, in firing order.
func (h *Handle) GetEvents() string {
	if len(h.Events) == 0 {
		return "[]"
	}
	b, err := jsonAPI.Marshal(h.Events)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// ClearEvents discards the accumulated event buffer.
func (h *Handle) ClearEvents() { h.Events = nil }

// GetAudio implements get_audio: the last render's buffer for
// channel 0 (left) or 1 (right), of length equal to the frame count
// that render returned.
func (h *Handle) GetAudio(ch int) []float32 {
	if ch == 0 {
		return h.outL[:h.lastRendered]
	}
	return h.outR[:h.lastRendered]
}

// HasStopped implements has_stopped.
func (h *Handle) HasStopped() bool { return h.Stopped }

// setError records err in the error box if it carries kqerr's typed
// context; every error the player itself raises is a *kqerr.Error, so
// this only declines to record errors of a kind this package never produces.
func (h *Handle) setError(err error) {
	if kerr, ok := err.(*kqerr.Error); ok {
		h.Errors.Set(kerr)
	}
}
