package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kunquat/kunquat-go/internal/audiounit"
	"github.com/kunquat/kunquat-go/internal/cgiter"
	"github.com/kunquat/kunquat-go/internal/module"
	"github.com/kunquat/kunquat-go/internal/proc"
	"github.com/kunquat/kunquat-go/internal/tstamp"
	"github.com/kunquat/kunquat-go/internal/voice"
	"github.com/kunquat/kunquat-go/internal/wbuf"
)

// buildSingleDebugModule builds a one-Audio-Unit module with a single
// debug processor wired straight through to the module output, its
// only pattern's column 0 holding a note-on at row 0.
func buildSingleDebugModule(t *testing.T, singlePulse bool) *module.Module {
	t.Helper()

	au := module.NewAudioUnit(module.AUInstrument)
	au.Procs.Set(0, &module.ProcessorDef{
		Kind:   string(proc.KindDebug),
		Signal: module.SignalVoice,
		Params: map[string]any{"single_pulse": singlePulse},
	})
	au.Connections = []audiounit.Edge{
		{SrcDevice: 0, SrcPort: proc.PortLeft, DstDevice: outID, DstPort: proc.PortLeft},
		{SrcDevice: 0, SrcPort: proc.PortRight, DstDevice: outID, DstPort: proc.PortRight},
	}

	mod := module.New()
	mod.AUs.Set(0, au)
	mod.Connections = []audiounit.Edge{
		{SrcDevice: 0, SrcPort: proc.PortLeft, DstDevice: outID, DstPort: proc.PortLeft},
		{SrcDevice: 0, SrcPort: proc.PortRight, DstDevice: outID, DstPort: proc.PortRight},
	}

	pattern := module.NewPattern(tstamp.New(4, 0))
	pattern.Columns[0].Rows = []cgiter.Row{
		{Pos: tstamp.Zero, Triggers: []cgiter.Trigger{{Name: "n+", RawArgJSON: "0"}}},
		{Pos: tstamp.New(1, 0), Triggers: []cgiter.Trigger{{Name: "n-"}}},
	}
	mod.Patterns.Set(0, pattern)
	mod.Songs = []*module.Song{{OrderList: []module.PatternInstanceRef{{PatternID: 0, InstanceID: 0}}}}

	return mod
}

func TestNewBuildsGraphsAndRootsAtFirstPattern(t *testing.T) {
	mod := buildSingleDebugModule(t, true)
	h, err := New(mod, 48000, 1, 16, 256)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.False(t, h.Stopped)
	assert.Equal(t, 0, h.Master.CurPatternID)
}

func TestNoteOnFiresSinglePulseVoiceAndDeactivates(t *testing.T) {
	mod := buildSingleDebugModule(t, true)
	h, err := New(mod, 48000, 1, 16, 256)
	require.NoError(t, err)

	ok := h.FireEvent(0, `["n+", 0]`)
	require.True(t, ok)
	assert.Equal(t, 1, h.Voices.GetActiveCount())

	n, err := h.Render(64)
	require.NoError(t, err)
	assert.Equal(t, 64, n)

	out := h.GetAudio(0)
	require.Len(t, out, 64)
	assert.InDelta(t, float32(1.0), out[0], 0.0001)
	for i := 1; i < len(out); i++ {
		assert.Equal(t, float32(0), out[i], "single-pulse voice must stay silent after its one sample")
	}

	assert.Equal(t, 0, h.Voices.GetActiveCount(), "single-pulse voice should deactivate once its pulse has rendered")
}

func TestFireEventRejectsUnknownChannel(t *testing.T) {
	mod := buildSingleDebugModule(t, true)
	h, err := New(mod, 48000, 1, 16, 256)
	require.NoError(t, err)

	ok := h.FireEvent(5, `["n+", 0]`)
	assert.False(t, ok)
	assert.NotEmpty(t, h.Errors.Get())
}

func TestFireEventSilentlyIgnoresUnknownName(t *testing.T) {
	mod := buildSingleDebugModule(t, true)
	h, err := New(mod, 48000, 1, 16, 256)
	require.NoError(t, err)

	ok := h.FireEvent(0, `["bogus", null]`)
	assert.False(t, ok)
}

func TestRenderAdvancesThroughWholeNoteOnNoteOffRow(t *testing.T) {
	mod := buildSingleDebugModule(t, false)
	h, err := New(mod, 48000, 1, 16, 256)
	require.NoError(t, err)

	h.FireEvent(0, `["n+", 0]`)

	framesPerBeat := int(tstamp.ToFrames(tstamp.New(1, 0), h.Master.Tempo, float64(h.Rate)))
	n, err := h.Render(framesPerBeat + 10)
	require.NoError(t, err)
	assert.Equal(t, framesPerBeat+10, n)

	out := h.GetAudio(0)
	assert.InDelta(t, float32(1.0), out[0], 0.0001)

	active := h.Voices.Active()
	require.Len(t, active, 1, "a sustained (non-single-pulse) voice outlives note-off until explicitly deactivated")
	assert.Equal(t, voice.PriorityBg, active[0].Priority(), "note-off should have demoted the foreground voice to background")
}

func firedNames(h *Handle) []string {
	names := make([]string, 0, len(h.Events))
	for _, e := range h.Events {
		names = append(names, e.Name)
	}
	return names
}

func TestJumpRepeatsRowsThenProceeds(t *testing.T) {
	mod := buildSingleDebugModule(t, true)
	pattern := mod.Patterns.Get(0)
	pattern.Columns[0].Rows = []cgiter.Row{
		{Pos: tstamp.Zero, Triggers: []cgiter.Trigger{{Name: "n+", RawArgJSON: "0"}}},
		{Pos: tstamp.New(2, 0), Triggers: []cgiter.Trigger{{Name: "mj", RawArgJSON: `{"counter": 2, "row": [0, 0]}`}}},
	}

	h, err := New(mod, 1000, 1, 16, 256)
	require.NoError(t, err)

	// rows [0..2] play three times (the original pass plus two jumps),
	// then playback proceeds past the jump row to the pattern end.
	_, err = h.Render(6000)
	require.NoError(t, err)

	noteOns := 0
	for _, name := range firedNames(h) {
		if name == "n+" {
			noteOns++
		}
	}
	assert.Equal(t, 3, noteOns)
	assert.True(t, h.HasStopped(), "playback should run off the end of the single-pattern song")
}

func TestPatternDelaySuspendsRemainingRowTriggers(t *testing.T) {
	mod := buildSingleDebugModule(t, true)
	pattern := mod.Patterns.Get(0)
	pattern.Columns[0].Rows = []cgiter.Row{
		{Pos: tstamp.Zero, Triggers: []cgiter.Trigger{
			{Name: "pause", RawArgJSON: "[1, 0]"},
			{Name: "n+", RawArgJSON: "0"},
		}},
	}

	h, err := New(mod, 1000, 1, 16, 256)
	require.NoError(t, err)

	// one beat at 120 BPM and rate 1000 is 500 frames; at 400 the
	// delay is still pending and the note-on must not have fired.
	n, err := h.Render(400)
	require.NoError(t, err)
	require.Equal(t, 400, n)
	assert.Contains(t, firedNames(h), "pause")
	assert.NotContains(t, firedNames(h), "n+")

	_, err = h.Render(200)
	require.NoError(t, err)
	assert.Contains(t, firedNames(h), "n+", "the suspended trigger fires once the delay elapses")
}

func TestStopEventHaltsPlayback(t *testing.T) {
	mod := buildSingleDebugModule(t, true)
	pattern := mod.Patterns.Get(0)
	pattern.Columns[0].Rows = []cgiter.Row{
		{Pos: tstamp.Zero, Triggers: []cgiter.Trigger{{Name: "stop", RawArgJSON: "null"}}},
	}

	h, err := New(mod, 1000, 1, 16, 256)
	require.NoError(t, err)

	n, err := h.Render(100)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.True(t, h.HasStopped())
}

func TestTempoSlideReachesTargetDuringRender(t *testing.T) {
	mod := buildSingleDebugModule(t, true)
	h, err := New(mod, 1000, 1, 16, 256)
	require.NoError(t, err)

	require.True(t, h.FireEvent(0, `["m.t", 240]`))
	require.True(t, h.FireEvent(0, `["m/=t", [2, 0]]`))

	_, err = h.Render(2000)
	require.NoError(t, err)
	assert.InDelta(t, 240.0, h.Master.Tempo, 0.01)
}

func TestStreamValueVisibleOnFirstNoteFrame(t *testing.T) {
	mod := buildSingleDebugModule(t, true)
	au := mod.AUs.Get(0)
	au.Procs.Set(1, &module.ProcessorDef{
		Kind:   string(proc.KindStream),
		Signal: module.SignalMixed,
		Params: map[string]any{"init": 0.0},
	})
	au.Streams["cutoff"] = 1

	h, err := New(mod, 1000, 1, 16, 256)
	require.NoError(t, err)

	require.True(t, h.FireEvent(0, `[".sn", "cutoff"]`))
	require.True(t, h.FireEvent(0, `[".s", 1000.0]`))
	require.True(t, h.FireEvent(0, `["->s+", null]`))
	require.True(t, h.FireEvent(0, `["n+", 0]`))

	_, err = h.Render(16)
	require.NoError(t, err)
	assert.Equal(t, float32(1000), h.wbs.Get(wbuf.KindFilterCutoff)[0],
		"the stream value must reach its target buffer on the note's first rendered frame")
}

func TestGetEventsRecordsFiredTriggers(t *testing.T) {
	mod := buildSingleDebugModule(t, true)
	h, err := New(mod, 48000, 1, 16, 256)
	require.NoError(t, err)

	h.FireEvent(0, `["n+", 0]`)
	events := h.GetEvents()
	assert.Contains(t, events, "n+")

	h.ClearEvents()
	assert.Equal(t, "[]", h.GetEvents())
}
