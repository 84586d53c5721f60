package event

import (
	"testing"

	"github.com/kunquat/kunquat-go/internal/channel"
	"github.com/kunquat/kunquat-go/internal/krand"
	"github.com/kunquat/kunquat-go/internal/tstamp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMaster struct {
	tempoTarget  float64
	tempoLen     tstamp.Tstamp
	volumeTarget float64
	jumpCounter  int
	jumpRow      tstamp.Tstamp
	gotoRow      tstamp.Tstamp
	gotoCalled   bool
	delay        tstamp.Tstamp
}

func (f *fakeMaster) SlideTempoTo(bpm float64)                  { f.tempoTarget = bpm }
func (f *fakeMaster) SetTempoSlideLength(l tstamp.Tstamp)        { f.tempoLen = l }
func (f *fakeMaster) SlideVolumeTo(db float64)                   { f.volumeTarget = db }
func (f *fakeMaster) SetVolumeSlideLength(l tstamp.Tstamp)       {}
func (f *fakeMaster) Jump(counter int, row tstamp.Tstamp)        { f.jumpCounter = counter; f.jumpRow = row }
func (f *fakeMaster) Goto(row tstamp.Tstamp)                     { f.gotoCalled = true; f.gotoRow = row }
func (f *fakeMaster) Retune(cents float64)                       {}
func (f *fakeMaster) SetDelay(l tstamp.Tstamp)                   { f.delay = l }

func TestUnknownEventNameIsSilentNoOp(t *testing.T) {
	ctx := &Context{}
	assert.False(t, Trigger(ctx, "bogus", "null"))
}

func TestNoteOnDispatchesCallback(t *testing.T) {
	var gotPitch float64
	var calledWith *channel.State
	ch := channel.New(0, krand.NewStream(1))
	ctx := &Context{
		Channel: ch,
		NoteOn: func(c *channel.State, pitch float64) {
			calledWith = c
			gotPitch = pitch
		},
	}
	require.True(t, Trigger(ctx, "n+", "-1200"))
	assert.Same(t, ch, calledWith)
	assert.Equal(t, -1200.0, gotPitch)
}

func TestCarryOnStreamFiresInOrder(t *testing.T) {
	ch := channel.New(0, krand.NewStream(1))
	var streamName string
	var streamValue float64
	ctx := &Context{
		Channel: ch,
		SetStream: func(c *channel.State, name string, v float64) {
			streamName = name
			streamValue = v
		},
	}
	require.True(t, Trigger(ctx, ".sn", `"cutoff"`))
	require.True(t, Trigger(ctx, ".s", "1000.0"))
	assert.Equal(t, "cutoff", streamName)
	assert.Equal(t, 1000.0, streamValue)
}

func TestMasterTempoSlideEvents(t *testing.T) {
	m := &fakeMaster{}
	ctx := &Context{Master: m}
	require.True(t, Trigger(ctx, "m.t", "120"))
	require.True(t, Trigger(ctx, "m/=t", "[4, 0]"))
	assert.Equal(t, 120.0, m.tempoTarget)
	assert.Equal(t, tstamp.New(4, 0), m.tempoLen)
}

func TestJumpEventParsesCounterAndRow(t *testing.T) {
	m := &fakeMaster{}
	ctx := &Context{Master: m}
	require.True(t, Trigger(ctx, "mj", `{"counter": 2, "row": [0, 0]}`))
	assert.Equal(t, 2, m.jumpCounter)
	assert.Equal(t, tstamp.Zero, m.jumpRow)
}

func TestBindExpandsAdditionalEvents(t *testing.T) {
	ch := channel.New(0, krand.NewStream(1))
	var offEvents, onEvents int
	ctx := &Context{
		Channel: ch,
		NoteOn:  func(c *channel.State, pitch float64) { onEvents++ },
		NoteOff: func(c *channel.State) { offEvents++ },
	}
	bind := NewBind()
	bind.Add("n+", Expansion{Name: "n-", RawArgJSON: "null"})

	require.True(t, FireWithBind(ctx, bind, "n+", "0"))
	assert.Equal(t, 1, onEvents)
	assert.Equal(t, 1, offEvents)
}

func TestStopEventInvokesCallback(t *testing.T) {
	stopped := false
	ctx := &Context{Stop: func() { stopped = true }}
	require.True(t, Trigger(ctx, "stop", "null"))
	assert.True(t, stopped)
}

func TestPauseEventSchedulesPatternDelay(t *testing.T) {
	m := &fakeMaster{}
	ctx := &Context{Master: m}
	require.True(t, Trigger(ctx, "pause", "[2, 0]"))
	assert.Equal(t, tstamp.New(2, 0), m.delay)
}

func TestValidatorRejectsNonPositiveTempo(t *testing.T) {
	m := &fakeMaster{}
	ctx := &Context{Master: m}
	assert.False(t, Trigger(ctx, "m.t", "-5"))
	assert.Equal(t, 0.0, m.tempoTarget)
}

func TestSetAUInputSelectsAudioUnit(t *testing.T) {
	ch := channel.New(0, krand.NewStream(1))
	ctx := &Context{Channel: ch}
	require.True(t, Trigger(ctx, ".a", "3"))
	assert.Equal(t, 3, ch.AUIndex)
}

func TestForceSlideSetsRampTarget(t *testing.T) {
	ch := channel.New(0, krand.NewStream(1))
	var gotLength tstamp.Tstamp
	ctx := &Context{
		Channel:         ch,
		FramesForTstamp: func(ts tstamp.Tstamp) int { gotLength = ts; return 100 },
	}
	require.True(t, Trigger(ctx, ".f", "1.0"))
	require.True(t, Trigger(ctx, "/f", "0.5"))
	require.True(t, Trigger(ctx, "/=f", "[1, 0]"))
	assert.Equal(t, tstamp.New(1, 0), gotLength)
	assert.InDelta(t, 0.5, ch.ForceRamp.Advance(100), 1e-9)
}

func TestArpeggioEventsAccumulateTones(t *testing.T) {
	ch := channel.New(0, krand.NewStream(1))
	ctx := &Context{Channel: ch}
	require.True(t, Trigger(ctx, "<arp", "null"))
	require.True(t, Trigger(ctx, ".arpn", "0"))
	require.True(t, Trigger(ctx, ".arpn", "400"))
	require.True(t, Trigger(ctx, ".arpn", "700"))
	require.True(t, Trigger(ctx, "arp+", "null"))
	assert.Equal(t, []float64{0, 400, 700}, ch.ArpeggioTones)
	assert.True(t, ch.Arpeggio.On)
}

func TestDeviceEventNameAndFire(t *testing.T) {
	ch := channel.New(0, krand.NewStream(1))
	var gotAU int
	var gotArgs map[string]any
	ctx := &Context{
		Channel: ch,
		AU: &fakeAU{fire: func(au int, args map[string]any) {
			gotAU = au
			gotArgs = args
		}},
	}
	require.True(t, Trigger(ctx, ".dn", `"record"`))
	require.True(t, Trigger(ctx, "d", `{"value": 1.5}`))
	assert.Equal(t, 0, gotAU)
	assert.Equal(t, "record", gotArgs["name"])
	assert.Equal(t, 1.5, gotArgs["value"])
}

type fakeAU struct {
	fire func(au int, args map[string]any)
}

func (f *fakeAU) SetBypass(auIndex int, on bool)  {}
func (f *fakeAU) SetSustain(auIndex int, on bool) {}
func (f *fakeAU) FireDeviceEvent(auIndex int, args map[string]any) {
	if f.fire != nil {
		f.fire(auIndex, args)
	}
}
