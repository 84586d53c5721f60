package proc

import (
	"math"
	"testing"

	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/sample"
	"github.com/kunquat/kunquat-go/internal/wbuf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOutPorts(n int) map[devstate.Port]*devstate.PortBuffer {
	return map[devstate.Port]*devstate.PortBuffer{
		PortLeft:  devstate.NewPortBuffer(n),
		PortRight: devstate.NewPortBuffer(n),
	}
}

func constControl(n int, rate, pitch, force float64) *Control {
	wbs := wbuf.New(n)
	pb := wbs.Get(wbuf.KindPitch)
	fb := wbs.Get(wbuf.KindForce)
	for i := 0; i < n; i++ {
		pb[i] = float32(pitch)
		fb[i] = float32(force)
	}
	return &Control{WBS: wbs, Rate: rate}
}

// A single-pulse debug voice emits exactly one full-scale sample.
func TestDebugSinglePulse(t *testing.T) {
	d := &Debug{SinglePulse: true}
	vs := d.NewVoiceState(nil)
	out := newOutPorts(128)
	ctl := constControl(128, 44100, 0, 1)

	newStop := d.RenderVoice(vs, ctl, 0, 128, out)
	require.Equal(t, 1, newStop, "the voice is finished after its one pulse sample")

	assert.Equal(t, float32(1.0), out[PortLeft].Data[0])
	for i := 1; i < 128; i++ {
		assert.Equalf(t, float32(0), out[PortLeft].Data[i], "index %d should be silent", i)
	}
}

// A sine oscillator at 55Hz sampled at a 220Hz rate.
func TestSineApproximatesExpectedWaveform(t *testing.T) {
	sine := NewSine()
	vs := sine.NewVoiceState(nil)
	out := newOutPorts(440)
	ctl := constControl(440, 220, 55, 1)

	sine.RenderVoice(vs, ctl, 0, 440, out)

	for n := 0; n < 440; n++ {
		want := math.Sin(2 * math.Pi * 55 * float64(n) / 220)
		got := float64(out[PortLeft].Data[n])
		assert.InDelta(t, want, got, 0.01, "sample %d", n)
	}
}

func TestBitcrusherHoldsSamples(t *testing.T) {
	base := devstate.NewBase(1, 1000, 16, 2, 2)
	in := base.InPorts[PortLeft]
	for i := range in.Data {
		in.Data[i] = float32(i) / 16
	}
	base.InPorts[PortRight] = in

	bc := &Bitcrusher{Bits: 8, CutoffHz: 100} // hold = 1000/100 = 10 frames
	wbs := wbuf.New(16)
	bc.RenderMixed(base, wbs, 0, 16)

	out := base.OutPorts[PortLeft]
	assert.Equal(t, out.Data[0], out.Data[5])
	assert.NotEqual(t, out.Data[0], out.Data[10])
}

func TestStreamSlideUsesConfiguredLength(t *testing.T) {
	s := &Stream{Value: 0}
	s.SetSlideFrames(10)
	s.SlideTo(10)

	buf := make([]float32, 10)
	s.Fill(buf, 1000, 0, 10)
	assert.InDelta(t, 1.0, float64(buf[0]), 1e-6)
	assert.InDelta(t, 10.0, float64(buf[9]), 1e-6)
}

func TestSamplePlayerUniLoopKeepsVoiceAlive(t *testing.T) {
	sp := &SamplePlayer{Sample: &sample.Sample{
		Channels:  1,
		Rate:      8,
		Frames:    [][]float32{{0, 1, 2, 3}},
		MidFreq:   440,
		LoopMode:  sample.LoopUni,
		LoopStart: 1,
		LoopEnd:   3,
	}}
	vs := sp.NewVoiceState(nil)
	out := newOutPorts(64)
	ctl := constControl(64, 8, 440, 1)

	newStop := sp.RenderVoice(vs, ctl, 0, 64, out)
	assert.Equal(t, 64, newStop, "a uni-looped sample must never run off the end")
}

func TestFreeverbProducesOutput(t *testing.T) {
	// The shortest comb delay is 1116 frames at 44100 Hz, so the block
	// must be longer than that for the impulse to reach the output.
	base := devstate.NewBase(1, 44100, 2048, 2, 2)
	in := base.InPorts[PortLeft]
	in.Data[0] = 1.0
	base.InPorts[PortRight] = base.InPorts[PortLeft]

	fv := &Freeverb{RoomSize: 0.5, Damp: 0.5, Wet: 1, Dry: 0}
	wbs := wbuf.New(2048)
	fv.RenderMixed(base, wbs, 0, 2048)

	sum := float32(0)
	for _, v := range base.OutPorts[PortLeft].Data {
		sum += v
	}
	assert.NotEqual(t, float32(0), sum)
}
