package proc

import (
	"math"

	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/krand"
	"github.com/kunquat/kunquat-go/internal/sample"
)

// SamplePlayer is the sample-player processor kernel:
// linear-interpolated resident-sample playback with uni/bi looping,
// deactivating the voice once the sample (or its release tail) ends.
type SamplePlayer struct {
	Sample *sample.Sample
}

func (s *SamplePlayer) Kind() Kind { return KindSample }

func (s *SamplePlayer) NewVoiceState(rng *krand.Stream) *VoiceState {
	return &VoiceState{Kind: KindSample, SampleDir: 1, RNG: rng}
}

func (s *SamplePlayer) RenderVoice(vs *VoiceState, ctl *Control, start, stop int, out map[devstate.Port]*devstate.PortBuffer) int {
	if s.Sample == nil || s.Sample.Len() == 0 {
		return start
	}

	length := float64(s.Sample.Len())
	for i := start; i < stop; i++ {
		// Only a non-looping sample runs off the end and retires its
		// voice; looped playback is wrapped below before it gets here.
		if vs.SamplePos < 0 || vs.SamplePos >= length {
			return i
		}

		freqHz := ctl.pitchAt(i)
		force := ctl.forceAt(i)
		pitchRatio := 1.0
		if s.Sample.MidFreq > 0 && freqHz > 0 {
			pitchRatio = freqHz / s.Sample.MidFreq
		}

		l := s.Sample.At(0, vs.SamplePos) * float32(force)
		r := l
		if s.Sample.Channels > 1 {
			r = s.Sample.At(1, vs.SamplePos) * float32(force)
		}
		writeStereo(out, i, l, r)

		playbackRate := pitchRatio * float64(s.Sample.Rate) / ctl.Rate
		vs.SamplePos += playbackRate * float64(vs.SampleDir)

		switch s.Sample.LoopMode {
		case sample.LoopUni:
			if s.Sample.LoopEnd > s.Sample.LoopStart && vs.SamplePos >= float64(s.Sample.LoopEnd) {
				span := float64(s.Sample.LoopEnd - s.Sample.LoopStart)
				vs.SamplePos = float64(s.Sample.LoopStart) + math.Mod(vs.SamplePos-float64(s.Sample.LoopStart), span)
			}
		case sample.LoopBi:
			if vs.SamplePos >= float64(s.Sample.LoopEnd) {
				vs.SampleDir = -1
			} else if vs.SamplePos <= float64(s.Sample.LoopStart) {
				vs.SampleDir = 1
			}
		}
	}
	return stop
}
