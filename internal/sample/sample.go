// Package sample loads and represents resident, multi-channel sample
// data with loop metadata for the sample-player processor kernel.
// Samples are decoded once at load time and held entirely in memory;
// there is no streaming from disk during playback.
package sample

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// LoopMode selects how the sample-player processor wraps playback
// position once it reaches the loop boundary.
type LoopMode int

const (
	LoopOff LoopMode = iota
	LoopUni          // forward-only loop
	LoopBi           // back-and-forth loop
)

// Sample is resident, decoded, multi-channel PCM data in the range
// [-1, 1], plus the metadata the sample-player kernel needs.
type Sample struct {
	Channels   int
	Rate       int
	Frames     [][]float32 // Frames[channel][frame]
	MidFreq    float64     // reference pitch of the recording, Hz
	LoopMode   LoopMode
	LoopStart  int64
	LoopEnd    int64
}

// Len returns the number of frames (not samples) in the sample.
func (s *Sample) Len() int64 {
	if len(s.Frames) == 0 {
		return 0
	}
	return int64(len(s.Frames[0]))
}

// At returns the interpolated value for channel ch at a fractional
// frame position pos, using linear interpolation between adjacent
// samples as specified for the sample-player kernel.
func (s *Sample) At(ch int, pos float64) float32 {
	if ch < 0 || ch >= len(s.Frames) {
		return 0
	}
	data := s.Frames[ch]
	n := int64(len(data))
	if n == 0 {
		return 0
	}

	i0 := int64(pos)
	frac := pos - float64(i0)

	i0 = s.wrap(i0, n)
	i1 := s.wrap(i0+1, n)

	a := data[i0]
	b := data[i1]
	return a + float32(frac)*(b-a)
}

func (s *Sample) wrap(i, n int64) int64 {
	if n <= 0 {
		return 0
	}
	switch s.LoopMode {
	case LoopOff:
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	case LoopUni:
		if s.LoopEnd <= s.LoopStart {
			return clampWrap(i, n)
		}
		span := s.LoopEnd - s.LoopStart
		if i < s.LoopStart {
			return i
		}
		return s.LoopStart + ((i - s.LoopStart) % span)
	case LoopBi:
		if s.LoopEnd <= s.LoopStart {
			return clampWrap(i, n)
		}
		span := s.LoopEnd - s.LoopStart
		if i < s.LoopStart {
			return i
		}
		offset := (i - s.LoopStart) % (2 * span)
		if offset >= span {
			offset = 2*span - offset
		}
		return s.LoopStart + offset
	default:
		return clampWrap(i, n)
	}
}

func clampWrap(i, n int64) int64 {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Load decodes a WAV file from path into a resident Sample using
// go-audio/wav.
func Load(path string) (*Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sample: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a WAV stream into a resident Sample.
func Decode(r io.ReadSeeker) (*Sample, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("sample: not a valid WAV stream")
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("sample: decode PCM: %w", err)
	}

	return fromIntBuffer(buf), nil
}

func fromIntBuffer(buf *audio.IntBuffer) *Sample {
	format := buf.Format
	channels := 1
	rate := 44100
	if format != nil {
		if format.NumChannels > 0 {
			channels = format.NumChannels
		}
		if format.SampleRate > 0 {
			rate = format.SampleRate
		}
	}

	totalFrames := len(buf.Data) / channels
	frames := make([][]float32, channels)
	for c := range frames {
		frames[c] = make([]float32, totalFrames)
	}

	maxVal := float32(int64(1) << uint(buf.SourceBitDepth-1))
	if maxVal <= 0 {
		maxVal = 1 << 15
	}

	for i := 0; i < totalFrames; i++ {
		for c := 0; c < channels; c++ {
			idx := i*channels + c
			if idx >= len(buf.Data) {
				continue
			}
			frames[c][i] = float32(buf.Data[idx]) / maxVal
		}
	}

	return &Sample{
		Channels: channels,
		Rate:     rate,
		Frames:   frames,
		MidFreq:  261.6255653006, // middle C, overridden by p_sample_mid_freq.json at load time
		LoopMode: LoopOff,
	}
}
