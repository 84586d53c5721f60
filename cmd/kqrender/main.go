// Command kqrender is a thin render-and-dump-to-WAV harness: the
// external "WAV-writer" collaborator named in the engine's interface
// design, not a replacement for the terminal player UI (out of scope).
// It builds a small in-memory demo module, drives the player's
// external entry points (fire_event/render/get_audio) the way a real
// host embedding the engine would, and writes the rendered output to
// a file.
package main

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/cobra"

	"github.com/kunquat/kunquat-go/internal/player"
)

const (
	defaultRate      = 48000
	defaultVoices    = 32
	defaultBlockSize = 256
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kqrender",
		Short: "Render a Kunquat module to a WAV file",
	}
	root.AddCommand(newRenderCmd())
	root.AddCommand(newInfoCmd())
	return root
}

func newRenderCmd() *cobra.Command {
	var rate int
	var seconds float64
	var out string
	var voices int

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the demo module and write it to a WAV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderToFile(out, rate, voices, seconds)
		},
	}
	cmd.Flags().IntVar(&rate, "rate", defaultRate, "output sample rate in Hz")
	cmd.Flags().Float64Var(&seconds, "seconds", 4, "length of audio to render, in seconds")
	cmd.Flags().StringVar(&out, "out", "out.wav", "output WAV file path")
	cmd.Flags().IntVar(&voices, "voices", defaultVoices, "voice pool size")
	return cmd
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print a summary of the demo module",
		RunE: func(cmd *cobra.Command, args []string) error {
			mod := demoModule()
			fmt.Printf("audio units: %d\n", mod.AUs.Count())
			fmt.Printf("patterns:    %d\n", mod.Patterns.Count())
			fmt.Printf("songs:       %d\n", len(mod.Songs))
			return nil
		},
	}
}

// renderToFile builds the demo module, renders seconds worth of audio
// at rate, and writes it to path as a 16-bit stereo WAV file.
func renderToFile(path string, rate, voicePoolSize int, seconds float64) error {
	mod := demoModule()

	h, err := player.New(mod, rate, 1, voicePoolSize, defaultBlockSize)
	if err != nil {
		return fmt.Errorf("kqrender: build player: %w", err)
	}

	totalFrames := int(seconds * float64(rate))
	left := make([]float32, 0, totalFrames)
	right := make([]float32, 0, totalFrames)

	for len(left) < totalFrames && !h.HasStopped() {
		want := defaultBlockSize
		if remaining := totalFrames - len(left); remaining < want {
			want = remaining
		}
		n, err := h.Render(want)
		if err != nil {
			return fmt.Errorf("kqrender: render: %w", err)
		}
		if n == 0 {
			break
		}
		left = append(left, h.GetAudio(0)...)
		right = append(right, h.GetAudio(1)...)
	}

	return writeWAV(path, rate, left, right)
}

// writeWAV interleaves left/right float32 buffers into 16-bit PCM and
// encodes them with go-audio/wav, the same library internal/sample
// uses on the decode side.
func writeWAV(path string, rate int, left, right []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("kqrender: create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, 2, 1)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: rate},
		SourceBitDepth: 16,
		Data:           make([]int, len(left)*2),
	}
	for i := range left {
		buf.Data[2*i] = clampSample(left[i])
		buf.Data[2*i+1] = clampSample(right[i])
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("kqrender: encode wav: %w", err)
	}
	return enc.Close()
}

func clampSample(s float32) int {
	v := int(math.Round(float64(s) * 32767.0))
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return v
}
