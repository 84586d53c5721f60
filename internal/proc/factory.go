package proc

import (
	"fmt"

	"github.com/kunquat/kunquat-go/internal/envelope"
	"github.com/kunquat/kunquat-go/internal/kqerr"
	"github.com/kunquat/kunquat-go/internal/sample"
	"github.com/kunquat/kunquat-go/internal/tstamp"
)

// Build materialises a kernel instance of kind from its already-parsed
// parameter map. The module file-format loader (out of scope) is
// responsible for turning p_<type>_<key>.json documents into this map;
// Build is the boundary where a Processor's typed parameters become a
// concrete VoiceKernel or MixedKernel, same role as the original's
// per-type Device_impl constructors.
func Build(kind Kind, params map[string]any) (any, error) {
	switch kind {
	case KindDebug:
		return &Debug{SinglePulse: boolParam(params, "single_pulse", false)}, nil
	case KindSine:
		o := NewSine()
		o.MidFreq = floatParam(params, "mid_freq", o.MidFreq)
		return o, nil
	case KindTriangle:
		o := NewTriangle()
		o.MidFreq = floatParam(params, "mid_freq", o.MidFreq)
		return o, nil
	case KindSquare:
		o := NewSquare()
		o.MidFreq = floatParam(params, "mid_freq", o.MidFreq)
		return o, nil
	case KindSawtooth:
		o := NewSawtooth()
		o.MidFreq = floatParam(params, "mid_freq", o.MidFreq)
		return o, nil
	case KindNoise:
		return &Noise{}, nil
	case KindSample:
		s, _ := params["sample"].(*sample.Sample)
		return &SamplePlayer{Sample: s}, nil
	case KindFilter:
		f := &Filter{}
		if boolParam(params, "highpass", false) {
			f.Type = FilterHighPass
		}
		return f, nil
	case KindEnvgen:
		e := &Envgen{
			PitchScale: floatParam(params, "pitch_scale", 0),
			CenterHz:   floatParam(params, "center", 0),
		}
		if env, ok := params["envelope"].(*envelope.Envelope); ok {
			e.Env = env
		}
		if env, ok := params["envelope_release"].(*envelope.Envelope); ok {
			e.ReleaseEnv = env
		}
		switch strParam(params, "target", "force") {
		case "force-rel", "env-force-rel":
			e.Target = EnvgenForceRelease
		case "filter", "filter-env":
			e.Target = EnvgenFilter
		case "pitch-pan", "env-pitch-pan":
			e.Target = EnvgenPitchPan
		}
		return e, nil
	case KindGaincomp:
		return &Gaincomp{
			GainDB:   floatParam(params, "gain", 0),
			ThreshDB: floatParam(params, "threshold", 0),
			Ratio:    floatParam(params, "ratio", 1),
		}, nil
	case KindBitcrusher:
		return &Bitcrusher{
			Bits:         floatParam(params, "resolution", 8),
			CutoffHz:     floatParam(params, "sample_rate", 0),
			ResIgnoreMin: floatParam(params, "res_ignore_min", 0),
		}, nil
	case KindDelay:
		d := &Delay{MaxDelaySec: floatParam(params, "max_delay", 5)}
		if raw, ok := params["delay_time"].([2]int64); ok {
			d.DelayTime = tstamp.New(raw[0], int32(raw[1]))
		}
		return d, nil
	case KindChorus:
		return &Chorus{
			RateHz:  floatParam(params, "rate", 0.5),
			DepthMs: floatParam(params, "depth", 3),
			MixWet:  floatParam(params, "mix", 0.5),
		}, nil
	case KindFreeverb:
		return &Freeverb{
			RoomSize: float32(floatParam(params, "room_size", 0.5)),
			Damp:     float32(floatParam(params, "damp", 0.5)),
			Wet:      float32(floatParam(params, "wet", 0.3)),
			Dry:      float32(floatParam(params, "dry", 0.7)),
		}, nil
	case KindLooper:
		return &Looper{
			MaxRecTime:    floatParam(params, "max_rec_time", 2),
			StateXfadeSec: floatParam(params, "state_xfade_time", 0.01),
			PlayXfadeSec:  floatParam(params, "play_xfade_time", 0.01),
		}, nil
	case KindPhaser:
		return &Phaser{
			RateHz:   floatParam(params, "rate", 0.5),
			Depth:    floatParam(params, "depth", 0.5),
			Stages:   int(floatParam(params, "stages", 4)),
			Feedback: floatParam(params, "feedback", 0),
			Mix:      floatParam(params, "mix", 0.5),
		}, nil
	case KindPanning:
		return &Panning{}, nil
	case KindVolume:
		return &Volume{GainDB: floatParam(params, "gain", 0)}, nil
	case KindForce:
		return &Force{SlewPerSecond: floatParam(params, "slew", 0)}, nil
	case KindPitch:
		return &Pitch{GlideSeconds: floatParam(params, "glide", 0)}, nil
	case KindStream:
		return &Stream{
			Value:      floatParam(params, "init", 0),
			LFOSpeedHz: floatParam(params, "lfo_speed", 0),
			LFODepth:   floatParam(params, "lfo_depth", 0),
		}, nil
	default:
		return nil, kqerr.NewHere(kqerr.FormatError, fmt.Sprintf("proc: unknown processor kind %q", kind))
	}
}

func floatParam(params map[string]any, key string, fallback float64) float64 {
	if params == nil {
		return fallback
	}
	switch v := params[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return fallback
}

func boolParam(params map[string]any, key string, fallback bool) bool {
	if params == nil {
		return fallback
	}
	if v, ok := params[key].(bool); ok {
		return v
	}
	return fallback
}

func strParam(params map[string]any, key, fallback string) string {
	if params == nil {
		return fallback
	}
	if v, ok := params[key].(string); ok {
		return v
	}
	return fallback
}
