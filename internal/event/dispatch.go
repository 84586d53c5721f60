package event

import (
	"github.com/kunquat/kunquat-go/internal/channel"
	"github.com/kunquat/kunquat-go/internal/tstamp"
)

// MasterMutator is the subset of master playback cursor behaviour
// master-category events can drive. Defined here rather than imported
// from internal/master so that package does not need to depend on
// this one to wire its own dispatch in.
type MasterMutator interface {
	SlideTempoTo(bpm float64)
	SetTempoSlideLength(length tstamp.Tstamp)
	SlideVolumeTo(db float64)
	SetVolumeSlideLength(length tstamp.Tstamp)
	Jump(counter int, targetRow tstamp.Tstamp)
	Goto(row tstamp.Tstamp)
	Retune(newRefCents float64)
	SetDelay(length tstamp.Tstamp)
}

// AUMutator is the subset of per-Audio-Unit state au-category events drive.
type AUMutator interface {
	SetBypass(auIndex int, on bool)
	SetSustain(auIndex int, on bool)
	FireDeviceEvent(auIndex int, args map[string]any)
}

// Context bundles the state and callbacks one Trigger call may touch.
// NoteOn/NoteOff/SetStream/SlideStream are callbacks because voice
// allocation needs the voice pool and Audio Unit graph, which live
// above this package in the dependency order.
type Context struct {
	Channel *channel.State
	Master  MasterMutator
	AU      AUMutator

	NoteOn    func(ch *channel.State, pitchOffsetCents float64)
	NoteOff   func(ch *channel.State)
	Hit       func(ch *channel.State, index int64)
	SetStream func(ch *channel.State, name string, value float64)
	// SlideStream handles the stream slide/LFO family ("/s","/=s","os",
	// "od","o/=s","o/=d"): eventName distinguishes which of the six it was since they all
	// address the same named stream but mutate different fields.
	SlideStream func(ch *channel.State, name, eventName string, arg any)

	// FramesForTstamp converts a slide-length Tstamp argument to a
	// frame count at the current tempo and audio rate, supplied by the
	// player since this package tracks neither.
	FramesForTstamp func(tstamp.Tstamp) int

	// Stop halts playback at the next block boundary ("stop").
	Stop func()
}

// Trigger looks up name, re-parses rawArgJSON per its declared shape,
// validates it, and dispatches to the category handler. It returns
// false (a silent no-op, never an error) for an unrecognised name or a
// validation failure, matching the render path's "never raise during
// playback" rule.
func Trigger(ctx *Context, name, rawArgJSON string) bool {
	spec, ok := Table[name]
	if !ok {
		return false
	}
	arg, err := parseArg(spec.Param, rawArgJSON)
	if err != nil {
		return false
	}
	if spec.Validate != nil && !spec.Validate(arg) {
		return false
	}

	var setterName string
	if spec.HasNameSetter && ctx.Channel != nil {
		setterName = ctx.Channel.LastActiveName(spec.NameSetterCategory)
	}

	switch spec.Category {
	case CategoryMaster:
		dispatchMaster(ctx, spec, arg)
	case CategoryChannel:
		dispatchChannel(ctx, spec, arg, setterName)
	case CategoryAU:
		dispatchAU(ctx, spec, arg)
	case CategoryControl:
		if spec.Name == "stop" && ctx.Stop != nil {
			ctx.Stop()
		}
	case CategoryGeneral:
		// "#" is a comment; "pause" schedules a pattern delay that
		// suspends the remaining triggers of the current row.
		if spec.Name == "pause" && ctx.Master != nil {
			if ts, ok := arg.(tstamp.Tstamp); ok {
				ctx.Master.SetDelay(ts)
			}
		}
	}
	return true
}

func dispatchMaster(ctx *Context, spec *Spec, arg any) {
	if ctx.Master == nil {
		return
	}
	switch spec.Name {
	case "m.t":
		ctx.Master.SlideTempoTo(arg.(float64))
	case "m/=t":
		ctx.Master.SetTempoSlideLength(arg.(tstamp.Tstamp))
	case "m.v":
		ctx.Master.SlideVolumeTo(arg.(float64))
	case "m/=v":
		ctx.Master.SetVolumeSlideLength(arg.(tstamp.Tstamp))
	case "ms":
		ctx.Master.Retune(arg.(float64))
	case "mj":
		m, _ := arg.(map[string]any)
		counter := intField(m, "counter", 1)
		row := tstampField(m, "row")
		ctx.Master.Jump(counter, row)
	case "mg":
		m, _ := arg.(map[string]any)
		row := tstampField(m, "row")
		ctx.Master.Goto(row)
	}
}

func dispatchChannel(ctx *Context, spec *Spec, arg any, setterName string) {
	ch := ctx.Channel
	if ch == nil {
		return
	}
	switch spec.Name {
	case ".a":
		ch.AUIndex = int(arg.(int64))
	case "n+":
		if ctx.NoteOn != nil {
			ctx.NoteOn(ch, arg.(float64))
		}
	case "n-":
		ch.NoteOffPending = true
		if ctx.NoteOff != nil {
			ctx.NoteOff(ch)
		}
	case "h":
		if ctx.Hit != nil {
			ctx.Hit(ch, arg.(int64))
		}

	case ".f":
		ch.ForceRamp.Set(arg.(float64))
		ch.CurrentForce = ch.ForceRamp.Value()
	case "/f":
		ch.ForceRamp.SlideTo(arg.(float64))
	case "/=f":
		ch.ForceRamp.SetLength(slideFrames(arg, ctx))
	case "ts":
		ch.TremoloSpeedRamp.Set(arg.(float64))
		ch.Tremolo.SpeedHz = arg.(float64)
		ch.Tremolo.On = true
	case "td":
		ch.TremoloDepthRamp.Set(arg.(float64))
		ch.Tremolo.Depth = arg.(float64)
		ch.Tremolo.On = true
	case "t/=s":
		ch.TremoloSpeedRamp.SetLength(slideFrames(arg, ctx))
	case "t/=d":
		ch.TremoloDepthRamp.SetLength(slideFrames(arg, ctx))
	case "->f+":
		ch.CarryForce = true
	case "->f-":
		ch.CarryForce = false

	case "/p":
		ch.PitchRamp.SlideTo(arg.(float64))
	case "/=p":
		ch.PitchRamp.SetLength(slideFrames(arg, ctx))
	case "vs":
		ch.VibratoSpeedRamp.Set(arg.(float64))
		ch.Vibrato.SpeedHz = arg.(float64)
		ch.Vibrato.On = true
	case "vd":
		ch.VibratoDepthRamp.Set(arg.(float64))
		ch.Vibrato.Depth = arg.(float64)
		ch.Vibrato.On = true
	case "v/=s":
		ch.VibratoSpeedRamp.SetLength(slideFrames(arg, ctx))
	case "v/=d":
		ch.VibratoDepthRamp.SetLength(slideFrames(arg, ctx))
	case "->p+":
		ch.CarryPitch = true
	case "->p-":
		ch.CarryPitch = false

	case "<arp":
		ch.ArpeggioTones = ch.ArpeggioTones[:0]
		ch.ArpeggioIndex = 0
		ch.Arpeggio.Reset()
	case ".arpn":
		ch.ArpeggioTones = append(ch.ArpeggioTones, arg.(float64))
	case ".arpi":
		ch.ArpeggioIndex = int(arg.(int64))
	case ".arps":
		ch.Arpeggio.SpeedHz = arg.(float64)
	case "arp+":
		ch.Arpeggio.On = true
	case "arp-":
		ch.Arpeggio.On = false

	case ".sn":
		name := arg.(string)
		ch.StreamTarget = name
		ch.SetActiveName(channel.CategoryStream, name)
	case ".s":
		if ctx.SetStream != nil {
			ctx.SetStream(ch, setterName, arg.(float64))
		}
	case "/s", "/=s", "os", "od", "o/=s", "o/=d":
		if ctx.SlideStream != nil {
			ctx.SlideStream(ch, setterName, spec.Name, arg)
		}
	case "->s+":
		ch.SetCarry(channel.CategoryStream, true)
	case "->s-":
		ch.SetCarry(channel.CategoryStream, false)

	case ".cn":
		name := arg.(string)
		ch.SetActiveName(channel.CategoryControlVar, name)
	case ".c":
		ch.ControlVars[setterName] = arg.(float64)
	case "->c+":
		ch.SetCarry(channel.CategoryControlVar, true)
	case "->c-":
		ch.SetCarry(channel.CategoryControlVar, false)

	case ".xc":
		ch.SetActiveName(channel.CategoryChExpression, arg.(string))
	case ".x":
		ch.SetActiveName(channel.CategoryNoteExpression, arg.(string))
	case "->x+":
		ch.SetCarry(channel.CategoryNoteExpression, true)
	case "->x-":
		ch.SetCarry(channel.CategoryNoteExpression, false)

	case ".dn":
		ch.SetActiveName(channel.CategoryDeviceEvent, arg.(string))
	case "d":
		if ctx.AU != nil {
			m, _ := arg.(map[string]any)
			if m == nil {
				m = map[string]any{}
			}
			m["name"] = setterName
			ctx.AU.FireDeviceEvent(ch.AUIndex, m)
		}
	}
}

// slideFrames converts a Tstamp slide-length argument to a frame count
// at the current tempo/rate, via the callback since this package has
// no dependency on the audio rate or master tempo state.
func slideFrames(arg any, ctx *Context) int {
	ts, ok := arg.(tstamp.Tstamp)
	if !ok || ctx.FramesForTstamp == nil {
		return 0
	}
	return ctx.FramesForTstamp(ts)
}

func dispatchAU(ctx *Context, spec *Spec, arg any) {
	if ctx.AU == nil || ctx.Channel == nil {
		return
	}
	auIndex := ctx.Channel.AUIndex
	switch spec.Name {
	case "a.b":
		ctx.AU.SetBypass(auIndex, arg.(bool))
	case "a.s":
		ctx.AU.SetSustain(auIndex, arg.(bool))
	case "a.e":
		m, _ := arg.(map[string]any)
		ctx.AU.FireDeviceEvent(auIndex, m)
	}
}

func intField(m map[string]any, key string, fallback int) int {
	if m == nil {
		return fallback
	}
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return fallback
}

func tstampField(m map[string]any, key string) tstamp.Tstamp {
	if m == nil {
		return tstamp.Zero
	}
	raw, ok := m[key].([]any)
	if !ok || len(raw) != 2 {
		return tstamp.Zero
	}
	beats, _ := raw[0].(float64)
	rem, _ := raw[1].(float64)
	return tstamp.New(int64(beats), int32(rem))
}
