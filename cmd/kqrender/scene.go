package main

import (
	"github.com/kunquat/kunquat-go/internal/audiounit"
	"github.com/kunquat/kunquat-go/internal/cgiter"
	"github.com/kunquat/kunquat-go/internal/module"
	"github.com/kunquat/kunquat-go/internal/player"
	"github.com/kunquat/kunquat-go/internal/proc"
	"github.com/kunquat/kunquat-go/internal/tstamp"
)

// demoModule builds a small in-memory module for the render harness to
// play, standing in for the module file-format loader (out of scope,
// spec §1): one instrument Audio Unit wrapping a sine processor,
// wired straight to the module output, with a four-beat pattern that
// plays two one-beat notes (A4 at 0 cents, then 700 cents above it),
// each followed by a one-beat rest.
func demoModule() *module.Module {
	au := module.NewAudioUnit(module.AUInstrument)
	au.Procs.Set(0, &module.ProcessorDef{
		Kind:   string(proc.KindSine),
		Signal: module.SignalVoice,
		Params: map[string]any{"mid_freq": 440.0},
	})
	au.Connections = []audiounit.Edge{
		{SrcDevice: 0, SrcPort: proc.PortLeft, DstDevice: player.OutputDeviceID, DstPort: proc.PortLeft},
		{SrcDevice: 0, SrcPort: proc.PortRight, DstDevice: player.OutputDeviceID, DstPort: proc.PortRight},
	}

	mod := module.New()
	mod.AUs.Set(0, au)
	mod.Connections = []audiounit.Edge{
		{SrcDevice: 0, SrcPort: proc.PortLeft, DstDevice: player.OutputDeviceID, DstPort: proc.PortLeft},
		{SrcDevice: 0, SrcPort: proc.PortRight, DstDevice: player.OutputDeviceID, DstPort: proc.PortRight},
	}

	pattern := module.NewPattern(tstamp.New(4, 0))
	pattern.Columns[0].Rows = []cgiter.Row{
		{Pos: tstamp.Zero, Triggers: []cgiter.Trigger{{Name: "n+", RawArgJSON: "0"}}},
		{Pos: tstamp.New(1, 0), Triggers: []cgiter.Trigger{{Name: "n-"}}},
		{Pos: tstamp.New(2, 0), Triggers: []cgiter.Trigger{{Name: "n+", RawArgJSON: "700"}}},
		{Pos: tstamp.New(3, 0), Triggers: []cgiter.Trigger{{Name: "n-"}}},
	}
	mod.Patterns.Set(0, pattern)
	mod.Songs = []*module.Song{{OrderList: []module.PatternInstanceRef{{PatternID: 0, InstanceID: 0}}}}

	return mod
}
