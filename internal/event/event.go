// Package event implements the event name table and trigger dispatch:
// looking up a fired event name, validating and re-parsing its
// argument, and routing it to the channel, master, or Audio Unit state
// it addresses.
package event

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/kunquat/kunquat-go/internal/channel"
	"github.com/kunquat/kunquat-go/internal/tstamp"
)

// Category groups event names by the state they address.
type Category string

const (
	CategoryControl Category = "control"
	CategoryGeneral Category = "general"
	CategoryMaster  Category = "master"
	CategoryChannel Category = "channel"
	CategoryAU      Category = "au"
)

// ParamType names the shape an event's argument is parsed into.
type ParamType int

const (
	ParamNone ParamType = iota
	ParamBool
	ParamInt
	ParamFloat
	ParamString
	ParamTstamp
	ParamJSON // arbitrary object, decoded into map[string]any
)

// Validator rejects an otherwise well-typed argument, e.g. range checks.
type Validator func(arg any) bool

// Spec is one row of the event name table: a name maps to exactly one
// EventType/category/argument-shape/validator tuple.
type Spec struct {
	Name     string
	Category Category
	Param    ParamType
	Validate Validator

	// HasNameSetter means this event consumes the channel's last
	// active name in NameSetterCategory instead of (or alongside) its
	// own argument — e.g. ".s" addresses whichever stream ".sn" last
	// named.
	HasNameSetter      bool
	NameSetterCategory channel.NameCategory
}

// Table is the event name table: every recognised name maps to its Spec.
var Table = map[string]*Spec{
	// control
	"stop": {Name: "stop", Category: CategoryControl, Param: ParamNone},

	// general
	"#":     {Name: "#", Category: CategoryGeneral, Param: ParamString},
	"pause": {Name: "pause", Category: CategoryGeneral, Param: ParamTstamp},

	// master
	"m.t":  {Name: "m.t", Category: CategoryMaster, Param: ParamFloat, Validate: positive},
	"m/=t": {Name: "m/=t", Category: CategoryMaster, Param: ParamTstamp},
	"m.v":  {Name: "m.v", Category: CategoryMaster, Param: ParamFloat},
	"m/=v": {Name: "m/=v", Category: CategoryMaster, Param: ParamTstamp},
	"mj":   {Name: "mj", Category: CategoryMaster, Param: ParamJSON},
	"mg":   {Name: "mg", Category: CategoryMaster, Param: ParamJSON},
	"ms":   {Name: "ms", Category: CategoryMaster, Param: ParamFloat},

	// channel: note/hit, named per Event_channel_types.h in the
	// original's authoritative lib/ tree (".a" = set_au_input, "n+" =
	// note_on, "h" = hit, "n-" = note_off).
	".a": {Name: ".a", Category: CategoryChannel, Param: ParamInt, Validate: nonNegative},
	"n+": {Name: "n+", Category: CategoryChannel, Param: ParamFloat},
	"h":  {Name: "h", Category: CategoryChannel, Param: ParamInt, Validate: nonNegative},
	"n-": {Name: "n-", Category: CategoryChannel, Param: ParamNone},

	// channel: force (".f" set, "/f"+"/=f" slide, "ts"/"td" tremolo
	// speed/depth, "t/=s"/"t/=d" tremolo slides, "->f+"/"->f-" carry).
	".f":   {Name: ".f", Category: CategoryChannel, Param: ParamFloat, Validate: positive},
	"/f":   {Name: "/f", Category: CategoryChannel, Param: ParamFloat, Validate: positive},
	"/=f":  {Name: "/=f", Category: CategoryChannel, Param: ParamTstamp},
	"ts":   {Name: "ts", Category: CategoryChannel, Param: ParamFloat, Validate: nonNegative},
	"td":   {Name: "td", Category: CategoryChannel, Param: ParamFloat, Validate: nonNegative},
	"t/=s": {Name: "t/=s", Category: CategoryChannel, Param: ParamTstamp},
	"t/=d": {Name: "t/=d", Category: CategoryChannel, Param: ParamTstamp},
	"->f+": {Name: "->f+", Category: CategoryChannel, Param: ParamNone},
	"->f-": {Name: "->f-", Category: CategoryChannel, Param: ParamNone},

	// channel: pitch ("/p"+"/=p" slide, "vs"/"vd" vibrato speed/depth,
	// "v/=s"/"v/=d" vibrato slides, "->p+"/"->p-" carry).
	"/p":   {Name: "/p", Category: CategoryChannel, Param: ParamFloat},
	"/=p":  {Name: "/=p", Category: CategoryChannel, Param: ParamTstamp},
	"vs":   {Name: "vs", Category: CategoryChannel, Param: ParamFloat, Validate: nonNegative},
	"vd":   {Name: "vd", Category: CategoryChannel, Param: ParamFloat, Validate: nonNegative},
	"v/=s": {Name: "v/=s", Category: CategoryChannel, Param: ParamTstamp},
	"v/=d": {Name: "v/=d", Category: CategoryChannel, Param: ParamTstamp},
	"->p+": {Name: "->p+", Category: CategoryChannel, Param: ParamNone},
	"->p-": {Name: "->p-", Category: CategoryChannel, Param: ParamNone},

	// channel: arpeggio.
	"<arp":  {Name: "<arp", Category: CategoryChannel, Param: ParamNone},
	".arpn": {Name: ".arpn", Category: CategoryChannel, Param: ParamFloat},
	".arpi": {Name: ".arpi", Category: CategoryChannel, Param: ParamInt, Validate: nonNegative},
	".arps": {Name: ".arps", Category: CategoryChannel, Param: ParamFloat, Validate: positive},
	"arp+":  {Name: "arp+", Category: CategoryChannel, Param: ParamNone},
	"arp-":  {Name: "arp-", Category: CategoryChannel, Param: ParamNone},

	// channel: stream (named control-rate target addressed by ".sn";
	// ".s" sets instantly, "/s"+"/=s" slides, "os"/"od" LFO
	// speed/depth, "o/=s"/"o/=d" LFO slides, "->s+"/"->s-" carry).
	".sn": {Name: ".sn", Category: CategoryChannel, Param: ParamString},
	".s": {
		Name: ".s", Category: CategoryChannel, Param: ParamFloat,
		HasNameSetter: true, NameSetterCategory: channel.CategoryStream,
	},
	"/s": {
		Name: "/s", Category: CategoryChannel, Param: ParamFloat,
		HasNameSetter: true, NameSetterCategory: channel.CategoryStream,
	},
	"/=s": {
		Name: "/=s", Category: CategoryChannel, Param: ParamTstamp,
		HasNameSetter: true, NameSetterCategory: channel.CategoryStream,
	},
	"os": {
		Name: "os", Category: CategoryChannel, Param: ParamFloat, Validate: nonNegative,
		HasNameSetter: true, NameSetterCategory: channel.CategoryStream,
	},
	"od": {
		Name: "od", Category: CategoryChannel, Param: ParamFloat, Validate: nonNegative,
		HasNameSetter: true, NameSetterCategory: channel.CategoryStream,
	},
	"o/=s": {
		Name: "o/=s", Category: CategoryChannel, Param: ParamTstamp,
		HasNameSetter: true, NameSetterCategory: channel.CategoryStream,
	},
	"o/=d": {
		Name: "o/=d", Category: CategoryChannel, Param: ParamTstamp,
		HasNameSetter: true, NameSetterCategory: channel.CategoryStream,
	},
	"->s+": {
		Name: "->s+", Category: CategoryChannel, Param: ParamNone,
		HasNameSetter: true, NameSetterCategory: channel.CategoryStream,
	},
	"->s-": {
		Name: "->s-", Category: CategoryChannel, Param: ParamNone,
		HasNameSetter: true, NameSetterCategory: channel.CategoryStream,
	},

	// channel: control variables (addressed by ".cn", same
	// name/value/carry shape as streams but routed to Channel_cv_state
	// rather than a Stream processor).
	".cn": {Name: ".cn", Category: CategoryChannel, Param: ParamString},
	".c": {
		Name: ".c", Category: CategoryChannel, Param: ParamFloat,
		HasNameSetter: true, NameSetterCategory: channel.CategoryControlVar,
	},
	"->c+": {
		Name: "->c+", Category: CategoryChannel, Param: ParamNone,
		HasNameSetter: true, NameSetterCategory: channel.CategoryControlVar,
	},
	"->c-": {
		Name: "->c-", Category: CategoryChannel, Param: ParamNone,
		HasNameSetter: true, NameSetterCategory: channel.CategoryControlVar,
	},

	// channel: channel- and note-expression selection.
	".xc":  {Name: ".xc", Category: CategoryChannel, Param: ParamString},
	".x":   {Name: ".x", Category: CategoryChannel, Param: ParamString},
	"->x+": {Name: "->x+", Category: CategoryChannel, Param: ParamNone},
	"->x-": {Name: "->x-", Category: CategoryChannel, Param: ParamNone},

	// channel: device events (".dn" names the target, "d" fires it
	// with an optional realtime argument routed through the owning
	// Audio Unit's event map).
	".dn": {Name: ".dn", Category: CategoryChannel, Param: ParamString},
	"d": {
		Name: "d", Category: CategoryChannel, Param: ParamJSON,
		HasNameSetter: true, NameSetterCategory: channel.CategoryDeviceEvent,
	},

	// au
	"a.b": {Name: "a.b", Category: CategoryAU, Param: ParamBool},
	"a.s": {Name: "a.s", Category: CategoryAU, Param: ParamBool},
	"a.e": {Name: "a.e", Category: CategoryAU, Param: ParamJSON},
}

func positive(arg any) bool {
	f, ok := arg.(float64)
	return ok && f > 0
}

func nonNegative(arg any) bool {
	switch v := arg.(type) {
	case int64:
		return v >= 0
	case float64:
		return v >= 0
	}
	return false
}

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// parseArg re-parses rawArgJSON according to the declared shape. This
// runs on every fire, not once at load, because the score may
// reference environment and random variables resolved by the caller
// before the JSON ever reaches here.
func parseArg(param ParamType, rawArgJSON string) (any, error) {
	switch param {
	case ParamNone:
		return nil, nil
	case ParamBool:
		var v bool
		err := jsonAPI.UnmarshalFromString(rawArgJSON, &v)
		return v, err
	case ParamInt:
		var v int64
		err := jsonAPI.UnmarshalFromString(rawArgJSON, &v)
		return v, err
	case ParamFloat:
		var v float64
		err := jsonAPI.UnmarshalFromString(rawArgJSON, &v)
		return v, err
	case ParamString:
		var v string
		err := jsonAPI.UnmarshalFromString(rawArgJSON, &v)
		return v, err
	case ParamTstamp:
		var pair [2]int64
		if err := jsonAPI.UnmarshalFromString(rawArgJSON, &pair); err != nil {
			return nil, err
		}
		return tstamp.New(pair[0], int32(pair[1])), nil
	case ParamJSON:
		var v map[string]any
		err := jsonAPI.UnmarshalFromString(rawArgJSON, &v)
		return v, err
	default:
		return nil, nil
	}
}
