package module

import (
	"github.com/kunquat/kunquat-go/internal/audiounit"
	"github.com/kunquat/kunquat-go/internal/cgiter"
	"github.com/kunquat/kunquat-go/internal/event"
	"github.com/kunquat/kunquat-go/internal/master"
	"github.com/kunquat/kunquat-go/internal/tstamp"
)

// SignalType selects which of a Processor's two render signatures is valid.
type SignalType int

const (
	SignalVoice SignalType = iota
	SignalMixed
)

// ProcessorDef is a leaf device definition: its kernel kind, signal
// type, and type-specific parameters loaded from p_<type>_<key>.json
// documents.
type ProcessorDef struct {
	Kind   string
	Signal SignalType
	Params map[string]any
}

// AudioUnitKind distinguishes instruments (voice sources) from effects
// (mixed-signal processors only).
type AudioUnitKind int

const (
	AUInstrument AudioUnitKind = iota
	AUEffect
)

// AudioUnit is a container for processors with its own internal
// connection graph, optional expression/event/hit maps, and optional
// named streams.
type AudioUnit struct {
	Kind        AudioUnitKind
	Procs       *Table[ProcessorDef]
	Connections []audiounit.Edge

	// ExpressionFilters maps a channel- or note-expression name to the
	// set of processor indices enabled while it is active; absent
	// means "all processors enabled".
	ExpressionFilters map[string][]int
	// EventMap remaps an external event name to a per-processor event name.
	EventMap map[string]string
	// HitMap maps a numbered percussion hit to a device event name.
	HitMap map[int]string
	// Streams maps a named control-rate output to its owning processor index.
	Streams map[string]int
}

// NewAudioUnit creates an Audio Unit with empty maps ready to populate.
func NewAudioUnit(kind AudioUnitKind) *AudioUnit {
	return &AudioUnit{
		Kind:              kind,
		Procs:             NewTable[ProcessorDef](),
		ExpressionFilters: make(map[string][]int),
		EventMap:          make(map[string]string),
		HitMap:            make(map[int]string),
		Streams:           make(map[string]int),
	}
}

// EnabledProcs returns the set of processor indices enabled under the
// given note- and channel-expression names, or nil when every
// processor is enabled (no filters defined, or none match the active
// expressions).
func (au *AudioUnit) EnabledProcs(noteExpr, chExpr string) map[int]bool {
	if len(au.ExpressionFilters) == 0 {
		return nil
	}
	var enabled map[int]bool
	for _, name := range []string{noteExpr, chExpr} {
		procs, ok := au.ExpressionFilters[name]
		if !ok {
			continue
		}
		if enabled == nil {
			enabled = make(map[int]bool)
		}
		for _, p := range procs {
			enabled[p] = true
		}
	}
	return enabled
}

// PatternInstanceRef (piref) identifies one played instance of a
// pattern; two songs (or two positions in one song) may reference the
// same pattern through different instance ids, each with independent
// jump-counter state.
type PatternInstanceRef struct {
	PatternID  int
	InstanceID int
}

// MaxColumns is the number of trigger columns a pattern may have.
const MaxColumns = 64

// Pattern is a fixed-length section of music with up to MaxColumns
// trigger columns.
type Pattern struct {
	Length  tstamp.Tstamp
	Columns [MaxColumns]*cgiter.Column
}

// NewPattern creates a pattern of the given length with empty columns.
func NewPattern(length tstamp.Tstamp) *Pattern {
	p := &Pattern{Length: length}
	for i := range p.Columns {
		p.Columns[i] = &cgiter.Column{}
	}
	return p
}

// Song is an ordered sequence of pattern instances to play.
type Song struct {
	OrderList []PatternInstanceRef
}

// EnvVarType is the declared type of one Environment variable.
type EnvVarType int

const (
	EnvBool EnvVarType = iota
	EnvInt
	EnvFloat
	EnvString
)

// EnvVar is one typed global variable a score may reference from
// trigger arguments.
type EnvVar struct {
	Type  EnvVarType
	Value any
}

// Environment holds the module's typed global variables.
type Environment struct {
	Vars map[string]*EnvVar
}

// NewEnvironment creates an empty Environment.
func NewEnvironment() *Environment {
	return &Environment{Vars: make(map[string]*EnvVar)}
}

// Set stores or replaces a variable.
func (e *Environment) Set(name string, t EnvVarType, value any) {
	e.Vars[name] = &EnvVar{Type: t, Value: value}
}

// Get returns a variable's value and whether it exists.
func (e *Environment) Get(name string) (any, bool) {
	v, ok := e.Vars[name]
	if !ok {
		return nil, false
	}
	return v.Value, true
}

// ControlMap routes control indices to Audio Units: a control index
// addresses at most one Audio Unit, but one Audio Unit may receive
// several control indices (layered instruments).
type ControlMap struct {
	controlToAU map[int]int
	auToControl map[int][]int
}

// NewControlMap creates an empty control map.
func NewControlMap() *ControlMap {
	return &ControlMap{controlToAU: make(map[int]int), auToControl: make(map[int][]int)}
}

// Set routes controlIndex to auIndex.
func (c *ControlMap) Set(controlIndex, auIndex int) {
	if prevAU, ok := c.controlToAU[controlIndex]; ok {
		c.removeFromReverse(prevAU, controlIndex)
	}
	c.controlToAU[controlIndex] = auIndex
	c.auToControl[auIndex] = append(c.auToControl[auIndex], controlIndex)
}

func (c *ControlMap) removeFromReverse(auIndex, controlIndex int) {
	controls := c.auToControl[auIndex]
	for i, ci := range controls {
		if ci == controlIndex {
			c.auToControl[auIndex] = append(controls[:i], controls[i+1:]...)
			break
		}
	}
}

// AUFor returns the Audio Unit a control index routes to.
func (c *ControlMap) AUFor(controlIndex int) (int, bool) {
	au, ok := c.controlToAU[controlIndex]
	return au, ok
}

// ControlsFor returns every control index that routes to auIndex.
func (c *ControlMap) ControlsFor(auIndex int) []int {
	return c.auToControl[auIndex]
}

// Module is the read-only, post-load score: Audio Units, the
// module-level connections graph, songs, patterns, tuning tables, the
// bind table, environment variables, and the control map.
type Module struct {
	AUs         *Table[AudioUnit]
	Connections []audiounit.Edge
	Songs       []*Song
	Patterns    *Table[Pattern]
	Tunings     *Table[master.TuningTable]
	Bind        *event.Bind
	Env         *Environment
	Control     *ControlMap
}

// New creates an empty Module ready for a loader to populate.
func New() *Module {
	return &Module{
		AUs:      NewTable[AudioUnit](),
		Patterns: NewTable[Pattern](),
		Tunings:  NewTable[master.TuningTable](),
		Bind:     event.NewBind(),
		Env:      NewEnvironment(),
		Control:  NewControlMap(),
	}
}
