package event

// Expansion is one event a Bind substitutes in for a matched name:
// macro-like composition of several real events behind one trigger.
type Expansion struct {
	Name       string
	RawArgJSON string
}

// Bind maps an event name to the list of events it expands into. A
// name with no entry expands to nothing extra; the originating
// trigger always still fires on its own.
type Bind struct {
	Expansions map[string][]Expansion
}

// NewBind builds an empty Bind table.
func NewBind() *Bind {
	return &Bind{Expansions: make(map[string][]Expansion)}
}

// Add registers that firing name should also queue the given expansions.
func (b *Bind) Add(name string, expansions ...Expansion) {
	b.Expansions[name] = append(b.Expansions[name], expansions...)
}

// FireWithBind fires name, then any bound expansions in order,
// injected at the same position before the caller advances to the
// next row.
func FireWithBind(ctx *Context, bind *Bind, name, rawArgJSON string) bool {
	ok := Trigger(ctx, name, rawArgJSON)
	if bind == nil {
		return ok
	}
	for _, exp := range bind.Expansions[name] {
		Trigger(ctx, exp.Name, exp.RawArgJSON)
	}
	return ok
}
