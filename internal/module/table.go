// Package module implements the read-only, post-load data model: the
// Audio Unit / Processor / Pattern tables, the Connections graph
// description, Songs and their order lists, tuning tables, the Bind
// table, typed Environment variables, and control-index routing.
package module

// Table is a sparse, index-addressed collection: Audio Units,
// Processors, and Patterns are numbered 0..max but entries may be
// absent (deleted or never assigned), so a plain slice would waste
// space or panic on an arbitrary index.
type Table[T any] struct {
	entries map[int]*T
}

// NewTable creates an empty table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{entries: make(map[int]*T)}
}

// Set stores value at index, replacing anything already there.
func (t *Table[T]) Set(index int, value *T) {
	t.entries[index] = value
}

// Get returns the entry at index, or nil if absent.
func (t *Table[T]) Get(index int) *T {
	return t.entries[index]
}

// Remove deletes the entry at index, if any.
func (t *Table[T]) Remove(index int) {
	delete(t.entries, index)
}

// Count returns the number of present entries.
func (t *Table[T]) Count() int {
	return len(t.entries)
}

// Indices returns the present indices in ascending order.
func (t *Table[T]) Indices() []int {
	out := make([]int, 0, len(t.entries))
	for i := range t.entries {
		out = append(out, i)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
