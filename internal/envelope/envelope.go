// Package envelope implements piecewise-linear envelopes with node
// interpolation and lookup, as used by envelope-driven force/pitch/
// filter shaping processors.
package envelope

import (
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// Node is one (x, y) control point of an envelope. Nodes are ordered
// by X; the envelope loader is responsible for sorting them on load
// since node lists are re-used unchanged at playback.
type Node struct {
	X float64
	Y float64
}

// Envelope is an ordered list of nodes plus the loop/release markers
// the original format stores alongside them.
type Envelope struct {
	Nodes      []Node
	LoopStart  int // index into Nodes, -1 for no loop
	LoopEnd    int
	IsLooping  bool
	MarkerNode int // release-trigger node index, -1 if absent
}

// New builds an Envelope from nodes, sorting them by X.
func New(nodes []Node) *Envelope {
	sorted := make([]Node, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })
	return &Envelope{Nodes: sorted, LoopStart: -1, LoopEnd: -1, MarkerNode: -1}
}

// firstLastX returns the X range covered by the envelope.
func (e *Envelope) firstLastX() (float64, float64) {
	if len(e.Nodes) == 0 {
		return 0, 0
	}
	return e.Nodes[0].X, e.Nodes[len(e.Nodes)-1].X
}

// blendScalar linearly interpolates between a and b at parameter t
// using go-colorful's RGB blend, packing each scalar into the red
// channel of a throwaway color. go-colorful's BlendRgb already
// implements exactly the "interpolate between two values given a
// parametric t" arithmetic an envelope segment needs; this reuses it
// instead of re-deriving lerp.
func blendScalar(a, b, t float64) float64 {
	ca := colorful.Color{R: a, G: 0, B: 0}
	cb := colorful.Color{R: b, G: 0, B: 0}
	return ca.BlendRgb(cb, t).R
}

// At evaluates the envelope at position x using linear segment
// interpolation between the two bracketing nodes. Values before the
// first node or after the last node clamp to the edge node's Y.
func (e *Envelope) At(x float64) float64 {
	if len(e.Nodes) == 0 {
		return 0
	}
	if len(e.Nodes) == 1 {
		return e.Nodes[0].Y
	}

	first, last := e.firstLastX()
	if x <= first {
		return e.Nodes[0].Y
	}
	if x >= last && !e.IsLooping {
		return e.Nodes[len(e.Nodes)-1].Y
	}

	if e.IsLooping && e.LoopStart >= 0 && e.LoopEnd > e.LoopStart && e.LoopEnd < len(e.Nodes) {
		loopFirst := e.Nodes[e.LoopStart].X
		loopLast := e.Nodes[e.LoopEnd].X
		span := loopLast - loopFirst
		if span > 0 && x > loopLast {
			offset := x - loopFirst
			x = loopFirst + mod(offset, span)
		}
	}

	idx := sort.Search(len(e.Nodes), func(i int) bool { return e.Nodes[i].X >= x })
	if idx == 0 {
		return e.Nodes[0].Y
	}
	if idx >= len(e.Nodes) {
		return e.Nodes[len(e.Nodes)-1].Y
	}

	prev, next := e.Nodes[idx-1], e.Nodes[idx]
	if next.X == prev.X {
		return next.Y
	}
	t := (x - prev.X) / (next.X - prev.X)
	return blendScalar(prev.Y, next.Y, t)
}

func mod(a, b float64) float64 {
	m := a - b*float64(int64(a/b))
	if m < 0 {
		m += b
	}
	return m
}

// Force returns a standard ADSR-shaped force envelope in the
// (time-seconds, level) domain. No processor factory falls back to it
// when an env-force parameter is absent.
func Force(attack, decay, sustain, release float64) *Envelope {
	return New([]Node{
		{X: 0, Y: 0},
		{X: attack, Y: 1},
		{X: attack + decay, Y: sustain},
		{X: attack + decay + release, Y: 0},
	})
}
