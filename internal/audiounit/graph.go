// Package audiounit implements the directed-acyclic processor graph
// inside an Audio Unit, and the same machinery at the module level
// for connections between Audio Units.
package audiounit

import (
	"fmt"

	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/proc"
	"github.com/kunquat/kunquat-go/internal/wbuf"
)

// Edge is one sender_port -> receiver_port connection, addressed by
// device id and port number on each end.
type Edge struct {
	SrcDevice int
	SrcPort   devstate.Port
	DstDevice int
	DstPort   devstate.Port
}

// Node is one device (processor, or nested Audio Unit at the module
// level) participating in the graph.
type Node struct {
	DeviceID int
	Base     *devstate.Base
	Mixed    proc.MixedKernel // non-nil for mixed-signal processors
	IsVoiced bool             // true if this node's signal comes from voice rendering instead of RenderMixed
}

// Graph is the DAG over processors (or Audio Units) plus a
// levelisation: every edge goes from a higher level (source) to a
// lower level (sink), with the root output at level 0.
type Graph struct {
	Nodes map[int]*Node
	Edges []Edge
	Root  int // device id whose output is the graph's root

	levels   map[int]int
	maxLevel int
	plan     [][]*Task
}

// Task is one unit of work in the Mixed signal plan: a device plus
// the bindings telling the executor which sender output buffers feed
// which of its input ports.
type Task struct {
	Node   *Node
	Inputs map[devstate.Port][]portRef
}

type portRef struct {
	deviceID int
	port     devstate.Port
}

// NewGraph builds an empty graph rooted at rootDeviceID.
func NewGraph(rootDeviceID int) *Graph {
	return &Graph{
		Nodes:  make(map[int]*Node),
		Root:   rootDeviceID,
		levels: make(map[int]int),
	}
}

// AddNode registers a device in the graph.
func (g *Graph) AddNode(n *Node) {
	g.Nodes[n.DeviceID] = n
}

// Connect adds an edge; the caller is responsible for avoiding
// duplicate edges.
func (g *Graph) Connect(e Edge) {
	g.Edges = append(g.Edges, e)
}

// Levelise assigns each node a level equal to the length of its
// longest path to a sink (a node with no outgoing edges) along
// Edges: a sink is level 0, and anything feeding a level-N node is at
// least level N+1. The root is a sink by construction (nothing may
// connect from it), so this always places it at level 0 without
// needing to special-case it, and a cycle anywhere in the graph -
// including one that loops back through the root - is caught by the
// visiting set rather than masked by pre-seeding the root's level.
func (g *Graph) Levelise() error {
	// successors[d] = devices that receive directly from d
	successors := make(map[int][]int)
	for _, e := range g.Edges {
		successors[e.SrcDevice] = append(successors[e.SrcDevice], e.DstDevice)
	}

	g.levels = make(map[int]int)
	visiting := make(map[int]bool)

	var visit func(id int) (int, error)
	visit = func(id int) (int, error) {
		if lvl, ok := g.levels[id]; ok {
			return lvl, nil
		}
		if visiting[id] {
			return 0, fmt.Errorf("audiounit: cycle detected at device %d", id)
		}
		visiting[id] = true
		defer delete(visiting, id)

		maxSucc := -1
		for _, s := range successors[id] {
			lvl, err := visit(s)
			if err != nil {
				return 0, err
			}
			if lvl > maxSucc {
				maxSucc = lvl
			}
		}
		// a node with no successors is a sink (level 0); anything
		// feeding into level-N successors sits at level N+1, so
		// "level(source) > level(sink)" holds for every edge.
		lvl := maxSucc + 1
		g.levels[id] = lvl
		return lvl, nil
	}

	// Visit every node, so nodes unreachable from the root still get a level.
	for id := range g.Nodes {
		if _, err := visit(id); err != nil {
			return err
		}
	}

	g.maxLevel = 0
	for _, lvl := range g.levels {
		if lvl > g.maxLevel {
			g.maxLevel = lvl
		}
	}

	return g.buildPlan()
}

// Level returns the levelised level of a device, or -1 if unknown.
func (g *Graph) Level(deviceID int) int {
	if lvl, ok := g.levels[deviceID]; ok {
		return lvl
	}
	return -1
}

// MaxLevel returns the highest level assigned by the last Levelise call.
func (g *Graph) MaxLevel() int { return g.maxLevel }

func (g *Graph) buildPlan() error {
	g.plan = make([][]*Task, g.maxLevel+1)

	inputsFor := make(map[int]map[devstate.Port][]portRef)
	for _, e := range g.Edges {
		if inputsFor[e.DstDevice] == nil {
			inputsFor[e.DstDevice] = make(map[devstate.Port][]portRef)
		}
		inputsFor[e.DstDevice][e.DstPort] = append(inputsFor[e.DstDevice][e.DstPort], portRef{e.SrcDevice, e.SrcPort})
	}

	for id, n := range g.Nodes {
		lvl, ok := g.levels[id]
		if !ok {
			continue
		}
		task := &Task{Node: n, Inputs: inputsFor[id]}
		g.plan[lvl] = append(g.plan[lvl], task)
	}
	return nil
}

// Execute runs the Mixed signal plan for [start, stop): from
// max_level down to 0, clear each task's outputs, sum its inputs from
// senders' output buffers, then call render_mixed (mixed-signal
// processors) or leave voice-signal nodes for the caller's voice-pool
// render pass. renderVoices is invoked once per
// voice-signal node with that node's Base, letting the player bind
// active voices bound to this processor.
func (g *Graph) Execute(wbs *wbuf.Buffers, start, stop int, renderVoices func(n *Node, start, stop int)) {
	for lvl := g.maxLevel; lvl >= 0; lvl-- {
		for _, task := range g.plan[lvl] {
			task.Node.Base.ClearOutputs(start, stop)

			for port, refs := range task.Inputs {
				dst := task.Node.Base.InPorts[port]
				if dst == nil {
					continue
				}
				dst.Clear(start, stop)
				for _, ref := range refs {
					src, ok := g.Nodes[ref.deviceID]
					if !ok {
						continue
					}
					srcBuf := src.Base.OutPorts[ref.port]
					dst.AddFrom(srcBuf, start, stop)
				}
			}

			if task.Node.IsVoiced {
				if renderVoices != nil {
					renderVoices(task.Node, start, stop)
				}
				continue
			}
			if task.Node.Mixed != nil {
				task.Node.Mixed.RenderMixed(task.Node.Base, wbs, start, stop)
			}
		}
	}
}

// RootNode returns the graph's root device node.
func (g *Graph) RootNode() *Node { return g.Nodes[g.Root] }

// SetTempo propagates the master tempo to every device state in the
// graph, read by tempo-dependent mixed kernels (Tstamp-timed delays).
func (g *Graph) SetTempo(tempo float64) {
	for _, n := range g.Nodes {
		n.Base.SetTempo(tempo)
	}
}
