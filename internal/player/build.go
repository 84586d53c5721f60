package player

import (
	"fmt"

	"github.com/kunquat/kunquat-go/internal/audiounit"
	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/kqerr"
	"github.com/kunquat/kunquat-go/internal/module"
	"github.com/kunquat/kunquat-go/internal/proc"
)

// Every Audio Unit's internal connections graph owns two pseudo-devices
// that do not correspond to a loaded Processor: outID is the graph's
// root, exposing whatever reaches it as the Audio Unit's output;
// inID exposes the Audio Unit's received input (used by effects) as
// an ordinary source other processors may connect from. Both are bound
// to proc.Passthrough, which simply forwards its input ports to its
// output ports.
const (
	outID = -1
	inID  = -2
)

// OutputDeviceID is the device id a module-builder must use as the
// DstDevice of both an Audio Unit's own internal output wiring and the
// module-level Connections that feed the master bus - exported so
// callers outside this package (scene builders, the render CLI) can
// target it without duplicating the pseudo-device id as a magic number.
const OutputDeviceID = outID

// buildAUGraph materialises one Audio Unit's internal processor graph:
// one audiounit.Node per Processor (bound to the kernel proc.Build
// produces from its already-parsed parameters), plus the in/out bus
// pair, wired by the Audio Unit's own Connections and levelised.
func buildAUGraph(au *module.AudioUnit, rate, blockSize int) (*audiounit.Graph, map[int]any, error) {
	g := audiounit.NewGraph(outID)
	kernels := make(map[int]any)

	g.AddNode(&audiounit.Node{DeviceID: outID, Base: devstate.NewBase(outID, rate, blockSize, 2, 2), Mixed: &proc.Passthrough{}})
	g.AddNode(&audiounit.Node{DeviceID: inID, Base: devstate.NewBase(inID, rate, blockSize, 2, 2), Mixed: &proc.Passthrough{}})

	for _, procID := range au.Procs.Indices() {
		def := au.Procs.Get(procID)
		kernel, err := proc.Build(proc.Kind(def.Kind), def.Params)
		if err != nil {
			return nil, nil, err
		}
		kernels[procID] = kernel

		if _, isStream := kernel.(*proc.Stream); isStream {
			// streams are control-rate sources addressed through the
			// Audio Unit's stream map; the player routes their output
			// into the shared control buffers, not through the audio graph.
			continue
		}

		node := &audiounit.Node{DeviceID: procID, Base: devstate.NewBase(procID, rate, blockSize, 2, 2)}
		if def.Signal == module.SignalVoice {
			node.IsVoiced = true
		} else {
			mixed, ok := kernel.(proc.MixedKernel)
			if !ok {
				return nil, nil, kqerr.NewHere(kqerr.FormatError,
					fmt.Sprintf("processor %d (%s) declares a mixed signal type but its kernel has no RenderMixed", procID, def.Kind))
			}
			node.Mixed = mixed
		}
		g.AddNode(node)
	}

	for _, e := range au.Connections {
		g.Connect(e)
	}
	if err := g.Levelise(); err != nil {
		return nil, nil, kqerr.NewHere(kqerr.FormatError, err.Error())
	}
	return g, kernels, nil
}

// buildModuleGraph materialises the module-level graph: one node per
// Audio Unit (composite devices whose own content comes from running
// their internal graph, reusing the IsVoiced hook for that purpose)
// plus the master output bus, wired by the module's own Connections.
func buildModuleGraph(mod *module.Module, rate, blockSize int) (*audiounit.Graph, error) {
	g := audiounit.NewGraph(outID)
	g.AddNode(&audiounit.Node{DeviceID: outID, Base: devstate.NewBase(outID, rate, blockSize, 2, 2), Mixed: &proc.Passthrough{}})

	for _, auID := range mod.AUs.Indices() {
		g.AddNode(&audiounit.Node{DeviceID: auID, Base: devstate.NewBase(auID, rate, blockSize, 2, 2), IsVoiced: true})
	}
	for _, e := range mod.Connections {
		g.Connect(e)
	}
	if err := g.Levelise(); err != nil {
		return nil, kqerr.NewHere(kqerr.FormatError, err.Error())
	}
	return g, nil
}

// buildGraphs builds every Audio Unit's internal graph and the
// module-level graph connecting them. Building is transactional in
// the spirit of §7: the first FormatError aborts the whole build.
func buildGraphs(mod *module.Module, rate, blockSize int) (*audiounit.Graph, map[int]*audiounit.Graph, map[int]map[int]any, error) {
	auGraphs := make(map[int]*audiounit.Graph)
	auKernels := make(map[int]map[int]any)

	for _, auID := range mod.AUs.Indices() {
		au := mod.AUs.Get(auID)
		g, kernels, err := buildAUGraph(au, rate, blockSize)
		if err != nil {
			return nil, nil, nil, err
		}
		auGraphs[auID] = g
		auKernels[auID] = kernels
	}

	moduleGraph, err := buildModuleGraph(mod, rate, blockSize)
	if err != nil {
		return nil, nil, nil, err
	}
	return moduleGraph, auGraphs, auKernels, nil
}

func copyRange(dst, src *devstate.PortBuffer, start, stop int) {
	if dst == nil || src == nil {
		return
	}
	for i := start; i < stop && i < len(dst.Data) && i < len(src.Data); i++ {
		dst.Data[i] = src.Data[i]
	}
}
