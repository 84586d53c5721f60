package proc

import (
	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/wbuf"
)

// Passthrough is the sentinel kernel bound to the two pseudo-devices
// every Audio Unit's internal connections graph owns: its "in" bus
// (device id -2, exposing the Audio Unit's received input to internal
// processors as an ordinary source) and its "out" bus (device id -1,
// the graph's root, whose input is by definition the Audio Unit's
// output). Both simply copy whatever was summed onto their input
// ports through to their output ports.
type Passthrough struct{}

func (p *Passthrough) Kind() Kind { return KindOutput }

func (p *Passthrough) RenderMixed(base *devstate.Base, wbs *wbuf.Buffers, start, stop int) {
	for _, port := range []devstate.Port{PortLeft, PortRight} {
		in := base.InPorts[port]
		out := base.OutPorts[port]
		if in == nil || out == nil {
			continue
		}
		for i := start; i < stop && i < len(in.Data) && i < len(out.Data); i++ {
			out.Data[i] = in.Data[i]
		}
	}
}
