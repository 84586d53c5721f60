// Package devstate implements per-device, per-port audio buffers and
// the base device state every processor instance embeds.
package devstate

// Port identifies one input or output port of a device.
type Port int

// PortBuffer is a single port's sample buffer, with a range
// annotation: [NonConstLo, NonConstHi) is the part of the buffer known
// to hold real signal. Clear resets both bounds to 0 and AddFrom raises
// NonConstHi to the stop of the range it summed; no kernel reads the
// annotation.
type PortBuffer struct {
	Data       []float32
	NonConstLo int // first index known to hold real signal
	NonConstHi int // one past the last index known to hold real signal
}

// NewPortBuffer allocates a silent buffer of the given block size.
func NewPortBuffer(blockSize int) *PortBuffer {
	return &PortBuffer{Data: make([]float32, blockSize)}
}

// Clear resets the buffer to silence across [start, stop) and drops
// the const-range annotation.
func (p *PortBuffer) Clear(start, stop int) {
	for i := start; i < stop && i < len(p.Data); i++ {
		p.Data[i] = 0
	}
	p.NonConstLo = 0
	p.NonConstHi = 0
}

// AddFrom sums src's [start:stop) range into this buffer's same
// range, implementing "every input is the sum of its sources."
func (p *PortBuffer) AddFrom(src *PortBuffer, start, stop int) {
	if src == nil {
		return
	}
	for i := start; i < stop && i < len(p.Data) && i < len(src.Data); i++ {
		p.Data[i] += src.Data[i]
	}
	if stop > p.NonConstHi {
		p.NonConstHi = stop
	}
}

// Base is the common state every device instance (processor or audio
// unit) holds: audio rate, block size, current tempo, and its port
// buffers. Processor- and audio-unit-specific state embeds Base.
type Base struct {
	DeviceID   int
	Rate       int
	BlockSize  int
	Tempo      float64
	InPorts    map[Port]*PortBuffer
	OutPorts   map[Port]*PortBuffer
}

// NewBase constructs a Base with the given number of in/out ports
// pre-allocated at blockSize.
func NewBase(deviceID, rate, blockSize, numIn, numOut int) *Base {
	b := &Base{
		DeviceID:  deviceID,
		Rate:      rate,
		BlockSize: blockSize,
		Tempo:     120,
		InPorts:   make(map[Port]*PortBuffer, numIn),
		OutPorts:  make(map[Port]*PortBuffer, numOut),
	}
	for i := 0; i < numIn; i++ {
		b.InPorts[Port(i)] = NewPortBuffer(blockSize)
	}
	for i := 0; i < numOut; i++ {
		b.OutPorts[Port(i)] = NewPortBuffer(blockSize)
	}
	return b
}

// ClearOutputs zeroes every output port's [start, stop) range; called
// once per device per block before pulling inputs and rendering, so
// that "every output port is written by exactly one clear+fill pass."
func (b *Base) ClearOutputs(start, stop int) {
	for _, p := range b.OutPorts {
		p.Clear(start, stop)
	}
}

// SetTempo updates the device's cached tempo, read by per-frame
// tempo-dependent processors (e.g. delay-time-in-Tstamp kernels).
func (b *Base) SetTempo(tempo float64) { b.Tempo = tempo }
