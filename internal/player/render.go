package player

import (
	"math"

	"github.com/kunquat/kunquat-go/internal/audiounit"
	"github.com/kunquat/kunquat-go/internal/channel"
	"github.com/kunquat/kunquat-go/internal/cgiter"
	"github.com/kunquat/kunquat-go/internal/devstate"
	"github.com/kunquat/kunquat-go/internal/event"
	"github.com/kunquat/kunquat-go/internal/kqerr"
	"github.com/kunquat/kunquat-go/internal/master"
	"github.com/kunquat/kunquat-go/internal/module"
	"github.com/kunquat/kunquat-go/internal/proc"
	"github.com/kunquat/kunquat-go/internal/tstamp"
	"github.com/kunquat/kunquat-go/internal/voice"
	"github.com/kunquat/kunquat-go/internal/wbuf"
)

// Render advances playback by up to nframes and returns the number of
// frames actually produced (less than nframes only once playback has
// stopped). Each iteration fires every trigger sitting at the current
// position, consumes any jump/goto request that firing produced, and
// otherwise advances to the nearest of: the next trigger row in any
// channel, the end of the current pattern, the tempo/volume slider's
// next 1/24-beat slice, or the caller's remaining frame budget. A
// pending pattern delay suspends trigger firing and cursor movement
// while audio keeps rendering.
func (h *Handle) Render(nframes int) (int, error) {
	if nframes <= 0 {
		return 0, nil
	}
	if cap(h.outL) < nframes {
		h.outL = make([]float32, nframes)
		h.outR = make([]float32, nframes)
	} else {
		h.outL = h.outL[:nframes]
		h.outR = h.outR[:nframes]
	}

	rendered := 0
	for rendered < nframes {
		if h.Stopped {
			break
		}

		if tstamp.IsZero(h.Master.DelayLeft) {
			h.fireRow()
		}

		moved := false
		if target, ok := h.Master.ConsumeGoto(); ok {
			h.seekPattern(target)
			moved = true
		} else if target, ok := h.Master.ConsumeJump(); ok {
			h.seekPattern(target)
			moved = true
		} else if !h.Stopped {
			remaining := nframes - rendered
			capDist := tstamp.FromFrames(float64(remaining), h.Master.Tempo, float64(h.Rate))

			if !tstamp.IsZero(h.Master.DelayLeft) {
				// pattern delay: audio time passes, musical time stands still.
				d := tstamp.Min(h.Master.DelayLeft, capDist)
				if h.Master.SlidesActive() && tstamp.Less(master.SliceLength, d) {
					d = master.SliceLength
				}
				frameCount := int(tstamp.ToFrames(d, h.Master.Tempo, float64(h.Rate)) + 0.5)
				if frameCount > remaining {
					frameCount = remaining
				}
				if frameCount > 0 {
					h.renderBlock(rendered, frameCount)
					rendered += frameCount
				}
				h.advanceSlides(d)
				h.Master.DelayLeft = tstamp.Sub(h.Master.DelayLeft, d)
				moved = true
			} else {
				dist := h.minTriggerDistance(capDist)
				frameCount := int(tstamp.ToFrames(dist, h.Master.Tempo, float64(h.Rate)) + 0.5)
				if frameCount > remaining {
					frameCount = remaining
				}

				if frameCount > 0 || !tstamp.IsZero(dist) {
					if frameCount > 0 {
						h.renderBlock(rendered, frameCount)
						rendered += frameCount
					}
					for _, c := range h.Cgiters {
						c.Move(dist)
					}
					h.advanceSlides(dist)
					h.Master.CurPos = tstamp.Add(h.Master.CurPos, dist)
					moved = true
				} else if h.allColumnsFinished() {
					if err := h.advanceOrder(); err != nil {
						h.setError(err)
						h.Stopped = true
						break
					}
					moved = true
				}
			}
		}

		if err := h.Master.NoteAdvance(moved); err != nil {
			h.setError(err)
			h.Stopped = true
			break
		}
		if !moved {
			break
		}
	}

	h.lastRendered = rendered
	return rendered, nil
}

// rowResume records where a pattern delay suspended trigger firing:
// the remainder of the row resumes once the delay has elapsed, before
// any later channel's row fires.
type rowResume struct {
	ch   int
	row  *cgiter.Row
	next int
}

// fireRow fires every trigger sitting exactly at the current cursor
// position, across every channel's column in column-index order, each
// column's triggers in insertion order. A row suspended mid-way by a
// pattern delay is resumed first on the next call.
func (h *Handle) fireRow() {
	startCh := 0
	if h.pending != nil {
		p := h.pending
		h.pending = nil
		if !h.fireTriggers(p.ch, p.row, p.next) {
			return
		}
		startCh = p.ch + 1
	}
	for i := startCh; i < len(h.Channels) && i < len(h.Cgiters); i++ {
		row := h.Cgiters[i].GetTriggerRow()
		if row == nil {
			continue
		}
		if !h.fireTriggers(i, row, 0) {
			return
		}
	}
}

// fireTriggers fires row's triggers on channel chIdx starting at index
// first, reporting false if a pattern delay suspended the row partway;
// the remainder is stashed for the next fireRow call.
func (h *Handle) fireTriggers(chIdx int, row *cgiter.Row, first int) bool {
	ch := h.Channels[chIdx]
	h.Master.CurChannel = chIdx
	for ti := first; ti < len(row.Triggers); ti++ {
		tr := row.Triggers[ti]
		h.Master.CurTrigger = ti
		event.FireWithBind(h.eventCtxFor(ch), h.Module.Bind, tr.Name, tr.RawArgJSON)
		h.Events = append(h.Events, FiredEvent{
			Pos:     [2]int64{row.Pos.Beats, int64(row.Pos.Rem)},
			Channel: chIdx,
			Name:    tr.Name,
		})
		if !tstamp.IsZero(h.Master.DelayLeft) {
			h.pending = &rowResume{ch: chIdx, row: row, next: ti + 1}
			return false
		}
	}
	return true
}

// minTriggerDistance returns the smallest of: cap, the tempo/volume
// slider's slice granularity (if a slide is active), and every
// column's distance to its next row or the pattern end.
func (h *Handle) minTriggerDistance(cap tstamp.Tstamp) tstamp.Tstamp {
	best := cap
	if h.Master.SlidesActive() && tstamp.Less(master.SliceLength, best) {
		best = master.SliceLength
	}
	for _, c := range h.Cgiters {
		d := c.GetLocalBPDist(best)
		if tstamp.Less(d, best) {
			best = d
		}
	}
	return best
}

// advanceSlides credits dist against the slide-slice accumulator and
// applies a slider step for each full 1/24-beat slice covered.
func (h *Handle) advanceSlides(dist tstamp.Tstamp) {
	if !h.Master.SlidesActive() {
		return
	}
	h.sliceAcc = tstamp.Add(h.sliceAcc, dist)
	for !tstamp.Less(h.sliceAcc, master.SliceLength) {
		h.Master.ApplySlideSlice()
		h.sliceAcc = tstamp.Sub(h.sliceAcc, master.SliceLength)
		if !h.Master.SlidesActive() {
			h.sliceAcc = tstamp.Zero
			break
		}
	}
}

// allColumnsFinished reports whether every column has reached the end
// of the current pattern.
func (h *Handle) allColumnsFinished() bool {
	if len(h.Cgiters) == 0 {
		return false
	}
	for _, c := range h.Cgiters {
		if !c.HasFinished() {
			return false
		}
	}
	return true
}

// seekPattern relocates every column's cursor to target within the
// current pattern (jump/goto), clearing the returned-row latch so a
// trigger row at the landing position fires again. A row suspended by
// a pattern delay is abandoned rather than resumed at the new position.
func (h *Handle) seekPattern(target tstamp.Tstamp) {
	h.Master.CurPos = target
	h.pending = nil
	for _, c := range h.Cgiters {
		c.Reset(target)
		c.ClearReturnedStatus()
	}
}

// gotoOrderIndex seeks playback to the given song and order-list
// index, rebuilding the column iterators over the referenced
// pattern. Running past the last song or an empty order list stops
// playback rather than erroring, matching "end of score" rather than
// a malformed score.
func (h *Handle) gotoOrderIndex(songIdx, orderIdx int) error {
	if songIdx < 0 || songIdx >= len(h.Module.Songs) {
		h.Stopped = true
		return nil
	}
	song := h.Module.Songs[songIdx]
	if orderIdx < 0 || orderIdx >= len(song.OrderList) {
		return h.gotoOrderIndex(songIdx+1, 0)
	}

	ref := song.OrderList[orderIdx]
	pattern := h.Module.Patterns.Get(ref.PatternID)
	if pattern == nil {
		return kqerr.NewHere(kqerr.FormatError, "player: order list references an unknown pattern")
	}

	h.curSongIdx = songIdx
	h.curOrderIdx = orderIdx
	h.curPatternInstance = ref
	h.curPattern = pattern

	h.Master.CurPatternID = ref.PatternID
	h.Master.CurPos = tstamp.Zero
	h.pending = nil

	h.Cgiters = make([]*cgiter.Cgiter, len(h.Channels))
	for i := range h.Channels {
		colIdx := i
		if colIdx >= module.MaxColumns {
			colIdx = module.MaxColumns - 1
		}
		h.Cgiters[i] = cgiter.New(pattern.Columns[colIdx], pattern.Length)
	}
	return nil
}

// advanceOrder moves to the next order-list position in the current song.
func (h *Handle) advanceOrder() error {
	return h.gotoOrderIndex(h.curSongIdx, h.curOrderIdx+1)
}

func (h *Handle) channelByID(id int) *channel.State {
	if id >= 0 && id < len(h.Channels) {
		return h.Channels[id]
	}
	return nil
}

// renderBlock renders frameCount frames starting at global offset
// into the Handle's output buffers, in chunks no larger than
// BlockSize since every device's port buffers are only that large.
func (h *Handle) renderBlock(offset, frameCount int) {
	pos := 0
	for pos < frameCount {
		chunk := frameCount - pos
		if chunk > h.BlockSize {
			chunk = h.BlockSize
		}
		h.renderChunk(h.outL[offset+pos:offset+pos+chunk], h.outR[offset+pos:offset+pos+chunk], chunk)
		pos += chunk
	}
}

// renderChunk executes the module-level graph once over [0, n), copies
// its root's output into dstL/dstR, and applies the master volume.
func (h *Handle) renderChunk(dstL, dstR []float32, n int) {
	h.renderSeq++
	h.moduleGraph.SetTempo(h.Master.Tempo)
	for _, g := range h.auGraphs {
		g.SetTempo(h.Master.Tempo)
	}
	h.fillStreamBuffers(0, n)

	h.moduleGraph.Execute(h.wbs, 0, n, h.renderAUComposite)

	root := h.moduleGraph.RootNode()
	copyOut(dstL, root.Base.OutPorts[proc.PortLeft], n)
	copyOut(dstR, root.Base.OutPorts[proc.PortRight], n)

	if gain := float32(math.Pow(10, h.Master.Volume/20)); gain != 1 {
		for i := 0; i < n && i < len(dstL); i++ {
			dstL[i] *= gain
		}
		for i := 0; i < n && i < len(dstR); i++ {
			dstR[i] *= gain
		}
	}

	h.Voices.PromoteNewToFg()
}

func copyOut(dst []float32, src *devstate.PortBuffer, n int) {
	if src == nil {
		for i := 0; i < n && i < len(dst); i++ {
			dst[i] = 0
		}
		return
	}
	for i := 0; i < n && i < len(dst) && i < len(src.Data); i++ {
		dst[i] = src.Data[i]
	}
}

// streamBufferKind maps a conventional stream name to the shared
// control buffer the stream's target kernel reads per-frame.
func streamBufferKind(name string) (wbuf.Kind, bool) {
	switch name {
	case "cutoff":
		return wbuf.KindFilterCutoff, true
	case "resonance":
		return wbuf.KindFilterResonance, true
	case "feedback":
		return wbuf.KindScratch1, true
	case "mix":
		return wbuf.KindScratch2, true
	default:
		return 0, false
	}
}

// fillStreamBuffers advances every named stream by one chunk, routing
// its control-rate output into the shared buffer its target processor
// reads. Streams are addressed through the Audio Unit's stream map
// rather than the audio graph, so this is their one render call per chunk.
func (h *Handle) fillStreamBuffers(start, stop int) {
	for auID, kernels := range h.auKernels {
		au := h.Module.AUs.Get(auID)
		if au == nil {
			continue
		}
		for name, procID := range au.Streams {
			s, ok := kernels[procID].(*proc.Stream)
			if !ok {
				continue
			}
			kind, ok := streamBufferKind(name)
			if !ok {
				continue
			}
			s.Fill(h.wbs.Get(kind), float64(h.Rate), start, stop)
		}
	}
}

// renderAUComposite is the module-level graph's renderVoices callback:
// an Audio Unit node's content comes from running its own internal
// graph rather than from any single kernel. The Audio Unit's received
// input is copied into its internal "in" bus ahead of time so internal
// consumers see this chunk's signal regardless of the order Execute's
// levelised plan happens to visit them in; the internal graph's root
// ("out" bus) is always processed last since Levelise pins the root at
// level 0, so no such copy is needed on the way out.
func (h *Handle) renderAUComposite(n *audiounit.Node, start, stop int) {
	if h.auState(n.DeviceID).Bypass {
		for _, port := range []devstate.Port{proc.PortLeft, proc.PortRight} {
			copyRange(n.Base.OutPorts[port], n.Base.InPorts[port], start, stop)
		}
		return
	}

	auGraph := h.auGraphs[n.DeviceID]
	if auGraph == nil {
		return
	}

	if inNode, ok := auGraph.Nodes[inID]; ok {
		for _, port := range []devstate.Port{proc.PortLeft, proc.PortRight} {
			copyRange(inNode.Base.InPorts[port], n.Base.InPorts[port], start, stop)
			copyRange(inNode.Base.OutPorts[port], inNode.Base.InPorts[port], start, stop)
		}
	}

	auGraph.Execute(h.wbs, start, stop, h.makeVoiceRenderer(n.DeviceID))

	if outNode, ok := auGraph.Nodes[outID]; ok {
		for _, port := range []devstate.Port{proc.PortLeft, proc.PortRight} {
			copyRange(n.Base.OutPorts[port], outNode.Base.OutPorts[port], start, stop)
		}
	}
}

// makeVoiceRenderer returns the internal graph's renderVoices callback
// for the Audio Unit auID: for each voice-signal node it renders every
// active voice bound to that processor slot into a shared scratch
// buffer, then sums the scratch into the node's output, giving the
// commutative "voice outputs are summed" rule regardless of pool order.
func (h *Handle) makeVoiceRenderer(auID int) func(n *audiounit.Node, start, stop int) {
	return func(n *audiounit.Node, start, stop int) {
		procID := n.DeviceID
		scratch := map[devstate.Port]*devstate.PortBuffer{
			proc.PortLeft:  h.scratchL,
			proc.PortRight: h.scratchR,
		}
		sustain := h.auState(auID).Sustain

		h.Voices.ForEachSlot(func(idx int, v *voice.Voice) {
			if v.Priority() == voice.PriorityInactive {
				return
			}
			if v.AUIndex != auID || v.ProcID != procID {
				return
			}
			ch := h.channelByID(v.ChannelID)
			if ch == nil || v.Kernel == nil {
				return
			}

			h.fillControlBuffers(ch, start, stop)
			h.scratchL.Clear(start, stop)
			h.scratchR.Clear(start, stop)

			ctl := &proc.Control{WBS: h.wbs, Rate: float64(h.Rate), Tempo: h.Master.Tempo}
			newStop := v.Kernel.RenderVoice(v.State, ctl, start, stop, scratch)

			n.Base.OutPorts[proc.PortLeft].AddFrom(h.scratchL, start, newStop)
			n.Base.OutPorts[proc.PortRight].AddFrom(h.scratchR, start, newStop)

			if newStop < stop && newStop <= v.KeepAliveStop() {
				newStop = stop
			}
			if newStop < stop && !sustain {
				h.Voices.Deactivate(idx)
			}
		})
	}
}

// fillControlBuffers writes the channel's current pitch/force/pan
// targets into the shared control-rate buffers every voice kernel
// reads from. Vibrato/tremolo LFOs and the channel's slide ramps
// advance exactly once per render chunk regardless of how many of the
// channel's voices call this, since every voice on one channel shares
// one note's pitch.
func (h *Handle) fillControlBuffers(ch *channel.State, start, stop int) {
	if ch.ControlSeq != h.renderSeq {
		ch.ControlSeq = h.renderSeq
		n := stop - start
		ch.Vibrato.SpeedHz = ch.VibratoSpeedRamp.Advance(n)
		ch.Vibrato.Depth = ch.VibratoDepthRamp.Advance(n)
		ch.Tremolo.SpeedHz = ch.TremoloSpeedRamp.Advance(n)
		ch.Tremolo.Depth = ch.TremoloDepthRamp.Advance(n)
		ch.VibratoOffset = ch.Vibrato.Advance(n, float64(h.Rate))
		ch.TremoloOffset = ch.Tremolo.Advance(n, float64(h.Rate))
		ch.Arpeggio.Advance(n, float64(h.Rate))

		ch.CurrentPitchHz = ch.PitchRamp.Advance(n)
		ch.CurrentForce = ch.ForceRamp.Advance(n)
	}

	arpCents := 0.0
	if ch.Arpeggio.On && len(ch.ArpeggioTones) > 0 {
		n := len(ch.ArpeggioTones)
		step := (ch.ArpeggioIndex + int(ch.Arpeggio.Phase()*float64(n))) % n
		arpCents = ch.ArpeggioTones[step]
	}

	pitchHz := ch.CurrentPitchHz * math.Pow(2, ch.VibratoOffset/12.0+arpCents/1200.0)
	force := ch.CurrentForce * math.Pow(10, ch.TremoloOffset/20.0)

	pitchBuf := h.wbs.Get(wbuf.KindPitch)
	forceBuf := h.wbs.Get(wbuf.KindForce)
	panBuf := h.wbs.Get(wbuf.KindPan)
	for i := start; i < stop; i++ {
		if i < len(pitchBuf) {
			pitchBuf[i] = float32(pitchHz)
		}
		if i < len(forceBuf) {
			forceBuf[i] = float32(force)
		}
		if i < len(panBuf) {
			panBuf[i] = float32(ch.CurrentPan)
		}
	}
}
