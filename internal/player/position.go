package player

import "github.com/kunquat/kunquat-go/internal/tstamp"

// GetPositionNS returns the current playback position in nanoseconds,
// computed from the current tempo rather than tracked independently;
// exact only while the tempo has been constant since the start of the
// current pattern, since a tempo slide's intermediate steps are not
// otherwise recorded against wall-clock time.
func (h *Handle) GetPositionNS() int64 {
	frames := tstamp.ToFrames(h.Master.CurPos, h.Master.Tempo, float64(h.Rate))
	return int64(frames / float64(h.Rate) * 1e9)
}

// SetPositionNS seeks to the nearest representable position at or
// before targetNS, assuming the current tempo throughout —
// an approximation for any pattern containing tempo slides, since
// recovering the exact tempo at an arbitrary offset would require
// replaying every slide from the start of the song. A target inside
// the current pattern seeks within it; any other target restarts at
// the first order-list entry and seeks within that pattern only.
func (h *Handle) SetPositionNS(targetNS int64) error {
	frames := float64(targetNS) / 1e9 * float64(h.Rate)
	target := tstamp.FromFrames(frames, h.Master.Tempo, float64(h.Rate))

	if h.curPattern != nil && tstamp.Less(target, h.curPattern.Length) {
		h.seekPattern(target)
		return nil
	}

	if err := h.gotoOrderIndex(0, 0); err != nil {
		return err
	}
	h.seekPattern(target)
	return nil
}

// GetDuration estimates the song's length in nanoseconds at the
// current tempo, walking the order list and summing each referenced
// pattern's length; this is a single-tempo estimate, not an exact
// figure, since any mid-song tempo slide shifts
// the true wall-clock duration.
func (h *Handle) GetDuration(songIdx int) int64 {
	if songIdx < 0 || songIdx >= len(h.Module.Songs) {
		return 0
	}
	song := h.Module.Songs[songIdx]
	total := tstamp.Zero
	for _, ref := range song.OrderList {
		pattern := h.Module.Patterns.Get(ref.PatternID)
		if pattern == nil {
			continue
		}
		total = tstamp.Add(total, pattern.Length)
	}
	frames := tstamp.ToFrames(total, h.Master.Tempo, float64(h.Rate))
	return int64(frames / float64(h.Rate) * 1e9)
}
