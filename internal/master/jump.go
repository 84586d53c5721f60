package master

import "github.com/kunquat/kunquat-go/internal/tstamp"

// JumpKey identifies one specific occurrence of a jump trigger: the
// same event name can recur every time playback loops back over it,
// and each occurrence tracks its own remaining counter.
type JumpKey struct {
	PatternID    int
	Row          tstamp.Tstamp
	Channel      int
	TriggerIndex int
}

// JumpContext is the live state of one jump occurrence.
type JumpContext struct {
	Counter         int
	TargetPatternID int
	TargetRow       tstamp.Tstamp
}
