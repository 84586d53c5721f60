// Package cgiter implements the column-group iterator: a cursor that
// walks one pattern column's sorted trigger rows, handed a distance
// budget each render step and asked to report or consume the row it
// lands on.
package cgiter

import "github.com/kunquat/kunquat-go/internal/tstamp"

// Trigger is one fired event at a row: a name and its still-raw JSON
// argument, re-parsed at fire time rather than at load.
type Trigger struct {
	Name       string
	RawArgJSON string
}

// Row is every trigger queued at one position in a column.
type Row struct {
	Pos      tstamp.Tstamp
	Triggers []Trigger
}

// Column is a sorted, ties-preserve-insertion-order list of trigger rows.
type Column struct {
	Rows []Row
}

// Cgiter scans one Column of one pattern instance.
type Cgiter struct {
	column *Column
	length tstamp.Tstamp

	pos    tstamp.Tstamp
	rowIdx int

	rowReturned bool
}

// New builds a Cgiter over column, whose containing pattern has the
// given length.
func New(column *Column, length tstamp.Tstamp) *Cgiter {
	c := &Cgiter{column: column, length: length}
	c.Init()
	return c
}

// Init resets the cursor to the start of the pattern (row [0,0]).
func (c *Cgiter) Init() {
	c.pos = tstamp.Zero
	c.rowIdx = 0
	c.rowReturned = false
}

// Reset seeks the cursor to pos, without touching the returned-row
// latch — callers that need rows at the landing position to fire
// again (e.g. after a jump) must call ClearReturnedStatus too.
func (c *Cgiter) Reset(pos tstamp.Tstamp) {
	c.pos = pos
	c.rowIdx = 0
	c.syncRowIdx()
}

// Pos returns the cursor's current position.
func (c *Cgiter) Pos() tstamp.Tstamp { return c.pos }

func (c *Cgiter) syncRowIdx() {
	for c.rowIdx < len(c.column.Rows) && tstamp.Less(c.column.Rows[c.rowIdx].Pos, c.pos) {
		c.rowIdx++
	}
}

// GetTriggerRow returns the row at the exact current position, or nil
// if there is none there or the latch is still set from a previous
// return (this is what stops a zero-length advance from re-firing the
// same row's triggers).
func (c *Cgiter) GetTriggerRow() *Row {
	c.syncRowIdx()
	if c.rowReturned {
		return nil
	}
	if c.rowIdx >= len(c.column.Rows) {
		return nil
	}
	row := &c.column.Rows[c.rowIdx]
	if tstamp.Cmp(row.Pos, c.pos) != 0 {
		return nil
	}
	c.rowReturned = true
	return row
}

// ClearReturnedStatus allows the row at the current position to be
// returned again, used after a jump lands back on an already-visited row.
func (c *Cgiter) ClearReturnedStatus() {
	c.rowReturned = false
}

// GetLocalBPDist returns the distance until the next row in this
// column, or the end of the pattern, whichever is smaller; dist also
// caps the result. A row at the exact current position counts only
// while it has not been returned yet; once fired, the next breakpoint
// is the row after it.
func (c *Cgiter) GetLocalBPDist(dist tstamp.Tstamp) tstamp.Tstamp {
	c.syncRowIdx()

	best := dist
	toEnd := tstamp.Sub(c.length, c.pos)
	if tstamp.Less(toEnd, best) {
		best = toEnd
	}

	idx := c.rowIdx
	if c.rowReturned && idx < len(c.column.Rows) && tstamp.Cmp(c.column.Rows[idx].Pos, c.pos) == 0 {
		idx++
	}
	if idx < len(c.column.Rows) {
		toRow := tstamp.Sub(c.column.Rows[idx].Pos, c.pos)
		if tstamp.Less(toRow, best) {
			best = toRow
		}
	}
	if best.Beats < 0 {
		return tstamp.Zero
	}
	return best
}

// Move advances the cursor by dist, releasing the returned-row latch
// once the cursor genuinely leaves the row it fired. The caller
// (Master's render loop) is responsible for never crossing a trigger
// row: dist must come from GetLocalBPDist or be smaller.
func (c *Cgiter) Move(dist tstamp.Tstamp) {
	if tstamp.IsZero(dist) {
		return
	}
	c.pos = tstamp.Add(c.pos, dist)
	c.rowReturned = false
	c.syncRowIdx()
}

// HasFinished reports whether the cursor has reached the end of the
// pattern.
func (c *Cgiter) HasFinished() bool {
	return !tstamp.Less(c.pos, c.length)
}
