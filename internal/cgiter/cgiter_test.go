package cgiter

import (
	"testing"

	"github.com/kunquat/kunquat-go/internal/tstamp"
)

func testColumn() *Column {
	return &Column{Rows: []Row{
		{Pos: tstamp.New(0, 0), Triggers: []Trigger{{Name: "n+", RawArgJSON: "0"}}},
		{Pos: tstamp.New(4, 0), Triggers: []Trigger{{Name: "mj", RawArgJSON: "{}"}}},
		{Pos: tstamp.New(8, 0), Triggers: []Trigger{{Name: "n-", RawArgJSON: "null"}}},
	}}
}

func TestGetTriggerRowReturnsOnceUntilCleared(t *testing.T) {
	c := New(testColumn(), tstamp.New(16, 0))

	row := c.GetTriggerRow()
	if row == nil || row.Triggers[0].Name != "n+" {
		t.Fatalf("expected row 0 trigger, got %+v", row)
	}
	if c.GetTriggerRow() != nil {
		t.Fatal("expected nil on re-query of already-returned row")
	}
	c.ClearReturnedStatus()
	if c.GetTriggerRow() == nil {
		t.Fatal("expected row to be returnable again after ClearReturnedStatus")
	}
}

func TestMoveAdvancesToNextRow(t *testing.T) {
	c := New(testColumn(), tstamp.New(16, 0))
	c.GetTriggerRow()

	dist := c.GetLocalBPDist(tstamp.New(100, 0))
	if tstamp.Cmp(dist, tstamp.New(4, 0)) != 0 {
		t.Fatalf("expected local distance of 4 beats to next row, got %v", dist)
	}
	c.Move(dist)
	if tstamp.Cmp(c.Pos(), tstamp.New(4, 0)) != 0 {
		t.Fatalf("expected cursor at beat 4, got %v", c.Pos())
	}
	row := c.GetTriggerRow()
	if row == nil || row.Triggers[0].Name != "mj" {
		t.Fatalf("expected jump trigger row, got %+v", row)
	}
}

func TestHasFinishedAtPatternEnd(t *testing.T) {
	c := New(testColumn(), tstamp.New(8, 0))
	c.Move(tstamp.New(8, 0))
	if !c.HasFinished() {
		t.Fatal("expected cursor at pattern length to report finished")
	}
}

func TestResetSeeksWithoutAutoClearingReturnedStatus(t *testing.T) {
	c := New(testColumn(), tstamp.New(16, 0))
	c.GetTriggerRow() // consumes row 0

	c.Move(tstamp.New(4, 0))
	c.GetTriggerRow() // consumes row at beat 4

	c.Reset(tstamp.New(0, 0))
	if c.GetTriggerRow() != nil {
		t.Fatal("expected row 0 to still be latched as returned after Reset")
	}
	c.ClearReturnedStatus()
	if c.GetTriggerRow() == nil {
		t.Fatal("expected row 0 after explicit ClearReturnedStatus")
	}
}
