package channel

import "testing"

func TestRampSlidesLinearlyThenHoldsTarget(t *testing.T) {
	r := NewRamp(0)
	r.SlideTo(10)
	r.SetLength(10)

	v := r.Advance(5)
	if v <= 0 || v >= 10 {
		t.Fatalf("expected partial progress, got %v", v)
	}

	v = r.Advance(5)
	if v != 10 {
		t.Fatalf("expected ramp to settle exactly at target, got %v", v)
	}
	if r.active {
		t.Fatalf("expected ramp to be inactive once target reached")
	}

	v = r.Advance(5)
	if v != 10 {
		t.Fatalf("expected advancing a finished ramp to hold target, got %v", v)
	}
}

func TestRampSetJumpsInstantly(t *testing.T) {
	r := NewRamp(1)
	r.SlideTo(5)
	r.SetLength(100)
	r.Set(2)
	if r.Value() != 2 {
		t.Fatalf("expected Set to override an in-progress slide, got %v", r.Value())
	}
	if r.Advance(10) != 2 {
		t.Fatalf("expected no further movement after Set")
	}
}

func TestRampZeroLengthJumpsImmediately(t *testing.T) {
	r := NewRamp(0)
	r.SlideTo(8)
	r.SetLength(0)
	if r.Value() != 8 {
		t.Fatalf("expected zero-length slide to jump immediately, got %v", r.Value())
	}
}
