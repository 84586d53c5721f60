package tstamp

import "testing"

func TestAddSubRoundTrip(t *testing.T) {
	a := New(3, 100)
	b := New(5, 700000000)
	sum := Add(a, b)
	back := Sub(sum, b)
	if Cmp(back, a) != 0 {
		t.Errorf("Add/Sub round trip: got %v, want %v", back, a)
	}
}

func TestNormalisation(t *testing.T) {
	got := New(1, -10)
	if got.Beats != 0 || got.Rem != int32(Beat)-10 {
		t.Errorf("negative rem not normalised: %+v", got)
	}

	got2 := New(0, int32(Beat)+5)
	if got2.Beats != 1 || got2.Rem != 5 {
		t.Errorf("rem overflow not normalised: %+v", got2)
	}
}

func TestCmpTotalOrder(t *testing.T) {
	a := New(1, 0)
	b := New(1, 1)
	c := New(2, 0)
	if !Less(a, b) || !Less(b, c) || !Less(a, c) {
		t.Error("expected a < b < c")
	}
	if Cmp(a, a) != 0 {
		t.Error("expected a == a")
	}
}

func TestFramesRoundTrip(t *testing.T) {
	orig := New(4, 123456)
	tempo := 120.0
	rate := 44100.0
	frames := ToFrames(orig, tempo, rate)
	back := FromFrames(frames, tempo, rate)

	// within one frame
	diff := ToFrames(back, tempo, rate) - frames
	if diff < -1.0 || diff > 1.0 {
		t.Errorf("round trip drifted by %f frames", diff)
	}
}

func TestIdleRenderIsFrameExact(t *testing.T) {
	// render(h, 0) should correspond to Tstamp_from_frames(0, ...) == Zero
	got := FromFrames(0, 120, 44100)
	if !IsZero(got) {
		t.Errorf("expected zero tstamp for 0 frames, got %v", got)
	}
}
