package wbuf

import "testing"

func TestClearZeroesRange(t *testing.T) {
	b := New(64)
	buf := b.Get(KindForce)
	for i := range buf {
		buf[i] = 1
	}
	b.Clear(KindForce, 0, 32)
	for i := 0; i < 32; i++ {
		if buf[i] != 0 {
			t.Fatalf("index %d not cleared", i)
		}
	}
	for i := 32; i < 64; i++ {
		if buf[i] != 1 {
			t.Fatalf("index %d unexpectedly cleared", i)
		}
	}
}

func TestClearAllCoversEverySlot(t *testing.T) {
	b := New(8)
	for k := Kind(0); k < kindCount; k++ {
		buf := b.Get(k)
		for i := range buf {
			buf[i] = 9
		}
	}
	b.ClearAll(0, 8)
	for k := Kind(0); k < kindCount; k++ {
		buf := b.Get(k)
		for _, v := range buf {
			if v != 0 {
				t.Fatalf("slot %d not cleared", k)
			}
		}
	}
}
