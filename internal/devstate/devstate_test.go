package devstate

import "testing"

func TestAddFromSumsSources(t *testing.T) {
	dst := NewPortBuffer(4)
	src1 := NewPortBuffer(4)
	src2 := NewPortBuffer(4)
	for i := range src1.Data {
		src1.Data[i] = 1
		src2.Data[i] = 2
	}
	dst.AddFrom(src1, 0, 4)
	dst.AddFrom(src2, 0, 4)
	for i, v := range dst.Data {
		if v != 3 {
			t.Fatalf("index %d: got %f want 3", i, v)
		}
	}
}

func TestClearOutputsZeroesAllPorts(t *testing.T) {
	base := NewBase(1, 44100, 8, 1, 2)
	for _, p := range base.OutPorts {
		for i := range p.Data {
			p.Data[i] = 5
		}
	}
	base.ClearOutputs(0, 8)
	for _, p := range base.OutPorts {
		for _, v := range p.Data {
			if v != 0 {
				t.Fatal("expected outputs cleared")
			}
		}
	}
}
