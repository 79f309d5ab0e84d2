package ring

import "testing"

func TestSPSCPushPopOrder(t *testing.T) {
	r := New[int](4)
	for i := 0; i < 4; i++ {
		if !r.Push(i) {
			t.Fatalf("Push(%d) failed unexpectedly", i)
		}
	}
	if r.Push(4) {
		t.Error("Push succeeded on a full ring")
	}
	for i := 0; i < 4; i++ {
		v, ok := r.Pop()
		if !ok || v != i {
			t.Errorf("Pop() = (%d, %v), want (%d, true)", v, ok, i)
		}
	}
	if _, ok := r.Pop(); ok {
		t.Error("Pop() succeeded on an empty ring")
	}
}

func TestSPSCCapacityRoundsUpToPowerOfTwo(t *testing.T) {
	r := New[int](5)
	if r.Cap() != 8 {
		t.Errorf("Cap() = %d, want 8", r.Cap())
	}
}

func TestSPSCLenTracksOccupancy(t *testing.T) {
	r := New[int](8)
	r.Push(1)
	r.Push(2)
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	r.Pop()
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}
