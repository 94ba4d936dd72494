package rng

import "testing"

func TestNew_Deterministic(t *testing.T) {
	a, b := New(7), New(7)
	for i := 0; i < 100; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
	}
}

func TestUniform_Bounds(t *testing.T) {
	src := New(1)
	for i := 0; i < 10000; i++ {
		v := Uniform(src, 0.995, 1.005)
		if v < 0.995 || v >= 1.005 {
			t.Fatalf("Uniform out of range: %v", v)
		}
	}
}

func TestFloor(t *testing.T) {
	src := NewSequence(0, 0.999999, 0.5)
	if got := Floor(src, 10); got != 0 {
		t.Errorf("Floor(0) = %d, want 0", got)
	}
	if got := Floor(src, 10); got != 9 {
		t.Errorf("Floor(0.999999) = %d, want 9", got)
	}
	if got := Floor(src, 10); got != 5 {
		t.Errorf("Floor(0.5) = %d, want 5", got)
	}
}

func TestSequence_Wraps(t *testing.T) {
	s := NewSequence(0.1, 0.2)
	want := []float64{0.1, 0.2, 0.1}
	for i, w := range want {
		if got := s.Float64(); got != w {
			t.Errorf("draw %d = %v, want %v", i, got, w)
		}
	}
	if got := NewSequence().Float64(); got != 0.5 {
		t.Errorf("empty sequence = %v, want 0.5", got)
	}
}
