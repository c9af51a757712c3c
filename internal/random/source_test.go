package random

import (
	"math"
	"testing"
)

func TestSource_SameSeedSameStream(t *testing.T) {
	a := New(42)
	b := New(42)

	for i := 0; i < 1000; i++ {
		switch i % 4 {
		case 0:
			if a.Uniform() != b.Uniform() {
				t.Fatalf("draw %d: Uniform diverged", i)
			}
		case 1:
			if a.Intn(1000) != b.Intn(1000) {
				t.Fatalf("draw %d: Intn diverged", i)
			}
		case 2:
			if a.Bool() != b.Bool() {
				t.Fatalf("draw %d: Bool diverged", i)
			}
		case 3:
			if a.LogNormal(-5, 1) != b.LogNormal(-5, 1) {
				t.Fatalf("draw %d: LogNormal diverged", i)
			}
		}
	}
	if a.Draws() != 1000 || b.Draws() != 1000 {
		t.Errorf("Expected 1000 draws each, got %d and %d", a.Draws(), b.Draws())
	}
}

func TestSource_Ranges(t *testing.T) {
	s := New(7)
	for i := 0; i < 10000; i++ {
		u := s.Uniform()
		if u < 0 || u >= 1 {
			t.Fatalf("Uniform out of range: %v", u)
		}
		n := s.Intn(3)
		if n < 0 || n >= 3 {
			t.Fatalf("Intn out of range: %d", n)
		}
		ln := s.LogNormal(-5, 1)
		if ln <= 0 || math.IsInf(ln, 0) {
			t.Fatalf("LogNormal must be positive and finite: %v", ln)
		}
	}
}

func TestSource_IntnPanicsOnNonPositiveBound(t *testing.T) {
	for _, n := range []int{0, -1} {
		func() {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Intn(%d) should panic", n)
				}
			}()
			New(1).Intn(n)
		}()
	}
}

func TestSource_DifferentSeeds(t *testing.T) {
	a := New(1)
	b := New(2)
	same := 0
	for i := 0; i < 100; i++ {
		if a.Uniform() == b.Uniform() {
			same++
		}
	}
	if same == 100 {
		t.Error("Different seeds should not produce identical streams")
	}
}
