package calc

import (
	"math"
	"testing"
)

func TestBodySurfaceAreaReferenceAdult(t *testing.T) {
	got := mustValue(t)(BodySurfaceArea(170, 70))
	approx(t, "bsa", got, 1.81, 0.01)
}

func TestBodySurfaceAreaMonotonic(t *testing.T) {
	prev := 0.0
	for w := 10.0; w <= 150; w += 10 {
		got := mustValue(t)(BodySurfaceArea(170, w))
		if got <= prev {
			t.Fatalf("bsa not increasing in weight at %v: %v <= %v", w, got, prev)
		}
		prev = got
	}
	prev = 0
	for h := 50.0; h <= 210; h += 10 {
		got := mustValue(t)(BodySurfaceArea(h, 70))
		if got <= prev {
			t.Fatalf("bsa not increasing in height at %v: %v <= %v", h, got, prev)
		}
		prev = got
	}
}

func TestBodySurfaceAreaRejectsInvalid(t *testing.T) {
	cases := []struct {
		name   string
		height float64
		weight float64
	}{
		{"zero height", 0, 70},
		{"zero weight", 170, 0},
		{"negative weight", 170, -1},
		{"nan height", math.NaN(), 70},
		{"inf weight", 170, math.Inf(1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BodySurfaceArea(tc.height, tc.weight)
			expectInvalid(t, err)
		})
	}
}

func TestMostellerBSA(t *testing.T) {
	got := mustValue(t)(MostellerBSA(170, 70))
	approx(t, "mosteller", got, math.Sqrt(170*70/3600.0), 1e-12)
	if _, err := MostellerBSA(-5, 10); err == nil {
		t.Fatalf("expected error for negative height")
	}
}
