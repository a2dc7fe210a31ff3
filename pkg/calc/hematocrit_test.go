package calc

import (
	"errors"
	"testing"
)

func TestPostPrimingHematocrit(t *testing.T) {
	got := mustValue(t)(PostPrimingHematocrit(40, 1500, 5250))
	approx(t, "hct", got, 40*3750.0/5250, 1e-9)

	same := mustValue(t)(PostPrimingHematocrit(40, 0, 5250))
	approx(t, "no prime", same, 40, 1e-12)
}

func TestPostPrimingHematocritNeverExceedsInput(t *testing.T) {
	for _, priming := range []float64{0, 100, 800, 2000, 4000} {
		got := mustValue(t)(PostPrimingHematocrit(35, priming, 5000))
		if got > 35 || got < 0 {
			t.Fatalf("priming %v: hct %v out of [0,35]", priming, got)
		}
	}
}

func TestPostPrimingHematocritStrictlyDecreasesWithPrime(t *testing.T) {
	prev := mustValue(t)(PostPrimingHematocrit(35, 0, 5000))
	for priming := 1.0; priming < 5000; priming += 7 {
		got := mustValue(t)(PostPrimingHematocrit(35, priming, 5000))
		if got >= prev {
			t.Fatalf("priming %v: hct %v not below %v", priming, got, prev)
		}
		prev = got
	}
}

func TestPostPrimingHematocritRejects(t *testing.T) {
	cases := []struct {
		name                string
		hct, priming, total float64
	}{
		{"total equals prime", 40, 1500, 1500},
		{"total below prime", 40, 2000, 1500},
		{"zero total", 40, 0, 0},
		{"negative prime", 40, -1, 5000},
		{"hct above 100", 120, 0, 5000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := PostPrimingHematocrit(tc.hct, tc.priming, tc.total)
			expectInvalid(t, err)
			var inErr *InputError
			var rangeErr *RangeError
			if !errors.As(err, &inErr) && !errors.As(err, &rangeErr) {
				t.Fatalf("expected typed input error, got %T", err)
			}
		})
	}
}

func TestMixedHematocrit(t *testing.T) {
	got := mustValue(t)(MixedHematocrit(30, 500, 4500))
	approx(t, "mixed", got, 27, 1e-9)
	_, err := MixedHematocrit(30, 500, 0)
	expectInvalid(t, err)
}
