package balance

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

const tol = 1e-9

func TestPolarRectRoundTrip(t *testing.T) {
	for _, amp := range []float64{0.5, 1, 10, 123.4} {
		for phase := 0.0; phase < 360; phase += 7.5 {
			got := Polar{Amplitude: amp, Phase: phase}.Rect().Polar()
			if !scalar.EqualWithinAbsOrRel(got.Amplitude, amp, tol, tol) {
				t.Fatalf("Expected amplitude %.6f for phase %.1f, got %.6f", amp, phase, got.Amplitude)
			}
			diff := NormalizeDegrees(got.Phase - phase)
			if diff > 180 {
				diff = 360 - diff
			}
			if diff > 1e-6 {
				t.Fatalf("Expected phase %.4f (mod 360), got %.4f", phase, got.Phase)
			}
		}
	}
}

func TestRectPolarKeepsQuadrant(t *testing.T) {
	cases := []struct {
		r     Rect
		phase float64
	}{
		{Rect{Re: 1, Im: 1}, 45},
		{Rect{Re: -1, Im: 1}, 135},
		{Rect{Re: -1, Im: -1}, -135},
		{Rect{Re: 1, Im: -1}, -45},
		{Rect{Re: -10, Im: 15}, 123.69006752597979},
	}
	for _, c := range cases {
		got := c.r.Polar()
		if !scalar.EqualWithinAbs(got.Phase, c.phase, 1e-9) {
			t.Errorf("Expected phase %.4f for %+v, got %.4f", c.phase, c.r, got.Phase)
		}
	}
}

func TestRectPolarOrigin(t *testing.T) {
	got := Rect{}.Polar()
	if got.Amplitude != 0 || got.Phase != 0 {
		t.Fatalf("Expected origin to map to 0 @ 0, got %v", got)
	}
}

func TestNormalizeDegrees(t *testing.T) {
	cases := map[float64]float64{
		0:       0,
		360:     0,
		370:     10,
		-90:     270,
		-360:    0,
		-720.5:  359.5,
		236.31:  236.31,
		1080.25: 0.25,
	}
	for in, want := range cases {
		got := NormalizeDegrees(in)
		if !scalar.EqualWithinAbs(got, want, 1e-9) {
			t.Errorf("NormalizeDegrees(%v): expected %v, got %v", in, want, got)
		}
		if got < 0 || got >= 360 {
			t.Errorf("NormalizeDegrees(%v) out of range: %v", in, got)
		}
	}
	if got := NormalizeDegrees(-1e-15); got != 0 && (got < 0 || got >= 360) {
		t.Errorf("Expected tiny negative angle to stay in range, got %v", got)
	}
	if !math.IsNaN(NormalizeDegrees(math.NaN())) {
		t.Errorf("Expected NaN to pass through")
	}
}
