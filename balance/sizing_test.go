package balance

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestPredictTrialWeightScenarioC(t *testing.T) {
	s := Sizing{RotorSpeedRPM: 3600, BalancingRadiusIn: 5, RotorWeightLb: 2000, TrialWeightPercentage: 5}
	tw, err := PredictTrialWeight(s)
	if err != nil {
		t.Fatalf("PredictTrialWeight failed: %v", err)
	}

	force := 0.05 * 2000 * 0.45359237 * 9.81
	omega := 3600 * 2 * math.Pi / 60
	wantOz := 35.27396195 * force / (5 * 0.0245 * omega * omega)
	wantG := 1000 * force / (5 * 0.0245 * omega * omega)

	if !scalar.EqualWithinAbsOrRel(tw.Ounces, wantOz, 1e-12, 1e-12) {
		t.Errorf("Expected %.10f oz, got %.10f", wantOz, tw.Ounces)
	}
	if !scalar.EqualWithinAbsOrRel(tw.Grams, wantG, 1e-12, 1e-12) {
		t.Errorf("Expected %.10f g, got %.10f", wantG, tw.Grams)
	}
	if !scalar.EqualWithinAbs(tw.Ounces, 0.9016, 0.0005) {
		t.Errorf("Expected about 0.90 oz, got %.4f", tw.Ounces)
	}
}

func TestPredictTrialWeightPreconditions(t *testing.T) {
	cases := []struct {
		name  string
		s     Sizing
		field string
	}{
		{"zero radius", Sizing{RotorSpeedRPM: 3600, BalancingRadiusIn: 0, RotorWeightLb: 2000, TrialWeightPercentage: 5}, FieldBalancingRadius},
		{"zero speed", Sizing{RotorSpeedRPM: 0, BalancingRadiusIn: 5, RotorWeightLb: 2000, TrialWeightPercentage: 5}, FieldRotorSpeed},
		{"negative speed", Sizing{RotorSpeedRPM: -10, BalancingRadiusIn: 5, RotorWeightLb: 2000, TrialWeightPercentage: 5}, FieldRotorSpeed},
		{"nan weight", Sizing{RotorSpeedRPM: 3600, BalancingRadiusIn: 5, RotorWeightLb: math.NaN(), TrialWeightPercentage: 5}, FieldRotorWeight},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tw, err := PredictTrialWeight(c.s)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Expected ErrInvalidInput, got %v (result %+v)", err, tw)
			}
			var fe *FieldError
			if !errors.As(err, &fe) || fe.Field != c.field {
				t.Fatalf("Expected field %q, got %v", c.field, err)
			}
			if math.IsInf(tw.Ounces, 0) || math.IsNaN(tw.Ounces) {
				t.Fatalf("Expected no inf/NaN on failure, got %v", tw.Ounces)
			}
		})
	}
}
