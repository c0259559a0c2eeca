package balance

import "math"

const (
	ouncesPerKg  = 35.27396195
	gramsPerKg   = 1000.00
	kgPerLb      = 0.45359237
	gravity      = 9.81
	radiusFactor = 0.0245 // inches to the force-per-mass term; calibration constant
	rpmToRadPerS = 2 * math.Pi / 60
)

// Sizing is the rotor data used to pick a trial weight before the first run.
type Sizing struct {
	RotorSpeedRPM         float64
	BalancingRadiusIn     float64
	RotorWeightLb         float64
	TrialWeightPercentage float64
}

// TrialWeight is a predicted trial-weight mass.
type TrialWeight struct {
	Ounces float64
	Grams  float64
}

// ValidateSizing rejects inputs for which the sizing formula is undefined.
func ValidateSizing(s Sizing) error {
	for _, c := range []struct {
		field string
		v     float64
	}{
		{FieldRotorSpeed, s.RotorSpeedRPM},
		{FieldBalancingRadius, s.BalancingRadiusIn},
		{FieldRotorWeight, s.RotorWeightLb},
		{FieldTrialWeightPercentage, s.TrialWeightPercentage},
	} {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			return invalid(c.field, "must be a finite number")
		}
	}
	if s.RotorSpeedRPM <= 0 {
		return invalid(FieldRotorSpeed, "rotor speed must be > 0")
	}
	if s.BalancingRadiusIn == 0 {
		return invalid(FieldBalancingRadius, "balancing radius must not be 0")
	}
	return nil
}

// PredictTrialWeight sizes a trial weight so that its centrifugal force is
// the given percentage of the rotor weight:
//
//	F = pct/100 * W[lb] * 0.45359237 * 9.81
//	m = F / (r[in] * 0.0245 * ω²)
//
// returned in ounces and grams.
func PredictTrialWeight(s Sizing) (TrialWeight, error) {
	if err := ValidateSizing(s); err != nil {
		return TrialWeight{}, err
	}
	force := (s.TrialWeightPercentage / 100) * s.RotorWeightLb * kgPerLb * gravity
	omega := s.RotorSpeedRPM * rpmToRadPerS
	denom := s.BalancingRadiusIn * radiusFactor * omega * omega
	tw := TrialWeight{
		Ounces: ouncesPerKg * force / denom,
		Grams:  gramsPerKg * force / denom,
	}
	if math.IsNaN(tw.Ounces) || math.IsInf(tw.Ounces, 0) || math.IsNaN(tw.Grams) || math.IsInf(tw.Grams, 0) {
		return TrialWeight{}, invalid(FieldBalancingRadius, "sizing result is not finite")
	}
	return tw, nil
}
