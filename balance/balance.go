package balance

import (
	"fmt"
	"math"
)

// Field names used in error reports. They match the JSON request keys.
const (
	FieldOriginalAmplitude     = "o_amplitude"
	FieldOriginalPhase         = "o_phase"
	FieldTrialRunAmplitude     = "ot_amplitude"
	FieldTrialRunPhase         = "ot_phase"
	FieldTrialWeightAmplitude  = "tw_amplitude"
	FieldTrialWeightPhase      = "tw_phase"
	FieldRotorSpeed            = "rotor_speed"
	FieldBalancingRadius       = "balancing_radius"
	FieldRotorWeight           = "rotor_weight"
	FieldTrialWeightPercentage = "tw_percentage"
)

// Influence is the influence coefficient: trial weight per unit of
// vibration response, with the phase lag between them.
type Influence struct {
	Magnitude float64
	Phase     float64
}

// Normalized returns ic with its phase folded into [0,360).
func (ic Influence) Normalized() Influence {
	return Influence{Magnitude: ic.Magnitude, Phase: NormalizeDegrees(ic.Phase)}
}

// Measurement is one balancing session: two vibration readings, the trial
// weight that was attached between them and optional rotor data for sizing.
type Measurement struct {
	Original          Polar
	OriginalPlusTrial Polar
	TrialWeight       Polar
	Sizing            *Sizing
}

// Prediction repeats the correction using the predicted trial weight in
// place of the one actually attached.
type Prediction struct {
	TrialWeight      TrialWeight
	Influence        Influence
	HeavySpot        Polar
	CorrectionWeight Polar
}

// Result holds every derived quantity. Phases are raw: only the effective
// vector is folded into [0,360).
type Result struct {
	EffectiveVector  Polar
	Influence        Influence
	HeavySpot        Polar
	CorrectionWeight Polar
	Predicted        *Prediction
}

// EffectiveVector is the response attributable to the trial weight alone,
// ot - o in the complex plane. Identical readings give amplitude 0.
func EffectiveVector(o, ot Polar) Polar {
	eff := ot.Rect().Sub(o.Rect()).Polar()
	eff.Phase = NormalizeDegrees(eff.Phase)
	return eff
}

// InfluenceCoefficient divides the trial weight by the effective vector.
// A zero effective amplitude yields ErrDegenerateResponse, never 0 or Inf.
func InfluenceCoefficient(tw, eff Polar) (Influence, error) {
	if eff.Amplitude == 0 {
		return Influence{}, ErrDegenerateResponse
	}
	return Influence{
		Magnitude: tw.Amplitude / eff.Amplitude,
		Phase:     tw.Phase - eff.Phase,
	}, nil
}

// HeavySpot locates the unbalance relative to the reference mark.
func HeavySpot(o Polar, ic Influence) Polar {
	return Polar{
		Amplitude: ic.Magnitude * o.Amplitude,
		Phase:     o.Phase + ic.Phase,
	}
}

// CorrectionWeight places the same amount diametrically opposite the heavy spot.
func CorrectionWeight(hs Polar) Polar {
	return Polar{Amplitude: hs.Amplitude, Phase: hs.Phase + 180}
}

// Validate checks readings before any arithmetic runs.
func (m Measurement) Validate() error {
	for _, c := range []struct {
		field string
		p     Polar
		amp   bool
	}{
		{FieldOriginalAmplitude, m.Original, true},
		{FieldOriginalPhase, m.Original, false},
		{FieldTrialRunAmplitude, m.OriginalPlusTrial, true},
		{FieldTrialRunPhase, m.OriginalPlusTrial, false},
		{FieldTrialWeightAmplitude, m.TrialWeight, true},
		{FieldTrialWeightPhase, m.TrialWeight, false},
	} {
		v := c.p.Phase
		if c.amp {
			v = c.p.Amplitude
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid(c.field, "must be a finite number")
		}
		if c.amp && v < 0 {
			return invalid(c.field, "amplitude must be >= 0")
		}
	}
	if m.Sizing != nil {
		return ValidateSizing(*m.Sizing)
	}
	return nil
}

// Compute runs the full single-plane calculation. On error no partial
// result is returned.
func Compute(m Measurement) (*Result, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	eff := EffectiveVector(m.Original, m.OriginalPlusTrial)
	ic, err := InfluenceCoefficient(m.TrialWeight, eff)
	if err != nil {
		return nil, fmt.Errorf("influence coefficient: %w", err)
	}
	hs := HeavySpot(m.Original, ic)
	res := &Result{
		EffectiveVector:  eff,
		Influence:        ic,
		HeavySpot:        hs,
		CorrectionWeight: CorrectionWeight(hs),
	}

	if m.Sizing == nil {
		return res, nil
	}
	tw, err := PredictTrialWeight(*m.Sizing)
	if err != nil {
		return nil, err
	}
	// The predicted branch reuses the measured phase and only rescales the
	// magnitude with the predicted trial weight.
	pic := Influence{Magnitude: tw.Ounces / eff.Amplitude, Phase: ic.Phase}
	phs := HeavySpot(m.Original, pic)
	res.Predicted = &Prediction{
		TrialWeight:      tw,
		Influence:        pic,
		HeavySpot:        phs,
		CorrectionWeight: Polar{Amplitude: phs.Amplitude, Phase: res.CorrectionWeight.Phase},
	}
	return res, nil
}
