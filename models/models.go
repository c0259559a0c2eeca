package models

import (
	"math"

	"github.com/CK6170/RotorBalance-go/balance"
)

// BalanceRequest is the flat JSON payload of POST /balance. Pointers tell an
// absent field apart from an explicit 0.
type BalanceRequest struct {
	OAmplitude      *float64 `json:"o_amplitude"`
	OPhase          *float64 `json:"o_phase"`
	OTAmplitude     *float64 `json:"ot_amplitude"`
	OTPhase         *float64 `json:"ot_phase"`
	TWAmplitude     *float64 `json:"tw_amplitude"`
	TWPhase         *float64 `json:"tw_phase"`
	RotorSpeed      *float64 `json:"rotor_speed,omitempty"`
	BalancingRadius *float64 `json:"balancing_radius,omitempty"`
	RotorWeight     *float64 `json:"rotor_weight,omitempty"`
	TWPercentage    *float64 `json:"tw_percentage,omitempty"`
}

// Vector is an amplitude/phase pair on the wire.
type Vector struct {
	Amplitude float64 `json:"amplitude"`
	Phase     float64 `json:"phase"`
}

// Coefficient is an influence coefficient on the wire.
type Coefficient struct {
	Magnitude float64 `json:"magnitude"`
	Phase     float64 `json:"phase"`
}

// BalanceResponse keeps the key names of the original HTTP service. The
// predicted fields are only present when sizing inputs were supplied.
type BalanceResponse struct {
	TWPredicted                   *float64     `json:"tw_predicted,omitempty"`
	TWPredictedGrams              *float64     `json:"tw_predicted_grams,omitempty"`
	EffectiveVector               Vector       `json:"effective_vector"`
	InfluenceCoefficient          Coefficient  `json:"influence_coefficient"`
	HeavySpot                     Vector       `json:"heavy_spot"`
	InfluenceCoefficientPredicted *Coefficient `json:"influence_coefficient_predicted,omitempty"`
	HeavySpotPredicted            *Vector      `json:"heavy_spot_predicted,omitempty"`
	CorrectionWeight              Vector       `json:"correction_weight"`
	CorrectionWeightPredicted     *Vector      `json:"correction_weight_predicted,omitempty"`
}

// Error codes returned in APIError.Code.
const (
	CodeBadRequest         = "bad_request"
	CodeMissingField       = "missing_field"
	CodeInvalidInput       = "invalid_input"
	CodeDegenerateResponse = "degenerate_response"
	CodeNotFound           = "not_found"
	CodeInternal           = "internal"
)

type APIError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

// NewRequest builds a request from plain values; sizing may be nil.
func NewRequest(m balance.Measurement) *BalanceRequest {
	f := func(v float64) *float64 { return &v }
	r := &BalanceRequest{
		OAmplitude:  f(m.Original.Amplitude),
		OPhase:      f(m.Original.Phase),
		OTAmplitude: f(m.OriginalPlusTrial.Amplitude),
		OTPhase:     f(m.OriginalPlusTrial.Phase),
		TWAmplitude: f(m.TrialWeight.Amplitude),
		TWPhase:     f(m.TrialWeight.Phase),
	}
	if s := m.Sizing; s != nil {
		r.RotorSpeed = f(s.RotorSpeedRPM)
		r.BalancingRadius = f(s.BalancingRadiusIn)
		r.RotorWeight = f(s.RotorWeightLb)
		r.TWPercentage = f(s.TrialWeightPercentage)
	}
	return r
}

// Measurement converts the payload, reporting the first absent required
// field. Sizing inputs are all-or-nothing.
func (r *BalanceRequest) Measurement() (balance.Measurement, error) {
	required := []struct {
		name string
		v    *float64
	}{
		{balance.FieldOriginalAmplitude, r.OAmplitude},
		{balance.FieldOriginalPhase, r.OPhase},
		{balance.FieldTrialRunAmplitude, r.OTAmplitude},
		{balance.FieldTrialRunPhase, r.OTPhase},
		{balance.FieldTrialWeightAmplitude, r.TWAmplitude},
		{balance.FieldTrialWeightPhase, r.TWPhase},
	}
	for _, f := range required {
		if f.v == nil {
			return balance.Measurement{}, balance.Missing(f.name)
		}
	}
	m := balance.Measurement{
		Original:          balance.Polar{Amplitude: *r.OAmplitude, Phase: *r.OPhase},
		OriginalPlusTrial: balance.Polar{Amplitude: *r.OTAmplitude, Phase: *r.OTPhase},
		TrialWeight:       balance.Polar{Amplitude: *r.TWAmplitude, Phase: *r.TWPhase},
	}

	sizing := []struct {
		name string
		v    *float64
	}{
		{balance.FieldRotorSpeed, r.RotorSpeed},
		{balance.FieldBalancingRadius, r.BalancingRadius},
		{balance.FieldRotorWeight, r.RotorWeight},
		{balance.FieldTrialWeightPercentage, r.TWPercentage},
	}
	present := 0
	for _, f := range sizing {
		if f.v != nil {
			present++
		}
	}
	if present == 0 {
		return m, nil
	}
	for _, f := range sizing {
		if f.v == nil {
			return balance.Measurement{}, balance.Missing(f.name)
		}
	}
	m.Sizing = &balance.Sizing{
		RotorSpeedRPM:         *r.RotorSpeed,
		BalancingRadiusIn:     *r.BalancingRadius,
		RotorWeightLb:         *r.RotorWeight,
		TrialWeightPercentage: *r.TWPercentage,
	}
	return m, nil
}

// NewResponse maps a core result to the wire shape. Phases stay raw.
func NewResponse(res *balance.Result) *BalanceResponse {
	out := &BalanceResponse{
		EffectiveVector:      vector(res.EffectiveVector),
		InfluenceCoefficient: coefficient(res.Influence),
		HeavySpot:            vector(res.HeavySpot),
		CorrectionWeight:     vector(res.CorrectionWeight),
	}
	if p := res.Predicted; p != nil {
		oz, g := p.TrialWeight.Ounces, p.TrialWeight.Grams
		ic := coefficient(p.Influence)
		hs := vector(p.HeavySpot)
		cw := vector(p.CorrectionWeight)
		out.TWPredicted = &oz
		out.TWPredictedGrams = &g
		out.InfluenceCoefficientPredicted = &ic
		out.HeavySpotPredicted = &hs
		out.CorrectionWeightPredicted = &cw
	}
	return out
}

// Result rebuilds the core result, e.g. for charting a downloaded report.
func (r *BalanceResponse) Result() *balance.Result {
	res := &balance.Result{
		EffectiveVector:  polar(r.EffectiveVector),
		Influence:        balance.Influence{Magnitude: r.InfluenceCoefficient.Magnitude, Phase: r.InfluenceCoefficient.Phase},
		HeavySpot:        polar(r.HeavySpot),
		CorrectionWeight: polar(r.CorrectionWeight),
	}
	if r.TWPredicted != nil && r.InfluenceCoefficientPredicted != nil && r.HeavySpotPredicted != nil && r.CorrectionWeightPredicted != nil {
		p := &balance.Prediction{
			TrialWeight:      balance.TrialWeight{Ounces: *r.TWPredicted},
			Influence:        balance.Influence{Magnitude: r.InfluenceCoefficientPredicted.Magnitude, Phase: r.InfluenceCoefficientPredicted.Phase},
			HeavySpot:        polar(*r.HeavySpotPredicted),
			CorrectionWeight: polar(*r.CorrectionWeightPredicted),
		}
		if r.TWPredictedGrams != nil {
			p.TrialWeight.Grams = *r.TWPredictedGrams
		}
		res.Predicted = p
	}
	return res
}

func vector(p balance.Polar) Vector { return Vector{Amplitude: p.Amplitude, Phase: p.Phase} }

func polar(v Vector) balance.Polar { return balance.Polar{Amplitude: v.Amplitude, Phase: v.Phase} }

func coefficient(ic balance.Influence) Coefficient {
	return Coefficient{Magnitude: ic.Magnitude, Phase: ic.Phase}
}

// Finite reports whether every number in the response can be encoded as JSON.
func (r *BalanceResponse) Finite() bool {
	vals := []float64{
		r.EffectiveVector.Amplitude, r.EffectiveVector.Phase,
		r.InfluenceCoefficient.Magnitude, r.InfluenceCoefficient.Phase,
		r.HeavySpot.Amplitude, r.HeavySpot.Phase,
		r.CorrectionWeight.Amplitude, r.CorrectionWeight.Phase,
	}
	if r.TWPredicted != nil {
		vals = append(vals, *r.TWPredicted)
	}
	if r.InfluenceCoefficientPredicted != nil {
		vals = append(vals, r.InfluenceCoefficientPredicted.Magnitude)
	}
	if r.HeavySpotPredicted != nil {
		vals = append(vals, r.HeavySpotPredicted.Amplitude)
	}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
