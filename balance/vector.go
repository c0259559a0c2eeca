package balance

import (
	"fmt"
	"math"
)

// Polar is a rotating vector: an amplitude and a phase angle in degrees
// measured from the rotor reference mark.
type Polar struct {
	Amplitude float64
	Phase     float64
}

// Rect is the same vector in the complex plane.
type Rect struct {
	Re, Im float64
}

func (p Polar) String() string {
	return fmt.Sprintf("%.2f @ %.2f°", p.Amplitude, p.Phase)
}

// Rect converts to rectangular components.
func (p Polar) Rect() Rect {
	rad := radians(p.Phase)
	return Rect{Re: p.Amplitude * math.Cos(rad), Im: p.Amplitude * math.Sin(rad)}
}

// Normalized returns p with its phase folded into [0,360).
func (p Polar) Normalized() Polar {
	return Polar{Amplitude: p.Amplitude, Phase: NormalizeDegrees(p.Phase)}
}

// Polar converts back to amplitude and phase. Atan2 keeps the quadrant; the
// origin maps to phase 0.
func (r Rect) Polar() Polar {
	return Polar{
		Amplitude: math.Hypot(r.Re, r.Im),
		Phase:     degrees(math.Atan2(r.Im, r.Re)),
	}
}

// Sub returns r - o.
func (r Rect) Sub(o Rect) Rect {
	return Rect{Re: r.Re - o.Re, Im: r.Im - o.Im}
}

// NormalizeDegrees maps any angle into [0,360).
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	// -1e-15 + 360 rounds to 360
	if d >= 360 {
		d = 0
	}
	return d
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
