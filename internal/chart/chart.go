// Package chart draws balancing vectors on a polar plot. Zero degrees is at
// East and angles grow clockwise, as on a rotor with a reference mark at 3
// o'clock viewed from the driver end.
package chart

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/CK6170/RotorBalance-go/balance"
)

type Options struct {
	Width  vg.Length
	Height vg.Length
	DPI    int
	Title  string
	Rings  int
}

func DefaultOptions() Options {
	return Options{
		Width:  6 * vg.Inch,
		Height: 6 * vg.Inch,
		DPI:    96,
		Title:  "Vibration Vectors (Polar Plot)",
		Rings:  4,
	}
}

var (
	colOriginal   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	colTrial      = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	colEffective  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	colCorrection = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	colGrid       = color.Gray{Y: 200}
)

// Render writes a PNG polar chart of o, ot, the effective vector and, when
// res is non-nil, the correction weight direction. The correction weight is
// in mass units so it is drawn at full ring radius and labelled with its
// own amplitude.
func Render(w io.Writer, o, ot balance.Polar, res *balance.Result, opts Options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("chart size must be positive")
	}
	if opts.Rings < 1 {
		opts.Rings = 1
	}
	if opts.DPI <= 0 {
		opts.DPI = 96
	}
	p, err := build(o, ot, res, opts)
	if err != nil {
		return err
	}
	c := vgimg.NewWith(vgimg.UseWH(opts.Width, opts.Height), vgimg.UseDPI(opts.DPI))
	p.Draw(draw.New(c))

	bw := bufio.NewWriter(w)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

// SaveFile renders into path, creating parent directories.
func SaveFile(path string, o, ot balance.Polar, res *balance.Result, opts Options) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()
	if err := Render(f, o, ot, res, opts); err != nil {
		return err
	}
	return f.Close()
}

type arrow struct {
	name  string
	v     balance.Polar
	col   color.Color
	dash  bool
	label string
}

func build(o, ot balance.Polar, res *balance.Result, opts Options) (*plot.Plot, error) {
	amps := []float64{o.Amplitude, ot.Amplitude}
	if res != nil {
		amps = append(amps, res.EffectiveVector.Amplitude)
	}
	radius := floats.Max(amps)
	if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		radius = 1
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.HideAxes()
	pad := radius * 1.25
	p.X.Min, p.X.Max = -pad, pad
	p.Y.Min, p.Y.Max = -pad, pad
	p.Legend.Top = true

	if err := addGrid(p, radius, opts.Rings); err != nil {
		return nil, err
	}

	vectors := []arrow{
		{"Original (o)", o, colOriginal, false, fmt.Sprintf("%.2f", o.Amplitude)},
		{"Original+Trial (ot)", ot, colTrial, false, fmt.Sprintf("%.2f", ot.Amplitude)},
	}
	if res != nil {
		eff := res.EffectiveVector.Normalized()
		cw := res.CorrectionWeight.Normalized()
		vectors = append(vectors,
			arrow{"Effective (t)", eff, colEffective, false, fmt.Sprintf("%.2f", eff.Amplitude)},
			arrow{"Correction weight", balance.Polar{Amplitude: radius, Phase: cw.Phase}, colCorrection, true,
				fmt.Sprintf("%.2f @ %.1f°", cw.Amplitude, cw.Phase)},
		)
	}

	for _, v := range vectors {
		l, err := addArrow(p, v.v, radius, v.col, v.dash)
		if err != nil {
			return nil, err
		}
		p.Legend.Add(v.name, l)
		if err := addLabel(p, v.v, v.label, v.col); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// xy maps a polar reading onto plot coordinates: zero at East, clockwise.
func xy(amp, phase float64) plotter.XY {
	rad := phase * math.Pi / 180
	return plotter.XY{X: amp * math.Cos(rad), Y: -amp * math.Sin(rad)}
}

func addGrid(p *plot.Plot, radius float64, rings int) error {
	radii := make([]float64, rings)
	floats.Span(radii, radius/float64(rings), radius)
	for _, r := range radii {
		pts := make(plotter.XYs, 0, 121)
		for deg := 0.0; deg <= 360; deg += 3 {
			pts = append(pts, xy(r, deg))
		}
		ring, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		ring.LineStyle.Color = colGrid
		ring.LineStyle.Width = vg.Points(0.5)
		p.Add(ring)
	}

	labels := plotter.XYLabels{}
	for deg := 0.0; deg < 360; deg += 30 {
		spoke, err := plotter.NewLine(plotter.XYs{{}, xy(radius, deg)})
		if err != nil {
			return err
		}
		spoke.LineStyle.Color = colGrid
		spoke.LineStyle.Width = vg.Points(0.5)
		p.Add(spoke)
		labels.XYs = append(labels.XYs, xy(radius*1.12, deg))
		labels.Labels = append(labels.Labels, fmt.Sprintf("%.0f°", deg))
	}
	l, err := plotter.NewLabels(labels)
	if err != nil {
		return err
	}
	for i := range l.TextStyle {
		l.TextStyle[i].XAlign = text.XCenter
		l.TextStyle[i].YAlign = text.YCenter
		l.TextStyle[i].Color = color.Gray{Y: 90}
	}
	p.Add(l)
	return nil
}

func addArrow(p *plot.Plot, v balance.Polar, radius float64, col color.Color, dash bool) (*plotter.Line, error) {
	tip := xy(v.Amplitude, v.Phase)
	shaft, err := plotter.NewLine(plotter.XYs{{}, tip})
	if err != nil {
		return nil, err
	}
	shaft.LineStyle.Color = col
	shaft.LineStyle.Width = vg.Points(2)
	if dash {
		shaft.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	}
	p.Add(shaft)

	head := radius * 0.05
	back := v.Amplitude - head
	if back <= 0 {
		return shaft, nil
	}
	spread := math.Atan2(head/2, back) * 180 / math.Pi
	for _, side := range []float64{-1, 1} {
		barb, err := plotter.NewLine(plotter.XYs{tip, xy(back, v.Phase+side*spread)})
		if err != nil {
			return nil, err
		}
		barb.LineStyle.Color = col
		barb.LineStyle.Width = vg.Points(2)
		p.Add(barb)
	}
	return shaft, nil
}

func addLabel(p *plot.Plot, v balance.Polar, label string, col color.Color) error {
	l, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    []plotter.XY{xy(v.Amplitude*1.05, v.Phase)},
		Labels: []string{label},
	})
	if err != nil {
		return err
	}
	l.TextStyle[0].Color = col
	l.TextStyle[0].XAlign = text.XCenter
	p.Add(l)
	return nil
}
