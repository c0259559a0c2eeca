// Command balancecli is a line-oriented single-plane balancing session.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"k8s.io/klog/v2"

	"github.com/CK6170/RotorBalance-go/balance"
	"github.com/CK6170/RotorBalance-go/internal/chart"
	"github.com/CK6170/RotorBalance-go/models"
	"github.com/CK6170/RotorBalance-go/ui"
)

var errAborted = errors.New("input closed")

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// line prints the prompt and returns the trimmed answer.
func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	s, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", errAborted
	}
	return strings.TrimSpace(s), nil
}

// float re-prompts until the answer parses. Blank answers are accepted only
// when optional is set, returning nil.
func (p *prompter) float(prompt string, optional bool) (*float64, error) {
	for {
		s, err := p.line(prompt)
		if err != nil {
			return nil, err
		}
		if s == "" && optional {
			return nil, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err == nil {
			return &v, nil
		}
		warningPrintf(p.out, "  %q is not a number, try again.\n", s)
	}
}

// ask collects one session. A blank rotor speed skips trial-weight sizing.
func (p *prompter) ask() (*models.BalanceRequest, error) {
	req := &models.BalanceRequest{}
	steps := []struct {
		prompt string
		dst    **float64
	}{
		{"Original vibration amplitude (mils): ", &req.OAmplitude},
		{"Original vibration phase (degrees): ", &req.OPhase},
		{"Original + trial weight vibration amplitude (mils): ", &req.OTAmplitude},
		{"Original + trial weight vibration phase (degrees): ", &req.OTPhase},
		{"Trial weight amplitude (oz): ", &req.TWAmplitude},
		{"Trial weight phase (degrees): ", &req.TWPhase},
	}
	for _, st := range steps {
		v, err := p.float(st.prompt, false)
		if err != nil {
			return nil, err
		}
		*st.dst = v
	}

	fmt.Fprintln(p.out, "Trial weight estimation (leave rotor speed blank to skip)")
	v, err := p.float("Rotor speed (RPM): ", true)
	if err != nil || v == nil {
		return req, err
	}
	req.RotorSpeed = v
	sizing := []struct {
		prompt string
		dst    **float64
	}{
		{"Balancing radius (inches): ", &req.BalancingRadius},
		{"Rotor weight (pounds): ", &req.RotorWeight},
		{"Trial weight percentage of rotor weight (e.g. 5 for 5%): ", &req.TWPercentage},
	}
	for _, st := range sizing {
		v, err := p.float(st.prompt, false)
		if err != nil {
			return nil, err
		}
		*st.dst = v
	}
	return req, nil
}

// printResult writes the labelled result. Phases are shown folded into
// [0,360).
func printResult(w io.Writer, res *balance.Result) {
	if p := res.Predicted; p != nil {
		greenPrintf(w, "Estimated trial weight: %.2f oz / %.2f grams\n", p.TrialWeight.Ounces, p.TrialWeight.Grams)
	}
	eff := res.EffectiveVector.Normalized()
	ic := res.Influence.Normalized()
	hs := res.HeavySpot.Normalized()
	cw := res.CorrectionWeight.Normalized()
	fmt.Fprintf(w, "Effective vibration vector: %.2f mils at %.2f degrees\n", eff.Amplitude, eff.Phase)
	fmt.Fprintf(w, "Influence coefficient: %.4f at %.2f degrees\n", ic.Magnitude, ic.Phase)
	fmt.Fprintf(w, "Heavy spot: %.2f at %.2f degrees\n", hs.Amplitude, hs.Phase)
	greenPrintf(w, "Correction weight: %.2f at %.2f degrees\n", cw.Amplitude, cw.Phase)
	if p := res.Predicted; p != nil {
		phs := p.HeavySpot.Normalized()
		pcw := p.CorrectionWeight.Normalized()
		fmt.Fprintf(w, "Predicted heavy spot: %.2f at %.2f degrees\n", phs.Amplitude, phs.Phase)
		fmt.Fprintf(w, "Predicted correction weight: %.2f at %.2f degrees\n", pcw.Amplitude, pcw.Phase)
	}
}

// describe turns core errors into the message shown to the operator.
func describe(err error) string {
	var fe *balance.FieldError
	switch {
	case errors.Is(err, balance.ErrDegenerateResponse):
		return "Influence coefficient undefined: the trial weight produced no measurable change in vibration. Use a heavier trial weight or move it."
	case errors.As(err, &fe) && fe.Reason != "":
		return fmt.Sprintf("Invalid %s: %s", fe.Field, fe.Reason)
	case errors.As(err, &fe):
		return fmt.Sprintf("Missing %s", fe.Field)
	}
	return err.Error()
}

type config struct {
	in      string
	chart   string
	noColor bool
	debug   bool
	once    bool
}

// run computes one request and reports it. It returns the response so the
// caller can save it.
func run(w io.Writer, cfg config, req *models.BalanceRequest) (*models.BalanceResponse, error) {
	m, err := req.Measurement()
	if err != nil {
		return nil, err
	}
	debugPrintf(w, cfg.debug, "measurement %+v\n", m)
	res, err := balance.Compute(m)
	if err != nil {
		return nil, err
	}
	resp := models.NewResponse(res)
	if !resp.Finite() {
		return nil, fmt.Errorf("%w: result overflows float64", balance.ErrInvalidInput)
	}
	printResult(w, res)
	if cfg.chart != "" {
		if err := chart.SaveFile(cfg.chart, m.Original, m.OriginalPlusTrial, res, chart.DefaultOptions()); err != nil {
			return nil, fmt.Errorf("chart: %w", err)
		}
		fmt.Fprintf(w, "Polar plot written to %s\n", cfg.chart)
	}
	return resp, nil
}

func main() {
	klog.InitFlags(nil)
	var cfg config
	flag.StringVar(&cfg.in, "in", "", "session JSON file (same fields as POST /balance); skips prompts")
	flag.StringVar(&cfg.chart, "chart", "", "write a polar plot PNG to this path")
	flag.BoolVar(&cfg.noColor, "no-color", false, "disable ANSI colors")
	flag.BoolVar(&cfg.debug, "debug", false, "print debug output")
	flag.BoolVar(&cfg.once, "once", false, "exit after one session")
	flag.Parse()
	defer klog.Flush()
	color = !cfg.noColor

	if cfg.in != "" {
		os.Exit(runFile(os.Stdout, cfg))
	}

	p := &prompter{in: bufio.NewReader(os.Stdin), out: os.Stdout}
	for {
		clearScreen(os.Stdout)
		greenPrintf(os.Stdout, "Single-plane balancing\n\n")
		req, err := p.ask()
		if err != nil {
			fmt.Println()
			return
		}
		fmt.Println()
		if _, err := run(os.Stdout, cfg, req); err != nil {
			warningPrintf(os.Stdout, "%s\n", describe(err))
			klog.V(1).InfoS("Session failed", "error", err)
		}
		if cfg.once {
			return
		}
		fmt.Print("\nPress Enter for another session, Esc to quit.\n")
		if !ui.Again() {
			return
		}
	}
}

func runFile(w io.Writer, cfg config) int {
	req, err := models.LoadRequest(cfg.in)
	if err != nil {
		warningPrintf(w, "%v\n", err)
		return 1
	}
	resp, err := run(w, cfg, req)
	if err != nil {
		warningPrintf(w, "%s\n", describe(err))
		return 2
	}
	out := models.ReportPath(cfg.in)
	if err := models.SaveReport(out, req, resp); err != nil {
		warningPrintf(w, "%v\n", err)
		return 1
	}
	fmt.Fprintf(w, "Report written to %s\n", out)
	return 0
}
