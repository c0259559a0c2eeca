package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/CK6170/RotorBalance-go/balance"
	"github.com/CK6170/RotorBalance-go/internal/chart"
	"github.com/CK6170/RotorBalance-go/models"
)

type modeStatus int

const (
	statusIdle modeStatus = iota
	statusRunning
	statusDone
	statusError
)

type field struct {
	key      string
	label    string
	optional bool // sizing group
}

var fields = []field{
	{balance.FieldOriginalAmplitude, "Original amplitude (mils)", false},
	{balance.FieldOriginalPhase, "Original phase (deg)", false},
	{balance.FieldTrialRunAmplitude, "Original+trial amplitude (mils)", false},
	{balance.FieldTrialRunPhase, "Original+trial phase (deg)", false},
	{balance.FieldTrialWeightAmplitude, "Trial weight (oz)", false},
	{balance.FieldTrialWeightPhase, "Trial weight phase (deg)", false},
	{balance.FieldRotorSpeed, "Rotor speed (RPM)", true},
	{balance.FieldBalancingRadius, "Balancing radius (in)", true},
	{balance.FieldRotorWeight, "Rotor weight (lb)", true},
	{balance.FieldTrialWeightPercentage, "Trial weight % of rotor weight", true},
}

type model struct {
	inputs  []textinput.Model
	focus   int
	status  modeStatus
	lastErr error

	// result, input and req always come from the same compute. stale is set
	// once the form is edited afterwards.
	result *balance.Result
	input  balance.Measurement
	req    *models.BalanceRequest
	stale  bool

	infoLine    string
	sessionPath string
	chartPath   string
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	labelStyle = lipgloss.NewStyle().Width(34)
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func initialModel(sessionPath string) model {
	m := model{sessionPath: sessionPath, chartPath: "balance.png"}
	m.inputs = make([]textinput.Model, len(fields))
	for i, f := range fields {
		in := textinput.New()
		in.Placeholder = "0"
		if f.optional {
			in.Placeholder = "optional"
		}
		in.CharLimit = 32
		in.Width = 16
		in.Prompt = ""
		m.inputs[i] = in
	}
	m.inputs[0].Focus()

	if sessionPath != "" {
		if err := m.prefill(sessionPath); err != nil {
			m.lastErr = err
		} else {
			m.infoLine = "Loaded " + sessionPath
			m.chartPath = strings.TrimSuffix(models.ReportPath(sessionPath), ".json") + ".png"
		}
	}
	return m
}

func (m *model) prefill(path string) error {
	req, err := models.LoadRequest(path)
	if err != nil {
		return err
	}
	vals := []*float64{
		req.OAmplitude, req.OPhase, req.OTAmplitude, req.OTPhase, req.TWAmplitude, req.TWPhase,
		req.RotorSpeed, req.BalancingRadius, req.RotorWeight, req.TWPercentage,
	}
	for i, v := range vals {
		if v != nil {
			m.inputs[i].SetValue(strconv.FormatFloat(*v, 'g', -1, 64))
		}
	}
	return nil
}

type errMsg struct{ err error }
type infoMsg struct{ s string }
type computeFailedMsg struct{ err error }
type computedMsg struct {
	req    *models.BalanceRequest
	input  balance.Measurement
	result *balance.Result
}

var errStale = errors.New("inputs changed since the last compute; press Enter first")

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

// request builds the wire request from the form. Blank fields stay absent
// so the usual MissingField rules apply.
func (m model) request() (*models.BalanceRequest, error) {
	req := &models.BalanceRequest{}
	dst := []**float64{
		&req.OAmplitude, &req.OPhase, &req.OTAmplitude, &req.OTPhase, &req.TWAmplitude, &req.TWPhase,
		&req.RotorSpeed, &req.BalancingRadius, &req.RotorWeight, &req.TWPercentage,
	}
	for i, in := range m.inputs {
		s := strings.TrimSpace(in.Value())
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &balance.FieldError{Field: fields[i].key, Err: balance.ErrInvalidInput, Reason: "not a number"}
		}
		*dst[i] = &v
	}
	return req, nil
}

func (m model) computeCmd() tea.Cmd {
	req, err := m.request()
	return func() tea.Msg {
		if err != nil {
			return computeFailedMsg{err: err}
		}
		in, err := req.Measurement()
		if err != nil {
			return computeFailedMsg{err: err}
		}
		res, err := balance.Compute(in)
		if err != nil {
			return computeFailedMsg{err: err}
		}
		if !models.NewResponse(res).Finite() {
			return computeFailedMsg{err: fmt.Errorf("%w: result overflows float64", balance.ErrInvalidInput)}
		}
		return computedMsg{req: req, input: in, result: res}
	}
}

func (m model) chartCmd() tea.Cmd {
	in, res, path, stale := m.input, m.result, m.chartPath, m.stale
	return func() tea.Msg {
		if res == nil {
			return errMsg{err: fmt.Errorf("nothing to plot yet")}
		}
		if stale {
			return errMsg{err: errStale}
		}
		if err := chart.SaveFile(path, in.Original, in.OriginalPlusTrial, res, chart.DefaultOptions()); err != nil {
			return errMsg{err: err}
		}
		return infoMsg{s: "Polar plot written to " + path}
	}
}

// saveCmd writes the request that produced the current result, never the
// live form values.
func (m model) saveCmd() tea.Cmd {
	req, res, path, stale := m.req, m.result, m.sessionPath, m.stale
	return func() tea.Msg {
		switch {
		case res == nil || req == nil:
			return errMsg{err: fmt.Errorf("nothing to save yet")}
		case stale:
			return errMsg{err: errStale}
		case path == "":
			return errMsg{err: fmt.Errorf("no session file to save next to")}
		}
		out := models.ReportPath(path)
		if err := models.SaveReport(out, req, models.NewResponse(res)); err != nil {
			return errMsg{err: err}
		}
		return infoMsg{s: "Report written to " + out}
	}
}

func (m *model) setFocus(i int) tea.Cmd {
	n := len(m.inputs)
	m.inputs[m.focus].Blur()
	m.focus = ((i % n) + n) % n
	return m.inputs[m.focus].Focus()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "down":
			return m, m.setFocus(m.focus + 1)
		case "shift+tab", "up":
			return m, m.setFocus(m.focus - 1)
		case "enter":
			if m.status == statusRunning {
				return m, nil
			}
			m.status = statusRunning
			return m, m.computeCmd()
		case "ctrl+p":
			return m, m.chartCmd()
		case "ctrl+s":
			return m, m.saveCmd()
		}

	case errMsg:
		m.lastErr = msg.err
		m.infoLine = ""
		return m, nil

	case computeFailedMsg:
		m.lastErr = msg.err
		m.status = statusError
		m.infoLine = ""
		m.result, m.input, m.req, m.stale = nil, balance.Measurement{}, nil, false
		return m, nil

	case infoMsg:
		m.infoLine = msg.s
		m.lastErr = nil
		return m, nil

	case computedMsg:
		m.input = msg.input
		m.result = msg.result
		m.req = msg.req
		m.stale = false
		m.status = statusDone
		m.lastErr = nil
		m.infoLine = ""
		return m, nil
	}

	// default: let the focused input update
	var cmd tea.Cmd
	before := m.inputs[m.focus].Value()
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if m.result != nil && m.inputs[m.focus].Value() != before {
		m.stale = true
	}
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Single-Plane Balancing") + "\n")
	b.WriteString(helpStyle.Render("Tab/Shift+Tab move, Enter computes, Ctrl+P plots, Ctrl+S saves report, Esc quits.") + "\n\n")
	if m.infoLine != "" {
		b.WriteString(okStyle.Render(m.infoLine) + "\n")
	}
	if m.lastErr != nil {
		b.WriteString(errStyle.Render("Error: "+describe(m.lastErr)) + "\n")
	}
	b.WriteString("\n")

	var form strings.Builder
	for i, f := range fields {
		if i == 6 {
			form.WriteString(helpStyle.Render("Trial weight estimation (optional)") + "\n")
		}
		form.WriteString(labelStyle.Render(f.label) + m.inputs[i].View() + "\n")
	}
	left := panelStyle.Render(strings.TrimRight(form.String(), "\n"))
	if m.result == nil {
		b.WriteString(left + "\n")
		return b.String()
	}
	right := viewResult(m.result)
	if m.stale {
		right = errStyle.Render("Inputs changed, press Enter to recompute") + "\n" + right
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", panelStyle.Render(right)) + "\n")
	return b.String()
}

func viewResult(res *balance.Result) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Result") + "\n")
	eff := res.EffectiveVector.Normalized()
	ic := res.Influence.Normalized()
	hs := res.HeavySpot.Normalized()
	cw := res.CorrectionWeight.Normalized()
	if p := res.Predicted; p != nil {
		b.WriteString(fmt.Sprintf("Estimated trial weight  %.2f oz / %.2f g\n", p.TrialWeight.Ounces, p.TrialWeight.Grams))
	}
	b.WriteString(fmt.Sprintf("Effective vector        %.2f mils @ %.2f°\n", eff.Amplitude, eff.Phase))
	b.WriteString(fmt.Sprintf("Influence coefficient   %.4f @ %.2f°\n", ic.Magnitude, ic.Phase))
	b.WriteString(fmt.Sprintf("Heavy spot              %.2f @ %.2f°\n", hs.Amplitude, hs.Phase))
	b.WriteString(okStyle.Render(fmt.Sprintf("Correction weight       %.2f @ %.2f°", cw.Amplitude, cw.Phase)) + "\n")
	if p := res.Predicted; p != nil {
		phs := p.HeavySpot.Normalized()
		pcw := p.CorrectionWeight.Normalized()
		b.WriteString(fmt.Sprintf("Predicted heavy spot    %.2f @ %.2f°\n", phs.Amplitude, phs.Phase))
		b.WriteString(fmt.Sprintf("Predicted correction    %.2f @ %.2f°\n", pcw.Amplitude, pcw.Phase))
	}
	return strings.TrimRight(b.String(), "\n")
}

func describe(err error) string {
	var fe *balance.FieldError
	switch {
	case errors.Is(err, balance.ErrDegenerateResponse):
		return "influence coefficient undefined (trial weight produced no measurable response)"
	case errors.As(err, &fe) && fe.Reason != "":
		return fe.Field + ": " + fe.Reason
	case errors.As(err, &fe):
		return "missing " + fe.Field
	}
	return err.Error()
}

func main() {
	path := ""
	// support passing a session file as arg
	if len(os.Args) > 1 && strings.TrimSpace(os.Args[1]) != "" {
		path = os.Args[1]
	}
	p := tea.NewProgram(initialModel(path), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}
