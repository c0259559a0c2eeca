package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/CK6170/RotorBalance-go/models"
)

const scenarioA = `{"o_amplitude": 10, "o_phase": 0, "ot_amplitude": 15, "ot_phase": 90, "tw_amplitude": 1, "tw_phase": 180,
	"rotor_speed": 3600, "balancing_radius": 5, "rotor_weight": 2000, "tw_percentage": 5}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(DefaultOptions()).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) models.APIError {
	t.Helper()
	var e models.APIError
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

func TestBalanceScenarioA(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL+"/balance", scenarioA)
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Result-Id") == "" {
		t.Error("Expected X-Result-Id header")
	}
	var out models.BalanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(out.EffectiveVector.Amplitude, 18.03, 0.005) {
		t.Errorf("Expected effective amplitude 18.03, got %.4f", out.EffectiveVector.Amplitude)
	}
	if !scalar.EqualWithinAbs(out.HeavySpot.Phase, 56.31, 0.005) {
		t.Errorf("Expected heavy spot phase 56.31, got %.4f", out.HeavySpot.Phase)
	}
	if !scalar.EqualWithinAbs(out.CorrectionWeight.Phase, 236.31, 0.005) {
		t.Errorf("Expected correction phase 236.31, got %.4f", out.CorrectionWeight.Phase)
	}
	if out.CorrectionWeight.Amplitude != out.HeavySpot.Amplitude {
		t.Errorf("Expected correction amplitude %v, got %v", out.HeavySpot.Amplitude, out.CorrectionWeight.Amplitude)
	}
	if out.TWPredicted == nil || !scalar.EqualWithinAbs(*out.TWPredicted, 0.9016, 0.0005) {
		t.Errorf("Expected tw_predicted about 0.90, got %v", out.TWPredicted)
	}
	if out.CorrectionWeightPredicted == nil || out.CorrectionWeightPredicted.Phase != out.CorrectionWeight.Phase {
		t.Errorf("Unexpected predicted correction weight %+v", out.CorrectionWeightPredicted)
	}
}

func TestBalanceErrors(t *testing.T) {
	ts := newTestServer(t)
	cases := []struct {
		name   string
		body   string
		status int
		code   string
		field  string
	}{
		{"missing field", `{"o_amplitude": 10, "ot_amplitude": 15, "ot_phase": 90, "tw_amplitude": 1, "tw_phase": 180}`,
			400, models.CodeMissingField, "o_phase"},
		{"null field", `{"o_amplitude": 10, "o_phase": 0, "ot_amplitude": 15, "ot_phase": null, "tw_amplitude": 1, "tw_phase": 180}`,
			400, models.CodeMissingField, "ot_phase"},
		{"partial sizing", `{"o_amplitude": 10, "o_phase": 0, "ot_amplitude": 15, "ot_phase": 90, "tw_amplitude": 1, "tw_phase": 180, "rotor_speed": 3600}`,
			400, models.CodeMissingField, "balancing_radius"},
		{"degenerate", `{"o_amplitude": 10, "o_phase": 0, "ot_amplitude": 10, "ot_phase": 0, "tw_amplitude": 1, "tw_phase": 180}`,
			422, models.CodeDegenerateResponse, ""},
		{"zero radius", `{"o_amplitude": 10, "o_phase": 0, "ot_amplitude": 15, "ot_phase": 90, "tw_amplitude": 1, "tw_phase": 180,
			"rotor_speed": 3600, "balancing_radius": 0, "rotor_weight": 2000, "tw_percentage": 5}`,
			400, models.CodeInvalidInput, "balancing_radius"},
		{"negative amplitude", `{"o_amplitude": -1, "o_phase": 0, "ot_amplitude": 15, "ot_phase": 90, "tw_amplitude": 1, "tw_phase": 180}`,
			400, models.CodeInvalidInput, "o_amplitude"},
		{"malformed", `{"o_amplitude": "ten"`, 400, models.CodeBadRequest, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/balance", c.body)
			if resp.StatusCode != c.status {
				t.Fatalf("Expected %d, got %d", c.status, resp.StatusCode)
			}
			e := decodeError(t, resp)
			if e.Code != c.code || e.Field != c.field {
				t.Errorf("Expected code=%s field=%s, got %+v", c.code, c.field, e)
			}
			if e.Error == "" {
				t.Error("Expected an error message")
			}
		})
	}
}

func TestBalanceMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/balance")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("Expected 405, got %d", resp.StatusCode)
	}
}

func TestBalanceBodyLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxBodyBytes = 16
	ts := httptest.NewServer(New(opts).Handler())
	defer ts.Close()
	resp := post(t, ts.URL+"/balance", scenarioA)
	if resp.StatusCode != 400 {
		t.Fatalf("Expected 400 for oversized body, got %d", resp.StatusCode)
	}
}

func TestChartAndDownload(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL+"/balance", scenarioA)
	id := resp.Header.Get("X-Result-Id")
	if id == "" {
		t.Fatal("Expected X-Result-Id header")
	}

	cr, err := http.Get(ts.URL + "/api/chart?id=" + id)
	if err != nil {
		t.Fatal(err)
	}
	defer cr.Body.Close()
	if cr.StatusCode != 200 || cr.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("Expected PNG chart, got %d %s", cr.StatusCode, cr.Header.Get("Content-Type"))
	}
	if _, err := png.Decode(cr.Body); err != nil {
		t.Fatalf("Expected decodable PNG: %v", err)
	}

	dr, err := http.Get(ts.URL + "/api/download?id=" + id)
	if err != nil {
		t.Fatal(err)
	}
	defer dr.Body.Close()
	if !strings.Contains(dr.Header.Get("Content-Disposition"), "balance_"+id+".json") {
		t.Errorf("Unexpected Content-Disposition %q", dr.Header.Get("Content-Disposition"))
	}
	var rep models.Report
	if err := json.NewDecoder(dr.Body).Decode(&rep); err != nil {
		t.Fatal(err)
	}
	if rep.Input == nil || rep.Result == nil || *rep.Input.OAmplitude != 10 {
		t.Errorf("Unexpected report %+v", rep)
	}

	nf, err := http.Get(ts.URL + "/api/chart?id=nope")
	if err != nil {
		t.Fatal(err)
	}
	defer nf.Body.Close()
	if nf.StatusCode != 404 {
		t.Errorf("Expected 404 for unknown id, got %d", nf.StatusCode)
	}
}

func TestChartInline(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL+"/api/chart", scenarioA)
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Fatal("Expected PNG signature")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	post(t, ts.URL+"/balance", scenarioA)

	hr, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	defer hr.Body.Close()
	var h HealthResponse
	if err := json.NewDecoder(hr.Body).Decode(&h); err != nil {
		t.Fatal(err)
	}
	if !h.OK || h.Results != 1 {
		t.Errorf("Unexpected health %+v", h)
	}

	mr, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Body.Close()
	b, _ := io.ReadAll(mr.Body)
	if !strings.Contains(string(b), `balance_computations_total{outcome="ok"}`) {
		t.Errorf("Expected computation counter in metrics output")
	}
}

func TestWSResults(t *testing.T) {
	ts := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/results"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != "hello" {
		t.Fatalf("Expected hello, got %+v %v", msg, err)
	}

	post(t, ts.URL+"/balance", scenarioA)
	var ev struct {
		Type string      `json:"type"`
		Data ResultEvent `json:"data"`
	}
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != "result" || ev.Data.ID == "" || ev.Data.Result == nil {
		t.Fatalf("Unexpected event %+v", ev)
	}

	post(t, ts.URL+"/balance", `{"o_amplitude": 1, "o_phase": 0, "ot_amplitude": 1, "ot_phase": 0, "tw_amplitude": 1, "tw_phase": 0}`)
	var errEv struct {
		Type string          `json:"type"`
		Data models.APIError `json:"data"`
	}
	if err := conn.ReadJSON(&errEv); err != nil {
		t.Fatalf("read: %v", err)
	}
	if errEv.Type != "error" || errEv.Data.Code != models.CodeDegenerateResponse {
		t.Fatalf("Unexpected error event %+v", errEv)
	}
}
