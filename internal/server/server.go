package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"

	"github.com/CK6170/RotorBalance-go/balance"
	"github.com/CK6170/RotorBalance-go/internal/chart"
	"github.com/CK6170/RotorBalance-go/models"
)

type Options struct {
	// MaxBodyBytes caps request bodies read by readJSON.
	MaxBodyBytes int64
	// Results is the capacity of the in-memory result store.
	Results int
	Chart   chart.Options
}

func DefaultOptions() Options {
	return Options{
		MaxBodyBytes: 64 << 10,
		Results:      256,
		Chart:        chart.DefaultOptions(),
	}
}

type Server struct {
	mux  *http.ServeMux
	opts Options

	store *ResultStore

	// WebSocket hub fed with every computation
	wsResults *WSHub
}

type HealthResponse struct {
	OK        bool      `json:"ok"`
	Timestamp time.Time `json:"timestamp"`
	Results   int       `json:"results"`
}

// ResultEvent is broadcast on /ws/results after each successful computation.
type ResultEvent struct {
	ID     string                  `json:"id"`
	Input  *models.BalanceRequest  `json:"input"`
	Result *models.BalanceResponse `json:"result"`
}

// badRequest marks a payload that could not be decoded at all.
type badRequest struct{ err error }

func (e badRequest) Error() string { return "malformed request: " + e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func New(opts Options) *Server {
	def := DefaultOptions()
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = def.MaxBodyBytes
	}
	if opts.Results <= 0 {
		opts.Results = def.Results
	}
	if opts.Chart.Width <= 0 || opts.Chart.Height <= 0 {
		opts.Chart = def.Chart
	}
	s := &Server{
		mux:       http.NewServeMux(),
		opts:      opts,
		store:     NewResultStore(opts.Results),
		wsResults: NewWSHub(),
	}

	// API
	s.mux.HandleFunc("/balance", instrumentedHandler("balance", s.handleBalance))
	s.mux.HandleFunc("/api/balance", instrumentedHandler("balance", s.handleBalance))
	s.mux.HandleFunc("/api/health", instrumentedHandler("health", s.handleHealth))
	s.mux.HandleFunc("/api/chart", instrumentedHandler("chart", s.handleChart))
	s.mux.HandleFunc("/api/download", instrumentedHandler("download", s.handleDownload))
	s.mux.Handle("/metrics", promhttp.Handler())

	// WS (not instrumented: the wrapper would hide http.Hijacker)
	s.mux.HandleFunc("/ws/results", s.handleWSResults)

	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	b, err := io.ReadAll(io.LimitReader(r.Body, s.opts.MaxBodyBytes+1))
	if err != nil {
		return badRequest{err}
	}
	if int64(len(b)) > s.opts.MaxBodyBytes {
		return badRequest{fmt.Errorf("body exceeds %d bytes", s.opts.MaxBodyBytes)}
	}
	if err := json.Unmarshal(b, v); err != nil {
		return badRequest{err}
	}
	return nil
}

// apiError maps an error to its HTTP status and JSON body.
func apiError(err error) (int, models.APIError) {
	out := models.APIError{Error: err.Error()}
	var fe *balance.FieldError
	if errors.As(err, &fe) {
		out.Field = fe.Field
	}
	var br badRequest
	switch {
	case errors.As(err, &br):
		out.Code = models.CodeBadRequest
		return http.StatusBadRequest, out
	case errors.Is(err, balance.ErrMissingField):
		out.Code = models.CodeMissingField
		return http.StatusBadRequest, out
	case errors.Is(err, balance.ErrInvalidInput):
		out.Code = models.CodeInvalidInput
		return http.StatusBadRequest, out
	case errors.Is(err, balance.ErrDegenerateResponse):
		out.Code = models.CodeDegenerateResponse
		return http.StatusUnprocessableEntity, out
	}
	out.Code = models.CodeInternal
	return http.StatusInternalServerError, out
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status, body := apiError(err)
	if status >= 500 {
		klog.ErrorS(err, "Request failed")
	} else {
		klog.V(2).InfoS("Request rejected", "code", body.Code, "field", body.Field, "error", body.Error)
	}
	s.writeJSON(w, status, body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, 200, HealthResponse{OK: true, Timestamp: time.Now(), Results: s.store.Len()})
}

// compute runs one request through the core. Every outcome is counted and
// failures are broadcast so a dashboard can show them.
func (s *Server) compute(req *models.BalanceRequest) (*ResultRecord, error) {
	rec, err := s.computeRecord(req)
	if err != nil {
		_, body := apiError(err)
		computationsTotal.WithLabelValues(body.Code).Inc()
		s.wsResults.Broadcast(WSMessage{Type: "error", Data: body})
		return nil, err
	}
	computationsTotal.WithLabelValues("ok").Inc()
	s.wsResults.Broadcast(WSMessage{
		Type: "result",
		Data: ResultEvent{ID: rec.ID, Input: rec.Request, Result: rec.Response},
	})
	klog.V(2).InfoS("Balance computed",
		"id", rec.ID,
		"heavySpot", rec.Result.HeavySpot.Normalized().String(),
		"correction", rec.Result.CorrectionWeight.Normalized().String())
	return rec, nil
}

func (s *Server) computeRecord(req *models.BalanceRequest) (*ResultRecord, error) {
	m, err := req.Measurement()
	if err != nil {
		return nil, err
	}
	res, err := balance.Compute(m)
	if err != nil {
		return nil, err
	}
	resp := models.NewResponse(res)
	if !resp.Finite() {
		return nil, fmt.Errorf("%w: result overflows float64", balance.ErrInvalidInput)
	}
	return s.store.Put(req, m, res, resp)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeJSON(w, http.StatusMethodNotAllowed, models.APIError{Error: "use POST", Code: models.CodeBadRequest})
		return
	}
	var req models.BalanceRequest
	if err := s.readJSON(r, &req); err != nil {
		computationsTotal.WithLabelValues(models.CodeBadRequest).Inc()
		s.fail(w, err)
		return
	}
	rec, err := s.compute(&req)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("X-Result-Id", rec.ID)
	s.writeJSON(w, 200, rec.Response)
}

// handleChart renders a stored result (GET ?id=) or an inline request (POST).
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	var rec *ResultRecord
	switch r.Method {
	case http.MethodGet:
		id := r.URL.Query().Get("id")
		if id == "" {
			s.writeJSON(w, 400, models.APIError{Error: "missing id", Code: models.CodeBadRequest, Field: "id"})
			return
		}
		var ok bool
		if rec, ok = s.store.Get(id); !ok {
			s.writeJSON(w, 404, models.APIError{Error: "result not found", Code: models.CodeNotFound})
			return
		}
	case http.MethodPost:
		var req models.BalanceRequest
		if err := s.readJSON(r, &req); err != nil {
			s.fail(w, err)
			return
		}
		var err error
		if rec, err = s.compute(&req); err != nil {
			s.fail(w, err)
			return
		}
	default:
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, rec.Input.Original, rec.Input.OriginalPlusTrial, rec.Result, s.opts.Chart); err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Result-Id", rec.ID)
	w.WriteHeader(200)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		s.writeJSON(w, 400, models.APIError{Error: "missing id", Code: models.CodeBadRequest, Field: "id"})
		return
	}
	rec, ok := s.store.Get(id)
	if !ok {
		s.writeJSON(w, 404, models.APIError{Error: "result not found", Code: models.CodeNotFound})
		return
	}
	raw, err := json.MarshalIndent(models.Report{Input: rec.Request, Result: rec.Response}, "", "  ")
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "balance_"+rec.ID+".json"))
	w.WriteHeader(200)
	_, _ = w.Write(raw)
}
