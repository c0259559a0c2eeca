package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "balance_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"handler", "method", "status"},
	)

	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balance_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"handler", "method", "status"},
	)

	computationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balance_computations_total",
			Help: "Balancing computations by outcome",
		},
		[]string{"outcome"},
	)

	wsClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "balance_ws_clients",
		Help: "Connected result stream clients",
	})
)

// responseWriter captures the status code for metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func instrumentedHandler(handler string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		h(rw, r)

		status := strconv.Itoa(rw.statusCode)
		requestDuration.WithLabelValues(handler, r.Method, status).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(handler, r.Method, status).Inc()
	}
}
