// Package metrics provides Prometheus instrumentation for the inflation engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RecalcsTotal counts snapshot recomputations, partitioned by outcome.
	RecalcsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "draftdesk_recalcs_total",
		Help: "Total number of inflation recalculations",
	}, []string{"outcome"})

	// RecalcDuration tracks end-to-end recalculation latency.
	RecalcDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "draftdesk_recalc_duration_seconds",
		Help:    "Inflation recalculation latency in seconds",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
	})

	// RecalcCandidates tracks the projection-pool size per recalculation.
	RecalcCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "draftdesk_recalc_candidates",
		Help:    "Projection pool size per recalculation",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2000, 5000},
	})

	// PicksRecorded counts auction picks recorded, partitioned by session.
	PicksRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "draftdesk_picks_recorded_total",
		Help: "Total auction picks recorded",
	}, []string{"session"})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "draftdesk_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "draftdesk_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "draftdesk_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// RecalcReporter adapts the Prometheus collectors to the engine's Reporter
// interface. Reporting is fire-and-forget on the engine side; nothing here
// may block or panic into the calculation path.
type RecalcReporter struct{}

// ObserveRecalc records one recalculation's latency, pool size, and outcome.
func (RecalcReporter) ObserveRecalc(elapsed time.Duration, candidates int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	RecalcsTotal.WithLabelValues(outcome).Inc()
	RecalcDuration.Observe(elapsed.Seconds())
	RecalcCandidates.Observe(float64(candidates))
}
