package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsboard",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "opsboard",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// Audit trail metrics
	auditEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsboard",
			Subsystem: "audit",
			Name:      "entries_recorded_total",
			Help:      "Total number of audit log entries recorded",
		},
		[]string{"action", "subsystem"},
	)

	auditEntriesPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "opsboard",
			Subsystem: "audit",
			Name:      "entries_purged_total",
			Help:      "Total number of audit log entries removed by retention",
		},
	)

	// Alerting metrics
	incidentsOpenedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsboard",
			Subsystem: "alerting",
			Name:      "incidents_opened_total",
			Help:      "Total number of incidents opened by the evaluator",
		},
		[]string{"severity"},
	)

	evaluatorTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "opsboard",
			Subsystem: "alerting",
			Name:      "tick_duration_seconds",
			Help:      "Duration of a full alert evaluation tick in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// Live feed metrics
	livefeedPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsboard",
			Subsystem: "livefeed",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to the live feed",
		},
		[]string{"topic"},
	)

	livefeedSubscribersDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "opsboard",
			Subsystem: "livefeed",
			Name:      "subscribers_dropped_total",
			Help:      "Total number of subscribers disconnected for falling behind",
		},
	)

	livefeedSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "opsboard",
			Subsystem: "livefeed",
			Name:      "subscribers",
			Help:      "Number of currently connected live feed subscribers",
		},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(duration)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAuditEntry records a recorded audit log entry
func RecordAuditEntry(action, subsystem string) {
	auditEntriesTotal.WithLabelValues(action, subsystem).Inc()
}

// RecordPurgedEntries records audit log entries deleted by retention
func RecordPurgedEntries(count int64) {
	auditEntriesPurged.Add(float64(count))
}

// RecordIncidentOpened records an incident opened by the evaluator
func RecordIncidentOpened(severity string) {
	incidentsOpenedTotal.WithLabelValues(severity).Inc()
}

// RecordEvaluatorTick records the duration of an evaluation tick
func RecordEvaluatorTick(duration time.Duration) {
	evaluatorTickDuration.Observe(duration.Seconds())
}

// RecordPublish records a live feed publish
func RecordPublish(topic string) {
	livefeedPublishedTotal.WithLabelValues(topic).Inc()
}

// RecordDroppedSubscriber records a subscriber disconnected on overflow
func RecordDroppedSubscriber() {
	livefeedSubscribersDropped.Inc()
}

// SetSubscribers sets the current live feed subscriber count
func SetSubscribers(count float64) {
	livefeedSubscribers.Set(count)
}
