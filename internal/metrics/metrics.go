// Package metrics holds the Prometheus collectors of the platform, registered on the default
// registry and served at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "academy_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "academy_http_requests_in_flight",
			Help: "Number of HTTP requests being served",
		},
	)

	// Vendors
	VendorCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "academy_vendor_call_duration_seconds",
			Help:    "Duration of calls to Vimeo, Zoom and Stripe",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"vendor", "operation", "result"}, // result: success | error | rejected
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "academy_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "academy_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Uploads
	UploadTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "academy_upload_task_transitions_total",
			Help: "Upload task state transitions by target status",
		},
		[]string{"status"},
	)

	// Watch sessions
	WatchProgressUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "academy_watch_progress_updates_total",
			Help: "Watch progress updates received",
		},
	)

	WatchCompletions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "academy_watch_completions_total",
			Help: "Watch sessions that crossed the completion threshold",
		},
	)

	// Worker
	QueueJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "academy_queue_jobs_total",
			Help: "Jobs handled by the worker by type and outcome",
		},
		[]string{"type", "outcome"}, // outcome: done | retried | dead_lettered | failed
	)

	// Websocket
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "academy_websocket_connections",
			Help: "Open websocket connections",
		},
	)
)

// RecordHTTPRequest observes one served request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordVendorCall observes one vendor API call.
func RecordVendorCall(vendor, operation, result string, duration time.Duration) {
	VendorCallDuration.WithLabelValues(vendor, operation, result).Observe(duration.Seconds())
}

// RecordUploadTransition counts an upload task entering status.
func RecordUploadTransition(status string) {
	UploadTransitions.WithLabelValues(status).Inc()
}

// RecordJob counts a worker job outcome.
func RecordJob(jobType, outcome string) {
	QueueJobs.WithLabelValues(jobType, outcome).Inc()
}
