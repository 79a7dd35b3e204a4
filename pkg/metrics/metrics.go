// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks bridge HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_request_duration_seconds",
			Help:    "Bridge HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total bridge HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_requests_total",
			Help: "Total bridge HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// BackendCallDuration tracks calls made to the Alpha Bot backend.
	BackendCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_call_duration_seconds",
			Help:    "Alpha Bot backend call duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation", "status"},
	)

	// BackendCallsTotal tracks total calls made to the Alpha Bot backend.
	BackendCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_calls_total",
			Help: "Total Alpha Bot backend calls",
		},
		[]string{"operation", "status"},
	)

	// SendsTotal tracks message exchanges by outcome.
	SendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_sends_total",
			Help: "Message exchanges by outcome",
		},
		[]string{"outcome"},
	)

	// ResolutionsTotal tracks ticker resolutions by whether the room already existed.
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_resolutions_total",
			Help: "Ticker to room resolutions",
		},
		[]string{"existed"},
	)

	// StaleResponsesTotal tracks responses dropped because their session was superseded.
	StaleResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_stale_responses_total",
			Help: "Responses discarded for superseded sessions",
		},
		[]string{"operation"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// EventsPublishedTotal tracks session events forwarded to NATS.
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_events_published_total",
			Help: "Session events published to NATS",
		},
		[]string{"type", "status"},
	)
)

// RecordRequest records metrics for a bridge HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordBackendCall records metrics for one backend call. A zero status means
// the request never produced a response.
func RecordBackendCall(operation string, status int, duration float64) {
	s := "error"
	if status != 0 {
		s = strconv.Itoa(status)
	}
	BackendCallDuration.WithLabelValues(operation, s).Observe(duration)
	BackendCallsTotal.WithLabelValues(operation, s).Inc()
}

// RecordResolution records a ticker resolution.
func RecordResolution(existed bool) {
	ResolutionsTotal.WithLabelValues(strconv.FormatBool(existed)).Inc()
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
