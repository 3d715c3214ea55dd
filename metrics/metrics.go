// Package metrics provides Prometheus metrics for the terminal backend.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webterm_commands_total",
			Help: "Total number of executed commands by outcome type",
		},
		[]string{"command", "type"},
	)

	commandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webterm_command_duration_seconds",
			Help:    "Command execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	fsOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webterm_fs_operations_total",
			Help: "Virtual file system operations by result code",
		},
		[]string{"op", "status"},
	)

	fsStorageBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webterm_fs_storage_bytes",
			Help: "Bytes of file content stored in the virtual file system",
		},
	)

	completionRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webterm_completion_requests_total",
			Help: "Total number of autocomplete requests",
		},
	)

	completionProviderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webterm_completion_provider_errors_total",
			Help: "Autocomplete provider failures, treated as empty output",
		},
		[]string{"provider"},
	)

	websocketConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webterm_websocket_connections_active",
			Help: "Number of open terminal websocket connections",
		},
	)

	suggestFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webterm_suggest_fallbacks_total",
			Help: "Remote search suggestion failures answered from the static list",
		},
	)
)

// RecordCommand records one dispatched command.
func RecordCommand(command, outcomeType string, duration time.Duration) {
	commandsTotal.WithLabelValues(command, outcomeType).Inc()
	commandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordFSOp records a file system operation; status is "ok" or an error code.
func RecordFSOp(op, status string) {
	fsOperationsTotal.WithLabelValues(op, status).Inc()
}

// SetStorageBytes sets the current content size of the virtual disk.
func SetStorageBytes(n int64) {
	fsStorageBytes.Set(float64(n))
}

// RecordCompletionRequest counts an autocomplete request.
func RecordCompletionRequest() {
	completionRequestsTotal.Inc()
}

// RecordProviderError counts a failed autocomplete provider.
func RecordProviderError(provider string) {
	completionProviderErrors.WithLabelValues(provider).Inc()
}

// ConnectionOpened increments the active websocket gauge.
func ConnectionOpened() {
	websocketConnectionsActive.Inc()
}

// ConnectionClosed decrements the active websocket gauge.
func ConnectionClosed() {
	websocketConnectionsActive.Dec()
}

// RecordSuggestFallback counts a static suggestion fallback.
func RecordSuggestFallback() {
	suggestFallbacksTotal.Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
