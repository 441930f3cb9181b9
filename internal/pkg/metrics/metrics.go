// Package metrics provides Prometheus metrics recording for internal packages.
// It sits below the exception and middleware packages so both can record
// without importing each other.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// errorResponsesTotal counts error responses by failure kind and status
	errorResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apikit_error_responses_total",
			Help: "Total number of error responses rendered",
		},
		[]string{"kind", "status"},
	)

	// panicsTotal counts recovered handler panics
	panicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "apikit_panics_recovered_total",
			Help: "Total number of handler panics recovered",
		},
	)

	// shutdownDuration tracks how long graceful shutdown took
	shutdownDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "apikit_shutdown_duration_seconds",
			Help:    "Graceful shutdown duration in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30},
		},
	)
)

// RecordErrorResponse records one rendered error response
func RecordErrorResponse(kind string, status int) {
	errorResponsesTotal.WithLabelValues(kind, strconv.Itoa(status)).Inc()
}

// RecordPanic records a recovered panic
func RecordPanic() {
	panicsTotal.Inc()
}

// RecordShutdown records the duration of a graceful shutdown
func RecordShutdown(duration time.Duration) {
	shutdownDuration.Observe(duration.Seconds())
}

// ErrorResponses returns the error response counter for kind and status
func ErrorResponses(kind string, status int) prometheus.Counter {
	return errorResponsesTotal.WithLabelValues(kind, strconv.Itoa(status))
}

// Panics returns the recovered panic counter
func Panics() prometheus.Counter {
	return panicsTotal
}
