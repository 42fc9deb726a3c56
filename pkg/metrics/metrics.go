// Package metrics provides Prometheus metrics for bridge operations.
// Counters are registered automatically and are safe for concurrent use.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Conversions counts bridge conversions by direction (export/import),
	// node kind (schema/array) and status (success/error).
	Conversions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arrowbridge_conversions_total",
			Help: "Total bridge conversions by direction, node kind and status",
		},
		[]string{"direction", "node", "status"},
	)

	// Releases counts foreign node release callbacks by node kind. Each
	// released node increments once, including recursively released children.
	Releases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arrowbridge_releases_total",
			Help: "Total foreign node releases by node kind",
		},
		[]string{"node"},
	)

	// ConversionDuration tracks conversion latency by direction.
	ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arrowbridge_conversion_duration_seconds",
			Help:    "Bridge conversion latency by direction",
			Buckets: prometheus.ExponentialBuckets(1e-7, 10, 8),
		},
		[]string{"direction"},
	)
)

// RecordConversion increments the conversion counter for one operation.
func RecordConversion(direction, node string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	Conversions.WithLabelValues(direction, node, status).Inc()
}

// RecordRelease increments the release counter for one node teardown.
func RecordRelease(node string) {
	Releases.WithLabelValues(node).Inc()
}

// Timer measures the duration of a single conversion.
type Timer struct {
	direction string
	start     time.Time
}

// NewTimer starts a timer for the given direction.
func NewTimer(direction string) *Timer {
	return &Timer{direction: direction, start: time.Now()}
}

// Stop records the elapsed time and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	ConversionDuration.WithLabelValues(t.direction).Observe(elapsed.Seconds())
	return elapsed
}
