package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type engineMetrics struct {
	operations *prometheus.CounterVec
	errors     *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	events     *prometheus.CounterVec
}

var (
	engineMetricsOnce sync.Once
	engineRegistry    *engineMetrics
)

// EngineMetrics returns the lazily-initialised metrics registry used to
// record settlement engine activity.
func EngineMetrics() *engineMetrics {
	engineMetricsOnce.Do(func() {
		engineRegistry = &engineMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "swarmpay",
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Total settlement operations segmented by engine, op, and outcome.",
			}, []string{"engine", "op", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "swarmpay",
				Subsystem: "engine",
				Name:      "errors_total",
				Help:      "Total settlement operation failures segmented by engine and op.",
			}, []string{"engine", "op"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "swarmpay",
				Subsystem: "engine",
				Name:      "operation_duration_seconds",
				Help:      "Latency distribution for settlement operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"engine", "op"}),
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "swarmpay",
				Subsystem: "engine",
				Name:      "events_total",
				Help:      "Total events emitted by the settlement engines, by event type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(
			engineRegistry.operations,
			engineRegistry.errors,
			engineRegistry.latency,
			engineRegistry.events,
		)
	})
	return engineRegistry
}

// Observe records one settlement operation and its duration.
func (m *engineMetrics) Observe(engine, op string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		m.errors.WithLabelValues(engine, op).Inc()
	}
	m.operations.WithLabelValues(engine, op, outcome).Inc()
	m.latency.WithLabelValues(engine, op).Observe(duration.Seconds())
}

// CountEvent records one emitted engine event.
func (m *engineMetrics) CountEvent(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType).Inc()
}
