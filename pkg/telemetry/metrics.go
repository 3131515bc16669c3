package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus instruments for membership operations.
type Metrics struct {
	operations         *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	invariantRejection *prometheus.CounterVec
	lockWait           prometheus.Histogram
}

// NewMetrics registers the instruments on the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer registers the instruments on reg. A nil reg skips registration.
func NewMetricsWithRegisterer(reg prometheus.Registerer) *Metrics {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orgkeeper_operations_total",
		Help: "Counts membership manager operations by name and outcome.",
	}, []string{"operation", "outcome"})

	operationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orgkeeper_operation_duration_seconds",
		Help:    "Latency of membership manager operations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	invariantRejection := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orgkeeper_invariant_rejections_total",
		Help: "Counts operations rejected to protect an invariant.",
	}, []string{"invariant"})

	lockWait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orgkeeper_org_lock_wait_seconds",
		Help:    "Time spent waiting for the per-organization lock.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	if reg != nil {
		reg.MustRegister(operations, operationDuration, invariantRejection, lockWait)
	}

	return &Metrics{
		operations:         operations,
		operationDuration:  operationDuration,
		invariantRejection: invariantRejection,
		lockWait:           lockWait,
	}
}

// ObserveOperation records the outcome and latency of one operation.
func (m *Metrics) ObserveOperation(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordInvariantRejection counts an operation refused by an invariant guard.
func (m *Metrics) RecordInvariantRejection(invariant string) {
	if m == nil {
		return
	}
	m.invariantRejection.WithLabelValues(invariant).Inc()
}

// ObserveLockWait records how long a caller waited for an organization lock.
func (m *Metrics) ObserveLockWait(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(elapsed.Seconds())
}
