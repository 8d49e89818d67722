package paranoia

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for soft delete operations.
type MetricsCollector struct {
	operationDuration *prometheus.HistogramVec
	softDeletes       *prometheus.CounterVec
	restores          *prometheus.CounterVec
	cascadedRestores  *prometheus.CounterVec
	haltedChains      *prometheus.CounterVec
}

// NewMetricsCollector creates a new Prometheus metrics collector.
// If registry is nil, uses the default Prometheus registry.
func NewMetricsCollector(registry prometheus.Registerer) *MetricsCollector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &MetricsCollector{
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "softdelete_operation_duration_seconds",
				Help:    "Lifecycle operation duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"operation", "entity"},
		),

		softDeletes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "softdelete_marks_total",
				Help: "Total number of records marked deleted",
			},
			[]string{"entity"},
		),

		restores: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "softdelete_restores_total",
				Help: "Total number of records restored",
			},
			[]string{"entity"},
		),

		cascadedRestores: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "softdelete_cascaded_restores_total",
				Help: "Total number of dependent records restored by a cascade",
			},
			[]string{"entity"},
		),

		haltedChains: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "softdelete_halted_chains_total",
				Help: "Total number of callback chains aborted by a hook",
			},
			[]string{"entity", "phase"},
		),
	}
}

// ObserveOperation records the duration of one lifecycle operation.
func (m *MetricsCollector) ObserveOperation(operation, entity string, duration time.Duration) {
	m.operationDuration.WithLabelValues(operation, entity).Observe(duration.Seconds())
}

// IncrementSoftDeletes increments the soft delete counter.
func (m *MetricsCollector) IncrementSoftDeletes(entity string) {
	m.softDeletes.WithLabelValues(entity).Inc()
}

// IncrementRestores increments the restore counter.
func (m *MetricsCollector) IncrementRestores(entity string) {
	m.restores.WithLabelValues(entity).Inc()
}

// IncrementCascadedRestores increments the cascaded restore counter.
func (m *MetricsCollector) IncrementCascadedRestores(entity string) {
	m.cascadedRestores.WithLabelValues(entity).Inc()
}

// IncrementHaltedChains increments the halted chain counter.
func (m *MetricsCollector) IncrementHaltedChains(entity string, phase Phase) {
	m.haltedChains.WithLabelValues(entity, string(phase)).Inc()
}
