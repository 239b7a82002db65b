package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics provides Prometheus metrics for sync and store operations.
// A Metrics built from a disabled config records nothing.
type Metrics struct {
	config MetricsConfig

	syncOperations *prometheus.CounterVec
	syncRows       *prometheus.CounterVec
	syncDuration   *prometheus.HistogramVec

	schemaRepairs *prometheus.CounterVec
	recordWrites  *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		syncOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_operations_total",
				Help:      "Total number of per-table sync operations by direction and outcome",
			},
			[]string{"direction", "table", "outcome"},
		),
		syncRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_rows_total",
				Help:      "Total number of rows transferred by sync",
			},
			[]string{"direction", "table"},
		),
		syncDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_duration_seconds",
				Help:      "Duration of per-table sync operations",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
			},
			[]string{"direction", "table"},
		),
		schemaRepairs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "schema_repairs_total",
				Help:      "Total number of writes that needed a schema repair before succeeding",
			},
			[]string{"table"},
		),
		recordWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "record_writes_total",
				Help:      "Total number of record writes by table and operation",
			},
			[]string{"table", "op"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.syncOperations, m.syncRows, m.syncDuration, m.schemaRepairs, m.recordWrites,
	} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return m, nil
}

// Enabled reports whether metrics are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.registry != nil
}

// RecordSync records the outcome of one per-table sync operation.
// outcome is one of ok, skipped, error.
func (m *Metrics) RecordSync(direction, table, outcome string, rows int, duration time.Duration) {
	if !m.Enabled() {
		return
	}
	m.syncOperations.WithLabelValues(direction, table, outcome).Inc()
	if rows > 0 {
		m.syncRows.WithLabelValues(direction, table).Add(float64(rows))
	}
	m.syncDuration.WithLabelValues(direction, table).Observe(duration.Seconds())
}

// RecordSchemaRepair records a write that healed the schema and retried.
func (m *Metrics) RecordSchemaRepair(table string) {
	if !m.Enabled() {
		return
	}
	m.schemaRepairs.WithLabelValues(table).Inc()
}

// RecordWrite records a record write.
func (m *Metrics) RecordWrite(table, op string) {
	if !m.Enabled() {
		return
	}
	m.recordWrites.WithLabelValues(table, op).Inc()
}

// Registry returns the underlying registry, nil when disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes the current metric values to the configured
// textfile path in the Prometheus exposition format.
func (m *Metrics) WriteTextfile() error {
	if !m.Enabled() || m.config.TextfilePath == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.config.TextfilePath, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer starting now.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
