package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all platform-level metrics for the configuration
// layer: template expansion and contract validation.
type Metrics struct {
	// Template expansion metrics
	ExpansionsTotal      *prometheus.CounterVec
	ExpansionErrorsTotal *prometheus.CounterVec
	ExpansionDuration    *prometheus.HistogramVec

	// Contract validation metrics
	ContractValidationsTotal *prometheus.CounterVec
	ContractErrorsTotal      *prometheus.CounterVec

	// Template store metrics
	StoreOperationsTotal *prometheus.CounterVec

	// NATS metrics
	NATSConnected  prometheus.Gauge
	NATSReconnects prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ExpansionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "graphcfg",
				Subsystem: "template",
				Name:      "expansions_total",
				Help:      "Total number of template expansions",
			},
			[]string{"template", "status"},
		),

		ExpansionErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "graphcfg",
				Subsystem: "template",
				Name:      "expansion_errors_total",
				Help:      "Total number of errors accumulated during template expansion",
			},
			[]string{"template", "class"},
		),

		ExpansionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "graphcfg",
				Subsystem: "template",
				Name:      "expansion_duration_seconds",
				Help:      "Template expansion duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"template"},
		),

		ContractValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "graphcfg",
				Subsystem: "contract",
				Name:      "validations_total",
				Help:      "Total number of node contract validations",
			},
			[]string{"node_type", "status"},
		),

		ContractErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "graphcfg",
				Subsystem: "contract",
				Name:      "errors_total",
				Help:      "Total number of contract violations by class",
			},
			[]string{"node_type", "class"},
		),

		StoreOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "graphcfg",
				Subsystem: "store",
				Name:      "operations_total",
				Help:      "Total number of template store operations",
			},
			[]string{"operation", "status"},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "graphcfg",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "graphcfg",
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),
	}
}

// RecordExpansion records one completed expansion attempt
func (m *Metrics) RecordExpansion(template string, errCount int, elapsed time.Duration) {
	status := "success"
	if errCount > 0 {
		status = "error"
	}
	m.ExpansionsTotal.WithLabelValues(template, status).Inc()
	m.ExpansionDuration.WithLabelValues(template).Observe(elapsed.Seconds())
	if errCount > 0 {
		m.ExpansionErrorsTotal.WithLabelValues(template, "semantic").Add(float64(errCount))
	}
}

// RecordValidation records one node contract validation
func (m *Metrics) RecordValidation(nodeType string, errCount int) {
	status := "success"
	if errCount > 0 {
		status = "error"
	}
	m.ContractValidationsTotal.WithLabelValues(nodeType, status).Inc()
	if errCount > 0 {
		m.ContractErrorsTotal.WithLabelValues(nodeType, "contract").Add(float64(errCount))
	}
}

// RecordStoreOperation records one template store operation outcome
func (m *Metrics) RecordStoreOperation(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
}
