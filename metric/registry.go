package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/c360/graphcfg/errors"
)

// Registrar defines the interface for registering caller-specific metrics
type Registrar interface {
	RegisterCounter(owner, metricName string, counter prometheus.Counter) error
	RegisterGauge(owner, metricName string, gauge prometheus.Gauge) error
	RegisterHistogram(owner, metricName string, histogram prometheus.Histogram) error
	Unregister(owner, metricName string) bool
}

// Registry manages the registration and lifecycle of metrics
type Registry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
	registeredMetrics  map[string]prometheus.Collector
	mu                 sync.RWMutex
}

// NewRegistry creates a new metrics registry with core platform metrics
func NewRegistry() *Registry {
	prometheusRegistry := prometheus.NewRegistry()

	registry := &Registry{
		prometheusRegistry: prometheusRegistry,
		registeredMetrics:  make(map[string]prometheus.Collector),
	}

	registry.Metrics = NewMetrics()
	registry.registerCore()

	// Add Go runtime metrics
	registry.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return registry
}

func (r *Registry) registerCore() {
	r.prometheusRegistry.MustRegister(
		r.Metrics.ExpansionsTotal,
		r.Metrics.ExpansionErrorsTotal,
		r.Metrics.ExpansionDuration,
		r.Metrics.ContractValidationsTotal,
		r.Metrics.ContractErrorsTotal,
		r.Metrics.StoreOperationsTotal,
		r.Metrics.NATSConnected,
		r.Metrics.NATSReconnects,
	)
}

// PrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// CoreMetrics returns the core platform metrics
func (r *Registry) CoreMetrics() *Metrics {
	return r.Metrics
}

func (r *Registry) register(owner, metricName, method string, c prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", owner, metricName)

	if _, exists := r.registeredMetrics[key]; exists {
		return errors.WrapContract(
			fmt.Errorf("metric %s already registered for %s", metricName, owner),
			"Registry", method, "duplicate metric registration")
	}

	if err := r.prometheusRegistry.Register(c); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if stderrors.As(err, &alreadyRegErr) {
			return errors.WrapContract(err, "Registry", method,
				fmt.Sprintf("prometheus conflict for metric %s", metricName))
		}
		return errors.Wrap(err, "Registry", method,
			"failed to register collector with prometheus")
	}

	r.registeredMetrics[key] = c
	return nil
}

// RegisterCounter registers a counter metric for a caller
func (r *Registry) RegisterCounter(owner, metricName string, counter prometheus.Counter) error {
	return r.register(owner, metricName, "RegisterCounter", counter)
}

// RegisterGauge registers a gauge metric for a caller
func (r *Registry) RegisterGauge(owner, metricName string, gauge prometheus.Gauge) error {
	return r.register(owner, metricName, "RegisterGauge", gauge)
}

// RegisterHistogram registers a histogram metric for a caller
func (r *Registry) RegisterHistogram(owner, metricName string, histogram prometheus.Histogram) error {
	return r.register(owner, metricName, "RegisterHistogram", histogram)
}

// Unregister removes a previously registered metric. It reports whether
// the metric was found.
func (r *Registry) Unregister(owner, metricName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", owner, metricName)
	c, exists := r.registeredMetrics[key]
	if !exists {
		return false
	}

	delete(r.registeredMetrics, key)
	return r.prometheusRegistry.Unregister(c)
}
