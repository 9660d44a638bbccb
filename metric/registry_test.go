package metric

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRegistersCoreMetrics(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r.CoreMetrics())

	r.Metrics.RecordExpansion("demo", 0, 5*time.Millisecond)

	count := testutil.ToFloat64(r.Metrics.ExpansionsTotal.WithLabelValues("demo", "success"))
	assert.Equal(t, 1.0, count)
}

func TestRecordExpansionErrorStatus(t *testing.T) {
	m := NewMetrics()
	m.RecordExpansion("demo", 3, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExpansionsTotal.WithLabelValues("demo", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ExpansionErrorsTotal.WithLabelValues("demo", "semantic")))
}

func TestRecordValidation(t *testing.T) {
	m := NewMetrics()
	m.RecordValidation("adder", 0)
	m.RecordValidation("adder", 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ContractValidationsTotal.WithLabelValues("adder", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ContractValidationsTotal.WithLabelValues("adder", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ContractErrorsTotal.WithLabelValues("adder", "contract")))
}

func TestRegisterCounterRejectsDuplicate(t *testing.T) {
	r := NewRegistry()

	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_ops_total"})
	require.NoError(t, r.RegisterCounter("svc", "test_ops_total", c))

	c2 := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_ops_total"})
	err := r.RegisterCounter("svc", "test_ops_total", c2)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()

	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_ops_total"})
	require.NoError(t, r.RegisterCounter("svc", "test_ops_total", c))

	assert.True(t, r.Unregister("svc", "test_ops_total"))
	assert.False(t, r.Unregister("svc", "test_ops_total"))
}
