package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(WithRegistry(prometheus.NewRegistry()), WithNamespace("test"))

	m.CycleFinished("mui", "success", 20*time.Millisecond)
	m.CycleFinished("mui", "success", 10*time.Millisecond)
	m.Joined()
	m.Diagnostic("ELIB-1001", "error")
	m.DeclarationLookup(TierMemory)
	m.DeclarationLookup(TierMemory)
	m.RegisteredTypes(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cyclesTotal.WithLabelValues("mui", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.joinsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.diagnosticsTotal.WithLabelValues("ELIB-1001", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.declarationLookups.WithLabelValues(TierMemory)))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.registeredTypes))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CycleFinished("x", "error", time.Second)
		m.Joined()
		m.Diagnostic("c", "l")
		m.DeclarationLookup(TierFailed)
		m.RegisteredTypes(1)
	})
}
