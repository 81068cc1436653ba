// Package metrics exposes Prometheus collectors for the external library
// pipeline. A nil *Metrics is valid and records nothing, so components can
// take one unconditionally.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "palette").
	Namespace string

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// Metrics holds the pipeline collectors.
type Metrics struct {
	cyclesTotal        *prometheus.CounterVec
	cycleDuration      prometheus.Histogram
	joinsTotal         prometheus.Counter
	diagnosticsTotal   *prometheus.CounterVec
	declarationLookups *prometheus.CounterVec
	registeredTypes    prometheus.Gauge
}

// New creates and registers the collectors.
func New(opts ...Option) *Metrics {
	cfg := Config{
		Namespace: "palette",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Metrics{
		cyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "engine",
			Name:      "cycles_total",
			Help:      "Load cycles by library and final status.",
		}, []string{"library", "status"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "engine",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of load cycles.",
			Buckets:   prometheus.DefBuckets,
		}),
		joinsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "engine",
			Name:      "inflight_joins_total",
			Help:      "Ensure calls that joined an in-flight cycle instead of starting one.",
		}),
		diagnosticsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "engine",
			Name:      "diagnostics_total",
			Help:      "Diagnostics reported by code.",
		}, []string{"code", "level"}),
		declarationLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "enricher",
			Name:      "declaration_lookups_total",
			Help:      "Declaration file lookups by the tier that answered them.",
		}, []string{"tier"}),
		registeredTypes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "registry",
			Name:      "runtime_types",
			Help:      "Runtime types currently registered.",
		}),
	}

	if cfg.Registry != nil {
		cfg.Registry.MustRegister(
			m.cyclesTotal,
			m.cycleDuration,
			m.joinsTotal,
			m.diagnosticsTotal,
			m.declarationLookups,
			m.registeredTypes,
		)
	}

	return m
}

// Lookup tiers reported by DeclarationLookup.
const (
	TierMemory  = "memory"
	TierStorage = "storage"
	TierNetwork = "network"
	TierFailed  = "failed"
)

// CycleFinished records a completed load cycle.
func (m *Metrics) CycleFinished(library, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.cyclesTotal.WithLabelValues(library, status).Inc()
	m.cycleDuration.Observe(duration.Seconds())
}

// Joined records an ensure call that joined an in-flight cycle.
func (m *Metrics) Joined() {
	if m == nil {
		return
	}
	m.joinsTotal.Inc()
}

// Diagnostic records a reported diagnostic.
func (m *Metrics) Diagnostic(code, level string) {
	if m == nil {
		return
	}
	m.diagnosticsTotal.WithLabelValues(code, level).Inc()
}

// DeclarationLookup records which tier answered a declaration lookup.
func (m *Metrics) DeclarationLookup(tier string) {
	if m == nil {
		return
	}
	m.declarationLookups.WithLabelValues(tier).Inc()
}

// RegisteredTypes sets the number of registered runtime types.
func (m *Metrics) RegisteredTypes(n int) {
	if m == nil {
		return
	}
	m.registeredTypes.Set(float64(n))
}
