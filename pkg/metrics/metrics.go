// Package metrics exposes the board's Prometheus collectors.
//
// Collectors are registered on the configured registerer when New is
// called. Tests pass a fresh prometheus.NewRegistry() so that several
// instances can coexist.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pinterest/teletraan/pkg/router"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "deployboard").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for API call latency.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is where collectors are registered.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		if namespace != "" {
			c.Namespace = namespace
		}
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the latency histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registerer.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "deployboard",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the board's collectors.
type Metrics struct {
	asyncPending *prometheus.GaugeVec
	apiCalls     *prometheus.CounterVec
	apiDuration  *prometheus.HistogramVec
	navigations  *prometheus.CounterVec
	liveSessions prometheus.Gauge
}

// New creates and registers the collectors. It panics if they are already
// registered on the same registerer.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		asyncPending: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "async_pending",
			Help:        "Number of in-flight data fetches",
			ConstLabels: config.ConstLabels,
		}, []string{"mode"}),

		apiCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "api_calls_total",
			Help:        "Total number of deploy service calls",
			ConstLabels: config.ConstLabels,
		}, []string{"op", "status"}),

		apiDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "api_call_duration_seconds",
			Help:        "Deploy service call duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"op"}),

		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of committed navigations by route",
			ConstLabels: config.ConstLabels,
		}, []string{"route"}),

		liveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_sessions",
			Help:        "Number of connected live sessions",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// AsyncGauge returns the in-flight gauge for one rendering mode ("live"
// or "render"). It satisfies asynctrack.Gauge.
func (m *Metrics) AsyncGauge(mode string) prometheus.Gauge {
	return m.asyncPending.WithLabelValues(mode)
}

// ObserveCall records one API call. It satisfies apiclient.Recorder.
func (m *Metrics) ObserveCall(op, status string, elapsed time.Duration) {
	m.apiCalls.WithLabelValues(op, status).Inc()
	m.apiDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveNavigation counts a committed navigation. Routes without an id
// are counted under their path.
func (m *Metrics) ObserveNavigation(r *router.Route) {
	if r == nil {
		return
	}
	label := r.ID
	if label == "" {
		label = r.Path
	}
	m.navigations.WithLabelValues(label).Inc()
}

// SessionOpened records a new live session.
func (m *Metrics) SessionOpened() {
	m.liveSessions.Inc()
}

// SessionClosed records the end of a live session.
func (m *Metrics) SessionClosed() {
	m.liveSessions.Dec()
}
