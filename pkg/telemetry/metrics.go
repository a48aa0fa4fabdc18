package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	qerrors "github.com/vango-dev/quill/internal/errors"
	"github.com/vango-dev/quill/pkg/quill"
)

// MetricsConfig configures the Prometheus hook.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "quill").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for tick duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use. A registry accepts one
	// hook; create a registry per root.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus hook.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "quill",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// PrometheusHook records tick metrics.
type PrometheusHook struct {
	ticksTotal         prometheus.Counter
	tickDuration       prometheus.Histogram
	editsTotal         *prometheus.CounterVec
	evaluationsTotal   prometheus.Counter
	invalidationsTotal prometheus.Counter
	skippedTotal       prometheus.Counter
	passes             prometheus.Histogram
	deferred           prometheus.Gauge
	instances          prometheus.Gauge
	errorsTotal        *prometheus.CounterVec
}

var _ quill.Hook = (*PrometheusHook)(nil)

// Prometheus creates a hook that collects tick metrics.
//
// Metrics collected:
//   - quill_ticks_total: Counter of flushes
//   - quill_tick_duration_seconds: Histogram of flush duration
//   - quill_edits_total: Counter of emitted edits by op
//   - quill_evaluations_total: Counter of computation evaluations
//   - quill_invalidations_total: Counter of dirty marks
//   - quill_skipped_total: Counter of disposed computations skipped
//   - quill_passes: Histogram of passes per flush
//   - quill_deferred_computations: Gauge of computations left for the next tick
//   - quill_instances: Gauge of mounted component instances
//   - quill_tick_errors_total: Counter of tick errors by code
func Prometheus(opts ...MetricsOption) *PrometheusHook {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &PrometheusHook{
		ticksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "ticks_total",
			Help:        "Total number of flushes",
			ConstLabels: config.ConstLabels,
		}),

		tickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tick_duration_seconds",
			Help:        "Flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		editsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "edits_total",
			Help:        "Total number of emitted edits by op",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		evaluationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "evaluations_total",
			Help:        "Total number of computation evaluations",
			ConstLabels: config.ConstLabels,
		}),

		invalidationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "invalidations_total",
			Help:        "Total number of computations marked dirty",
			ConstLabels: config.ConstLabels,
		}),

		skippedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "skipped_total",
			Help:        "Total number of disposed computations dropped from the queue",
			ConstLabels: config.ConstLabels,
		}),

		passes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passes",
			Help:        "Passes per flush",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0, 1, 2, 4, 8, 16, 32},
		}),

		deferred: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "deferred_computations",
			Help:        "Dirty computations left for the next flush",
			ConstLabels: config.ConstLabels,
		}),

		instances: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "instances",
			Help:        "Mounted component instances",
			ConstLabels: config.ConstLabels,
		}),

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tick_errors_total",
			Help:        "Total tick errors by code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),
	}
}

// BeforeTick implements quill.Hook.
func (h *PrometheusHook) BeforeTick(ctx context.Context, _ uint64) context.Context {
	return ctx
}

// AfterTick implements quill.Hook.
func (h *PrometheusHook) AfterTick(_ context.Context, report quill.TickReport) {
	h.ticksTotal.Inc()
	h.tickDuration.Observe(report.Duration.Seconds())
	for _, e := range report.Edits {
		h.editsTotal.WithLabelValues(e.Op.String()).Inc()
	}
	h.evaluationsTotal.Add(float64(report.Stats.Evaluations))
	h.invalidationsTotal.Add(float64(report.Stats.Invalidations))
	h.skippedTotal.Add(float64(report.Stats.Skipped))
	h.passes.Observe(float64(report.Stats.Passes))
	h.deferred.Set(float64(report.Stats.Deferred))
	h.instances.Set(float64(report.Instances))
	for _, code := range errorCodes(report.Err) {
		h.errorsTotal.WithLabelValues(code).Inc()
	}
}

// errorCodes returns one code per error joined into err. Errors without a
// code are reported as "unknown".
func errorCodes(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var codes []string
		for _, e := range joined.Unwrap() {
			codes = append(codes, errorCodes(e)...)
		}
		return codes
	}
	if code := qerrors.CodeOf(err); code != "" {
		return []string{code}
	}
	return []string{"unknown"}
}
