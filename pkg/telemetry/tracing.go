package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/quill/pkg/quill"
)

// Default tracer name for quill roots.
const defaultTracerName = "github.com/vango-dev/quill"

// OTelConfig configures the OpenTelemetry hook.
type OTelConfig struct {
	// TracerName is the name of the tracer.
	TracerName string

	// TracerProvider resolves the tracer. Default: otel.GetTracerProvider().
	TracerProvider trace.TracerProvider
}

// OTelOption configures the OpenTelemetry hook.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// TracingHook traces every tick as a span.
type TracingHook struct {
	config OTelConfig
	tracer trace.Tracer
}

var _ quill.Hook = (*TracingHook)(nil)

// OpenTelemetry creates a hook that opens a span per tick. The span is
// carried in the context handed to later hooks, so their work nests under
// it.
func OpenTelemetry(opts ...OTelOption) *TracingHook {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	return &TracingHook{
		config: config,
		tracer: config.TracerProvider.Tracer(config.TracerName),
	}
}

// BeforeTick implements quill.Hook.
func (h *TracingHook) BeforeTick(ctx context.Context, tick uint64) context.Context {
	ctx, _ = h.tracer.Start(ctx, "quill.tick",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.Int64("quill.tick", int64(tick))),
	)
	return ctx
}

// AfterTick implements quill.Hook.
func (h *TracingHook) AfterTick(ctx context.Context, report quill.TickReport) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.SetAttributes(
		attribute.Int("quill.edits", len(report.Edits)),
		attribute.Int("quill.evaluations", report.Stats.Evaluations),
		attribute.Int("quill.invalidations", report.Stats.Invalidations),
		attribute.Int("quill.passes", report.Stats.Passes),
		attribute.Int("quill.deferred", report.Stats.Deferred),
		attribute.Int("quill.instances", report.Instances),
	)
	if report.Err != nil {
		span.RecordError(report.Err)
		span.SetStatus(codes.Error, report.Err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
