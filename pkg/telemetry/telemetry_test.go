package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	qerrors "github.com/vango-dev/quill/internal/errors"
	"github.com/vango-dev/quill/pkg/quill"
	"github.com/vango-dev/quill/pkg/reactive"
	"github.com/vango-dev/quill/pkg/view"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func counterApp(t *testing.T, root *quill.Root) *reactive.Signal[int] {
	t.Helper()
	count := reactive.NewSignal(root.Runtime(), 0)
	app := view.Define("App", func(cx *view.Cx) *view.Node {
		return view.Box(view.Textf("%d", count.Get()))
	})
	if err := root.Mount(app, nil); err != nil {
		t.Fatal(err)
	}
	return count
}

func TestPrometheusHook(t *testing.T) {
	reg := prometheus.NewRegistry()
	hook := Prometheus(WithRegistry(reg), WithNamespace("test"))
	root := quill.New(quill.WithHooks(hook))
	count := counterApp(t, root)

	ctx := context.Background()
	if _, err := root.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	count.Set(1)
	if _, err := root.Flush(ctx); err != nil {
		t.Fatal(err)
	}

	if got := counterValue(t, hook.ticksTotal); got != 2 {
		t.Errorf("ticks_total = %v, want 2", got)
	}
	if got := counterValue(t, hook.editsTotal.WithLabelValues("Insert")); got != 1 {
		t.Errorf("edits_total{op=Insert} = %v, want 1", got)
	}
	if got := counterValue(t, hook.editsTotal.WithLabelValues("UpdateProps")); got != 1 {
		t.Errorf("edits_total{op=UpdateProps} = %v, want 1", got)
	}
	if got := counterValue(t, hook.evaluationsTotal); got != 1 {
		t.Errorf("evaluations_total = %v, want 1", got)
	}
	if got := gaugeValue(t, hook.instances); got != 1 {
		t.Errorf("instances = %v, want 1", got)
	}
	if got := histogramCount(t, hook.tickDuration); got != 2 {
		t.Errorf("tick_duration_seconds count = %d, want 2", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "test_ticks_total" {
			found = true
		}
	}
	if !found {
		t.Error("test_ticks_total not registered")
	}
}

func TestPrometheusHookErrors(t *testing.T) {
	hook := Prometheus(WithRegistry(prometheus.NewRegistry()))
	err := errors.Join(
		qerrors.New("Q005"),
		qerrors.New("Q002"),
		qerrors.New("Q005"),
		errors.New("plain"),
	)
	hook.AfterTick(context.Background(), quill.TickReport{Tick: 1, Err: err})

	for code, want := range map[string]float64{"Q005": 2, "Q002": 1, "unknown": 1} {
		if got := counterValue(t, hook.errorsTotal.WithLabelValues(code)); got != want {
			t.Errorf("tick_errors_total{code=%s} = %v, want %v", code, got, want)
		}
	}
}

// recordingProvider hands out a tracer that keeps the spans it started.
type recordingProvider struct {
	trace.TracerProvider
	tracer *recordingTracer
}

func (p *recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return p.tracer
}

type recordingTracer struct {
	trace.Tracer
	spans []*recordingSpan
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordingSpan{Span: trace.SpanFromContext(ctx), name: name, attrs: cfg.Attributes()}
	t.spans = append(t.spans, s)
	return trace.ContextWithSpan(ctx, s), s
}

type recordingSpan struct {
	trace.Span
	name   string
	attrs  []attribute.KeyValue
	status codes.Code
	errs   []error
	ended  bool
}

func (s *recordingSpan) SetAttributes(kv ...attribute.KeyValue) { s.attrs = append(s.attrs, kv...) }
func (s *recordingSpan) SetStatus(code codes.Code, _ string)     { s.status = code }
func (s *recordingSpan) RecordError(err error, _ ...trace.EventOption) {
	s.errs = append(s.errs, err)
}
func (s *recordingSpan) End(...trace.SpanEndOption) { s.ended = true }

func (s *recordingSpan) attr(key string) (attribute.Value, bool) {
	for _, kv := range s.attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestOpenTelemetryHook(t *testing.T) {
	tracer := &recordingTracer{Tracer: noop.NewTracerProvider().Tracer("")}
	hook := OpenTelemetry(WithTracerProvider(&recordingProvider{
		TracerProvider: noop.NewTracerProvider(),
		tracer:         tracer,
	}))

	var nested bool
	observer := quill.HookFuncs{After: func(ctx context.Context, _ quill.TickReport) {
		_, nested = trace.SpanFromContext(ctx).(*recordingSpan)
	}}
	root := quill.New(quill.WithHooks(hook, observer))
	counterApp(t, root)

	if _, err := root.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(tracer.spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(tracer.spans))
	}
	span := tracer.spans[0]
	if span.name != "quill.tick" || !span.ended || span.status != codes.Ok {
		t.Errorf("unexpected span %+v", span)
	}
	if v, ok := span.attr("quill.tick"); !ok || v.AsInt64() != 1 {
		t.Errorf("quill.tick attribute = %v", v)
	}
	if v, ok := span.attr("quill.edits"); !ok || v.AsInt64() != 1 {
		t.Errorf("quill.edits attribute = %v", v)
	}
	if !nested {
		t.Error("hooks registered after the tracer should run inside its span")
	}
}

func TestOpenTelemetryHookError(t *testing.T) {
	tracer := &recordingTracer{Tracer: noop.NewTracerProvider().Tracer("")}
	hook := OpenTelemetry(WithTracerProvider(&recordingProvider{tracer: tracer}))

	ctx := hook.BeforeTick(context.Background(), 7)
	hook.AfterTick(ctx, quill.TickReport{Tick: 7, Err: qerrors.New("Q002")})

	span := tracer.spans[0]
	if span.status != codes.Error || len(span.errs) != 1 || !span.ended {
		t.Errorf("expected an ended error span, got %+v", span)
	}
}
