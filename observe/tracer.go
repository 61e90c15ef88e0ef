package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// RenderMeta carries render-request metadata onto spans and metrics.
type RenderMeta struct {
	Grammar    string // detected diagram grammar (may be empty)
	Theme      string
	Background string
	CacheTier  string // tier that served the request: memory|durable|none
}

// SpanName returns the deterministic span name for a render.
// Format: diagram.render.<grammar> or diagram.render
func (m RenderMeta) SpanName() string {
	if m.Grammar != "" {
		return "diagram.render." + m.Grammar
	}
	return "diagram.render"
}

func (m RenderMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("diagram.theme", m.Theme),
	}
	if m.Grammar != "" {
		attrs = append(attrs, attribute.String("diagram.grammar", m.Grammar))
	}
	if m.Background != "" {
		attrs = append(attrs, attribute.String("diagram.background", m.Background))
	}
	if m.CacheTier != "" {
		attrs = append(attrs, attribute.String("diagram.cache_tier", m.CacheTier))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with render-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a span for one render request.
	StartSpan(ctx context.Context, meta RenderMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a span with render metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta RenderMeta) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(meta.attributes()...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span, recording error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// NopTracer returns a tracer that records nothing.
func NopTracer() Tracer {
	return &tracerImpl{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
}
