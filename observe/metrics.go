package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records render-pipeline measurements.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic and must return quickly.
type Metrics interface {
	// RecordRender records one completed render with duration and error
	// status.
	RecordRender(ctx context.Context, meta RenderMeta, duration time.Duration, err error)

	// RecordCacheLookup records a cache probe outcome for a tier.
	RecordCacheLookup(ctx context.Context, tier string, hit bool)
}

type metricsImpl struct {
	renderTotal  metric.Int64Counter
	renderErrors metric.Int64Counter
	renderDur    metric.Float64Histogram
	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	renderTotal, err := meter.Int64Counter(
		"diagram.render.total",
		metric.WithDescription("Total number of diagram renders"),
		metric.WithUnit("{render}"),
	)
	if err != nil {
		return nil, err
	}
	renderErrors, err := meter.Int64Counter(
		"diagram.render.errors",
		metric.WithDescription("Total number of failed diagram renders"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}
	renderDur, err := meter.Float64Histogram(
		"diagram.render.duration_ms",
		metric.WithDescription("Diagram render duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	cacheHits, err := meter.Int64Counter(
		"diagram.cache.hits",
		metric.WithDescription("Cache lookups served by a tier"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}
	cacheMisses, err := meter.Int64Counter(
		"diagram.cache.misses",
		metric.WithDescription("Cache lookups no tier could serve"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		renderTotal:  renderTotal,
		renderErrors: renderErrors,
		renderDur:    renderDur,
		cacheHits:    cacheHits,
		cacheMisses:  cacheMisses,
	}, nil
}

// RecordRender records counters and the duration histogram for one render.
func (m *metricsImpl) RecordRender(ctx context.Context, meta RenderMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.renderTotal.Add(ctx, 1, opt)
	if err != nil {
		m.renderErrors.Add(ctx, 1, opt)
	}
	m.renderDur.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordCacheLookup records a tier-labelled hit or miss.
func (m *metricsImpl) RecordCacheLookup(ctx context.Context, tier string, hit bool) {
	opt := metric.WithAttributes(attribute.String("cache.tier", tier))
	if hit {
		m.cacheHits.Add(ctx, 1, opt)
	} else {
		m.cacheMisses.Add(ctx, 1, opt)
	}
}

type noopMetrics struct{}

func (noopMetrics) RecordRender(context.Context, RenderMeta, time.Duration, error) {}
func (noopMetrics) RecordCacheLookup(context.Context, string, bool)                {}

// NopMetrics returns a metrics recorder that does nothing.
func NopMetrics() Metrics {
	return &noopMetrics{}
}
