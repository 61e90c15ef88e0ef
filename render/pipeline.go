package render

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/diagramflow/cache"
	"github.com/jonwraymond/diagramflow/observe"
	"github.com/jonwraymond/diagramflow/renderer"
	"github.com/jonwraymond/diagramflow/resilience"
	"github.com/jonwraymond/diagramflow/sanitize"
)

// ErrNilRenderer indicates Config.Renderer was not set.
var ErrNilRenderer = errors.New("render: renderer is nil")

// Request is one render invocation: raw source plus parameters. The raw
// source is kept so a host can offer it back to the user on failure.
type Request struct {
	Source string
	Params renderer.Params
}

// Config configures the pipeline.
type Config struct {
	// Renderer is the external tool collaborator. Required.
	Renderer renderer.Renderer

	// Store is the cache. If nil, a default two-tier store (memory over
	// temp-dir disk) is created.
	Store cache.Store

	// Sanitizer repairs raw source before keying and rendering. If nil,
	// sanitize.Sanitize is used.
	Sanitizer func(string) string

	// Timeout bounds the external renderer call. Default: 30s.
	Timeout time.Duration

	// Observer supplies logging, metrics, and tracing. If nil, telemetry
	// is disabled.
	Observer observe.Observer
}

// Pipeline owns the render state machine.
type Pipeline struct {
	renderer renderer.Renderer
	store    cache.Store
	sanitize func(string) string
	timeout  *resilience.Timeout
	logger   observe.Logger
	metrics  observe.Metrics
	tracer   observe.Tracer
	group    singleflight.Group
}

// NewPipeline creates a pipeline.
func NewPipeline(config Config) (*Pipeline, error) {
	if config.Renderer == nil {
		return nil, ErrNilRenderer
	}
	if config.Store == nil {
		config.Store = cache.NewTieredStore(cache.TieredConfig{})
	}
	if config.Sanitizer == nil {
		config.Sanitizer = sanitize.Sanitize
	}

	logger := observe.NopLogger()
	metrics := observe.NopMetrics()
	tracer := observe.NopTracer()
	if config.Observer != nil {
		logger = config.Observer.Logger().WithComponent("render")
		metrics = config.Observer.Metrics()
		tracer = observe.NewTracer(config.Observer.Tracer())
	}

	return &Pipeline{
		renderer: config.Renderer,
		store:    config.Store,
		sanitize: config.Sanitizer,
		timeout:  resilience.NewTimeout(config.Timeout),
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
	}, nil
}

// Render runs one request on a background goroutine and streams state
// transitions. The channel is buffered for every possible transition and
// closed after the terminal state, so an abandoned receiver never blocks
// the pipeline.
func (p *Pipeline) Render(ctx context.Context, req Request) <-chan Update {
	updates := make(chan Update, 4)
	go func() {
		defer close(updates)
		p.run(ctx, req, updates)
	}()
	return updates
}

// RenderSync runs one request to completion and returns the terminal
// update.
func (p *Pipeline) RenderSync(ctx context.Context, req Request) Update {
	var last Update
	for u := range p.Render(ctx, req) {
		last = u
	}
	return last
}

// ClearMemory drops the memory tier, if the store is tiered. Durable
// entries survive for future processes.
func (p *Pipeline) ClearMemory() {
	if tiered, ok := p.store.(*cache.TieredStore); ok {
		tiered.ClearMemory()
	}
}

func (p *Pipeline) run(ctx context.Context, req Request, updates chan<- Update) {
	sanitized := p.sanitize(req.Source)
	meta := p.meta(sanitized, req.Params)

	ctx, span := p.tracer.StartSpan(ctx, meta)
	start := time.Now()

	terminal := p.walk(ctx, req, sanitized, &meta, updates)
	updates <- terminal

	p.metrics.RecordRender(ctx, meta, time.Since(start), terminal.Err)
	p.tracer.EndSpan(span, terminal.Err)
}

// walk performs the transitions up to, but not including, the terminal
// update, which it returns. It fills in meta.CacheTier once the lookup
// resolves.
func (p *Pipeline) walk(ctx context.Context, req Request, sanitized string, meta *observe.RenderMeta, updates chan<- Update) Update {
	key := cache.Key(sanitized, req.Params.Theme, req.Params.BackgroundColor)

	// A cache hit bypasses the external tool entirely; availability is
	// not even probed.
	data, tier, ok := p.lookup(ctx, key)
	meta.CacheTier = tier
	if ok {
		p.metrics.RecordCacheLookup(ctx, tier, true)
		p.logger.Debug(ctx, "cache hit",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "tier", Value: tier})
		return Update{State: StateSucceeded, Image: data}
	}
	p.metrics.RecordCacheLookup(ctx, tier, false)

	updates <- Update{State: StateCheckingAvailability}
	if err := ctx.Err(); err != nil {
		return Update{State: StateFailed, Err: err}
	}
	if !p.renderer.IsAvailable(ctx) {
		return Update{State: StateUnavailable}
	}

	updates <- Update{State: StateRendering}
	// Last cancellation point: once the renderer call starts it runs to
	// completion and its result is cached, even if the requester is gone.
	if err := ctx.Err(); err != nil {
		return Update{State: StateFailed, Err: err}
	}

	data, err := p.renderOnce(context.WithoutCancel(ctx), key, sanitized, req.Params)
	switch {
	case err == nil:
		return Update{State: StateSucceeded, Image: data}
	case errors.Is(err, renderer.ErrUnavailable):
		// The tool vanished between check and call.
		return Update{State: StateUnavailable}
	default:
		p.logger.Warn(ctx, "render failed",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()})
		return Update{State: StateFailed, Err: err}
	}
}

// lookup consults the store, resolving the serving tier when the store is
// tiered. Flat stores report every lookup under a single label.
func (p *Pipeline) lookup(ctx context.Context, key string) ([]byte, string, bool) {
	if tiered, ok := p.store.(*cache.TieredStore); ok {
		return tiered.GetWithTier(ctx, key)
	}
	data, ok := p.store.Get(ctx, key)
	tier := "store"
	if !ok {
		tier = cache.TierNone
	}
	return data, tier, ok
}

// renderOnce invokes the external tool under the timeout, coalescing
// concurrent identical requests into a single call whose result every
// waiter shares.
func (p *Pipeline) renderOnce(ctx context.Context, key, sanitized string, params renderer.Params) ([]byte, error) {
	v, err, _ := p.group.Do(key, func() (any, error) {
		var data []byte
		err := p.timeout.Execute(ctx, func(ctx context.Context) error {
			b, err := p.renderer.Render(ctx, sanitized, params)
			if err != nil {
				return err
			}
			data = b
			return nil
		})
		if err != nil {
			return nil, err
		}
		if err := p.store.Put(ctx, key, data); err != nil {
			// The image is still good; the next request re-renders.
			p.logger.Warn(ctx, "cache write failed",
				observe.Field{Key: "key", Value: key},
				observe.Field{Key: "error", Value: err.Error()})
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// meta builds span/metric metadata for a request.
func (p *Pipeline) meta(sanitized string, params renderer.Params) observe.RenderMeta {
	meta := observe.RenderMeta{
		Theme:      params.Theme,
		Background: params.BackgroundColor,
	}
	if detected := sanitize.Detect(sanitized); len(detected) > 0 {
		meta.Grammar = string(detected[0])
	}
	return meta
}
