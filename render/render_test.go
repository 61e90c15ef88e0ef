package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/diagramflow/cache"
	"github.com/jonwraymond/diagramflow/observe"
	"github.com/jonwraymond/diagramflow/renderer"
	"github.com/jonwraymond/diagramflow/resilience"
)

// fakeRenderer is a controllable Renderer test double.
type fakeRenderer struct {
	available   atomic.Bool
	availCalls  atomic.Int32
	renderCalls atomic.Int32
	renderFn    func(ctx context.Context, source string, params renderer.Params) ([]byte, error)
}

func newFakeRenderer() *fakeRenderer {
	f := &fakeRenderer{}
	f.available.Store(true)
	f.renderFn = func(context.Context, string, renderer.Params) ([]byte, error) {
		return []byte("image"), nil
	}
	return f
}

func (f *fakeRenderer) IsAvailable(context.Context) bool {
	f.availCalls.Add(1)
	return f.available.Load()
}

func (f *fakeRenderer) Render(ctx context.Context, source string, params renderer.Params) ([]byte, error) {
	f.renderCalls.Add(1)
	return f.renderFn(ctx, source, params)
}

// identity keeps test keys predictable.
func identity(s string) string { return s }

func newTestPipeline(t *testing.T, r renderer.Renderer, store cache.Store) *Pipeline {
	t.Helper()
	p, err := NewPipeline(Config{
		Renderer:  r,
		Store:     store,
		Sanitizer: identity,
		Timeout:   time.Second,
	})
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	return p
}

func collect(t *testing.T, updates <-chan Update) []Update {
	t.Helper()
	var got []Update
	for u := range updates {
		got = append(got, u)
	}
	if len(got) == 0 {
		t.Fatal("no updates received")
	}
	if !got[len(got)-1].State.Terminal() {
		t.Fatalf("last update %v is not terminal", got[len(got)-1].State)
	}
	return got
}

func states(updates []Update) []State {
	s := make([]State, len(updates))
	for i, u := range updates {
		s[i] = u.State
	}
	return s
}

// TestNewPipeline_RequiresRenderer verifies the nil-renderer guard.
func TestNewPipeline_RequiresRenderer(t *testing.T) {
	if _, err := NewPipeline(Config{}); !errors.Is(err, ErrNilRenderer) {
		t.Errorf("NewPipeline(Config{}) = %v, want ErrNilRenderer", err)
	}
}

// TestPipeline_SuccessPath verifies the full miss-then-render sequence and
// that the result lands in the cache.
func TestPipeline_SuccessPath(t *testing.T) {
	r := newFakeRenderer()
	store := cache.NewMemoryStore(cache.DefaultPolicy())
	p := newTestPipeline(t, r, store)
	req := Request{Source: "flowchart TD\nA-->B"}

	got := collect(t, p.Render(context.Background(), req))

	want := []State{StateCheckingAvailability, StateRendering, StateSucceeded}
	if gotStates := states(got); len(gotStates) != len(want) {
		t.Fatalf("states = %v, want %v", gotStates, want)
	} else {
		for i := range want {
			if gotStates[i] != want[i] {
				t.Fatalf("states = %v, want %v", gotStates, want)
			}
		}
	}
	if string(got[len(got)-1].Image) != "image" {
		t.Errorf("terminal image = %q, want %q", got[len(got)-1].Image, "image")
	}

	key := cache.Key(req.Source, "", "")
	if _, ok := store.Get(context.Background(), key); !ok {
		t.Error("rendered image not stored in cache")
	}
}

// TestPipeline_CacheHitBypassesAvailability verifies a cached entry
// short-circuits straight to success without probing the tool.
func TestPipeline_CacheHitBypassesAvailability(t *testing.T) {
	r := newFakeRenderer()
	r.available.Store(false) // tool absent, must not matter
	store := cache.NewMemoryStore(cache.DefaultPolicy())
	p := newTestPipeline(t, r, store)

	req := Request{Source: "pie\n\"a\" : 1"}
	key := cache.Key(req.Source, "", "")
	if err := store.Put(context.Background(), key, []byte("cached-image")); err != nil {
		t.Fatal(err)
	}

	got := collect(t, p.Render(context.Background(), req))

	if len(got) != 1 || got[0].State != StateSucceeded {
		t.Fatalf("states = %v, want [succeeded]", states(got))
	}
	if string(got[0].Image) != "cached-image" {
		t.Errorf("image = %q, want cached-image", got[0].Image)
	}
	if r.availCalls.Load() != 0 {
		t.Errorf("availability probed %d times on a cache hit, want 0", r.availCalls.Load())
	}
	if r.renderCalls.Load() != 0 {
		t.Errorf("renderer called %d times on a cache hit, want 0", r.renderCalls.Load())
	}
}

// TestPipeline_Unavailable verifies an absent tool terminates without a
// render attempt.
func TestPipeline_Unavailable(t *testing.T) {
	r := newFakeRenderer()
	r.available.Store(false)
	p := newTestPipeline(t, r, cache.NewMemoryStore(cache.DefaultPolicy()))

	got := collect(t, p.Render(context.Background(), Request{Source: "graph TD\nA-->B"}))

	last := got[len(got)-1]
	if last.State != StateUnavailable {
		t.Errorf("terminal state = %v, want unavailable", last.State)
	}
	if r.renderCalls.Load() != 0 {
		t.Errorf("renderer called %d times while unavailable, want 0", r.renderCalls.Load())
	}
}

// TestPipeline_UnavailableMidCall verifies a tool vanishing between probe
// and call still terminates as unavailable, not failed.
func TestPipeline_UnavailableMidCall(t *testing.T) {
	r := newFakeRenderer()
	r.renderFn = func(context.Context, string, renderer.Params) ([]byte, error) {
		return nil, renderer.ErrUnavailable
	}
	p := newTestPipeline(t, r, cache.NewMemoryStore(cache.DefaultPolicy()))

	u := p.RenderSync(context.Background(), Request{Source: "graph TD\nA-->B"})
	if u.State != StateUnavailable {
		t.Errorf("terminal state = %v, want unavailable", u.State)
	}
}

// TestPipeline_ConversionFailure verifies a tool rejection terminates as
// failed with the reason attached.
func TestPipeline_ConversionFailure(t *testing.T) {
	r := newFakeRenderer()
	convErr := errors.New("parse error on line 3")
	r.renderFn = func(context.Context, string, renderer.Params) ([]byte, error) {
		return nil, convErr
	}
	p := newTestPipeline(t, r, cache.NewMemoryStore(cache.DefaultPolicy()))

	u := p.RenderSync(context.Background(), Request{Source: "broken"})
	if u.State != StateFailed {
		t.Fatalf("terminal state = %v, want failed", u.State)
	}
	if !errors.Is(u.Err, convErr) {
		t.Errorf("terminal err = %v, want %v", u.Err, convErr)
	}
}

// TestPipeline_Timeout verifies a stuck tool terminates as failed with
// the timeout error.
func TestPipeline_Timeout(t *testing.T) {
	r := newFakeRenderer()
	r.renderFn = func(ctx context.Context, _ string, _ renderer.Params) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	p, err := NewPipeline(Config{
		Renderer:  r,
		Store:     cache.NewMemoryStore(cache.DefaultPolicy()),
		Sanitizer: identity,
		Timeout:   10 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	u := p.RenderSync(context.Background(), Request{Source: "graph TD\nA-->B"})
	if u.State != StateFailed {
		t.Fatalf("terminal state = %v, want failed", u.State)
	}
	if !errors.Is(u.Err, resilience.ErrTimeout) {
		t.Errorf("terminal err = %v, want ErrTimeout", u.Err)
	}
}

// TestPipeline_CancellationBeforeRender verifies a request cancelled ahead
// of the external call never reaches the tool.
func TestPipeline_CancellationBeforeRender(t *testing.T) {
	r := newFakeRenderer()
	p := newTestPipeline(t, r, cache.NewMemoryStore(cache.DefaultPolicy()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	u := p.RenderSync(ctx, Request{Source: "graph TD\nA-->B"})
	if u.State != StateFailed {
		t.Fatalf("terminal state = %v, want failed", u.State)
	}
	if !errors.Is(u.Err, context.Canceled) {
		t.Errorf("terminal err = %v, want context.Canceled", u.Err)
	}
	if r.renderCalls.Load() != 0 {
		t.Errorf("renderer called %d times after cancellation, want 0", r.renderCalls.Load())
	}
}

// TestPipeline_CancellationDuringRenderStillCaches verifies an in-flight
// render is detached from the requester: the call completes and the result
// is cached even though the requester is gone.
func TestPipeline_CancellationDuringRenderStillCaches(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	r := newFakeRenderer()
	r.renderFn = func(ctx context.Context, _ string, _ renderer.Params) ([]byte, error) {
		close(started)
		select {
		case <-release:
			return []byte("image"), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	store := cache.NewMemoryStore(cache.DefaultPolicy())
	p := newTestPipeline(t, r, store)

	ctx, cancel := context.WithCancel(context.Background())
	req := Request{Source: "graph TD\nA-->B"}
	updates := p.Render(ctx, req)

	<-started
	cancel()
	close(release)

	last := collect(t, updates)
	if got := last[len(last)-1].State; got != StateSucceeded {
		t.Fatalf("terminal state = %v, want succeeded", got)
	}

	key := cache.Key(req.Source, "", "")
	if _, ok := store.Get(context.Background(), key); !ok {
		t.Error("committed render not cached after requester cancellation")
	}
}

// TestPipeline_CoalescesConcurrentRequests verifies identical concurrent
// requests share a single external call.
func TestPipeline_CoalescesConcurrentRequests(t *testing.T) {
	release := make(chan struct{})
	r := newFakeRenderer()
	r.renderFn = func(context.Context, string, renderer.Params) ([]byte, error) {
		<-release
		return []byte("image"), nil
	}
	p := newTestPipeline(t, r, cache.NewMemoryStore(cache.DefaultPolicy()))

	req := Request{Source: "sequenceDiagram\nA->>B: hi"}
	const waiters = 4

	var wg sync.WaitGroup
	results := make([]Update, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n] = p.RenderSync(context.Background(), req)
		}(i)
	}

	// Let every request reach the coalescing point, then release the one
	// in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls := r.renderCalls.Load(); calls != 1 {
		t.Errorf("renderer called %d times for %d identical requests, want 1", calls, waiters)
	}
	for i, u := range results {
		if u.State != StateSucceeded || string(u.Image) != "image" {
			t.Errorf("waiter %d terminal = %v (%q), want succeeded with image", i, u.State, u.Image)
		}
	}
}

// TestPipeline_ClearMemory verifies dropping the memory tier forces the
// next read through the durable tier.
func TestPipeline_ClearMemory(t *testing.T) {
	r := newFakeRenderer()
	durable := &blockedDurable{}
	store := cache.NewTieredStore(cache.TieredConfig{Durable: durable})
	p := newTestPipeline(t, r, store)

	req := Request{Source: "graph TD\nA-->B"}
	if u := p.RenderSync(context.Background(), req); u.State != StateSucceeded {
		t.Fatalf("first render = %v, want succeeded", u.State)
	}

	p.ClearMemory()

	// The durable tier never kept the entry, so this is a full re-render.
	if u := p.RenderSync(context.Background(), req); u.State != StateSucceeded {
		t.Fatalf("second render = %v, want succeeded", u.State)
	}
	if calls := r.renderCalls.Load(); calls != 2 {
		t.Errorf("renderer called %d times, want 2 after memory clear", calls)
	}
}

// blockedDurable is a durable tier that drops every write.
type blockedDurable struct{}

func (b *blockedDurable) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (b *blockedDurable) Put(context.Context, string, []byte) error {
	return errors.New("durable tier down")
}
func (b *blockedDurable) Delete(context.Context, string) error { return nil }

// recordingMetrics captures metric calls for assertions.
type recordingMetrics struct {
	mu      sync.Mutex
	lookups []string
	renders []observe.RenderMeta
}

func (m *recordingMetrics) RecordRender(_ context.Context, meta observe.RenderMeta, _ time.Duration, _ error) {
	m.mu.Lock()
	m.renders = append(m.renders, meta)
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordCacheLookup(_ context.Context, tier string, hit bool) {
	m.mu.Lock()
	m.lookups = append(m.lookups, fmt.Sprintf("%s/%t", tier, hit))
	m.mu.Unlock()
}

// fakeObserver hands out no-op telemetry plus the recording metrics.
type fakeObserver struct {
	metrics *recordingMetrics
}

func (f *fakeObserver) Tracer() trace.Tracer {
	return tracenoop.NewTracerProvider().Tracer("test")
}

func (f *fakeObserver) Meter() metric.Meter {
	return metricnoop.NewMeterProvider().Meter("test")
}

func (f *fakeObserver) Logger() observe.Logger     { return observe.NopLogger() }
func (f *fakeObserver) Metrics() observe.Metrics   { return f.metrics }
func (f *fakeObserver) Shutdown(context.Context) error { return nil }

// TestPipeline_TierLabelledLookups verifies cache metrics carry the tier
// that resolved each lookup: none on miss, then memory once promoted.
func TestPipeline_TierLabelledLookups(t *testing.T) {
	r := newFakeRenderer()
	metrics := &recordingMetrics{}
	p, err := NewPipeline(Config{
		Renderer:  r,
		Store:     cache.NewTieredStore(cache.TieredConfig{Durable: cache.NewMemoryStore(cache.DefaultPolicy())}),
		Sanitizer: identity,
		Timeout:   time.Second,
		Observer:  &fakeObserver{metrics: metrics},
	})
	if err != nil {
		t.Fatal(err)
	}

	req := Request{Source: "graph TD\nA-->B"}
	if u := p.RenderSync(context.Background(), req); u.State != StateSucceeded {
		t.Fatalf("first render = %v, want succeeded", u.State)
	}
	if u := p.RenderSync(context.Background(), req); u.State != StateSucceeded {
		t.Fatalf("second render = %v, want succeeded", u.State)
	}

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	want := []string{"none/false", "memory/true"}
	if len(metrics.lookups) != len(want) {
		t.Fatalf("lookups = %v, want %v", metrics.lookups, want)
	}
	for i := range want {
		if metrics.lookups[i] != want[i] {
			t.Fatalf("lookups = %v, want %v", metrics.lookups, want)
		}
	}
	if len(metrics.renders) != 2 {
		t.Fatalf("renders recorded = %d, want 2", len(metrics.renders))
	}
	if metrics.renders[0].CacheTier != cache.TierNone {
		t.Errorf("first render tier = %q, want none", metrics.renders[0].CacheTier)
	}
	if metrics.renders[1].CacheTier != cache.TierMemory {
		t.Errorf("second render tier = %q, want memory", metrics.renders[1].CacheTier)
	}
}

// TestState_StringAndTerminal tests the state enum helpers.
func TestState_StringAndTerminal(t *testing.T) {
	tests := []struct {
		state    State
		name     string
		terminal bool
	}{
		{StateCheckingAvailability, "checking-availability", false},
		{StateUnavailable, "unavailable", true},
		{StateRendering, "rendering", false},
		{StateSucceeded, "succeeded", true},
		{StateFailed, "failed", true},
		{State(99), "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.state.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

// TestPipeline_DefaultSanitizerRepairs verifies the default sanitizer is
// wired in: escaped source still produces a cacheable render.
func TestPipeline_DefaultSanitizerRepairs(t *testing.T) {
	var rendered string
	r := newFakeRenderer()
	r.renderFn = func(_ context.Context, source string, _ renderer.Params) ([]byte, error) {
		rendered = source
		return []byte("image"), nil
	}
	p, err := NewPipeline(Config{
		Renderer: r,
		Store:    cache.NewMemoryStore(cache.DefaultPolicy()),
		Timeout:  time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	u := p.RenderSync(context.Background(), Request{Source: `flowchart TD\nA-->B`})
	if u.State != StateSucceeded {
		t.Fatalf("terminal state = %v, want succeeded", u.State)
	}
	if strings.Contains(rendered, `\n`) {
		t.Errorf("escaped newline reached the renderer: %q", rendered)
	}
}
