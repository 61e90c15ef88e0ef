package health

import (
	"context"

	"github.com/jonwraymond/diagramflow/renderer"
)

// RendererChecker reports whether the external rendering tool can be
// invoked. Availability is probed fresh on every check; the tool can be
// installed or removed while the host runs.
type RendererChecker struct {
	r renderer.Renderer
}

// NewRendererChecker creates a checker over the given renderer.
func NewRendererChecker(r renderer.Renderer) *RendererChecker {
	return &RendererChecker{r: r}
}

// Name returns the name of this checker.
func (c *RendererChecker) Name() string { return "renderer" }

// Check probes the tool.
func (c *RendererChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	if c.r.IsAvailable(ctx) {
		return Healthy("rendering tool available")
	}
	return Unhealthy("rendering tool not found", ErrRendererMissing)
}
