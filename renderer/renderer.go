package renderer

import (
	"context"
	"errors"
)

// ErrUnavailable distinguishes "tool is not installed/reachable" from a
// conversion failure. Callers route it to setup guidance, not an error view.
var ErrUnavailable = errors.New("renderer: tool not available")

// Params are the rendering parameters for one request.
type Params struct {
	// Theme selects the renderer theme, e.g. "default" or "dark".
	Theme string

	// BackgroundColor is an RGB color string, e.g. "white" or "#1e1e1e".
	BackgroundColor string
}

// DefaultParams returns the renderer defaults.
func DefaultParams() Params {
	return Params{Theme: "default", BackgroundColor: "white"}
}

// withDefaults fills empty fields.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Theme == "" {
		p.Theme = d.Theme
	}
	if p.BackgroundColor == "" {
		p.BackgroundColor = d.BackgroundColor
	}
	return p
}

// Renderer converts sanitized diagram source into encoded image bytes.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Availability: IsAvailable is a point-in-time probe; Render may still
//   fail with ErrUnavailable if the tool vanished between check and call.
// - Errors: ErrUnavailable (possibly wrapped) for an absent tool, any other
//   error for a conversion failure.
type Renderer interface {
	// IsAvailable reports whether the tool can currently be invoked.
	IsAvailable(ctx context.Context) bool

	// Render converts source with the given parameters.
	Render(ctx context.Context, source string, params Params) ([]byte, error)
}
