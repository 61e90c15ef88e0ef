package health

import "errors"

// Sentinel errors for health checks.
var (
	// ErrCheckFailed is the generic unhealthy-check error.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrRendererMissing indicates the external rendering tool is absent.
	ErrRendererMissing = errors.New("health: renderer not available")
)
