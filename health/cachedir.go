package health

import (
	"context"
	"os"
	"path/filepath"
)

// CacheDirChecker verifies the durable cache directory is writable. An
// unwritable directory degrades the pipeline to memory-only caching, so it
// reports degraded rather than unhealthy.
type CacheDirChecker struct {
	dir string
}

// NewCacheDirChecker creates a checker for the given directory.
func NewCacheDirChecker(dir string) *CacheDirChecker {
	return &CacheDirChecker{dir: dir}
}

// Name returns the name of this checker.
func (c *CacheDirChecker) Name() string { return "cache-dir" }

// Check attempts a probe write in the cache directory.
func (c *CacheDirChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	details := map[string]any{"dir": c.dir}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return Degraded("cache directory not creatable").WithDetails(details)
	}
	probe, err := os.CreateTemp(c.dir, "health-*")
	if err != nil {
		return Degraded("cache directory not writable").WithDetails(details)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(filepath.Clean(name))

	return Healthy("cache directory writable").WithDetails(details)
}
