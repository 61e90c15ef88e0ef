package resilience

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout bounds an external call when no limit is configured.
const DefaultTimeout = 30 * time.Second

// Timeout runs operations under a bounded wait.
type Timeout struct {
	limit time.Duration
}

// NewTimeout creates a timeout wrapper. A non-positive limit falls back to
// DefaultTimeout.
func NewTimeout(limit time.Duration) *Timeout {
	if limit <= 0 {
		limit = DefaultTimeout
	}
	return &Timeout{limit: limit}
}

// Limit returns the configured bound.
func (t *Timeout) Limit() time.Duration {
	return t.limit
}

// Execute runs op with the bound applied on top of any caller deadline.
// Expiry of the bound yields ErrTimeout; caller cancellation passes through
// as ctx.Err(). The operation's goroutine keeps running after expiry - op
// must honor its context to stop early.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.limit)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}
