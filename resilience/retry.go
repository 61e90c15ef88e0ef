package resilience

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryConfig configures retry behavior. Backoff is exponential with an
// optional jitter of up to 25% per delay.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, initial call included.
	// Default: 3
	MaxAttempts int

	// InitialDelay is the wait before the first retry.
	// Default: 100ms
	InitialDelay time.Duration

	// MaxDelay caps the backoff.
	// Default: 5s
	MaxDelay time.Duration

	// Multiplier grows the delay between attempts.
	// Default: 2.0
	Multiplier float64

	// Jitter randomizes delays so concurrent retries spread out.
	// Default: false
	Jitter bool

	// RetryIf filters which errors trigger a retry. Default: every
	// non-nil error.
	RetryIf func(err error) bool
}

// Retry reruns a failing operation with exponential backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a retry handler, applying defaults for zero fields.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 5 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}
	return &Retry{config: config}
}

// Execute runs op until it succeeds, a non-retryable error occurs, the
// attempts run out, or the context ends. Exhaustion wraps the last error
// under ErrRetriesExhausted.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !r.config.RetryIf(lastErr) {
			return lastErr
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.delay(attempt)):
		}
	}
	return fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
}

func (r *Retry) delay(attempt int) time.Duration {
	d := time.Duration(float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1)))
	if d > r.config.MaxDelay {
		d = r.config.MaxDelay
	}
	if r.config.Jitter && d > 0 {
		d += time.Duration(rand.Int63n(int64(d / 4)))
	}
	return d
}
