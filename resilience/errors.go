package resilience

import "errors"

// Sentinel errors for resilience operations.
var (
	// ErrTimeout is returned when an operation exceeds its bounded wait.
	ErrTimeout = errors.New("resilience: operation timed out")

	// ErrRetriesExhausted is returned when every attempt failed.
	ErrRetriesExhausted = errors.New("resilience: retries exhausted")
)
