package cache

import (
	"context"
	"errors"
	"regexp"
)

// ErrInvalidKey rejects keys that lack the digest shape produced by Key.
var ErrInvalidKey = errors.New("cache: key is invalid")

// keyShape is the hex digest form produced by Key.
var keyShape = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Store is the interface for a single cache tier.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Get never errors; it reports (nil, false) on miss, including
//   when the underlying storage is unreadable.
// - Values: entries are whole encoded images, written atomically; no tier
//   ever exposes a partial entry.
type Store interface {
	// Get retrieves a cached image. Returns (nil, false) on miss.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Put stores an image under the given key.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes an entry. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error
}

// ValidateKey checks that a key has the digest shape produced by Key.
// Derived keys always pass; the check guards hand-built keys from reaching
// the filesystem.
func ValidateKey(key string) error {
	if !keyShape.MatchString(key) {
		return ErrInvalidKey
	}
	return nil
}
