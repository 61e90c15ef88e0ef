package cache

import "time"

// Policy configures memory-tier retention.
type Policy struct {
	// TTL bounds how long a memory entry stays valid. Zero keeps entries
	// for the process lifetime, which matches the durable tier remaining
	// the source of truth.
	TTL time.Duration
}

// DefaultPolicy returns the process-lifetime retention policy.
func DefaultPolicy() Policy {
	return Policy{TTL: 0}
}
