package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process cache tier.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	policy  Policy
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

// NewMemoryStore creates an in-memory tier with the given policy.
func NewMemoryStore(policy Policy) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		policy:  policy,
	}
}

// Get retrieves an entry. Expired entries are cleaned up lazily and count
// as misses.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		s.expire(key, entry)
		return nil, false
	}
	return entry.data, true
}

// expire removes a lapsed entry. The map is rechecked under the write lock:
// a Put may have replaced the entry between the read and this call, and a
// fresh entry must survive.
func (s *MemoryStore) expire(key string, stale *memoryEntry) {
	s.mu.Lock()
	if cur, ok := s.entries[key]; ok && cur == stale {
		delete(s.entries, key)
	}
	s.mu.Unlock()
}

// Put stores an entry. A zero-TTL policy keeps it for the process lifetime.
func (s *MemoryStore) Put(_ context.Context, key string, data []byte) error {
	entry := &memoryEntry{data: data}
	if ttl := s.policy.TTL; ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

// Delete removes an entry. Idempotent.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Clear drops every entry. Used for deliberate cache invalidation without
// touching the durable tier.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]*memoryEntry)
	s.mu.Unlock()
}

// Len reports the number of live entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ Store = (*MemoryStore)(nil)
