package cache

import (
	"context"

	"github.com/jonwraymond/diagramflow/observe"
)

// TieredConfig configures the two-tier store.
type TieredConfig struct {
	// Memory is the fast tier. If nil, a default process-lifetime store
	// is created.
	Memory *MemoryStore

	// Durable is the backing tier (disk or Redis). If nil, a DiskStore
	// under the temp directory is used.
	Durable Store

	// Logger records swallowed durable-tier failures. If nil, a no-op
	// logger is used.
	Logger observe.Logger
}

// TieredStore layers the memory tier over a durable tier.
//
// Contract:
// - Get checks memory first, then the durable tier, promoting durable hits
//   into memory (write-through on read).
// - Put writes memory first; a durable-tier failure is logged and swallowed
//   so the in-memory copy still serves the rest of the process lifetime.
// - The memory tier may run ahead of the durable tier, never behind.
type TieredStore struct {
	memory  *MemoryStore
	durable Store
	logger  observe.Logger
}

// NewTieredStore creates a two-tier store.
func NewTieredStore(config TieredConfig) *TieredStore {
	if config.Memory == nil {
		config.Memory = NewMemoryStore(DefaultPolicy())
	}
	if config.Durable == nil {
		config.Durable = NewDiskStore(DiskStoreConfig{})
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}
	return &TieredStore{
		memory:  config.Memory,
		durable: config.Durable,
		logger:  config.Logger,
	}
}

// Tier labels reported by GetWithTier.
const (
	TierMemory  = "memory"
	TierDurable = "durable"
	TierNone    = "none"
)

// Get retrieves an entry, promoting durable hits into the memory tier.
func (s *TieredStore) Get(ctx context.Context, key string) ([]byte, bool) {
	data, _, ok := s.GetWithTier(ctx, key)
	return data, ok
}

// GetWithTier is Get plus the label of the tier that served the hit, for
// per-tier cache metrics. Misses report TierNone.
func (s *TieredStore) GetWithTier(ctx context.Context, key string) ([]byte, string, bool) {
	if data, ok := s.memory.Get(ctx, key); ok {
		return data, TierMemory, true
	}
	data, ok := s.durable.Get(ctx, key)
	if !ok {
		return nil, TierNone, false
	}
	if err := s.memory.Put(ctx, key, data); err != nil {
		s.logger.Warn(ctx, "memory promotion failed",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()})
	}
	return data, TierDurable, true
}

// Put writes to both tiers. Durable failures degrade to memory-only.
func (s *TieredStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.memory.Put(ctx, key, data); err != nil {
		return err
	}
	if err := s.durable.Put(ctx, key, data); err != nil {
		s.logger.Warn(ctx, "durable cache write failed",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()})
	}
	return nil
}

// Delete removes an entry from both tiers.
func (s *TieredStore) Delete(ctx context.Context, key string) error {
	if err := s.memory.Delete(ctx, key); err != nil {
		return err
	}
	return s.durable.Delete(ctx, key)
}

// ClearMemory drops the memory tier only. Durable entries stay valid for
// future processes.
func (s *TieredStore) ClearMemory() {
	s.memory.Clear()
}

var _ Store = (*TieredStore)(nil)
