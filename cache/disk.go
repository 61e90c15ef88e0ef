package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// imageExt is the fixed extension for cached entries. Keys are derived, not
// enumerated, so no index file exists alongside the entries.
const imageExt = ".png"

// DiskStoreConfig configures the durable disk tier.
type DiskStoreConfig struct {
	// Dir is the cache directory. Created on first write if absent.
	// Default: <os.TempDir()>/diagramflow-cache
	Dir string
}

// DiskStore is the durable cache tier: one file per key in a dedicated
// directory, surviving process restarts.
type DiskStore struct {
	dir string
}

// NewDiskStore creates a disk tier rooted at config.Dir.
func NewDiskStore(config DiskStoreConfig) *DiskStore {
	if config.Dir == "" {
		config.Dir = filepath.Join(os.TempDir(), "diagramflow-cache")
	}
	return &DiskStore{dir: config.Dir}
}

// Path returns the entry file path for a key.
func (s *DiskStore) Path(key string) string {
	return filepath.Join(s.dir, key+imageExt)
}

// Dir returns the cache directory.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Get reads an entry from disk. Unreadable and zero-length files are
// misses; a truncated write from a crashed process must not surface as a
// corrupt image.
func (s *DiskStore) Get(_ context.Context, key string) ([]byte, bool) {
	if ValidateKey(key) != nil {
		return nil, false
	}
	data, err := os.ReadFile(s.Path(key))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// Put writes an entry atomically: whole value to a temp file, then rename.
// An interrupted write leaves either the old entry or nothing.
func (s *DiskStore) Put(_ context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("cache: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("cache: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("cache: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cache: close: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cache: rename: %w", err)
	}
	return nil
}

// Delete removes an entry. Idempotent.
func (s *DiskStore) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	err := os.Remove(s.Path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cache: delete: %w", err)
	}
	return nil
}

// Sweep deletes entries older than maxAge and reports how many were
// removed. Retention is the host's call; the store itself never evicts.
func (s *DiskStore) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("cache: sweep: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != imageExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if os.Remove(filepath.Join(s.dir, e.Name())) == nil {
				removed++
			}
		}
	}
	return removed, nil
}

var _ Store = (*DiskStore)(nil)
