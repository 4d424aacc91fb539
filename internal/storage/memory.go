package storage

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryCache keeps recent entries in an LRU and writes through to an
// optional backing cache.
type MemoryCache struct {
	entries *lru.Cache[string, Entry]
	backing Cache
}

// NewMemoryCache creates an LRU of the given size in front of backing (may be nil).
func NewMemoryCache(size int, backing Cache) (*MemoryCache, error) {
	entries, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	return &MemoryCache{entries: entries, backing: backing}, nil
}

func (m *MemoryCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	if e, ok := m.entries.Get(key); ok {
		return e, true, nil
	}
	if m.backing == nil {
		return Entry{}, false, nil
	}
	e, ok, err := m.backing.Get(ctx, key)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	m.entries.Add(key, e)
	return e, true, nil
}

func (m *MemoryCache) Put(ctx context.Context, e Entry) error {
	m.entries.Add(e.Key, e)
	if m.backing == nil {
		return nil
	}
	return m.backing.Put(ctx, e)
}

func (m *MemoryCache) Close() error {
	m.entries.Purge()
	if m.backing == nil {
		return nil
	}
	return m.backing.Close()
}
