package offline

import (
	"context"
	"sort"

	cache "github.com/patrickmn/go-cache"
)

// MemoryStorage keeps cache generations in process memory.
// Entries never expire; a generation lives until it is deleted.
type MemoryStorage struct {
	stores *cache.Cache // name -> *memoryCache
}

// NewMemoryStorage returns an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		stores: cache.New(cache.NoExpiration, 0),
	}
}

// Open returns the named cache, creating it if absent.
func (s *MemoryStorage) Open(_ context.Context, name string) (Cache, error) {
	// Add fails when the name is taken, so concurrent opens agree on one store.
	_ = s.stores.Add(name, newMemoryCache(name), cache.NoExpiration)
	obj, _ := s.stores.Get(name)
	return obj.(*memoryCache), nil
}

// Keys lists cache names in sorted order.
func (s *MemoryStorage) Keys(context.Context) ([]string, error) {
	items := s.stores.Items()
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the named cache.
func (s *MemoryStorage) Delete(_ context.Context, name string) (bool, error) {
	if _, found := s.stores.Get(name); !found {
		return false, nil
	}
	s.stores.Delete(name)
	return true, nil
}

// Match looks key up across all caches, in name order.
func (s *MemoryStorage) Match(ctx context.Context, key string) (*Entry, error) {
	names, _ := s.Keys(ctx)
	for _, name := range names {
		obj, found := s.stores.Get(name)
		if !found {
			continue
		}
		if e, err := obj.(*memoryCache).Match(ctx, key); err == nil {
			return e, nil
		}
	}
	return nil, ErrNotCached
}

type memoryCache struct {
	name    string
	entries *cache.Cache // key -> *Entry
}

func newMemoryCache(name string) *memoryCache {
	return &memoryCache{
		name:    name,
		entries: cache.New(cache.NoExpiration, 0),
	}
}

func (c *memoryCache) Name() string {
	return c.name
}

func (c *memoryCache) Match(_ context.Context, key string) (*Entry, error) {
	obj, found := c.entries.Get(key)
	if !found {
		return nil, ErrNotCached
	}
	return obj.(*Entry).Clone(), nil
}

func (c *memoryCache) Put(_ context.Context, key string, e *Entry) error {
	c.entries.Set(key, e.Clone(), cache.NoExpiration)
	return nil
}

func (c *memoryCache) Keys(context.Context) ([]string, error) {
	items := c.entries.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

var _ Storage = (*MemoryStorage)(nil)
