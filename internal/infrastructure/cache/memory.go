package cache

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	gocache "github.com/patrickmn/go-cache"

	pkgcache "bookreview-backend/pkg/cache"
)

// MemoryCache is an in-process Cache used when Redis is unavailable.
// Values are stored encoded so callers never share mutable state with the
// cache, matching Redis semantics.
type MemoryCache struct {
	store *gocache.Cache
}

var _ pkgcache.Cache = (*MemoryCache)(nil)

// NewMemoryCache creates a cache whose expired entries are purged every
// cleanupInterval.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		store: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

func (m *MemoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := m.store.Get(key)
	if !ok {
		return false, nil
	}

	data, ok := raw.([]byte)
	if !ok {
		return false, fmt.Errorf("memory cache: unexpected value type %T for %s", raw, key)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("memory cache decode %s: %w", key, err)
	}
	return true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("memory cache encode %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.store.Set(key, data, ttl)
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.store.Delete(k)
	}
	return nil
}

// DeletePattern supports glob patterns. A pattern whose only wildcard is a
// trailing "*" is matched as a plain prefix, since path.Match stops "*" at
// '/' and queries may contain one.
func (m *MemoryCache) DeletePattern(_ context.Context, pattern string) error {
	prefix, isPrefix := strings.CutSuffix(pattern, "*")
	isPrefix = isPrefix && !strings.ContainsAny(prefix, `*?[\`)

	for key := range m.store.Items() {
		var matched bool
		if isPrefix {
			matched = strings.HasPrefix(key, prefix)
		} else {
			var err error
			matched, err = path.Match(pattern, key)
			if err != nil {
				return fmt.Errorf("memory cache pattern %s: %w", pattern, err)
			}
		}
		if matched {
			m.store.Delete(key)
		}
	}
	return nil
}

func (m *MemoryCache) Ping(context.Context) error {
	return nil
}

// Len reports the number of unexpired items
func (m *MemoryCache) Len() int {
	return m.store.ItemCount()
}
