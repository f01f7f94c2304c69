package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// NoExpiration keeps an entry until it is deleted
const NoExpiration time.Duration = gocache.NoExpiration

// Cache is a key-value store with per-entry expiration
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
}

// Memory is an in-process Cache backed by go-cache
type Memory struct {
	store *gocache.Cache
}

// NewMemory creates an in-memory cache that sweeps expired entries every cleanup interval
func NewMemory(cleanup time.Duration) *Memory {
	return &Memory{store: gocache.New(gocache.NoExpiration, cleanup)}
}

func (m *Memory) Get(key string) (any, bool) {
	return m.store.Get(key)
}

// Set stores value under key. A ttl of zero or NoExpiration never expires.
func (m *Memory) Set(key string, value any, ttl time.Duration) {
	if ttl == 0 {
		ttl = gocache.NoExpiration
	}
	m.store.Set(key, value, ttl)
}

func (m *Memory) Delete(key string) {
	m.store.Delete(key)
}

// Len returns the number of entries, expired ones included until swept
func (m *Memory) Len() int {
	return m.store.ItemCount()
}
