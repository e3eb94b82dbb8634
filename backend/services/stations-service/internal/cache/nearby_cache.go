package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"chargemap/backend/services/stations-service/internal/events"
	"chargemap/backend/services/stations-service/internal/geo"
	"chargemap/backend/services/stations-service/internal/models"
)

type nearbyEntry struct {
	hits      []geo.Hit[models.Station]
	expiresAt time.Time
}

// NearbyCache keeps recent nearby search results in an LRU with a TTL. Every purge
// advances a generation; results computed from a snapshot taken before a purge are
// not stored. Purges only come from this process's events, so the cache is only
// consistent for a single instance.
type NearbyCache struct {
	lru *lru.Cache[string, *nearbyEntry]
	ttl time.Duration
	now func() time.Time

	mu         sync.Mutex
	generation uint64
}

// NewNearbyCache creates a cache holding up to size queries.
func NewNearbyCache(size int, ttl time.Duration) (*NearbyCache, error) {
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	c, err := lru.New[string, *nearbyEntry](size)
	if err != nil {
		return nil, fmt.Errorf("creating LRU cache: %w", err)
	}
	return &NearbyCache{lru: c, ttl: ttl, now: time.Now}, nil
}

func cacheKey(q geo.Query) string {
	return fmt.Sprintf("%.6f:%.6f:%.3f", q.Latitude, q.Longitude, q.RadiusKm)
}

// Get returns cached hits for the query. Callers must not modify the result.
func (c *NearbyCache) Get(q geo.Query) ([]geo.Hit[models.Station], bool) {
	key := cacheKey(q)
	if entry, ok := c.lru.Get(key); ok {
		if c.now().Before(entry.expiresAt) {
			return entry.hits, true
		}
		c.lru.Remove(key)
	}
	return nil, false
}

// Generation returns the current purge generation. Read it before loading the
// stations a result is computed from.
func (c *NearbyCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Put stores hits for the query unless the cache was purged since generation was
// read. It reports whether the result was stored.
func (c *NearbyCache) Put(q geo.Query, hits []geo.Hit[models.Station], generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return false
	}
	c.lru.Add(cacheKey(q), &nearbyEntry{hits: hits, expiresAt: c.now().Add(c.ttl)})
	return true
}

// Purge drops every cached result.
func (c *NearbyCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.lru.Purge()
}

// Publish purges the cache on events that change station availability, so the
// cache can subscribe to the event fan-out.
func (c *NearbyCache) Publish(_ context.Context, event events.Event) error {
	if event.ChangesAvailability() {
		c.Purge()
	}
	return nil
}
