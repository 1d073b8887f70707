// Package cache is a key-addressed cache of asynchronous fetch results. It
// deduplicates in-flight fetches per key, supports fire-and-forget prefetch
// and predicate invalidation. Stored errors are real results: a read of a key
// whose fetch failed returns that error until the key is invalidated.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/oasisline/backoffice/internal/metrics"
)

// FetchFunc loads the value for a key on miss.
type FetchFunc func(ctx context.Context) (any, error)

type entry struct {
	value     any
	err       error
	fetchedAt time.Time
	stale     bool
}

// Cache is constructed once at process start and handed to every
// query-issuing component. There is deliberately no package-level instance.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	gen     uint64
	flight  singleflight.Group

	// PrefetchTimeout bounds background fetches, which have no caller to
	// cancel them.
	PrefetchTimeout time.Duration
}

func New() *Cache {
	return &Cache{
		entries:         make(map[string]*entry),
		PrefetchTimeout: 15 * time.Second,
	}
}

// Get returns the cached result for key, fetching it with fn when the key is
// absent or stale. Concurrent calls for the same key share one fetch and
// observe the same outcome, including an error outcome.
func (c *Cache) Get(ctx context.Context, key string, fn FetchFunc) (any, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && !e.stale {
		c.mu.Unlock()
		metrics.CacheHitsTotal.Inc()
		return e.value, e.err
	}
	c.mu.Unlock()

	metrics.CacheMissesTotal.Inc()
	v, err, _ := c.flight.Do(key, func() (any, error) {
		gen := c.generation()
		value, err := fn(ctx)
		c.store(key, value, err, gen)
		return value, err
	})
	return v, err
}

// Prefetch begins a background fetch for key when no fresh entry exists. It
// never blocks and its failures are only recorded in the cache, where a later
// Get will surface them.
func (c *Cache) Prefetch(key string, fn FetchFunc) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && !e.stale {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	metrics.CachePrefetchesTotal.Inc()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.PrefetchTimeout)
		defer cancel()
		_, _, _ = c.flight.Do(key, func() (any, error) {
			gen := c.generation()
			value, err := fn(ctx)
			c.store(key, value, err, gen)
			return value, err
		})
	}()
}

// Invalidate marks every entry whose key matches pred as stale. The next Get
// for a stale key refetches. Fetches in flight when Invalidate runs land
// stale too: their result may predate the event that triggered the
// invalidation.
func (c *Cache) Invalidate(pred func(key string) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	for k, e := range c.entries {
		if pred(k) {
			e.stale = true
		}
	}
}

// InvalidateAll marks every entry stale.
func (c *Cache) InvalidateAll() {
	c.Invalidate(func(string) bool { return true })
}

// peek reports the cached value for key without triggering a fetch.
func (c *Cache) peek(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.stale || e.err != nil {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *Cache) store(key string, value any, err error, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{value: value, err: err, fetchedAt: time.Now(), stale: gen != c.gen}
}
