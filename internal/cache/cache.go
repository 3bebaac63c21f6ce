// Package cache memoizes Monte Carlo statistics by run fingerprint.
//
// The cache is the only mutable state shared between concurrent callers.
// Reads take a shared lock; inserts take the exclusive lock, and concurrent
// misses for one key are collapsed by singleflight so at most one computation
// is stored per key.
package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rpgo/fiscal-projection/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ResultCache is a bounded LRU of AggregateStatistics with an optional
// persistent Store behind it. Stored statistics are shared read-only; callers
// must not modify them.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	lru     *list.List
	flight  singleflight.Group
	options Options

	hits         int64
	storeHits    int64
	misses       int64
	coalesced    int64
	evictions    int64
	computations int64
	storeErrors  int64
	rejected     int64
}

// New creates an empty cache.
func New(opts ...Option) *ResultCache {
	options := Options{MaxEntries: DefaultMaxEntries}
	for _, opt := range opts {
		opt(&options)
	}
	if options.MaxEntries <= 0 {
		options.MaxEntries = DefaultMaxEntries
	}
	return &ResultCache{
		entries: make(map[string]*entry),
		lru:     list.New(),
		options: options,
	}
}

// Get returns the in-memory entry for key and counts a hit.
func (c *ResultCache) Get(key string) (*domain.AggregateStatistics, bool) {
	stats, ok := c.peek(key)
	if ok {
		atomic.AddInt64(&c.hits, 1)
		requestsTotal.WithLabelValues("hit").Inc()
	}
	return stats, ok
}

func (c *ResultCache) peek(key string) (*domain.AggregateStatistics, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	c.touch(e)
	return e.stats, true
}

// GetOrCompute returns the cached statistics for key, loading them from the
// Store or computing them on a miss. The boolean reports whether the result
// came from the cache (memory or store) rather than a fresh computation.
// Statistics flagged non-reproducible are returned but never stored.
func (c *ResultCache) GetOrCompute(ctx context.Context, key string, compute ComputeFunc) (*domain.AggregateStatistics, bool, error) {
	if stats, ok := c.Get(key); ok {
		return stats, true, nil
	}

	type flightResult struct {
		stats  *domain.AggregateStatistics
		cached bool
	}
	v, err, shared := c.flight.Do(key, func() (any, error) {
		// A flight that finished just before this one may have stored the key.
		if stats, ok := c.peek(key); ok {
			atomic.AddInt64(&c.hits, 1)
			requestsTotal.WithLabelValues("hit").Inc()
			return flightResult{stats: stats, cached: true}, nil
		}
		if stats, ok := c.load(ctx, key); ok {
			c.insert(key, stats)
			return flightResult{stats: stats, cached: true}, nil
		}

		atomic.AddInt64(&c.misses, 1)
		requestsTotal.WithLabelValues("miss").Inc()
		stats, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		atomic.AddInt64(&c.computations, 1)
		if !stats.Reproducible {
			atomic.AddInt64(&c.rejected, 1)
			return flightResult{stats: stats}, nil
		}
		c.insert(key, stats)
		c.save(ctx, key, stats)
		return flightResult{stats: stats}, nil
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		atomic.AddInt64(&c.coalesced, 1)
		requestsTotal.WithLabelValues("coalesced").Inc()
	}
	r := v.(flightResult)
	return r.stats, r.cached, nil
}

func (c *ResultCache) load(ctx context.Context, key string) (*domain.AggregateStatistics, bool) {
	if c.options.Store == nil {
		return nil, false
	}
	raw, ok, err := c.options.Store.Get(ctx, key)
	if err != nil {
		c.storeFailed("get")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var stats domain.AggregateStatistics
	if err := json.Unmarshal(raw, &stats); err != nil {
		c.storeFailed("decode")
		return nil, false
	}
	atomic.AddInt64(&c.storeHits, 1)
	requestsTotal.WithLabelValues("store_hit").Inc()
	return &stats, true
}

func (c *ResultCache) save(ctx context.Context, key string, stats *domain.AggregateStatistics) {
	if c.options.Store == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		c.storeFailed("encode")
		return
	}
	if err := c.options.Store.Put(ctx, key, raw); err != nil {
		c.storeFailed("put")
	}
}

func (c *ResultCache) storeFailed(op string) {
	atomic.AddInt64(&c.storeErrors, 1)
	storeErrorsTotal.WithLabelValues(op).Inc()
}

func (c *ResultCache) insert(key string, stats *domain.AggregateStatistics) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		c.lru.MoveToFront(existing.lruElement)
		return
	}
	for len(c.entries) >= c.options.MaxEntries {
		c.evictOldestLocked()
	}
	e := &entry{key: key, stats: stats}
	e.lruElement = c.lru.PushFront(e)
	c.entries[key] = e
}

func (c *ResultCache) touch(e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// The entry may have been evicted between the read and this lock.
	if cur, ok := c.entries[e.key]; ok && cur == e {
		c.lru.MoveToFront(e.lruElement)
	}
}

func (c *ResultCache) evictOldestLocked() {
	back := c.lru.Back()
	if back == nil {
		return
	}
	e := back.Value.(*entry)
	c.lru.Remove(back)
	delete(c.entries, e.key)
	atomic.AddInt64(&c.evictions, 1)
	evictionsTotal.Inc()
}

// Invalidate drops key from memory and from the Store.
func (c *ResultCache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.lru.Remove(e.lruElement)
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if c.options.Store != nil {
		if err := c.options.Store.Evict(ctx, key); err != nil {
			c.storeFailed("evict")
			return fmt.Errorf("evict %s from store: %w", key, err)
		}
	}
	return nil
}

// Clear empties the in-memory cache. The Store is left untouched.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.lru.Init()
}

// Len returns the number of in-memory entries.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the counters.
func (c *ResultCache) Stats() Stats {
	return Stats{
		Entries:      c.Len(),
		MaxEntries:   c.options.MaxEntries,
		Hits:         atomic.LoadInt64(&c.hits),
		StoreHits:    atomic.LoadInt64(&c.storeHits),
		Misses:       atomic.LoadInt64(&c.misses),
		Coalesced:    atomic.LoadInt64(&c.coalesced),
		Evictions:    atomic.LoadInt64(&c.evictions),
		Computations: atomic.LoadInt64(&c.computations),
		StoreErrors:  atomic.LoadInt64(&c.storeErrors),
		Rejected:     atomic.LoadInt64(&c.rejected),
	}
}
