package cache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/rpgo/fiscal-projection/internal/domain"
)

// DefaultMaxEntries bounds the in-memory cache when no option is given.
const DefaultMaxEntries = 64

// Store is an optional persistent backend keyed by fingerprint string. Values
// are opaque bytes; the cache owns the encoding.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Evict(ctx context.Context, key string) error
}

// ComputeFunc produces statistics on a cache miss.
type ComputeFunc func(ctx context.Context) (*domain.AggregateStatistics, error)

// Key derives the cache fingerprint for one reproducible run.
func Key(paramsFingerprint string, iterations, horizon int, seed uint64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\niterations=%d\nhorizon=%d\nseed=%d", paramsFingerprint, iterations, horizon, seed)))
	return hex.EncodeToString(sum[:])
}

// Options configures a ResultCache.
type Options struct {
	MaxEntries int
	Store      Store
}

// Option mutates Options.
type Option func(*Options)

// WithMaxEntries bounds the number of in-memory entries; least recently used
// entries are evicted first.
func WithMaxEntries(n int) Option {
	return func(o *Options) { o.MaxEntries = n }
}

// WithStore adds a persistent backend consulted on memory misses.
func WithStore(s Store) Option {
	return func(o *Options) { o.Store = s }
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries      int   `json:"entries"`
	MaxEntries   int   `json:"max_entries"`
	Hits         int64 `json:"hits"`
	StoreHits    int64 `json:"store_hits"`
	Misses       int64 `json:"misses"`
	Coalesced    int64 `json:"coalesced"`
	Evictions    int64 `json:"evictions"`
	Computations int64 `json:"computations"`
	StoreErrors  int64 `json:"store_errors"`
	Rejected     int64 `json:"rejected"`
}

type entry struct {
	key        string
	stats      *domain.AggregateStatistics
	lruElement *list.Element
}
