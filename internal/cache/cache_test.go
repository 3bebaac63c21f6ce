package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	evicted []string
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *memStore) Evict(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	s.evicted = append(s.evicted, key)
	return nil
}

func sampleStats(fingerprint string, reproducible bool) *domain.AggregateStatistics {
	return &domain.AggregateStatistics{
		Fingerprint:         fingerprint,
		Kind:                domain.KindCurrentLaw,
		Horizon:             2,
		IterationsRequested: 10,
		IterationsUsed:      10,
		Seed:                42,
		Reproducible:        reproducible,
		Converged:           true,
		KeyQuantity:         domain.QDebtToGDP,
		StandardError:       0.01,
		ConfidenceLevel:     0.9,
		PercentileRanks:     []float64{0.05, 0.5, 0.95},
		Quantities: map[domain.Quantity]domain.QuantityStats{
			domain.QDebtToGDP: {
				Quantity: domain.QDebtToGDP,
				Years: []domain.YearStats{
					{Mean: 1.0, StdDev: 0.1, CILower: 0.85, CIUpper: 1.15, Percentiles: []float64{0.85, 1.0, 1.15}},
					{Mean: 1.1, StdDev: 0.2, CILower: 0.8, CIUpper: 1.4, Percentiles: []float64{0.8, 1.1, 1.4}},
				},
			},
		},
		TrustFunds: map[domain.Fund]domain.DepletionStats{
			domain.FundOASI: {Fund: domain.FundOASI, DepletedCount: 3, DepletedShare: 0.3, CensoredMeanYear: 2.7, EarliestYear: 2, Percentiles: []float64{2, 3, 3}},
		},
		ShockAttribution: map[domain.Factor]float64{domain.FactorGDPGrowth: -0.6},
		Guards:           domain.GuardSummary{"gdp_ratio": 1},
	}
}

func TestKey(t *testing.T) {
	k := Key("abc", 100, 10, 42)
	assert.Len(t, k, 64)
	assert.Equal(t, k, Key("abc", 100, 10, 42))

	for _, other := range []string{
		Key("abd", 100, 10, 42),
		Key("abc", 101, 10, 42),
		Key("abc", 100, 11, 42),
		Key("abc", 100, 10, 43),
	} {
		assert.NotEqual(t, k, other)
	}
}

func TestResultCache_HitReturnsSamePointer(t *testing.T) {
	c := New()
	stats := sampleStats("fp", true)
	hitsBefore := testutil.ToFloat64(requestsTotal.WithLabelValues("hit"))

	var calls int
	compute := func(context.Context) (*domain.AggregateStatistics, error) {
		calls++
		return stats, nil
	}

	first, cached, err := c.GetOrCompute(context.Background(), "k", compute)
	require.NoError(t, err)
	assert.False(t, cached)
	second, cached, err := c.GetOrCompute(context.Background(), "k", compute)
	require.NoError(t, err)
	assert.True(t, cached)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)

	s := c.Stats()
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, int64(1), s.Computations)
	assert.Equal(t, 1, s.Entries)
	assert.Equal(t, hitsBefore+1, testutil.ToFloat64(requestsTotal.WithLabelValues("hit")))
}

func TestResultCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New(WithMaxEntries(2))
	ctx := context.Background()
	evictionsBefore := testutil.ToFloat64(evictionsTotal)

	put := func(key string) {
		_, _, err := c.GetOrCompute(ctx, key, func(context.Context) (*domain.AggregateStatistics, error) {
			return sampleStats(key, true), nil
		})
		require.NoError(t, err)
	}
	put("a")
	put("b")
	_, ok := c.Get("a") // a becomes most recent
	require.True(t, ok)
	put("c")

	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int64(1), c.Stats().Evictions)
	assert.Equal(t, evictionsBefore+1, testutil.ToFloat64(evictionsTotal))
}

func TestResultCache_ConcurrentMissesComputeOnce(t *testing.T) {
	c := New()
	var calls int32
	release := make(chan struct{})
	compute := func(context.Context) (*domain.AggregateStatistics, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return sampleStats("fp", true), nil
	}

	const callers = 8
	results := make([]*domain.AggregateStatistics, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stats, _, err := c.GetOrCompute(context.Background(), "k", compute)
			assert.NoError(t, err)
			results[i] = stats
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, int64(1), c.Stats().Computations)
}

func TestResultCache_UnseededNotStored(t *testing.T) {
	store := newMemStore()
	c := New(WithStore(store))
	var calls int
	compute := func(context.Context) (*domain.AggregateStatistics, error) {
		calls++
		return sampleStats("fp", false), nil
	}

	_, _, err := c.GetOrCompute(context.Background(), "k", compute)
	require.NoError(t, err)
	_, cached, err := c.GetOrCompute(context.Background(), "k", compute)
	require.NoError(t, err)

	assert.False(t, cached)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, store.data)
	assert.Equal(t, int64(2), c.Stats().Rejected)
}

func TestResultCache_ComputeErrorNotCached(t *testing.T) {
	c := New()
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), "k", func(context.Context) (*domain.AggregateStatistics, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.Stats().Computations)
}

func TestResultCache_StoreRoundTrip(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	original := sampleStats("fp", true)

	writer := New(WithStore(store))
	_, _, err := writer.GetOrCompute(ctx, "k", func(context.Context) (*domain.AggregateStatistics, error) {
		return original, nil
	})
	require.NoError(t, err)
	require.Contains(t, store.data, "k")

	// A fresh process sees the persisted entry without recomputing.
	reader := New(WithStore(store))
	loaded, cached, err := reader.GetOrCompute(ctx, "k", func(context.Context) (*domain.AggregateStatistics, error) {
		t.Fatal("compute must not run on a store hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, original, loaded)
	assert.Equal(t, int64(1), reader.Stats().StoreHits)

	// Promoted into memory.
	again, ok := reader.Get("k")
	require.True(t, ok)
	assert.Same(t, loaded, again)
}

func TestResultCache_StoreFailureFallsBackToCompute(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("disk gone")
	c := New(WithStore(store))
	before := testutil.ToFloat64(storeErrorsTotal.WithLabelValues("get"))

	stats, cached, err := c.GetOrCompute(context.Background(), "k", func(context.Context) (*domain.AggregateStatistics, error) {
		return sampleStats("fp", true), nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.NotNil(t, stats)
	assert.Equal(t, int64(1), c.Stats().StoreErrors)
	assert.Equal(t, before+1, testutil.ToFloat64(storeErrorsTotal.WithLabelValues("get")))
}

func TestResultCache_InvalidateAndClear(t *testing.T) {
	store := newMemStore()
	c := New(WithStore(store))
	ctx := context.Background()
	for _, k := range []string{"a", "b"} {
		_, _, err := c.GetOrCompute(ctx, k, func(context.Context) (*domain.AggregateStatistics, error) {
			return sampleStats(k, true), nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, c.Invalidate(ctx, "a"))
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.NotContains(t, store.data, "a")
	assert.Equal(t, []string{"a"}, store.evicted)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Contains(t, store.data, "b", "clear leaves the store alone")
}
