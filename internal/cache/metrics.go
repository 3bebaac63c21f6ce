package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts lookups by result: "hit", "store_hit", "miss", "coalesced".
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiscal_cache_requests_total",
		Help: "Outlook cache lookups by result",
	}, []string{"result"})

	evictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fiscal_cache_evictions_total",
		Help: "Entries evicted from the in-memory outlook cache",
	})

	storeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiscal_cache_store_errors_total",
		Help: "Persistent store failures by operation",
	}, []string{"op"})
)
