// Package outlook produces the combined fiscal outlook for a parameter set,
// memoizing results by run fingerprint.
package outlook

import (
	"context"
	"fmt"

	"github.com/rpgo/fiscal-projection/internal/cache"
	"github.com/rpgo/fiscal-projection/internal/calculation"
	"github.com/rpgo/fiscal-projection/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultSeed is used for outlook requests that do not name a seed, so that
// every outlook is reproducible and therefore cacheable.
const DefaultSeed uint64 = 20240101

// Simulator runs one Monte Carlo projection.
type Simulator interface {
	RunSimulation(ctx context.Context, params *domain.PolicyParameterSet, req calculation.RunRequest) (*domain.AggregateStatistics, error)
}

// Request names an outlook. A nil Seed selects the aggregator's default seed.
type Request struct {
	Iterations int
	Horizon    int
	Seed       *uint64
}

// Result is an outlook together with how it was obtained.
type Result struct {
	Stats  *domain.AggregateStatistics
	Key    string
	Cached bool
}

// Aggregator merges revenue, spending, and trust-fund projections into one
// cached outlook. The deficit, debt, and interest feedback loop is computed per
// iteration by the simulator; the aggregator decides whether to run it at all.
type Aggregator struct {
	sim         Simulator
	cache       *cache.ResultCache
	defaultSeed uint64
	logger      calculation.Logger
	tracer      trace.Tracer
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithDefaultSeed overrides DefaultSeed.
func WithDefaultSeed(seed uint64) Option {
	return func(a *Aggregator) { a.defaultSeed = seed }
}

// WithLogger sets the logger; nil keeps the no-op logger.
func WithLogger(l calculation.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// New returns an Aggregator. A nil cache gets a default in-memory cache.
func New(sim Simulator, c *cache.ResultCache, opts ...Option) *Aggregator {
	if c == nil {
		c = cache.New()
	}
	a := &Aggregator{
		sim:         sim,
		cache:       c,
		defaultSeed: DefaultSeed,
		logger:      calculation.NopLogger{},
		tracer:      otel.Tracer("github.com/rpgo/fiscal-projection/internal/outlook"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Cache exposes the underlying result cache.
func (a *Aggregator) Cache() *cache.ResultCache { return a.cache }

// Outlook returns the statistics for (params, iterations, horizon, seed). A hit
// returns the stored statistics unchanged; a miss runs the simulator and stores
// the result when it is reproducible.
func (a *Aggregator) Outlook(ctx context.Context, params *domain.PolicyParameterSet, req Request) (*Result, error) {
	if params == nil {
		return nil, &domain.ValidationError{Field: "params", Value: nil, Reason: "parameter set is required"}
	}
	seed := a.defaultSeed
	if req.Seed != nil {
		seed = *req.Seed
	}
	run := calculation.RunRequest{Iterations: req.Iterations, Horizon: req.Horizon, Seed: &seed}
	if err := run.Validate(); err != nil {
		return nil, err
	}

	key := cache.Key(params.Fingerprint(), req.Iterations, req.Horizon, seed)
	ctx, span := a.tracer.Start(ctx, "outlook.Aggregator.Outlook",
		trace.WithAttributes(
			attribute.String("cache_key", key),
			attribute.String("fingerprint", params.Fingerprint()),
			attribute.Int("iterations", req.Iterations),
			attribute.Int("horizon", req.Horizon),
		),
	)
	defer span.End()

	stats, cached, err := a.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*domain.AggregateStatistics, error) {
		return a.sim.RunSimulation(ctx, params, run)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "outlook failed")
		return nil, fmt.Errorf("outlook %s: %w", key[:12], err)
	}
	span.SetAttributes(attribute.Bool("cache_hit", cached))
	a.logger.Debugf("outlook %s: cached=%t iterations_used=%d", key[:12], cached, stats.IterationsUsed)
	return &Result{Stats: stats, Key: key, Cached: cached}, nil
}
