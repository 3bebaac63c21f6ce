// Package engine is the entry point to the projection core. It resolves
// catalog scenarios, runs projections and sensitivity sweeps, serves cached
// outlooks, and compares them.
package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/rpgo/fiscal-projection/internal/cache"
	"github.com/rpgo/fiscal-projection/internal/calculation"
	"github.com/rpgo/fiscal-projection/internal/comparison"
	"github.com/rpgo/fiscal-projection/internal/config"
	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/rpgo/fiscal-projection/internal/outlook"
	"github.com/rpgo/fiscal-projection/internal/scenario"
)

// Engine wires the catalog, simulator, outlook cache, and comparison engine.
// It is safe for concurrent use.
type Engine struct {
	cfg        config.EngineConfig
	catalog    *config.Catalog
	sim        *calculation.MonteCarloSimulator
	aggregator *outlook.Aggregator
	compare    *comparison.Engine
	store      PersistentStore
	logger     calculation.Logger
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	store  cache.Store
	closer PersistentStore
	logger calculation.Logger
}

// WithStore backs the outlook cache with s. The engine does not close it.
func WithStore(s cache.Store) Option {
	return func(o *options) { o.store = s }
}

// WithOwnedStore backs the outlook cache with s and closes it on Close.
func WithOwnedStore(s PersistentStore) Option {
	return func(o *options) {
		o.store = s
		o.closer = s
	}
}

// WithLogger sets the engine logger; nil keeps the no-op logger.
func WithLogger(l calculation.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates an Engine. A nil catalog loads the built-in catalog.
func New(cfg config.EngineConfig, catalog *config.Catalog, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		c, err := config.NewCatalogParser().LoadDefault()
		if err != nil {
			return nil, fmt.Errorf("load built-in catalog: %w", err)
		}
		catalog = c
	}

	o := options{logger: calculation.NopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = calculation.NopLogger{}
	}

	sim := calculation.NewMonteCarloSimulator(cfg.MonteCarlo())
	sim.SetLogger(o.logger)

	cacheOpts := []cache.Option{cache.WithMaxEntries(cfg.CacheEntries)}
	if o.store != nil {
		cacheOpts = append(cacheOpts, cache.WithStore(o.store))
	}
	agg := outlook.New(sim, cache.New(cacheOpts...),
		outlook.WithDefaultSeed(cfg.DefaultSeed),
		outlook.WithLogger(o.logger),
	)

	return &Engine{
		cfg:        cfg,
		catalog:    catalog,
		sim:        sim,
		aggregator: agg,
		compare:    comparison.New(cfg.MonteCarlo().Guard),
		store:      o.closer,
		logger:     o.logger,
	}, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() config.EngineConfig { return e.cfg }

// ComposeScenario resolves a catalog base policy and applies catalog reforms
// in order.
func (e *Engine) ComposeScenario(basePolicyID string, reformIDs []string) (*domain.PolicyParameterSet, error) {
	c, err := e.DescribeScenario(basePolicyID, reformIDs)
	if err != nil {
		return nil, err
	}
	return c.Params, nil
}

// DescribeScenario is ComposeScenario plus the audit trail of changed values.
// Assumption deltas, such as a historical calibration, are applied to the
// base policy before the catalog reforms.
func (e *Engine) DescribeScenario(basePolicyID string, reformIDs []string, assumptions ...domain.ReformDelta) (*scenario.Composition, error) {
	base, err := e.catalog.Policy(basePolicyID)
	if err != nil {
		return nil, err
	}
	deltas, err := e.catalog.Deltas(reformIDs)
	if err != nil {
		return nil, err
	}
	deltas = append(append([]domain.ReformDelta(nil), assumptions...), deltas...)
	c, err := scenario.Describe(base.Params, deltas...)
	if err != nil {
		return nil, err
	}
	c.Base = base.ID
	e.logger.Debugf("composed %s with %d reforms: %d changes, fingerprint %s", base.ID, len(reformIDs), len(c.Changes), c.Params.Fingerprint())
	return c, nil
}

// ComposeWith applies caller-supplied deltas to base.
func (e *Engine) ComposeWith(base *domain.PolicyParameterSet, deltas ...domain.ReformDelta) (*domain.PolicyParameterSet, error) {
	return scenario.Compose(base, deltas...)
}

// HistoricalCalibration turns the moments of a macro history into one
// assumption delta for DescribeScenario. Parameters are set in name order.
func HistoricalCalibration(h *calculation.MacroHistory) domain.ReformDelta {
	values := h.Calibration()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	chain := scenario.Chain{Label: "historical calibration", Description: "shock moments from " + h.DataPath}
	for _, name := range names {
		chain.Steps = append(chain.Steps, scenario.Set("", name, values[name]))
	}
	return chain
}

// RunProjection runs an uncached Monte Carlo projection. A nil seed draws one
// from process entropy and the result is flagged non-reproducible.
func (e *Engine) RunProjection(ctx context.Context, params *domain.PolicyParameterSet, iterations, horizon int, seed *uint64) (*domain.AggregateStatistics, error) {
	return e.sim.RunSimulation(ctx, params, calculation.RunRequest{Iterations: iterations, Horizon: horizon, Seed: seed})
}

// RunSensitivity ranks parameters by their effect on the key quantity over the
// configured sensitivity horizon. Every perturbed run shares
// calculation.DefaultSensitivitySeed.
func (e *Engine) RunSensitivity(ctx context.Context, params *domain.PolicyParameterSet, iterations int) (*calculation.SensitivityResult, error) {
	return e.sim.Sensitivity(ctx, params, calculation.RunRequest{Iterations: iterations, Horizon: e.cfg.SensitivityYears})
}

// CombinedOutlook returns the cached outlook for (params, iterations, horizon,
// seed). A nil seed uses the configured default seed.
func (e *Engine) CombinedOutlook(ctx context.Context, params *domain.PolicyParameterSet, iterations, horizon int, seed *uint64) (*outlook.Result, error) {
	return e.aggregator.Outlook(ctx, params, outlook.Request{Iterations: iterations, Horizon: horizon, Seed: seed})
}

// Trajectory summarizes an outlook year by year, labelled with fiscal years.
func (e *Engine) Trajectory(stats *domain.AggregateStatistics) []outlook.TrajectoryPoint {
	return outlook.Trajectory(stats, e.cfg.FirstFiscalYear)
}

// Compare contrasts two outlooks.
func (e *Engine) Compare(a, b comparison.Named) (*domain.ComparisonResult, error) {
	return e.compare.Compare(a, b)
}

// CompareAll contrasts every pair of outlooks in input order.
func (e *Engine) CompareAll(outlooks ...comparison.Named) ([]*domain.ComparisonResult, error) {
	return e.compare.CompareAll(outlooks...)
}

// Policies lists catalog base policies.
func (e *Engine) Policies() []config.Policy { return e.catalog.Policies() }

// Reforms lists catalog reforms.
func (e *Engine) Reforms() []config.Reform { return e.catalog.Reforms() }

// CacheStats reports outlook cache counters.
func (e *Engine) CacheStats() cache.Stats { return e.aggregator.Cache().Stats() }

// Close releases an owned persistent store.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	err := e.store.Close()
	e.store = nil
	if err != nil {
		return fmt.Errorf("close cache store: %w", err)
	}
	return nil
}
