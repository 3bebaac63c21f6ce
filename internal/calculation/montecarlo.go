package calculation

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"github.com/google/uuid"
	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/rpgo/fiscal-projection/internal/shock"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// MonteCarloConfig holds the orchestrator settings that do not vary per run.
type MonteCarloConfig struct {
	Workers         int
	ChunkSize       int
	ReservoirSize   int
	MinIterations   int
	Tolerance       float64 // standard-error target for the key quantity; <= 0 disables early stop
	KeyQuantity     domain.Quantity
	ConfidenceLevel float64
	Percentiles     []float64
	Guard           Guard
	Correlation     shock.CorrelationModel
}

// DefaultMonteCarloConfig returns the default orchestrator settings.
func DefaultMonteCarloConfig() MonteCarloConfig {
	return MonteCarloConfig{
		Workers:         runtime.GOMAXPROCS(0),
		ChunkSize:       32,
		ReservoirSize:   2048,
		MinIterations:   200,
		Tolerance:       0,
		KeyQuantity:     domain.QDebtToGDP,
		ConfidenceLevel: 0.90,
		Percentiles:     []float64{0.05, 0.10, 0.25, 0.50, 0.75, 0.90, 0.95},
		Guard:           DefaultGuard(),
		Correlation:     shock.DefaultModel(),
	}
}

func (c MonteCarloConfig) normalized() MonteCarloConfig {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 32
	}
	if c.KeyQuantity == "" {
		c.KeyQuantity = domain.QDebtToGDP
	}
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		c.ConfidenceLevel = 0.90
	}
	ranks := append([]float64(nil), c.Percentiles...)
	sort.Float64s(ranks)
	c.Percentiles = ranks
	return c
}

// MonteCarloSimulator runs iterations of the projection model across a worker
// pool and folds them into AggregateStatistics.
//
// Iterations are cut into fixed-size chunks. Workers fill one accumulator per
// chunk and the collector merges chunks strictly in index order, so results
// are bit-identical for any worker count. Early stop is evaluated at those same
// chunk boundaries.
type MonteCarloSimulator struct {
	cfg    MonteCarloConfig
	Logger Logger
}

// NewMonteCarloSimulator creates a simulator with cfg.
func NewMonteCarloSimulator(cfg MonteCarloConfig) *MonteCarloSimulator {
	return &MonteCarloSimulator{cfg: cfg.normalized(), Logger: NopLogger{}}
}

// SetLogger sets the logger. If nil is provided, a no-op logger is used.
func (mcs *MonteCarloSimulator) SetLogger(l Logger) { mcs.Logger = orNop(l) }

// Config returns the effective configuration.
func (mcs *MonteCarloSimulator) Config() MonteCarloConfig { return mcs.cfg }

type chunkResult struct {
	index int
	acc   *Accumulator
}

// RunSimulation executes req against params. Cancellation is honored between
// iterations; a cancelled run returns an error and no partial statistics.
func (mcs *MonteCarloSimulator) RunSimulation(ctx context.Context, params *domain.PolicyParameterSet, req RunRequest) (*domain.AggregateStatistics, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, &domain.ValidationError{Field: "params", Value: nil, Reason: "parameter set is required"}
	}
	cfg := mcs.cfg
	log := orNop(mcs.Logger)

	model, err := NewModel(params, cfg.Guard)
	if err != nil {
		return nil, err
	}
	gen, err := shock.New(cfg.Correlation, req.Horizon, req.Seed)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	ctx, span := getTracer().Start(ctx, "calculation.MonteCarloSimulator.RunSimulation",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.String("fingerprint", params.Fingerprint()),
			attribute.String("policy_kind", string(params.Kind())),
			attribute.Int("iterations", req.Iterations),
			attribute.Int("horizon", req.Horizon),
			attribute.Bool("reproducible", gen.Reproducible()),
		),
	)
	defer span.End()

	start := nowFunc()
	log.Infof("monte carlo run %s: fingerprint=%s iterations=%d horizon=%d seed=%d reproducible=%t",
		runID, params.Fingerprint()[:12], req.Iterations, req.Horizon, gen.Seed(), gen.Reproducible())

	total, converged, err := mcs.execute(ctx, model, gen, req)
	if err != nil {
		outcome := "error"
		if ctx.Err() != nil {
			outcome = "canceled"
		}
		runsTotal.WithLabelValues(outcome).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		log.Warnf("monte carlo run %s aborted: %v", runID, err)
		return nil, fmt.Errorf("monte carlo run %s: %w", runID, err)
	}

	stats := &domain.AggregateStatistics{
		Fingerprint:         params.Fingerprint(),
		Kind:                params.Kind(),
		Horizon:             req.Horizon,
		IterationsRequested: req.Iterations,
		IterationsUsed:      total.Count(),
		Seed:                gen.Seed(),
		Reproducible:        gen.Reproducible(),
		Converged:           converged,
		KeyQuantity:         cfg.KeyQuantity,
		StandardError:       total.StandardError(),
		ConfidenceLevel:     cfg.ConfidenceLevel,
		PercentileRanks:     append([]float64(nil), cfg.Percentiles...),
	}
	total.Summarize(stats, cfg.Percentiles, cfg.ConfidenceLevel)

	if !converged {
		stats.Warnings = append(stats.Warnings, domain.Warning{
			Kind: domain.ConvergenceWarning,
			Message: fmt.Sprintf("standard error %.6g of %s after %d iterations exceeds tolerance %.6g",
				stats.StandardError, cfg.KeyQuantity, stats.IterationsUsed, cfg.Tolerance),
		})
	}
	if n := stats.Guards.Total(); n > 0 {
		sites := make([]string, 0, len(stats.Guards))
		for site, c := range stats.Guards {
			sites = append(sites, site)
			guardTriggers.WithLabelValues(site).Add(float64(c))
		}
		sort.Strings(sites)
		stats.Warnings = append(stats.Warnings, domain.Warning{
			Kind:    domain.NumericGuardTriggered,
			Message: fmt.Sprintf("%d guarded values at %v", n, sites),
		})
		log.Warnf("monte carlo run %s: %d numeric guard activations at %v", runID, n, sites)
	}

	elapsed := nowFunc().Sub(start)
	outcome := "converged"
	if !converged {
		outcome = "not_converged"
	}
	runsTotal.WithLabelValues(outcome).Inc()
	iterationsTotal.Add(float64(stats.IterationsUsed))
	runDuration.Observe(elapsed.Seconds())

	span.SetAttributes(
		attribute.Int("iterations_used", stats.IterationsUsed),
		attribute.Bool("converged", converged),
		attribute.Float64("standard_error", stats.StandardError),
		attribute.Int("guard_events", stats.Guards.Total()),
	)
	span.SetStatus(codes.Ok, outcome)
	log.Infof("monte carlo run %s finished: used=%d converged=%t se=%.6g guards=%d elapsed=%s",
		runID, stats.IterationsUsed, converged, stats.StandardError, stats.Guards.Total(), elapsed)
	return stats, nil
}

func (mcs *MonteCarloSimulator) execute(ctx context.Context, model *Model, gen *shock.Generator, req RunRequest) (*Accumulator, bool, error) {
	cfg := mcs.cfg
	chunks := (req.Iterations + cfg.ChunkSize - 1) / cfg.ChunkSize

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(cfg.Workers)
	results := make(chan chunkResult, cfg.Workers)

	var waitErr error
	go func() {
		for c := 0; c < chunks; c++ {
			if gctx.Err() != nil {
				break
			}
			c := c
			g.Go(func() error {
				lo := c * cfg.ChunkSize
				hi := min(lo+cfg.ChunkSize, req.Iterations)
				acc := NewAccumulator(req.Horizon, cfg.ReservoirSize, gen.Seed(), cfg.KeyQuantity)
				for i := lo; i < hi; i++ {
					if err := gctx.Err(); err != nil {
						return err
					}
					acc.Add(model.Run(gen.At(i)))
				}
				select {
				case results <- chunkResult{index: c, acc: acc}:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		waitErr = g.Wait()
		close(results)
	}()

	total := NewAccumulator(req.Horizon, cfg.ReservoirSize, gen.Seed(), cfg.KeyQuantity)
	pending := make(map[int]*Accumulator)
	next := 0
	stoppedEarly := false
	for r := range results {
		if stoppedEarly {
			continue
		}
		pending[r.index] = r.acc
		for acc, ok := pending[next]; ok; acc, ok = pending[next] {
			delete(pending, next)
			total.Merge(acc)
			next++
			if mcs.canStop(total, req.Iterations) {
				stoppedEarly = true
				cancel()
				break
			}
		}
	}

	// Parent cancellation wins over an early stop that raced with it.
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("cancelled after %d iterations: %w", total.Count(), err)
	}
	if stoppedEarly {
		return total, true, nil
	}
	if waitErr != nil {
		return nil, false, waitErr
	}
	if next != chunks {
		return nil, false, errors.New("worker pool exited before all chunks were merged")
	}
	return total, mcs.converged(total), nil
}

func (mcs *MonteCarloSimulator) canStop(total *Accumulator, requested int) bool {
	cfg := mcs.cfg
	n := total.Count()
	return cfg.Tolerance > 0 && n < requested && n >= cfg.MinIterations && n >= 2 &&
		total.StandardError() <= cfg.Tolerance
}

func (mcs *MonteCarloSimulator) converged(total *Accumulator) bool {
	if mcs.cfg.Tolerance <= 0 {
		return true
	}
	return total.Count() >= 2 && total.StandardError() <= mcs.cfg.Tolerance
}
