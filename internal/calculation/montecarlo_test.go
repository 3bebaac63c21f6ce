package calculation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPtr(v uint64) *uint64 { return &v }

func testConfig(workers int) MonteCarloConfig {
	cfg := DefaultMonteCarloConfig()
	cfg.Workers = workers
	cfg.ChunkSize = 16
	return cfg
}

func TestMonteCarloSimulator_Reproducible(t *testing.T) {
	params := paramsFor(t, domain.KindCurrentLaw)
	req := RunRequest{Iterations: 150, Horizon: 10, Seed: seedPtr(42)}
	mcs := NewMonteCarloSimulator(testConfig(4))

	a, err := mcs.RunSimulation(context.Background(), params, req)
	require.NoError(t, err)
	b, err := mcs.RunSimulation(context.Background(), params, req)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.True(t, a.Reproducible)
	assert.Equal(t, uint64(42), a.Seed)
	assert.Equal(t, 150, a.IterationsUsed)
	assert.True(t, a.Converged, "no tolerance configured")
}

func TestMonteCarloSimulator_WorkerCountInvariant(t *testing.T) {
	params := paramsFor(t, domain.KindPublicOption)
	req := RunRequest{Iterations: 101, Horizon: 8, Seed: seedPtr(7)}

	one, err := NewMonteCarloSimulator(testConfig(1)).RunSimulation(context.Background(), params, req)
	require.NoError(t, err)
	many, err := NewMonteCarloSimulator(testConfig(6)).RunSimulation(context.Background(), params, req)
	require.NoError(t, err)

	assert.Equal(t, one, many)
}

func TestMonteCarloSimulator_PercentilesMonotone(t *testing.T) {
	cfg := testConfig(3)
	cfg.ReservoirSize = 64 // force sampling
	stats, err := NewMonteCarloSimulator(cfg).RunSimulation(context.Background(), paramsFor(t, domain.KindCurrentLaw),
		RunRequest{Iterations: 300, Horizon: 12, Seed: seedPtr(5)})
	require.NoError(t, err)

	require.Len(t, stats.Quantities, domain.NumQuantities())
	for q, qs := range stats.Quantities {
		require.Len(t, qs.Years, 12)
		for ti, ys := range qs.Years {
			for i := 1; i < len(ys.Percentiles); i++ {
				assert.LessOrEqual(t, ys.Percentiles[i-1], ys.Percentiles[i], "%s year %d", q, ti)
			}
			assert.LessOrEqual(t, ys.CILower, ys.CIUpper)
		}
	}
	for _, f := range domain.AllFunds() {
		ds := stats.TrustFunds[f]
		for i := 1; i < len(ds.Percentiles); i++ {
			assert.LessOrEqual(t, ds.Percentiles[i-1], ds.Percentiles[i])
		}
		assert.GreaterOrEqual(t, ds.CensoredMeanYear, 1.0)
		assert.LessOrEqual(t, ds.CensoredMeanYear, 13.0)
	}
}

func TestMonteCarloSimulator_ValidationErrors(t *testing.T) {
	mcs := NewMonteCarloSimulator(testConfig(2))
	params := paramsFor(t, domain.KindCurrentLaw)

	tests := []struct {
		name  string
		req   RunRequest
		field string
	}{
		{"zero iterations", RunRequest{Iterations: 0, Horizon: 10}, "iterations"},
		{"negative horizon", RunRequest{Iterations: 10, Horizon: -1}, "horizon"},
		{"horizon too long", RunRequest{Iterations: 10, Horizon: MaxHorizon + 1}, "horizon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mcs.RunSimulation(context.Background(), params, tt.req)
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	_, err := mcs.RunSimulation(context.Background(), nil, RunRequest{Iterations: 1, Horizon: 1})
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestMonteCarloSimulator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := NewMonteCarloSimulator(testConfig(2)).RunSimulation(ctx, paramsFor(t, domain.KindCurrentLaw),
		RunRequest{Iterations: 1000, Horizon: 10, Seed: seedPtr(1)})
	assert.Nil(t, stats)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMonteCarloSimulator_CancelledMidRun(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	stats, err := NewMonteCarloSimulator(testConfig(2)).RunSimulation(ctx, paramsFor(t, domain.KindCurrentLaw),
		RunRequest{Iterations: 5_000_000, Horizon: 75, Seed: seedPtr(1)})
	assert.Nil(t, stats)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMonteCarloSimulator_EarlyStop(t *testing.T) {
	cfg := testConfig(4)
	cfg.MinIterations = 64
	cfg.Tolerance = 10 // any realistic standard error of debt/GDP is far below this
	params := paramsFor(t, domain.KindCurrentLaw)
	req := RunRequest{Iterations: 1000, Horizon: 5, Seed: seedPtr(3)}

	stats, err := NewMonteCarloSimulator(cfg).RunSimulation(context.Background(), params, req)
	require.NoError(t, err)
	assert.True(t, stats.Converged)
	assert.Equal(t, 64, stats.IterationsUsed)
	assert.Equal(t, 1000, stats.IterationsRequested)
	assert.Empty(t, stats.Warnings)

	// Same stopping point for a different worker count.
	cfg.Workers = 1
	again, err := NewMonteCarloSimulator(cfg).RunSimulation(context.Background(), params, req)
	require.NoError(t, err)
	assert.Equal(t, stats, again)
}

func TestMonteCarloSimulator_NotConvergedWarns(t *testing.T) {
	cfg := testConfig(2)
	cfg.MinIterations = 10
	cfg.Tolerance = 1e-12
	stats, err := NewMonteCarloSimulator(cfg).RunSimulation(context.Background(), paramsFor(t, domain.KindCurrentLaw),
		RunRequest{Iterations: 50, Horizon: 5, Seed: seedPtr(3)})
	require.NoError(t, err)

	assert.False(t, stats.Converged)
	assert.Equal(t, 50, stats.IterationsUsed)
	require.NotEmpty(t, stats.Warnings)
	assert.Equal(t, domain.ConvergenceWarning, stats.Warnings[0].Kind)
	assert.Greater(t, stats.StandardError, 0.0)
}

func TestMonteCarloSimulator_Unseeded(t *testing.T) {
	stats, err := NewMonteCarloSimulator(testConfig(2)).RunSimulation(context.Background(), paramsFor(t, domain.KindCurrentLaw),
		RunRequest{Iterations: 20, Horizon: 3})
	require.NoError(t, err)
	assert.False(t, stats.Reproducible)
}

func TestMonteCarloSimulator_ShockAttribution(t *testing.T) {
	stats, err := NewMonteCarloSimulator(testConfig(4)).RunSimulation(context.Background(), paramsFor(t, domain.KindCurrentLaw),
		RunRequest{Iterations: 400, Horizon: 10, Seed: seedPtr(8)})
	require.NoError(t, err)

	require.Len(t, stats.ShockAttribution, domain.NumFactors())
	// Faster growth lowers debt/GDP.
	assert.Less(t, stats.ShockAttribution[domain.FactorGDPGrowth], -0.3)
	for f, r := range stats.ShockAttribution {
		assert.True(t, r >= -1 && r <= 1, "%s=%v", f, r)
	}
}

func TestSlogLoggerAndNop(t *testing.T) {
	mcs := NewMonteCarloSimulator(testConfig(1))
	mcs.SetLogger(nil)
	assert.IsType(t, NopLogger{}, mcs.Logger)

	l := NewSlogLogger(nil)
	l.Debugf("debug %d", 1)
	l.Infof("info %d", 2)
	mcs.SetLogger(l)
	assert.Same(t, l, mcs.Logger)
}
