package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rpgo/fiscal-projection/internal/calculation"
	"github.com/rpgo/fiscal-projection/internal/comparison"
	"github.com/rpgo/fiscal-projection/internal/config"
	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/rpgo/fiscal-projection/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.EngineConfig {
	cfg := config.DefaultEngineConfig()
	cfg.Workers = 2
	cfg.ChunkSize = 16
	cfg.SensitivityYears = 5
	return cfg
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(testConfig(), nil, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func seed(v uint64) *uint64 { return &v }

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 0
	_, err := New(cfg, nil)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "workers", ve.Field)
}

func TestEngine_CatalogListing(t *testing.T) {
	e := newEngine(t)
	require.NotEmpty(t, e.Policies())
	assert.Equal(t, "current_law", e.Policies()[0].ID)

	var ids []string
	for _, r := range e.Reforms() {
		ids = append(ids, r.ID)
	}
	assert.Contains(t, ids, "raise_cap_250k")
}

func TestEngine_ComposeScenario(t *testing.T) {
	e := newEngine(t)

	base, err := e.ComposeScenario("current_law", nil)
	require.NoError(t, err)
	reformed, err := e.ComposeScenario("current_law", []string{"raise_cap_250k"})
	require.NoError(t, err)
	assert.NotEqual(t, base.Fingerprint(), reformed.Fingerprint())

	c, err := e.DescribeScenario("current_law", []string{"raise_cap_250k"})
	require.NoError(t, err)
	assert.Equal(t, "current_law", c.Base)
	assert.Equal(t, []string{"raise_cap_250k"}, c.Deltas)
	require.NotEmpty(t, c.Changes)
	assert.Equal(t, domain.ParamPayrollTaxCap, c.Changes[0].Parameter)

	_, err = e.ComposeScenario("nope", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownPolicy)
	_, err = e.ComposeScenario("current_law", []string{"nope"})
	assert.ErrorIs(t, err, domain.ErrUnknownReform)
}

func TestEngine_ComposeWithCatalogDeltas(t *testing.T) {
	e := newEngine(t)
	base, err := e.ComposeScenario("current_law", nil)
	require.NoError(t, err)

	var deltas []domain.ReformDelta
	for _, r := range e.Reforms() {
		if r.ID == "trim_cola" {
			deltas = append(deltas, r.Delta)
		}
	}
	require.Len(t, deltas, 1)

	got, err := e.ComposeWith(base, deltas...)
	require.NoError(t, err)
	want, err := e.ComposeScenario("current_law", []string{"trim_cola"})
	require.NoError(t, err)
	assert.Equal(t, want.Fingerprint(), got.Fingerprint())
}

func TestEngine_HistoricalCalibrationPrecedesReforms(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gdp-growth.csv"), []byte("year,growth\n2000,0.02\n2001,0.03\n2002,0.01\n"), 0o644))
	h, err := calculation.LoadMacroHistory(dir)
	require.NoError(t, err)
	cal := HistoricalCalibration(h)
	assert.Equal(t, "historical calibration", cal.Name())

	e := newEngine(t)
	plain, err := e.ComposeScenario("current_law", []string{"raise_cap_250k"})
	require.NoError(t, err)
	c, err := e.DescribeScenario("current_law", []string{"raise_cap_250k"}, cal)
	require.NoError(t, err)
	assert.NotEqual(t, plain.Fingerprint(), c.Params.Fingerprint())
	assert.Equal(t, []string{"historical calibration", "raise_cap_250k"}, c.Deltas)

	require.Len(t, c.Changes, 3)
	assert.Equal(t, domain.ParamGDPGrowthMean, c.Changes[0].Parameter)
	assert.Equal(t, "historical calibration", c.Changes[0].Delta)
	assert.Equal(t, domain.ParamGDPGrowthSD, c.Changes[1].Parameter)
	assert.Equal(t, domain.ParamPayrollTaxCap, c.Changes[2].Parameter)
	assert.Equal(t, "raise_cap_250k", c.Changes[2].Delta)
}

func TestEngine_RunProjection(t *testing.T) {
	e := newEngine(t)
	params, err := e.ComposeScenario("current_law", nil)
	require.NoError(t, err)

	seeded, err := e.RunProjection(context.Background(), params, 40, 6, seed(7))
	require.NoError(t, err)
	assert.True(t, seeded.Reproducible)
	assert.Equal(t, 6, seeded.Horizon)

	again, err := e.RunProjection(context.Background(), params, 40, 6, seed(7))
	require.NoError(t, err)
	assert.Equal(t, seeded.FinalMean(domain.QDebtToGDP), again.FinalMean(domain.QDebtToGDP))

	unseeded, err := e.RunProjection(context.Background(), params, 40, 6, nil)
	require.NoError(t, err)
	assert.False(t, unseeded.Reproducible)
}

func TestEngine_CombinedOutlookCaches(t *testing.T) {
	e := newEngine(t)
	params, err := e.ComposeScenario("current_law", nil)
	require.NoError(t, err)

	first, err := e.CombinedOutlook(context.Background(), params, 40, 6, nil)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, e.Config().DefaultSeed, first.Stats.Seed)

	second, err := e.CombinedOutlook(context.Background(), params, 40, 6, nil)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Same(t, first.Stats, second.Stats)

	st := e.CacheStats()
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, 1, st.Entries)

	traj := e.Trajectory(first.Stats)
	require.Len(t, traj, 6)
	assert.Equal(t, e.Config().FirstFiscalYear, traj[0].FiscalYear)
}

func TestEngine_SharedStoreServesSecondEngine(t *testing.T) {
	store, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	a := newEngine(t, WithStore(store))
	params, err := a.ComposeScenario("current_law", []string{"raise_cap_250k"})
	require.NoError(t, err)
	want, err := a.CombinedOutlook(context.Background(), params, 40, 6, seed(3))
	require.NoError(t, err)

	b := newEngine(t, WithStore(store))
	got, err := b.CombinedOutlook(context.Background(), params, 40, 6, seed(3))
	require.NoError(t, err)
	assert.True(t, got.Cached)
	assert.Equal(t, want.Stats, got.Stats)
	assert.Equal(t, int64(1), b.CacheStats().StoreHits)
	assert.Equal(t, int64(0), b.CacheStats().Computations)
}

func TestEngine_RunSensitivity(t *testing.T) {
	e := newEngine(t)
	params, err := e.ComposeScenario("current_law", nil)
	require.NoError(t, err)

	res, err := e.RunSensitivity(context.Background(), params, 20)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Horizon)
	require.NotEmpty(t, res.Entries)
	for i := 1; i < len(res.Entries); i++ {
		assert.GreaterOrEqual(t, abs(res.Entries[i-1].Impact), abs(res.Entries[i].Impact))
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestEngine_CompareAll(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	var named []comparison.Named
	for _, reforms := range [][]string{nil, {"raise_cap_250k"}, {"discretionary_freeze"}} {
		params, err := e.ComposeScenario("current_law", reforms)
		require.NoError(t, err)
		res, err := e.CombinedOutlook(ctx, params, 40, 6, seed(11))
		require.NoError(t, err)
		name := "baseline"
		if len(reforms) > 0 {
			name = reforms[0]
		}
		named = append(named, comparison.Named{Name: name, Stats: res.Stats})
	}

	pairs, err := e.CompareAll(named...)
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	assert.Equal(t, "baseline", pairs[0].Baseline)
	assert.Equal(t, "raise_cap_250k", pairs[0].Alternative)
	assert.Equal(t, "raise_cap_250k", pairs[2].Baseline)

	one, err := e.Compare(named[0], named[1])
	require.NoError(t, err)
	assert.Equal(t, pairs[0], one)
}

func TestOpenStore(t *testing.T) {
	cfg := testConfig()
	s, err := OpenStore(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, s)

	cfg.CacheBackend = config.BackendSQLite
	cfg.CachePath = filepath.Join(t.TempDir(), "cache.db")
	s, err = OpenStore(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, s)

	e, err := New(cfg, nil, WithOwnedStore(s))
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close(), "second close is a no-op")

	cfg.CacheBackend = config.BackendBadger
	cfg.CachePath = t.TempDir()
	s, err = OpenStore(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	cfg.CacheBackend = "redis"
	_, err = OpenStore(cfg, nil)
	assert.Error(t, err)
}
