package integration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rpgo/fiscal-projection/internal/config"
	"github.com/rpgo/fiscal-projection/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const engineConfigPath = "../testdata/engine.yaml"

// The engine config file, environment overrides, and a persistent store
// together serve a second process from disk.
func TestEngineConfigFileWithPersistentStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "outlooks.db")
	t.Setenv("FISCAL_CACHE_PATH", dbPath)
	t.Setenv("FISCAL_WORKERS", "2")

	cfg, err := config.LoadEngineConfig(engineConfigPath)
	require.NoError(t, err)
	assert.Equal(t, config.BackendSQLite, cfg.CacheBackend)
	assert.Equal(t, dbPath, cfg.CachePath)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, uint64(7), cfg.DefaultSeed)

	open := func() *engine.Engine {
		store, err := engine.OpenStore(cfg, nil)
		require.NoError(t, err)
		require.NotNil(t, store)
		return newEngine(t, cfg, engine.WithOwnedStore(store))
	}

	first := open()
	params, err := first.ComposeScenario("baseline", []string{"raise_cap"})
	require.NoError(t, err)
	want, err := first.CombinedOutlook(context.Background(), params, 100, 6, nil)
	require.NoError(t, err)
	assert.False(t, want.Cached)
	assert.Equal(t, uint64(7), want.Stats.Seed)
	require.NoError(t, first.Close())

	second := open()
	got, err := second.CombinedOutlook(context.Background(), params, 100, 6, nil)
	require.NoError(t, err)
	assert.True(t, got.Cached)
	assert.Equal(t, int64(1), second.CacheStats().StoreHits)
	assert.Equal(t, want.Key, got.Key)

	traj := second.Trajectory(got.Stats)
	require.Len(t, traj, 6)
	assert.Equal(t, 2031, traj[5].FiscalYear)
}
