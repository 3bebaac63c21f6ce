package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEngineConfig_Valid(t *testing.T) {
	cfg := DefaultEngineConfig()
	require.NoError(t, cfg.Validate())

	mc := cfg.MonteCarlo()
	assert.Equal(t, domain.QDebtToGDP, mc.KeyQuantity)
	assert.Equal(t, cfg.Percentiles, mc.Percentiles)
	assert.Equal(t, cfg.DivisionEpsilon, mc.Guard.Epsilon)
}

func TestLoadEngineConfig_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workers: 3
chunk_size: 8
tolerance: 0.001
percentiles: [0.1, 0.5, 0.9]
cache_backend: sqlite
cache_path: /tmp/fiscal.db
`), 0o600))
	t.Setenv("FISCAL_WORKERS", "5")
	t.Setenv("FISCAL_KEY_QUANTITY", "deficit_to_gdp")
	t.Setenv("FISCAL_PERCENTILES", "0.25,0.75")

	cfg, err := LoadEngineConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Workers, "environment wins over the file")
	assert.Equal(t, 8, cfg.ChunkSize)
	assert.Equal(t, 0.001, cfg.Tolerance)
	assert.Equal(t, "deficit_to_gdp", cfg.KeyQuantity)
	assert.Equal(t, []float64{0.25, 0.75}, cfg.Percentiles)
	assert.Equal(t, BackendSQLite, cfg.CacheBackend)
	assert.Equal(t, DefaultEngineConfig().ReservoirSize, cfg.ReservoirSize, "unset fields keep defaults")
}

func TestLoadEngineConfig_NoFile(t *testing.T) {
	cfg, err := LoadEngineConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultEngineConfig(), cfg)
}

func TestLoadEngineConfig_FirstFiscalYearFromClock(t *testing.T) {
	nowFunc = func() time.Time { return time.Date(2026, time.November, 3, 0, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { nowFunc = time.Now })

	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("first_fiscal_year: 0\n"), 0o600))
	cfg, err := LoadEngineConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2028, cfg.FirstFiscalYear, "November 2026 is in FY2027")
}

func TestEngineConfig_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EngineConfig)
		field  string
	}{
		{"zero workers", func(c *EngineConfig) { c.Workers = 0 }, "workers"},
		{"unknown quantity", func(c *EngineConfig) { c.KeyQuantity = "happiness" }, "key_quantity"},
		{"confidence of one", func(c *EngineConfig) { c.ConfidenceLevel = 1 }, "confidence_level"},
		{"percentile above one", func(c *EngineConfig) { c.Percentiles = []float64{0.5, 1.5} }, "percentiles[1]"},
		{"bad backend", func(c *EngineConfig) { c.CacheBackend = "redis" }, "cache_backend"},
		{"badger without path", func(c *EngineConfig) { c.CacheBackend = BackendBadger }, "cache_path"},
		{"zero epsilon", func(c *EngineConfig) { c.DivisionEpsilon = 0 }, "division_epsilon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultEngineConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestLoadEngineConfig_BadEnv(t *testing.T) {
	t.Setenv("FISCAL_WORKERS", "many")
	_, err := LoadEngineConfig("")
	assert.Error(t, err)
}
