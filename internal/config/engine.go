package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/rpgo/fiscal-projection/internal/calculation"
	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/rpgo/fiscal-projection/internal/outlook"
	"github.com/rpgo/fiscal-projection/pkg/dateutil"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "FISCAL_"

// Cache backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// EngineConfig holds engine tuning. It is loaded from YAML, then overridden
// by FISCAL_* environment variables, then validated.
type EngineConfig struct {
	Workers          int       `yaml:"workers" env:"WORKERS" validate:"gte=1,lte=1024"`
	ChunkSize        int       `yaml:"chunk_size" env:"CHUNK_SIZE" validate:"gte=1,lte=100000"`
	ReservoirSize    int       `yaml:"reservoir_size" env:"RESERVOIR_SIZE" validate:"gte=16,lte=1000000"`
	MinIterations    int       `yaml:"min_iterations" env:"MIN_ITERATIONS" validate:"gte=2"`
	Tolerance        float64   `yaml:"tolerance" env:"TOLERANCE" validate:"gte=0"`
	KeyQuantity      string    `yaml:"key_quantity" env:"KEY_QUANTITY" validate:"required,quantity"`
	ConfidenceLevel  float64   `yaml:"confidence_level" env:"CONFIDENCE_LEVEL" validate:"gt=0,lt=1"`
	Percentiles      []float64 `yaml:"percentiles" env:"PERCENTILES" envSeparator:"," validate:"required,min=1,dive,gt=0,lt=1"`
	DivisionEpsilon  float64   `yaml:"division_epsilon" env:"DIVISION_EPSILON" validate:"gt=0"`
	DivisionFallback float64   `yaml:"division_fallback" env:"DIVISION_FALLBACK"`
	DefaultSeed      uint64    `yaml:"default_seed" env:"DEFAULT_SEED"`
	FirstFiscalYear  int       `yaml:"first_fiscal_year" env:"FIRST_FISCAL_YEAR" validate:"gte=1900,lte=2200"`
	SensitivityYears int       `yaml:"sensitivity_years" env:"SENSITIVITY_YEARS" validate:"gte=1,lte=200"`
	CacheEntries     int       `yaml:"cache_entries" env:"CACHE_ENTRIES" validate:"gte=1"`
	CacheBackend     string    `yaml:"cache_backend" env:"CACHE_BACKEND" validate:"oneof=memory badger sqlite"`
	CachePath        string    `yaml:"cache_path" env:"CACHE_PATH" validate:"required_unless=CacheBackend memory"`
}

// DefaultEngineConfig mirrors calculation.DefaultMonteCarloConfig.
func DefaultEngineConfig() EngineConfig {
	mc := calculation.DefaultMonteCarloConfig()
	return EngineConfig{
		Workers:          runtime.GOMAXPROCS(0),
		ChunkSize:        mc.ChunkSize,
		ReservoirSize:    mc.ReservoirSize,
		MinIterations:    mc.MinIterations,
		Tolerance:        mc.Tolerance,
		KeyQuantity:      string(mc.KeyQuantity),
		ConfidenceLevel:  mc.ConfidenceLevel,
		Percentiles:      append([]float64(nil), mc.Percentiles...),
		DivisionEpsilon:  mc.Guard.Epsilon,
		DivisionFallback: mc.Guard.Fallback,
		DefaultSeed:      outlook.DefaultSeed,
		FirstFiscalYear:  2026,
		SensitivityYears: 10,
		CacheEntries:     64,
		CacheBackend:     BackendMemory,
	}
}

var configValidate = func() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("quantity", func(fl validator.FieldLevel) bool {
		return domain.Quantity(fl.Field().String()).Index() >= 0
	})
	return v
}()

var nowFunc = time.Now

// LoadEngineConfig reads path (optional; "" uses defaults), applies
// environment overrides, and validates the result. A first_fiscal_year of 0
// means the first full fiscal year after today.
func LoadEngineConfig(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return EngineConfig{}, fmt.Errorf("failed to read file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return EngineConfig{}, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return EngineConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.FirstFiscalYear == 0 {
		cfg.FirstFiscalYear = dateutil.FirstProjectionYear(nowFunc())
	}
	if err := cfg.Validate(); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

// Validate checks every field, reporting the first failure as a
// *domain.ValidationError.
func (c EngineConfig) Validate() error {
	err := configValidate.Struct(c)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		return &domain.ValidationError{
			Field:  yamlName(fe.StructField()),
			Value:  fe.Value(),
			Reason: fmt.Sprintf("must satisfy %s", strings.TrimSuffix(fe.Tag()+"="+fe.Param(), "=")),
		}
	}
	return fmt.Errorf("engine config: %w", err)
}

func yamlName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MonteCarlo converts the config into orchestrator settings.
func (c EngineConfig) MonteCarlo() calculation.MonteCarloConfig {
	mc := calculation.DefaultMonteCarloConfig()
	mc.Workers = c.Workers
	mc.ChunkSize = c.ChunkSize
	mc.ReservoirSize = c.ReservoirSize
	mc.MinIterations = c.MinIterations
	mc.Tolerance = c.Tolerance
	mc.KeyQuantity = domain.Quantity(c.KeyQuantity)
	mc.ConfidenceLevel = c.ConfidenceLevel
	mc.Percentiles = append([]float64(nil), c.Percentiles...)
	mc.Guard = calculation.Guard{Epsilon: c.DivisionEpsilon, Fallback: c.DivisionFallback}
	return mc
}
