package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rpgo/fiscal-projection/internal/calculation"
	"github.com/rpgo/fiscal-projection/internal/config"
	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/rpgo/fiscal-projection/internal/engine"
	"github.com/rpgo/fiscal-projection/internal/output"
	"github.com/spf13/cobra"
)

// app carries flag values and the engine shared by every subcommand.
type app struct {
	stdout io.Writer
	stderr io.Writer

	catalogPath  string
	configPath   string
	historyPath  string
	policy       string
	reforms      []string
	iterations   int
	horizon      int
	seed         uint64
	format       string
	cacheBackend string
	cachePath    string
	verbose      bool

	logger      *slog.Logger
	engine      *engine.Engine
	assumptions []domain.ReformDelta
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "fiscalsim",
		Short:         "Stochastic federal fiscal projections",
		Long:          "fiscalsim projects federal revenue, spending, debt, and entitlement trust funds under\nuncertainty and compares policy scenarios.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.catalogPath, "catalog", "", "policy/reform catalog YAML (default: built-in catalog)")
	pf.StringVar(&a.configPath, "config", "", "engine config YAML; FISCAL_* environment variables override it")
	pf.StringVar(&a.historyPath, "history", "", "directory of annual macro CSVs (gdp-growth, inflation, interest-rate) used to calibrate shocks")
	pf.StringVar(&a.policy, "policy", "current_law", "base policy id")
	pf.StringArrayVar(&a.reforms, "reform", nil, "reform id to apply, in order (repeatable)")
	pf.IntVar(&a.iterations, "iterations", 1000, "Monte Carlo iterations")
	pf.IntVar(&a.horizon, "horizon", 30, "projection horizon in years")
	pf.Uint64Var(&a.seed, "seed", 0, "random seed (default: configured seed for outlooks, entropy for projections)")
	pf.StringVar(&a.format, "format", "console", "output format: "+strings.Join(output.AvailableFormatterNames(), ", "))
	pf.StringVar(&a.cacheBackend, "cache-backend", "", "outlook cache backend: memory, badger, sqlite")
	pf.StringVar(&a.cachePath, "cache-path", "", "directory (badger) or file (sqlite) for the persistent cache")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(
		newPoliciesCmd(a),
		newProjectCmd(a),
		newOutlookCmd(a),
		newSensitivityCmd(a),
		newCompareCmd(a),
	)
	return root
}

// setup loads configuration and builds the engine.
func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	if output.GetFormatterByName(a.format) == nil {
		return fmt.Errorf("%w: %q", output.ErrUnsupportedFormat, a.format)
	}

	cfg, err := config.LoadEngineConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("load engine config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("cache-backend") {
		cfg.CacheBackend = a.cacheBackend
	}
	if flags.Changed("cache-path") {
		cfg.CachePath = a.cachePath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var catalog *config.Catalog
	if a.catalogPath != "" {
		catalog, err = config.NewCatalogParser().LoadFromFile(a.catalogPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
	}

	a.assumptions = nil
	if a.historyPath != "" {
		h, err := calculation.LoadMacroHistory(a.historyPath)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		for _, issue := range h.Issues() {
			a.logger.Warn("history data quality", slog.String("issue", issue))
		}
		a.assumptions = append(a.assumptions, engine.HistoricalCalibration(h))
	}

	logger := calculation.NewSlogLogger(a.logger)
	opts := []engine.Option{engine.WithLogger(logger)}
	store, err := engine.OpenStore(cfg, a.logger)
	if err != nil {
		return err
	}
	if store != nil {
		opts = append(opts, engine.WithOwnedStore(store))
	}

	e, err := engine.New(cfg, catalog, opts...)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return err
	}
	a.engine = e
	a.logger.Debug("engine ready",
		slog.Int("workers", cfg.Workers),
		slog.String("cache_backend", cfg.CacheBackend),
		slog.Uint64("default_seed", cfg.DefaultSeed),
	)
	return nil
}

// run wraps a subcommand so the engine is closed even when it fails.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := a.teardown(); err == nil {
				err = cerr
			}
		}()
		return fn(cmd, args)
	}
}

func (a *app) teardown() error {
	if a.engine == nil {
		return nil
	}
	err := a.engine.Close()
	a.engine = nil
	return err
}

// seedFlag returns the --seed value, or nil when the flag was not given.
func (a *app) seedFlag(cmd *cobra.Command) *uint64 {
	if !cmd.Flags().Changed("seed") {
		return nil
	}
	s := a.seed
	return &s
}

func (a *app) write(r *output.Report) error {
	return output.WriteReport(a.stdout, r, a.format)
}
