package calculation

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var (
	// runsTotal counts Monte Carlo runs by outcome: "converged", "not_converged", "canceled", "error".
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiscal_montecarlo_runs_total",
		Help: "Monte Carlo runs by outcome",
	}, []string{"outcome"})

	iterationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fiscal_montecarlo_iterations_total",
		Help: "Monte Carlo iterations folded into results",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fiscal_montecarlo_run_duration_seconds",
		Help:    "Wall time of a Monte Carlo run",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})

	guardTriggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiscal_numeric_guard_triggers_total",
		Help: "Numeric guard activations by site",
	}, []string{"site"})

	sensitivityRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fiscal_sensitivity_perturbations_total",
		Help: "Perturbed re-runs performed by sensitivity analysis",
	})
)

var (
	tracerOnce sync.Once
	mcTracer   trace.Tracer
)

// getTracer returns the OTel tracer. The global provider is a no-op unless
// the host process installs one.
func getTracer() trace.Tracer {
	tracerOnce.Do(func() {
		mcTracer = otel.Tracer("github.com/rpgo/fiscal-projection/internal/calculation")
	})
	return mcTracer
}

// nowFunc times runs; tests may replace it.
var nowFunc = time.Now
