package calculation

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultSensitivitySeed is used when a sensitivity request carries no seed.
// Every perturbed run shares one seed so differences come from the parameter
// change alone.
const DefaultSensitivitySeed uint64 = 1

// SensitivityEntry is the effect of perturbing one parameter.
type SensitivityEntry struct {
	Parameter      string  `json:"parameter"`
	Value          float64 `json:"value"`
	PerturbedValue float64 `json:"perturbed_value"`
	BaselineOutput float64 `json:"baseline_output"`
	Output         float64 `json:"output"`
	Impact         float64 `json:"impact"`     // relative change of the key output
	Elasticity     float64 `json:"elasticity"` // impact over relative input change
}

// SensitivityResult ranks parameters by |Impact| descending; equal magnitudes
// keep parameter declaration order.
type SensitivityResult struct {
	Fingerprint string             `json:"fingerprint"`
	KeyQuantity domain.Quantity    `json:"key_quantity"`
	Iterations  int                `json:"iterations"`
	Horizon     int                `json:"horizon"`
	Seed        uint64             `json:"seed"`
	Entries     []SensitivityEntry `json:"entries"`
}

// Impacts returns parameter name -> normalized impact.
func (r *SensitivityResult) Impacts() map[string]float64 {
	out := make(map[string]float64, len(r.Entries))
	for _, e := range r.Entries {
		out[e.Parameter] = e.Impact
	}
	return out
}

// Sensitivity perturbs each parameter with a declared step, one at a time,
// re-runs a batch of req.Iterations with the same seed, and reports the
// relative change in the final-year mean of the key quantity. Parameters
// without a step are skipped. The step is added, or subtracted when adding
// would leave the declared range.
func (mcs *MonteCarloSimulator) Sensitivity(ctx context.Context, params *domain.PolicyParameterSet, req RunRequest) (*SensitivityResult, error) {
	if req.Seed == nil {
		seed := DefaultSensitivitySeed
		req.Seed = &seed
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, &domain.ValidationError{Field: "params", Value: nil, Reason: "parameter set is required"}
	}

	ctx, span := getTracer().Start(ctx, "calculation.MonteCarloSimulator.Sensitivity",
		trace.WithAttributes(
			attribute.String("fingerprint", params.Fingerprint()),
			attribute.Int("iterations", req.Iterations),
		),
	)
	defer span.End()

	// Early stop would let perturbed runs use different iteration counts.
	fixed := *mcs
	fixed.cfg.Tolerance = 0
	fixed.Logger = NopLogger{}
	key := fixed.cfg.KeyQuantity

	base, err := fixed.RunSimulation(ctx, params, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "baseline run failed")
		return nil, fmt.Errorf("sensitivity baseline: %w", err)
	}
	baseOut := base.FinalMean(key)

	res := &SensitivityResult{
		Fingerprint: params.Fingerprint(),
		KeyQuantity: key,
		Iterations:  req.Iterations,
		Horizon:     req.Horizon,
		Seed:        *req.Seed,
	}
	for _, spec := range params.Specs() {
		if spec.Step.IsZero() {
			continue
		}
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "context canceled")
			return nil, fmt.Errorf("sensitivity: %w", err)
		}
		cur, _ := params.Value(spec.Name)
		next, ok := perturb(spec, cur)
		if !ok {
			continue
		}
		perturbed, err := params.With(map[string]decimal.Decimal{spec.Name: next})
		if err != nil {
			return nil, fmt.Errorf("sensitivity %s: %w", spec.Name, err)
		}
		stats, err := fixed.RunSimulation(ctx, perturbed, req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "perturbed run failed")
			return nil, fmt.Errorf("sensitivity %s: %w", spec.Name, err)
		}
		sensitivityRuns.Inc()

		out := stats.FinalMean(key)
		impact, _ := SafeDiv(out-baseOut, math.Abs(baseOut), fixed.cfg.Guard.Epsilon, 0)
		v, pv := cur.InexactFloat64(), next.InexactFloat64()
		rel, _ := SafeDiv(pv-v, math.Abs(v), fixed.cfg.Guard.Epsilon, 0)
		elasticity, _ := SafeDiv(impact, rel, fixed.cfg.Guard.Epsilon, 0)

		res.Entries = append(res.Entries, SensitivityEntry{
			Parameter:      spec.Name,
			Value:          v,
			PerturbedValue: pv,
			BaselineOutput: baseOut,
			Output:         out,
			Impact:         impact,
			Elasticity:     elasticity,
		})
	}

	sort.SliceStable(res.Entries, func(i, j int) bool {
		return math.Abs(res.Entries[i].Impact) > math.Abs(res.Entries[j].Impact)
	})
	span.SetAttributes(attribute.Int("parameters", len(res.Entries)))
	span.SetStatus(codes.Ok, "sensitivity computed")
	return res, nil
}

func perturb(spec domain.ParameterSpec, cur decimal.Decimal) (decimal.Decimal, bool) {
	if up := cur.Add(spec.Step); spec.InRange(up) {
		return up, true
	}
	if down := cur.Sub(spec.Step); spec.InRange(down) {
		return down, true
	}
	return decimal.Decimal{}, false
}
