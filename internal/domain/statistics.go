package domain

import "math"

// YearStats summarizes one quantity in one year across all iterations.
// Percentiles is aligned with AggregateStatistics.PercentileRanks.
type YearStats struct {
	Mean        float64   `json:"mean"`
	StdDev      float64   `json:"std_dev"`
	CILower     float64   `json:"ci_lower"`
	CIUpper     float64   `json:"ci_upper"`
	Percentiles []float64 `json:"percentiles"`
}

// QuantityStats holds year-by-year statistics for one quantity.
type QuantityStats struct {
	Quantity Quantity    `json:"quantity"`
	Years    []YearStats `json:"years"`
}

// DepletionStats summarizes when a trust fund depletes across iterations.
// Depletion years are 1-based; non-depleting iterations are censored at horizon+1.
type DepletionStats struct {
	Fund             Fund      `json:"fund"`
	DepletedCount    int       `json:"depleted_count"`
	DepletedShare    float64   `json:"depleted_share"`
	CensoredMeanYear float64   `json:"censored_mean_year"`
	EarliestYear     int       `json:"earliest_year,omitempty"`
	Percentiles      []float64 `json:"percentiles"`
}

// AggregateStatistics is the summary of a Monte Carlo run. It is immutable once
// returned and shared read-only with the aggregator, cache, and comparison engine.
type AggregateStatistics struct {
	Fingerprint         string                     `json:"fingerprint"`
	Kind                PolicyKind                 `json:"kind"`
	Horizon             int                        `json:"horizon"`
	IterationsRequested int                        `json:"iterations_requested"`
	IterationsUsed      int                        `json:"iterations_used"`
	Seed                uint64                     `json:"seed"`
	Reproducible        bool                       `json:"reproducible"`
	Converged           bool                       `json:"converged"`
	KeyQuantity         Quantity                   `json:"key_quantity"`
	StandardError       float64                    `json:"standard_error"`
	ConfidenceLevel     float64                    `json:"confidence_level"`
	PercentileRanks     []float64                  `json:"percentile_ranks"`
	Quantities          map[Quantity]QuantityStats `json:"quantities"`
	TrustFunds          map[Fund]DepletionStats    `json:"trust_funds"`
	ShockAttribution    map[Factor]float64         `json:"shock_attribution"`
	Guards              GuardSummary               `json:"guards"`
	Warnings            []Warning                  `json:"warnings,omitempty"`
}

// Year returns the statistics for q in year t.
func (a *AggregateStatistics) Year(q Quantity, t int) (YearStats, bool) {
	qs, ok := a.Quantities[q]
	if !ok || t < 0 || t >= len(qs.Years) {
		return YearStats{}, false
	}
	return qs.Years[t], true
}

// Mean returns the mean of q in year t, or NaN when absent.
func (a *AggregateStatistics) Mean(q Quantity, t int) float64 {
	ys, ok := a.Year(q, t)
	if !ok {
		return math.NaN()
	}
	return ys.Mean
}

// Percentile returns the value of q in year t at rank p (e.g. 0.5). Only ranks
// listed in PercentileRanks are available.
func (a *AggregateStatistics) Percentile(q Quantity, t int, p float64) (float64, bool) {
	ys, ok := a.Year(q, t)
	if !ok {
		return 0, false
	}
	for i, r := range a.PercentileRanks {
		if math.Abs(r-p) < 1e-12 {
			return ys.Percentiles[i], true
		}
	}
	return 0, false
}

// FinalMean returns the mean of q in the last projected year.
func (a *AggregateStatistics) FinalMean(q Quantity) float64 {
	return a.Mean(q, a.Horizon-1)
}
