// Package comparison contrasts Monte Carlo outlooks quantity by quantity.
package comparison

import (
	"fmt"
	"math"

	"github.com/rpgo/fiscal-projection/internal/calculation"
	"github.com/rpgo/fiscal-projection/internal/domain"
)

// Named labels an outlook for pairwise comparison.
type Named struct {
	Name  string
	Stats *domain.AggregateStatistics
}

// Engine compares outlooks. The zero value uses calculation.DefaultGuard for
// percent deltas.
type Engine struct {
	Guard calculation.Guard
}

// New returns an Engine that guards percent deltas with g.
func New(g calculation.Guard) *Engine {
	return &Engine{Guard: g}
}

func (e *Engine) guard() calculation.Guard {
	if e == nil || e.Guard.Epsilon == 0 {
		return calculation.DefaultGuard()
	}
	return e.Guard
}

// Compare reports, for every quantity and year, delta = B - A, percent delta
// = delta / A under the safe-division policy, and whether the confidence bands
// are disjoint. Inputs are read only.
func (e *Engine) Compare(a, b Named) (*domain.ComparisonResult, error) {
	if a.Stats == nil || b.Stats == nil {
		return nil, &domain.ValidationError{Field: "outlook", Value: nil, Reason: "both outlooks are required"}
	}
	if a.Stats.Horizon != b.Stats.Horizon {
		return nil, fmt.Errorf("compare %s (%d years) with %s (%d years): %w",
			a.Name, a.Stats.Horizon, b.Name, b.Stats.Horizon, domain.ErrHorizonMismatch)
	}
	if math.Abs(a.Stats.ConfidenceLevel-b.Stats.ConfidenceLevel) > 1e-12 {
		return nil, &domain.ValidationError{
			Field:  "confidence_level",
			Value:  b.Stats.ConfidenceLevel,
			Reason: fmt.Sprintf("outlooks use different confidence levels (%g vs %g)", a.Stats.ConfidenceLevel, b.Stats.ConfidenceLevel),
		}
	}

	g := e.guard()
	res := &domain.ComparisonResult{
		Baseline:        a.Name,
		Alternative:     b.Name,
		Horizon:         a.Stats.Horizon,
		ConfidenceLevel: a.Stats.ConfidenceLevel,
		Quantities:      make(map[domain.Quantity][]domain.YearDelta, domain.NumQuantities()),
		TrustFunds:      make(map[domain.Fund]domain.DepletionShift, len(domain.AllFunds())),
	}

	for _, q := range domain.AllQuantities() {
		qa, okA := a.Stats.Quantities[q]
		qb, okB := b.Stats.Quantities[q]
		if !okA || !okB {
			continue
		}
		deltas := make([]domain.YearDelta, res.Horizon)
		for t := range deltas {
			ya, yb := qa.Years[t], qb.Years[t]
			d := yb.Mean - ya.Mean
			var pct float64
			var guarded bool
			if d != 0 {
				pct, guarded = g.Div(d, ya.Mean)
			}
			sig := bandsDisjoint(ya, yb)
			deltas[t] = domain.YearDelta{
				Year:           t + 1,
				Baseline:       ya.Mean,
				Alternative:    yb.Mean,
				Delta:          d,
				PercentDelta:   pct,
				PercentGuarded: guarded,
				Significant:    sig,
			}
			if sig {
				res.SignificantCount++
			}
		}
		res.Quantities[q] = deltas
	}

	for _, f := range domain.AllFunds() {
		da, okA := a.Stats.TrustFunds[f]
		db, okB := b.Stats.TrustFunds[f]
		if !okA || !okB {
			continue
		}
		res.TrustFunds[f] = domain.DepletionShift{
			Fund:            f,
			BaselineYear:    da.CensoredMeanYear,
			AlternativeYear: db.CensoredMeanYear,
			Shift:           db.CensoredMeanYear - da.CensoredMeanYear,
		}
	}
	return res, nil
}

// bandsDisjoint reports whether two confidence bands do not overlap. Touching
// bands overlap.
func bandsDisjoint(a, b domain.YearStats) bool {
	return a.CIUpper < b.CILower || b.CIUpper < a.CILower
}

// CompareAll returns every pair (i, j) with i < j in input order.
func (e *Engine) CompareAll(outlooks ...Named) ([]*domain.ComparisonResult, error) {
	if len(outlooks) < 2 {
		return nil, &domain.ValidationError{Field: "outlooks", Value: len(outlooks), Reason: "at least two outlooks are required"}
	}
	out := make([]*domain.ComparisonResult, 0, len(outlooks)*(len(outlooks)-1)/2)
	for i := 0; i < len(outlooks); i++ {
		for j := i + 1; j < len(outlooks); j++ {
			r, err := e.Compare(outlooks[i], outlooks[j])
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
	}
	return out, nil
}
