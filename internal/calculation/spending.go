package calculation

import (
	"math"
)

// SpendingProjection holds per-year scheduled outlays before trust-fund caps
// and before net interest, which depends on the debt path.
type SpendingProjection struct {
	Discretionary  []float64
	OtherMandatory []float64
	OASIOutgo      []float64
	DIOutgo        []float64
	HIOutgo        []float64
	Medicare       []float64 // general-fund Medicare only
	Medicaid       []float64
}

// ProjectSpending computes scheduled program outlays for every year of path.
func (m *Model) ProjectSpending(path *MacroPath) *SpendingProjection {
	h := path.Horizon()
	a := m.a
	health := m.health.ProjectSpending(path)
	out := &SpendingProjection{
		Discretionary:  make([]float64, h),
		OtherMandatory: make([]float64, h),
		OASIOutgo:      make([]float64, h),
		DIOutgo:        make([]float64, h),
		HIOutgo:        health.HIOutgo,
		Medicare:       health.Medicare,
		Medicaid:       health.Medicaid,
	}

	disc := a.baseGDP * a.discShare
	for t, gdp := range path.GDP {
		// Unindexed appropriations lose real value with inflation.
		disc *= 1 + a.discGrowth - (1-a.discIndex)*path.Inflation[t]
		out.Discretionary[t] = math.Max(disc, 0)
		out.OtherMandatory[t] = gdp*a.otherMandatory + health.Other[t]

		cost := math.Pow(1+a.ssCostGrowth, float64(t+1)) * math.Pow(1+a.cola, float64(t+1))
		out.OASIOutgo[t] = gdp * a.oasiCost * cost * path.Longevity[t]
		out.DIOutgo[t] = gdp * a.diCost * cost
	}
	return out
}
