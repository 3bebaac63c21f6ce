package calculation

import "math"

// Guard sites recorded in domain.GuardSummary.
const (
	GuardBuoyancy     = "revenue_buoyancy"
	GuardGrowthFloor  = "gdp_growth_floor"
	GuardRateFloor    = "interest_rate_floor"
	GuardRatio        = "gdp_ratio"
	GuardPayable      = "payable_ratio"
	GuardTaxableShare = "taxable_share"
	GuardCostFactor   = "cost_factor_floor"
)

// Clamp limits that keep the recursions finite.
const (
	MinGrowthRate   = -0.9
	MinInterestRate = -0.05
	minFactorStep   = -0.5
)

// Guard is the safe-division policy: a denominator within Epsilon of zero, or
// a non-finite quotient, yields Fallback instead.
type Guard struct {
	Epsilon  float64
	Fallback float64
}

// DefaultGuard returns the default safe-division policy.
func DefaultGuard() Guard {
	return Guard{Epsilon: 1e-9, Fallback: 1.0}
}

// Div divides num by den. The second result reports whether the fallback was used.
func (g Guard) Div(num, den float64) (float64, bool) {
	return SafeDiv(num, den, g.Epsilon, g.Fallback)
}

// SafeDiv divides num by den, substituting fallback when |den| <= eps or the
// result is not finite.
func SafeDiv(num, den, eps, fallback float64) (float64, bool) {
	if math.Abs(den) <= eps || math.IsNaN(den) {
		return fallback, true
	}
	q := num / den
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return fallback, true
	}
	return q, false
}

// floorAt returns max(v, min) and whether clamping happened.
func floorAt(v, min float64) (float64, bool) {
	if v < min || math.IsNaN(v) {
		return min, true
	}
	return v, false
}
