package calculation

import (
	"github.com/rpgo/fiscal-projection/internal/domain"
)

// MacroPath is the single set of economic drivers for one iteration. Every
// revenue and spending category reads from it, so a recession draw hits all of
// them in the same year.
type MacroPath struct {
	GDP          []float64 // billions of real dollars
	Growth       []float64 // real GDP growth, after clamping
	Wages        []float64
	Inflation    []float64
	InterestRate []float64 // real effective rate on public debt
	Elasticity   []float64 // income tax receipts elasticity to GDP
	HealthFactor []float64 // cumulative excess health cost growth, 1.0 at the base year
	Longevity    []float64 // cumulative longevity cost factor, 1.0 at the base year
}

// Horizon returns the number of projected years.
func (m *MacroPath) Horizon() int { return len(m.GDP) }

// buildMacro maps standardized shocks to levels: each factor is mean + sd*z.
func buildMacro(a *assumptions, s *domain.ShockVector, guards domain.GuardSummary) *MacroPath {
	h := len(s.Draws[0])
	m := &MacroPath{
		GDP:          make([]float64, h),
		Growth:       make([]float64, h),
		Wages:        make([]float64, h),
		Inflation:    make([]float64, h),
		InterestRate: make([]float64, h),
		Elasticity:   make([]float64, h),
		HealthFactor: make([]float64, h),
		Longevity:    make([]float64, h),
	}

	zg := s.Factor(domain.FactorGDPGrowth)
	zi := s.Factor(domain.FactorInflation)
	zr := s.Factor(domain.FactorInterestRate)
	zl := s.Factor(domain.FactorLongevity)
	ze := s.Factor(domain.FactorRevenueElasticity)
	zh := s.Factor(domain.FactorHealthCostGrowth)

	prevGDP := a.baseGDP
	health, longevity := 1.0, 1.0
	for t := 0; t < h; t++ {
		g, clamped := floorAt(a.growthMean+a.growthSD*zg[t], MinGrowthRate)
		if clamped {
			guards.Add(GuardGrowthFloor, 1)
		}
		m.Growth[t] = g
		m.GDP[t] = prevGDP * (1 + g)
		m.Wages[t] = m.GDP[t] * a.wageShare
		prevGDP = m.GDP[t]

		m.Inflation[t] = a.inflMean + a.inflSD*zi[t]

		r := a.rateMean + a.rateSD*zr[t] + a.passthrough*(m.Inflation[t]-a.inflMean)
		if r, clamped = floorAt(r, MinInterestRate); clamped {
			guards.Add(GuardRateFloor, 1)
		}
		m.InterestRate[t] = r

		m.Elasticity[t] = a.elastMean + a.elastSD*ze[t]

		step, clampedH := floorAt(a.healthExcess+a.healthSD*zh[t], minFactorStep)
		health *= 1 + step
		m.HealthFactor[t] = health

		lstep, clampedL := floorAt(a.longevitySD*zl[t], minFactorStep)
		longevity *= 1 + lstep
		m.Longevity[t] = longevity

		if clampedH || clampedL {
			guards.Add(GuardCostFactor, 1)
		}
	}
	return m
}
