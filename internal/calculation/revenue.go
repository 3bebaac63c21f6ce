package calculation

import (
	"math"

	"github.com/rpgo/fiscal-projection/internal/domain"
)

// RevenueProjection holds per-year receipts in billions of real dollars.
// OASIPayroll, DIPayroll and HIPayroll are the earmarked parts of Payroll.
type RevenueProjection struct {
	Individual  []float64
	Payroll     []float64
	Corporate   []float64
	Other       []float64
	Total       []float64
	OASIPayroll []float64
	DIPayroll   []float64
	HIPayroll   []float64
	Buoyancy    []float64
}

// TaxableShare is the share of wages below the payroll tax cap. Earnings above
// the reference cap follow a Pareto tail, so the uncovered share scales with
// (capRef/cap)^(alpha-1).
func TaxableShare(cap, capRef, uncoveredAtRef, alpha float64) (float64, bool) {
	if cap <= 0 {
		return 0, true
	}
	share := 1 - uncoveredAtRef*math.Pow(capRef/cap, alpha-1)
	switch {
	case share < 0:
		return 0, true
	case share > 1:
		return 1, true
	}
	return share, false
}

type revenueYear struct {
	individual, payroll, corporate, other float64
	oasi, di, hi                          float64
}

func (r revenueYear) total() float64 {
	return r.individual + r.payroll + r.corporate + r.other
}

func (a *assumptions) revenueFor(gdp, wages, growth, elasticity, taxable float64, health HealthRevenue, t int) revenueYear {
	dev := growth - a.growthMean
	ind := gdp * a.indRate * (1 + (elasticity-1)*dev)
	corp := gdp * a.corpRate * (1 + a.corpCyclicality*dev)

	oasdi := wages * taxable * a.payrollRate
	oasi := oasdi * a.oasiPayrollShare
	hi := wages * a.hiPayrollRate

	return revenueYear{
		individual: math.Max(ind, 0) + health.Individual[t],
		payroll:    oasdi + hi + health.Payroll[t],
		corporate:  math.Max(corp, 0),
		other:      gdp*a.otherRevenue + health.Other[t],
		oasi:       oasi,
		di:         oasdi - oasi,
		hi:         hi,
	}
}

// ProjectRevenue computes receipts for every year of path. Buoyancy is the
// percentage change in total revenue over GDP growth, using the safe-division
// policy so zero growth yields the configured fallback.
func (m *Model) ProjectRevenue(path *MacroPath, guards domain.GuardSummary) *RevenueProjection {
	h := path.Horizon()
	out := &RevenueProjection{
		Individual:  make([]float64, h),
		Payroll:     make([]float64, h),
		Corporate:   make([]float64, h),
		Other:       make([]float64, h),
		Total:       make([]float64, h),
		OASIPayroll: make([]float64, h),
		DIPayroll:   make([]float64, h),
		HIPayroll:   make([]float64, h),
		Buoyancy:    make([]float64, h),
	}

	a := m.a
	taxable, clamped := TaxableShare(a.payrollCap, a.capRef, a.uncovered, a.paretoAlpha)
	if clamped {
		guards.Add(GuardTaxableShare, 1)
	}
	health := m.health.ProjectRevenue(path)

	prev := m.baseRevenue
	for t := 0; t < h; t++ {
		y := a.revenueFor(path.GDP[t], path.Wages[t], path.Growth[t], path.Elasticity[t], taxable, health, t)
		out.Individual[t] = y.individual
		out.Payroll[t] = y.payroll
		out.Corporate[t] = y.corporate
		out.Other[t] = y.other
		out.Total[t] = y.total()
		out.OASIPayroll[t] = y.oasi
		out.DIPayroll[t] = y.di
		out.HIPayroll[t] = y.hi

		pct, _ := m.guard.Div(out.Total[t]-prev, prev)
		b, guarded := m.guard.Div(pct, path.Growth[t])
		if guarded {
			guards.Add(GuardBuoyancy, 1)
		}
		out.Buoyancy[t] = b
		prev = out.Total[t]
	}
	return out
}

// baseYearRevenue is total revenue in the base year with every driver at its mean.
func (m *Model) baseYearRevenue() float64 {
	a := m.a
	base := &MacroPath{
		GDP:          []float64{a.baseGDP},
		Growth:       []float64{a.growthMean},
		Wages:        []float64{a.baseGDP * a.wageShare},
		Inflation:    []float64{a.inflMean},
		InterestRate: []float64{a.rateMean},
		Elasticity:   []float64{a.elastMean},
		HealthFactor: []float64{1},
		Longevity:    []float64{1},
	}
	taxable, _ := TaxableShare(a.payrollCap, a.capRef, a.uncovered, a.paretoAlpha)
	return a.revenueFor(a.baseGDP, base.Wages[0], a.growthMean, a.elastMean, taxable, m.health.ProjectRevenue(base), 0).total()
}
