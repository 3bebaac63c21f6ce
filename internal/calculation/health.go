package calculation

import (
	"fmt"

	"github.com/rpgo/fiscal-projection/internal/domain"
)

// HealthSpending is the health-system share of outlays, in billions per year.
type HealthSpending struct {
	HIOutgo  []float64 // scheduled Medicare Part A outgo, financed by the HI trust fund
	Medicare []float64 // general-fund Medicare (SMI, or the single-payer program)
	Medicaid []float64
	Other    []float64 // other mandatory health outlays such as marketplace subsidies
}

// HealthRevenue is revenue raised by the health system itself.
type HealthRevenue struct {
	Payroll    []float64
	Individual []float64
	Other      []float64
}

// HealthModel is the capability set each policy kind provides. Adding a health
// system means adding a kind to the domain schema and an implementation here.
type HealthModel interface {
	Kind() domain.PolicyKind
	ProjectSpending(path *MacroPath) HealthSpending
	ProjectRevenue(path *MacroPath) HealthRevenue
}

// NewHealthModel selects the implementation for the parameter set's kind.
func NewHealthModel(ps *domain.PolicyParameterSet) (HealthModel, error) {
	return healthModelFor(newAssumptions(ps))
}

func healthModelFor(a *assumptions) (HealthModel, error) {
	switch a.kind {
	case domain.KindCurrentLaw:
		return currentLawHealth{a: a}, nil
	case domain.KindPublicOption:
		return publicOptionHealth{a: a}, nil
	case domain.KindSinglePayer:
		return singlePayerHealth{a: a}, nil
	default:
		return nil, fmt.Errorf("health model for %q: %w", a.kind, domain.ErrUnknownPolicy)
	}
}

func newHealthSpending(h int) HealthSpending {
	return HealthSpending{
		HIOutgo:  make([]float64, h),
		Medicare: make([]float64, h),
		Medicaid: make([]float64, h),
		Other:    make([]float64, h),
	}
}

func newHealthRevenue(h int) HealthRevenue {
	return HealthRevenue{
		Payroll:    make([]float64, h),
		Individual: make([]float64, h),
		Other:      make([]float64, h),
	}
}

// currentLawHealth is Medicare Parts A/B/D plus federal Medicaid.
type currentLawHealth struct{ a *assumptions }

func (currentLawHealth) Kind() domain.PolicyKind { return domain.KindCurrentLaw }

func (m currentLawHealth) ProjectSpending(path *MacroPath) HealthSpending {
	out := newHealthSpending(path.Horizon())
	for t, gdp := range path.GDP {
		cost := gdp * path.HealthFactor[t]
		out.HIOutgo[t] = cost * m.a.hiCost
		out.Medicare[t] = cost * m.a.smiCost
		out.Medicaid[t] = cost * m.a.medicaidShare
	}
	return out
}

func (m currentLawHealth) ProjectRevenue(path *MacroPath) HealthRevenue {
	return newHealthRevenue(path.Horizon())
}

// publicOptionHealth keeps current law and adds a government plan that lowers
// federal program prices in proportion to enrollment.
type publicOptionHealth struct{ a *assumptions }

func (publicOptionHealth) Kind() domain.PolicyKind { return domain.KindPublicOption }

func (m publicOptionHealth) ProjectSpending(path *MacroPath) HealthSpending {
	enroll := m.a.param(domain.ParamPublicOptionEnrollment)
	savings := 1 - enroll*m.a.param(domain.ParamPublicOptionSavings)
	subsidy := m.a.param(domain.ParamPublicOptionSubsidy) * enroll

	out := newHealthSpending(path.Horizon())
	for t, gdp := range path.GDP {
		cost := gdp * path.HealthFactor[t]
		out.HIOutgo[t] = cost * m.a.hiCost
		out.Medicare[t] = cost * m.a.smiCost * savings
		out.Medicaid[t] = cost * m.a.medicaidShare * savings
		out.Other[t] = cost * subsidy
	}
	return out
}

func (m publicOptionHealth) ProjectRevenue(path *MacroPath) HealthRevenue {
	premium := m.a.param(domain.ParamPublicOptionPremium) * m.a.param(domain.ParamPublicOptionEnrollment)
	out := newHealthRevenue(path.Horizon())
	for t, gdp := range path.GDP {
		out.Other[t] = gdp * path.HealthFactor[t] * premium
	}
	return out
}

// singlePayerHealth replaces SMI and Medicaid with one federally financed
// program. Part A stays on the HI trust fund.
type singlePayerHealth struct{ a *assumptions }

func (singlePayerHealth) Kind() domain.PolicyKind { return domain.KindSinglePayer }

func (m singlePayerHealth) ProjectSpending(path *MacroPath) HealthSpending {
	share := m.a.param(domain.ParamSinglePayerCostShare) - m.a.hiCost
	if share < 0 {
		share = 0
	}
	admin := 1 - m.a.param(domain.ParamSinglePayerAdminSavings)

	out := newHealthSpending(path.Horizon())
	for t, gdp := range path.GDP {
		cost := gdp * path.HealthFactor[t]
		out.HIOutgo[t] = cost * m.a.hiCost
		out.Medicare[t] = cost * share * admin
	}
	return out
}

func (m singlePayerHealth) ProjectRevenue(path *MacroPath) HealthRevenue {
	payroll := m.a.param(domain.ParamSinglePayerPayrollSurtax)
	income := m.a.param(domain.ParamSinglePayerIncomeSurtax)
	out := newHealthRevenue(path.Horizon())
	for t, gdp := range path.GDP {
		out.Payroll[t] = path.Wages[t] * payroll
		out.Individual[t] = gdp * income
	}
	return out
}
