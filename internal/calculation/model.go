package calculation

import (
	"fmt"

	"github.com/rpgo/fiscal-projection/internal/domain"
)

// Model projects one iteration for a resolved parameter set. It holds no
// mutable state, so one Model is shared by all workers of a run.
type Model struct {
	a           *assumptions
	health      HealthModel
	guard       Guard
	baseRevenue float64
}

// NewModel converts params to model units and selects the health system.
func NewModel(params *domain.PolicyParameterSet, guard Guard) (*Model, error) {
	if params == nil {
		return nil, fmt.Errorf("model: parameter set is nil")
	}
	a := newAssumptions(params)
	health, err := healthModelFor(a)
	if err != nil {
		return nil, err
	}
	m := &Model{a: a, health: health, guard: guard}
	m.baseRevenue = m.baseYearRevenue()
	return m, nil
}

// Health returns the health-system variant in use.
func (m *Model) Health() HealthModel { return m.health }

// Macro derives the shared macro drivers for one shock vector.
func (m *Model) Macro(s *domain.ShockVector, guards domain.GuardSummary) *MacroPath {
	return buildMacro(m.a, s, guards)
}

// Run projects one iteration. Revenue and scheduled spending come from one
// MacroPath. The year loop then steps the trust funds, caps benefits after
// depletion, and charges interest on the previous year's debt, so debt feeds
// back into next year's spending.
func (m *Model) Run(s *domain.ShockVector) *domain.IterationResult {
	guards := domain.GuardSummary{}
	path := m.Macro(s, guards)
	rev := m.ProjectRevenue(path, guards)
	sp := m.ProjectSpending(path)

	h := path.Horizon()
	series := make([]domain.YearSeries, domain.NumQuantities())
	for i := range series {
		series[i] = make(domain.YearSeries, h)
	}
	set := func(q domain.Quantity, t int, v float64) { series[q.Index()][t] = v }

	a := m.a
	oasi := NewTrustFund(domain.FundOASI, a.oasiBalance)
	di := NewTrustFund(domain.FundDI, a.diBalance)
	hi := NewTrustFund(domain.FundHI, a.hiBalance)

	debt := a.initialDebt
	for t := 0; t < h; t++ {
		year := t + 1

		oasiPaid := oasi.Step(year, rev.OASIPayroll[t]+a.benefitTaxation*sp.OASIOutgo[t], sp.OASIOutgo[t], a.trustFundRate)
		diPaid := di.Step(year, rev.DIPayroll[t]+a.benefitTaxation*sp.DIOutgo[t], sp.DIOutgo[t], a.trustFundRate)
		hiPaid := hi.Step(year, rev.HIPayroll[t], sp.HIOutgo[t], a.trustFundRate)

		interest := debt * path.InterestRate[t]
		socialSecurity := oasiPaid + diPaid
		medicare := hiPaid + sp.Medicare[t]
		spending := sp.Discretionary[t] + socialSecurity + medicare + sp.Medicaid[t] + sp.OtherMandatory[t] + interest
		deficit := spending - rev.Total[t]
		debt += deficit
		gdp := path.GDP[t]

		set(domain.QRevenueTotal, t, rev.Total[t])
		set(domain.QRevenueIndividual, t, rev.Individual[t])
		set(domain.QRevenuePayroll, t, rev.Payroll[t])
		set(domain.QRevenueCorporate, t, rev.Corporate[t])
		set(domain.QRevenueOther, t, rev.Other[t])
		set(domain.QSpendingTotal, t, spending)
		set(domain.QSpendingDiscretionary, t, sp.Discretionary[t])
		set(domain.QSpendingSocialSecurity, t, socialSecurity)
		set(domain.QSpendingMedicare, t, medicare)
		set(domain.QSpendingMedicaid, t, sp.Medicaid[t])
		set(domain.QSpendingOtherMandatory, t, sp.OtherMandatory[t])
		set(domain.QSpendingNetInterest, t, interest)
		set(domain.QDeficit, t, deficit)
		set(domain.QDebt, t, debt)
		set(domain.QGDP, t, gdp)
		set(domain.QDebtToGDP, t, m.ratio(debt, gdp, guards))
		set(domain.QDeficitToGDP, t, m.ratio(deficit, gdp, guards))
		set(domain.QRevenueToGDP, t, m.ratio(rev.Total[t], gdp, guards))
		set(domain.QSpendingToGDP, t, m.ratio(spending, gdp, guards))
		set(domain.QRevenueBuoyancy, t, rev.Buoyancy[t])

		for _, f := range []struct {
			tf        *TrustFund
			paid, due float64
		}{{oasi, oasiPaid, sp.OASIOutgo[t]}, {di, diPaid, sp.DIOutgo[t]}, {hi, hiPaid, sp.HIOutgo[t]}} {
			st := f.tf.State()
			set(st.Fund.BalanceQuantity(), t, st.Balance)
			ratio, guarded := SafeDiv(f.paid, f.due, m.guard.Epsilon, 1)
			if guarded {
				guards.Add(GuardPayable, 1)
			}
			set(st.Fund.PayableQuantity(), t, ratio)
		}
	}

	return &domain.IterationResult{
		Index:  s.Iteration,
		Series: series,
		Funds:  []domain.TrustFundState{oasi.State(), di.State(), hi.State()},
		Shocks: s,
		Guards: guards,
	}
}

func (m *Model) ratio(num, gdp float64, guards domain.GuardSummary) float64 {
	v, guarded := m.guard.Div(num, gdp)
	if guarded {
		guards.Add(GuardRatio, 1)
	}
	return v
}
