package calculation

import (
	"testing"

	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/rpgo/fiscal-projection/internal/shock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paramsFor(t *testing.T, kind domain.PolicyKind) *domain.PolicyParameterSet {
	t.Helper()
	ps, err := domain.NewParameterSet(kind, nil)
	require.NoError(t, err)
	return ps
}

func shockAt(t *testing.T, horizon int, seed uint64, i int) *domain.ShockVector {
	t.Helper()
	gen, err := shock.New(shock.DefaultModel(), horizon, &seed)
	require.NoError(t, err)
	return gen.At(i)
}

func TestModel_BudgetIdentitiesAndInterestFeedback(t *testing.T) {
	params := paramsFor(t, domain.KindCurrentLaw)
	model, err := NewModel(params, DefaultGuard())
	require.NoError(t, err)
	s := shockAt(t, 15, 42, 3)

	r := model.Run(s)
	path := model.Macro(s, domain.GuardSummary{})

	prevDebt := params.Float(domain.ParamInitialDebt)
	for ti := 0; ti < 15; ti++ {
		revenue := r.Get(domain.QRevenueTotal)[ti]
		spending := r.Get(domain.QSpendingTotal)[ti]
		deficit := r.Get(domain.QDeficit)[ti]
		debt := r.Get(domain.QDebt)[ti]
		gdp := r.Get(domain.QGDP)[ti]

		assert.InDelta(t, spending-revenue, deficit, 1e-6, "deficit year %d", ti)
		assert.InDelta(t, prevDebt+deficit, debt, 1e-6, "debt year %d", ti)
		assert.InDelta(t, prevDebt*path.InterestRate[ti], r.Get(domain.QSpendingNetInterest)[ti], 1e-6, "interest year %d", ti)
		assert.InDelta(t, debt/gdp, r.Get(domain.QDebtToGDP)[ti], 1e-12)

		parts := r.Get(domain.QSpendingDiscretionary)[ti] + r.Get(domain.QSpendingSocialSecurity)[ti] +
			r.Get(domain.QSpendingMedicare)[ti] + r.Get(domain.QSpendingMedicaid)[ti] +
			r.Get(domain.QSpendingOtherMandatory)[ti] + r.Get(domain.QSpendingNetInterest)[ti]
		assert.InDelta(t, spending, parts, 1e-6)

		rparts := r.Get(domain.QRevenueIndividual)[ti] + r.Get(domain.QRevenuePayroll)[ti] +
			r.Get(domain.QRevenueCorporate)[ti] + r.Get(domain.QRevenueOther)[ti]
		assert.InDelta(t, revenue, rparts, 1e-6)
		prevDebt = debt
	}
}

func TestModel_DebtFeedsNextYearInterest(t *testing.T) {
	low := paramsFor(t, domain.KindCurrentLaw)
	high, err := low.With(map[string]decimal.Decimal{domain.ParamInitialDebt: decimal.RequireFromString("40000")})
	require.NoError(t, err)

	s := shockAt(t, 10, 7, 0)
	mLow, err := NewModel(low, DefaultGuard())
	require.NoError(t, err)
	mHigh, err := NewModel(high, DefaultGuard())
	require.NoError(t, err)
	rl, rh := mLow.Run(s), mHigh.Run(s)
	rates := mLow.Macro(s, domain.GuardSummary{}).InterestRate

	prevL, prevH := 28200.0, 40000.0
	for ti := 0; ti < 10; ti++ {
		gap := rh.Get(domain.QSpendingNetInterest)[ti] - rl.Get(domain.QSpendingNetInterest)[ti]
		assert.InDelta(t, (prevH-prevL)*rates[ti], gap, 1e-6, "year %d", ti)
		assert.Greater(t, rh.Get(domain.QDebt)[ti], rl.Get(domain.QDebt)[ti])
		prevL, prevH = rl.Get(domain.QDebt)[ti], rh.Get(domain.QDebt)[ti]
	}
	// Revenue does not depend on debt.
	assert.Equal(t, rl.Get(domain.QRevenueTotal), rh.Get(domain.QRevenueTotal))
}

func TestModel_TrustFundsNeverNegative(t *testing.T) {
	model, err := NewModel(paramsFor(t, domain.KindCurrentLaw), DefaultGuard())
	require.NoError(t, err)
	gen, err := shock.New(shock.DefaultModel(), 30, seedPtr(11))
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		r := model.Run(gen.At(i))
		for fi, f := range domain.AllFunds() {
			st := r.Funds[fi]
			assert.Equal(t, f, st.Fund)
			for ti, b := range r.Get(f.BalanceQuantity()) {
				assert.GreaterOrEqual(t, b, 0.0, "%s year %d", f, ti)
			}
			for ti, p := range r.Get(f.PayableQuantity()) {
				assert.LessOrEqual(t, p, 1.0+1e-12, "%s year %d", f, ti)
				if st.DepletionYear == nil || ti+1 < *st.DepletionYear {
					assert.Equal(t, 1.0, p, "%s year %d before depletion", f, ti)
				}
			}
		}
	}
}

func TestModel_BaselineOASIDepletesWithinThirtyYears(t *testing.T) {
	model, err := NewModel(paramsFor(t, domain.KindCurrentLaw), DefaultGuard())
	require.NoError(t, err)
	r := model.Run(shockAt(t, 30, 1, 0))
	st := r.Funds[0]
	require.Equal(t, domain.FundOASI, st.Fund)
	require.NotNil(t, st.DepletionYear)
	assert.Less(t, *st.DepletionYear, 15)
}

func TestModel_SharedMacroDrivers(t *testing.T) {
	// A deep recession draw must reduce GDP and every GDP-linked receipt together.
	model, err := NewModel(paramsFor(t, domain.KindCurrentLaw), DefaultGuard())
	require.NoError(t, err)

	h := 3
	neutral := &domain.ShockVector{Draws: make([][]float64, domain.NumFactors())}
	recession := &domain.ShockVector{Draws: make([][]float64, domain.NumFactors())}
	for f := range neutral.Draws {
		neutral.Draws[f] = make([]float64, h)
		recession.Draws[f] = make([]float64, h)
	}
	for ti := 0; ti < h; ti++ {
		recession.Draws[domain.FactorGDPGrowth.Index()][ti] = -3
		recession.Draws[domain.FactorRevenueElasticity.Index()][ti] = -2
	}

	rn, rr := model.Run(neutral), model.Run(recession)
	for _, q := range []domain.Quantity{domain.QGDP, domain.QRevenueIndividual, domain.QRevenuePayroll, domain.QRevenueCorporate, domain.QRevenueOther} {
		assert.Less(t, rr.Get(q)[0], rn.Get(q)[0], q)
	}
	assert.Greater(t, rr.Get(domain.QDeficitToGDP)[0], rn.Get(domain.QDeficitToGDP)[0])
}

func TestHealthModels(t *testing.T) {
	s := shockAt(t, 5, 9, 0)
	results := map[domain.PolicyKind]*domain.IterationResult{}
	for _, kind := range domain.PolicyKinds() {
		ps := paramsFor(t, kind)
		hm, err := NewHealthModel(ps)
		require.NoError(t, err)
		assert.Equal(t, kind, hm.Kind())

		model, err := NewModel(ps, DefaultGuard())
		require.NoError(t, err)
		results[kind] = model.Run(s)
	}

	cl, po, sp := results[domain.KindCurrentLaw], results[domain.KindPublicOption], results[domain.KindSinglePayer]
	assert.Less(t, po.Get(domain.QSpendingMedicaid)[0], cl.Get(domain.QSpendingMedicaid)[0])
	assert.Greater(t, po.Get(domain.QSpendingOtherMandatory)[0], cl.Get(domain.QSpendingOtherMandatory)[0])
	assert.Greater(t, po.Get(domain.QRevenueOther)[0], cl.Get(domain.QRevenueOther)[0])

	assert.Equal(t, 0.0, sp.Get(domain.QSpendingMedicaid)[0])
	assert.Greater(t, sp.Get(domain.QSpendingMedicare)[0], cl.Get(domain.QSpendingMedicare)[0])
	assert.Greater(t, sp.Get(domain.QRevenuePayroll)[0], cl.Get(domain.QRevenuePayroll)[0])
	assert.Greater(t, sp.Get(domain.QRevenueIndividual)[0], cl.Get(domain.QRevenueIndividual)[0])

	// Health kinds do not change the HI trust fund path.
	assert.Equal(t, cl.Get(domain.QHIBalance), sp.Get(domain.QHIBalance))
}
