package domain

// Quantity names a tracked per-year series.
type Quantity string

const (
	QRevenueTotal      Quantity = "revenue_total"
	QRevenueIndividual Quantity = "revenue_individual"
	QRevenuePayroll    Quantity = "revenue_payroll"
	QRevenueCorporate  Quantity = "revenue_corporate"
	QRevenueOther      Quantity = "revenue_other"

	QSpendingTotal          Quantity = "spending_total"
	QSpendingDiscretionary  Quantity = "spending_discretionary"
	QSpendingSocialSecurity Quantity = "spending_social_security"
	QSpendingMedicare       Quantity = "spending_medicare"
	QSpendingMedicaid       Quantity = "spending_medicaid"
	QSpendingOtherMandatory Quantity = "spending_other_mandatory"
	QSpendingNetInterest    Quantity = "spending_net_interest"

	QDeficit         Quantity = "deficit"
	QDebt            Quantity = "debt"
	QGDP             Quantity = "gdp"
	QDebtToGDP       Quantity = "debt_to_gdp"
	QDeficitToGDP    Quantity = "deficit_to_gdp"
	QRevenueToGDP    Quantity = "revenue_to_gdp"
	QSpendingToGDP   Quantity = "spending_to_gdp"
	QRevenueBuoyancy Quantity = "revenue_buoyancy"

	QOASIBalance Quantity = "tf_oasi_balance"
	QDIBalance   Quantity = "tf_di_balance"
	QHIBalance   Quantity = "tf_hi_balance"
	QOASIPayable Quantity = "tf_oasi_payable_ratio"
	QDIPayable   Quantity = "tf_di_payable_ratio"
	QHIPayable   Quantity = "tf_hi_payable_ratio"
)

var allQuantities = []Quantity{
	QRevenueTotal, QRevenueIndividual, QRevenuePayroll, QRevenueCorporate, QRevenueOther,
	QSpendingTotal, QSpendingDiscretionary, QSpendingSocialSecurity, QSpendingMedicare,
	QSpendingMedicaid, QSpendingOtherMandatory, QSpendingNetInterest,
	QDeficit, QDebt, QGDP, QDebtToGDP, QDeficitToGDP, QRevenueToGDP, QSpendingToGDP, QRevenueBuoyancy,
	QOASIBalance, QDIBalance, QHIBalance, QOASIPayable, QDIPayable, QHIPayable,
}

var quantityIndex = func() map[Quantity]int {
	m := make(map[Quantity]int, len(allQuantities))
	for i, q := range allQuantities {
		m[q] = i
	}
	return m
}()

// AllQuantities returns every tracked quantity in canonical order.
func AllQuantities() []Quantity { return append([]Quantity(nil), allQuantities...) }

// NumQuantities is the number of tracked quantities.
func NumQuantities() int { return len(allQuantities) }

// Index returns the canonical position of q, or -1 if q is not tracked.
func (q Quantity) Index() int {
	if i, ok := quantityIndex[q]; ok {
		return i
	}
	return -1
}

// Fund identifies an entitlement trust fund.
type Fund string

const (
	FundOASI Fund = "oasi"
	FundDI   Fund = "di"
	FundHI   Fund = "hi"
)

// AllFunds returns the modelled trust funds in canonical order.
func AllFunds() []Fund { return []Fund{FundOASI, FundDI, FundHI} }

// BalanceQuantity is the tracked series holding the fund's end-of-year balance.
func (f Fund) BalanceQuantity() Quantity {
	switch f {
	case FundOASI:
		return QOASIBalance
	case FundDI:
		return QDIBalance
	default:
		return QHIBalance
	}
}

// PayableQuantity is the tracked series holding paid/scheduled outgo.
func (f Fund) PayableQuantity() Quantity {
	switch f {
	case FundOASI:
		return QOASIPayable
	case FundDI:
		return QDIPayable
	default:
		return QHIPayable
	}
}

// Factor identifies a stochastic macro or demographic driver.
type Factor string

const (
	FactorGDPGrowth         Factor = "gdp_growth"
	FactorInflation         Factor = "inflation"
	FactorInterestRate      Factor = "interest_rate"
	FactorLongevity         Factor = "longevity"
	FactorRevenueElasticity Factor = "revenue_elasticity"
	FactorHealthCostGrowth  Factor = "health_cost_growth"
)

var allFactors = []Factor{
	FactorGDPGrowth, FactorInflation, FactorInterestRate,
	FactorLongevity, FactorRevenueElasticity, FactorHealthCostGrowth,
}

// AllFactors returns the stochastic factors in canonical order; shock vectors
// are indexed in this order.
func AllFactors() []Factor { return append([]Factor(nil), allFactors...) }

// NumFactors is the number of stochastic factors.
func NumFactors() int { return len(allFactors) }

// Index returns the canonical position of f, or -1.
func (f Factor) Index() int {
	for i, g := range allFactors {
		if g == f {
			return i
		}
	}
	return -1
}
