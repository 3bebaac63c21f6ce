package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Parameter names shared by every policy kind.
const (
	ParamBaseGDP             = "base_gdp"
	ParamGDPGrowthMean       = "gdp_growth_mean"
	ParamGDPGrowthSD         = "gdp_growth_sd"
	ParamInflationMean       = "inflation_mean"
	ParamInflationSD         = "inflation_sd"
	ParamInterestRateMean    = "interest_rate_mean"
	ParamInterestRateSD      = "interest_rate_sd"
	ParamInterestPassthrough = "interest_inflation_passthrough"
	ParamWageShare           = "wage_share"

	ParamIndividualTaxRate    = "individual_income_tax_rate"
	ParamElasticityMean       = "revenue_elasticity_mean"
	ParamElasticitySD         = "revenue_elasticity_sd"
	ParamCorporateTaxRate     = "corporate_tax_rate"
	ParamCorporateCyclicality = "corporate_cyclicality"
	ParamOtherRevenueShare    = "other_revenue_share"
	ParamPayrollTaxRate       = "payroll_tax_rate"
	ParamPayrollTaxCap        = "payroll_tax_cap"
	ParamPayrollCapReference  = "payroll_cap_reference"
	ParamUncoveredEarnings    = "uncovered_earnings_share"
	ParamEarningsParetoAlpha  = "earnings_pareto_alpha"
	ParamOASIPayrollShare     = "oasi_payroll_share"
	ParamHIPayrollTaxRate     = "hi_payroll_tax_rate"
	ParamBenefitTaxationRate  = "benefit_taxation_rate"

	ParamDiscretionaryShare     = "discretionary_share"
	ParamDiscretionaryGrowth    = "discretionary_real_growth"
	ParamDiscretionaryIndexing  = "discretionary_inflation_indexing"
	ParamOtherMandatoryShare    = "other_mandatory_share"
	ParamOASICostShare          = "oasi_cost_share"
	ParamDICostShare            = "di_cost_share"
	ParamSSCostGrowth           = "ss_cost_growth"
	ParamCOLAAdjustment         = "cola_adjustment"
	ParamLongevitySD            = "longevity_sd"
	ParamHICostShare            = "hi_cost_share"
	ParamSMICostShare           = "smi_cost_share"
	ParamMedicaidShare          = "medicaid_share"
	ParamHealthExcessCostGrowth = "health_excess_cost_growth"
	ParamHealthCostSD           = "health_cost_sd"

	ParamOASIInitialBalance = "oasi_initial_balance"
	ParamDIInitialBalance   = "di_initial_balance"
	ParamHIInitialBalance   = "hi_initial_balance"
	ParamTrustFundRate      = "trust_fund_rate"
	ParamInitialDebt        = "initial_debt"
)

// Parameter names contributed by specific policy kinds.
const (
	ParamPublicOptionEnrollment = "public_option_enrollment"
	ParamPublicOptionSavings    = "public_option_savings"
	ParamPublicOptionSubsidy    = "public_option_subsidy_share"
	ParamPublicOptionPremium    = "public_option_premium_share"

	ParamSinglePayerCostShare     = "single_payer_cost_share"
	ParamSinglePayerAdminSavings  = "single_payer_admin_savings"
	ParamSinglePayerPayrollSurtax = "single_payer_payroll_surtax"
	ParamSinglePayerIncomeSurtax  = "single_payer_income_surtax"
)

func spec(name string, unit Unit, def, min, max, step, desc string) ParameterSpec {
	return ParameterSpec{
		Name:        name,
		Unit:        unit,
		Default:     decimal.RequireFromString(def),
		Min:         decimal.RequireFromString(min),
		Max:         decimal.RequireFromString(max),
		Step:        decimal.RequireFromString(step),
		Description: desc,
	}
}

// commonSchema is declared once; order matters for sensitivity tie-breaking.
var commonSchema = []ParameterSpec{
	spec(ParamBaseGDP, UnitBillions, "28200", "1000", "500000", "0", "GDP in the base year"),
	spec(ParamGDPGrowthMean, UnitRate, "0.018", "-0.05", "0.08", "0.0025", "mean real GDP growth"),
	spec(ParamGDPGrowthSD, UnitRate, "0.015", "0", "0.1", "0", "standard deviation of real GDP growth"),
	spec(ParamInflationMean, UnitRate, "0.025", "-0.05", "0.2", "0.0025", "mean CPI inflation"),
	spec(ParamInflationSD, UnitRate, "0.01", "0", "0.1", "0", "standard deviation of inflation"),
	spec(ParamInterestRateMean, UnitRate, "0.02", "-0.05", "0.15", "0.0025", "mean real effective interest rate on public debt"),
	spec(ParamInterestRateSD, UnitRate, "0.006", "0", "0.1", "0", "standard deviation of the real interest rate"),
	spec(ParamInterestPassthrough, UnitRatio, "0.2", "0", "1", "0", "real-rate response to inflation surprises"),
	spec(ParamWageShare, UnitShare, "0.43", "0.2", "0.7", "0", "wages and salaries as a share of GDP"),

	spec(ParamIndividualTaxRate, UnitShare, "0.089", "0", "0.3", "0.005", "individual income tax receipts as a share of GDP"),
	spec(ParamElasticityMean, UnitRatio, "1.2", "0", "3", "0.1", "mean elasticity of income tax receipts to GDP"),
	spec(ParamElasticitySD, UnitRatio, "0.2", "0", "1", "0", "standard deviation of the revenue elasticity"),
	spec(ParamCorporateTaxRate, UnitShare, "0.017", "0", "0.1", "0.0025", "corporate income tax receipts as a share of GDP"),
	spec(ParamCorporateCyclicality, UnitRatio, "3", "0", "10", "0", "corporate receipts response to growth deviations"),
	spec(ParamOtherRevenueShare, UnitShare, "0.021", "0", "0.1", "0.0025", "excise, customs, estate and other receipts as a share of GDP"),
	spec(ParamPayrollTaxRate, UnitRate, "0.124", "0", "0.3", "0.005", "combined OASDI payroll tax rate"),
	spec(ParamPayrollTaxCap, UnitDollars, "168600", "50000", "10000000", "10000", "OASDI taxable maximum per worker"),
	spec(ParamPayrollCapReference, UnitDollars, "168600", "50000", "10000000", "0", "taxable maximum at which uncovered_earnings_share is measured"),
	spec(ParamUncoveredEarnings, UnitShare, "0.17", "0", "0.5", "0", "share of wages above the reference taxable maximum"),
	spec(ParamEarningsParetoAlpha, UnitRatio, "2", "1.1", "5", "0", "Pareto tail index of the earnings distribution"),
	spec(ParamOASIPayrollShare, UnitShare, "0.8548", "0", "1", "0", "share of OASDI payroll tax credited to OASI"),
	spec(ParamHIPayrollTaxRate, UnitRate, "0.029", "0", "0.1", "0.002", "Medicare HI payroll tax rate on all wages"),
	spec(ParamBenefitTaxationRate, UnitRate, "0.04", "0", "0.2", "0", "income tax on benefits credited to the funds, as a share of outgo"),

	spec(ParamDiscretionaryShare, UnitShare, "0.063", "0", "0.2", "0.0025", "discretionary outlays as a share of base-year GDP"),
	spec(ParamDiscretionaryGrowth, UnitRate, "0.01", "-0.1", "0.1", "0", "real growth of discretionary appropriations"),
	spec(ParamDiscretionaryIndexing, UnitShare, "1", "0", "1", "0", "fraction of discretionary spending indexed to inflation"),
	spec(ParamOtherMandatoryShare, UnitShare, "0.04", "0", "0.2", "0.0025", "other mandatory outlays as a share of GDP"),
	spec(ParamOASICostShare, UnitShare, "0.048", "0", "0.2", "0.001", "OASI scheduled benefits as a share of GDP in the base year"),
	spec(ParamDICostShare, UnitShare, "0.0052", "0", "0.05", "0", "DI scheduled benefits as a share of GDP in the base year"),
	spec(ParamSSCostGrowth, UnitRate, "0.015", "-0.05", "0.1", "0.001", "annual demographic growth of the Social Security cost rate"),
	spec(ParamCOLAAdjustment, UnitRate, "0", "-0.03", "0.03", "0.0025", "annual adjustment to benefit COLAs relative to CPI"),
	spec(ParamLongevitySD, UnitRate, "0.003", "0", "0.05", "0", "standard deviation of annual longevity improvement"),
	spec(ParamHICostShare, UnitShare, "0.013", "0", "0.1", "0.001", "Medicare HI outgo as a share of GDP in the base year"),
	spec(ParamSMICostShare, UnitShare, "0.017", "0", "0.1", "0.001", "Medicare SMI general-fund outlays as a share of GDP"),
	spec(ParamMedicaidShare, UnitShare, "0.019", "0", "0.1", "0.001", "federal Medicaid outlays as a share of GDP"),
	spec(ParamHealthExcessCostGrowth, UnitRate, "0.01", "-0.05", "0.1", "0.0025", "health cost growth in excess of GDP"),
	spec(ParamHealthCostSD, UnitRate, "0.008", "0", "0.1", "0", "standard deviation of excess health cost growth"),

	spec(ParamOASIInitialBalance, UnitBillions, "2538", "0", "50000", "0", "OASI trust fund balance at the start of the projection"),
	spec(ParamDIInitialBalance, UnitBillions, "150", "0", "10000", "0", "DI trust fund balance at the start of the projection"),
	spec(ParamHIInitialBalance, UnitBillions, "212", "0", "10000", "0", "HI trust fund balance at the start of the projection"),
	spec(ParamTrustFundRate, UnitRate, "0.024", "0", "0.15", "0.0025", "assumed interest rate on trust fund reserves"),
	spec(ParamInitialDebt, UnitBillions, "28200", "0", "1000000", "0", "debt held by the public at the start of the projection"),
}

var kindSchemas = map[PolicyKind][]ParameterSpec{
	KindCurrentLaw: nil,
	KindPublicOption: {
		spec(ParamPublicOptionEnrollment, UnitShare, "0.1", "0", "1", "0.05", "share of the non-elderly population enrolled in the public option"),
		spec(ParamPublicOptionSavings, UnitRate, "0.15", "0", "0.6", "0.01", "price savings on federal health programs at full enrollment"),
		spec(ParamPublicOptionSubsidy, UnitShare, "0.03", "0", "0.2", "0.005", "federal subsidy cost as a share of GDP at full enrollment"),
		spec(ParamPublicOptionPremium, UnitShare, "0.012", "0", "0.1", "0", "premium receipts as a share of GDP at full enrollment"),
	},
	KindSinglePayer: {
		spec(ParamSinglePayerCostShare, UnitShare, "0.165", "0", "0.3", "0.005", "federally financed national health spending as a share of GDP"),
		spec(ParamSinglePayerAdminSavings, UnitRate, "0.08", "0", "0.4", "0.01", "administrative savings relative to the current system"),
		spec(ParamSinglePayerPayrollSurtax, UnitRate, "0.075", "0", "0.3", "0.005", "payroll surtax on all wages"),
		spec(ParamSinglePayerIncomeSurtax, UnitShare, "0.04", "0", "0.2", "0.005", "additional income tax receipts as a share of GDP"),
	},
}

// SchemaFor returns the ordered schema for kind: common parameters followed by
// the kind's own declarations.
func SchemaFor(kind PolicyKind) ([]ParameterSpec, error) {
	extra, ok := kindSchemas[kind]
	if !ok {
		return nil, fmt.Errorf("policy kind %q: %w", kind, ErrUnknownPolicy)
	}
	out := make([]ParameterSpec, 0, len(commonSchema)+len(extra))
	out = append(out, commonSchema...)
	out = append(out, extra...)
	return out, nil
}
