package calculation

import (
	"github.com/rpgo/fiscal-projection/internal/domain"
)

// assumptions is the float view of a PolicyParameterSet. Conversion from
// decimal happens once here; everything downstream works in billions of real
// dollars or plain rates.
type assumptions struct {
	kind domain.PolicyKind

	baseGDP, growthMean, growthSD    float64
	inflMean, inflSD                 float64
	rateMean, rateSD, passthrough    float64
	wageShare                        float64
	indRate, elastMean, elastSD      float64
	corpRate, corpCyclicality        float64
	otherRevenue                     float64
	payrollRate, payrollCap, capRef  float64
	uncovered, paretoAlpha           float64
	oasiPayrollShare, hiPayrollRate  float64
	benefitTaxation                  float64
	discShare, discGrowth, discIndex float64
	otherMandatory                   float64
	oasiCost, diCost, ssCostGrowth   float64
	cola, longevitySD                float64
	hiCost, smiCost, medicaidShare   float64
	healthExcess, healthSD           float64
	oasiBalance, diBalance           float64
	hiBalance, trustFundRate         float64
	initialDebt                      float64

	values map[string]float64
}

func newAssumptions(ps *domain.PolicyParameterSet) *assumptions {
	a := &assumptions{
		kind:             ps.Kind(),
		baseGDP:          ps.Float(domain.ParamBaseGDP),
		growthMean:       ps.Float(domain.ParamGDPGrowthMean),
		growthSD:         ps.Float(domain.ParamGDPGrowthSD),
		inflMean:         ps.Float(domain.ParamInflationMean),
		inflSD:           ps.Float(domain.ParamInflationSD),
		rateMean:         ps.Float(domain.ParamInterestRateMean),
		rateSD:           ps.Float(domain.ParamInterestRateSD),
		passthrough:      ps.Float(domain.ParamInterestPassthrough),
		wageShare:        ps.Float(domain.ParamWageShare),
		indRate:          ps.Float(domain.ParamIndividualTaxRate),
		elastMean:        ps.Float(domain.ParamElasticityMean),
		elastSD:          ps.Float(domain.ParamElasticitySD),
		corpRate:         ps.Float(domain.ParamCorporateTaxRate),
		corpCyclicality:  ps.Float(domain.ParamCorporateCyclicality),
		otherRevenue:     ps.Float(domain.ParamOtherRevenueShare),
		payrollRate:      ps.Float(domain.ParamPayrollTaxRate),
		payrollCap:       ps.Float(domain.ParamPayrollTaxCap),
		capRef:           ps.Float(domain.ParamPayrollCapReference),
		uncovered:        ps.Float(domain.ParamUncoveredEarnings),
		paretoAlpha:      ps.Float(domain.ParamEarningsParetoAlpha),
		oasiPayrollShare: ps.Float(domain.ParamOASIPayrollShare),
		hiPayrollRate:    ps.Float(domain.ParamHIPayrollTaxRate),
		benefitTaxation:  ps.Float(domain.ParamBenefitTaxationRate),
		discShare:        ps.Float(domain.ParamDiscretionaryShare),
		discGrowth:       ps.Float(domain.ParamDiscretionaryGrowth),
		discIndex:        ps.Float(domain.ParamDiscretionaryIndexing),
		otherMandatory:   ps.Float(domain.ParamOtherMandatoryShare),
		oasiCost:         ps.Float(domain.ParamOASICostShare),
		diCost:           ps.Float(domain.ParamDICostShare),
		ssCostGrowth:     ps.Float(domain.ParamSSCostGrowth),
		cola:             ps.Float(domain.ParamCOLAAdjustment),
		longevitySD:      ps.Float(domain.ParamLongevitySD),
		hiCost:           ps.Float(domain.ParamHICostShare),
		smiCost:          ps.Float(domain.ParamSMICostShare),
		medicaidShare:    ps.Float(domain.ParamMedicaidShare),
		healthExcess:     ps.Float(domain.ParamHealthExcessCostGrowth),
		healthSD:         ps.Float(domain.ParamHealthCostSD),
		oasiBalance:      ps.Float(domain.ParamOASIInitialBalance),
		diBalance:        ps.Float(domain.ParamDIInitialBalance),
		hiBalance:        ps.Float(domain.ParamHIInitialBalance),
		trustFundRate:    ps.Float(domain.ParamTrustFundRate),
		initialDebt:      ps.Float(domain.ParamInitialDebt),
		values:           make(map[string]float64),
	}
	for _, p := range ps.Parameters() {
		a.values[p.Name] = p.Value.InexactFloat64()
	}
	return a
}

// param returns any declared parameter by name; kind-specific models use it.
func (a *assumptions) param(name string) float64 { return a.values[name] }
