package output

import (
	"fmt"

	"github.com/rpgo/fiscal-projection/internal/domain"
)

// headlineParameters are rendered as assumptions when present in a parameter set.
var headlineParameters = []string{
	domain.ParamBaseGDP,
	domain.ParamGDPGrowthMean,
	domain.ParamInflationMean,
	domain.ParamInterestRateMean,
	domain.ParamPayrollTaxRate,
	domain.ParamPayrollTaxCap,
	domain.ParamCorporateTaxRate,
	domain.ParamCOLAAdjustment,
	domain.ParamOASIInitialBalance,
}

// GenerateAssumptions lists the headline parameters of ps in declaration order
// of headlineParameters.
func GenerateAssumptions(ps *domain.PolicyParameterSet) []string {
	if ps == nil {
		return nil
	}
	out := []string{fmt.Sprintf("Policy kind: %s", ps.Kind())}
	for _, name := range headlineParameters {
		spec, ok := ps.Spec(name)
		if !ok {
			continue
		}
		v, _ := ps.Value(name)
		var rendered string
		switch spec.Unit {
		case domain.UnitRate, domain.UnitShare:
			rendered = FormatPercentage(v.Mul(decimalHundred))
		case domain.UnitBillions:
			rendered = FormatBillions(v.InexactFloat64())
		case domain.UnitDollars:
			rendered = "$" + v.StringFixed(0)
		default:
			rendered = v.String()
		}
		out = append(out, fmt.Sprintf("%s: %s", spec.Description, rendered))
	}
	return out
}
