package output

import (
	"math"
	"sort"

	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/shopspring/decimal"
)

// Recommendation encapsulates the scenario with the lowest final debt-to-GDP.
type Recommendation struct {
	ScenarioName   string
	FinalDebtToGDP decimal.Decimal
	// Change is measured against the first scenario, in percentage points.
	Change           decimal.Decimal
	PercentageChange decimal.Decimal
}

// AnalyzeScenarios selects the scenario ending with the lowest mean debt-to-GDP.
// The first scenario is the baseline. Ties keep input order.
func AnalyzeScenarios(scenarios []ScenarioReport) Recommendation {
	type ranked struct {
		name  string
		ratio decimal.Decimal
	}
	var ranks []ranked
	for _, sc := range scenarios {
		if sc.Stats == nil {
			continue
		}
		v := sc.Stats.FinalMean(domain.QDebtToGDP)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		ranks = append(ranks, ranked{sc.Name, decimal.NewFromFloat(v).Mul(decimalHundred)})
	}
	if len(ranks) == 0 {
		return Recommendation{}
	}
	baseline := ranks[0].ratio
	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].ratio.LessThan(ranks[j].ratio) })
	best := ranks[0]
	delta := best.ratio.Sub(baseline)
	pct := decimal.Zero
	if !baseline.IsZero() {
		pct = delta.Div(baseline).Mul(decimalHundred)
	}
	return Recommendation{ScenarioName: best.name, FinalDebtToGDP: best.ratio, Change: delta, PercentageChange: pct}
}
