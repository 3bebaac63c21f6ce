package output

import (
	"bytes"
	"fmt"

	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/rpgo/fiscal-projection/pkg/dateutil"
)

// ConsoleFormatter provides a concise console style summary via the formatter interface.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "summary" }

func (c ConsoleFormatter) Format(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "FISCAL OUTLOOK SUMMARY")
	fmt.Fprintln(&buf, "================================")
	if r.Title != "" {
		fmt.Fprintln(&buf, r.Title)
	}
	for _, sc := range r.Scenarios {
		if sc.Stats == nil {
			continue
		}
		s := sc.Stats
		fmt.Fprintf(&buf, "%s: Years=%d Iterations=%d Debt/GDP=%s Deficit/GDP=%s OASI=%s\n",
			sc.Name,
			s.Horizon,
			s.IterationsUsed,
			FormatShare(s.FinalMean(domain.QDebtToGDP)),
			FormatShare(s.FinalMean(domain.QDeficitToGDP)),
			depletionLabel(s.TrustFunds[domain.FundOASI], sc.FirstFiscalYear),
		)
	}
	for _, cmp := range r.Comparisons {
		shift := cmp.TrustFunds[domain.FundOASI].Shift
		last, _ := cmp.Delta(domain.QDebtToGDP, cmp.Horizon-1)
		fmt.Fprintf(&buf, "%s vs %s: ΔDebt/GDP=%s OASI shift=%+.1fy significant=%d\n",
			cmp.Alternative, cmp.Baseline, FormatShare(last.Delta), shift, cmp.SignificantCount)
	}
	if r.Sensitivity != nil && len(r.Sensitivity.Entries) > 0 {
		top := r.Sensitivity.Entries[0]
		fmt.Fprintf(&buf, "Most sensitive: %s (impact %.4f)\n", top.Parameter, top.Impact)
	}
	if len(r.Scenarios) > 1 {
		rec := AnalyzeScenarios(r.Scenarios)
		if rec.ScenarioName != "" {
			fmt.Fprintln(&buf)
			fmt.Fprintf(&buf, "Lowest debt: %s (%s of GDP, Δ %s pts / %s)\n", rec.ScenarioName,
				rec.FinalDebtToGDP.StringFixed(1)+"%", rec.Change.StringFixed(1), FormatPercentage(rec.PercentageChange))
		}
	}
	return buf.Bytes(), nil
}

// depletionLabel describes when a fund first runs dry across iterations.
func depletionLabel(d domain.DepletionStats, firstFiscalYear int) string {
	if d.DepletedCount == 0 {
		return "solvent"
	}
	label := fmt.Sprintf("depleted in %.0f%% of paths", d.DepletedShare*100)
	if d.EarliestYear > 0 && firstFiscalYear > 0 {
		label += ", earliest " + dateutil.Label(dateutil.YearFor(firstFiscalYear, d.EarliestYear))
	}
	return label
}
