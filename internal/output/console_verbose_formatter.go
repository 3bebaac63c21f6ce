package output

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/rpgo/fiscal-projection/internal/outlook"
	"github.com/rpgo/fiscal-projection/pkg/dateutil"
)

// ConsoleVerboseFormatter renders the detailed console report via the pluggable interface.
type ConsoleVerboseFormatter struct{}

func (c ConsoleVerboseFormatter) Name() string { return "console" }

// comparedQuantities are the headline rows of a comparison table.
var comparedQuantities = []domain.Quantity{
	domain.QRevenueTotal,
	domain.QSpendingTotal,
	domain.QDeficit,
	domain.QDebt,
	domain.QDebtToGDP,
	domain.QDeficitToGDP,
	domain.QOASIBalance,
	domain.QHIBalance,
}

func (c ConsoleVerboseFormatter) Format(r *Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, strings.Repeat("=", 81))
	fmt.Fprintln(&buf, "STOCHASTIC FISCAL PROJECTION")
	fmt.Fprintln(&buf, strings.Repeat("=", 81))
	if r.Title != "" {
		fmt.Fprintln(&buf, r.Title)
	}
	fmt.Fprintln(&buf)

	if len(r.Policies) > 0 || len(r.Reforms) > 0 {
		writeCatalog(&buf, r)
	}
	for i, sc := range r.Scenarios {
		writeScenario(&buf, i+1, sc)
	}
	for _, cmp := range r.Comparisons {
		writeComparison(&buf, cmp)
	}
	if r.Sensitivity != nil {
		writeSensitivity(&buf, r)
	}
	if r.Cache != nil {
		fmt.Fprintf(&buf, "Cache: entries=%d/%d hits=%d store_hits=%d misses=%d coalesced=%d evictions=%d\n",
			r.Cache.Entries, r.Cache.MaxEntries, r.Cache.Hits, r.Cache.StoreHits, r.Cache.Misses, r.Cache.Coalesced, r.Cache.Evictions)
	}
	return buf.Bytes(), nil
}

func writeCatalog(buf *bytes.Buffer, r *Report) {
	if len(r.Policies) > 0 {
		fmt.Fprintln(buf, "BASE POLICIES:")
		for _, p := range r.Policies {
			fmt.Fprintf(buf, "  %-24s %-14s %s\n", p.ID, p.Kind, p.Name)
		}
		fmt.Fprintln(buf)
	}
	if len(r.Reforms) > 0 {
		fmt.Fprintln(buf, "REFORMS:")
		for _, rf := range r.Reforms {
			fmt.Fprintf(buf, "  %-24s %s\n", rf.ID, rf.Name)
		}
		fmt.Fprintln(buf)
	}
}

func writeScenario(buf *bytes.Buffer, n int, sc ScenarioReport) {
	fmt.Fprintf(buf, "SCENARIO %d: %s\n", n, sc.Name)
	fmt.Fprintln(buf, strings.Repeat("=", 50))
	s := sc.Stats
	if s == nil {
		fmt.Fprintln(buf, "  (no statistics)")
		fmt.Fprintln(buf)
		return
	}

	if comp := sc.Composition; comp != nil {
		fmt.Fprintf(buf, "Base policy: %s\n", comp.Base)
		if len(comp.Deltas) > 0 {
			fmt.Fprintf(buf, "Reforms:     %s\n", strings.Join(comp.Deltas, ", "))
		}
		for _, ch := range comp.Changes {
			fmt.Fprintf(buf, "  %-32s %s -> %s (%s)\n", ch.Parameter, ch.Before.String(), ch.After.String(), ch.Delta)
		}
		fmt.Fprintln(buf)
		fmt.Fprintln(buf, "KEY ASSUMPTIONS:")
		for _, a := range GenerateAssumptions(comp.Params) {
			fmt.Fprintf(buf, "• %s\n", a)
		}
		fmt.Fprintln(buf)
	}

	fmt.Fprintf(buf, "Iterations: %d of %d", s.IterationsUsed, s.IterationsRequested)
	if s.Converged {
		fmt.Fprint(buf, " (converged)")
	}
	fmt.Fprintf(buf, "  Seed: %d", s.Seed)
	if !s.Reproducible {
		fmt.Fprint(buf, " (not reproducible)")
	}
	if sc.Cached {
		fmt.Fprint(buf, "  [cached]")
	}
	fmt.Fprintln(buf)
	fmt.Fprintf(buf, "Key quantity: %s  standard error %.5f  confidence %.0f%%\n", s.KeyQuantity, s.StandardError, s.ConfidenceLevel*100)
	fmt.Fprintln(buf)

	traj := sc.Trajectory
	if traj == nil {
		traj = outlook.Trajectory(s, sc.FirstFiscalYear)
	}
	fmt.Fprintf(buf, "%-8s %12s %12s %12s %12s %10s %19s %10s\n", "Year", "Revenue", "Spending", "Deficit", "Debt", "Debt/GDP", "Debt/GDP band", "Def/GDP")
	for _, p := range traj {
		band := FormatShare(p.DebtToGDPLow) + " - " + FormatShare(p.DebtToGDPHigh)
		fmt.Fprintf(buf, "%-8s %12s %12s %12s %12s %10s %19s %10s\n",
			yearLabel(sc.FirstFiscalYear, p),
			FormatBillions(p.Revenue),
			FormatBillions(p.Spending),
			FormatBillions(p.Deficit),
			FormatBillions(p.Debt),
			FormatShare(p.DebtToGDP),
			band,
			FormatShare(p.DeficitToGDP),
		)
	}
	fmt.Fprintln(buf)

	fmt.Fprintln(buf, "TRUST FUNDS:")
	for _, f := range domain.AllFunds() {
		d, ok := s.TrustFunds[f]
		if !ok {
			continue
		}
		fmt.Fprintf(buf, "  %-5s %s; censored mean depletion year %s\n", strings.ToUpper(string(f)), depletionLabel(d, sc.FirstFiscalYear), FormatYear(d.CensoredMeanYear))
	}

	if len(s.ShockAttribution) > 0 {
		fmt.Fprintln(buf)
		fmt.Fprintln(buf, "SHOCK ATTRIBUTION (key quantity):")
		factors := make([]domain.Factor, 0, len(s.ShockAttribution))
		for f := range s.ShockAttribution {
			factors = append(factors, f)
		}
		sort.SliceStable(factors, func(i, j int) bool {
			return abs(s.ShockAttribution[factors[i]]) > abs(s.ShockAttribution[factors[j]])
		})
		for _, f := range factors {
			fmt.Fprintf(buf, "  %-20s %+.4f\n", f, s.ShockAttribution[f])
		}
	}

	if len(s.Guards) > 0 {
		sites := make([]string, 0, len(s.Guards))
		for site := range s.Guards {
			sites = append(sites, site)
		}
		sort.Strings(sites)
		fmt.Fprintln(buf)
		fmt.Fprintln(buf, "NUMERIC GUARDS:")
		for _, site := range sites {
			fmt.Fprintf(buf, "  %-28s %d\n", site, s.Guards[site])
		}
	}
	for _, w := range s.Warnings {
		fmt.Fprintf(buf, "WARNING (%s): %s\n", w.Kind, w.Message)
	}
	fmt.Fprintln(buf)
}

func writeComparison(buf *bytes.Buffer, cmp *domain.ComparisonResult) {
	fmt.Fprintf(buf, "COMPARISON: %s vs %s (final year %d, %.0f%% bands)\n", cmp.Alternative, cmp.Baseline, cmp.Horizon, cmp.ConfidenceLevel*100)
	fmt.Fprintln(buf, strings.Repeat("-", 50))
	fmt.Fprintf(buf, "%-26s %14s %14s %14s %9s\n", "Quantity", "Baseline", "Alternative", "Delta", "Sig")
	for _, q := range comparedQuantities {
		d, ok := cmp.Delta(q, cmp.Horizon-1)
		if !ok {
			continue
		}
		render := FormatBillions
		if isRatio(q) {
			render = FormatShare
		}
		sig := ""
		if d.Significant {
			sig = "*"
		}
		fmt.Fprintf(buf, "%-26s %14s %14s %14s %9s\n", q, render(d.Baseline), render(d.Alternative), render(d.Delta), sig)
	}
	for _, f := range domain.AllFunds() {
		sh, ok := cmp.TrustFunds[f]
		if !ok {
			continue
		}
		fmt.Fprintf(buf, "  %-5s depletion shift %+.2f years (%s -> %s)\n", strings.ToUpper(string(f)), sh.Shift, FormatYear(sh.BaselineYear), FormatYear(sh.AlternativeYear))
	}
	fmt.Fprintf(buf, "Significant year/quantity cells: %d\n", cmp.SignificantCount)
	fmt.Fprintln(buf)
}

func writeSensitivity(buf *bytes.Buffer, r *Report) {
	s := r.Sensitivity
	fmt.Fprintf(buf, "SENSITIVITY (%s after %d years, %d iterations)\n", s.KeyQuantity, s.Horizon, s.Iterations)
	fmt.Fprintln(buf, strings.Repeat("-", 50))
	fmt.Fprintf(buf, "%-34s %12s %12s %12s\n", "Parameter", "Impact", "Elasticity", "Output")
	for _, e := range s.Entries {
		fmt.Fprintf(buf, "%-34s %+12.5f %+12.4f %12.4f\n", e.Parameter, e.Impact, e.Elasticity, e.Output)
	}
	fmt.Fprintln(buf)
}

func isRatio(q domain.Quantity) bool {
	switch q {
	case domain.QDebtToGDP, domain.QDeficitToGDP, domain.QRevenueToGDP, domain.QSpendingToGDP,
		domain.QOASIPayable, domain.QDIPayable, domain.QHIPayable:
		return true
	}
	return false
}

func yearLabel(firstFiscalYear int, p outlook.TrajectoryPoint) string {
	if firstFiscalYear > 0 {
		return dateutil.Label(p.FiscalYear)
	}
	return fmt.Sprintf("Y%d", p.Year)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
