package outlook

import (
	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/rpgo/fiscal-projection/pkg/dateutil"
)

// TrajectoryPoint is the unified debt and deficit summary for one year. Money
// values are means in billions; ratios are shares of GDP.
type TrajectoryPoint struct {
	Year            int     `json:"year"`
	FiscalYear      int     `json:"fiscal_year"`
	Revenue         float64 `json:"revenue"`
	Spending        float64 `json:"spending"`
	NetInterest     float64 `json:"net_interest"`
	Deficit         float64 `json:"deficit"`
	Debt            float64 `json:"debt"`
	GDP             float64 `json:"gdp"`
	DebtToGDP       float64 `json:"debt_to_gdp"`
	DebtToGDPMedian float64 `json:"debt_to_gdp_median"`
	DebtToGDPLow    float64 `json:"debt_to_gdp_low"`
	DebtToGDPHigh   float64 `json:"debt_to_gdp_high"`
	DeficitToGDP    float64 `json:"deficit_to_gdp"`
}

// Trajectory flattens stats into one row per projected year. Year is 1-based;
// FiscalYear counts from firstFiscalYear.
func Trajectory(stats *domain.AggregateStatistics, firstFiscalYear int) []TrajectoryPoint {
	if stats == nil {
		return nil
	}
	years := dateutil.ProjectionYears(firstFiscalYear, stats.Horizon)
	out := make([]TrajectoryPoint, stats.Horizon)
	for t := range out {
		p := TrajectoryPoint{
			Year:         t + 1,
			FiscalYear:   years[t],
			Revenue:      stats.Mean(domain.QRevenueTotal, t),
			Spending:     stats.Mean(domain.QSpendingTotal, t),
			NetInterest:  stats.Mean(domain.QSpendingNetInterest, t),
			Deficit:      stats.Mean(domain.QDeficit, t),
			Debt:         stats.Mean(domain.QDebt, t),
			GDP:          stats.Mean(domain.QGDP, t),
			DebtToGDP:    stats.Mean(domain.QDebtToGDP, t),
			DeficitToGDP: stats.Mean(domain.QDeficitToGDP, t),
		}
		if ys, ok := stats.Year(domain.QDebtToGDP, t); ok {
			p.DebtToGDPLow = ys.CILower
			p.DebtToGDPHigh = ys.CIUpper
		}
		if med, ok := stats.Percentile(domain.QDebtToGDP, t, 0.5); ok {
			p.DebtToGDPMedian = med
		}
		out[t] = p
	}
	return out
}
