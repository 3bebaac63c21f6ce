package domain

// YearSeries holds one value per projected year, indexed 0..horizon-1.
type YearSeries []float64

// Len returns the number of projected years.
func (s YearSeries) Len() int { return len(s) }

// Last returns the final-year value, or 0 for an empty series.
func (s YearSeries) Last() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// ShockVector carries the correlated standard-normal draws for one iteration.
// Draws[f][t] is the draw for factor f (AllFactors order) in year t.
type ShockVector struct {
	Iteration int         `json:"iteration"`
	Draws     [][]float64 `json:"draws"`
}

// Factor returns the per-year draws for f.
func (v *ShockVector) Factor(f Factor) []float64 {
	return v.Draws[f.Index()]
}

// Mean returns the horizon-average draw for f.
func (v *ShockVector) Mean(f Factor) float64 {
	d := v.Factor(f)
	if len(d) == 0 {
		return 0
	}
	var sum float64
	for _, x := range d {
		sum += x
	}
	return sum / float64(len(d))
}

// FundStatus is the trust-fund state-machine state.
type FundStatus string

const (
	FundSolvent   FundStatus = "solvent"
	FundDepleting FundStatus = "depleting"
	FundDepleted  FundStatus = "depleted"
)

// TrustFundState is one fund's position. It is only advanced by the trust-fund
// model's year step; once DepletionYear is set it never changes within an iteration.
type TrustFundState struct {
	Fund          Fund       `json:"fund"`
	Balance       float64    `json:"balance"`
	Status        FundStatus `json:"status"`
	DepletionYear *int       `json:"depletion_year,omitempty"` // 1-based projection year
}

// Depleted reports whether the fund has reached the terminal state.
func (s *TrustFundState) Depleted() bool { return s.Status == FundDepleted }

// IterationResult is the full output of one Monte Carlo draw. Series is indexed
// by Quantity.Index and Funds by AllFunds order.
type IterationResult struct {
	Index  int              `json:"index"`
	Series []YearSeries     `json:"series"`
	Funds  []TrustFundState `json:"funds"`
	Shocks *ShockVector     `json:"shocks"`
	Guards GuardSummary     `json:"guards,omitempty"`
}

// Get returns the series for q.
func (r *IterationResult) Get(q Quantity) YearSeries {
	return r.Series[q.Index()]
}

// GuardSummary counts numeric guard activations by site name.
type GuardSummary map[string]int

// Add records n activations at site.
func (g GuardSummary) Add(site string, n int) {
	if n != 0 {
		g[site] += n
	}
}

// Merge adds all counts from other.
func (g GuardSummary) Merge(other GuardSummary) {
	for k, v := range other {
		g[k] += v
	}
}

// Total returns the sum of all activations.
func (g GuardSummary) Total() int {
	var n int
	for _, v := range g {
		n += v
	}
	return n
}
