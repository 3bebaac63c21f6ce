package domain

// YearDelta is the difference between two outlooks for one quantity and year.
// Delta is Alternative-Baseline; PercentDelta divides by Baseline with the
// safe-division policy, and PercentGuarded marks a substituted fallback.
type YearDelta struct {
	Year           int     `json:"year"`
	Baseline       float64 `json:"baseline"`
	Alternative    float64 `json:"alternative"`
	Delta          float64 `json:"delta"`
	PercentDelta   float64 `json:"percent_delta"`
	PercentGuarded bool    `json:"percent_guarded,omitempty"`
	Significant    bool    `json:"significant"`
}

// DepletionShift compares censored mean depletion years of a fund.
type DepletionShift struct {
	Fund            Fund    `json:"fund"`
	BaselineYear    float64 `json:"baseline_year"`
	AlternativeYear float64 `json:"alternative_year"`
	Shift           float64 `json:"shift"`
}

// ComparisonResult pairs two outlooks. Inputs are never modified.
type ComparisonResult struct {
	Baseline         string                   `json:"baseline"`
	Alternative      string                   `json:"alternative"`
	Horizon          int                      `json:"horizon"`
	ConfidenceLevel  float64                  `json:"confidence_level"`
	Quantities       map[Quantity][]YearDelta `json:"quantities"`
	TrustFunds       map[Fund]DepletionShift  `json:"trust_funds"`
	SignificantCount int                      `json:"significant_count"`
}

// Delta returns the comparison for q in year t.
func (c *ComparisonResult) Delta(q Quantity, t int) (YearDelta, bool) {
	ds, ok := c.Quantities[q]
	if !ok || t < 0 || t >= len(ds) {
		return YearDelta{}, false
	}
	return ds[t], true
}
