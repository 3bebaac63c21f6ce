// Package dateutil labels projection years with federal fiscal years.
package dateutil

import (
	"fmt"
	"time"
)

// The federal fiscal year N runs from October 1 of N-1 through September 30 of N.
const fiscalYearStartMonth = time.October

// FiscalYear returns the federal fiscal year containing t.
func FiscalYear(t time.Time) int {
	if t.Month() >= fiscalYearStartMonth {
		return t.Year() + 1
	}
	return t.Year()
}

// FiscalYearStart returns October 1 of the year before fy.
func FiscalYearStart(fy int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(fy-1, fiscalYearStartMonth, 1, 0, 0, 0, 0, loc)
}

// FiscalYearEnd returns the last instant of September 30 of fy.
func FiscalYearEnd(fy int, loc *time.Location) time.Time {
	return FiscalYearStart(fy+1, loc).Add(-time.Nanosecond)
}

// FirstProjectionYear is the first full fiscal year after t. A projection
// started mid-year covers the next fiscal year onward.
func FirstProjectionYear(t time.Time) int {
	return FiscalYear(t) + 1
}

// ProjectionYears lists horizon consecutive fiscal years starting at first.
func ProjectionYears(first, horizon int) []int {
	if horizon <= 0 {
		return nil
	}
	out := make([]int, horizon)
	for i := range out {
		out[i] = first + i
	}
	return out
}

// Label formats fy the way budget tables do, e.g. "FY2027".
func Label(fy int) string {
	return fmt.Sprintf("FY%d", fy)
}

// YearFor maps a 1-based projection year to its fiscal year.
func YearFor(first, projectionYear int) int {
	return first + projectionYear - 1
}
