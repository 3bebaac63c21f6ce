package calculation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrNoHistory is returned when a history directory holds none of the known series.
var ErrNoHistory = errors.New("no historical macro series found")

// HistoricalDataPoint is one year's observation.
type HistoricalDataPoint struct {
	Year  int             `json:"year"`
	Value decimal.Decimal `json:"value"`
}

// HistoricalStatistics summarizes a series.
type HistoricalStatistics struct {
	Mean         decimal.Decimal `json:"mean"`
	Median       decimal.Decimal `json:"median"`
	StdDev       decimal.Decimal `json:"std_dev"`
	Min          decimal.Decimal `json:"min"`
	Max          decimal.Decimal `json:"max"`
	Count        int             `json:"count"`
	MissingYears []int           `json:"missing_years,omitempty"`
}

// HistoricalSeries is one annual macro series read from CSV.
type HistoricalSeries struct {
	Name       string                `json:"name"`
	File       string                `json:"file"`
	DataPoints []HistoricalDataPoint `json:"data_points"`
	MinYear    int                   `json:"min_year"`
	MaxYear    int                   `json:"max_year"`
	Statistics HistoricalStatistics  `json:"statistics"`

	meanParam string
	sdParam   string
}

// historicalSeries maps each known CSV file to the shock parameters it calibrates.
var historicalSeries = []struct {
	name, file, mean, sd string
}{
	{"gdp_growth", "gdp-growth.csv", domain.ParamGDPGrowthMean, domain.ParamGDPGrowthSD},
	{"inflation", "inflation.csv", domain.ParamInflationMean, domain.ParamInflationSD},
	{"interest_rate", "interest-rate.csv", domain.ParamInterestRateMean, domain.ParamInterestRateSD},
}

// MacroHistory holds the annual macro series used to calibrate shock distributions.
type MacroHistory struct {
	DataPath string              `json:"data_path"`
	Series   []*HistoricalSeries `json:"series"`
}

// LoadMacroHistory reads every known series present in dir. Files that are
// absent are skipped; a directory with none of them is an error.
func LoadMacroHistory(dir string) (*MacroHistory, error) {
	h := &MacroHistory{DataPath: dir}
	for _, s := range historicalSeries {
		path := filepath.Join(dir, s.file)
		series, err := loadSeries(path, s.name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", s.name, err)
		}
		series.meanParam, series.sdParam = s.mean, s.sd
		h.Series = append(h.Series, series)
	}
	if len(h.Series) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoHistory, dir)
	}
	return h, nil
}

// Lookup returns the named series or nil.
func (h *MacroHistory) Lookup(name string) *HistoricalSeries {
	for _, s := range h.Series {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Value returns the observation of series name in year.
func (h *MacroHistory) Value(name string, year int) (decimal.Decimal, error) {
	s := h.Lookup(name)
	if s == nil {
		return decimal.Zero, fmt.Errorf("series %q not loaded", name)
	}
	for _, dp := range s.DataPoints {
		if dp.Year == year {
			return dp.Value, nil
		}
	}
	return decimal.Zero, fmt.Errorf("no %s observation for %d", name, year)
}

// Calibration returns parameter values that set each loaded series' shock
// mean and standard deviation to its historical moments, rounded to 4 places.
func (h *MacroHistory) Calibration() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, 2*len(h.Series))
	for _, s := range h.Series {
		out[s.meanParam] = s.Statistics.Mean.Round(4)
		if s.Statistics.Count > 1 {
			out[s.sdParam] = s.Statistics.StdDev.Round(4)
		}
	}
	return out
}

// Issues reports data quality problems: gaps and implausible annual rates.
func (h *MacroHistory) Issues() []string {
	var issues []string
	limit := decimal.NewFromFloat(0.5)
	for _, s := range h.Series {
		if len(s.Statistics.MissingYears) > 0 {
			issues = append(issues, fmt.Sprintf("%s: missing years %v", s.Name, s.Statistics.MissingYears))
		}
		for _, dp := range s.DataPoints {
			if dp.Value.Abs().GreaterThan(limit) {
				issues = append(issues, fmt.Sprintf("%s: implausible rate %s in %d (rates are fractions)", s.Name, dp.Value, dp.Year))
			}
		}
	}
	return issues
}

// loadSeries reads a two-column year,value CSV with a header row. Rows with
// an unparsable year or value are skipped.
func loadSeries(path, name string) (*HistoricalSeries, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("invalid CSV format: expected at least 2 columns")
	}

	var points []HistoricalDataPoint
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(record) < 2 {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			continue
		}
		value, err := decimal.NewFromString(strings.TrimSpace(record[1]))
		if err != nil {
			continue
		}
		points = append(points, HistoricalDataPoint{Year: year, Value: value})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no valid data points in %s", path)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Year < points[j].Year })

	return &HistoricalSeries{
		Name:       name,
		File:       path,
		DataPoints: points,
		MinYear:    points[0].Year,
		MaxYear:    points[len(points)-1].Year,
		Statistics: seriesStatistics(points),
	}, nil
}

// seriesStatistics expects points sorted by year.
func seriesStatistics(points []HistoricalDataPoint) HistoricalStatistics {
	n := len(points)
	values := make([]decimal.Decimal, n)
	sum := decimal.Zero
	for i, dp := range points {
		values[i] = dp.Value
		sum = sum.Add(dp.Value)
	}
	mean := sum.Div(decimal.NewFromInt(int64(n)))

	sorted := append([]decimal.Decimal(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	median := sorted[n/2]
	if n%2 == 0 {
		median = sorted[n/2-1].Add(sorted[n/2]).Div(decimal.NewFromInt(2))
	}

	// Sample standard deviation; a single observation has none.
	stdDev := decimal.Zero
	if n > 1 {
		ss := decimal.Zero
		for _, v := range values {
			d := v.Sub(mean)
			ss = ss.Add(d.Mul(d))
		}
		variance, _ := ss.Div(decimal.NewFromInt(int64(n - 1))).Float64()
		stdDev = decimal.NewFromFloat(math.Sqrt(variance))
	}

	var missing []int
	for i := 1; i < n; i++ {
		for y := points[i-1].Year + 1; y < points[i].Year; y++ {
			missing = append(missing, y)
		}
	}

	return HistoricalStatistics{
		Mean:         mean,
		Median:       median,
		StdDev:       stdDev,
		Min:          sorted[0],
		Max:          sorted[n-1],
		Count:        n,
		MissingYears: missing,
	}
}
