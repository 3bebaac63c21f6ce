package output

import (
	"errors"
	"sort"
	"strings"

	"github.com/rpgo/fiscal-projection/internal/cache"
	"github.com/rpgo/fiscal-projection/internal/calculation"
	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/rpgo/fiscal-projection/internal/outlook"
	"github.com/rpgo/fiscal-projection/internal/scenario"
)

// ErrUnsupportedFormat is returned for a format name with no registered formatter.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// ScenarioReport is one projected scenario.
type ScenarioReport struct {
	Name        string                      `json:"name"`
	Composition *scenario.Composition       `json:"composition,omitempty"`
	Stats       *domain.AggregateStatistics `json:"stats"`
	Trajectory  []outlook.TrajectoryPoint   `json:"trajectory,omitempty"`
	Cached      bool                        `json:"cached"`
	// FirstFiscalYear labels projection year 1.
	FirstFiscalYear int `json:"first_fiscal_year"`
}

// CatalogEntry is a listed base policy or reform.
type CatalogEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Kind        string `json:"kind,omitempty"`
	Description string `json:"description,omitempty"`
}

// Report is everything a command produced. Sections left empty are skipped.
type Report struct {
	Title       string                         `json:"title"`
	Scenarios   []ScenarioReport               `json:"scenarios,omitempty"`
	Comparisons []*domain.ComparisonResult     `json:"comparisons,omitempty"`
	Sensitivity *calculation.SensitivityResult `json:"sensitivity,omitempty"`
	Policies    []CatalogEntry                 `json:"policies,omitempty"`
	Reforms     []CatalogEntry                 `json:"reforms,omitempty"`
	Cache       *cache.Stats                   `json:"cache,omitempty"`
}

// Formatter defines a pluggable output formatter that returns a byte slice.
// Implementations should be pure (no side effects besides deterministic formatting).
type Formatter interface {
	Format(r *Report) ([]byte, error)
	// Name returns a short identifier for logging / debugging.
	Name() string
}

// FormatterFunc adapter to allow ordinary functions to act as a Formatter.
type FormatterFunc struct {
	ID string
	F  func(*Report) ([]byte, error)
}

func (ff FormatterFunc) Format(r *Report) ([]byte, error) { return ff.F(r) }
func (ff FormatterFunc) Name() string                     { return ff.ID }

var builtInFormatters = []Formatter{
	ConsoleVerboseFormatter{},
	ConsoleFormatter{},
	JSONFormatter{},
}

// GetFormatterByName fetches a registered formatter.
func GetFormatterByName(name string) Formatter {
	n := NormalizeFormatName(name)
	for _, f := range builtInFormatters {
		if f.Name() == n {
			return f
		}
	}
	return nil
}

// aliasMap provides user-friendly synonyms for format names.
var aliasMap = map[string]string{
	"console-verbose": "console",
	"verbose":         "console",
	"text":            "console",
	"lite":            "summary",
	"console-lite":    "summary",
	"json-pretty":     "json",
}

// NormalizeFormatName lowers and resolves aliases.
func NormalizeFormatName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if mapped, ok := aliasMap[n]; ok {
		return mapped
	}
	return n
}

// AvailableFormatterNames returns the canonical formatter names.
func AvailableFormatterNames() []string {
	names := make([]string, 0, len(builtInFormatters))
	for _, f := range builtInFormatters {
		names = append(names, f.Name())
	}
	sort.Strings(names)
	return names
}

// AvailableFormatAliases returns the supported alias keys.
func AvailableFormatAliases() []string {
	keys := make([]string, 0, len(aliasMap))
	for k := range aliasMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
