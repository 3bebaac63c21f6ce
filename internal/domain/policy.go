package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// PolicyKind is the closed set of healthcare-system variants a policy can model.
// Each kind contributes its own parameters on top of the common fiscal schema.
type PolicyKind string

const (
	KindCurrentLaw   PolicyKind = "current_law"
	KindPublicOption PolicyKind = "public_option"
	KindSinglePayer  PolicyKind = "single_payer"
)

// PolicyKinds lists every supported kind in declaration order.
func PolicyKinds() []PolicyKind {
	return []PolicyKind{KindCurrentLaw, KindPublicOption, KindSinglePayer}
}

// Valid reports whether k is one of the declared kinds.
func (k PolicyKind) Valid() bool {
	switch k {
	case KindCurrentLaw, KindPublicOption, KindSinglePayer:
		return true
	}
	return false
}

// Unit describes how a parameter value is interpreted.
type Unit string

const (
	UnitRate     Unit = "rate"     // fraction, e.g. 0.124
	UnitShare    Unit = "share"    // share of GDP or of wages
	UnitBillions Unit = "billions" // real dollars, billions
	UnitDollars  Unit = "dollars"  // real dollars (per-worker thresholds)
	UnitRatio    Unit = "ratio"    // dimensionless multiplier or elasticity
)

// ParameterSpec declares one named parameter with its valid range.
// Step is the perturbation used by sensitivity analysis; zero excludes the parameter.
type ParameterSpec struct {
	Name        string          `yaml:"name" json:"name"`
	Unit        Unit            `yaml:"unit" json:"unit"`
	Min         decimal.Decimal `yaml:"min" json:"min"`
	Max         decimal.Decimal `yaml:"max" json:"max"`
	Default     decimal.Decimal `yaml:"default" json:"default"`
	Step        decimal.Decimal `yaml:"step" json:"step"`
	Description string          `yaml:"description" json:"description"`
}

// InRange reports whether v lies inside [Min, Max].
func (s ParameterSpec) InRange(v decimal.Decimal) bool {
	return v.GreaterThanOrEqual(s.Min) && v.LessThanOrEqual(s.Max)
}

// Parameter is a name/value pair in declaration order.
type Parameter struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// PolicyParameterSet is an immutable, schema-validated set of policy parameters.
// Instances are only created through NewParameterSet or With and are never mutated.
type PolicyParameterSet struct {
	kind        PolicyKind
	specs       []ParameterSpec
	index       map[string]int
	values      map[string]decimal.Decimal
	fingerprint string
}

// NewParameterSet builds a parameter set for kind. Missing parameters take their
// declared default; unknown names and out-of-range values are rejected.
func NewParameterSet(kind PolicyKind, values map[string]decimal.Decimal) (*PolicyParameterSet, error) {
	specs, err := SchemaFor(kind)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(specs))
	for i, s := range specs {
		index[s.Name] = i
	}

	resolved := make(map[string]decimal.Decimal, len(specs))
	for _, s := range specs {
		resolved[s.Name] = s.Default
	}
	for name, v := range values {
		if _, ok := index[name]; !ok {
			return nil, &UnknownParameter{Name: name, Kind: kind}
		}
		resolved[name] = v
	}

	ps := &PolicyParameterSet{kind: kind, specs: specs, index: index, values: resolved}
	if err := ps.Validate(); err != nil {
		return nil, err
	}
	ps.fingerprint = ps.computeFingerprint()
	return ps, nil
}

// With returns a new set with the given parameters replaced. Ranges are not
// checked here so that the composer can attribute violations to a reform; use
// Validate on the result.
func (ps *PolicyParameterSet) With(changes map[string]decimal.Decimal) (*PolicyParameterSet, error) {
	next := make(map[string]decimal.Decimal, len(ps.values))
	for k, v := range ps.values {
		next[k] = v
	}
	for name, v := range changes {
		if _, ok := ps.index[name]; !ok {
			return nil, &UnknownParameter{Name: name, Kind: ps.kind}
		}
		next[name] = v
	}
	out := &PolicyParameterSet{kind: ps.kind, specs: ps.specs, index: ps.index, values: next}
	out.fingerprint = out.computeFingerprint()
	return out, nil
}

// Validate checks every parameter against its declared range in declaration order.
func (ps *PolicyParameterSet) Validate() error {
	for _, s := range ps.specs {
		v := ps.values[s.Name]
		if !s.InRange(v) {
			return &ParameterOutOfRange{Parameter: s.Name, Value: v, Min: s.Min, Max: s.Max}
		}
	}
	return nil
}

// Kind returns the healthcare-system variant of the set.
func (ps *PolicyParameterSet) Kind() PolicyKind { return ps.kind }

// Fingerprint is a stable hash over the kind and the sorted parameter contents.
func (ps *PolicyParameterSet) Fingerprint() string { return ps.fingerprint }

// Specs returns the declared schema in declaration order.
func (ps *PolicyParameterSet) Specs() []ParameterSpec {
	return append([]ParameterSpec(nil), ps.specs...)
}

// Spec looks up the declaration of a parameter.
func (ps *PolicyParameterSet) Spec(name string) (ParameterSpec, bool) {
	i, ok := ps.index[name]
	if !ok {
		return ParameterSpec{}, false
	}
	return ps.specs[i], true
}

// Value returns the resolved value of a parameter.
func (ps *PolicyParameterSet) Value(name string) (decimal.Decimal, bool) {
	v, ok := ps.values[name]
	return v, ok
}

// Float returns a parameter as float64. It panics on undeclared names, which
// indicates a programming error since all names are schema constants.
func (ps *PolicyParameterSet) Float(name string) float64 {
	v, ok := ps.values[name]
	if !ok {
		panic(fmt.Sprintf("domain: parameter %q not declared for %s", name, ps.kind))
	}
	return v.InexactFloat64()
}

// Parameters returns all values in declaration order.
func (ps *PolicyParameterSet) Parameters() []Parameter {
	out := make([]Parameter, len(ps.specs))
	for i, s := range ps.specs {
		out[i] = Parameter{Name: s.Name, Value: ps.values[s.Name]}
	}
	return out
}

func (ps *PolicyParameterSet) computeFingerprint() string {
	names := make([]string, 0, len(ps.values))
	for name := range ps.values {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(string(ps.kind))
	b.WriteByte('\n')
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(ps.values[name].String())
		b.WriteByte('\n')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// MarshalJSON renders the set with its kind, fingerprint, and ordered parameters.
func (ps *PolicyParameterSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind        PolicyKind  `json:"kind"`
		Fingerprint string      `json:"fingerprint"`
		Parameters  []Parameter `json:"parameters"`
	}{ps.kind, ps.fingerprint, ps.Parameters()})
}
