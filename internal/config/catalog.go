package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/rpgo/fiscal-projection/internal/scenario"
	"github.com/rpgo/fiscal-projection/pkg/decimal"
	shopspring "github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// CatalogFile is the YAML layout of a policy catalog. Values are read as
// strings so that decimal parameters keep their exact textual form.
type CatalogFile struct {
	Policies []PolicyEntry `yaml:"policies"`
	Reforms  []ReformEntry `yaml:"reforms"`
}

// PolicyEntry declares one named base policy.
type PolicyEntry struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Kind        domain.PolicyKind `yaml:"kind"`
	Parameters  map[string]string `yaml:"parameters"`
}

// ReformEntry declares one named reform as an ordered list of steps.
type ReformEntry struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Steps       []StepEntry `yaml:"steps"`
}

// StepEntry is one set, scale, or add operation.
type StepEntry struct {
	Op        string `yaml:"op"`
	Parameter string `yaml:"parameter"`
	Value     string `yaml:"value"`
}

// Policy is a resolved base policy.
type Policy struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	Description string                     `json:"description,omitempty"`
	Params      *domain.PolicyParameterSet `json:"params"`
}

// Reform is a compiled catalog reform.
type Reform struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Delta       scenario.Chain `json:"-"`
}

// Catalog holds named base policies and reforms in declaration order. It is
// read-only after loading.
type Catalog struct {
	policies []Policy
	reforms  []Reform
	byPolicy map[string]int
	byReform map[string]int
}

// CatalogParser loads policy catalogs.
type CatalogParser struct{}

// NewCatalogParser creates a new catalog parser
func NewCatalogParser() *CatalogParser {
	return &CatalogParser{}
}

// LoadFromFile loads a catalog from a YAML file.
func (cp *CatalogParser) LoadFromFile(filename string) (*Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return cp.Parse(data)
}

// LoadDefault loads the catalog compiled into the binary.
func (cp *CatalogParser) LoadDefault() (*Catalog, error) {
	return cp.Parse(defaultCatalogYAML)
}

// Parse decodes, validates, and compiles a YAML catalog.
func (cp *CatalogParser) Parse(data []byte) (*Catalog, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cp.ValidateCatalog(&file); err != nil {
		return nil, fmt.Errorf("catalog validation failed: %w", err)
	}
	return cp.compile(&file)
}

// ValidateCatalog checks structure only: ids, kinds, and step operations.
// Parameter names and ranges are checked when the catalog is compiled.
func (cp *CatalogParser) ValidateCatalog(file *CatalogFile) error {
	if len(file.Policies) == 0 {
		return fmt.Errorf("no policies provided")
	}
	seen := map[string]bool{}
	for i, p := range file.Policies {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("policy %d: id is required", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("policy %s: duplicate id", p.ID)
		}
		seen[p.ID] = true
		if !p.Kind.Valid() {
			return fmt.Errorf("policy %s: unknown kind %q", p.ID, p.Kind)
		}
	}

	seen = map[string]bool{}
	for i, r := range file.Reforms {
		if strings.TrimSpace(r.ID) == "" {
			return fmt.Errorf("reform %d: id is required", i)
		}
		if seen[r.ID] {
			return fmt.Errorf("reform %s: duplicate id", r.ID)
		}
		seen[r.ID] = true
		if len(r.Steps) == 0 {
			return fmt.Errorf("reform %s: at least one step is required", r.ID)
		}
		for j, s := range r.Steps {
			if _, err := scenario.ParseOp(s.Op); err != nil {
				return fmt.Errorf("reform %s step %d: %w", r.ID, j, err)
			}
			if s.Parameter == "" {
				return fmt.Errorf("reform %s step %d: parameter is required", r.ID, j)
			}
		}
	}
	return nil
}

func (cp *CatalogParser) compile(file *CatalogFile) (*Catalog, error) {
	c := &Catalog{
		byPolicy: make(map[string]int, len(file.Policies)),
		byReform: make(map[string]int, len(file.Reforms)),
	}

	for _, p := range file.Policies {
		specs, err := domain.SchemaFor(p.Kind)
		if err != nil {
			return nil, fmt.Errorf("policy %s: %w", p.ID, err)
		}
		values := make(map[string]shopspring.Decimal, len(p.Parameters))
		for name, raw := range p.Parameters {
			spec, ok := findSpec(specs, name)
			if !ok {
				return nil, fmt.Errorf("policy %s: %w", p.ID, &domain.UnknownParameter{Name: name, Kind: p.Kind})
			}
			v, err := parseValue(spec.Unit, raw)
			if err != nil {
				return nil, fmt.Errorf("policy %s parameter %s: %w", p.ID, name, err)
			}
			values[name] = v
		}
		ps, err := domain.NewParameterSet(p.Kind, values)
		if err != nil {
			return nil, fmt.Errorf("policy %s: %w", p.ID, err)
		}
		name := p.Name
		if name == "" {
			name = p.ID
		}
		c.byPolicy[p.ID] = len(c.policies)
		c.policies = append(c.policies, Policy{ID: p.ID, Name: name, Description: p.Description, Params: ps})
	}

	for _, r := range file.Reforms {
		name := r.Name
		if name == "" {
			name = r.ID
		}
		chain := scenario.Chain{Label: r.ID, Description: name}
		for j, s := range r.Steps {
			spec, ok := lookupSpec(s.Parameter)
			if !ok {
				return nil, fmt.Errorf("reform %s step %d: parameter %q is not declared by any policy kind", r.ID, j, s.Parameter)
			}
			op, _ := scenario.ParseOp(s.Op)
			unit := spec.Unit
			if op == scenario.OpScale {
				unit = domain.UnitRatio
			}
			v, err := parseValue(unit, s.Value)
			if err != nil {
				return nil, fmt.Errorf("reform %s step %d: %w", r.ID, j, err)
			}
			label := fmt.Sprintf("%s[%d]", r.ID, j)
			switch op {
			case scenario.OpSet:
				chain.Steps = append(chain.Steps, scenario.Set(label, s.Parameter, v))
			case scenario.OpScale:
				chain.Steps = append(chain.Steps, scenario.Scale(label, s.Parameter, v))
			case scenario.OpAdd:
				chain.Steps = append(chain.Steps, scenario.Add(label, s.Parameter, v))
			}
		}
		c.byReform[r.ID] = len(c.reforms)
		c.reforms = append(c.reforms, Reform{ID: r.ID, Name: name, Description: r.Description, Delta: chain})
	}
	return c, nil
}

// parseValue converts a catalog value to the parameter's unit. Billions may
// carry a T or B suffix; other units are plain decimals.
func parseValue(unit domain.Unit, raw string) (shopspring.Decimal, error) {
	if unit == domain.UnitBillions {
		m, err := decimal.ParseAmount(raw)
		if err != nil {
			return shopspring.Decimal{}, err
		}
		return m.Decimal, nil
	}
	clean := strings.NewReplacer("$", "", ",", "", "_", "").Replace(strings.TrimSpace(raw))
	v, err := shopspring.NewFromString(clean)
	if err != nil {
		return shopspring.Decimal{}, fmt.Errorf("parse %q: %w", raw, err)
	}
	return v, nil
}

func findSpec(specs []domain.ParameterSpec, name string) (domain.ParameterSpec, bool) {
	for _, s := range specs {
		if s.Name == name {
			return s, true
		}
	}
	return domain.ParameterSpec{}, false
}

// lookupSpec finds name in any kind's schema. Reforms are kind-agnostic and
// are only checked against a concrete kind when composed.
func lookupSpec(name string) (domain.ParameterSpec, bool) {
	for _, k := range domain.PolicyKinds() {
		specs, err := domain.SchemaFor(k)
		if err != nil {
			continue
		}
		if s, ok := findSpec(specs, name); ok {
			return s, true
		}
	}
	return domain.ParameterSpec{}, false
}

// Policy returns the named base policy.
func (c *Catalog) Policy(id string) (Policy, error) {
	i, ok := c.byPolicy[id]
	if !ok {
		return Policy{}, fmt.Errorf("%q: %w", id, domain.ErrUnknownPolicy)
	}
	return c.policies[i], nil
}

// Reform returns the named reform.
func (c *Catalog) Reform(id string) (Reform, error) {
	i, ok := c.byReform[id]
	if !ok {
		return Reform{}, fmt.Errorf("%q: %w", id, domain.ErrUnknownReform)
	}
	return c.reforms[i], nil
}

// Deltas resolves reform ids to deltas, preserving order.
func (c *Catalog) Deltas(ids []string) ([]domain.ReformDelta, error) {
	out := make([]domain.ReformDelta, 0, len(ids))
	for _, id := range ids {
		r, err := c.Reform(id)
		if err != nil {
			return nil, err
		}
		out = append(out, r.Delta)
	}
	return out, nil
}

// Policies lists base policies in declaration order.
func (c *Catalog) Policies() []Policy {
	return append([]Policy(nil), c.policies...)
}

// Reforms lists reforms in declaration order.
func (c *Catalog) Reforms() []Reform {
	return append([]Reform(nil), c.reforms...)
}
