package scenario

import (
	"fmt"
	"strings"

	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/shopspring/decimal"
)

// Op is a single arithmetic operation on one parameter.
type Op string

const (
	OpSet   Op = "set"
	OpScale Op = "scale"
	OpAdd   Op = "add"
)

// ParseOp validates an operation name.
func ParseOp(s string) (Op, error) {
	switch op := Op(strings.ToLower(strings.TrimSpace(s))); op {
	case OpSet, OpScale, OpAdd:
		return op, nil
	default:
		return "", fmt.Errorf("unsupported reform operation %q (want set, scale or add)", s)
	}
}

// ParameterDelta changes one parameter with one operation.
type ParameterDelta struct {
	Label     string
	Op        Op
	Parameter string
	Operand   decimal.Decimal
}

// Set replaces a parameter value, e.g. Set("raise cap", "payroll_tax_cap", 250000).
func Set(label, parameter string, value decimal.Decimal) ParameterDelta {
	return ParameterDelta{Label: label, Op: OpSet, Parameter: parameter, Operand: value}
}

// Scale multiplies a parameter by factor.
func Scale(label, parameter string, factor decimal.Decimal) ParameterDelta {
	return ParameterDelta{Label: label, Op: OpScale, Parameter: parameter, Operand: factor}
}

// Add adds amount to a parameter (negative amounts subtract).
func Add(label, parameter string, amount decimal.Decimal) ParameterDelta {
	return ParameterDelta{Label: label, Op: OpAdd, Parameter: parameter, Operand: amount}
}

func (d ParameterDelta) Name() string {
	if d.Label != "" {
		return d.Label
	}
	return fmt.Sprintf("%s %s %s", d.Op, d.Parameter, d.Operand)
}

func (d ParameterDelta) Apply(ps *domain.PolicyParameterSet) (*domain.PolicyParameterSet, error) {
	cur, ok := ps.Value(d.Parameter)
	if !ok {
		return nil, &domain.UnknownParameter{Name: d.Parameter, Kind: ps.Kind()}
	}
	var next decimal.Decimal
	switch d.Op {
	case OpSet:
		next = d.Operand
	case OpScale:
		next = cur.Mul(d.Operand)
	case OpAdd:
		next = cur.Add(d.Operand)
	default:
		return nil, fmt.Errorf("unsupported reform operation %q", d.Op)
	}
	return ps.With(map[string]decimal.Decimal{d.Parameter: next})
}

// Chain is a named reform made of several operations applied in order. Range
// checks happen once the whole chain has been applied, so a chain may pass
// through intermediate values as long as it ends inside the declared ranges.
type Chain struct {
	Label       string
	Description string
	Steps       []domain.ReformDelta
}

func (c Chain) Name() string { return c.Label }

func (c Chain) Apply(ps *domain.PolicyParameterSet) (*domain.PolicyParameterSet, error) {
	cur := ps
	for _, s := range c.Steps {
		next, err := s.Apply(cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
