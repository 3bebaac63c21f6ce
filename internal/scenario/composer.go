// Package scenario composes a base policy and an ordered list of reforms into
// one resolved parameter set.
package scenario

import (
	"errors"
	"fmt"

	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/shopspring/decimal"
)

// Change records one parameter value altered by a reform during composition.
type Change struct {
	Delta     string          `json:"delta"`
	Parameter string          `json:"parameter"`
	Before    decimal.Decimal `json:"before"`
	After     decimal.Decimal `json:"after"`
}

// Composition is a resolved parameter set plus the audit trail that produced it.
type Composition struct {
	Params  *domain.PolicyParameterSet `json:"params"`
	Base    string                     `json:"base"`
	Deltas  []string                   `json:"deltas"`
	Changes []Change                   `json:"changes"`
}

// Compose applies deltas strictly in slice order. After every delta all parameters
// must lie within their declared ranges, otherwise a *domain.ParameterOutOfRange
// naming the reform is returned. Neither base nor any delta input is modified.
func Compose(base *domain.PolicyParameterSet, deltas ...domain.ReformDelta) (*domain.PolicyParameterSet, error) {
	c, err := Describe(base, deltas...)
	if err != nil {
		return nil, err
	}
	return c.Params, nil
}

// Describe composes like Compose and also returns the ordered list of changes.
func Describe(base *domain.PolicyParameterSet, deltas ...domain.ReformDelta) (*Composition, error) {
	if base == nil {
		return nil, errors.New("compose: base parameter set is nil")
	}
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("compose: base policy: %w", err)
	}

	comp := &Composition{Params: base, Base: base.Fingerprint()}
	current := base
	for i, d := range deltas {
		if d == nil {
			return nil, fmt.Errorf("compose: delta %d is nil", i)
		}
		next, err := d.Apply(current)
		if err != nil {
			return nil, fmt.Errorf("compose: reform %q: %w", d.Name(), err)
		}
		if next.Kind() != current.Kind() {
			return nil, fmt.Errorf("compose: reform %q changed policy kind from %s to %s", d.Name(), current.Kind(), next.Kind())
		}
		if err := next.Validate(); err != nil {
			var oor *domain.ParameterOutOfRange
			if errors.As(err, &oor) {
				attributed := *oor
				attributed.Delta = d.Name()
				return nil, &attributed
			}
			return nil, err
		}
		comp.Changes = append(comp.Changes, diff(d.Name(), current, next)...)
		comp.Deltas = append(comp.Deltas, d.Name())
		current = next
	}
	comp.Params = current
	return comp, nil
}

func diff(delta string, before, after *domain.PolicyParameterSet) []Change {
	// Both sets share one schema, so parameters line up by position.
	var out []Change
	bp, ap := before.Parameters(), after.Parameters()
	for i := range ap {
		if !bp[i].Value.Equal(ap[i].Value) {
			out = append(out, Change{Delta: delta, Parameter: ap[i].Name, Before: bp[i].Value, After: ap[i].Value})
		}
	}
	return out
}
