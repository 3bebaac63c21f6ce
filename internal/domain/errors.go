package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownPolicy is returned when a base policy id is not present in the catalog.
	ErrUnknownPolicy = errors.New("unknown base policy")
	// ErrUnknownReform is returned when a reform id is not present in the catalog.
	ErrUnknownReform = errors.New("unknown reform")
	// ErrHorizonMismatch is returned when two outlooks with different horizons are compared.
	ErrHorizonMismatch = errors.New("horizon mismatch")
)

// ParameterOutOfRange reports a parameter that left its declared range.
// Delta is empty when the value came from the base set rather than a reform.
type ParameterOutOfRange struct {
	Parameter string
	Value     decimal.Decimal
	Min       decimal.Decimal
	Max       decimal.Decimal
	Delta     string
}

func (e *ParameterOutOfRange) Error() string {
	if e.Delta == "" {
		return fmt.Sprintf("parameter %s=%s outside [%s, %s]", e.Parameter, e.Value, e.Min, e.Max)
	}
	return fmt.Sprintf("parameter %s=%s outside [%s, %s] after reform %q", e.Parameter, e.Value, e.Min, e.Max, e.Delta)
}

// ValidationError reports a malformed run request field (iterations, horizon, seed, ...).
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// UnknownParameter is returned when a parameter name is not part of a kind's schema.
type UnknownParameter struct {
	Name string
	Kind PolicyKind
}

func (e *UnknownParameter) Error() string {
	return fmt.Sprintf("parameter %q is not declared for policy kind %s", e.Name, e.Kind)
}

// WarningKind classifies non-fatal conditions attached to a result.
type WarningKind string

const (
	ConvergenceWarning    WarningKind = "convergence"
	NumericGuardTriggered WarningKind = "numeric_guard"
)

// Warning is non-fatal metadata recorded on a result instead of being returned as an error.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}
