package domain

// ReformDelta is a named, pure transformation of a parameter set.
// Apply must not mutate its input and must be deterministic.
type ReformDelta interface {
	Name() string
	Apply(*PolicyParameterSet) (*PolicyParameterSet, error)
}
