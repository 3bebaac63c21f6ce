// Package shock draws correlated, serially persistent macro and demographic
// shocks for Monte Carlo iterations.
//
// Shocks are standardized: every draw is marginally N(0,1) and carries no
// parameter information. The projection models map a draw z onto a level as
// mean + sd*z, so two scenarios run with the same seed see the same shock paths
// (common random numbers) and differ only because of policy.
package shock

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/rpgo/fiscal-projection/internal/domain"
)

// Generator produces the shock vector for any iteration index. Iteration i is
// derived only from (seed, i), so draws are identical no matter how iterations
// are partitioned across workers or in which order they are requested.
type Generator struct {
	horizon     int
	seed        uint64
	seeded      bool
	chol        [][]float64
	persistence []float64
}

// New builds a generator for horizon years. A nil seed draws one from process
// entropy and marks the generator non-reproducible.
func New(model CorrelationModel, horizon int, seed *uint64) (*Generator, error) {
	if horizon <= 0 {
		return nil, &domain.ValidationError{Field: "horizon", Value: horizon, Reason: "must be positive"}
	}
	corr, err := model.CorrelationMatrix()
	if err != nil {
		return nil, err
	}
	chol, err := cholesky(corr)
	if err != nil {
		return nil, err
	}
	rho, err := model.persistence()
	if err != nil {
		return nil, err
	}

	g := &Generator{horizon: horizon, chol: chol, persistence: rho}
	if seed != nil {
		g.seed, g.seeded = *seed, true
	} else {
		g.seed = seedFunc()
	}
	return g, nil
}

// Seed returns the seed in use, including an entropy-derived one.
func (g *Generator) Seed() uint64 { return g.seed }

// Reproducible reports whether the caller supplied the seed.
func (g *Generator) Reproducible() bool { return g.seeded }

// Horizon returns the number of years per shock vector.
func (g *Generator) Horizon() int { return g.horizon }

// At returns the shock vector for iteration i.
func (g *Generator) At(i int) *domain.ShockVector {
	rng := rand.New(rand.NewPCG(g.seed, splitmix64(uint64(i))))
	k := len(g.chol)

	draws := make([][]float64, k)
	for f := range draws {
		draws[f] = make([]float64, g.horizon)
	}
	z := make([]float64, k)
	for t := 0; t < g.horizon; t++ {
		for f := range z {
			z[f] = boxMuller(rng)
		}
		for f := 0; f < k; f++ {
			var e float64
			for j := 0; j <= f; j++ {
				e += g.chol[f][j] * z[j]
			}
			if t == 0 {
				draws[f][t] = e
				continue
			}
			rho := g.persistence[f]
			draws[f][t] = rho*draws[f][t-1] + math.Sqrt(1-rho*rho)*e
		}
	}
	return &domain.ShockVector{Iteration: i, Draws: draws}
}

// Sequence returns a restartable iterator over the first n shock vectors.
func (g *Generator) Sequence(n int) (*Sequence, error) {
	if n <= 0 {
		return nil, &domain.ValidationError{Field: "iterations", Value: n, Reason: "must be positive"}
	}
	return &Sequence{gen: g, n: n}, nil
}

// boxMuller returns one standard normal variate.
func boxMuller(rng *rand.Rand) float64 {
	u1 := 1 - rng.Float64() // (0, 1], keeps Log finite
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// Sequence is a lazy, bounded iterator over shock vectors. Vectors are produced
// on demand and never held, so memory does not grow with the iteration count.
// A Sequence is not safe for concurrent use; share the Generator instead.
type Sequence struct {
	gen  *Generator
	n    int
	next int
}

// Next returns the next vector, or false once the sequence is exhausted.
func (s *Sequence) Next() (*domain.ShockVector, bool) {
	if s.next >= s.n {
		return nil, false
	}
	v := s.gen.At(s.next)
	s.next++
	return v, true
}

// At returns vector i without moving the cursor.
func (s *Sequence) At(i int) (*domain.ShockVector, error) {
	if i < 0 || i >= s.n {
		return nil, fmt.Errorf("shock index %d outside [0, %d)", i, s.n)
	}
	return s.gen.At(i), nil
}

// Reset rewinds the sequence; subsequent vectors repeat exactly.
func (s *Sequence) Reset() { s.next = 0 }

// Len returns the bound of the sequence.
func (s *Sequence) Len() int { return s.n }
