package shock

import (
	"fmt"
	"math"

	"github.com/rpgo/fiscal-projection/internal/domain"
)

// CorrelationModel declares how the stochastic factors co-move.
//
// By default a single shared "business cycle" factor drives every factor with
// the given loading, so corr(a, b) = Loadings[a] * Loadings[b]. A recession is a
// negative cycle draw that depresses GDP growth and the revenue elasticity
// together. Matrix, when set, replaces the one-factor structure with an explicit
// correlation matrix in domain.AllFactors order.
//
// Persistence is the AR(1) coefficient of each factor across years.
type CorrelationModel struct {
	Loadings    map[domain.Factor]float64 `yaml:"loadings" json:"loadings"`
	Persistence map[domain.Factor]float64 `yaml:"persistence" json:"persistence"`
	Matrix      [][]float64               `yaml:"matrix,omitempty" json:"matrix,omitempty"`
}

// DefaultModel returns the documented default assumption set.
func DefaultModel() CorrelationModel {
	return CorrelationModel{
		Loadings: map[domain.Factor]float64{
			domain.FactorGDPGrowth:         0.8,
			domain.FactorInflation:         0.3,
			domain.FactorInterestRate:      0.4,
			domain.FactorLongevity:         0.0,
			domain.FactorRevenueElasticity: 0.6,
			domain.FactorHealthCostGrowth:  -0.2,
		},
		Persistence: map[domain.Factor]float64{
			domain.FactorGDPGrowth:         0.4,
			domain.FactorInflation:         0.6,
			domain.FactorInterestRate:      0.7,
			domain.FactorLongevity:         0.0,
			domain.FactorRevenueElasticity: 0.2,
			domain.FactorHealthCostGrowth:  0.5,
		},
	}
}

// CorrelationMatrix builds the factor correlation matrix in AllFactors order.
func (m CorrelationModel) CorrelationMatrix() ([][]float64, error) {
	n := domain.NumFactors()
	if m.Matrix != nil {
		if len(m.Matrix) != n {
			return nil, &domain.ValidationError{Field: "correlation.matrix", Value: len(m.Matrix), Reason: fmt.Sprintf("need %d rows", n)}
		}
		out := make([][]float64, n)
		for i, row := range m.Matrix {
			if len(row) != n {
				return nil, &domain.ValidationError{Field: "correlation.matrix", Value: len(row), Reason: fmt.Sprintf("row %d needs %d columns", i, n)}
			}
			out[i] = append([]float64(nil), row...)
		}
		return out, nil
	}

	loadings := make([]float64, n)
	for i, f := range domain.AllFactors() {
		l := m.Loadings[f]
		if l <= -1 || l >= 1 {
			return nil, &domain.ValidationError{Field: "correlation.loadings." + string(f), Value: l, Reason: "loading must lie in (-1, 1)"}
		}
		loadings[i] = l
	}
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			if i == j {
				out[i][j] = 1
			} else {
				out[i][j] = loadings[i] * loadings[j]
			}
		}
	}
	return out, nil
}

// persistence returns AR(1) coefficients in AllFactors order.
func (m CorrelationModel) persistence() ([]float64, error) {
	out := make([]float64, domain.NumFactors())
	for i, f := range domain.AllFactors() {
		rho := m.Persistence[f]
		if rho < 0 || rho >= 1 {
			return nil, &domain.ValidationError{Field: "correlation.persistence." + string(f), Value: rho, Reason: "persistence must lie in [0, 1)"}
		}
		out[i] = rho
	}
	return out, nil
}

// cholesky returns the lower-triangular L with L*Lᵀ = a. The matrix must be a
// symmetric positive-definite correlation matrix.
func cholesky(a [][]float64) ([][]float64, error) {
	n := len(a)
	for i := 0; i < n; i++ {
		if math.Abs(a[i][i]-1) > 1e-9 {
			return nil, &domain.ValidationError{Field: "correlation.matrix", Value: a[i][i], Reason: fmt.Sprintf("diagonal entry %d must be 1", i)}
		}
		for j := 0; j < i; j++ {
			if math.Abs(a[i][j]-a[j][i]) > 1e-9 {
				return nil, &domain.ValidationError{Field: "correlation.matrix", Value: a[i][j], Reason: fmt.Sprintf("entry (%d,%d) is not symmetric", i, j)}
			}
		}
	}

	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := a[i][j]
			for k := 0; k < j; k++ {
				sum -= l[i][k] * l[j][k]
			}
			if i == j {
				if sum <= 0 {
					return nil, &domain.ValidationError{Field: "correlation.matrix", Value: sum, Reason: "matrix is not positive definite"}
				}
				l[i][i] = math.Sqrt(sum)
			} else {
				l[i][j] = sum / l[j][j]
			}
		}
	}
	return l, nil
}
