package shock

import (
	"errors"
	"math"
	"testing"

	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(v uint64) *uint64 { return &v }

func newGen(t *testing.T, horizon int, seed *uint64) *Generator {
	t.Helper()
	g, err := New(DefaultModel(), horizon, seed)
	require.NoError(t, err)
	return g
}

func TestGenerator_SameSeedSameDraws(t *testing.T) {
	a := newGen(t, 10, seeded(42))
	b := newGen(t, 10, seeded(42))
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.At(i).Draws, b.At(i).Draws, "iteration %d", i)
	}
	assert.True(t, a.Reproducible())
	assert.Equal(t, uint64(42), a.Seed())
}

func TestGenerator_DifferentSeedsDiffer(t *testing.T) {
	a := newGen(t, 5, seeded(1))
	b := newGen(t, 5, seeded(2))
	assert.NotEqual(t, a.At(0).Draws, b.At(0).Draws)
}

func TestGenerator_AccessOrderIndependent(t *testing.T) {
	g := newGen(t, 8, seeded(7))
	late := g.At(99)
	_ = g.At(3)
	again := g.At(99)
	assert.Equal(t, late.Draws, again.Draws)
	assert.Equal(t, 99, again.Iteration)
}

func TestGenerator_Unseeded(t *testing.T) {
	prev := seedFunc
	defer SetSeedFunc(prev)
	SetSeedFunc(func() uint64 { return 1234 })

	g := newGen(t, 3, nil)
	assert.False(t, g.Reproducible())
	assert.Equal(t, uint64(1234), g.Seed())
}

func TestGenerator_Shape(t *testing.T) {
	g := newGen(t, 12, seeded(5))
	v := g.At(0)
	require.Len(t, v.Draws, domain.NumFactors())
	for _, d := range v.Draws {
		assert.Len(t, d, 12)
	}
	assert.Len(t, v.Factor(domain.FactorInflation), 12)
}

func TestGenerator_MarginalsAndCorrelation(t *testing.T) {
	const n = 4000
	g := newGen(t, 6, seeded(2024))
	gi, ei := domain.FactorGDPGrowth.Index(), domain.FactorRevenueElasticity.Index()

	var sx, sy, sxx, syy, sxy, s5, s55 float64
	for i := 0; i < n; i++ {
		v := g.At(i)
		x, y := v.Draws[gi][0], v.Draws[ei][0]
		sx += x
		sy += y
		sxx += x * x
		syy += y * y
		sxy += x * y
		late := v.Draws[gi][5]
		s5 += late
		s55 += late * late
	}
	mx, my := sx/n, sy/n
	cov := sxy/n - mx*my
	corr := cov / math.Sqrt((sxx/n-mx*mx)*(syy/n-my*my))

	// One-factor structure: 0.8 * 0.6.
	assert.InDelta(t, 0.48, corr, 0.06)
	assert.InDelta(t, 0, mx, 0.06)

	// AR(1) keeps the marginal at unit variance in later years.
	m5 := s5 / n
	assert.InDelta(t, 0, m5, 0.06)
	assert.InDelta(t, 1, s55/n-m5*m5, 0.1)
}

func TestGenerator_ExplicitIdentityMatrix(t *testing.T) {
	k := domain.NumFactors()
	m := DefaultModel()
	m.Matrix = make([][]float64, k)
	for i := range m.Matrix {
		m.Matrix[i] = make([]float64, k)
		m.Matrix[i][i] = 1
	}
	g, err := New(m, 1, seeded(9))
	require.NoError(t, err)

	const n = 4000
	var sxy float64
	for i := 0; i < n; i++ {
		v := g.At(i)
		sxy += v.Draws[0][0] * v.Draws[4][0]
	}
	assert.InDelta(t, 0, sxy/n, 0.06)
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CorrelationModel)
		hzn    int
	}{
		{"zero horizon", func(*CorrelationModel) {}, 0},
		{"loading out of range", func(m *CorrelationModel) { m.Loadings[domain.FactorGDPGrowth] = 1.0 }, 5},
		{"persistence out of range", func(m *CorrelationModel) { m.Persistence[domain.FactorInflation] = 1.0 }, 5},
		{"not positive definite", func(m *CorrelationModel) {
			k := domain.NumFactors()
			m.Matrix = make([][]float64, k)
			for i := range m.Matrix {
				m.Matrix[i] = make([]float64, k)
				for j := range m.Matrix[i] {
					m.Matrix[i][j] = 1
				}
			}
			m.Matrix[0][1], m.Matrix[1][0] = -1, -1
		}, 5},
		{"asymmetric", func(m *CorrelationModel) {
			k := domain.NumFactors()
			m.Matrix = make([][]float64, k)
			for i := range m.Matrix {
				m.Matrix[i] = make([]float64, k)
				m.Matrix[i][i] = 1
			}
			m.Matrix[0][1] = 0.5
		}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := DefaultModel()
			tt.mutate(&m)
			_, err := New(m, tt.hzn, seeded(1))
			var ve *domain.ValidationError
			assert.True(t, errors.As(err, &ve), "got %v", err)
		})
	}
}

func TestSequence_BoundedAndRestartable(t *testing.T) {
	g := newGen(t, 4, seeded(11))
	seq, err := g.Sequence(3)
	require.NoError(t, err)
	assert.Equal(t, 3, seq.Len())

	var first [][][]float64
	for v, ok := seq.Next(); ok; v, ok = seq.Next() {
		first = append(first, v.Draws)
	}
	require.Len(t, first, 3)
	_, ok := seq.Next()
	assert.False(t, ok)

	seq.Reset()
	for i := 0; i < 3; i++ {
		v, ok := seq.Next()
		require.True(t, ok)
		assert.Equal(t, first[i], v.Draws)
	}

	v, err := seq.At(1)
	require.NoError(t, err)
	assert.Equal(t, first[1], v.Draws)
	_, err = seq.At(3)
	assert.Error(t, err)

	_, err = g.Sequence(0)
	assert.Error(t, err)
}

func TestCholesky_Reconstructs(t *testing.T) {
	corr, err := DefaultModel().CorrelationMatrix()
	require.NoError(t, err)
	l, err := cholesky(corr)
	require.NoError(t, err)
	for i := range corr {
		for j := range corr {
			var s float64
			for k := range l {
				s += l[i][k] * l[j][k]
			}
			assert.InDelta(t, corr[i][j], s, 1e-12)
		}
	}
}

func TestPriority_Deterministic(t *testing.T) {
	assert.Equal(t, Priority(42, 7), Priority(42, 7))
	assert.NotEqual(t, Priority(42, 7), Priority(42, 8))
	assert.NotEqual(t, Priority(42, 7), Priority(43, 7))
}
