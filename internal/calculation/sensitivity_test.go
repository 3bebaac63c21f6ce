package calculation

import (
	"context"
	"math"
	"testing"

	"github.com/rpgo/fiscal-projection/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensitivity_RankedAndDeterministic(t *testing.T) {
	params := paramsFor(t, domain.KindCurrentLaw)
	mcs := NewMonteCarloSimulator(testConfig(4))
	req := RunRequest{Iterations: 40, Horizon: 6}

	a, err := mcs.Sensitivity(context.Background(), params, req)
	require.NoError(t, err)
	b, err := mcs.Sensitivity(context.Background(), params, req)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, DefaultSensitivitySeed, a.Seed)

	stepped := 0
	order := map[string]int{}
	for i, s := range params.Specs() {
		order[s.Name] = i
		if !s.Step.IsZero() {
			stepped++
		}
	}
	assert.Len(t, a.Entries, stepped)

	for i := 1; i < len(a.Entries); i++ {
		prev, cur := a.Entries[i-1], a.Entries[i]
		assert.GreaterOrEqual(t, math.Abs(prev.Impact), math.Abs(cur.Impact))
		if math.Abs(prev.Impact) == math.Abs(cur.Impact) {
			assert.Less(t, order[prev.Parameter], order[cur.Parameter], "tie broken by declaration order")
		}
	}

	impacts := a.Impacts()
	// A higher individual income tax share lowers debt/GDP.
	assert.Less(t, impacts[domain.ParamIndividualTaxRate], 0.0)
	// The payroll cap only moves trust funds, which feed debt through benefit caps at most.
	_, ok := impacts[domain.ParamPayrollTaxCap]
	assert.True(t, ok)
}

func TestSensitivity_StepsDownAtUpperBound(t *testing.T) {
	params, err := domain.NewParameterSet(domain.KindCurrentLaw, map[string]decimal.Decimal{
		domain.ParamDiscretionaryShare: decimal.RequireFromString("0.2"), // declared max
	})
	require.NoError(t, err)

	res, err := NewMonteCarloSimulator(testConfig(2)).Sensitivity(context.Background(), params, RunRequest{Iterations: 16, Horizon: 3, Seed: seedPtr(2)})
	require.NoError(t, err)

	for _, e := range res.Entries {
		if e.Parameter == domain.ParamDiscretionaryShare {
			assert.InDelta(t, 0.1975, e.PerturbedValue, 1e-12)
			assert.Less(t, e.Impact, 0.0, "less discretionary spending lowers debt")
			return
		}
	}
	t.Fatal("discretionary_share missing from sensitivity entries")
}

func TestSensitivity_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMonteCarloSimulator(testConfig(2)).Sensitivity(ctx, paramsFor(t, domain.KindCurrentLaw), RunRequest{Iterations: 10, Horizon: 3})
	assert.ErrorIs(t, err, context.Canceled)
}
