package calculation

import (
	"math"

	"github.com/rpgo/fiscal-projection/internal/domain"
)

// TrustFund advances one entitlement trust fund through the
// Solvent -> Depleting -> Depleted state machine. Step is the only mutator.
type TrustFund struct {
	state domain.TrustFundState
}

// NewTrustFund starts a fund in the Solvent state with the given reserves.
func NewTrustFund(fund domain.Fund, balance float64) *TrustFund {
	return &TrustFund{state: domain.TrustFundState{Fund: fund, Balance: balance, Status: domain.FundSolvent}}
}

// Step advances the fund through projection year (1-based) and returns the
// outgo actually paid.
//
// balance(t+1) = balance(t) + income + balance(t)*rate - outgo. In the first
// year that balance would go negative the fund becomes Depleted and records the
// year. From then on paid outgo is capped at that year's income, so reserves
// never go negative. Depleted is terminal.
func (tf *TrustFund) Step(year int, income, outgo, rate float64) float64 {
	s := &tf.state
	interest := s.Balance * rate
	next := s.Balance + income + interest - outgo

	if s.Status == domain.FundDepleted || next < 0 {
		if s.Status != domain.FundDepleted {
			s.Status = domain.FundDepleted
			y := year
			s.DepletionYear = &y
		}
		paid := math.Min(outgo, math.Max(income, 0))
		s.Balance = math.Max(s.Balance+interest+income-paid, 0)
		return paid
	}

	s.Balance = next
	if income < outgo {
		s.Status = domain.FundDepleting
	} else {
		s.Status = domain.FundSolvent
	}
	return outgo
}

// State returns a copy of the current fund state.
func (tf *TrustFund) State() domain.TrustFundState {
	out := tf.state
	if out.DepletionYear != nil {
		y := *out.DepletionYear
		out.DepletionYear = &y
	}
	return out
}
