package engine

import (
	"github.com/shopspring/decimal"

	"github.com/csg33k/paytax/internal/domain"
	"github.com/csg33k/paytax/internal/taxtable"
)

// StateTax returns annual state income tax. Unknown states and states with an
// empty table owe nothing; that mirrors states without an income tax.
func (e *Engine) StateTax(annualIncome decimal.Decimal, stateCode string) decimal.Decimal {
	brackets := e.states[domain.NormalizeState(stateCode)]
	if len(brackets) == 0 || !annualIncome.IsPositive() {
		return decimal.Zero
	}

	tax := decimal.Zero
	for i, b := range brackets {
		if !annualIncome.GreaterThan(b.Threshold) {
			break
		}
		taxable := annualIncome.Sub(b.Threshold)
		if i+1 < len(brackets) {
			taxable = decimal.Min(taxable, brackets[i+1].Threshold.Sub(b.Threshold))
		}
		tax = tax.Add(taxable.Mul(b.Rate))
	}
	return tax
}

// sortStates copies every state table in ascending threshold order so the
// hot path never sorts.
func sortStates(st taxtable.StateTable) map[string][]taxtable.StateBracket {
	out := make(map[string][]taxtable.StateBracket, len(st))
	for code, brackets := range st {
		out[domain.NormalizeState(code)] = taxtable.SortedStateBrackets(brackets)
	}
	return out
}
