package engine

import (
	"github.com/shopspring/decimal"

	"github.com/csg33k/paytax/internal/domain"
)

// FederalTax returns annual federal income tax on annualIncome. Filing
// statuses without a table fall back to single. The allowance credit is taken
// off the bracket total and the result never goes below zero.
func (e *Engine) FederalTax(annualIncome decimal.Decimal, status domain.FilingStatus, allowances int) decimal.Decimal {
	if !annualIncome.IsPositive() {
		return decimal.Zero
	}
	brackets, ok := e.tables.Federal[status]
	if !ok || len(brackets) == 0 {
		brackets = e.tables.Federal[domain.Single]
	}

	tax := decimal.Zero
	remaining := annualIncome
	for _, b := range brackets {
		if !remaining.IsPositive() {
			break
		}
		portion := remaining
		if b.Max != nil {
			portion = decimal.Min(remaining, b.Max.Sub(b.Min))
		}
		tax = tax.Add(portion.Mul(b.Rate))
		remaining = remaining.Sub(portion)
	}

	tax = tax.Sub(e.tables.Allowance.Credit(allowances))
	if tax.IsNegative() {
		return decimal.Zero
	}
	return tax
}
