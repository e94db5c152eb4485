// Package taxtable defines the per-year federal, state and FICA tables the
// payroll tax engine computes against. Built-in tables cover TY2023–TY2025;
// a store or a YAML document can replace any year at startup.
package taxtable

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/csg33k/paytax/internal/domain"
)

// ErrMalformedTable is wrapped by every Validate failure.
var ErrMalformedTable = errors.New("malformed tax table")

// FederalBracket taxes income in [Min, Max) at Rate. A nil Max is unbounded.
type FederalBracket struct {
	Min  decimal.Decimal
	Max  *decimal.Decimal
	Rate decimal.Decimal
}

type FederalTable map[domain.FilingStatus][]FederalBracket

// StateBracket applies Rate to income above Threshold, up to the next threshold.
type StateBracket struct {
	Rate      decimal.Decimal
	Threshold decimal.Decimal
}

// StateTable is keyed by upper-case two-letter code. An empty slice means the
// state levies no income tax.
type StateTable map[string][]StateBracket

type FICAConfig struct {
	SocialSecurityRate          decimal.Decimal
	MedicareRate                decimal.Decimal
	AdditionalMedicareRate      decimal.Decimal
	SocialSecurityWageCap       decimal.Decimal
	AdditionalMedicareThreshold decimal.Decimal
}

// AllowancePolicy is the flat per-allowance reduction applied to annual
// federal tax: allowances × AllowanceValue × AdjustmentRate. It is a business
// stand-in, not IRS Pub 15-T withholding.
type AllowancePolicy struct {
	AllowanceValue decimal.Decimal
	AdjustmentRate decimal.Decimal
}

// Credit returns the annual reduction for n allowances. n < 0 counts as 0.
func (p AllowancePolicy) Credit(n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(n)).Mul(p.AllowanceValue).Mul(p.AdjustmentRate)
}

const (
	SourceDefaults = "defaults"
	SourceStore    = "store"
	SourceFile     = "file"
)

type YearTables struct {
	TaxYear   int
	Federal   FederalTable
	State     StateTable
	FICA      FICAConfig
	Allowance AllowancePolicy
	// Source records where the tables were loaded from.
	Source string
}

const DefaultYear = domain.DefaultTaxYear

func Supported() []int { return []int{2023, 2024, 2025} }

// ForYear returns a fresh copy of the built-in tables for year. When there is
// no exact match the DefaultYear tables are returned with ok=false.
func ForYear(year int) (*YearTables, bool) {
	build, ok := builtins[year]
	if !ok {
		build = builtins[DefaultYear]
	}
	return build(), ok
}

var builtins = map[int]func() *YearTables{
	2023: ty2023,
	2024: ty2024,
	2025: ty2025,
}

// Validate checks the structural invariants the engine relies on.
func (t *YearTables) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil tables", ErrMalformedTable)
	}
	if t.TaxYear <= 0 {
		return fmt.Errorf("%w: tax year %d", ErrMalformedTable, t.TaxYear)
	}
	if len(t.Federal[domain.Single]) == 0 {
		return fmt.Errorf("%w: TY%d has no %s federal brackets", ErrMalformedTable, t.TaxYear, domain.Single)
	}
	for status, brackets := range t.Federal {
		if err := validateFederal(brackets); err != nil {
			return fmt.Errorf("%w: TY%d federal %s: %v", ErrMalformedTable, t.TaxYear, status, err)
		}
	}
	for code, brackets := range t.State {
		if err := validateState(brackets); err != nil {
			return fmt.Errorf("%w: TY%d state %s: %v", ErrMalformedTable, t.TaxYear, code, err)
		}
	}
	f := t.FICA
	for name, v := range map[string]decimal.Decimal{
		"social security rate":          f.SocialSecurityRate,
		"medicare rate":                 f.MedicareRate,
		"additional medicare rate":      f.AdditionalMedicareRate,
		"social security wage cap":      f.SocialSecurityWageCap,
		"additional medicare threshold": f.AdditionalMedicareThreshold,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%w: TY%d %s is negative", ErrMalformedTable, t.TaxYear, name)
		}
	}
	if t.Allowance.AllowanceValue.IsNegative() || t.Allowance.AdjustmentRate.IsNegative() {
		return fmt.Errorf("%w: TY%d allowance policy is negative", ErrMalformedTable, t.TaxYear)
	}
	return nil
}

func validateFederal(brackets []FederalBracket) error {
	if len(brackets) == 0 {
		return errors.New("no brackets")
	}
	if !brackets[0].Min.IsZero() {
		return fmt.Errorf("first bracket starts at %s, want 0", brackets[0].Min)
	}
	for i, b := range brackets {
		if b.Rate.IsNegative() {
			return fmt.Errorf("bracket %d has negative rate", i)
		}
		last := i == len(brackets)-1
		if last {
			if b.Max != nil {
				return fmt.Errorf("last bracket is bounded at %s", b.Max)
			}
			continue
		}
		if b.Max == nil {
			return fmt.Errorf("bracket %d is unbounded but not last", i)
		}
		if !b.Max.GreaterThan(b.Min) {
			return fmt.Errorf("bracket %d is empty or inverted (%s-%s)", i, b.Min, b.Max)
		}
		if !brackets[i+1].Min.Equal(*b.Max) {
			return fmt.Errorf("bracket %d ends at %s but bracket %d starts at %s", i, b.Max, i+1, brackets[i+1].Min)
		}
	}
	return nil
}

func validateState(brackets []StateBracket) error {
	if len(brackets) == 0 {
		return nil
	}
	sorted := SortedStateBrackets(brackets)
	if !sorted[0].Threshold.IsZero() {
		return fmt.Errorf("first threshold is %s, want 0", sorted[0].Threshold)
	}
	for i, b := range sorted {
		if b.Rate.IsNegative() {
			return fmt.Errorf("bracket %d has negative rate", i)
		}
		if i > 0 && !b.Threshold.GreaterThan(sorted[i-1].Threshold) {
			return fmt.Errorf("threshold %s repeats", b.Threshold)
		}
	}
	return nil
}

// SortedStateBrackets returns a copy of brackets ordered by ascending threshold.
func SortedStateBrackets(brackets []StateBracket) []StateBracket {
	out := make([]StateBracket, len(brackets))
	copy(out, brackets)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Threshold.LessThan(out[j].Threshold)
	})
	return out
}
