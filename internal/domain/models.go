package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultTaxYear = 2024

// TaxYearInfo carries a supported tax year and where its tables came from.
// Populated by the table loader so handlers and templates can list years.
type TaxYearInfo struct {
	Year   int    `json:"year"`
	Source string `json:"source"` // "file", "store" or "defaults"
}

type FilingStatus string

const (
	Single                  FilingStatus = "single"
	MarriedFilingJointly    FilingStatus = "married_filing_jointly"
	MarriedFilingSeparately FilingStatus = "married_filing_separately"
	HeadOfHousehold         FilingStatus = "head_of_household"
)

// FilingStatuses lists every status a federal table is expected to define.
func FilingStatuses() []FilingStatus {
	return []FilingStatus{Single, MarriedFilingJointly, MarriedFilingSeparately, HeadOfHousehold}
}

// Known reports whether s is one of the four IRS filing statuses.
func (s FilingStatus) Known() bool {
	switch s {
	case Single, MarriedFilingJointly, MarriedFilingSeparately, HeadOfHousehold:
		return true
	}
	return false
}

type PayFrequency string

const (
	Weekly      PayFrequency = "weekly"
	Biweekly    PayFrequency = "biweekly"
	Semimonthly PayFrequency = "semimonthly"
	Monthly     PayFrequency = "monthly"
)

// DefaultPayFrequency is used when a request names a frequency we don't know.
const DefaultPayFrequency = Biweekly

// PeriodsPerYear returns the number of pay periods for f and whether f was
// recognised. Unknown frequencies report the biweekly count (26).
func (f PayFrequency) PeriodsPerYear() (int, bool) {
	switch f {
	case Weekly:
		return 52, true
	case Biweekly:
		return 26, true
	case Semimonthly:
		return 24, true
	case Monthly:
		return 12, true
	}
	return 26, false
}

// NormalizeState upper-cases and trims a two-letter state code.
func NormalizeState(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// PayrollRequest is one pay period for one employee.
type PayrollRequest struct {
	GrossIncome  decimal.Decimal
	PayFrequency PayFrequency
	FilingStatus FilingStatus
	// Allowances feeds the simplified allowance adjustment; negative values count as zero.
	Allowances int
	State      string
	// TaxYear selects the tables; 0 means the engine's default year.
	TaxYear int
	// YTDEarnings is gross pay already earned this year before this period.
	YTDEarnings decimal.Decimal
}

// AnnualProjection mirrors the per-period figures multiplied out to a full year.
type AnnualProjection struct {
	GrossIncome       decimal.Decimal
	FederalIncomeTax  decimal.Decimal
	StateIncomeTax    decimal.Decimal
	SocialSecurityTax decimal.Decimal
	MedicareTax       decimal.Decimal
	TotalTaxes        decimal.Decimal
	NetPay            decimal.Decimal
}

// PayrollResult holds cent-rounded figures for one pay period.
type PayrollResult struct {
	GrossIncome       decimal.Decimal
	FederalIncomeTax  decimal.Decimal
	StateIncomeTax    decimal.Decimal
	SocialSecurityTax decimal.Decimal
	MedicareTax       decimal.Decimal
	TotalTaxes        decimal.Decimal
	NetPay            decimal.Decimal
	PayPeriodsPerYear int
	TaxYear           int
	AnnualProjection  AnnualProjection
}

// CalculationRecord is a persisted result from a payroll run.
type CalculationRecord struct {
	ID         int64
	RunID      string
	EmployeeID string
	Request    PayrollRequest
	Result     PayrollResult
	CreatedAt  time.Time
}

// PayStub is one employee's pay statement for a single period.
type PayStub struct {
	EmployeeID   string
	EmployeeName string
	Employer     string
	PayDate      time.Time
	Request      PayrollRequest
	Result       PayrollResult
}
