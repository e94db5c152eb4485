package domain

import "github.com/shopspring/decimal"

// PayrollRequestJSON is the wire shape accepted by the HTTP API and the CLI.
// Pointer fields distinguish "absent" from zero.
type PayrollRequestJSON struct {
	GrossIncome  *float64 `json:"gross_income"`
	PayFrequency string   `json:"pay_frequency"`
	FilingStatus string   `json:"filing_status"`
	Allowances   int      `json:"allowances"`
	State        string   `json:"state"`
	Year         int      `json:"year"`
	YTDEarnings  float64  `json:"ytd_earnings"`
}

// Request converts the wire shape. Callers check GrossIncome for nil first;
// a missing value converts to zero.
func (j PayrollRequestJSON) Request() PayrollRequest {
	gross := decimal.Zero
	if j.GrossIncome != nil {
		gross = decimal.NewFromFloat(*j.GrossIncome)
	}
	return PayrollRequest{
		GrossIncome:  gross,
		PayFrequency: PayFrequency(j.PayFrequency),
		FilingStatus: FilingStatus(j.FilingStatus),
		Allowances:   j.Allowances,
		State:        j.State,
		TaxYear:      j.Year,
		YTDEarnings:  decimal.NewFromFloat(j.YTDEarnings),
	}
}

type AnnualProjectionJSON struct {
	GrossIncome       float64 `json:"gross_income"`
	FederalIncomeTax  float64 `json:"federal_income_tax"`
	StateIncomeTax    float64 `json:"state_income_tax"`
	SocialSecurityTax float64 `json:"social_security_tax"`
	MedicareTax       float64 `json:"medicare_tax"`
	TotalTaxes        float64 `json:"total_taxes"`
	NetPay            float64 `json:"net_pay"`
}

// PayrollResultJSON serialises money as floating-point numbers with two decimals.
type PayrollResultJSON struct {
	GrossIncome       float64              `json:"gross_income"`
	FederalIncomeTax  float64              `json:"federal_income_tax"`
	StateIncomeTax    float64              `json:"state_income_tax"`
	SocialSecurityTax float64              `json:"social_security_tax"`
	MedicareTax       float64              `json:"medicare_tax"`
	TotalTaxes        float64              `json:"total_taxes"`
	NetPay            float64              `json:"net_pay"`
	PayPeriodsPerYear int                  `json:"pay_periods_per_year"`
	TaxYear           int                  `json:"tax_year"`
	AnnualProjection  AnnualProjectionJSON `json:"annual_projection"`
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// JSON converts a result to its wire shape.
func (r PayrollResult) JSON() PayrollResultJSON {
	a := r.AnnualProjection
	return PayrollResultJSON{
		GrossIncome:       money(r.GrossIncome),
		FederalIncomeTax:  money(r.FederalIncomeTax),
		StateIncomeTax:    money(r.StateIncomeTax),
		SocialSecurityTax: money(r.SocialSecurityTax),
		MedicareTax:       money(r.MedicareTax),
		TotalTaxes:        money(r.TotalTaxes),
		NetPay:            money(r.NetPay),
		PayPeriodsPerYear: r.PayPeriodsPerYear,
		TaxYear:           r.TaxYear,
		AnnualProjection: AnnualProjectionJSON{
			GrossIncome:       money(a.GrossIncome),
			FederalIncomeTax:  money(a.FederalIncomeTax),
			StateIncomeTax:    money(a.StateIncomeTax),
			SocialSecurityTax: money(a.SocialSecurityTax),
			MedicareTax:       money(a.MedicareTax),
			TotalTaxes:        money(a.TotalTaxes),
			NetPay:            money(a.NetPay),
		},
	}
}
