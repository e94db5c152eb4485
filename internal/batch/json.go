package batch

import (
	"github.com/csg33k/paytax/internal/domain"
	"github.com/csg33k/paytax/internal/engine"
)

// EntryJSON is one element of a batch request body or batch file.
type EntryJSON struct {
	EmployeeID string `json:"employee_id"`
	domain.PayrollRequestJSON
}

// Entry converts the wire shape. A missing gross_income is carried as the
// entry's error so the run reports it alongside the others.
func (e EntryJSON) Entry() Entry {
	entry := Entry{EmployeeID: e.EmployeeID, Request: e.Request()}
	if e.GrossIncome == nil {
		entry.Err = &engine.ValidationError{Field: "gross_income", Reason: "is required"}
	}
	return entry
}

type OutcomeJSON struct {
	EmployeeID string                    `json:"employee_id"`
	Result     *domain.PayrollResultJSON `json:"result,omitempty"`
	Error      string                    `json:"error,omitempty"`
}

type TotalsJSON struct {
	Entries           int     `json:"entries"`
	Succeeded         int     `json:"succeeded"`
	Failed            int     `json:"failed"`
	GrossIncome       float64 `json:"gross_income"`
	FederalIncomeTax  float64 `json:"federal_income_tax"`
	StateIncomeTax    float64 `json:"state_income_tax"`
	SocialSecurityTax float64 `json:"social_security_tax"`
	MedicareTax       float64 `json:"medicare_tax"`
	TotalTaxes        float64 `json:"total_taxes"`
	NetPay            float64 `json:"net_pay"`
}

type ReportJSON struct {
	RunID   string        `json:"run_id"`
	Results []OutcomeJSON `json:"results"`
	Totals  TotalsJSON    `json:"totals"`
}

func (r *Report) JSON() ReportJSON {
	out := ReportJSON{
		RunID:   r.RunID,
		Results: make([]OutcomeJSON, len(r.Outcomes)),
		Totals: TotalsJSON{
			Entries:           r.Totals.Entries,
			Succeeded:         r.Totals.Succeeded,
			Failed:            r.Totals.Failed,
			GrossIncome:       r.Totals.GrossIncome.Round(2).InexactFloat64(),
			FederalIncomeTax:  r.Totals.FederalIncomeTax.Round(2).InexactFloat64(),
			StateIncomeTax:    r.Totals.StateIncomeTax.Round(2).InexactFloat64(),
			SocialSecurityTax: r.Totals.SocialSecurityTax.Round(2).InexactFloat64(),
			MedicareTax:       r.Totals.MedicareTax.Round(2).InexactFloat64(),
			TotalTaxes:        r.Totals.TotalTaxes.Round(2).InexactFloat64(),
			NetPay:            r.Totals.NetPay.Round(2).InexactFloat64(),
		},
	}
	for i, o := range r.Outcomes {
		oj := OutcomeJSON{EmployeeID: o.EmployeeID}
		if o.Err != nil {
			oj.Error = o.Err.Error()
		} else {
			res := o.Result.JSON()
			oj.Result = &res
		}
		out.Results[i] = oj
	}
	return out
}
