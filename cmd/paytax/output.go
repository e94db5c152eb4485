package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"github.com/csg33k/paytax/internal/batch"
	"github.com/csg33k/paytax/internal/domain"
)

var (
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

func printResult(w io.Writer, req domain.PayrollRequest, res domain.PayrollResult) {
	fmt.Fprintf(w, "\n%s\n\n", cyan(fmt.Sprintf("=== Pay Period, Tax Year %d ===", res.TaxYear)))
	fmt.Fprintf(w, "  %s %s, %s, %s, %d periods/year\n\n",
		gray("Request:"), req.PayFrequency, req.FilingStatus, domain.NormalizeState(req.State), res.PayPeriodsPerYear)

	fmt.Fprintf(w, "  %-22s %14s %14s\n", "", yellow("Period"), yellow("Annual"))
	a := res.AnnualProjection
	row(w, "Gross income", res.GrossIncome, a.GrossIncome)
	row(w, "Federal income tax", res.FederalIncomeTax, a.FederalIncomeTax)
	row(w, "State income tax", res.StateIncomeTax, a.StateIncomeTax)
	row(w, "Social Security", res.SocialSecurityTax, a.SocialSecurityTax)
	row(w, "Medicare", res.MedicareTax, a.MedicareTax)
	row(w, "Total taxes", res.TotalTaxes, a.TotalTaxes)
	fmt.Fprintf(w, "  %-22s %14s %14s\n\n", "Net pay", green(res.NetPay.StringFixed(2)), green(a.NetPay.StringFixed(2)))
}

func row(w io.Writer, label string, period, annual decimal.Decimal) {
	fmt.Fprintf(w, "  %-22s %14s %14s\n", label, period.StringFixed(2), annual.StringFixed(2))
}

func printReport(w io.Writer, r *batch.Report) {
	fmt.Fprintf(w, "\n%s\n", cyan("=== Batch Run ==="))
	fmt.Fprintf(w, "  Run: %s\n\n", r.RunID)
	for _, o := range r.Outcomes {
		id := o.EmployeeID
		if id == "" {
			id = gray("(no id)")
		}
		if o.Err != nil {
			fmt.Fprintf(w, "  %s %-16s %s\n", red("✗"), id, red(o.Err.Error()))
			continue
		}
		fmt.Fprintf(w, "  %s %-16s gross %12s  taxes %12s  net %12s\n", green("✓"), id,
			o.Result.GrossIncome.StringFixed(2), o.Result.TotalTaxes.StringFixed(2), o.Result.NetPay.StringFixed(2))
	}
	t := r.Totals
	fmt.Fprintf(w, "\n  %s %d entries, %s succeeded", yellow("Totals:"), t.Entries, green(t.Succeeded))
	if t.Failed > 0 {
		fmt.Fprintf(w, ", %s failed", red(t.Failed))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Gross %s  Taxes %s  Net %s\n\n",
		t.GrossIncome.StringFixed(2), t.TotalTaxes.StringFixed(2), green(t.NetPay.StringFixed(2)))
}

func printYears(w io.Writer, stored []int, years []domain.TaxYearInfo, defaultYear int) {
	inStore := make(map[int]bool, len(stored))
	for _, y := range stored {
		inStore[y] = true
	}
	fmt.Fprintf(w, "\n%s\n\n", cyan("=== Tax Years ==="))
	for _, y := range years {
		mark := " "
		if y.Year == defaultYear {
			mark = green("*")
		}
		stored := gray("not stored")
		if inStore[y.Year] {
			stored = "stored"
		}
		fmt.Fprintf(w, "  %s %d  %-9s %s\n", mark, y.Year, y.Source, stored)
	}
	fmt.Fprintln(w)
}
