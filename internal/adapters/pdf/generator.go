// Package pdf renders a one-page pay statement for a single payroll
// calculation: employee header, the period's taxes next to their annual
// projection, and net pay.
package pdf

import (
	"context"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/csg33k/paytax/internal/domain"
)

// Generator implements ports.PayStubGenerator.
type Generator struct{}

func New() *Generator { return &Generator{} }

func (g *Generator) Generate(_ context.Context, stub domain.PayStub, w io.Writer) error {
	return GeneratePayStub(stub, w)
}

// GeneratePayStub writes a single-page PDF to w.
func GeneratePayStub(stub domain.PayStub, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AddPage()
	drawStub(pdf, stub)
	return pdf.Output(w)
}

func drawStub(pdf *fpdf.Fpdf, stub domain.PayStub) {
	pageW, pageH := pdf.GetPageSize()
	marginL, marginT, marginR, marginB := pdf.GetMargins()
	contentW := pageW - marginL - marginR
	res := stub.Result
	req := stub.Request

	// ── Header bar ───────────────────────────────────────────────────────────
	pdf.SetFillColor(30, 30, 30)
	pdf.Rect(marginL, marginT, contentW, 10, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetXY(marginL+2, marginT+1.5)
	pdf.CellFormat(contentW/2, 7, "EARNINGS STATEMENT", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW/2-4, 7, "Tax Year "+fmt.Sprint(res.TaxYear), "", 1, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	y := marginT + 13

	// ── Employee section ─────────────────────────────────────────────────────
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetXY(marginL, y)
	pdf.CellFormat(contentW, 5.5, "EMPLOYEE", "LRT", 1, "L", true, 0, "")
	y += 5.5

	colHalf := contentW / 2
	name := stub.EmployeeName
	if name == "" {
		name = stub.EmployeeID
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetXY(marginL, y)
	pdf.CellFormat(colHalf, 6.5, name, "L", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(colHalf, 6.5, "Employee ID: "+stub.EmployeeID, "R", 1, "R", false, 0, "")
	y += 6.5

	pdf.SetXY(marginL, y)
	pdf.CellFormat(colHalf, 5.5, "Filing status: "+label(string(req.FilingStatus)), "L", 0, "L", false, 0, "")
	pdf.CellFormat(colHalf, 5.5, "Allowances: "+fmt.Sprint(max(req.Allowances, 0)), "R", 1, "R", false, 0, "")
	y += 5.5

	payDate := ""
	if !stub.PayDate.IsZero() {
		payDate = "Pay date: " + stub.PayDate.Format("2006-01-02")
	}
	pdf.SetXY(marginL, y)
	pdf.CellFormat(colHalf, 5.5, fmt.Sprintf("State: %s   Pay periods: %d", domain.NormalizeState(req.State), res.PayPeriodsPerYear), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(colHalf, 5.5, payDate, "RB", 1, "R", false, 0, "")
	y += 5.5 + 5

	// ── Amounts table ─────────────────────────────────────────────────────────
	descW := contentW * 0.52
	periodW := (contentW - descW) / 2
	annualW := contentW - descW - periodW

	pdf.SetFillColor(30, 30, 30)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 8.5)
	pdf.SetXY(marginL, y)
	pdf.CellFormat(descW, 7, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(periodW, 7, "This Period", "1", 0, "C", true, 0, "")
	pdf.CellFormat(annualW, 7, "Annual Projection", "1", 1, "C", true, 0, "")
	y += 7
	pdf.SetTextColor(0, 0, 0)

	type amtRow struct {
		label  string
		period decimal.Decimal
		annual decimal.Decimal
		bold   bool
	}
	a := res.AnnualProjection
	rows := []amtRow{
		{"Gross Pay", res.GrossIncome, a.GrossIncome, true},
		{"Federal Income Tax", res.FederalIncomeTax, a.FederalIncomeTax, false},
		{"State Income Tax", res.StateIncomeTax, a.StateIncomeTax, false},
		{"Social Security", res.SocialSecurityTax, a.SocialSecurityTax, false},
		{"Medicare", res.MedicareTax, a.MedicareTax, false},
		{"Total Taxes", res.TotalTaxes, a.TotalTaxes, true},
	}

	rowH := 6.5
	for i, r := range rows {
		pdf.SetXY(marginL, y)
		if i%2 == 0 {
			pdf.SetFillColor(250, 250, 250)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		if r.bold {
			pdf.SetFont("Helvetica", "B", 8.5)
		} else {
			pdf.SetFont("Helvetica", "", 8.5)
		}
		pdf.CellFormat(descW, rowH, r.label, "1", 0, "L", true, 0, "")
		pdf.CellFormat(periodW, rowH, "$"+amount(r.period), "1", 0, "R", true, 0, "")
		pdf.CellFormat(annualW, rowH, "$"+amount(r.annual), "1", 1, "R", true, 0, "")
		y += rowH
	}

	// Net pay row, highlighted.
	pdf.SetXY(marginL, y)
	pdf.SetFillColor(220, 240, 220)
	pdf.SetFont("Helvetica", "B", 9.5)
	pdf.CellFormat(descW, 8, "NET PAY", "1", 0, "L", true, 0, "")
	pdf.CellFormat(periodW, 8, "$"+amount(res.NetPay), "1", 0, "R", true, 0, "")
	pdf.CellFormat(annualW, 8, "$"+amount(a.NetPay), "1", 1, "R", true, 0, "")

	// ── Footer ─────────────────────────────────────────────────────────────────
	pdf.SetXY(marginL, pageH-marginB-6)
	pdf.SetFont("Helvetica", "I", 7.5)
	pdf.SetTextColor(130, 130, 130)
	pdf.CellFormat(contentW/2, 5, "Generated by paytax", "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 5, stub.Employer, "", 0, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// label turns "married_filing_jointly" into "Married Filing Jointly".
func label(s string) string {
	b := []byte(s)
	upper := true
	for i, c := range b {
		switch {
		case c == '_':
			b[i] = ' '
			upper = true
		case upper && c >= 'a' && c <= 'z':
			b[i] = c - 'a' + 'A'
			upper = false
		default:
			upper = false
		}
	}
	return string(b)
}
