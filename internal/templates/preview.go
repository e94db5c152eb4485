package templates

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/csg33k/paytax/internal/domain"
)

var previewTmpl = template.Must(template.New("preview").Funcs(template.FuncMap{
	"money": money,
}).Parse(`<div id="net-pay-preview" class="net-pay-preview">
  <table>
    <thead>
      <tr><th></th><th>This period</th><th>Annual</th></tr>
    </thead>
    <tbody>
      <tr><td>Gross pay</td><td class="mono">${{money .Result.GrossIncome}}</td><td class="mono">${{money .Result.AnnualProjection.GrossIncome}}</td></tr>
      <tr><td>Federal income tax</td><td class="mono">${{money .Result.FederalIncomeTax}}</td><td class="mono">${{money .Result.AnnualProjection.FederalIncomeTax}}</td></tr>
      <tr><td>State income tax ({{.State}})</td><td class="mono">${{money .Result.StateIncomeTax}}</td><td class="mono">${{money .Result.AnnualProjection.StateIncomeTax}}</td></tr>
      <tr><td>Social Security</td><td class="mono">${{money .Result.SocialSecurityTax}}</td><td class="mono">${{money .Result.AnnualProjection.SocialSecurityTax}}</td></tr>
      <tr><td>Medicare</td><td class="mono">${{money .Result.MedicareTax}}</td><td class="mono">${{money .Result.AnnualProjection.MedicareTax}}</td></tr>
      <tr class="total"><td>Total taxes</td><td class="mono">${{money .Result.TotalTaxes}}</td><td class="mono">${{money .Result.AnnualProjection.TotalTaxes}}</td></tr>
      <tr class="net"><td>Net pay</td><td class="mono">${{money .Result.NetPay}}</td><td class="mono">${{money .Result.AnnualProjection.NetPay}}</td></tr>
    </tbody>
  </table>
  <p class="muted">TY{{.Result.TaxYear}} · {{.Result.PayPeriodsPerYear}} pay periods</p>
</div>
`))

var previewErrorTmpl = template.Must(template.New("preview-error").Parse(
	`<div id="net-pay-preview" class="net-pay-preview error">{{.}}</div>
`))

type previewData struct {
	State  string
	Result domain.PayrollResult
}

// Preview renders the net-pay fragment for one engine result.
func Preview(req domain.PayrollRequest, res domain.PayrollResult) templ.Component {
	data := previewData{State: domain.NormalizeState(req.State), Result: res}
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return previewTmpl.Execute(w, data)
	})
}

// PreviewError renders msg in place of the fragment.
func PreviewError(msg string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return previewErrorTmpl.Execute(w, msg)
	})
}
