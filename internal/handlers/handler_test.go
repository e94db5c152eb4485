package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/paytax/internal/adapters/pdf"
	"github.com/csg33k/paytax/internal/batch"
	"github.com/csg33k/paytax/internal/domain"
	"github.com/csg33k/paytax/internal/engine"
	"github.com/csg33k/paytax/internal/handlers"
	"github.com/csg33k/paytax/internal/metrics"
	"github.com/csg33k/paytax/internal/taxtable"
)

// ---- Helpers ----

func newServer(t *testing.T) (*httptest.Server, *metrics.Metrics) {
	t.Helper()
	var tables []*taxtable.YearTables
	for _, y := range taxtable.Supported() {
		tt, _ := taxtable.ForYear(y)
		tables = append(tables, tt)
	}
	set, err := engine.NewSet(2024, tables)
	require.NoError(t, err)
	m := metrics.New()
	runner := batch.NewRunner(set, batch.WithWorkers(2), batch.WithMetrics(m))
	h, err := handlers.New(set, runner, pdf.New(), m)
	require.NoError(t, err)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, m
}

func post(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

const caBiweekly = `{
	"gross_income": 3846.15,
	"pay_frequency": "biweekly",
	"filing_status": "single",
	"allowances": 0,
	"state": "CA",
	"year": 2024,
	"ytd_earnings": 0
}`

// ---- Tests ----

func TestCalculate(t *testing.T) {
	srv, _ := newServer(t)
	resp := post(t, srv, "/api/payroll/calculate", caBiweekly)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	got := decode[domain.PayrollResultJSON](t, resp)
	assert.Equal(t, 3846.15, got.GrossIncome)
	assert.Equal(t, 655.88, got.FederalIncomeTax)
	assert.Equal(t, 224.71, got.StateIncomeTax)
	assert.Equal(t, 238.46, got.SocialSecurityTax)
	assert.Equal(t, 55.77, got.MedicareTax)
	assert.Equal(t, 1174.82, got.TotalTaxes)
	assert.Equal(t, 2671.33, got.NetPay)
	assert.Equal(t, 26, got.PayPeriodsPerYear)
	assert.Equal(t, 2024, got.TaxYear)
	assert.Equal(t, 17052.98, got.AnnualProjection.FederalIncomeTax)
	assert.Equal(t, 69454.58, got.AnnualProjection.NetPay)
}

func TestCalculate_DefaultsYear(t *testing.T) {
	srv, _ := newServer(t)
	resp := post(t, srv, "/api/payroll/calculate", `{"gross_income": 1000, "pay_frequency": "weekly", "filing_status": "single", "state": "TX"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[domain.PayrollResultJSON](t, resp)
	assert.Equal(t, 2024, got.TaxYear)
	assert.Equal(t, 0.0, got.StateIncomeTax)
	assert.Equal(t, 52, got.PayPeriodsPerYear)
}

func TestCalculate_Errors(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		wantCode  int
		wantField string
	}{
		{"not json", `{"gross_income":`, http.StatusBadRequest, "body"},
		{"missing gross", `{"pay_frequency": "weekly", "filing_status": "single", "state": "CA"}`, http.StatusBadRequest, "body"},
		{"negative gross", `{"gross_income": -5, "pay_frequency": "weekly", "filing_status": "single", "state": "CA"}`, http.StatusBadRequest, "gross_income"},
		{"gross as string", `{"gross_income": "100", "pay_frequency": "weekly", "filing_status": "single", "state": "CA"}`, http.StatusBadRequest, "gross_income"},
		{"empty state", `{"gross_income": 100, "pay_frequency": "weekly", "filing_status": "single", "state": ""}`, http.StatusBadRequest, "state"},
		{"blank state", `{"gross_income": 100, "pay_frequency": "weekly", "filing_status": "single", "state": "  "}`, http.StatusBadRequest, "state"},
		{"unknown year", `{"gross_income": 100, "pay_frequency": "weekly", "filing_status": "single", "state": "CA", "year": 1999}`, http.StatusUnprocessableEntity, ""},
	}
	srv, _ := newServer(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := post(t, srv, "/api/payroll/calculate", tc.body)
			assert.Equal(t, tc.wantCode, resp.StatusCode)
			body := decode[errorBody](t, resp)
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, tc.wantField, body.Field)
		})
	}
}

func TestTaxYears(t *testing.T) {
	srv, _ := newServer(t)
	resp := get(t, srv, "/api/tax-years")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[struct {
		DefaultYear int                  `json:"default_year"`
		Years       []domain.TaxYearInfo `json:"years"`
	}](t, resp)
	assert.Equal(t, 2024, got.DefaultYear)
	assert.Equal(t, []domain.TaxYearInfo{
		{Year: 2023, Source: "defaults"},
		{Year: 2024, Source: "defaults"},
		{Year: 2025, Source: "defaults"},
	}, got.Years)
}

func TestBatch(t *testing.T) {
	srv, _ := newServer(t)
	body := `[
		{"employee_id": "e1", "gross_income": 3846.15, "pay_frequency": "biweekly", "filing_status": "single", "state": "CA"},
		{"employee_id": "e2", "gross_income": -1, "pay_frequency": "biweekly", "filing_status": "single", "state": "CA"},
		{"employee_id": "e3", "gross_income": 2000, "pay_frequency": "monthly", "filing_status": "head_of_household", "state": "TX", "year": 2025}
	]`
	resp := post(t, srv, "/api/payroll/batch", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[batch.ReportJSON](t, resp)

	assert.Len(t, got.RunID, 36)
	require.Len(t, got.Results, 3)
	assert.Equal(t, "e1", got.Results[0].EmployeeID)
	require.NotNil(t, got.Results[0].Result)
	assert.Equal(t, 2671.33, got.Results[0].Result.NetPay)
	assert.Equal(t, "e2", got.Results[1].EmployeeID)
	assert.Nil(t, got.Results[1].Result)
	assert.Contains(t, got.Results[1].Error, "gross_income")
	require.NotNil(t, got.Results[2].Result)
	assert.Equal(t, 2025, got.Results[2].Result.TaxYear)
	assert.Equal(t, 3, got.Totals.Entries)
	assert.Equal(t, 2, got.Totals.Succeeded)
	assert.Equal(t, 1, got.Totals.Failed)
	assert.Equal(t, 5846.15, got.Totals.GrossIncome)
}

func TestBatch_NotAnArray(t *testing.T) {
	srv, _ := newServer(t)
	resp := post(t, srv, "/api/payroll/batch", caBiweekly)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPayStub(t *testing.T) {
	srv, _ := newServer(t)
	body := `{"employee_id": "E/7", "employee_name": "Jane Doe", "employer": "Acme", "pay_date": "2024-03-15",
		"gross_income": 3846.15, "pay_frequency": "biweekly", "filing_status": "single", "state": "CA"}`
	resp := post(t, srv, "/api/payroll/paystub", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="paystub_E7_TY2024.pdf"`)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-")))
}

func TestPayStub_BadDate(t *testing.T) {
	srv, _ := newServer(t)
	body := `{"pay_date": "15/03/2024", "gross_income": 100, "pay_frequency": "weekly", "filing_status": "single", "state": "CA"}`
	resp := post(t, srv, "/api/payroll/paystub", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "pay_date", decode[errorBody](t, resp).Field)
}

func TestPreview(t *testing.T) {
	srv, _ := newServer(t)
	resp := get(t, srv, "/preview?gross_income=3846.15&pay_frequency=biweekly&filing_status=single&state=CA&year=2024")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "$2,671.33")
	assert.Contains(t, string(raw), "$238.46")
}

func TestPreview_RendersErrors(t *testing.T) {
	srv, _ := newServer(t)
	resp := get(t, srv, "/preview?gross_income=abc&pay_frequency=biweekly&filing_status=single&state=CA")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "gross_income must be a number")
}

func TestHealthzAndMetrics(t *testing.T) {
	srv, _ := newServer(t)
	resp := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	post(t, srv, "/api/payroll/calculate", caBiweekly)
	post(t, srv, "/api/payroll/calculate", `{"gross_income": -1, "pay_frequency": "weekly", "filing_status": "single", "state": "CA"}`)

	resp = get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, `paytax_calculations_total{outcome="ok"} 1`)
	assert.Contains(t, text, `paytax_calculations_total{outcome="invalid"} 1`)
	assert.Contains(t, text, `paytax_http_requests_total{code="200",route="GET /healthz"} 1`)
	assert.Contains(t, text, `paytax_http_requests_total{code="400",route="POST /api/payroll/calculate"} 1`)
}
