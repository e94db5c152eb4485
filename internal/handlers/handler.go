package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"

	"github.com/csg33k/paytax/internal/batch"
	"github.com/csg33k/paytax/internal/domain"
	"github.com/csg33k/paytax/internal/engine"
	"github.com/csg33k/paytax/internal/metrics"
	"github.com/csg33k/paytax/internal/ports"
	"github.com/csg33k/paytax/internal/templates"
)

const (
	maxRequestBody = 1 << 20
	maxBatchBody   = 16 << 20
)

type Handler struct {
	set     *engine.Set
	runner  *batch.Runner
	stubs   ports.PayStubGenerator
	metrics *metrics.Metrics
	schema  *jsonschema.Schema
}

// New wires the HTTP surface. m may be nil.
func New(set *engine.Set, runner *batch.Runner, stubs ports.PayStubGenerator, m *metrics.Metrics) (*Handler, error) {
	schema, err := compileRequestSchema()
	if err != nil {
		return nil, err
	}
	return &Handler{set: set, runner: runner, stubs: stubs, metrics: m, schema: schema}, nil
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("GET /api/tax-years", h.taxYears)
	mux.HandleFunc("POST /api/payroll/calculate", h.calculate)
	mux.HandleFunc("POST /api/payroll/batch", h.batch)
	mux.HandleFunc("POST /api/payroll/paystub", h.payStub)
	mux.HandleFunc("GET /preview", h.preview)
	mux.Handle("GET /metrics", h.metrics.Handler())
	return h.instrument(mux)
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok\n")
}

type taxYearsResponse struct {
	DefaultYear int                  `json:"default_year"`
	Years       []domain.TaxYearInfo `json:"years"`
}

func (h *Handler) taxYears(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, taxYearsResponse{DefaultYear: h.set.DefaultYear(), Years: h.set.Years()})
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		writeError(w, &engine.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	req, err := h.decodeRequest(raw)
	if err != nil {
		h.metrics.ObserveCalculation(metrics.Outcome(err), 0)
		writeError(w, err)
		return
	}
	res, err := h.calc(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res.JSON())
}

func (h *Handler) batch(w http.ResponseWriter, r *http.Request) {
	var items []json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBody)).Decode(&items); err != nil {
		writeError(w, &engine.ValidationError{Field: "body", Reason: "must be a JSON array of payroll requests"})
		return
	}
	entries := make([]batch.Entry, len(items))
	for i, raw := range items {
		var ej batch.EntryJSON
		if err := h.checkRequest(raw); err != nil {
			_ = json.Unmarshal(raw, &ej)
			entries[i] = batch.Entry{EmployeeID: ej.EmployeeID, Err: err}
			continue
		}
		if err := json.Unmarshal(raw, &ej); err != nil {
			entries[i] = batch.Entry{Err: &engine.ValidationError{Field: "body", Reason: err.Error()}}
			continue
		}
		entries[i] = ej.Entry()
	}
	report, err := h.runner.Run(r.Context(), entries)
	if err != nil {
		slog.Error("batch run failed", "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report.JSON())
}

type payStubRequest struct {
	batch.EntryJSON
	EmployeeName string `json:"employee_name"`
	Employer     string `json:"employer"`
	PayDate      string `json:"pay_date"`
}

func (h *Handler) payStub(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		writeError(w, &engine.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	if err := h.checkRequest(raw); err != nil {
		writeError(w, err)
		return
	}
	var body payStubRequest
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(w, &engine.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	stub := domain.PayStub{
		EmployeeID:   body.EmployeeID,
		EmployeeName: body.EmployeeName,
		Employer:     body.Employer,
		Request:      body.Request(),
	}
	if body.PayDate != "" {
		if stub.PayDate, err = time.Parse(time.DateOnly, body.PayDate); err != nil {
			writeError(w, &engine.ValidationError{Field: "pay_date", Reason: "must be YYYY-MM-DD"})
			return
		}
	}
	if stub.Result, err = h.calc(stub.Request); err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := h.stubs.Generate(r.Context(), stub, &buf); err != nil {
		slog.Error("pay stub generation failed", "err", err)
		http.Error(w, err.Error(), 500)
		return
	}
	filename := fmt.Sprintf("paystub_%s_TY%d.pdf", fileSafe(stub.EmployeeID), stub.Result.TaxYear)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Write(buf.Bytes())
}

// preview renders the net-pay fragment from query parameters. Errors are
// rendered into the fragment so htmx swaps them in.
func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromQuery(r)
	if err == nil {
		var res domain.PayrollResult
		if res, err = h.calc(req); err == nil {
			render(w, r, templates.Preview(req, res))
			return
		}
	}
	render(w, r, templates.PreviewError(err.Error()))
}

// decodeRequest validates raw against the request schema and converts it.
func (h *Handler) decodeRequest(raw []byte) (domain.PayrollRequest, error) {
	if err := h.checkRequest(raw); err != nil {
		return domain.PayrollRequest{}, err
	}
	var body domain.PayrollRequestJSON
	if err := json.Unmarshal(raw, &body); err != nil {
		return domain.PayrollRequest{}, &engine.ValidationError{Field: "body", Reason: err.Error()}
	}
	if body.GrossIncome == nil {
		return domain.PayrollRequest{}, &engine.ValidationError{Field: "gross_income", Reason: "is required"}
	}
	return body.Request(), nil
}

// calc runs one calculation and records its outcome.
func (h *Handler) calc(req domain.PayrollRequest) (domain.PayrollResult, error) {
	start := time.Now()
	res, err := h.set.Calculate(req)
	h.metrics.ObserveCalculation(metrics.Outcome(err), time.Since(start))
	if err != nil && !errors.Is(err, engine.ErrValidation) {
		slog.Error("payroll calculation failed", "tax_year", req.TaxYear, "err", err)
	}
	return res, err
}

func requestFromQuery(r *http.Request) (domain.PayrollRequest, error) {
	q := r.URL.Query()
	req := domain.PayrollRequest{
		PayFrequency: domain.PayFrequency(q.Get("pay_frequency")),
		FilingStatus: domain.FilingStatus(q.Get("filing_status")),
		State:        q.Get("state"),
	}
	var err error
	if q.Get("gross_income") == "" {
		return req, &engine.ValidationError{Field: "gross_income", Reason: "is required"}
	}
	if req.GrossIncome, err = decimal.NewFromString(q.Get("gross_income")); err != nil {
		return req, &engine.ValidationError{Field: "gross_income", Reason: "must be a number"}
	}
	if s := q.Get("ytd_earnings"); s != "" {
		if req.YTDEarnings, err = decimal.NewFromString(s); err != nil {
			return req, &engine.ValidationError{Field: "ytd_earnings", Reason: "must be a number"}
		}
	}
	if s := q.Get("allowances"); s != "" {
		if req.Allowances, err = strconv.Atoi(s); err != nil {
			return req, &engine.ValidationError{Field: "allowances", Reason: "must be an integer"}
		}
	}
	if s := q.Get("year"); s != "" {
		if req.TaxYear, err = strconv.Atoi(s); err != nil {
			return req, &engine.ValidationError{Field: "year", Reason: "must be an integer"}
		}
	}
	return req, nil
}

// render writes a templ component to the response.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), 500)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps engine errors onto status codes: validation 400,
// configuration 422, anything else 500.
func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError
	var ve *engine.ValidationError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		resp.Field = ve.Field
	case errors.Is(err, engine.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrConfiguration):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response", "err", err)
	}
}

func fileSafe(s string) string {
	var b []byte
	for _, c := range []byte(s) {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b = append(b, c)
		}
	}
	if len(b) == 0 {
		return "employee"
	}
	return string(b)
}
