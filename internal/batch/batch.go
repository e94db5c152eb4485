// Package batch runs a payroll calculation for many employees at once.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/csg33k/paytax/internal/domain"
	"github.com/csg33k/paytax/internal/metrics"
	"github.com/csg33k/paytax/internal/ports"
)

const defaultWorkers = 8

// Calculator is satisfied by *engine.Engine and *engine.Set.
type Calculator interface {
	Calculate(req domain.PayrollRequest) (domain.PayrollResult, error)
}

type Entry struct {
	EmployeeID string
	Request    domain.PayrollRequest
	// Err, when set, is reported as the outcome without calculating.
	Err error
}

// Outcome is the result of one entry. Exactly one of Result and Err is set.
type Outcome struct {
	EmployeeID string
	Result     *domain.PayrollResult
	Err        error
}

// Totals sums the per-period figures of every successful entry.
type Totals struct {
	Entries           int
	Succeeded         int
	Failed            int
	GrossIncome       decimal.Decimal
	FederalIncomeTax  decimal.Decimal
	StateIncomeTax    decimal.Decimal
	SocialSecurityTax decimal.Decimal
	MedicareTax       decimal.Decimal
	TotalTaxes        decimal.Decimal
	NetPay            decimal.Decimal
}

type Report struct {
	RunID string
	// Outcomes are in input order.
	Outcomes []Outcome
	Totals   Totals
}

type Runner struct {
	calc     Calculator
	workers  int
	recorder ports.CalculationRecorder
	metrics  *metrics.Metrics
	log      *slog.Logger
	newRunID func() string
}

type Option func(*Runner)

// WithWorkers bounds concurrent calculations. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithRecorder persists every successful result under the run ID.
func WithRecorder(rec ports.CalculationRecorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithRunIDs replaces the uuid run ID generator.
func WithRunIDs(fn func() string) Option {
	return func(r *Runner) { r.newRunID = fn }
}

func NewRunner(calc Calculator, opts ...Option) *Runner {
	r := &Runner{
		calc:     calc,
		workers:  defaultWorkers,
		log:      slog.Default(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run calculates every entry. A rejected entry is reported in its Outcome
// and does not stop the run. Run itself fails only when ctx is cancelled or
// the recorder fails; the remaining entries are then abandoned.
func (r *Runner) Run(ctx context.Context, entries []Entry) (*Report, error) {
	report := &Report{
		RunID:    r.newRunID(),
		Outcomes: make([]Outcome, len(entries)),
	}
	log := r.log.With("run_id", report.RunID)
	r.metrics.ObserveBatch(len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.calculate(entry)

			out := Outcome{EmployeeID: entry.EmployeeID}
			if err != nil {
				log.Debug("entry rejected", "employee_id", entry.EmployeeID, "err", err)
				out.Err = err
				report.Outcomes[i] = out
				return nil
			}
			out.Result = &res
			report.Outcomes[i] = out

			if r.recorder != nil {
				if err := r.recorder.RecordCalculation(gctx, report.RunID, entry.EmployeeID, entry.Request, res); err != nil {
					return fmt.Errorf("record %s: %w", entry.EmployeeID, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("batch run aborted", "err", err)
		return nil, err
	}

	report.Totals = totals(report.Outcomes)
	log.Info("batch run complete",
		"entries", report.Totals.Entries,
		"succeeded", report.Totals.Succeeded,
		"failed", report.Totals.Failed)
	return report, nil
}

func (r *Runner) calculate(entry Entry) (domain.PayrollResult, error) {
	if entry.Err != nil {
		r.metrics.ObserveCalculation(metrics.Outcome(entry.Err), 0)
		return domain.PayrollResult{}, entry.Err
	}
	start := time.Now()
	res, err := r.calc.Calculate(entry.Request)
	r.metrics.ObserveCalculation(metrics.Outcome(err), time.Since(start))
	return res, err
}

func totals(outcomes []Outcome) Totals {
	t := Totals{Entries: len(outcomes)}
	for _, o := range outcomes {
		if o.Err != nil {
			t.Failed++
			continue
		}
		t.Succeeded++
		t.GrossIncome = t.GrossIncome.Add(o.Result.GrossIncome)
		t.FederalIncomeTax = t.FederalIncomeTax.Add(o.Result.FederalIncomeTax)
		t.StateIncomeTax = t.StateIncomeTax.Add(o.Result.StateIncomeTax)
		t.SocialSecurityTax = t.SocialSecurityTax.Add(o.Result.SocialSecurityTax)
		t.MedicareTax = t.MedicareTax.Add(o.Result.MedicareTax)
		t.TotalTaxes = t.TotalTaxes.Add(o.Result.TotalTaxes)
		t.NetPay = t.NetPay.Add(o.Result.NetPay)
	}
	return t
}
