// Package engine computes per-period payroll taxes: federal withholding,
// state income tax and FICA, from one pay-period request and one year's
// tables. An Engine is immutable once built and safe for concurrent use.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/csg33k/paytax/internal/domain"
	"github.com/csg33k/paytax/internal/taxtable"
)

type Engine struct {
	tables *taxtable.YearTables
	states map[string][]taxtable.StateBracket
	strict bool
	log    *slog.Logger
}

type Option func(*Engine)

// WithLogger sets the logger used for table problems. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithStrictPayFrequency rejects unknown pay frequencies instead of treating
// them as biweekly.
func WithStrictPayFrequency(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// New validates tables and builds an engine over them. A malformed table is
// an invariant violation: it is logged and returned wrapped in ErrInvariant.
func New(tables *taxtable.YearTables, opts ...Option) (*Engine, error) {
	e := &Engine{log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	if err := tables.Validate(); err != nil {
		e.log.Error("rejecting tax tables", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	e.tables = tables
	e.states = sortStates(tables.State)
	return e, nil
}

func (e *Engine) TaxYear() int { return e.tables.TaxYear }

// Source reports where this engine's tables came from.
func (e *Engine) Source() string { return e.tables.Source }

// Tables returns the tables the engine was built with. Callers must not mutate them.
func (e *Engine) Tables() *taxtable.YearTables { return e.tables }

// Validate checks req without calculating anything.
func (e *Engine) Validate(req domain.PayrollRequest) error {
	_, err := e.periods(req)
	return err
}

func (e *Engine) periods(req domain.PayrollRequest) (int, error) {
	if req.GrossIncome.IsNegative() {
		return 0, &ValidationError{Field: "gross_income", Reason: "must not be negative"}
	}
	if req.YTDEarnings.IsNegative() {
		return 0, &ValidationError{Field: "ytd_earnings", Reason: "must not be negative"}
	}
	if req.PayFrequency == "" {
		return 0, &ValidationError{Field: "pay_frequency", Reason: "is required"}
	}
	if req.FilingStatus == "" {
		return 0, &ValidationError{Field: "filing_status", Reason: "is required"}
	}
	if domain.NormalizeState(req.State) == "" {
		return 0, &ValidationError{Field: "state", Reason: "is required"}
	}
	n, known := req.PayFrequency.PeriodsPerYear()
	if !known {
		if e.strict {
			return 0, &ValidationError{Field: "pay_frequency", Reason: fmt.Sprintf("%q is not weekly, biweekly, semimonthly or monthly", req.PayFrequency)}
		}
		e.log.Debug("unknown pay frequency, using biweekly", "pay_frequency", req.PayFrequency)
	}
	return n, nil
}

// Calculate computes one pay period. Federal and state tax are worked out on
// annualised income and spread back over the periods; FICA is worked on the
// period itself against year-to-date earnings. Amounts are rounded to cents
// only when the result is assembled.
func (e *Engine) Calculate(req domain.PayrollRequest) (domain.PayrollResult, error) {
	n, err := e.periods(req)
	if err != nil {
		return domain.PayrollResult{}, err
	}
	periods := decimal.NewFromInt(int64(n))
	gross := req.GrossIncome
	annual := gross.Mul(periods)

	federal := e.FederalTax(annual, req.FilingStatus, req.Allowances).Div(periods)
	state := e.StateTax(annual, req.State).Div(periods)
	fica := e.FICA(gross, req.YTDEarnings)

	total := federal.Add(state).Add(fica.SocialSecurity).Add(fica.Medicare)
	net := gross.Sub(total)

	return domain.PayrollResult{
		GrossIncome:       cents(gross),
		FederalIncomeTax:  cents(federal),
		StateIncomeTax:    cents(state),
		SocialSecurityTax: cents(fica.SocialSecurity),
		MedicareTax:       cents(fica.Medicare),
		TotalTaxes:        cents(total),
		NetPay:            cents(net),
		PayPeriodsPerYear: n,
		TaxYear:           e.tables.TaxYear,
		AnnualProjection: domain.AnnualProjection{
			GrossIncome:       cents(annual),
			FederalIncomeTax:  cents(federal.Mul(periods)),
			StateIncomeTax:    cents(state.Mul(periods)),
			SocialSecurityTax: cents(fica.SocialSecurity.Mul(periods)),
			MedicareTax:       cents(fica.Medicare.Mul(periods)),
			TotalTaxes:        cents(total.Mul(periods)),
			NetPay:            cents(net.Mul(periods)),
		},
	}, nil
}

func cents(d decimal.Decimal) decimal.Decimal { return d.Round(2) }
