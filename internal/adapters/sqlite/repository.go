package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/csg33k/paytax/internal/domain"
	"github.com/csg33k/paytax/internal/ports"
	"github.com/csg33k/paytax/internal/taxtable"
)

//go:embed schema.sql
var schema string

type Repository struct {
	db *sql.DB
}

// New opens the SQLite database. Migrations under db/migrations are managed
// by dbmate; EnsureSchema creates the same tables for tools that run without it.
func New(dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error { return r.db.Close() }

// EnsureSchema creates any missing tables.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// ── Tax tables ────────────────────────────────────────────────────────────────

// SaveYear replaces every row for t.TaxYear in one transaction.
func (r *Repository) SaveYear(ctx context.Context, t *taxtable.YearTables) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tax_years WHERE tax_year=?`, t.TaxYear); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO tax_years (
			tax_year, ss_rate, medicare_rate, addl_medicare_rate,
			ss_wage_cap, addl_medicare_threshold,
			allowance_value, allowance_rate, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?)`,
		t.TaxYear,
		t.FICA.SocialSecurityRate, t.FICA.MedicareRate, t.FICA.AdditionalMedicareRate,
		t.FICA.SocialSecurityWageCap, t.FICA.AdditionalMedicareThreshold,
		t.Allowance.AllowanceValue, t.Allowance.AdjustmentRate,
		time.Now(),
	)
	if err != nil {
		return err
	}

	for status, brackets := range t.Federal {
		for i, b := range brackets {
			var hi decimal.NullDecimal
			if b.Max != nil {
				hi = decimal.NewNullDecimal(*b.Max)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO federal_brackets (tax_year, filing_status, seq, min_income, max_income, rate)
				VALUES (?,?,?,?,?,?)`,
				t.TaxYear, string(status), i, b.Min, hi, b.Rate,
			); err != nil {
				return err
			}
		}
	}

	for code, brackets := range t.State {
		if _, err := tx.ExecContext(ctx, `INSERT INTO states (tax_year, code) VALUES (?,?)`, t.TaxYear, code); err != nil {
			return err
		}
		for i, b := range brackets {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO state_brackets (tax_year, code, seq, threshold, rate)
				VALUES (?,?,?,?,?)`,
				t.TaxYear, code, i, b.Threshold, b.Rate,
			); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// LoadYear reads the tables for year. It returns ports.ErrNotFound when no
// row exists. The result is not validated.
func (r *Repository) LoadYear(ctx context.Context, year int) (*taxtable.YearTables, error) {
	t := &taxtable.YearTables{
		TaxYear: year,
		Federal: make(taxtable.FederalTable),
		State:   make(taxtable.StateTable),
		Source:  taxtable.SourceStore,
	}
	err := r.db.QueryRowContext(ctx, `
		SELECT ss_rate, medicare_rate, addl_medicare_rate,
		       ss_wage_cap, addl_medicare_threshold,
		       allowance_value, allowance_rate
		FROM tax_years WHERE tax_year=?`, year).Scan(
		&t.FICA.SocialSecurityRate, &t.FICA.MedicareRate, &t.FICA.AdditionalMedicareRate,
		&t.FICA.SocialSecurityWageCap, &t.FICA.AdditionalMedicareThreshold,
		&t.Allowance.AllowanceValue, &t.Allowance.AdjustmentRate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("TY%d: %w", year, ports.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT filing_status, min_income, max_income, rate
		FROM federal_brackets WHERE tax_year=? ORDER BY filing_status, seq`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			b      taxtable.FederalBracket
			hi     decimal.NullDecimal
		)
		if err := rows.Scan(&status, &b.Min, &hi, &b.Rate); err != nil {
			return nil, err
		}
		if hi.Valid {
			b.Max = &hi.Decimal
		}
		fs := domain.FilingStatus(status)
		t.Federal[fs] = append(t.Federal[fs], b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	codes, err := r.db.QueryContext(ctx, `SELECT code FROM states WHERE tax_year=?`, year)
	if err != nil {
		return nil, err
	}
	defer codes.Close()
	for codes.Next() {
		var code string
		if err := codes.Scan(&code); err != nil {
			return nil, err
		}
		t.State[code] = []taxtable.StateBracket{}
	}
	if err := codes.Err(); err != nil {
		return nil, err
	}

	sb, err := r.db.QueryContext(ctx, `
		SELECT code, threshold, rate
		FROM state_brackets WHERE tax_year=? ORDER BY code, seq`, year)
	if err != nil {
		return nil, err
	}
	defer sb.Close()
	for sb.Next() {
		var (
			code string
			b    taxtable.StateBracket
		)
		if err := sb.Scan(&code, &b.Threshold, &b.Rate); err != nil {
			return nil, err
		}
		t.State[code] = append(t.State[code], b)
	}
	return t, sb.Err()
}

func (r *Repository) ListYears(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tax_year FROM tax_years ORDER BY tax_year`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// ── Calculations ──────────────────────────────────────────────────────────────

func (r *Repository) RecordCalculation(ctx context.Context, runID, employeeID string, req domain.PayrollRequest, res domain.PayrollResult) error {
	a := res.AnnualProjection
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO calculations (
			run_id, employee_id, tax_year,
			gross_income, pay_frequency, filing_status, allowances, state, ytd_earnings,
			federal_income_tax, state_income_tax, social_security_tax, medicare_tax,
			total_taxes, net_pay, pay_periods_per_year,
			annual_gross, annual_federal, annual_state, annual_ss, annual_medicare,
			annual_total, annual_net, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		runID, employeeID, res.TaxYear,
		req.GrossIncome, string(req.PayFrequency), string(req.FilingStatus), req.Allowances,
		domain.NormalizeState(req.State), req.YTDEarnings,
		res.FederalIncomeTax, res.StateIncomeTax, res.SocialSecurityTax, res.MedicareTax,
		res.TotalTaxes, res.NetPay, res.PayPeriodsPerYear,
		a.GrossIncome, a.FederalIncomeTax, a.StateIncomeTax, a.SocialSecurityTax, a.MedicareTax,
		a.TotalTaxes, a.NetPay, time.Now(),
	)
	return err
}

// ListCalculations returns the records of one run in insertion order.
func (r *Repository) ListCalculations(ctx context.Context, runID string) ([]domain.CalculationRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, employee_id, tax_year,
		       gross_income, pay_frequency, filing_status, allowances, state, ytd_earnings,
		       federal_income_tax, state_income_tax, social_security_tax, medicare_tax,
		       total_taxes, net_pay, pay_periods_per_year,
		       annual_gross, annual_federal, annual_state, annual_ss, annual_medicare,
		       annual_total, annual_net, created_at
		FROM calculations WHERE run_id=? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []domain.CalculationRecord
	for rows.Next() {
		var (
			c         domain.CalculationRecord
			freq, fs  string
			req       = &c.Request
			res       = &c.Result
			projected = &c.Result.AnnualProjection
		)
		if err := rows.Scan(
			&c.ID, &c.RunID, &c.EmployeeID, &res.TaxYear,
			&req.GrossIncome, &freq, &fs, &req.Allowances, &req.State, &req.YTDEarnings,
			&res.FederalIncomeTax, &res.StateIncomeTax, &res.SocialSecurityTax, &res.MedicareTax,
			&res.TotalTaxes, &res.NetPay, &res.PayPeriodsPerYear,
			&projected.GrossIncome, &projected.FederalIncomeTax, &projected.StateIncomeTax,
			&projected.SocialSecurityTax, &projected.MedicareTax,
			&projected.TotalTaxes, &projected.NetPay, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		req.PayFrequency = domain.PayFrequency(freq)
		req.FilingStatus = domain.FilingStatus(fs)
		req.TaxYear = res.TaxYear
		res.GrossIncome = req.GrossIncome.Round(2)
		list = append(list, c)
	}
	return list, rows.Err()
}
