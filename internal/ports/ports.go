package ports

import (
	"context"
	"errors"
	"io"

	"github.com/csg33k/paytax/internal/domain"
	"github.com/csg33k/paytax/internal/taxtable"
)

// ErrNotFound is returned by stores when no row exists for the key.
var ErrNotFound = errors.New("not found")

// TaxTableStore persists per-year tax tables.
type TaxTableStore interface {
	// LoadYear returns ErrNotFound when the store has no tables for year.
	LoadYear(ctx context.Context, year int) (*taxtable.YearTables, error)
	// SaveYear replaces every table stored for t.TaxYear.
	SaveYear(ctx context.Context, t *taxtable.YearTables) error
	// ListYears returns stored years in ascending order.
	ListYears(ctx context.Context) ([]int, error)
}

// CalculationRecorder keeps an audit trail of batch results.
type CalculationRecorder interface {
	RecordCalculation(ctx context.Context, runID, employeeID string, req domain.PayrollRequest, res domain.PayrollResult) error
	ListCalculations(ctx context.Context, runID string) ([]domain.CalculationRecord, error)
}

// PayStubGenerator defines the pay statement output port.
type PayStubGenerator interface {
	// Generate writes a pay statement for one calculation.
	Generate(ctx context.Context, stub domain.PayStub, w io.Writer) error
}
