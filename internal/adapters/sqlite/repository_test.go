package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqliteadapter "github.com/csg33k/paytax/internal/adapters/sqlite"
	"github.com/csg33k/paytax/internal/domain"
	"github.com/csg33k/paytax/internal/engine"
	"github.com/csg33k/paytax/internal/ports"
	"github.com/csg33k/paytax/internal/taxtable"
)

func openRepo(t *testing.T) *sqliteadapter.Repository {
	t.Helper()
	repo, err := sqliteadapter.New(filepath.Join(t.TempDir(), "paytax.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func TestRepository_ImplementsPorts(t *testing.T) {
	var _ ports.TaxTableStore = (*sqliteadapter.Repository)(nil)
	var _ ports.CalculationRecorder = (*sqliteadapter.Repository)(nil)
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	repo := openRepo(t)
	require.NoError(t, repo.EnsureSchema(context.Background()))
}

func TestLoadYear_NotFound(t *testing.T) {
	repo := openRepo(t)
	_, err := repo.LoadYear(context.Background(), 2024)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSaveLoadYear(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)

	want, _ := taxtable.ForYear(2024)
	require.NoError(t, repo.SaveYear(ctx, want))

	got, err := repo.LoadYear(ctx, 2024)
	require.NoError(t, err)
	require.NoError(t, got.Validate())
	assert.Equal(t, taxtable.SourceStore, got.Source)
	assert.True(t, got.FICA.SocialSecurityWageCap.Equal(want.FICA.SocialSecurityWageCap))
	assert.True(t, got.Allowance.AdjustmentRate.Equal(want.Allowance.AdjustmentRate))
	assert.Len(t, got.Federal, len(want.Federal))
	assert.Len(t, got.State, len(want.State))
	assert.Empty(t, got.State["TX"])
	assert.Len(t, got.State["CA"], len(want.State["CA"]))
	assert.Nil(t, got.Federal[domain.Single][6].Max)

	// Tables read back from the store compute the same taxes.
	fromStore, err := engine.New(got)
	require.NoError(t, err)
	builtin, err := engine.New(want)
	require.NoError(t, err)
	req := domain.PayrollRequest{
		GrossIncome:  decimal.RequireFromString("3846.15"),
		PayFrequency: domain.Biweekly,
		FilingStatus: domain.HeadOfHousehold,
		Allowances:   2,
		State:        "CA",
		YTDEarnings:  decimal.RequireFromString("197000"),
	}
	a, err := fromStore.Calculate(req)
	require.NoError(t, err)
	b, err := builtin.Calculate(req)
	require.NoError(t, err)
	assert.Equal(t, b.JSON(), a.JSON())
}

func TestSaveYear_Replaces(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)

	first, _ := taxtable.ForYear(2024)
	require.NoError(t, repo.SaveYear(ctx, first))

	second, _ := taxtable.ForYear(2024)
	second.FICA.SocialSecurityWageCap = decimal.NewFromInt(170000)
	delete(second.State, "CA")
	require.NoError(t, repo.SaveYear(ctx, second))

	got, err := repo.LoadYear(ctx, 2024)
	require.NoError(t, err)
	assert.True(t, got.FICA.SocialSecurityWageCap.Equal(decimal.NewFromInt(170000)))
	assert.NotContains(t, got.State, "CA")
}

func TestListYears(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)

	years, err := repo.ListYears(ctx)
	require.NoError(t, err)
	assert.Empty(t, years)

	for _, y := range []int{2025, 2023} {
		tt, _ := taxtable.ForYear(y)
		require.NoError(t, repo.SaveYear(ctx, tt))
	}
	years, err = repo.ListYears(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2023, 2025}, years)
}

func TestRecordAndListCalculations(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)

	tables, _ := taxtable.ForYear(2024)
	e, err := engine.New(tables)
	require.NoError(t, err)
	req := domain.PayrollRequest{
		GrossIncome:  decimal.RequireFromString("3846.15"),
		PayFrequency: domain.Biweekly,
		FilingStatus: domain.Single,
		State:        "ca",
		YTDEarnings:  decimal.Zero,
	}
	res, err := e.Calculate(req)
	require.NoError(t, err)

	require.NoError(t, repo.RecordCalculation(ctx, "run-1", "emp-1", req, res))
	require.NoError(t, repo.RecordCalculation(ctx, "run-1", "emp-2", req, res))
	require.NoError(t, repo.RecordCalculation(ctx, "run-2", "emp-3", req, res))

	list, err := repo.ListCalculations(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "emp-1", list[0].EmployeeID)
	assert.Equal(t, "emp-2", list[1].EmployeeID)
	assert.Equal(t, "CA", list[0].Request.State)
	assert.Equal(t, domain.Biweekly, list[0].Request.PayFrequency)
	assert.Equal(t, res.JSON(), list[0].Result.JSON())
	assert.False(t, list[0].CreatedAt.IsZero())

	none, err := repo.ListCalculations(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}
