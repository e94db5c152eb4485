// Command paytax runs payroll tax calculations and manages the tax table
// store from the command line.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	sqliteadapter "github.com/csg33k/paytax/internal/adapters/sqlite"
	"github.com/csg33k/paytax/internal/config"
	"github.com/csg33k/paytax/internal/engine"
	"github.com/csg33k/paytax/internal/loader"
)

var (
	cfg    *config.Config
	logger *slog.Logger
	dbPath string
)

var rootCmd = &cobra.Command{
	Use:   "paytax",
	Short: "Payroll tax calculator",
	Long: `Calculate federal, state and FICA withholding for a pay period,
run batches of employees, and manage the stored tax tables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(cmd.Context()); err != nil {
			return err
		}
		if dbPath != "" {
			cfg.DBPath = dbPath
		}
		level, _ := cfg.Level()
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides PAYTAX_DB_PATH)")
}

// openStore opens the configured database and makes sure the schema exists.
func openStore(ctx context.Context) (*sqliteadapter.Repository, error) {
	repo, err := sqliteadapter.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("prepare database: %w", err)
	}
	return repo, nil
}

// loadSet builds the engines the same way the server does.
func loadSet(ctx context.Context, repo *sqliteadapter.Repository) (*engine.Set, error) {
	return loader.Load(ctx, loader.Options{
		Store:       repo,
		TablesFile:  cfg.TablesFile,
		DefaultYear: cfg.TaxYear,
		Allowance:   cfg.AllowanceOverride,
		Logger:      logger,
		Engine:      []engine.Option{engine.WithStrictPayFrequency(cfg.StrictPayFrequency)},
	})
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
