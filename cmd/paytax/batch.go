package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/csg33k/paytax/internal/batch"
)

var batchFlags struct {
	json     bool
	noRecord bool
	workers  int
}

var batchCmd = &cobra.Command{
	Use:   "batch <file.json>",
	Short: "Calculate withholding for every employee in a file",
	Long: `Reads a JSON array of payroll requests, each with an employee_id, and
calculates them concurrently. Successful results are recorded in the
database under the run ID unless --no-record is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := readEntries(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		repo, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()
		set, err := loadSet(ctx, repo)
		if err != nil {
			return err
		}
		workers := cfg.BatchWorkers
		if batchFlags.workers > 0 {
			workers = batchFlags.workers
		}
		opts := []batch.Option{batch.WithWorkers(workers), batch.WithLogger(logger)}
		if !batchFlags.noRecord {
			opts = append(opts, batch.WithRecorder(repo))
		}
		report, err := batch.NewRunner(set, opts...).Run(ctx, entries)
		if err != nil {
			return err
		}
		if batchFlags.json {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report.JSON())
		}
		printReport(os.Stdout, report)
		return nil
	},
}

func readEntries(path string) ([]batch.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var items []batch.EntryJSON
	if err := json.NewDecoder(f).Decode(&items); err != nil {
		return nil, fmt.Errorf("%s: expected a JSON array of payroll requests: %w", path, err)
	}
	entries := make([]batch.Entry, len(items))
	for i, item := range items {
		entries[i] = item.Entry()
	}
	return entries, nil
}

func init() {
	batchCmd.Flags().BoolVar(&batchFlags.json, "json", false, "print the report as JSON")
	batchCmd.Flags().BoolVar(&batchFlags.noRecord, "no-record", false, "don't store results in the database")
	batchCmd.Flags().IntVar(&batchFlags.workers, "workers", 0, "concurrent calculations (default: configured batch_workers)")
	rootCmd.AddCommand(batchCmd)
}
