package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <run-id>",
	Short: "Show the results recorded for a batch run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		repo, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()
		records, err := repo.ListCalculations(ctx, args[0])
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("no calculations recorded for run %s", args[0])
		}
		fmt.Printf("\n%s\n", cyan("=== Run "+args[0]+" ==="))
		fmt.Printf("  Recorded %s\n\n", records[0].CreatedAt.Format("2006-01-02 15:04:05"))
		for _, rec := range records {
			fmt.Printf("  %-16s TY%d %-3s gross %12s  taxes %12s  net %12s\n",
				rec.EmployeeID, rec.Result.TaxYear, rec.Request.State,
				rec.Result.GrossIncome.StringFixed(2), rec.Result.TotalTaxes.StringFixed(2),
				green(rec.Result.NetPay.StringFixed(2)))
		}
		fmt.Fprintln(os.Stdout)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
