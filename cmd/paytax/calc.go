package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/csg33k/paytax/internal/domain"
)

var calcFlags struct {
	gross      string
	frequency  string
	status     string
	allowances int
	state      string
	year       int
	ytd        string
	json       bool
}

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Calculate withholding for one pay period",
	Example: `  paytax calc --gross 3846.15 --frequency biweekly --status single --state CA
  paytax calc --gross 2000 --frequency monthly --state TX --year 2025 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := calcRequest()
		if err != nil {
			return err
		}
		repo, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer repo.Close()
		set, err := loadSet(cmd.Context(), repo)
		if err != nil {
			return err
		}
		res, err := set.Calculate(req)
		if err != nil {
			return err
		}
		if calcFlags.json {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res.JSON())
		}
		printResult(os.Stdout, req, res)
		return nil
	},
}

func calcRequest() (domain.PayrollRequest, error) {
	gross, err := decimal.NewFromString(calcFlags.gross)
	if err != nil {
		return domain.PayrollRequest{}, fmt.Errorf("--gross: %q is not a number", calcFlags.gross)
	}
	ytd := decimal.Zero
	if calcFlags.ytd != "" {
		if ytd, err = decimal.NewFromString(calcFlags.ytd); err != nil {
			return domain.PayrollRequest{}, fmt.Errorf("--ytd: %q is not a number", calcFlags.ytd)
		}
	}
	return domain.PayrollRequest{
		GrossIncome:  gross,
		PayFrequency: domain.PayFrequency(calcFlags.frequency),
		FilingStatus: domain.FilingStatus(calcFlags.status),
		Allowances:   calcFlags.allowances,
		State:        calcFlags.state,
		TaxYear:      calcFlags.year,
		YTDEarnings:  ytd,
	}, nil
}

func init() {
	f := calcCmd.Flags()
	f.StringVar(&calcFlags.gross, "gross", "", "gross pay for the period")
	f.StringVar(&calcFlags.frequency, "frequency", string(domain.Biweekly), "pay frequency: weekly, biweekly, semimonthly, monthly")
	f.StringVar(&calcFlags.status, "status", string(domain.Single), "filing status")
	f.IntVar(&calcFlags.allowances, "allowances", 0, "withholding allowances")
	f.StringVar(&calcFlags.state, "state", "", "two-letter state code")
	f.IntVar(&calcFlags.year, "year", 0, "tax year (default: configured year)")
	f.StringVar(&calcFlags.ytd, "ytd", "", "gross earned earlier this year")
	f.BoolVar(&calcFlags.json, "json", false, "print the result as JSON")
	calcCmd.MarkFlagRequired("gross")
	calcCmd.MarkFlagRequired("state")
	rootCmd.AddCommand(calcCmd)
}
