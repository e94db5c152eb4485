package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/csg33k/paytax/internal/taxtable"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Manage the stored tax tables",
}

var tablesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tax years and where their tables come from",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		repo, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()
		stored, err := repo.ListYears(ctx)
		if err != nil {
			return err
		}
		set, err := loadSet(ctx, repo)
		if err != nil {
			return err
		}
		printYears(os.Stdout, stored, set.Years(), set.DefaultYear())
		return nil
	},
}

var exportOut string

var tablesExportCmd = &cobra.Command{
	Use:   "export [year...]",
	Short: "Write the effective tables as YAML",
	Long: `Writes the tables the server would use for each year, after file,
store and built-in sources are resolved. With no years, every year is
exported. The output can be edited and loaded back with "tables import".`,
	RunE: func(cmd *cobra.Command, args []string) error {
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
		years, err := parseYears(args)
		if err != nil {
			return err
		}
		if len(years) == 0 {
			for _, y := range set.Years() {
				years = append(years, y.Year)
			}
		}
		tables := make([]*taxtable.YearTables, 0, len(years))
		for _, y := range years {
			e, err := set.ForYear(y)
			if err != nil {
				return err
			}
			tables = append(tables, e.Tables())
		}

		var w io.Writer = os.Stdout
		if exportOut != "" && exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return taxtable.Encode(w, tables...)
	},
}

var tablesImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Validate a YAML tables file and store every year in it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := taxtable.LoadFile(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		repo, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()
		for _, t := range tables {
			if err := repo.SaveYear(ctx, t); err != nil {
				return err
			}
			fmt.Printf("%s TY%d imported\n", green("✓"), t.TaxYear)
		}
		return nil
	},
}

var seedForce bool

var tablesSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Store the built-in tables for every supported year",
	Long: `Stores the built-in tables for each supported year. Years already in
the database are left alone unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		repo, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()
		stored, err := repo.ListYears(ctx)
		if err != nil {
			return err
		}
		have := make(map[int]bool, len(stored))
		for _, y := range stored {
			have[y] = true
		}
		for _, y := range taxtable.Supported() {
			if have[y] && !seedForce {
				fmt.Printf("%s TY%d already stored\n", gray("-"), y)
				continue
			}
			t, _ := taxtable.ForYear(y)
			if err := repo.SaveYear(ctx, t); err != nil {
				return err
			}
			fmt.Printf("%s TY%d seeded\n", green("✓"), y)
		}
		return nil
	},
}

func parseYears(args []string) ([]int, error) {
	years := make([]int, 0, len(args))
	for _, a := range args {
		y, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%q is not a tax year", a)
		}
		years = append(years, y)
	}
	return years, nil
}

func init() {
	tablesExportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "write to file instead of stdout")
	tablesSeedCmd.Flags().BoolVar(&seedForce, "force", false, "overwrite years already stored")
	tablesCmd.AddCommand(tablesListCmd, tablesExportCmd, tablesImportCmd, tablesSeedCmd)
	rootCmd.AddCommand(tablesCmd)
}
