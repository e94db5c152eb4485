// Package loader assembles the tax tables for every year the service answers
// and builds the engine set over them.
//
// For each year the first source that has it wins: the YAML tables file, then
// the store, then the built-in defaults.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/csg33k/paytax/internal/engine"
	"github.com/csg33k/paytax/internal/ports"
	"github.com/csg33k/paytax/internal/taxtable"
)

// AllowanceOverride replaces a year's allowance policy; ok=false keeps it.
type AllowanceOverride func(base taxtable.AllowancePolicy) (p taxtable.AllowancePolicy, ok bool)

type Options struct {
	// Store may be nil.
	Store ports.TaxTableStore
	// TablesFile may be empty.
	TablesFile  string
	DefaultYear int
	Allowance   AllowanceOverride
	Logger      *slog.Logger
	Engine      []engine.Option
}

// Tables returns one validated YearTables per year, ascending.
func Tables(ctx context.Context, opts Options) ([]*taxtable.YearTables, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	byYear := make(map[int]*taxtable.YearTables)

	if opts.TablesFile != "" {
		fromFile, err := taxtable.LoadFile(opts.TablesFile)
		if err != nil {
			return nil, fmt.Errorf("tables file %s: %w", opts.TablesFile, err)
		}
		for _, t := range fromFile {
			byYear[t.TaxYear] = t
		}
	}

	years := taxtable.Supported()
	if opts.Store != nil {
		stored, err := opts.Store.ListYears(ctx)
		if err != nil {
			log.Warn("listing stored tax years", "err", err)
		}
		years = append(years, stored...)
	}
	years = append(years, opts.DefaultYear)

	for _, year := range years {
		if _, ok := byYear[year]; ok {
			continue
		}
		if t := fromStore(ctx, log, opts.Store, year); t != nil {
			byYear[year] = t
			continue
		}
		if t, ok := taxtable.ForYear(year); ok {
			byYear[year] = t
		}
	}

	out := make([]*taxtable.YearTables, 0, len(byYear))
	for _, t := range byYear {
		if opts.Allowance != nil {
			if p, ok := opts.Allowance(t.Allowance); ok {
				t.Allowance = p
			}
		}
		log.Info("tax tables loaded", "tax_year", t.TaxYear, "source", t.Source)
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaxYear < out[j].TaxYear })
	return out, nil
}

// Load builds an engine set from Tables.
func Load(ctx context.Context, opts Options) (*engine.Set, error) {
	tables, err := Tables(ctx, opts)
	if err != nil {
		return nil, err
	}
	engineOpts := opts.Engine
	if opts.Logger != nil {
		engineOpts = append([]engine.Option{engine.WithLogger(opts.Logger)}, engineOpts...)
	}
	return engine.NewSet(opts.DefaultYear, tables, engineOpts...)
}

// fromStore returns nil when the store is absent, has no row for year, fails,
// or holds tables that don't validate. Each case falls back to the defaults.
func fromStore(ctx context.Context, log *slog.Logger, store ports.TaxTableStore, year int) *taxtable.YearTables {
	if store == nil {
		return nil
	}
	t, err := store.LoadYear(ctx, year)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		log.Debug("no stored tables, using defaults", "tax_year", year)
		return nil
	case err != nil:
		log.Warn("loading stored tables, using defaults", "tax_year", year, "err", err)
		return nil
	}
	if err := t.Validate(); err != nil {
		log.Error("stored tables are malformed, using defaults", "tax_year", year, "err", err)
		return nil
	}
	return t
}
