package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	pdfadapter "github.com/csg33k/paytax/internal/adapters/pdf"
	sqliteadapter "github.com/csg33k/paytax/internal/adapters/sqlite"
	"github.com/csg33k/paytax/internal/batch"
	"github.com/csg33k/paytax/internal/config"
	"github.com/csg33k/paytax/internal/engine"
	"github.com/csg33k/paytax/internal/handlers"
	"github.com/csg33k/paytax/internal/loader"
	"github.com/csg33k/paytax/internal/metrics"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	repo, err := sqliteadapter.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer repo.Close()
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("failed to prepare database: %v", err)
	}

	set, err := loader.Load(ctx, loader.Options{
		Store:       repo,
		TablesFile:  cfg.TablesFile,
		DefaultYear: cfg.TaxYear,
		Allowance:   cfg.AllowanceOverride,
		Logger:      logger,
		Engine:      []engine.Option{engine.WithStrictPayFrequency(cfg.StrictPayFrequency)},
	})
	if err != nil {
		log.Fatalf("failed to load tax tables: %v", err)
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
		for _, y := range set.Years() {
			m.SetTablesSource(strconv.Itoa(y.Year), y.Source)
		}
	}

	runner := batch.NewRunner(set,
		batch.WithWorkers(cfg.BatchWorkers),
		batch.WithRecorder(repo),
		batch.WithMetrics(m),
		batch.WithLogger(logger),
	)
	h, err := handlers.New(set, runner, pdfadapter.New(), m)
	if err != nil {
		log.Fatalf("failed to build handlers: %v", err)
	}

	slog.Info("payroll tax service running", "addr", cfg.Addr, "db", cfg.DBPath, "default_year", set.DefaultYear())
	if err := http.ListenAndServe(cfg.Addr, h.Routes()); err != nil {
		log.Fatal(err)
	}
}
