// Package config loads server and CLI configuration.
//
// Values are layered, lowest precedence first:
//  1. defaults (New)
//  2. YAML file named by PAYTAX_CONFIG
//  3. environment variables prefixed PAYTAX_
//
// A .env file in the working directory is read into the environment first.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/csg33k/paytax/internal/domain"
	"github.com/csg33k/paytax/internal/taxtable"
)

type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file holding tax tables and run history.
	DBPath string `koanf:"db_path"`

	// TaxYear answers requests that don't name a year.
	TaxYear int `koanf:"tax_year"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// TablesFile is an optional YAML tables document; its years win over the store.
	TablesFile string `koanf:"tables_file"`

	StrictPayFrequency bool `koanf:"strict_pay_frequency"`

	// AllowanceValue and AllowanceRate override every year's allowance policy
	// when set. Decimal strings.
	AllowanceValue string `koanf:"allowance_value"`
	AllowanceRate  string `koanf:"allowance_rate"`

	// BatchWorkers bounds concurrent calculations in a batch run.
	BatchWorkers int `koanf:"batch_workers"`

	MetricsEnabled bool `koanf:"metrics_enabled"`
}

func New() *Config {
	return &Config{
		Addr:           ":8080",
		DBPath:         "paytax.db",
		TaxYear:        domain.DefaultTaxYear,
		LogLevel:       "info",
		BatchWorkers:   8,
		MetricsEnabled: true,
	}
}

// Validate checks field ranges. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.TaxYear <= 0 {
		return fmt.Errorf("%w: tax_year %d", ErrInvalidConfig, c.TaxYear)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("%w: batch_workers must be at least 1", ErrInvalidConfig)
	}
	if _, _, err := c.allowance(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(c.LogLevel)))); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return l, nil
}

// AllowanceOverride returns the configured allowance policy, if any. When
// only one of the two keys is set, the other keeps the value from base.
func (c *Config) AllowanceOverride(base taxtable.AllowancePolicy) (taxtable.AllowancePolicy, bool) {
	value, rate, err := c.allowance()
	if err != nil || (value == nil && rate == nil) {
		return base, false
	}
	if value != nil {
		base.AllowanceValue = *value
	}
	if rate != nil {
		base.AdjustmentRate = *rate
	}
	return base, true
}

func (c *Config) allowance() (value, rate *decimal.Decimal, err error) {
	parse := func(key, s string) (*decimal.Decimal, error) {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %q is not a decimal", ErrInvalidConfig, key, s)
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, key)
		}
		return &d, nil
	}
	if value, err = parse("allowance_value", c.AllowanceValue); err != nil {
		return nil, nil, err
	}
	if rate, err = parse("allowance_rate", c.AllowanceRate); err != nil {
		return nil, nil, err
	}
	return value, rate, nil
}
