package engine

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Callers branch with errors.Is.
var (
	ErrValidation    = errors.New("invalid payroll request")
	ErrConfiguration = errors.New("tax tables unavailable")
	ErrInvariant     = errors.New("tax table invariant violated")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConfigurationError reports that no tables exist for a requested tax year.
type ConfigurationError struct {
	TaxYear int
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: TY%d: %s", ErrConfiguration, e.TaxYear, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }
