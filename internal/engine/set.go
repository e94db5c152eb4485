package engine

import (
	"fmt"
	"sort"

	"github.com/csg33k/paytax/internal/domain"
	"github.com/csg33k/paytax/internal/taxtable"
)

// Set routes requests to the engine for their tax year.
type Set struct {
	engines     map[int]*Engine
	defaultYear int
}

// NewSet builds one engine per table. defaultYear answers requests with
// TaxYear 0 and must be one of the tables' years.
func NewSet(defaultYear int, tables []*taxtable.YearTables, opts ...Option) (*Set, error) {
	s := &Set{engines: make(map[int]*Engine, len(tables)), defaultYear: defaultYear}
	for _, t := range tables {
		e, err := New(t, opts...)
		if err != nil {
			return nil, err
		}
		if _, dup := s.engines[t.TaxYear]; dup {
			return nil, fmt.Errorf("%w: TY%d loaded twice", ErrInvariant, t.TaxYear)
		}
		s.engines[t.TaxYear] = e
	}
	if _, ok := s.engines[defaultYear]; !ok {
		return nil, &ConfigurationError{TaxYear: defaultYear, Reason: "default year has no tables"}
	}
	return s, nil
}

func (s *Set) DefaultYear() int { return s.defaultYear }

// ForYear returns the engine for year (0 = default year).
func (s *Set) ForYear(year int) (*Engine, error) {
	if year == 0 {
		year = s.defaultYear
	}
	e, ok := s.engines[year]
	if !ok {
		return nil, &ConfigurationError{TaxYear: year, Reason: "no tables loaded"}
	}
	return e, nil
}

// Calculate validates req, selects its year's engine and computes the period.
// Field validation runs before the year lookup so a bad request never
// reports as a configuration problem.
func (s *Set) Calculate(req domain.PayrollRequest) (domain.PayrollResult, error) {
	if err := s.engines[s.defaultYear].Validate(req); err != nil {
		return domain.PayrollResult{}, err
	}
	e, err := s.ForYear(req.TaxYear)
	if err != nil {
		return domain.PayrollResult{}, err
	}
	return e.Calculate(req)
}

// Years lists loaded years with their table source, ascending.
func (s *Set) Years() []domain.TaxYearInfo {
	out := make([]domain.TaxYearInfo, 0, len(s.engines))
	for year, e := range s.engines {
		out = append(out, domain.TaxYearInfo{Year: year, Source: e.Source()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
