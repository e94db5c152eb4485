package engine_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/csg33k/paytax/internal/domain"
	"github.com/csg33k/paytax/internal/engine"
	"github.com/csg33k/paytax/internal/taxtable"
)

func biweeklyCA() domain.PayrollRequest {
	return domain.PayrollRequest{
		GrossIncome:  dec("3846.15"),
		PayFrequency: domain.Biweekly,
		FilingStatus: domain.Single,
		State:        "CA",
		TaxYear:      2024,
		YTDEarnings:  decimal.Zero,
	}
}

func TestCalculate_BiweeklyCalifornia(t *testing.T) {
	e := mustEngine(t, 2024)
	res, err := e.Calculate(biweeklyCA())
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if res.PayPeriodsPerYear != 26 {
		t.Errorf("PayPeriodsPerYear = %d, want 26", res.PayPeriodsPerYear)
	}
	if res.TaxYear != 2024 {
		t.Errorf("TaxYear = %d, want 2024", res.TaxYear)
	}
	wantDec(t, "GrossIncome", res.GrossIncome, "3846.15")
	wantDec(t, "FederalIncomeTax", res.FederalIncomeTax, "655.88") // 17052.978 / 26
	wantDec(t, "StateIncomeTax", res.StateIncomeTax, "224.71")     // 5842.3527 / 26
	wantDec(t, "SocialSecurityTax", res.SocialSecurityTax, "238.46")
	wantDec(t, "MedicareTax", res.MedicareTax, "55.77")
	wantDec(t, "TotalTaxes", res.TotalTaxes, "1174.82")
	wantDec(t, "NetPay", res.NetPay, "2671.33")

	a := res.AnnualProjection
	wantDec(t, "Annual.GrossIncome", a.GrossIncome, "99999.9")
	wantDec(t, "Annual.FederalIncomeTax", a.FederalIncomeTax, "17052.98")
	wantDec(t, "Annual.StateIncomeTax", a.StateIncomeTax, "5842.35")
	wantDec(t, "Annual.SocialSecurityTax", a.SocialSecurityTax, "6199.99")
	wantDec(t, "Annual.MedicareTax", a.MedicareTax, "1450")
	wantDec(t, "Annual.TotalTaxes", a.TotalTaxes, "30545.32")
	wantDec(t, "Annual.NetPay", a.NetPay, "69454.58")
}

func TestCalculate_NetPayIdentity(t *testing.T) {
	e := mustEngine(t, 2024)
	for _, gross := range []string{"0", "512.34", "3846.15", "25000"} {
		req := biweeklyCA()
		req.GrossIncome = dec(gross)
		res, err := e.Calculate(req)
		if err != nil {
			t.Fatalf("Calculate(%s): %v", gross, err)
		}
		sum := res.FederalIncomeTax.Add(res.StateIncomeTax).Add(res.SocialSecurityTax).Add(res.MedicareTax)
		// Components are rounded independently, so the sum may differ by a cent or two.
		if sum.Sub(res.TotalTaxes).Abs().GreaterThan(dec("0.02")) {
			t.Errorf("gross %s: components sum to %s, total is %s", gross, sum, res.TotalTaxes)
		}
		if !res.GrossIncome.Sub(res.TotalTaxes).Sub(res.NetPay).Abs().LessThanOrEqual(dec("0.01")) {
			t.Errorf("gross %s: net %s != gross - total %s", gross, res.NetPay, res.TotalTaxes)
		}
	}
}

func TestCalculate_MonthlyAnnualizationRoundTrip(t *testing.T) {
	e := mustEngine(t, 2024)
	for _, gross := range []string{"1000", "4321.09", "8333.33", "27500.50"} {
		req := domain.PayrollRequest{
			GrossIncome:  dec(gross),
			PayFrequency: domain.Monthly,
			FilingStatus: domain.MarriedFilingJointly,
			State:        "NY",
		}
		res, err := e.Calculate(req)
		if err != nil {
			t.Fatalf("Calculate(%s): %v", gross, err)
		}
		twelve := decimal.NewFromInt(12)
		tolerance := dec("0.06") // 12 × half a cent
		for label, pair := range map[string][2]decimal.Decimal{
			"federal":  {res.AnnualProjection.FederalIncomeTax, res.FederalIncomeTax},
			"state":    {res.AnnualProjection.StateIncomeTax, res.StateIncomeTax},
			"medicare": {res.AnnualProjection.MedicareTax, res.MedicareTax},
		} {
			diff := pair[0].Sub(pair[1].Mul(twelve)).Abs()
			if diff.GreaterThan(tolerance) {
				t.Errorf("gross %s %s: annual %s vs 12 × %s", gross, label, pair[0], pair[1])
			}
		}
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	e := mustEngine(t, 2024)
	req := biweeklyCA()
	req.Allowances = 2
	req.YTDEarnings = dec("198000")
	first, err := e.Calculate(req)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	second, err := e.Calculate(req)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if first.JSON() != second.JSON() {
		t.Errorf("results differ:\n%+v\n%+v", first.JSON(), second.JSON())
	}
}

func TestCalculate_WageCapReachedOwesNoSocialSecurity(t *testing.T) {
	e := mustEngine(t, 2024)
	req := biweeklyCA()
	req.GrossIncome = dec("12000")
	req.YTDEarnings = dec("170000")
	res, err := e.Calculate(req)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if !res.SocialSecurityTax.IsZero() {
		t.Errorf("SocialSecurityTax = %s, want 0", res.SocialSecurityTax)
	}
}

func TestCalculate_PayFrequencies(t *testing.T) {
	cases := []struct {
		freq domain.PayFrequency
		want int
	}{
		{domain.Weekly, 52},
		{domain.Biweekly, 26},
		{domain.Semimonthly, 24},
		{domain.Monthly, 12},
		{"fortnightly", 26}, // unknown defaults to biweekly
	}
	e := mustEngine(t, 2024)
	for _, tc := range cases {
		t.Run(string(tc.freq), func(t *testing.T) {
			req := biweeklyCA()
			req.PayFrequency = tc.freq
			res, err := e.Calculate(req)
			if err != nil {
				t.Fatalf("Calculate: %v", err)
			}
			if res.PayPeriodsPerYear != tc.want {
				t.Errorf("PayPeriodsPerYear = %d, want %d", res.PayPeriodsPerYear, tc.want)
			}
		})
	}
}

func TestCalculate_StrictPayFrequency(t *testing.T) {
	e := mustEngine(t, 2024, engine.WithStrictPayFrequency(true))
	req := biweeklyCA()
	req.PayFrequency = "fortnightly"
	_, err := e.Calculate(req)
	var ve *engine.ValidationError
	if !errors.As(err, &ve) || ve.Field != "pay_frequency" {
		t.Fatalf("err = %v, want pay_frequency validation error", err)
	}
}

func TestCalculate_ValidationErrors(t *testing.T) {
	e := mustEngine(t, 2024)
	cases := []struct {
		field  string
		mutate func(*domain.PayrollRequest)
	}{
		{"gross_income", func(r *domain.PayrollRequest) { r.GrossIncome = dec("-0.01") }},
		{"ytd_earnings", func(r *domain.PayrollRequest) { r.YTDEarnings = dec("-1") }},
		{"pay_frequency", func(r *domain.PayrollRequest) { r.PayFrequency = "" }},
		{"filing_status", func(r *domain.PayrollRequest) { r.FilingStatus = "" }},
		{"state", func(r *domain.PayrollRequest) { r.State = "  " }},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			req := biweeklyCA()
			tc.mutate(&req)
			_, err := e.Calculate(req)
			if !errors.Is(err, engine.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			var ve *engine.ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Errorf("field = %v, want %s", ve, tc.field)
			}
		})
	}
}

func TestNew_RejectsMalformedTables(t *testing.T) {
	cases := map[string]func(*taxtable.YearTables){
		"gap between brackets": func(tt *taxtable.YearTables) {
			b := tt.Federal[domain.Single]
			b[1].Min = dec("12000")
		},
		"bounded last bracket": func(tt *taxtable.YearTables) {
			b := tt.Federal[domain.Single]
			hi := dec("9999999")
			b[len(b)-1].Max = &hi
		},
		"state not starting at zero": func(tt *taxtable.YearTables) {
			tt.State["CA"][0].Threshold = dec("1")
		},
		"repeated state threshold": func(tt *taxtable.YearTables) {
			tt.State["NY"][2].Threshold = tt.State["NY"][1].Threshold
		},
		"no single table": func(tt *taxtable.YearTables) {
			delete(tt.Federal, domain.Single)
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			tables, _ := taxtable.ForYear(2024)
			mutate(tables)
			_, err := engine.New(tables)
			if !errors.Is(err, engine.ErrInvariant) {
				t.Errorf("err = %v, want ErrInvariant", err)
			}
			if !errors.Is(err, taxtable.ErrMalformedTable) {
				t.Errorf("err = %v, want ErrMalformedTable", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Set
// ---------------------------------------------------------------------------

func builtinSet(t *testing.T) *engine.Set {
	t.Helper()
	var tables []*taxtable.YearTables
	for _, y := range taxtable.Supported() {
		tt, _ := taxtable.ForYear(y)
		tables = append(tables, tt)
	}
	s, err := engine.NewSet(2024, tables)
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	return s
}

func TestSet_RoutesByYear(t *testing.T) {
	s := builtinSet(t)
	req := biweeklyCA()
	req.YTDEarnings = dec("165000")

	req.TaxYear = 2023 // cap 160200: already past it
	r23, err := s.Calculate(req)
	if err != nil {
		t.Fatalf("TY2023: %v", err)
	}
	if !r23.SocialSecurityTax.IsZero() || r23.TaxYear != 2023 {
		t.Errorf("TY2023 SS = %s (year %d), want 0", r23.SocialSecurityTax, r23.TaxYear)
	}

	req.TaxYear = 0 // default 2024, cap 168600: 3600 of room
	r24, err := s.Calculate(req)
	if err != nil {
		t.Fatalf("default year: %v", err)
	}
	wantDec(t, "TY2024 SS", r24.SocialSecurityTax, "223.2")
	if r24.TaxYear != 2024 {
		t.Errorf("TaxYear = %d, want 2024", r24.TaxYear)
	}
}

func TestSet_UnknownYearIsConfigurationError(t *testing.T) {
	s := builtinSet(t)
	req := biweeklyCA()
	req.TaxYear = 1999
	_, err := s.Calculate(req)
	if !errors.Is(err, engine.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
	var ce *engine.ConfigurationError
	if !errors.As(err, &ce) || ce.TaxYear != 1999 {
		t.Errorf("ConfigurationError = %v", ce)
	}

	// An invalid request is reported as such even for an unknown year.
	req.State = ""
	if _, err := s.Calculate(req); !errors.Is(err, engine.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestNewSet_DefaultYearMustBeLoaded(t *testing.T) {
	tt, _ := taxtable.ForYear(2023)
	_, err := engine.NewSet(2024, []*taxtable.YearTables{tt})
	if !errors.Is(err, engine.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestSet_Years(t *testing.T) {
	years := builtinSet(t).Years()
	if len(years) != 3 {
		t.Fatalf("Years() = %v", years)
	}
	for i, want := range []int{2023, 2024, 2025} {
		if years[i].Year != want || years[i].Source != taxtable.SourceDefaults {
			t.Errorf("years[%d] = %+v, want %d from defaults", i, years[i], want)
		}
	}
}
