package taxtable

import (
	"github.com/shopspring/decimal"

	"github.com/csg33k/paytax/internal/domain"
)

// Federal rates have been 10/12/22/24/32/35/37 since TY2018; only the bracket
// bounds move with inflation.
var federalRates = [7]string{"0.10", "0.12", "0.22", "0.24", "0.32", "0.35", "0.37"}

func ty2023() *YearTables {
	t := base(2023)
	t.Federal = FederalTable{
		domain.Single:                  federal("11000", "44725", "95375", "182100", "231250", "578125"),
		domain.MarriedFilingJointly:    federal("22000", "89450", "190750", "364200", "462500", "693750"),
		domain.MarriedFilingSeparately: federal("11000", "44725", "95375", "182100", "231250", "346875"),
		domain.HeadOfHousehold:         federal("15700", "59850", "95350", "182100", "231250", "578100"),
	}
	t.FICA.SocialSecurityWageCap = d("160200")
	return t
}

func ty2024() *YearTables {
	t := base(2024)
	t.Federal = FederalTable{
		domain.Single:                  federal("11600", "47150", "100525", "191950", "243725", "609350"),
		domain.MarriedFilingJointly:    federal("23200", "94300", "201050", "383900", "487450", "731200"),
		domain.MarriedFilingSeparately: federal("11600", "47150", "100525", "191950", "243725", "365600"),
		domain.HeadOfHousehold:         federal("16550", "63100", "100500", "191950", "243700", "609350"),
	}
	t.FICA.SocialSecurityWageCap = d("168600")
	return t
}

func ty2025() *YearTables {
	t := base(2025)
	t.Federal = FederalTable{
		domain.Single:                  federal("11925", "48475", "103350", "197300", "250525", "626350"),
		domain.MarriedFilingJointly:    federal("23850", "96950", "206700", "394600", "501050", "751600"),
		domain.MarriedFilingSeparately: federal("11925", "48475", "103350", "197300", "250525", "375800"),
		domain.HeadOfHousehold:         federal("17000", "64850", "103350", "197300", "250500", "626350"),
	}
	t.FICA.SocialSecurityWageCap = d("176100")
	t.State["CO"] = flat("0.044")
	return t
}

// base returns the pieces shared by every built-in year: FICA rates, the
// additional Medicare threshold, the allowance policy and the state table.
// State tables are carried forward unchanged unless a year overrides a state.
func base(year int) *YearTables {
	return &YearTables{
		TaxYear: year,
		State:   baseStates(),
		FICA: FICAConfig{
			SocialSecurityRate:          d("0.062"),
			MedicareRate:                d("0.0145"),
			AdditionalMedicareRate:      d("0.009"),
			AdditionalMedicareThreshold: d("200000"),
		},
		Allowance: AllowancePolicy{
			AllowanceValue: d("4300"),
			AdjustmentRate: d("0.12"),
		},
		Source: SourceDefaults,
	}
}

func baseStates() StateTable {
	st := StateTable{
		"CA": progressive(
			"0", "0.01",
			"10756", "0.02",
			"25499", "0.04",
			"40245", "0.06",
			"55866", "0.08",
			"70606", "0.093",
			"360659", "0.103",
			"432787", "0.113",
			"721314", "0.123",
		),
		"NY": progressive(
			"0", "0.04",
			"8500", "0.045",
			"11700", "0.0525",
			"13900", "0.055",
			"80650", "0.06",
			"215400", "0.0685",
			"1077550", "0.0965",
			"5000000", "0.103",
			"25000000", "0.109",
		),
		"NJ": progressive(
			"0", "0.014",
			"20000", "0.0175",
			"35000", "0.035",
			"40000", "0.05525",
			"75000", "0.0637",
			"500000", "0.0897",
			"1000000", "0.1075",
		),
		"OR": progressive(
			"0", "0.0475",
			"4300", "0.0675",
			"10750", "0.0875",
			"125000", "0.099",
		),
		"AZ": flat("0.025"),
		"CO": flat("0.0425"),
		"GA": flat("0.0539"),
		"IL": flat("0.0495"),
		"IN": flat("0.0305"),
		"KY": flat("0.04"),
		"MA": flat("0.05"),
		"MI": flat("0.0425"),
		"NC": flat("0.045"),
		"PA": flat("0.0307"),
		"UT": flat("0.0455"),
	}
	for _, code := range []string{"AK", "FL", "NV", "NH", "SD", "TN", "TX", "WA", "WY"} {
		st[code] = []StateBracket{}
	}
	return st
}

// federal builds a seven-bracket table from the six upper bounds.
func federal(bounds ...string) []FederalBracket {
	out := make([]FederalBracket, len(federalRates))
	lo := decimal.Zero
	for i, rate := range federalRates {
		out[i] = FederalBracket{Min: lo, Rate: d(rate)}
		if i < len(bounds) {
			hi := d(bounds[i])
			out[i].Max = &hi
			lo = hi
		}
	}
	return out
}

// progressive takes threshold/rate pairs.
func progressive(pairs ...string) []StateBracket {
	out := make([]StateBracket, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, StateBracket{Threshold: d(pairs[i]), Rate: d(pairs[i+1])})
	}
	return out
}

func flat(rate string) []StateBracket {
	return []StateBracket{{Threshold: decimal.Zero, Rate: d(rate)}}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }
