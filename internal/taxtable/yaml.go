package taxtable

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/csg33k/paytax/internal/domain"
)

// Document is the YAML layout of a tables file. Amounts and rates are strings
// so they round-trip without float drift.
//
//	years:
//	  - tax_year: 2024
//	    fica: {social_security_rate: "0.062", ...}
//	    allowance: {allowance_value: "4300", adjustment_rate: "0.12"}
//	    federal:
//	      single:
//	        - {min: "0", max: "11600", rate: "0.10"}
//	    states:
//	      CA:
//	        - {threshold: "0", rate: "0.01"}
//	      TX: []
type Document struct {
	Years []yearDoc `yaml:"years"`
}

type yearDoc struct {
	TaxYear   int                        `yaml:"tax_year"`
	FICA      ficaDoc                    `yaml:"fica"`
	Allowance allowanceDoc               `yaml:"allowance"`
	Federal   map[string][]fedBracketDoc `yaml:"federal"`
	States    map[string][]stateDoc      `yaml:"states"`
}

type ficaDoc struct {
	SocialSecurityRate          string `yaml:"social_security_rate"`
	MedicareRate                string `yaml:"medicare_rate"`
	AdditionalMedicareRate      string `yaml:"additional_medicare_rate"`
	SocialSecurityWageCap       string `yaml:"social_security_wage_cap"`
	AdditionalMedicareThreshold string `yaml:"additional_medicare_threshold"`
}

type allowanceDoc struct {
	AllowanceValue string `yaml:"allowance_value"`
	AdjustmentRate string `yaml:"adjustment_rate"`
}

type fedBracketDoc struct {
	Min  string `yaml:"min"`
	Max  string `yaml:"max,omitempty"`
	Rate string `yaml:"rate"`
}

type stateDoc struct {
	Threshold string `yaml:"threshold"`
	Rate      string `yaml:"rate"`
}

// LoadFile reads and validates every year in a YAML tables file.
func LoadFile(path string) ([]*YearTables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a YAML tables document. Every year is validated.
func Decode(r io.Reader) ([]*YearTables, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode tax tables: %w", err)
	}
	out := make([]*YearTables, 0, len(doc.Years))
	for _, yd := range doc.Years {
		t, err := yd.tables()
		if err != nil {
			return nil, fmt.Errorf("TY%d: %w", yd.TaxYear, err)
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Encode writes tables as a YAML document.
func Encode(w io.Writer, tables ...*YearTables) error {
	doc := Document{Years: make([]yearDoc, 0, len(tables))}
	for _, t := range tables {
		doc.Years = append(doc.Years, docFor(t))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func (yd yearDoc) tables() (*YearTables, error) {
	p := &parser{}
	t := &YearTables{
		TaxYear: yd.TaxYear,
		Federal: make(FederalTable, len(yd.Federal)),
		State:   make(StateTable, len(yd.States)),
		FICA: FICAConfig{
			SocialSecurityRate:          p.dec("fica.social_security_rate", yd.FICA.SocialSecurityRate),
			MedicareRate:                p.dec("fica.medicare_rate", yd.FICA.MedicareRate),
			AdditionalMedicareRate:      p.dec("fica.additional_medicare_rate", yd.FICA.AdditionalMedicareRate),
			SocialSecurityWageCap:       p.dec("fica.social_security_wage_cap", yd.FICA.SocialSecurityWageCap),
			AdditionalMedicareThreshold: p.dec("fica.additional_medicare_threshold", yd.FICA.AdditionalMedicareThreshold),
		},
		Allowance: AllowancePolicy{
			AllowanceValue: p.dec("allowance.allowance_value", yd.Allowance.AllowanceValue),
			AdjustmentRate: p.dec("allowance.adjustment_rate", yd.Allowance.AdjustmentRate),
		},
		Source: SourceFile,
	}
	for status, docs := range yd.Federal {
		brackets := make([]FederalBracket, len(docs))
		for i, b := range docs {
			field := fmt.Sprintf("federal.%s[%d]", status, i)
			brackets[i] = FederalBracket{
				Min:  p.dec(field+".min", b.Min),
				Rate: p.dec(field+".rate", b.Rate),
			}
			if b.Max != "" {
				hi := p.dec(field+".max", b.Max)
				brackets[i].Max = &hi
			}
		}
		t.Federal[domain.FilingStatus(status)] = brackets
	}
	for code, docs := range yd.States {
		brackets := make([]StateBracket, len(docs))
		for i, b := range docs {
			field := fmt.Sprintf("states.%s[%d]", code, i)
			brackets[i] = StateBracket{
				Threshold: p.dec(field+".threshold", b.Threshold),
				Rate:      p.dec(field+".rate", b.Rate),
			}
		}
		t.State[domain.NormalizeState(code)] = brackets
	}
	if p.err != nil {
		return nil, p.err
	}
	return t, nil
}

func docFor(t *YearTables) yearDoc {
	yd := yearDoc{
		TaxYear: t.TaxYear,
		FICA: ficaDoc{
			SocialSecurityRate:          t.FICA.SocialSecurityRate.String(),
			MedicareRate:                t.FICA.MedicareRate.String(),
			AdditionalMedicareRate:      t.FICA.AdditionalMedicareRate.String(),
			SocialSecurityWageCap:       t.FICA.SocialSecurityWageCap.String(),
			AdditionalMedicareThreshold: t.FICA.AdditionalMedicareThreshold.String(),
		},
		Allowance: allowanceDoc{
			AllowanceValue: t.Allowance.AllowanceValue.String(),
			AdjustmentRate: t.Allowance.AdjustmentRate.String(),
		},
		Federal: make(map[string][]fedBracketDoc, len(t.Federal)),
		States:  make(map[string][]stateDoc, len(t.State)),
	}
	for status, brackets := range t.Federal {
		docs := make([]fedBracketDoc, len(brackets))
		for i, b := range brackets {
			docs[i] = fedBracketDoc{Min: b.Min.String(), Rate: b.Rate.String()}
			if b.Max != nil {
				docs[i].Max = b.Max.String()
			}
		}
		yd.Federal[string(status)] = docs
	}
	codes := make([]string, 0, len(t.State))
	for code := range t.State {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		docs := make([]stateDoc, 0, len(t.State[code]))
		for _, b := range t.State[code] {
			docs = append(docs, stateDoc{Threshold: b.Threshold.String(), Rate: b.Rate.String()})
		}
		yd.States[code] = docs
	}
	return yd
}

// parser keeps the first decimal parse error so conversion reads linearly.
type parser struct{ err error }

func (p *parser) dec(field, s string) decimal.Decimal {
	if p.err != nil {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		p.err = fmt.Errorf("%s: %q is not a decimal: %w", field, s, err)
		return decimal.Zero
	}
	return v
}
