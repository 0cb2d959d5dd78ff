package tax

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"gestao/internal/platform/config"
)

// Bracket is one row of the progressive IRT table: taxable income above From
// pays Fixed plus Rate on the excess.
type Bracket struct {
	From  decimal.Decimal `json:"from"`
	Fixed decimal.Decimal `json:"fixed"`
	Rate  decimal.Decimal `json:"rate"`
}

type Config struct {
	INSSEmployeeRate   decimal.Decimal
	INSSEmployerRate   decimal.Decimal
	IRTExemptThreshold decimal.Decimal
	// NonSubjectCeilings caps the part of each subsidy kept out of the IRT base.
	NonSubjectCeilings map[SubsidyKind]decimal.Decimal
	// INSSExempt lists the subsidies left out of the INSS base.
	INSSExempt   []SubsidyKind
	Brackets     []Bracket
	RoundingStep decimal.Decimal
	// VATRate is a percentage, 14 for the standard IVA rate.
	VATRate decimal.Decimal
}

// DefaultBrackets is the IRT table of Lei 28/20 for employment income.
func DefaultBrackets() []Bracket {
	rows := [][3]string{
		{"100000", "0", "0.13"},
		{"150000", "12500", "0.16"},
		{"200000", "31250", "0.18"},
		{"300000", "49250", "0.19"},
		{"500000", "87250", "0.20"},
		{"1000000", "187250", "0.21"},
		{"1500000", "292250", "0.22"},
		{"2000000", "402250", "0.23"},
		{"2500000", "517250", "0.24"},
		{"5000000", "1117250", "0.245"},
		{"10000000", "2342250", "0.25"},
	}
	out := make([]Bracket, 0, len(rows))
	for _, row := range rows {
		out = append(out, Bracket{
			From:  decimal.RequireFromString(row[0]),
			Fixed: decimal.RequireFromString(row[1]),
			Rate:  decimal.RequireFromString(row[2]),
		})
	}
	return out
}

func DefaultConfig() Config {
	return Config{
		INSSEmployeeRate:   decimal.RequireFromString("0.03"),
		INSSEmployerRate:   decimal.RequireFromString("0.08"),
		IRTExemptThreshold: decimal.NewFromInt(100000),
		NonSubjectCeilings: map[SubsidyKind]decimal.Decimal{
			SubsidyFamily:    decimal.NewFromInt(5000),
			SubsidyTransport: decimal.NewFromInt(30000),
			SubsidyFood:      decimal.NewFromInt(30000),
		},
		INSSExempt:   []SubsidyKind{SubsidyFamily},
		Brackets:     DefaultBrackets(),
		RoundingStep: decimal.NewFromInt(100),
		VATRate:      decimal.NewFromInt(14),
	}
}

// ParseConfig turns the environment strings into a Config, keeping the default
// IRT table.
func ParseConfig(raw config.TaxConfig) (Config, error) {
	cfg := DefaultConfig()
	fields := []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"TAX_INSS_EMPLOYEE_RATE", raw.INSSEmployeeRate, &cfg.INSSEmployeeRate},
		{"TAX_INSS_EMPLOYER_RATE", raw.INSSEmployerRate, &cfg.INSSEmployerRate},
		{"TAX_IRT_EXEMPT_THRESHOLD", raw.IRTExemptThreshold, &cfg.IRTExemptThreshold},
		{"POS_VAT_RATE", raw.VATRate, &cfg.VATRate},
		{"PAYROLL_ROUNDING_STEP", raw.RoundingStep, &cfg.RoundingStep},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			continue
		}
		parsed, err := decimal.NewFromString(strings.TrimSpace(f.value))
		if err != nil {
			return Config{}, fmt.Errorf("domain/tax: %s: %w", f.name, err)
		}
		if parsed.IsNegative() {
			return Config{}, fmt.Errorf("domain/tax: %s must not be negative", f.name)
		}
		*f.dst = parsed
	}

	ceilings := []struct {
		name  string
		kind  SubsidyKind
		value string
	}{
		{"TAX_FAMILY_EXEMPT_CEILING", SubsidyFamily, raw.FamilyExemptCeiling},
		{"TAX_TRANSPORT_EXEMPT_CEILING", SubsidyTransport, raw.TransportExemptCeiling},
		{"TAX_FOOD_EXEMPT_CEILING", SubsidyFood, raw.FoodExemptCeiling},
	}
	for _, c := range ceilings {
		if strings.TrimSpace(c.value) == "" {
			continue
		}
		parsed, err := decimal.NewFromString(strings.TrimSpace(c.value))
		if err != nil {
			return Config{}, fmt.Errorf("domain/tax: %s: %w", c.name, err)
		}
		if parsed.IsNegative() {
			return Config{}, fmt.Errorf("domain/tax: %s must not be negative", c.name)
		}
		cfg.NonSubjectCeilings[c.kind] = parsed
	}

	if strings.TrimSpace(raw.INSSExemptSubsidies) != "" {
		cfg.INSSExempt = nil
		for _, part := range strings.Split(raw.INSSExemptSubsidies, ",") {
			kind := SubsidyKind(strings.ToLower(strings.TrimSpace(part)))
			if kind == "" {
				continue
			}
			if !kind.Valid() {
				return Config{}, fmt.Errorf("domain/tax: TAX_INSS_EXEMPT_SUBSIDIES: unknown subsidy %q", kind)
			}
			cfg.INSSExempt = append(cfg.INSSExempt, kind)
		}
	}
	sort.Slice(cfg.Brackets, func(i, j int) bool { return cfg.Brackets[i].From.LessThan(cfg.Brackets[j].From) })
	// Income above the threshold must fall in a bracket, otherwise it would be
	// reported as subject with no IRT.
	if len(cfg.Brackets) > 0 && cfg.IRTExemptThreshold.LessThan(cfg.Brackets[0].From) {
		return Config{}, fmt.Errorf("domain/tax: TAX_IRT_EXEMPT_THRESHOLD %s is below the first IRT bracket %s",
			cfg.IRTExemptThreshold.String(), cfg.Brackets[0].From.String())
	}
	return cfg, nil
}

func (c Config) inssExempt(kind SubsidyKind) bool {
	for _, k := range c.INSSExempt {
		if k == kind {
			return true
		}
	}
	return false
}

func (c Config) bracketFor(taxable decimal.Decimal) (Bracket, bool) {
	var found Bracket
	ok := false
	for _, b := range c.Brackets {
		if taxable.GreaterThan(b.From) {
			found = b
			ok = true
		}
	}
	return found, ok
}
