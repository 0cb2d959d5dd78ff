package tax

import (
	"github.com/shopspring/decimal"

	"gestao/internal/platform/money"
)

// SalaryInput carries one month of compensation for one employee. Absences,
// lost hours and penalties are positive magnitudes that reduce pay.
type SalaryInput struct {
	BaseSalary decimal.Decimal `json:"baseSalary"`
	Complement decimal.Decimal `json:"complement"`
	Absences   decimal.Decimal `json:"absences"`
	Overtime   decimal.Decimal `json:"overtime"`
	LostHours  decimal.Decimal `json:"lostHours"`
	Subsidies  Subsidies       `json:"subsidies"`
	Allowances decimal.Decimal `json:"allowances"`
	Adjustment decimal.Decimal `json:"adjustment"`
	Penalties  decimal.Decimal `json:"penalties"`
	Advances   decimal.Decimal `json:"advances"`
	Rounding   decimal.Decimal `json:"rounding"`
}

// Breakdown is the full computation as printed on the payslip and salary map.
type Breakdown struct {
	SalaryInput
	BaseNet           decimal.Decimal `json:"baseNet"`
	GrossTotal        decimal.Decimal `json:"grossTotal"`
	INSSBase          decimal.Decimal `json:"inssBase"`
	INSS              decimal.Decimal `json:"inss"`
	INSSEmployer      decimal.Decimal `json:"inssEmployer"`
	IRTTaxable        decimal.Decimal `json:"irtTaxable"`
	IRTExempt         decimal.Decimal `json:"irtExempt"`
	IRTNonSubject     decimal.Decimal `json:"irtNonSubject"`
	IRTSubject        decimal.Decimal `json:"irtSubject"`
	IRT               decimal.Decimal `json:"irt"`
	NetTotal          decimal.Decimal `json:"netTotal"`
	AmountPayable     decimal.Decimal `json:"amountPayable"`
	SuggestedRounding decimal.Decimal `json:"suggestedRounding"`
}

func (in SalaryInput) Validate() error {
	if !in.BaseSalary.IsPositive() {
		return invalid("baseSalary", "must be greater than zero")
	}
	magnitudes := []struct {
		field string
		value decimal.Decimal
	}{
		{"complement", in.Complement},
		{"absences", in.Absences},
		{"overtime", in.Overtime},
		{"lostHours", in.LostHours},
		{"allowances", in.Allowances},
		{"penalties", in.Penalties},
		{"advances", in.Advances},
	}
	for _, m := range magnitudes {
		if m.value.IsNegative() {
			return invalid(m.field, "must not be negative")
		}
	}
	for _, kind := range SubsidyKinds {
		if in.Subsidies.Get(kind).IsNegative() {
			return invalid("subsidies."+string(kind), "must not be negative")
		}
	}
	return nil
}

// BaseNet is the "vencimento ilíquido": base and complement corrected by
// absences, overtime and lost hours.
func BaseNet(in SalaryInput) decimal.Decimal {
	return in.BaseSalary.Add(in.Complement).Sub(in.Absences).Add(in.Overtime).Sub(in.LostHours)
}

func GrossTotal(in SalaryInput) decimal.Decimal {
	return BaseNet(in).Add(in.Subsidies.Total()).Add(in.Allowances).Add(in.Adjustment).Sub(in.Penalties)
}

// IRT applies the progressive table to an already computed taxable amount.
func IRT(cfg Config, taxable decimal.Decimal) decimal.Decimal {
	if !taxable.GreaterThan(cfg.IRTExemptThreshold) {
		return decimal.Zero
	}
	bracket, ok := cfg.bracketFor(taxable)
	if !ok {
		return decimal.Zero
	}
	return money.Round2(bracket.Fixed.Add(taxable.Sub(bracket.From).Mul(bracket.Rate)))
}

// Compute validates the input and produces the INSS/IRT breakdown.
func Compute(cfg Config, in SalaryInput) (Breakdown, error) {
	if err := in.Validate(); err != nil {
		return Breakdown{}, err
	}
	out := Breakdown{SalaryInput: in}
	out.BaseNet = BaseNet(in)
	out.GrossTotal = GrossTotal(in)
	if !out.GrossTotal.IsPositive() {
		return Breakdown{}, invalid("grossTotal", "deductions and adjustment leave nothing to pay")
	}

	inssBase := out.GrossTotal
	for _, kind := range SubsidyKinds {
		if cfg.inssExempt(kind) {
			inssBase = inssBase.Sub(in.Subsidies.Get(kind))
		}
	}
	if inssBase.IsNegative() {
		inssBase = decimal.Zero
	}
	out.INSSBase = inssBase
	out.INSS = money.Round2(inssBase.Mul(cfg.INSSEmployeeRate))
	out.INSSEmployer = money.Round2(inssBase.Mul(cfg.INSSEmployerRate))

	nonSubject := decimal.Zero
	for kind, ceiling := range cfg.NonSubjectCeilings {
		nonSubject = nonSubject.Add(money.MinPositive(in.Subsidies.Get(kind), ceiling))
	}
	out.IRTNonSubject = nonSubject

	taxable := out.GrossTotal.Sub(out.INSS).Sub(nonSubject)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	out.IRTTaxable = taxable
	if taxable.GreaterThan(cfg.IRTExemptThreshold) {
		out.IRTSubject = taxable
		out.IRT = IRT(cfg, taxable)
	} else {
		out.IRTExempt = taxable
	}

	out.NetTotal = out.GrossTotal.Sub(out.INSS).Sub(out.IRT)
	if !out.NetTotal.IsPositive() {
		return Breakdown{}, invalid("netTotal", "deductions and adjustment leave nothing to pay")
	}
	beforeRounding := out.NetTotal.Sub(in.Advances)
	out.SuggestedRounding = money.RoundUpTo(beforeRounding, cfg.RoundingStep).Sub(beforeRounding)
	out.AmountPayable = beforeRounding.Add(in.Rounding)
	return out, nil
}
