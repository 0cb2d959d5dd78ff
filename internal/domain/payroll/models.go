package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"gestao/internal/domain/period"
	"gestao/internal/domain/tax"
)

type SalarySlip struct {
	ID           string        `json:"id"`
	EmployeeID   string        `json:"employeeId"`
	Period       period.Period `json:"period"`
	EmployeeName string        `json:"employeeName"`
	EmployeeRole string        `json:"employeeRole"`
	Computation  tax.Breakdown `json:"computation"`
	Status       SlipStatus    `json:"status"`
	Transferred  bool          `json:"transferred"`
	TransferID   string        `json:"transferId,omitempty"`
	CreatedBy    string        `json:"createdBy"`
	CreatedAt    time.Time     `json:"createdAt"`
}

func (s SalarySlip) NetTotal() decimal.Decimal {
	return s.Computation.NetTotal
}

// ManualAdjustments are the month-specific amounts entered when processing a
// slip. They add to the employee's standing adjustments; Subsidies, when set,
// replaces the employee's subsidies for this slip.
type ManualAdjustments struct {
	Absences   decimal.Decimal `json:"absences"`
	Overtime   decimal.Decimal `json:"overtime"`
	LostHours  decimal.Decimal `json:"lostHours"`
	Allowances decimal.Decimal `json:"allowances"`
	Adjustment decimal.Decimal `json:"adjustment"`
	Penalties  decimal.Decimal `json:"penalties"`
	Advances   decimal.Decimal `json:"advances"`
	Rounding   decimal.Decimal `json:"rounding"`
	Subsidies  *tax.Subsidies  `json:"subsidies,omitempty"`
}

func (m ManualAdjustments) apply(in tax.SalaryInput) tax.SalaryInput {
	in.Absences = in.Absences.Add(m.Absences)
	in.Overtime = in.Overtime.Add(m.Overtime)
	in.LostHours = in.LostHours.Add(m.LostHours)
	in.Allowances = in.Allowances.Add(m.Allowances)
	in.Adjustment = in.Adjustment.Add(m.Adjustment)
	in.Penalties = in.Penalties.Add(m.Penalties)
	in.Advances = in.Advances.Add(m.Advances)
	in.Rounding = in.Rounding.Add(m.Rounding)
	if m.Subsidies != nil {
		in.Subsidies = *m.Subsidies
	}
	return in
}

// MapRow is one employee line of the monthly IRT/INSS salary map.
type MapRow struct {
	EmployeeID    string          `json:"employeeId"`
	EmployeeName  string          `json:"employeeName"`
	EmployeeRole  string          `json:"employeeRole"`
	INSSNumber    string          `json:"inssNumber"`
	BaseSalary    decimal.Decimal `json:"baseSalary"`
	GrossTotal    decimal.Decimal `json:"grossTotal"`
	INSSBase      decimal.Decimal `json:"inssBase"`
	IRTTaxable    decimal.Decimal `json:"irtTaxable"`
	IRTExempt     decimal.Decimal `json:"isento"`
	IRTNonSubject decimal.Decimal `json:"naoSujeito"`
	IRTSubject    decimal.Decimal `json:"sujeito"`
	INSSEmployer  decimal.Decimal `json:"inss8"`
	INSS          decimal.Decimal `json:"inss3"`
	IRT           decimal.Decimal `json:"irt"`
	NetTotal      decimal.Decimal `json:"netTotal"`
	Transferred   bool            `json:"transferred"`
}

type SalaryMap struct {
	Period period.Period `json:"period"`
	Rows   []MapRow      `json:"rows"`
	Totals MapRow        `json:"totals"`
}
