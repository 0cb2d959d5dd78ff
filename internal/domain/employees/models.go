package employees

import (
	"time"

	"github.com/shopspring/decimal"

	"gestao/internal/domain/period"
	"gestao/internal/domain/tax"
)

type Status string

const (
	StatusActive     Status = "Active"
	StatusTerminated Status = "Terminated"
	StatusOnLeave    Status = "OnLeave"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusTerminated, StatusOnLeave:
		return true
	}
	return false
}

// Grant is a recurring subsidy amount, optionally bounded in time.
type Grant struct {
	Amount    decimal.Decimal `json:"amount"`
	ValidFrom *time.Time      `json:"validFrom,omitempty"`
	ValidTo   *time.Time      `json:"validTo,omitempty"`
}

func (g Grant) activeIn(p period.Period) bool {
	if g.ValidFrom != nil && g.ValidFrom.After(p.End()) {
		return false
	}
	if g.ValidTo != nil && g.ValidTo.Before(p.Start()) {
		return false
	}
	return true
}

type Subsidies struct {
	Transport Grant `json:"transport"`
	Food      Grant `json:"food"`
	Family    Grant `json:"family"`
	Housing   Grant `json:"housing"`
	Christmas Grant `json:"christmas"`
	Vacation  Grant `json:"vacation"`
}

// For returns the amounts in force during p.
func (s Subsidies) For(p period.Period) tax.Subsidies {
	pick := func(g Grant) decimal.Decimal {
		if g.activeIn(p) {
			return g.Amount
		}
		return decimal.Zero
	}
	return tax.Subsidies{
		Transport: pick(s.Transport),
		Food:      pick(s.Food),
		Family:    pick(s.Family),
		Housing:   pick(s.Housing),
		Christmas: pick(s.Christmas),
		Vacation:  pick(s.Vacation),
	}
}

func (s Subsidies) grants() map[string]Grant {
	return map[string]Grant{
		"transport": s.Transport,
		"food":      s.Food,
		"family":    s.Family,
		"housing":   s.Housing,
		"christmas": s.Christmas,
		"vacation":  s.Vacation,
	}
}

// Adjustments are standing ad-hoc amounts applied every month until changed.
type Adjustments struct {
	Allowances decimal.Decimal `json:"allowances"`
	Advances   decimal.Decimal `json:"advances"`
	Adjustment decimal.Decimal `json:"adjustment"`
	Penalties  decimal.Decimal `json:"penalties"`
}

type Employee struct {
	ID              string          `json:"id"`
	EmployeeNumber  string          `json:"employeeNumber"`
	Name            string          `json:"name"`
	NIF             string          `json:"nif"`
	IDNumber        string          `json:"idNumber"`
	INSSNumber      string          `json:"inssNumber"`
	BankName        string          `json:"bankName"`
	IBAN            string          `json:"iban"`
	Role            string          `json:"role"`
	ProfessionID    string          `json:"professionId,omitempty"`
	Department      string          `json:"department"`
	AdmissionDate   *time.Time      `json:"admissionDate,omitempty"`
	TerminationDate *time.Time      `json:"terminationDate,omitempty"`
	Status          Status          `json:"status"`
	BaseSalary      decimal.Decimal `json:"baseSalary"`
	Complement      decimal.Decimal `json:"complement"`
	Subsidies       Subsidies       `json:"subsidies"`
	Adjustments     Adjustments     `json:"adjustments"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (e Employee) Terminated() bool {
	return e.Status == StatusTerminated
}

// SalaryInput seeds the tax calculator with the employee's standing pay for p.
func (e Employee) SalaryInput(p period.Period) tax.SalaryInput {
	return tax.SalaryInput{
		BaseSalary: e.BaseSalary,
		Complement: e.Complement,
		Subsidies:  e.Subsidies.For(p),
		Allowances: e.Adjustments.Allowances,
		Adjustment: e.Adjustments.Adjustment,
		Penalties:  e.Adjustments.Penalties,
		Advances:   e.Adjustments.Advances,
	}
}
