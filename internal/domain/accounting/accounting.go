// Package accounting classifies payroll into journal entries: salary
// processing (SALARY_PROC) from the current slips of a month and salary
// payment (SALARY_PAY) from its transfer orders.
package accounting

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gestao/internal/domain/payroll"
	"gestao/internal/domain/period"
	"gestao/internal/domain/settlement"
)

type Mode string

const (
	ModeSalaryProcessing Mode = "SALARY_PROC"
	ModeSalaryPayment    Mode = "SALARY_PAY"
)

func (m Mode) Valid() bool {
	return m == ModeSalaryProcessing || m == ModeSalaryPayment
}

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusClassified Status = "CLASSIFIED"
)

var (
	ErrInvalidMode     = errors.New("unknown classification mode")
	ErrUnbalancedEntry = errors.New("journal entry does not balance")
)

// Accounts are the PGC codes the entries are posted to.
type Accounts struct {
	SalaryExpense   string `json:"salaryExpense"`
	SocialCharges   string `json:"socialCharges"`
	SalariesPayable string `json:"salariesPayable"`
	IRTPayable      string `json:"irtPayable"`
	INSSPayable     string `json:"inssPayable"`
	Cash            string `json:"cash"`
}

func (a Accounts) Validate() error {
	fields := []struct{ name, value string }{
		{"ACCOUNT_SALARY_EXPENSE", a.SalaryExpense},
		{"ACCOUNT_SOCIAL_CHARGES", a.SocialCharges},
		{"ACCOUNT_SALARIES_PAYABLE", a.SalariesPayable},
		{"ACCOUNT_IRT_PAYABLE", a.IRTPayable},
		{"ACCOUNT_INSS_PAYABLE", a.INSSPayable},
		{"ACCOUNT_CASH", a.Cash},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("domain/accounting: %s is required", f.name)
		}
	}
	return nil
}

type Line struct {
	Account     string          `json:"account"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// Entry is one journal entry. SourceID is the slip (SALARY_PROC) or the
// transfer order (SALARY_PAY) it was built from; an entry is posted at most
// once per mode and source.
type Entry struct {
	ID        string        `json:"id,omitempty"`
	Mode      Mode          `json:"mode"`
	SourceID  string        `json:"sourceId"`
	Period    period.Period `json:"period"`
	Date      time.Time     `json:"date"`
	DocNumber string        `json:"docNumber"`
	Entity    string        `json:"entity"`
	Lines     []Line        `json:"lines"`
	Status    Status        `json:"status"`
	CreatedBy string        `json:"createdBy,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

func (e Entry) Debits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

func (e Entry) Credits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

func (e Entry) Balanced() bool {
	return e.Debits().Equal(e.Credits())
}

// ProcessingEntry posts the cost of one slip: gross salary and employer INSS
// against withheld IRT, both INSS shares and the net salary owed.
func ProcessingEntry(accounts Accounts, slip payroll.SalarySlip) (Entry, error) {
	c := slip.Computation
	entry := Entry{
		Mode:      ModeSalaryProcessing,
		SourceID:  slip.ID,
		Period:    slip.Period,
		Date:      slip.Period.End(),
		DocNumber: "PS " + slip.Period.String(),
		Entity:    slip.EmployeeName,
	}
	entry.Lines = compact([]Line{
		{Account: accounts.SalaryExpense, Description: "Remunerações", Debit: c.GrossTotal},
		{Account: accounts.SocialCharges, Description: "INSS entidade patronal", Debit: c.INSSEmployer},
		{Account: accounts.IRTPayable, Description: "IRT retido", Credit: c.IRT},
		{Account: accounts.INSSPayable, Description: "INSS a pagar", Credit: c.INSS.Add(c.INSSEmployer)},
		{Account: accounts.SalariesPayable, Description: "Remunerações a pagar", Credit: c.NetTotal},
	})
	if !entry.Balanced() {
		return Entry{}, fmt.Errorf("%w: slip %s debits %s credits %s", ErrUnbalancedEntry, slip.ID, entry.Debits().StringFixed(2), entry.Credits().StringFixed(2))
	}
	return entry, nil
}

// PaymentEntry settles the net salaries paid by a transfer order from the
// cash register.
func PaymentEntry(accounts Accounts, order settlement.TransferOrder) Entry {
	entry := Entry{
		Mode:      ModeSalaryPayment,
		SourceID:  order.ID,
		Period:    order.Period,
		Date:      order.CreatedAt,
		DocNumber: "OT " + shortID(order.ID),
		Entity:    fmt.Sprintf("%d funcionário(s)", len(order.Lines)),
	}
	for _, l := range order.Lines {
		entry.Lines = append(entry.Lines, Line{Account: accounts.SalariesPayable, Description: l.EmployeeName, Debit: l.Amount})
	}
	entry.Lines = append(entry.Lines, Line{Account: accounts.Cash, Description: "Pagamento de salários", Credit: order.Total})
	return entry
}

func compact(lines []Line) []Line {
	out := lines[:0]
	for _, l := range lines {
		if l.Debit.IsZero() && l.Credit.IsZero() {
			continue
		}
		out = append(out, l)
	}
	return out
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}
