package payroll

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"gestao/internal/domain/employees"
	cryptoutil "gestao/internal/platform/crypto"
	"gestao/internal/platform/money"
	"gestao/internal/platform/printing"
)

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// PayslipArchive renders payslips and keeps them under Dir, encrypted when a
// data key is configured.
type PayslipArchive struct {
	Company printing.Company
	Dir     string
	Crypto  *cryptoutil.Service
}

func (a *PayslipArchive) path(slipID string) string {
	return filepath.Join(a.Dir, "payslips", slipID+".pdf")
}

func (a *PayslipArchive) Load(slipID string) ([]byte, bool, error) {
	data, err := os.ReadFile(a.path(slipID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	plain, err := a.Crypto.Decrypt(data)
	if err != nil {
		return nil, false, fmt.Errorf("decrypt payslip: %w", err)
	}
	return plain, true, nil
}

func (a *PayslipArchive) Save(slipID string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(a.path(slipID)), 0o755); err != nil {
		return err
	}
	sealed, err := a.Crypto.Encrypt(data)
	if err != nil {
		return err
	}
	return os.WriteFile(a.path(slipID), sealed, 0o600)
}

// Render prints the slip twice on one A4 page: the employee's original and the
// company's duplicate.
func (a *PayslipArchive) Render(slip SalarySlip, employee employees.Employee, issued time.Time) ([]byte, error) {
	doc := printing.NewA4()
	_, pageHeight := doc.PDF.GetPageSize()
	for i, copyLabel := range []string{CopyOriginal, CopyDuplicate} {
		if i == 1 {
			doc.PDF.SetDrawColor(150, 150, 150)
			doc.PDF.SetDashPattern([]float64{1, 1}, 0)
			doc.PDF.Line(10, pageHeight/2, 200, pageHeight/2)
			doc.PDF.SetDashPattern([]float64{}, 0)
			doc.PDF.SetDrawColor(0, 0, 0)
			doc.PDF.SetY(pageHeight/2 + 4)
		}
		a.renderCopy(doc, slip, employee, copyLabel, issued)
	}
	return doc.Bytes()
}

func (a *PayslipArchive) renderCopy(doc *printing.Document, slip SalarySlip, employee employees.Employee, copyLabel string, issued time.Time) {
	c := slip.Computation
	subtitle := fmt.Sprintf("%s de %d  |  %s", monthNames[slip.Period.Month-1], slip.Period.Year, copyLabel)
	doc.Header(a.Company, "Recibo de Salário", subtitle)

	doc.Row("Funcionário: "+slip.EmployeeName, "Categoria: "+slip.EmployeeRole, true)
	doc.Row("NIF: "+employee.NIF+"   N. INSS: "+employee.INSSNumber, "IBAN: "+employee.IBAN, false)

	lines := []struct {
		label string
		value decimal.Decimal
	}{
		{"Vencimento base", c.BaseSalary},
		{"Complemento salarial", c.Complement},
		{"Abatimento por faltas", c.Absences.Neg()},
		{"Horas extra", c.Overtime},
		{"Horas perdidas", c.LostHours.Neg()},
		{"Vencimento ilíquido", c.BaseNet},
		{"Subsídio de transporte", c.Subsidies.Transport},
		{"Subsídio de alimentação", c.Subsidies.Food},
		{"Abono de família", c.Subsidies.Family},
		{"Subsídio de habitação", c.Subsidies.Housing},
		{"Subsídio de Natal", c.Subsidies.Christmas},
		{"Subsídio de férias", c.Subsidies.Vacation},
		{"Prémios e abonos", c.Allowances},
		{"Acerto salarial", c.Adjustment},
		{"Penalizações", c.Penalties.Neg()},
	}
	for _, line := range lines {
		if line.value.IsZero() {
			continue
		}
		doc.Row(line.label, money.Format(line.value), false)
	}
	doc.Row("Total ilíquido", money.Format(c.GrossTotal), true)
	doc.Row("INSS (3%) sobre "+money.Format(c.INSSBase), money.Format(c.INSS.Neg()), false)
	doc.Row("IRT sobre "+money.Format(c.IRTTaxable), money.Format(c.IRT.Neg()), false)
	doc.Row("Total líquido", money.Format(c.NetTotal), true)
	if !c.Advances.IsZero() {
		doc.Row("Adiantamentos", money.Format(c.Advances.Neg()), false)
	}
	if !c.Rounding.IsZero() {
		doc.Row("Arredondamento", money.Format(c.Rounding), false)
	}
	doc.Row("Valor a receber", money.Format(c.AmountPayable), true)
	doc.PDF.Ln(4)
	doc.Row("Assinatura do funcionário: ______________________", "", false)
	doc.Footer(issued)
}
