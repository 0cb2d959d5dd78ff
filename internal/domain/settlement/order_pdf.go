package settlement

import (
	"fmt"
	"time"

	"gestao/internal/platform/money"
	"gestao/internal/platform/printing"
)

// RenderOrder prints the transfer order: one line per paid slip and the total
// debited from the register.
func RenderOrder(company printing.Company, order TransferOrder, register Register, issued time.Time) ([]byte, error) {
	doc := printing.NewA4()
	doc.Header(company, "Ordem de Transferência", fmt.Sprintf("Período %s  |  Caixa: %s", order.Period, register.Name))
	doc.Row("Ordem N.", order.ID, false)
	doc.Row("Emitida por", order.CreatedBy, false)
	doc.PDF.Ln(2)
	doc.Row("Funcionário", "Valor", true)
	for _, line := range order.Lines {
		doc.Row(line.EmployeeName, money.Format(line.Amount), false)
	}
	doc.Row("Total transferido", money.Format(order.Total), true)
	doc.Row("Saldo da caixa após transferência", money.Format(register.Balance), false)
	doc.PDF.Ln(8)
	doc.Row("Responsável: ______________________", "", false)
	doc.Footer(issued)
	return doc.Bytes()
}
