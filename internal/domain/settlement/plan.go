package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"gestao/internal/domain/payroll"
)

// Plan selects the slips a transfer pays and checks them against the balance.
// Slips already transferred or not CURRENT are left out. A slip with a net of
// zero or less rejects the whole plan so a transfer can only debit.
func Plan(balance decimal.Decimal, slips []payroll.SalarySlip) ([]TransferLine, decimal.Decimal, error) {
	var lines []TransferLine
	total := decimal.Zero
	for _, slip := range slips {
		if slip.Status != payroll.SlipCurrent || slip.Transferred {
			continue
		}
		if !slip.NetTotal().IsPositive() {
			return nil, decimal.Zero, fmt.Errorf("%w: %s (%s)", ErrNonPositiveSlip, slip.EmployeeName, slip.NetTotal().StringFixed(2))
		}
		lines = append(lines, TransferLine{
			SlipID:       slip.ID,
			EmployeeID:   slip.EmployeeID,
			EmployeeName: slip.EmployeeName,
			Amount:       slip.NetTotal(),
		})
		total = total.Add(slip.NetTotal())
	}
	if len(lines) == 0 {
		return nil, decimal.Zero, ErrNothingToTransfer
	}
	if balance.LessThan(total) {
		return nil, total, fmt.Errorf("%w: balance %s, required %s", ErrInsufficientFunds, balance.StringFixed(2), total.StringFixed(2))
	}
	return lines, total, nil
}
