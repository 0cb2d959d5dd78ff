package settlement

import (
	"context"

	"github.com/shopspring/decimal"

	"gestao/internal/domain/payroll"
	"gestao/internal/domain/period"
)

type StoreAPI interface {
	ListRegisters(ctx context.Context) ([]Register, error)
	GetRegister(ctx context.Context, id string) (Register, error)
	CreateRegister(ctx context.Context, r Register) error
	Deposit(ctx context.Context, id string, amount decimal.Decimal) (Register, error)
	// CurrentSlips returns the CURRENT slips of the employees for the period.
	CurrentSlips(ctx context.Context, employeeIDs []string, p period.Period) ([]payroll.SalarySlip, error)
	// Commit debits the register, flags the order's slips as transferred and
	// stores the order atomically. It re-checks the balance under lock.
	Commit(ctx context.Context, order TransferOrder) (Register, error)
	GetOrder(ctx context.Context, id string) (TransferOrder, error)
	ListOrders(ctx context.Context, p period.Period) ([]TransferOrder, error)
}
