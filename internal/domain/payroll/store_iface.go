package payroll

import (
	"context"

	"gestao/internal/domain/employees"
	"gestao/internal/domain/period"
	"gestao/internal/platform/jobs"
)

type StoreAPI interface {
	Get(ctx context.Context, slipID string) (SalarySlip, error)
	Current(ctx context.Context, employeeID string, p period.Period) (SalarySlip, error)
	ListCurrent(ctx context.Context, p period.Period) ([]SalarySlip, error)
	History(ctx context.Context, employeeID string, p period.Period) ([]SalarySlip, error)
	// Replace supersedes the current slip of the employee/period and stores
	// slip as the new current one. It fails with ErrSlipTransferred when the
	// current slip is already paid out.
	Replace(ctx context.Context, slip SalarySlip) error
	// VoidCurrent voids the current slips of the employees in one
	// transaction; a transferred slip aborts the whole operation.
	VoidCurrent(ctx context.Context, employeeIDs []string, p period.Period) (int, error)
}

type AttendanceChecker interface {
	IsComplete(ctx context.Context, employeeID string, p period.Period) (bool, error)
}

type EmployeeSource interface {
	Get(ctx context.Context, id string) (employees.Employee, error)
}

type Enqueuer interface {
	Enqueue(jobType string, run jobs.RunFunc)
}
