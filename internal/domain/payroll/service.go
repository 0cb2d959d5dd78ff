package payroll

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"gestao/internal/domain/period"
	"gestao/internal/domain/tax"
	"gestao/internal/platform/jobs"
	"gestao/internal/platform/metrics"
)

type Deps struct {
	Store      StoreAPI
	Attendance AttendanceChecker
	Employees  EmployeeSource
	Tax        tax.Config
	Jobs       Enqueuer
	Metrics    *metrics.Collector
	Payslips   *PayslipArchive
}

type Service struct {
	store      StoreAPI
	attendance AttendanceChecker
	employees  EmployeeSource
	taxes      tax.Config
	jobs       Enqueuer
	metrics    *metrics.Collector
	payslips   *PayslipArchive
	now        func() time.Time
}

func NewService(deps Deps) *Service {
	return &Service{
		store:      deps.Store,
		attendance: deps.Attendance,
		employees:  deps.Employees,
		taxes:      deps.Tax,
		jobs:       deps.Jobs,
		metrics:    deps.Metrics,
		payslips:   deps.Payslips,
		now:        time.Now,
	}
}

// ProcessSalary computes the slip of one employee for the period and makes it
// the current one. The previous current slip becomes SUPERSEDED.
func (s *Service) ProcessSalary(ctx context.Context, employeeID string, p period.Period, adj ManualAdjustments, actorID string) (SalarySlip, error) {
	if err := p.Validate(); err != nil {
		return SalarySlip{}, err
	}
	employee, err := s.employees.Get(ctx, employeeID)
	if err != nil {
		return SalarySlip{}, err
	}
	if employee.Terminated() {
		return SalarySlip{}, fmt.Errorf("%w: %s", ErrEmployeeTerminated, employee.Name)
	}
	complete, err := s.attendance.IsComplete(ctx, employee.ID, p)
	if err != nil {
		return SalarySlip{}, fmt.Errorf("check attendance: %w", err)
	}
	if !complete {
		return SalarySlip{}, fmt.Errorf("%w: %s %s", ErrAttendanceIncomplete, employee.Name, p)
	}
	current, err := s.store.Current(ctx, employee.ID, p)
	if err != nil && !errors.Is(err, ErrSlipNotFound) {
		return SalarySlip{}, err
	}
	if err == nil && current.Transferred {
		return SalarySlip{}, ErrSlipTransferred
	}

	breakdown, err := tax.Compute(s.taxes, adj.apply(employee.SalaryInput(p)))
	if err != nil {
		return SalarySlip{}, err
	}
	slip := SalarySlip{
		ID:           uuid.NewString(),
		EmployeeID:   employee.ID,
		Period:       p,
		EmployeeName: employee.Name,
		EmployeeRole: employee.Role,
		Computation:  breakdown,
		Status:       SlipCurrent,
		CreatedBy:    actorID,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Replace(ctx, slip); err != nil {
		return SalarySlip{}, fmt.Errorf("store salary slip: %w", err)
	}
	s.metrics.SlipProcessed()
	s.enqueuePayslip(slip.ID)
	return slip, nil
}

// DeleteSalary voids the current slips of the employees. Every employee must
// have complete attendance, otherwise nothing changes.
func (s *Service) DeleteSalary(ctx context.Context, employeeIDs []string, p period.Period) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if len(employeeIDs) == 0 {
		return 0, ErrNoEmployees
	}
	var missing []string
	for _, id := range employeeIDs {
		complete, err := s.attendance.IsComplete(ctx, id, p)
		if err != nil {
			return 0, fmt.Errorf("check attendance: %w", err)
		}
		if !complete {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return 0, fmt.Errorf("%w: %v", ErrAttendanceMissing, missing)
	}
	for _, id := range employeeIDs {
		current, err := s.store.Current(ctx, id, p)
		if errors.Is(err, ErrSlipNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if current.Transferred {
			return 0, fmt.Errorf("%w: %s", ErrSlipTransferred, current.EmployeeName)
		}
	}
	n, err := s.store.VoidCurrent(ctx, employeeIDs, p)
	if err != nil {
		return 0, err
	}
	s.metrics.SlipsVoided(n)
	return n, nil
}

func (s *Service) Current(ctx context.Context, employeeID string, p period.Period) (SalarySlip, error) {
	return s.store.Current(ctx, employeeID, p)
}

func (s *Service) ListCurrent(ctx context.Context, p period.Period) ([]SalarySlip, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	slips, err := s.store.ListCurrent(ctx, p)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(slips, func(i, j int) bool { return slips[i].EmployeeName < slips[j].EmployeeName })
	return slips, nil
}

// History returns every slip of the employee in the period, newest first.
func (s *Service) History(ctx context.Context, employeeID string, p period.Period) ([]SalarySlip, error) {
	slips, err := s.store.History(ctx, employeeID, p)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(slips, func(i, j int) bool { return slips[i].CreatedAt.After(slips[j].CreatedAt) })
	return slips, nil
}

func (s *Service) Slip(ctx context.Context, slipID string) (SalarySlip, error) {
	return s.store.Get(ctx, slipID)
}

// PayslipPDF returns the archived payslip, rendering it on first access.
func (s *Service) PayslipPDF(ctx context.Context, slipID string) ([]byte, error) {
	if s.payslips == nil {
		return nil, errors.New("payslip archive not configured")
	}
	slip, err := s.store.Get(ctx, slipID)
	if err != nil {
		return nil, err
	}
	if data, ok, err := s.payslips.Load(slip.ID); err != nil {
		return nil, err
	} else if ok {
		return data, nil
	}
	return s.renderAndArchive(ctx, slip)
}

func (s *Service) renderAndArchive(ctx context.Context, slip SalarySlip) ([]byte, error) {
	employee, err := s.employees.Get(ctx, slip.EmployeeID)
	if err != nil {
		return nil, err
	}
	data, err := s.payslips.Render(slip, employee, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.payslips.Save(slip.ID, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Service) enqueuePayslip(slipID string) {
	if s.jobs == nil || s.payslips == nil {
		return
	}
	s.jobs.Enqueue(jobs.JobPayslipPDF, func(ctx context.Context) (any, error) {
		slip, err := s.store.Get(ctx, slipID)
		if err != nil {
			return map[string]string{"slipId": slipID}, err
		}
		data, err := s.renderAndArchive(ctx, slip)
		return map[string]any{"slipId": slipID, "bytes": len(data)}, err
	})
}
