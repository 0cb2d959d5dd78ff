package payroll

import (
	"context"
	"sync"
	"time"

	"gestao/internal/domain/employees"
	"gestao/internal/domain/period"
	"gestao/internal/platform/jobs"
)

type memStore struct {
	slips []SalarySlip
}

func (m *memStore) Get(_ context.Context, slipID string) (SalarySlip, error) {
	for _, s := range m.slips {
		if s.ID == slipID {
			return s, nil
		}
	}
	return SalarySlip{}, ErrSlipNotFound
}

func (m *memStore) Current(_ context.Context, employeeID string, p period.Period) (SalarySlip, error) {
	for _, s := range m.slips {
		if s.EmployeeID == employeeID && s.Period == p && s.Status == SlipCurrent {
			return s, nil
		}
	}
	return SalarySlip{}, ErrSlipNotFound
}

func (m *memStore) ListCurrent(_ context.Context, p period.Period) ([]SalarySlip, error) {
	var out []SalarySlip
	for _, s := range m.slips {
		if s.Period == p && s.Status == SlipCurrent {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) History(_ context.Context, employeeID string, p period.Period) ([]SalarySlip, error) {
	var out []SalarySlip
	for _, s := range m.slips {
		if s.EmployeeID == employeeID && s.Period == p {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) Replace(_ context.Context, slip SalarySlip) error {
	for i := range m.slips {
		s := &m.slips[i]
		if s.EmployeeID == slip.EmployeeID && s.Period == slip.Period && s.Status == SlipCurrent {
			if s.Transferred {
				return ErrSlipTransferred
			}
			s.Status = SlipSuperseded
		}
	}
	m.slips = append(m.slips, slip)
	return nil
}

func (m *memStore) VoidCurrent(_ context.Context, employeeIDs []string, p period.Period) (int, error) {
	selected := map[string]bool{}
	for _, id := range employeeIDs {
		selected[id] = true
	}
	for _, s := range m.slips {
		if selected[s.EmployeeID] && s.Period == p && s.Status == SlipCurrent && s.Transferred {
			return 0, ErrSlipTransferred
		}
	}
	n := 0
	for i := range m.slips {
		s := &m.slips[i]
		if selected[s.EmployeeID] && s.Period == p && s.Status == SlipCurrent {
			s.Status = SlipVoid
			n++
		}
	}
	return n, nil
}

type memAttendance struct {
	complete map[string]bool
}

func (m memAttendance) IsComplete(_ context.Context, employeeID string, _ period.Period) (bool, error) {
	return m.complete[employeeID], nil
}

type memEmployees map[string]employees.Employee

func (m memEmployees) Get(_ context.Context, id string) (employees.Employee, error) {
	e, ok := m[id]
	if !ok {
		return employees.Employee{}, employees.ErrNotFound
	}
	return e, nil
}

type recordingQueue struct {
	mu   sync.Mutex
	runs []jobs.RunFunc
}

func (q *recordingQueue) Enqueue(_ string, run jobs.RunFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.runs = append(q.runs, run)
}

// steppingClock returns strictly increasing instants.
func steppingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}
