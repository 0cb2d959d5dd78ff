package attendance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"gestao/internal/domain/employees"
	"gestao/internal/domain/period"
)

type Service struct {
	store     StoreAPI
	employees EmployeeDirectory
	now       func() time.Time
}

func NewService(store StoreAPI, directory EmployeeDirectory) *Service {
	return &Service{store: store, employees: directory, now: time.Now}
}

// ProcessBulk writes one Present record on day 1 for every selected employee
// that has no attendance yet in the period. A terminated employee in the
// selection rejects the whole batch.
func (s *Service) ProcessBulk(ctx context.Context, employeeIDs []string, p period.Period) ([]Record, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(employeeIDs) == 0 {
		return nil, ErrNoEmployees
	}
	selected := make([]employees.Employee, 0, len(employeeIDs))
	for _, id := range dedupe(employeeIDs) {
		e, err := s.employees.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", id, err)
		}
		if e.Terminated() {
			return nil, fmt.Errorf("%w: %s", ErrEmployeeTerminated, e.Name)
		}
		selected = append(selected, e)
	}

	day1, _ := p.Day(1)
	now := s.now().UTC()
	records := make([]Record, 0, len(selected))
	for _, e := range selected {
		complete, err := s.IsComplete(ctx, e.ID, p)
		if err != nil {
			return nil, err
		}
		if complete {
			continue
		}
		records = append(records, Record{
			ID:           uuid.NewString(),
			EmployeeID:   e.ID,
			Date:         day1,
			Status:       StatusPresent,
			RecordStatus: RecordActive,
			Source:       SourceBulk,
			CreatedAt:    now,
		})
	}
	if len(records) == 0 {
		return records, nil
	}
	if err := s.store.Insert(ctx, records); err != nil {
		return nil, fmt.Errorf("insert attendance: %w", err)
	}
	return records, nil
}

// RecordDays writes the interactive grid for one employee. A day already
// recorded is replaced, the previous record being voided.
func (s *Service) RecordDays(ctx context.Context, employeeID string, p period.Period, days map[int]Status) ([]Record, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	e, err := s.employees.Get(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if e.Terminated() {
		return nil, fmt.Errorf("%w: %s", ErrEmployeeTerminated, e.Name)
	}

	keys := make([]int, 0, len(days))
	for day := range days {
		keys = append(keys, day)
	}
	sort.Ints(keys)

	now := s.now().UTC()
	records := make([]Record, 0, len(keys))
	for _, day := range keys {
		date, err := p.Day(day)
		if err != nil {
			return nil, err
		}
		status, err := ParseStatus(string(days[day]))
		if err != nil {
			return nil, fmt.Errorf("%w: day %d %q", ErrUnknownStatus, day, days[day])
		}
		records = append(records, Record{
			ID:           uuid.NewString(),
			EmployeeID:   e.ID,
			Date:         date,
			Status:       status,
			RecordStatus: RecordActive,
			Source:       SourceGrid,
			CreatedAt:    now,
		})
	}
	if len(records) == 0 {
		return records, nil
	}
	if err := s.store.ReplaceDays(ctx, e.ID, records); err != nil {
		return nil, fmt.Errorf("record attendance days: %w", err)
	}
	return records, nil
}

// Void marks every active record of the employees in the period as VOID.
func (s *Service) Void(ctx context.Context, employeeIDs []string, p period.Period) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if len(employeeIDs) == 0 {
		return 0, ErrNoEmployees
	}
	return s.store.VoidActive(ctx, dedupe(employeeIDs), p)
}

func (s *Service) IsComplete(ctx context.Context, employeeID string, p period.Period) (bool, error) {
	records, err := s.store.ListActive(ctx, employeeID, p)
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

func (s *Service) Records(ctx context.Context, employeeID string, p period.Period) ([]Record, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.store.ListActive(ctx, employeeID, p)
}

// Effectiveness counts the active records per status for every employee.
// Terminated employees only appear when they have records in the period.
func (s *Service) Effectiveness(ctx context.Context, p period.Period) ([]EffectivenessRow, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	staff, _, err := s.employees.List(ctx, employees.Filter{})
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListActiveForPeriod(ctx, p)
	if err != nil {
		return nil, err
	}
	byEmployee := map[string][]Record{}
	for _, r := range records {
		byEmployee[r.EmployeeID] = append(byEmployee[r.EmployeeID], r)
	}

	rows := make([]EffectivenessRow, 0, len(staff))
	for _, e := range staff {
		own := byEmployee[e.ID]
		if e.Terminated() && len(own) == 0 {
			continue
		}
		rows = append(rows, effectivenessRow(e, own))
	}
	return rows, nil
}

func effectivenessRow(e employees.Employee, records []Record) EffectivenessRow {
	row := EffectivenessRow{
		EmployeeID: e.ID,
		Name:       e.Name,
		Role:       e.Role,
		NIF:        e.NIF,
		INSSNumber: e.INSSNumber,
	}
	for _, r := range records {
		switch r.Status {
		case StatusPresent:
			row.Present++
		case StatusDayOff:
			row.DaysOff++
		case StatusJustifiedAbsence:
			row.Justified++
		case StatusUnjustifiedAbsence:
			row.Unjustified++
		case StatusVacation:
			row.Vacation++
		}
	}
	row.Total = row.Present + row.DaysOff + row.Vacation
	return row
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
