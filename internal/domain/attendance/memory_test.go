package attendance

import (
	"context"
	"sort"

	"gestao/internal/domain/employees"
	"gestao/internal/domain/period"
	"gestao/internal/platform/fallback"
)

type memStore struct {
	records []Record
	failErr error
}

func (m *memStore) Insert(_ context.Context, records []Record) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.records = append(m.records, records...)
	return nil
}

func (m *memStore) ReplaceDays(_ context.Context, employeeID string, records []Record) error {
	if m.failErr != nil {
		return m.failErr
	}
	for _, r := range records {
		for i := range m.records {
			existing := &m.records[i]
			if existing.EmployeeID == employeeID && existing.Date.Equal(r.Date) && existing.RecordStatus == RecordActive {
				existing.RecordStatus = RecordVoid
			}
		}
	}
	m.records = append(m.records, records...)
	return nil
}

func (m *memStore) ListActive(_ context.Context, employeeID string, p period.Period) ([]Record, error) {
	var out []Record
	for _, r := range m.records {
		if r.EmployeeID == employeeID && p.Contains(r.Date) && r.RecordStatus == RecordActive {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memStore) ListActiveForPeriod(_ context.Context, p period.Period) ([]Record, error) {
	var out []Record
	for _, r := range m.records {
		if p.Contains(r.Date) && r.RecordStatus == RecordActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) VoidActive(_ context.Context, employeeIDs []string, p period.Period) (int, error) {
	selected := map[string]bool{}
	for _, id := range employeeIDs {
		selected[id] = true
	}
	n := 0
	for i := range m.records {
		r := &m.records[i]
		if selected[r.EmployeeID] && p.Contains(r.Date) && r.RecordStatus == RecordActive {
			r.RecordStatus = RecordVoid
			n++
		}
	}
	return n, nil
}

type memDirectory map[string]employees.Employee

func (d memDirectory) Get(_ context.Context, id string) (employees.Employee, error) {
	e, ok := d[id]
	if !ok {
		return employees.Employee{}, employees.ErrNotFound
	}
	return e, nil
}

func (d memDirectory) List(context.Context, employees.Filter) ([]employees.Employee, fallback.Outcome, error) {
	out := make([]employees.Employee, 0, len(d))
	for _, e := range d {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, fallback.SyncRemote, nil
}
