package attendance

import (
	"context"
	"errors"
	"time"

	"gestao/internal/domain/employees"
	"gestao/internal/domain/period"
	"gestao/internal/platform/fallback"
)

var (
	ErrEmployeeTerminated = errors.New("employee is terminated")
	ErrUnknownStatus      = errors.New("unknown attendance status")
	ErrNoEmployees        = errors.New("no employees selected")
)

type Status string

const (
	StatusPresent            Status = "Servico"
	StatusDayOff             Status = "Folga"
	StatusJustifiedAbsence   Status = "FaltaJustificada"
	StatusUnjustifiedAbsence Status = "FaltaInjustificada"
	StatusVacation           Status = "Ferias"
)

// ParseStatus accepts the stored names and the legacy "Present".
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPresent, "Present":
		return StatusPresent, nil
	case StatusDayOff, StatusJustifiedAbsence, StatusUnjustifiedAbsence, StatusVacation:
		return Status(raw), nil
	}
	return "", ErrUnknownStatus
}

type RecordStatus string

const (
	RecordActive RecordStatus = "ACTIVE"
	RecordVoid   RecordStatus = "VOID"
)

const (
	SourceBulk = "bulk"
	SourceGrid = "grid"
)

// Record is immutable once written except for RecordStatus.
type Record struct {
	ID           string       `json:"id"`
	EmployeeID   string       `json:"employeeId"`
	Date         time.Time    `json:"date"`
	Status       Status       `json:"status"`
	RecordStatus RecordStatus `json:"recordStatus"`
	Source       string       `json:"source"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// EffectivenessRow is one line of the monthly effectiveness map.
type EffectivenessRow struct {
	EmployeeID  string `json:"employeeId"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	NIF         string `json:"nif"`
	INSSNumber  string `json:"inssNumber"`
	Present     int    `json:"servico"`
	DaysOff     int    `json:"folga"`
	Justified   int    `json:"justificadas"`
	Unjustified int    `json:"injustificadas"`
	Vacation    int    `json:"ferias"`
	Total       int    `json:"total"`
}

type StoreAPI interface {
	Insert(ctx context.Context, records []Record) error
	// ReplaceDays voids the active records of the employee on the given
	// dates and inserts the new ones, atomically.
	ReplaceDays(ctx context.Context, employeeID string, records []Record) error
	ListActive(ctx context.Context, employeeID string, p period.Period) ([]Record, error)
	ListActiveForPeriod(ctx context.Context, p period.Period) ([]Record, error)
	VoidActive(ctx context.Context, employeeIDs []string, p period.Period) (int, error)
}

type EmployeeDirectory interface {
	Get(ctx context.Context, id string) (employees.Employee, error)
	List(ctx context.Context, filter employees.Filter) ([]employees.Employee, fallback.Outcome, error)
}
