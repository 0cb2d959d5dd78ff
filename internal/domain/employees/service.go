package employees

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	cryptoutil "gestao/internal/platform/crypto"
	"gestao/internal/platform/fallback"
)

type Service struct {
	repo   Repository
	crypto *cryptoutil.Service
	now    func() time.Time
}

func NewService(repo Repository, crypto *cryptoutil.Service) *Service {
	return &Service{repo: repo, crypto: crypto, now: time.Now}
}

type Filter struct {
	Status     Status
	Department string
	Search     string
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Employee, fallback.Outcome, error) {
	all, outcome, err := s.repo.List(ctx)
	if err != nil {
		return nil, outcome, fmt.Errorf("list employees: %w", err)
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]Employee, 0, len(all))
	for _, e := range all {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.Department != "" && !strings.EqualFold(e.Department, filter.Department) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.Name), search) && !strings.Contains(e.EmployeeNumber, search) {
			continue
		}
		opened, err := s.open(e)
		if err != nil {
			return nil, outcome, err
		}
		out = append(out, opened)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, outcome, nil
}

func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	e, _, err := s.repo.Get(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	return s.open(e)
}

func (s *Service) Create(ctx context.Context, e Employee) (Employee, fallback.Outcome, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = StatusActive
	}
	now := s.now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	return s.save(ctx, e)
}

// Update replaces the editable fields of an existing employee. Status changes
// to Terminated go through Terminate.
func (s *Service) Update(ctx context.Context, id string, changes Employee) (Employee, fallback.Outcome, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Employee{}, "", err
	}
	if changes.Status == StatusTerminated && !current.Terminated() {
		return Employee{}, "", fmt.Errorf("%w: use terminate to end a contract", ErrInvalidEmployee)
	}
	changes.ID = current.ID
	changes.CreatedAt = current.CreatedAt
	changes.UpdatedAt = s.now().UTC()
	if changes.Status == "" {
		changes.Status = current.Status
	}
	if current.Terminated() {
		changes.Status = StatusTerminated
		changes.TerminationDate = current.TerminationDate
	}
	return s.save(ctx, changes)
}

// Terminate ends the contract; employees are never hard-deleted.
func (s *Service) Terminate(ctx context.Context, id string, date time.Time) (Employee, fallback.Outcome, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Employee{}, "", err
	}
	if current.Terminated() {
		return Employee{}, "", ErrAlreadyTerminated
	}
	if date.IsZero() {
		date = s.now()
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	current.Status = StatusTerminated
	current.TerminationDate = &date
	current.UpdatedAt = s.now().UTC()
	return s.save(ctx, current)
}

func (s *Service) save(ctx context.Context, e Employee) (Employee, fallback.Outcome, error) {
	if err := Validate(e); err != nil {
		return Employee{}, "", err
	}
	sealed, err := s.seal(e)
	if err != nil {
		return Employee{}, "", err
	}
	saved, outcome, err := s.repo.Upsert(ctx, sealed)
	if err != nil {
		return Employee{}, outcome, err
	}
	opened, err := s.open(saved)
	return opened, outcome, err
}

func Validate(e Employee) error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidEmployee)
	}
	if strings.TrimSpace(e.NIF) == "" {
		return fmt.Errorf("%w: nif is required", ErrInvalidEmployee)
	}
	if !e.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidEmployee, e.Status)
	}
	if !e.BaseSalary.IsPositive() {
		return fmt.Errorf("%w: baseSalary must be greater than zero", ErrInvalidEmployee)
	}
	if e.Complement.IsNegative() {
		return fmt.Errorf("%w: complement must not be negative", ErrInvalidEmployee)
	}
	for name, g := range e.Subsidies.grants() {
		if g.Amount.IsNegative() {
			return fmt.Errorf("%w: subsidies.%s must not be negative", ErrInvalidEmployee, name)
		}
		if g.ValidFrom != nil && g.ValidTo != nil && g.ValidTo.Before(*g.ValidFrom) {
			return fmt.Errorf("%w: subsidies.%s validTo is before validFrom", ErrInvalidEmployee, name)
		}
	}
	if e.Adjustments.Allowances.IsNegative() || e.Adjustments.Advances.IsNegative() || e.Adjustments.Penalties.IsNegative() {
		return fmt.Errorf("%w: adjustment magnitudes must not be negative", ErrInvalidEmployee)
	}
	if e.TerminationDate != nil && e.AdmissionDate != nil && e.TerminationDate.Before(*e.AdmissionDate) {
		return fmt.Errorf("%w: terminationDate is before admissionDate", ErrInvalidEmployee)
	}
	return nil
}

func (s *Service) seal(e Employee) (Employee, error) {
	var err error
	if e.NIF, err = s.crypto.SealString(e.NIF); err != nil {
		return Employee{}, err
	}
	if e.IBAN, err = s.crypto.SealString(e.IBAN); err != nil {
		return Employee{}, err
	}
	return e, nil
}

func (s *Service) open(e Employee) (Employee, error) {
	var err error
	if e.NIF, err = s.crypto.OpenString(e.NIF); err != nil {
		return Employee{}, fmt.Errorf("open nif: %w", err)
	}
	if e.IBAN, err = s.crypto.OpenString(e.IBAN); err != nil {
		return Employee{}, fmt.Errorf("open iban: %w", err)
	}
	return e, nil
}
