// Package settings keeps the company's bank accounts and the units of
// measure offered on sale documents.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"gestao/internal/platform/cache"
	"gestao/internal/platform/fallback"
)

var (
	ErrBankNotFound    = errors.New("bank account not found")
	ErrBankDuplicate   = errors.New("bank account with this IBAN already exists")
	ErrMetricNotFound  = errors.New("metric not found")
	ErrMetricDuplicate = errors.New("metric code already exists")
	ErrInvalid         = errors.New("invalid settings entry")
)

// Bank is one company account printed on documents and used for salary
// payment orders.
type Bank struct {
	ID            string    `json:"id"`
	Code          string    `json:"sigla"`
	Name          string    `json:"nome"`
	AccountNumber string    `json:"accountNumber"`
	NIB           string    `json:"nib"`
	IBAN          string    `json:"iban"`
	SWIFT         string    `json:"swift"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Metric is a unit of measure such as "un" or "kg".
type Metric struct {
	ID        string    `json:"id"`
	Code      string    `json:"sigla"`
	Name      string    `json:"nome"`
	CreatedAt time.Time `json:"createdAt"`
}

type BankRepository interface {
	List(ctx context.Context) ([]Bank, fallback.Outcome, error)
	Upsert(ctx context.Context, b Bank) (Bank, fallback.Outcome, error)
	Delete(ctx context.Context, id string) error
}

type MetricRepository interface {
	List(ctx context.Context) ([]Metric, fallback.Outcome, error)
	Upsert(ctx context.Context, m Metric) (Metric, fallback.Outcome, error)
	Delete(ctx context.Context, id string) error
}

func NewBankRepository(remote fallback.Remote[Bank], local *cache.Store, onLocal func(string)) *fallback.Collection[Bank] {
	return fallback.New[Bank](remote, local, fallback.Options[Bank]{
		Name: "banks",
		Key:  func(b Bank) string { return b.ID },
		Hard: func(err error) bool {
			return errors.Is(err, ErrBankDuplicate) || errors.Is(err, ErrBankNotFound)
		},
		OnLocal: onLocal,
	})
}

func NewMetricRepository(remote fallback.Remote[Metric], local *cache.Store, onLocal func(string)) *fallback.Collection[Metric] {
	return fallback.New[Metric](remote, local, fallback.Options[Metric]{
		Name: "metrics",
		Key:  func(m Metric) string { return m.ID },
		Hard: func(err error) bool {
			return errors.Is(err, ErrMetricDuplicate) || errors.Is(err, ErrMetricNotFound)
		},
		OnLocal: onLocal,
	})
}

type Service struct {
	banks   BankRepository
	metrics MetricRepository
	now     func() time.Time
}

func NewService(banks BankRepository, metrics MetricRepository) *Service {
	return &Service{banks: banks, metrics: metrics, now: time.Now}
}

func (s *Service) Banks(ctx context.Context) ([]Bank, fallback.Outcome, error) {
	items, outcome, err := s.banks.List(ctx)
	if err != nil {
		return nil, outcome, fmt.Errorf("list banks: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Code < items[j].Code })
	return items, outcome, nil
}

// SaveBank registers an account. Code and IBAN are required; the name falls
// back to the code.
func (s *Service) SaveBank(ctx context.Context, b Bank) (Bank, fallback.Outcome, error) {
	b.Code = strings.ToUpper(strings.TrimSpace(b.Code))
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		b.Name = b.Code
	}
	b.IBAN = normalizeIBAN(b.IBAN)
	b.SWIFT = strings.ToUpper(strings.TrimSpace(b.SWIFT))
	b.AccountNumber = strings.TrimSpace(b.AccountNumber)
	b.NIB = strings.Join(strings.Fields(b.NIB), "")
	if b.Code == "" {
		return Bank{}, "", fmt.Errorf("%w: sigla is required", ErrInvalid)
	}
	if b.IBAN == "" {
		return Bank{}, "", fmt.Errorf("%w: iban is required", ErrInvalid)
	}
	if err := validateIBAN(b.IBAN); err != nil {
		return Bank{}, "", err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
		b.CreatedAt = s.now().UTC()
	}
	return s.banks.Upsert(ctx, b)
}

func (s *Service) DeleteBank(ctx context.Context, id string) error {
	return s.banks.Delete(ctx, id)
}

func (s *Service) Metrics(ctx context.Context) ([]Metric, fallback.Outcome, error) {
	items, outcome, err := s.metrics.List(ctx)
	if err != nil {
		return nil, outcome, fmt.Errorf("list metrics: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Code < items[j].Code })
	return items, outcome, nil
}

// SaveMetric registers a unit. Codes are stored in lower case.
func (s *Service) SaveMetric(ctx context.Context, m Metric) (Metric, fallback.Outcome, error) {
	m.Code = strings.ToLower(strings.TrimSpace(m.Code))
	m.Name = strings.TrimSpace(m.Name)
	if m.Code == "" || m.Name == "" {
		return Metric{}, "", fmt.Errorf("%w: sigla and nome are required", ErrInvalid)
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
		m.CreatedAt = s.now().UTC()
	}
	return s.metrics.Upsert(ctx, m)
}

func (s *Service) DeleteMetric(ctx context.Context, id string) error {
	return s.metrics.Delete(ctx, id)
}

func normalizeIBAN(value string) string {
	return strings.ToUpper(strings.Join(strings.Fields(value), ""))
}

// validateIBAN checks length bounds and the ISO 13616 mod-97 check digits.
func validateIBAN(iban string) error {
	if len(iban) < 15 || len(iban) > 34 {
		return fmt.Errorf("%w: iban must have between 15 and 34 characters", ErrInvalid)
	}
	rearranged := iban[4:] + iban[:4]
	remainder := 0
	for _, r := range rearranged {
		switch {
		case r >= '0' && r <= '9':
			remainder = (remainder*10 + int(r-'0')) % 97
		case r >= 'A' && r <= 'Z':
			remainder = (remainder*100 + int(r-'A'+10)) % 97
		default:
			return fmt.Errorf("%w: iban has invalid characters", ErrInvalid)
		}
	}
	if remainder != 1 {
		return fmt.Errorf("%w: iban check digits do not match", ErrInvalid)
	}
	return nil
}
