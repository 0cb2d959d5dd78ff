// Package series allocates fiscal document numbers. Each series keeps the last
// number issued, overall and per document type.
package series

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"gestao/internal/platform/cache"
	"gestao/internal/platform/fallback"
	"gestao/internal/platform/metrics"
)

var (
	ErrNotFound       = errors.New("series not found")
	ErrDuplicate      = errors.New("series code already exists for the year")
	ErrInvalid        = errors.New("invalid series")
	ErrSeriesInactive = errors.New("series is inactive")
	ErrUserNotAllowed = errors.New("user is not allowed to issue documents in this series")
)

type Series struct {
	ID              string           `json:"id"`
	Code            string           `json:"code"`
	Name            string           `json:"name"`
	DocType         string           `json:"type"`
	Year            int              `json:"year"`
	CurrentSequence int64            `json:"currentSequence"`
	Sequences       map[string]int64 `json:"sequences"`
	AllowedUserIDs  []string         `json:"allowedUserIds"`
	IsActive        bool             `json:"isActive"`
	BankDetails     string           `json:"bankDetails"`
	FooterText      string           `json:"footerText"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Allows reports whether userID may issue documents; an empty list allows everyone.
func (s Series) Allows(userID string) bool {
	return len(s.AllowedUserIDs) == 0 || slices.Contains(s.AllowedUserIDs, userID)
}

// Next returns the series with the counter for docType advanced by one. An
// empty docType advances CurrentSequence.
func (s Series) Next(docType string) (Series, int64) {
	if docType == "" {
		s.CurrentSequence++
		return s, s.CurrentSequence
	}
	next := make(map[string]int64, len(s.Sequences)+1)
	for k, v := range s.Sequences {
		next[k] = v
	}
	next[docType]++
	s.Sequences = next
	return s, next[docType]
}

// FormatNumber renders the printed document number, e.g. "FR POS2026/7".
func (s Series) FormatNumber(docType string, sequence int64) string {
	if docType == "" {
		docType = s.DocType
	}
	return fmt.Sprintf("%s %s%d/%d", docType, s.Code, s.Year, sequence)
}

type Allocation struct {
	SeriesID string `json:"seriesId"`
	DocType  string `json:"docType"`
	Sequence int64  `json:"sequence"`
	Number   string `json:"number"`
}

type Repository interface {
	List(ctx context.Context) ([]Series, fallback.Outcome, error)
	Get(ctx context.Context, id string) (Series, fallback.Outcome, error)
	Upsert(ctx context.Context, s Series) (Series, fallback.Outcome, error)
	Delete(ctx context.Context, id string) error
}

// Allocator advances a counter atomically in the authoritative store.
type Allocator interface {
	Allocate(ctx context.Context, seriesID, docType, userID string) (Allocation, error)
}

func NewRepository(remote fallback.Remote[Series], local *cache.Store, onLocal func(string)) *fallback.Collection[Series] {
	return fallback.New[Series](remote, local, fallback.Options[Series]{
		Name: "series",
		Key:  func(s Series) string { return s.ID },
		Hard: func(err error) bool {
			return errors.Is(err, ErrDuplicate) || errors.Is(err, ErrNotFound)
		},
		OnLocal: onLocal,
	})
}

type Service struct {
	repo      Repository
	allocator Allocator
	metrics   *metrics.Collector
	now       func() time.Time
}

func NewService(repo Repository, allocator Allocator, m *metrics.Collector) *Service {
	return &Service{repo: repo, allocator: allocator, metrics: m, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]Series, fallback.Outcome, error) {
	items, outcome, err := s.repo.List(ctx)
	if err != nil {
		return nil, outcome, fmt.Errorf("list series: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Year != items[j].Year {
			return items[i].Year > items[j].Year
		}
		return items[i].Code < items[j].Code
	})
	return items, outcome, nil
}

func (s *Service) Get(ctx context.Context, id string) (Series, error) {
	item, _, err := s.repo.Get(ctx, id)
	return item, err
}

func (s *Service) Create(ctx context.Context, in Series) (Series, fallback.Outcome, error) {
	in = normalize(in)
	if err := validate(in); err != nil {
		return Series{}, "", err
	}
	now := s.now().UTC()
	in.ID = uuid.NewString()
	if in.Sequences == nil {
		in.Sequences = map[string]int64{}
	}
	in.CreatedAt = now
	in.UpdatedAt = now
	return s.repo.Upsert(ctx, in)
}

// Update changes the descriptive fields of a series. Counters can move
// forward but never back.
func (s *Service) Update(ctx context.Context, id string, changes Series) (Series, fallback.Outcome, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Series{}, "", err
	}
	changes = normalize(changes)
	if err := validate(changes); err != nil {
		return Series{}, "", err
	}
	if changes.CurrentSequence < current.CurrentSequence {
		changes.CurrentSequence = current.CurrentSequence
	}
	merged := make(map[string]int64, len(current.Sequences))
	for k, v := range current.Sequences {
		merged[k] = v
	}
	for k, v := range changes.Sequences {
		if v > merged[k] {
			merged[k] = v
		}
	}
	changes.Sequences = merged
	changes.ID = current.ID
	changes.CreatedAt = current.CreatedAt
	changes.UpdatedAt = s.now().UTC()
	return s.repo.Upsert(ctx, changes)
}

func (s *Service) Deactivate(ctx context.Context, id string) (Series, fallback.Outcome, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Series{}, "", err
	}
	current.IsActive = false
	current.UpdatedAt = s.now().UTC()
	return s.repo.Upsert(ctx, current)
}

// Delete is remote only; its failure is reported, not absorbed locally.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// NextNumber allocates the next number of docType in the series.
func (s *Service) NextNumber(ctx context.Context, seriesID, docType, userID string) (Allocation, error) {
	if strings.TrimSpace(seriesID) == "" {
		return Allocation{}, fmt.Errorf("%w: series id is required", ErrInvalid)
	}
	alloc, err := s.allocator.Allocate(ctx, seriesID, strings.ToUpper(strings.TrimSpace(docType)), userID)
	if err != nil {
		return Allocation{}, err
	}
	s.metrics.NumberAllocated(alloc.DocType)
	return alloc, nil
}

func normalize(in Series) Series {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Name = strings.TrimSpace(in.Name)
	in.DocType = strings.ToUpper(strings.TrimSpace(in.DocType))
	if in.DocType == "" {
		in.DocType = "FR"
	}
	return in
}

func validate(in Series) error {
	if in.Code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalid)
	}
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if in.Year < 2000 || in.Year > 9999 {
		return fmt.Errorf("%w: year must be a four digit year", ErrInvalid)
	}
	if in.CurrentSequence < 0 {
		return fmt.Errorf("%w: currentSequence must not be negative", ErrInvalid)
	}
	for docType, v := range in.Sequences {
		if v < 0 {
			return fmt.Errorf("%w: sequence %s must not be negative", ErrInvalid, docType)
		}
	}
	return nil
}
