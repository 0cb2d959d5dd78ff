package accounting

import (
	"context"
	"fmt"
	"time"

	"gestao/internal/domain/payroll"
	"gestao/internal/domain/period"
	"gestao/internal/domain/settlement"
)

type SlipSource interface {
	ListCurrent(ctx context.Context, p period.Period) ([]payroll.SalarySlip, error)
}

type OrderSource interface {
	Orders(ctx context.Context, p period.Period) ([]settlement.TransferOrder, error)
}

type StoreAPI interface {
	// Posted returns the source ids of mode already posted for the period.
	Posted(ctx context.Context, mode Mode, p period.Period) (map[string]bool, error)
	// Insert stores entries, skipping any whose source is already posted, and
	// returns how many were written.
	Insert(ctx context.Context, entries []Entry) (int, error)
	List(ctx context.Context, mode Mode, p period.Period) ([]Entry, error)
}

type Result struct {
	Entries []Entry `json:"entries"`
	Posted  int     `json:"posted"`
}

type Service struct {
	accounts Accounts
	slips    SlipSource
	orders   OrderSource
	store    StoreAPI
	now      func() time.Time
}

func NewService(accounts Accounts, slips SlipSource, orders OrderSource, store StoreAPI) *Service {
	return &Service{accounts: accounts, slips: slips, orders: orders, store: store, now: time.Now}
}

func (s *Service) Accounts() Accounts {
	return s.accounts
}

// Preview builds the entries of mode for the period and marks those already
// posted as CLASSIFIED.
func (s *Service) Preview(ctx context.Context, mode Mode, p period.Period) ([]Entry, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMode, mode)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	entries, err := s.build(ctx, mode, p)
	if err != nil {
		return nil, err
	}
	posted, err := s.store.Posted(ctx, mode, p)
	if err != nil {
		return nil, fmt.Errorf("load posted entries: %w", err)
	}
	for i := range entries {
		entries[i].Status = StatusPending
		if posted[entries[i].SourceID] {
			entries[i].Status = StatusClassified
		}
	}
	return entries, nil
}

// Classify posts every pending entry of mode for the period. Running it again
// posts only what appeared since.
func (s *Service) Classify(ctx context.Context, mode Mode, p period.Period, actorID string) (Result, error) {
	entries, err := s.Preview(ctx, mode, p)
	if err != nil {
		return Result{}, err
	}
	now := s.now().UTC()
	var pending []Entry
	for i := range entries {
		if entries[i].Status == StatusClassified {
			continue
		}
		entries[i].CreatedBy = actorID
		entries[i].CreatedAt = now
		pending = append(pending, entries[i])
	}
	posted, err := s.store.Insert(ctx, pending)
	if err != nil {
		return Result{}, fmt.Errorf("post journal entries: %w", err)
	}
	for i := range entries {
		entries[i].Status = StatusClassified
	}
	return Result{Entries: entries, Posted: posted}, nil
}

func (s *Service) Entries(ctx context.Context, mode Mode, p period.Period) ([]Entry, error) {
	if mode != "" && !mode.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMode, mode)
	}
	return s.store.List(ctx, mode, p)
}

func (s *Service) build(ctx context.Context, mode Mode, p period.Period) ([]Entry, error) {
	var entries []Entry
	switch mode {
	case ModeSalaryProcessing:
		slips, err := s.slips.ListCurrent(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("load salary slips: %w", err)
		}
		for _, slip := range slips {
			entry, err := ProcessingEntry(s.accounts, slip)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
	case ModeSalaryPayment:
		orders, err := s.orders.Orders(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("load transfer orders: %w", err)
		}
		for _, order := range orders {
			entries = append(entries, PaymentEntry(s.accounts, order))
		}
	}
	return entries, nil
}
