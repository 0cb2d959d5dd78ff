package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gestao/internal/domain/period"
	"gestao/internal/platform/metrics"
)

type Service struct {
	store   StoreAPI
	metrics *metrics.Collector
	now     func() time.Time
}

func NewService(store StoreAPI, m *metrics.Collector) *Service {
	return &Service{store: store, metrics: m, now: time.Now}
}

// Transfer pays the current, untransferred slips of the selected employees
// out of one cash register. Either every slip is paid or nothing changes.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (Result, error) {
	result, err := s.transfer(ctx, req)
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrNothingToTransfer) {
			outcome = "rejected"
		}
		s.metrics.Transfer(outcome)
		return Result{}, err
	}
	s.metrics.Transfer("ok")
	return result, nil
}

func (s *Service) transfer(ctx context.Context, req TransferRequest) (Result, error) {
	if strings.TrimSpace(req.RegisterID) == "" {
		return Result{}, ErrRegisterRequired
	}
	if err := req.Period.Validate(); err != nil {
		return Result{}, err
	}
	register, err := s.store.GetRegister(ctx, req.RegisterID)
	if err != nil {
		return Result{}, err
	}
	if register.Status != RegisterOpen {
		return Result{}, ErrRegisterClosed
	}
	if len(req.EmployeeIDs) == 0 {
		return Result{}, ErrNothingToTransfer
	}
	slips, err := s.store.CurrentSlips(ctx, req.EmployeeIDs, req.Period)
	if err != nil {
		return Result{}, err
	}
	lines, total, err := Plan(register.Balance, slips)
	if err != nil {
		return Result{}, err
	}
	order := TransferOrder{
		ID:         uuid.NewString(),
		RegisterID: register.ID,
		Period:     req.Period,
		Total:      total,
		Lines:      lines,
		CreatedBy:  req.ActorID,
		CreatedAt:  s.now().UTC(),
	}
	after, err := s.store.Commit(ctx, order)
	if err != nil {
		return Result{}, err
	}
	transferred := make([]string, 0, len(lines))
	for _, l := range lines {
		transferred = append(transferred, l.EmployeeID)
	}
	return Result{
		Order:          order,
		BalanceBefore:  register.Balance,
		BalanceAfter:   after.Balance,
		TransferredIDs: transferred,
	}, nil
}

func (s *Service) Registers(ctx context.Context) ([]Register, error) {
	return s.store.ListRegisters(ctx)
}

func (s *Service) Register(ctx context.Context, id string) (Register, error) {
	return s.store.GetRegister(ctx, id)
}

func (s *Service) CreateRegister(ctx context.Context, name string, opening decimal.Decimal) (Register, error) {
	if strings.TrimSpace(name) == "" {
		return Register{}, fmt.Errorf("%w: name is required", ErrInvalidRegister)
	}
	if opening.IsNegative() {
		return Register{}, ErrInvalidAmount
	}
	r := Register{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Balance:   opening,
		Status:    RegisterOpen,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateRegister(ctx, r); err != nil {
		return Register{}, err
	}
	return r, nil
}

func (s *Service) Deposit(ctx context.Context, id string, amount decimal.Decimal) (Register, error) {
	if !amount.IsPositive() {
		return Register{}, ErrInvalidAmount
	}
	return s.store.Deposit(ctx, id, amount)
}

func (s *Service) Order(ctx context.Context, id string) (TransferOrder, error) {
	return s.store.GetOrder(ctx, id)
}

func (s *Service) Orders(ctx context.Context, p period.Period) ([]TransferOrder, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.store.ListOrders(ctx, p)
}
