package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gestao/internal/domain/auth"
	"gestao/internal/domain/series"
	"gestao/internal/domain/settlement"
	"gestao/internal/domain/users"
	"gestao/internal/platform/config"
)

const (
	seedRegisterName = "Caixa Principal"
	seedSeriesCode   = "FR"
)

type seeder struct {
	users      *users.Service
	settlement *settlement.Service
	series     *series.Service
	now        func() time.Time
}

// Seed makes a fresh database usable: one admin account, one open cash
// register and an FR series for the current year. Existing data is left alone.
func (s seeder) Seed(ctx context.Context, cfg config.Config) error {
	if err := s.ensureAdmin(ctx, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := s.ensureRegister(ctx); err != nil {
		return fmt.Errorf("seed register: %w", err)
	}
	if err := s.ensureSeries(ctx); err != nil {
		return fmt.Errorf("seed series: %w", err)
	}
	return nil
}

func (s seeder) ensureAdmin(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}
	if _, err := s.users.CredentialsByEmail(ctx, email); err == nil {
		return nil
	}
	_, err := s.users.Create(ctx, users.NewUser{
		User: users.User{
			Name:  "Administrador",
			Email: email,
			Role:  auth.RoleAdmin,
		},
		Password: password,
	})
	if errors.Is(err, users.ErrDuplicate) {
		return nil
	}
	if err == nil {
		slog.Info("seeded admin user", "email", email)
	}
	return err
}

func (s seeder) ensureRegister(ctx context.Context) error {
	registers, err := s.settlement.Registers(ctx)
	if err != nil {
		return err
	}
	if len(registers) > 0 {
		return nil
	}
	_, err = s.settlement.CreateRegister(ctx, seedRegisterName, decimal.Zero)
	return err
}

func (s seeder) ensureSeries(ctx context.Context) error {
	items, _, err := s.series.List(ctx)
	if err != nil {
		return err
	}
	if len(items) > 0 {
		return nil
	}
	year := s.now().Year()
	_, _, err = s.series.Create(ctx, series.Series{
		Code:     seedSeriesCode,
		Name:     fmt.Sprintf("Factura-Recibo %d", year),
		DocType:  "FR",
		Year:     year,
		IsActive: true,
	})
	if errors.Is(err, series.ErrDuplicate) {
		return nil
	}
	return err
}
