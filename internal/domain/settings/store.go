package settings

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gestao/internal/platform/db"
	"gestao/internal/platform/ids"
)

type BankStore struct {
	DB *pgxpool.Pool
}

func NewBankStore(pool *pgxpool.Pool) *BankStore {
	return &BankStore{DB: pool}
}

const bankColumns = `id::text, code, name, account_number, nib, iban, swift, created_at`

func (s *BankStore) List(ctx context.Context) ([]Bank, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+bankColumns+` FROM banks ORDER BY code`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Bank, error) { return scanBank(row) })
}

func (s *BankStore) Get(ctx context.Context, id string) (Bank, error) {
	b, err := scanBank(s.DB.QueryRow(ctx, `SELECT `+bankColumns+` FROM banks WHERE id = $1`, ids.EnsureUUID(id)))
	if db.IsNoRows(err) {
		return Bank{}, ErrBankNotFound
	}
	return b, err
}

func (s *BankStore) Upsert(ctx context.Context, b Bank) (Bank, error) {
	b.ID = ids.EnsureUUID(b.ID)
	_, err := s.DB.Exec(ctx, `
    INSERT INTO banks (id, code, name, account_number, nib, iban, swift, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    ON CONFLICT (id) DO UPDATE SET
      code = EXCLUDED.code,
      name = EXCLUDED.name,
      account_number = EXCLUDED.account_number,
      nib = EXCLUDED.nib,
      iban = EXCLUDED.iban,
      swift = EXCLUDED.swift
  `, b.ID, b.Code, b.Name, b.AccountNumber, b.NIB, b.IBAN, b.SWIFT, b.CreatedAt)
	if db.IsUniqueViolation(err) {
		return Bank{}, ErrBankDuplicate
	}
	if err != nil {
		return Bank{}, err
	}
	return b, nil
}

func (s *BankStore) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM banks WHERE id = $1`, ids.EnsureUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBankNotFound
	}
	return nil
}

func scanBank(row pgx.Row) (Bank, error) {
	var b Bank
	err := row.Scan(&b.ID, &b.Code, &b.Name, &b.AccountNumber, &b.NIB, &b.IBAN, &b.SWIFT, &b.CreatedAt)
	return b, err
}

type MetricStore struct {
	DB *pgxpool.Pool
}

func NewMetricStore(pool *pgxpool.Pool) *MetricStore {
	return &MetricStore{DB: pool}
}

const metricColumns = `id::text, code, name, created_at`

func (s *MetricStore) List(ctx context.Context) ([]Metric, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+metricColumns+` FROM metrics ORDER BY code`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Metric, error) { return scanMetric(row) })
}

func (s *MetricStore) Get(ctx context.Context, id string) (Metric, error) {
	m, err := scanMetric(s.DB.QueryRow(ctx, `SELECT `+metricColumns+` FROM metrics WHERE id = $1`, ids.EnsureUUID(id)))
	if db.IsNoRows(err) {
		return Metric{}, ErrMetricNotFound
	}
	return m, err
}

func (s *MetricStore) Upsert(ctx context.Context, m Metric) (Metric, error) {
	m.ID = ids.EnsureUUID(m.ID)
	_, err := s.DB.Exec(ctx, `
    INSERT INTO metrics (id, code, name, created_at)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, name = EXCLUDED.name
  `, m.ID, m.Code, m.Name, m.CreatedAt)
	if db.IsUniqueViolation(err) {
		return Metric{}, ErrMetricDuplicate
	}
	if err != nil {
		return Metric{}, err
	}
	return m, nil
}

func (s *MetricStore) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM metrics WHERE id = $1`, ids.EnsureUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMetricNotFound
	}
	return nil
}

func scanMetric(row pgx.Row) (Metric, error) {
	var m Metric
	err := row.Scan(&m.ID, &m.Code, &m.Name, &m.CreatedAt)
	return m, err
}
