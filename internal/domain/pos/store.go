package pos

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gestao/internal/platform/db"
	"gestao/internal/platform/ids"
)

// Store keeps invoices as a JSON payload next to the columns used for lookups.
type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

func (s *Store) Insert(ctx context.Context, inv Invoice) error {
	payload, err := json.Marshal(inv)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO invoices (id, series_id, doc_type, sequence, document_no, total, tax_amount, status, certified, payload, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
  `, ids.EnsureUUID(inv.ID), ids.EnsureUUID(inv.SeriesID), inv.Type, inv.Sequence, inv.Number,
		inv.Total, inv.TaxAmount, inv.Status, inv.Certified, payload, inv.Date)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("document number %s already issued: %w", inv.Number, err)
	}
	return err
}

func (s *Store) Get(ctx context.Context, id string) (Invoice, error) {
	inv, err := scanInvoice(s.DB.QueryRow(ctx, `SELECT payload FROM invoices WHERE id = $1`, ids.EnsureUUID(id)))
	if db.IsNoRows(err) {
		return Invoice{}, ErrInvoiceNotFound
	}
	return inv, err
}

func (s *Store) List(ctx context.Context, limit int) ([]Invoice, error) {
	rows, err := s.DB.Query(ctx, `SELECT payload FROM invoices ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		return Invoice{}, err
	}
	var inv Invoice
	if err := json.Unmarshal(payload, &inv); err != nil {
		return Invoice{}, fmt.Errorf("decode invoice: %w", err)
	}
	return inv, nil
}
