package accounting

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gestao/internal/domain/period"
	"gestao/internal/platform/db"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

const entryColumns = `
    id::text, mode, source_id, period_year, period_month, entry_date, doc_number, entity,
    lines, created_by, created_at`

func (s *Store) Posted(ctx context.Context, mode Mode, p period.Period) (map[string]bool, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT source_id FROM journal_entries
    WHERE mode = $1 AND period_year = $2 AND period_month = $3
  `, string(mode), p.Year, p.Month)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, entries []Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	inserted := 0
	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		for _, e := range entries {
			lines, err := json.Marshal(e.Lines)
			if err != nil {
				return err
			}
			tag, err := tx.Exec(ctx, `
        INSERT INTO journal_entries (
          id, mode, source_id, period_year, period_month, entry_date, doc_number, entity,
          lines, total, created_by, created_at
        )
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        ON CONFLICT (mode, source_id) DO NOTHING
      `, uuid.NewString(), string(e.Mode), e.SourceID, e.Period.Year, e.Period.Month, e.Date, e.DocNumber, e.Entity,
				lines, e.Debits(), e.CreatedBy, e.CreatedAt)
			if err != nil {
				return err
			}
			inserted += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// List returns posted entries of the period; an empty mode returns both.
func (s *Store) List(ctx context.Context, mode Mode, p period.Period) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE period_year = $1 AND period_month = $2`
	args := []any{p.Year, p.Month}
	if mode != "" {
		args = append(args, string(mode))
		query += ` AND mode = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY mode, entry_date, doc_number, entity`
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) { return scanEntry(row) })
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	var mode string
	var lines []byte
	if err := row.Scan(&e.ID, &mode, &e.SourceID, &e.Period.Year, &e.Period.Month, &e.Date, &e.DocNumber, &e.Entity,
		&lines, &e.CreatedBy, &e.CreatedAt); err != nil {
		return Entry{}, err
	}
	e.Mode = Mode(mode)
	e.Status = StatusClassified
	if err := json.Unmarshal(lines, &e.Lines); err != nil {
		return Entry{}, fmt.Errorf("decode journal lines: %w", err)
	}
	return e, nil
}
