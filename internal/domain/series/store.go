package series

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gestao/internal/platform/db"
	"gestao/internal/platform/ids"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

const seriesColumns = `
    id::text, code, name, doc_type, year, current_sequence, sequences, allowed_user_ids,
    is_active, bank_details, footer_text, created_at, updated_at`

func (s *Store) List(ctx context.Context) ([]Series, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+seriesColumns+` FROM document_series ORDER BY year DESC, code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Series
	for rows.Next() {
		item, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Series, error) {
	return getSeries(ctx, s.DB, id, false)
}

// Upsert writes the descriptive fields of a series. On conflict each counter
// keeps the higher of the stored and incoming value, so a stale read can
// never roll numbering back past what Allocate already handed out.
func (s *Store) Upsert(ctx context.Context, item Series) (Series, error) {
	item.ID = ids.EnsureUUID(item.ID)
	sequences, err := json.Marshal(item.Sequences)
	if err != nil {
		return Series{}, err
	}
	allowed := item.AllowedUserIDs
	if allowed == nil {
		allowed = []string{}
	}
	stored, err := scanSeries(s.DB.QueryRow(ctx, `
    INSERT INTO document_series (
      id, code, name, doc_type, year, current_sequence, sequences, allowed_user_ids,
      is_active, bank_details, footer_text, created_at, updated_at
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    ON CONFLICT (id) DO UPDATE SET
      code = EXCLUDED.code,
      name = EXCLUDED.name,
      doc_type = EXCLUDED.doc_type,
      year = EXCLUDED.year,
      current_sequence = GREATEST(document_series.current_sequence, EXCLUDED.current_sequence),
      sequences = (
        SELECT COALESCE(jsonb_object_agg(k, GREATEST(
          COALESCE((document_series.sequences->>k)::bigint, 0),
          COALESCE((EXCLUDED.sequences->>k)::bigint, 0))), '{}'::jsonb)
        FROM (
          SELECT jsonb_object_keys(document_series.sequences) AS k
          UNION
          SELECT jsonb_object_keys(EXCLUDED.sequences)
        ) keys
      ),
      allowed_user_ids = EXCLUDED.allowed_user_ids,
      is_active = EXCLUDED.is_active,
      bank_details = EXCLUDED.bank_details,
      footer_text = EXCLUDED.footer_text,
      updated_at = EXCLUDED.updated_at
    RETURNING `+seriesColumns,
		item.ID, item.Code, item.Name, item.DocType, item.Year, item.CurrentSequence, sequences, allowed,
		item.IsActive, item.BankDetails, item.FooterText, item.CreatedAt, item.UpdatedAt))
	if db.IsUniqueViolation(err) {
		return Series{}, ErrDuplicate
	}
	if err != nil {
		return Series{}, err
	}
	return stored, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM document_series WHERE id = $1`, ids.EnsureUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Allocate locks the series row, advances the counter and persists it in the
// same transaction.
func (s *Store) Allocate(ctx context.Context, seriesID, docType, userID string) (Allocation, error) {
	var out Allocation
	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		item, err := getSeries(ctx, tx, seriesID, true)
		if err != nil {
			return err
		}
		if !item.IsActive {
			return ErrSeriesInactive
		}
		if !item.Allows(userID) {
			return ErrUserNotAllowed
		}
		next, sequence := item.Next(docType)
		sequences, err := json.Marshal(next.Sequences)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
      UPDATE document_series SET current_sequence = $1, sequences = $2, updated_at = now()
      WHERE id = $3
    `, next.CurrentSequence, sequences, item.ID); err != nil {
			return err
		}
		resolved := docType
		if resolved == "" {
			resolved = item.DocType
		}
		out = Allocation{
			SeriesID: item.ID,
			DocType:  resolved,
			Sequence: sequence,
			Number:   item.FormatNumber(resolved, sequence),
		}
		return nil
	})
	return out, err
}

func getSeries(ctx context.Context, q db.Querier, id string, forUpdate bool) (Series, error) {
	query := `SELECT ` + seriesColumns + ` FROM document_series WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	item, err := scanSeries(q.QueryRow(ctx, query, ids.EnsureUUID(id)))
	if db.IsNoRows(err) {
		return Series{}, ErrNotFound
	}
	return item, err
}

func scanSeries(row pgx.Row) (Series, error) {
	var item Series
	var sequences []byte
	if err := row.Scan(
		&item.ID, &item.Code, &item.Name, &item.DocType, &item.Year, &item.CurrentSequence, &sequences,
		&item.AllowedUserIDs, &item.IsActive, &item.BankDetails, &item.FooterText, &item.CreatedAt, &item.UpdatedAt,
	); err != nil {
		return Series{}, err
	}
	item.Sequences = map[string]int64{}
	if len(sequences) > 0 {
		if err := json.Unmarshal(sequences, &item.Sequences); err != nil {
			return Series{}, fmt.Errorf("decode series sequences: %w", err)
		}
	}
	item.DocType = strings.ToUpper(item.DocType)
	return item, nil
}
