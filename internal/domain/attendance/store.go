package attendance

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gestao/internal/domain/period"
	"gestao/internal/platform/db"
	"gestao/internal/platform/ids"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

func (s *Store) Insert(ctx context.Context, records []Record) error {
	return db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		return insertRecords(ctx, tx, records)
	})
}

func (s *Store) ReplaceDays(ctx context.Context, employeeID string, records []Record) error {
	return db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		for _, r := range records {
			if _, err := tx.Exec(ctx, `
        UPDATE attendance_records
        SET record_status = $1
        WHERE employee_id = $2 AND day = $3 AND record_status = $4
      `, string(RecordVoid), ids.EnsureUUID(employeeID), r.Date, string(RecordActive)); err != nil {
				return err
			}
		}
		return insertRecords(ctx, tx, records)
	})
}

func insertRecords(ctx context.Context, q db.Querier, records []Record) error {
	for _, r := range records {
		if _, err := q.Exec(ctx, `
      INSERT INTO attendance_records (id, employee_id, day, status, record_status, source, created_at)
      VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, ids.EnsureUUID(r.ID), ids.EnsureUUID(r.EmployeeID), r.Date, string(r.Status), string(r.RecordStatus), r.Source, r.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

const recordColumns = `id::text, employee_id::text, day, status, record_status, source, created_at`

func (s *Store) ListActive(ctx context.Context, employeeID string, p period.Period) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM attendance_records
    WHERE employee_id = $1 AND day BETWEEN $2 AND $3 AND record_status = $4
    ORDER BY day
  `, ids.EnsureUUID(employeeID), p.Start(), p.End(), string(RecordActive))
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (s *Store) ListActiveForPeriod(ctx context.Context, p period.Period) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM attendance_records
    WHERE day BETWEEN $1 AND $2 AND record_status = $3
    ORDER BY employee_id, day
  `, p.Start(), p.End(), string(RecordActive))
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (s *Store) VoidActive(ctx context.Context, employeeIDs []string, p period.Period) (int, error) {
	normalized := make([]string, 0, len(employeeIDs))
	for _, id := range employeeIDs {
		normalized = append(normalized, ids.EnsureUUID(id))
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE attendance_records
    SET record_status = $1
    WHERE employee_id = ANY($2::uuid[]) AND day BETWEEN $3 AND $4 AND record_status = $5
  `, string(RecordVoid), normalized, p.Start(), p.End(), string(RecordActive))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var r Record
		var status, recordStatus string
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.Date, &status, &recordStatus, &r.Source, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Status = Status(status)
		r.RecordStatus = RecordStatus(recordStatus)
		out = append(out, r)
	}
	return out, rows.Err()
}
