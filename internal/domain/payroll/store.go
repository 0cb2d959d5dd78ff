package payroll

import (
	"context"
	"encoding/json"
	"fmt"

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

const slipColumns = `
    id::text, employee_id::text, period_year, period_month, employee_name, employee_role,
    computation, status, transferred, COALESCE(transfer_id::text, ''), created_by, created_at`

func (s *Store) Get(ctx context.Context, slipID string) (SalarySlip, error) {
	slip, err := scanSlip(s.DB.QueryRow(ctx, `SELECT `+slipColumns+` FROM salary_slips WHERE id = $1`, ids.EnsureUUID(slipID)))
	if db.IsNoRows(err) {
		return SalarySlip{}, ErrSlipNotFound
	}
	return slip, err
}

func (s *Store) Current(ctx context.Context, employeeID string, p period.Period) (SalarySlip, error) {
	slip, err := scanSlip(s.DB.QueryRow(ctx, `
    SELECT `+slipColumns+`
    FROM salary_slips
    WHERE employee_id = $1 AND period_year = $2 AND period_month = $3 AND status = $4
  `, ids.EnsureUUID(employeeID), p.Year, p.Month, string(SlipCurrent)))
	if db.IsNoRows(err) {
		return SalarySlip{}, ErrSlipNotFound
	}
	return slip, err
}

func (s *Store) ListCurrent(ctx context.Context, p period.Period) ([]SalarySlip, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+slipColumns+`
    FROM salary_slips
    WHERE period_year = $1 AND period_month = $2 AND status = $3
    ORDER BY employee_name
  `, p.Year, p.Month, string(SlipCurrent))
	if err != nil {
		return nil, err
	}
	return collectSlips(rows)
}

func (s *Store) History(ctx context.Context, employeeID string, p period.Period) ([]SalarySlip, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+slipColumns+`
    FROM salary_slips
    WHERE employee_id = $1 AND period_year = $2 AND period_month = $3
    ORDER BY created_at DESC
  `, ids.EnsureUUID(employeeID), p.Year, p.Month)
	if err != nil {
		return nil, err
	}
	return collectSlips(rows)
}

func (s *Store) Replace(ctx context.Context, slip SalarySlip) error {
	computation, err := json.Marshal(slip.Computation)
	if err != nil {
		return err
	}
	employeeID := ids.EnsureUUID(slip.EmployeeID)
	err = db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		var currentID string
		var transferred bool
		err := tx.QueryRow(ctx, `
      SELECT id::text, transferred
      FROM salary_slips
      WHERE employee_id = $1 AND period_year = $2 AND period_month = $3 AND status = $4
      FOR UPDATE
    `, employeeID, slip.Period.Year, slip.Period.Month, string(SlipCurrent)).Scan(&currentID, &transferred)
		switch {
		case db.IsNoRows(err):
		case err != nil:
			return err
		case transferred:
			return ErrSlipTransferred
		default:
			if _, err := tx.Exec(ctx, `UPDATE salary_slips SET status = $1 WHERE id = $2`, string(SlipSuperseded), currentID); err != nil {
				return err
			}
		}
		c := slip.Computation
		_, err = tx.Exec(ctx, `
      INSERT INTO salary_slips (
        id, employee_id, period_year, period_month, employee_name, employee_role, computation,
        gross_total, inss, irt, net_total, status, transferred, created_by, created_at
      )
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,false,$13,$14)
    `, ids.EnsureUUID(slip.ID), employeeID, slip.Period.Year, slip.Period.Month, slip.EmployeeName, slip.EmployeeRole,
			computation, c.GrossTotal, c.INSS, c.IRT, c.NetTotal, string(slip.Status), slip.CreatedBy, slip.CreatedAt)
		return err
	})
	if db.IsUniqueViolation(err) {
		return ErrSlipConflict
	}
	return err
}

func (s *Store) VoidCurrent(ctx context.Context, employeeIDs []string, p period.Period) (int, error) {
	normalized := make([]string, 0, len(employeeIDs))
	for _, id := range employeeIDs {
		normalized = append(normalized, ids.EnsureUUID(id))
	}
	voided := 0
	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		var transferred int
		if err := tx.QueryRow(ctx, `
      SELECT COUNT(1) FROM (
        SELECT id FROM salary_slips
        WHERE employee_id = ANY($1::uuid[]) AND period_year = $2 AND period_month = $3
          AND status = $4 AND transferred
        FOR UPDATE
      ) locked
    `, normalized, p.Year, p.Month, string(SlipCurrent)).Scan(&transferred); err != nil {
			return err
		}
		if transferred > 0 {
			return ErrSlipTransferred
		}
		tag, err := tx.Exec(ctx, `
      UPDATE salary_slips SET status = $1
      WHERE employee_id = ANY($2::uuid[]) AND period_year = $3 AND period_month = $4 AND status = $5
    `, string(SlipVoid), normalized, p.Year, p.Month, string(SlipCurrent))
		if err != nil {
			return err
		}
		voided = int(tag.RowsAffected())
		return nil
	})
	return voided, err
}

func scanSlip(row pgx.Row) (SalarySlip, error) {
	var slip SalarySlip
	var status string
	var computation []byte
	if err := row.Scan(
		&slip.ID, &slip.EmployeeID, &slip.Period.Year, &slip.Period.Month, &slip.EmployeeName, &slip.EmployeeRole,
		&computation, &status, &slip.Transferred, &slip.TransferID, &slip.CreatedBy, &slip.CreatedAt,
	); err != nil {
		return SalarySlip{}, err
	}
	slip.Status = SlipStatus(status)
	if err := json.Unmarshal(computation, &slip.Computation); err != nil {
		return SalarySlip{}, fmt.Errorf("decode slip computation: %w", err)
	}
	return slip, nil
}

func collectSlips(rows pgx.Rows) ([]SalarySlip, error) {
	defer rows.Close()
	var out []SalarySlip
	for rows.Next() {
		slip, err := scanSlip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, slip)
	}
	return out, rows.Err()
}
