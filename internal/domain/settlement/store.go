package settlement

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"gestao/internal/domain/payroll"
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

func (s *Store) ListRegisters(ctx context.Context) ([]Register, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id::text, name, balance, status, created_at
    FROM cash_registers
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Register
	for rows.Next() {
		r, err := scanRegister(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetRegister(ctx context.Context, id string) (Register, error) {
	return getRegister(ctx, s.DB, id, false)
}

func (s *Store) CreateRegister(ctx context.Context, r Register) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO cash_registers (id, name, balance, status, created_at)
    VALUES ($1,$2,$3,$4,$5)
  `, ids.EnsureUUID(r.ID), r.Name, r.Balance, string(r.Status), r.CreatedAt)
	return err
}

func (s *Store) Deposit(ctx context.Context, id string, amount decimal.Decimal) (Register, error) {
	var out Register
	err := db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		r, err := getRegister(ctx, tx, id, true)
		if err != nil {
			return err
		}
		r.Balance = r.Balance.Add(amount)
		if _, err := tx.Exec(ctx, `UPDATE cash_registers SET balance = $1 WHERE id = $2`, r.Balance, r.ID); err != nil {
			return err
		}
		out = r
		return nil
	})
	return out, err
}

func (s *Store) CurrentSlips(ctx context.Context, employeeIDs []string, p period.Period) ([]payroll.SalarySlip, error) {
	normalized := make([]string, 0, len(employeeIDs))
	for _, id := range employeeIDs {
		normalized = append(normalized, ids.EnsureUUID(id))
	}
	rows, err := s.DB.Query(ctx, `
    SELECT id::text, employee_id::text, employee_name, net_total, transferred
    FROM salary_slips
    WHERE employee_id = ANY($1::uuid[]) AND period_year = $2 AND period_month = $3 AND status = $4
    ORDER BY employee_name
  `, normalized, p.Year, p.Month, string(payroll.SlipCurrent))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []payroll.SalarySlip
	for rows.Next() {
		slip := payroll.SalarySlip{Period: p, Status: payroll.SlipCurrent}
		if err := rows.Scan(&slip.ID, &slip.EmployeeID, &slip.EmployeeName, &slip.Computation.NetTotal, &slip.Transferred); err != nil {
			return nil, err
		}
		out = append(out, slip)
	}
	return out, rows.Err()
}

func (s *Store) Commit(ctx context.Context, order TransferOrder) (Register, error) {
	lines, err := json.Marshal(order.Lines)
	if err != nil {
		return Register{}, err
	}
	slipIDs := order.SlipIDs()
	var out Register
	err = db.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		register, err := getRegister(ctx, tx, order.RegisterID, true)
		if err != nil {
			return err
		}
		if register.Status != RegisterOpen {
			return ErrRegisterClosed
		}
		if register.Balance.LessThan(order.Total) {
			return ErrInsufficientFunds
		}
		orderID := ids.EnsureUUID(order.ID)
		if _, err := tx.Exec(ctx, `
      INSERT INTO transfer_orders (id, register_id, period_year, period_month, total, slip_count, lines, created_by, created_at)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `, orderID, register.ID, order.Period.Year, order.Period.Month, order.Total, len(slipIDs), lines, order.CreatedBy, order.CreatedAt); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
      UPDATE salary_slips SET transferred = true, transfer_id = $1
      WHERE id = ANY($2::uuid[]) AND status = $3 AND NOT transferred
    `, orderID, slipIDs, string(payroll.SlipCurrent))
		if err != nil {
			return err
		}
		if int(tag.RowsAffected()) != len(slipIDs) {
			return ErrSelectionChanged
		}
		register.Balance = register.Balance.Sub(order.Total)
		if _, err := tx.Exec(ctx, `UPDATE cash_registers SET balance = $1 WHERE id = $2`, register.Balance, register.ID); err != nil {
			return err
		}
		out = register
		return nil
	})
	return out, err
}

const orderColumns = `id::text, register_id::text, period_year, period_month, total, lines, created_by, created_at`

func (s *Store) GetOrder(ctx context.Context, id string) (TransferOrder, error) {
	order, err := scanOrder(s.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM transfer_orders WHERE id = $1`, ids.EnsureUUID(id)))
	if db.IsNoRows(err) {
		return TransferOrder{}, ErrTransferNotFound
	}
	return order, err
}

func (s *Store) ListOrders(ctx context.Context, p period.Period) ([]TransferOrder, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+orderColumns+`
    FROM transfer_orders
    WHERE period_year = $1 AND period_month = $2
    ORDER BY created_at DESC
  `, p.Year, p.Month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TransferOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, rows.Err()
}

func getRegister(ctx context.Context, q db.Querier, id string, forUpdate bool) (Register, error) {
	query := `SELECT id::text, name, balance, status, created_at FROM cash_registers WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	r, err := scanRegister(q.QueryRow(ctx, query, ids.EnsureUUID(id)))
	if db.IsNoRows(err) {
		return Register{}, ErrRegisterNotFound
	}
	return r, err
}

func scanRegister(row pgx.Row) (Register, error) {
	var r Register
	var status string
	if err := row.Scan(&r.ID, &r.Name, &r.Balance, &status, &r.CreatedAt); err != nil {
		return Register{}, err
	}
	r.Status = RegisterStatus(status)
	return r, nil
}

func scanOrder(row pgx.Row) (TransferOrder, error) {
	var o TransferOrder
	var lines []byte
	if err := row.Scan(&o.ID, &o.RegisterID, &o.Period.Year, &o.Period.Month, &o.Total, &lines, &o.CreatedBy, &o.CreatedAt); err != nil {
		return TransferOrder{}, err
	}
	if err := json.Unmarshal(lines, &o.Lines); err != nil {
		return TransferOrder{}, fmt.Errorf("decode transfer lines: %w", err)
	}
	return o, nil
}
