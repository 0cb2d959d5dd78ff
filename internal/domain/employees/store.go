package employees

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gestao/internal/platform/db"
	"gestao/internal/platform/ids"
)

// Store is the PostgreSQL side of the employee repository.
type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

const employeeColumns = `
    id::text, employee_number, name, nif, id_number, inss_number, bank_name, iban, role,
    COALESCE(profession_id::text, ''), department, admission_date, termination_date, status,
    base_salary, complement, subsidies, adjustments, created_at, updated_at`

func (s *Store) List(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Employee, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, ids.EnsureUUID(id))
	e, err := scanEmployee(row)
	if db.IsNoRows(err) {
		return Employee{}, ErrNotFound
	}
	return e, err
}

func (s *Store) Upsert(ctx context.Context, e Employee) (Employee, error) {
	e.ID = ids.EnsureUUID(e.ID)
	subsidies, err := json.Marshal(e.Subsidies)
	if err != nil {
		return Employee{}, err
	}
	adjustments, err := json.Marshal(e.Adjustments)
	if err != nil {
		return Employee{}, err
	}
	var professionID *string
	if e.ProfessionID != "" {
		normalized := ids.EnsureUUID(e.ProfessionID)
		professionID = &normalized
	}
	err = s.DB.QueryRow(ctx, `
    INSERT INTO employees (
      id, employee_number, name, nif, id_number, inss_number, bank_name, iban, role,
      profession_id, department, admission_date, termination_date, status,
      base_salary, complement, subsidies, adjustments
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
    ON CONFLICT (id) DO UPDATE SET
      employee_number = EXCLUDED.employee_number,
      name = EXCLUDED.name,
      nif = EXCLUDED.nif,
      id_number = EXCLUDED.id_number,
      inss_number = EXCLUDED.inss_number,
      bank_name = EXCLUDED.bank_name,
      iban = EXCLUDED.iban,
      role = EXCLUDED.role,
      profession_id = EXCLUDED.profession_id,
      department = EXCLUDED.department,
      admission_date = EXCLUDED.admission_date,
      termination_date = EXCLUDED.termination_date,
      status = EXCLUDED.status,
      base_salary = EXCLUDED.base_salary,
      complement = EXCLUDED.complement,
      subsidies = EXCLUDED.subsidies,
      adjustments = EXCLUDED.adjustments,
      updated_at = now()
    RETURNING created_at, updated_at
  `, e.ID, e.EmployeeNumber, e.Name, e.NIF, e.IDNumber, e.INSSNumber, e.BankName, e.IBAN, e.Role,
		professionID, e.Department, e.AdmissionDate, e.TerminationDate, string(e.Status),
		e.BaseSalary, e.Complement, subsidies, adjustments).Scan(&e.CreatedAt, &e.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return Employee{}, fmt.Errorf("%w: %s", ErrDuplicate, e.ID)
	}
	if err != nil {
		return Employee{}, err
	}
	return e, nil
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	var status string
	var subsidies, adjustments []byte
	if err := row.Scan(
		&e.ID, &e.EmployeeNumber, &e.Name, &e.NIF, &e.IDNumber, &e.INSSNumber, &e.BankName, &e.IBAN, &e.Role,
		&e.ProfessionID, &e.Department, &e.AdmissionDate, &e.TerminationDate, &status,
		&e.BaseSalary, &e.Complement, &subsidies, &adjustments, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return Employee{}, err
	}
	e.Status = Status(status)
	if len(subsidies) > 0 {
		if err := json.Unmarshal(subsidies, &e.Subsidies); err != nil {
			return Employee{}, errors.Join(ErrInvalidEmployee, err)
		}
	}
	if len(adjustments) > 0 {
		if err := json.Unmarshal(adjustments, &e.Adjustments); err != nil {
			return Employee{}, errors.Join(ErrInvalidEmployee, err)
		}
	}
	return e, nil
}
