// Package professions is the classifier mapping internal job titles to the
// INSS profession table and a reference salary.
package professions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"gestao/internal/platform/cache"
	"gestao/internal/platform/db"
	"gestao/internal/platform/fallback"
	"gestao/internal/platform/ids"
)

var (
	ErrNotFound  = errors.New("profession not found")
	ErrDuplicate = errors.New("profession already exists")
	ErrInvalid   = errors.New("invalid profession")
)

type Profession struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	IndexedName string          `json:"indexedProfessionName"`
	IndexedCode string          `json:"indexedProfessionCode"`
	BaseSalary  decimal.Decimal `json:"baseSalary"`
	Complement  decimal.Decimal `json:"complement"`
	CreatedBy   string          `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type Repository interface {
	List(ctx context.Context) ([]Profession, fallback.Outcome, error)
	Get(ctx context.Context, id string) (Profession, fallback.Outcome, error)
	Upsert(ctx context.Context, p Profession) (Profession, fallback.Outcome, error)
	Delete(ctx context.Context, id string) error
}

func NewRepository(remote fallback.Remote[Profession], local *cache.Store, onLocal func(string)) *fallback.Collection[Profession] {
	return fallback.New[Profession](remote, local, fallback.Options[Profession]{
		Name: "professions",
		Key:  func(p Profession) string { return p.ID },
		Hard: func(err error) bool {
			return errors.Is(err, ErrDuplicate) || errors.Is(err, ErrNotFound)
		},
		OnLocal: onLocal,
	})
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]Profession, fallback.Outcome, error) {
	items, outcome, err := s.repo.List(ctx)
	if err != nil {
		return nil, outcome, fmt.Errorf("list professions: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, outcome, nil
}

func (s *Service) Get(ctx context.Context, id string) (Profession, error) {
	p, _, err := s.repo.Get(ctx, id)
	return p, err
}

func (s *Service) Create(ctx context.Context, p Profession, actorID string) (Profession, fallback.Outcome, error) {
	if err := validate(p); err != nil {
		return Profession{}, "", err
	}
	p.ID = uuid.NewString()
	p.CreatedBy = actorID
	p.CreatedAt = s.now().UTC()
	return s.repo.Upsert(ctx, p)
}

func (s *Service) Update(ctx context.Context, id string, changes Profession) (Profession, fallback.Outcome, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Profession{}, "", err
	}
	if err := validate(changes); err != nil {
		return Profession{}, "", err
	}
	changes.ID = current.ID
	changes.CreatedBy = current.CreatedBy
	changes.CreatedAt = current.CreatedAt
	return s.repo.Upsert(ctx, changes)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func validate(p Profession) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if strings.TrimSpace(p.IndexedCode) == "" {
		return fmt.Errorf("%w: indexedProfessionCode is required", ErrInvalid)
	}
	if p.BaseSalary.IsNegative() || p.Complement.IsNegative() {
		return fmt.Errorf("%w: salary amounts must not be negative", ErrInvalid)
	}
	return nil
}

// Store is the PostgreSQL side of the classifier.
type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

const professionColumns = `id::text, name, indexed_name, indexed_code, base_salary, complement, created_by, created_at`

func (s *Store) List(ctx context.Context) ([]Profession, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+professionColumns+` FROM professions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Profession
	for rows.Next() {
		p, err := scanProfession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Profession, error) {
	p, err := scanProfession(s.DB.QueryRow(ctx, `SELECT `+professionColumns+` FROM professions WHERE id = $1`, ids.EnsureUUID(id)))
	if db.IsNoRows(err) {
		return Profession{}, ErrNotFound
	}
	return p, err
}

func (s *Store) Upsert(ctx context.Context, p Profession) (Profession, error) {
	p.ID = ids.EnsureUUID(p.ID)
	_, err := s.DB.Exec(ctx, `
    INSERT INTO professions (id, name, indexed_name, indexed_code, base_salary, complement, created_by, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    ON CONFLICT (id) DO UPDATE SET
      name = EXCLUDED.name,
      indexed_name = EXCLUDED.indexed_name,
      indexed_code = EXCLUDED.indexed_code,
      base_salary = EXCLUDED.base_salary,
      complement = EXCLUDED.complement
  `, p.ID, p.Name, p.IndexedName, p.IndexedCode, p.BaseSalary, p.Complement, p.CreatedBy, p.CreatedAt)
	if db.IsUniqueViolation(err) {
		return Profession{}, ErrDuplicate
	}
	if err != nil {
		return Profession{}, err
	}
	return p, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM professions WHERE id = $1`, ids.EnsureUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProfession(row pgx.Row) (Profession, error) {
	var p Profession
	err := row.Scan(&p.ID, &p.Name, &p.IndexedName, &p.IndexedCode, &p.BaseSalary, &p.Complement, &p.CreatedBy, &p.CreatedAt)
	return p, err
}
