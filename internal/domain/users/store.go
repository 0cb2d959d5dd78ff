package users

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gestao/internal/domain/auth"
	"gestao/internal/platform/db"
	"gestao/internal/platform/ids"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

const userColumns = `id::text, name, username, email, phone, role, permissions, access_validity, created_at`

func (s *Store) List(ctx context.Context) ([]User, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (User, error) {
	u, err := scanUser(s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, ids.EnsureUUID(id)))
	if db.IsNoRows(err) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *Store) Insert(ctx context.Context, u User, passwordHash string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO users (id, name, username, email, password_hash, phone, role, permissions, access_validity, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
  `, ids.EnsureUUID(u.ID), u.Name, u.Username, u.Email, passwordHash, u.Phone, u.Role, u.Permissions, u.AccessValidity, u.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *Store) Update(ctx context.Context, u User) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users
    SET name = $1, username = $2, email = $3, phone = $4, role = $5, permissions = $6, access_validity = $7
    WHERE id = $8
  `, u.Name, u.Username, u.Email, u.Phone, u.Role, u.Permissions, u.AccessValidity, ids.EnsureUUID(u.ID))
	if db.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetPassword(ctx context.Context, id, passwordHash string) error {
	tag, err := s.DB.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, ids.EnsureUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM users WHERE id = $1`, ids.EnsureUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CredentialsByEmail(ctx context.Context, email string) (auth.Credentials, error) {
	var c auth.Credentials
	err := s.DB.QueryRow(ctx, `
    SELECT id::text, name, role, permissions, password_hash, access_validity
    FROM users
    WHERE email = $1
  `, email).Scan(&c.UserID, &c.Name, &c.Role, &c.Permissions, &c.PasswordHash, &c.AccessValidity)
	if db.IsNoRows(err) {
		return auth.Credentials{}, ErrNotFound
	}
	return c, err
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.Phone, &u.Role, &u.Permissions, &u.AccessValidity, &u.CreatedAt)
	return u, err
}
