package employees

import (
	"context"
	"errors"

	"gestao/internal/platform/cache"
	"gestao/internal/platform/fallback"
)

type Repository interface {
	List(ctx context.Context) ([]Employee, fallback.Outcome, error)
	Get(ctx context.Context, id string) (Employee, fallback.Outcome, error)
	Upsert(ctx context.Context, e Employee) (Employee, fallback.Outcome, error)
}

// NewRepository composes the remote store with the local snapshot.
func NewRepository(remote fallback.Remote[Employee], local *cache.Store, onLocal func(string)) *fallback.Collection[Employee] {
	return fallback.New[Employee](remote, local, fallback.Options[Employee]{
		Name: "employees",
		Key:  func(e Employee) string { return e.ID },
		Hard: func(err error) bool {
			return errors.Is(err, ErrDuplicate) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidEmployee)
		},
		OnLocal: onLocal,
	})
}
