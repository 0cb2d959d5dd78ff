package middleware

import (
	"context"
	"net/http"
	"strings"

	"gestao/internal/domain/auth"
	"gestao/internal/transport/http/api"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

// UserContext is the authenticated actor of a request.
type UserContext struct {
	UserID      string
	Name        string
	Role        string
	Permissions []string
}

func (u UserContext) Can(permission string) bool {
	return auth.HasPermission(u.Role, u.Permissions, permission)
}

// Auth identifies the caller from a bearer token. Requests without a valid
// token pass through anonymously.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := auth.ParseToken(secret, strings.TrimSpace(token))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyUser, UserContext{
				UserID:      claims.UserID,
				Name:        claims.Name,
				Role:        claims.Role,
				Permissions: claims.Permissions,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUser(ctx context.Context) (UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(UserContext)
	return user, ok
}

// ActorID is the user id for audit trails, empty for anonymous requests.
func ActorID(ctx context.Context) string {
	user, _ := GetUser(ctx)
	return user.UserID
}

// RequirePermission rejects anonymous callers and callers lacking permission.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}
			if !user.Can(permission) {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Gate applies RequirePermission only when Enforce is set. A disabled gate
// leaves routes open and Auth only identifies the actor.
type Gate struct {
	Enforce bool
}

func (g Gate) Require(permission string) func(http.Handler) http.Handler {
	if !g.Enforce {
		return func(next http.Handler) http.Handler { return next }
	}
	return RequirePermission(permission)
}
