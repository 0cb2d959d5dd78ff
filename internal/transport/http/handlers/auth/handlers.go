package authhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gestao/internal/domain/audit"
	"gestao/internal/domain/auth"
	"gestao/internal/transport/http/api"
	"gestao/internal/transport/http/middleware"
	"gestao/internal/transport/http/shared"
)

type Service interface {
	Login(ctx context.Context, email, password string) (auth.Session, error)
}

type Handler struct {
	Service Service
	Audit   audit.Recorder
}

func NewHandler(service Service, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type meResponse struct {
	UserID      string   `json:"userId"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.Get("/me", h.HandleMe)
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.Decode(w, r, &payload, reqID) {
		return
	}
	session, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		slog.Info("login rejected", "requestId", reqID, "ip", shared.ClientIP(r))
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
		return
	case errors.Is(err, auth.ErrAccessExpired):
		api.Fail(w, http.StatusForbidden, "access_expired", err.Error(), reqID)
		return
	case err != nil:
		slog.Error("login failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", reqID)
		return
	}
	if h.Audit != nil {
		if err := h.Audit.Record(r.Context(), audit.Entry{
			ActorID:    session.UserID,
			Action:     "auth.login",
			EntityType: "user",
			EntityID:   session.UserID,
			RequestID:  reqID,
			IP:         shared.ClientIP(r),
		}); err != nil {
			slog.Warn("audit auth.login failed", "err", err)
		}
	}
	api.Success(w, session, reqID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	perms := make([]string, 0, len(auth.DefaultPermissions))
	for _, perm := range auth.DefaultPermissions {
		if user.Can(perm) {
			perms = append(perms, perm)
		}
	}
	api.Success(w, meResponse{UserID: user.UserID, Name: user.Name, Role: user.Role, Permissions: perms}, reqID)
}
