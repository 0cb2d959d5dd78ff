package usershandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gestao/internal/domain/audit"
	"gestao/internal/domain/auth"
	"gestao/internal/domain/users"
	"gestao/internal/transport/http/api"
	"gestao/internal/transport/http/middleware"
	"gestao/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context) ([]users.User, error)
	Get(ctx context.Context, id string) (users.User, error)
	Create(ctx context.Context, in users.NewUser) (users.User, error)
	Update(ctx context.Context, id string, changes users.User) (users.User, error)
	ChangePassword(ctx context.Context, id, password string) error
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	Service Service
	Audit   audit.Recorder
	Gate    middleware.Gate
}

func NewHandler(service Service, recorder audit.Recorder, gate middleware.Gate) *Handler {
	return &Handler{Service: service, Audit: recorder, Gate: gate}
}

type createPayload struct {
	users.User
	Password string `json:"password"`
}

type passwordPayload struct {
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Use(h.Gate.Require(auth.PermUsersWrite))
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{userID}", h.handleGet)
		r.Put("/{userID}", h.handleUpdate)
		r.Put("/{userID}/password", h.handlePassword)
		r.Delete("/{userID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	list, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, err, reqID, "user_list_failed", "failed to list users")
		return
	}
	api.Success(w, list, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	u, err := h.Service.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err, reqID, "user_get_failed", "failed to load user")
		return
	}
	api.Success(w, u, reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	created, err := h.Service.Create(r.Context(), users.NewUser{User: payload.User, Password: payload.Password})
	if err != nil {
		writeError(w, err, reqID, "user_create_failed", "failed to create user")
		return
	}
	shared.Record(r, h.Audit, "user.create", "user", created.ID, nil, created)
	api.Created(w, created, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload users.User
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	id := chi.URLParam(r, "userID")
	updated, err := h.Service.Update(r.Context(), id, payload)
	if err != nil {
		writeError(w, err, reqID, "user_update_failed", "failed to update user")
		return
	}
	shared.Record(r, h.Audit, "user.update", "user", id, nil, updated)
	api.Success(w, updated, reqID)
}

func (h *Handler) handlePassword(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload passwordPayload
	if !shared.Decode(w, r, &payload, reqID) {
		return
	}
	id := chi.URLParam(r, "userID")
	if err := h.Service.ChangePassword(r.Context(), id, payload.Password); err != nil {
		writeError(w, err, reqID, "user_password_failed", "failed to change password")
		return
	}
	shared.Record(r, h.Audit, "user.password", "user", id, nil, nil)
	api.Success(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "userID")
	if id == middleware.ActorID(r.Context()) {
		api.Fail(w, http.StatusConflict, "user_self_delete", "users cannot delete their own account", reqID)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, err, reqID, "user_delete_failed", "failed to delete user")
		return
	}
	shared.Record(r, h.Audit, "user.delete", "user", id, nil, nil)
	api.Success(w, map[string]string{"id": id}, reqID)
}

func writeError(w http.ResponseWriter, err error, reqID, code, message string) {
	switch {
	case errors.Is(err, users.ErrInvalid):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	case errors.Is(err, users.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "user_not_found", err.Error(), reqID)
	case errors.Is(err, users.ErrDuplicate):
		api.Fail(w, http.StatusConflict, "user_duplicate", err.Error(), reqID)
	default:
		slog.Error(message, "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, code, message, reqID)
	}
}
