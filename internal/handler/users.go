package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hostelbites/api/internal/database"
)

// UserStore defines the database methods needed by user handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type UserStore interface {
	ListUsers(ctx context.Context) ([]database.User, error)
}

// UserHandler serves the admin user directory.
type UserHandler struct {
	store UserStore
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(store UserStore) *UserHandler {
	return &UserHandler{store: store}
}

// RegisterRoutes is mounted under /admin behind RequireAdmin.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/users", h.List)
}

type adminUserResponse struct {
	userResponse
	CreatedAt time.Time `json:"created_at"`
}

// List returns every account, newest first, optionally filtered by ?role=.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		writeInternalError(w, r, "list users", err)
		return
	}

	role := r.URL.Query().Get("role")
	resp := make([]adminUserResponse, 0, len(users))
	for _, u := range users {
		if role != "" && u.Role != role {
			continue
		}
		resp = append(resp, adminUserResponse{userResponse: toUserResponse(u), CreatedAt: u.CreatedAt})
	}
	writeJSON(w, http.StatusOK, resp)
}

