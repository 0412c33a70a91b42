package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/middleware"
	"github.com/hostelbites/api/internal/whatsapp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ProfileStore defines the database methods needed by profile handlers.
// Satisfied by *database.Queries.
type ProfileStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
	UpdateUserProfile(ctx context.Context, arg database.UpdateUserProfileParams) (database.User, error)
}

// ProfileHandler lets any signed-in account read and edit its own profile.
type ProfileHandler struct {
	store ProfileStore
}

func NewProfileHandler(store ProfileStore) *ProfileHandler {
	return &ProfileHandler{store: store}
}

// RegisterRoutes is mounted behind Authenticate.
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.Get)
	r.Patch("/me", h.Update)
}

// Omitted fields are left unchanged. An empty photo_url, room_number or
// whatsapp clears the value.
type updateProfileRequest struct {
	Name       *string `json:"name" validate:"omitempty,trimmed_required,max=100"`
	PhotoURL   *string `json:"photo_url" validate:"omitempty,optional_url,max=500"`
	RoomNumber *string `json:"room_number" validate:"omitempty,max=10"`
	Whatsapp   *string `json:"whatsapp" validate:"omitempty,max=20"`
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	user, err := h.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeInternalError(w, r, "get user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	arg := database.UpdateUserProfileParams{
		ID:         claims.UserID,
		Name:       optionalText(req.Name),
		PhotoURL:   optionalText(req.PhotoURL),
		RoomNumber: optionalText(req.RoomNumber),
	}
	if req.Whatsapp != nil {
		phone := ""
		if strings.TrimSpace(*req.Whatsapp) != "" {
			normalized, err := whatsapp.Normalize(*req.Whatsapp)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			phone = normalized
		}
		arg.Whatsapp = pgtype.Text{String: phone, Valid: true}
	}

	user, err := h.store.UpdateUserProfile(r.Context(), arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeInternalError(w, r, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func optionalText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: strings.TrimSpace(*s), Valid: true}
}
