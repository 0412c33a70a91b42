package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/service"
	"github.com/hostelbites/api/internal/ws"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// SettingsStore defines the database methods needed by settings handlers.
type SettingsStore interface {
	GetAppSettings(ctx context.Context) (database.AppSetting, error)
	UpsertAppSettings(ctx context.Context, arg database.UpsertAppSettingsParams) (database.AppSetting, error)
}

// SettingsHandler serves the payment settings shown at checkout.
type SettingsHandler struct {
	store SettingsStore
	pub   service.EventPublisher
}

func NewSettingsHandler(store SettingsStore, pub service.EventPublisher) *SettingsHandler {
	return &SettingsHandler{store: store, pub: pub}
}

func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/settings", h.Get)
}

// RegisterAdminRoutes is mounted under /admin behind RequireAdmin.
func (h *SettingsHandler) RegisterAdminRoutes(r chi.Router) {
	r.Put("/settings", h.Update)
}

// updateSettingsRequest leaves omitted fields unchanged.
type updateSettingsRequest struct {
	UpiID    *string `json:"upi_id" validate:"omitempty,max=100"`
	UpiQrURL *string `json:"upi_qr_url" validate:"omitempty,url"`
}

type settingsResponse struct {
	UpiID     string     `json:"upi_id"`
	UpiQrURL  string     `json:"upi_qr_url"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func toSettingsResponse(s database.AppSetting) settingsResponse {
	resp := settingsResponse{UpiID: s.UpiID, UpiQrURL: s.UpiQrUrl}
	if !s.UpdatedAt.IsZero() {
		resp.UpdatedAt = &s.UpdatedAt
	}
	return resp
}

// Get returns the settings; before the first save they are empty.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.GetAppSettings(r.Context())
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		writeInternalError(w, r, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(s))
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UpiID == nil && req.UpiQrURL == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	var arg database.UpsertAppSettingsParams
	if req.UpiID != nil {
		arg.UpiID = pgtype.Text{String: strings.TrimSpace(*req.UpiID), Valid: true}
	}
	if req.UpiQrURL != nil {
		arg.UpiQrUrl = pgtype.Text{String: strings.TrimSpace(*req.UpiQrURL), Valid: true}
	}

	s, err := h.store.UpsertAppSettings(r.Context(), arg)
	if err != nil {
		writeInternalError(w, r, "update settings", err)
		return
	}

	resp := toSettingsResponse(s)
	service.Publish(h.pub, ws.TopicSettings, ws.EventSettingsUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}
