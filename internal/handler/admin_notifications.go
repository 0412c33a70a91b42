package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/middleware"
)

// AdminNotificationManager is satisfied by *service.AdminNotificationService.
type AdminNotificationManager interface {
	List(ctx context.Context, handled *bool, limit int32) ([]database.AdminNotification, error)
	Handle(ctx context.Context, notifID, adminID uuid.UUID, accept bool) (database.AdminNotification, error)
}

type AdminNotificationHandler struct {
	svc AdminNotificationManager
}

func NewAdminNotificationHandler(svc AdminNotificationManager) *AdminNotificationHandler {
	return &AdminNotificationHandler{svc: svc}
}

// RegisterRoutes is mounted under /admin behind RequireAdmin.
func (h *AdminNotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications", h.List)
	r.Post("/notifications/{id}/handle", h.Handle)
}

type handleNotificationRequest struct {
	Action string `json:"action" validate:"required,oneof=accept decline"`
}

type adminNotificationResponse struct {
	ID         uuid.UUID  `json:"id"`
	Type       string     `json:"type"`
	OrderID    uuid.UUID  `json:"order_id"`
	UserID     uuid.UUID  `json:"user_id"`
	UserName   string     `json:"user_name"`
	Total      string     `json:"total"`
	ItemsCount int32      `json:"items_count"`
	Handled    bool       `json:"handled"`
	Result     *string    `json:"result"`
	HandledBy  *uuid.UUID `json:"handled_by"`
	HandledAt  *time.Time `json:"handled_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toAdminNotificationResponse(n database.AdminNotification) adminNotificationResponse {
	resp := adminNotificationResponse{
		ID:         n.ID,
		Type:       n.Type,
		OrderID:    n.OrderID,
		UserID:     n.UserID,
		UserName:   n.UserName,
		Total:      numericToString(n.Total),
		ItemsCount: n.ItemsCount,
		Handled:    n.Handled,
		CreatedAt:  n.CreatedAt,
	}
	if n.Result.Valid {
		resp.Result = &n.Result.String
	}
	if n.HandledBy.Valid {
		id := uuid.UUID(n.HandledBy.Bytes)
		resp.HandledBy = &id
	}
	if n.HandledAt.Valid {
		resp.HandledAt = &n.HandledAt.Time
	}
	return resp
}

// List supports ?handled=true|false and ?limit=.
func (h *AdminNotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	var handled *bool
	if s := r.URL.Query().Get("handled"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "handled must be true or false")
			return
		}
		handled = &v
	}
	limit, _ := parsePagination(r, 50, 200)

	list, err := h.svc.List(r.Context(), handled, int32(limit))
	if err != nil {
		writeServiceError(w, r, "list admin notifications", err)
		return
	}

	resp := make([]adminNotificationResponse, len(list))
	for i, n := range list {
		resp[i] = toAdminNotificationResponse(n)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Handle accepts or declines the order behind a notification.
func (h *AdminNotificationHandler) Handle(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	id, ok := urlUUID(w, r, "id", "notification")
	if !ok {
		return
	}
	var req handleNotificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := h.svc.Handle(r.Context(), id, claims.UserID, req.Action == "accept")
	if err != nil {
		writeServiceError(w, r, "handle admin notification", err)
		return
	}
	writeJSON(w, http.StatusOK, toAdminNotificationResponse(n))
}
