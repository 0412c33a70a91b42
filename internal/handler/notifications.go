package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/middleware"
)

// NotificationStore defines the database methods needed by the user
// notification inbox. Every query is scoped by user id.
type NotificationStore interface {
	ListNotificationsByUser(ctx context.Context, arg database.ListNotificationsByUserParams) ([]database.Notification, error)
	MarkNotificationRead(ctx context.Context, arg database.MarkNotificationReadParams) (int64, error)
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteNotification(ctx context.Context, arg database.DeleteNotificationParams) (int64, error)
}

type NotificationHandler struct {
	store NotificationStore
}

func NewNotificationHandler(store NotificationStore) *NotificationHandler {
	return &NotificationHandler{store: store}
}

func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications", h.List)
	r.Post("/notifications/read-all", h.MarkAllRead)
	r.Post("/notifications/{id}/read", h.MarkRead)
	r.Delete("/notifications/{id}", h.Delete)
}

type notificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	OrderID   *uuid.UUID `json:"order_id"`
	Icon      string     `json:"icon"`
	Color     string     `json:"color"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}

type notificationListResponse struct {
	Notifications []notificationResponse `json:"notifications"`
	Unread        int                    `json:"unread"`
}

func toNotificationResponse(n database.Notification) notificationResponse {
	resp := notificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Icon:      n.Icon,
		Color:     n.Color,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	if n.OrderID.Valid {
		id := uuid.UUID(n.OrderID.Bytes)
		resp.OrderID = &id
	}
	return resp
}

// List returns the caller's latest notifications with an unread count.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	limit, _ := parsePagination(r, 50, 100)

	notifs, err := h.store.ListNotificationsByUser(r.Context(), database.ListNotificationsByUserParams{
		UserID: claims.UserID,
		Limit:  int32(limit),
	})
	if err != nil {
		writeInternalError(w, r, "list notifications", err)
		return
	}

	resp := notificationListResponse{Notifications: make([]notificationResponse, len(notifs))}
	for i, n := range notifs {
		resp.Notifications[i] = toNotificationResponse(n)
		if !n.Read {
			resp.Unread++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	id, ok := urlUUID(w, r, "id", "notification")
	if !ok {
		return
	}

	n, err := h.store.MarkNotificationRead(r.Context(), database.MarkNotificationReadParams{ID: id, UserID: claims.UserID})
	if err != nil {
		writeInternalError(w, r, "mark notification read", err)
		return
	}
	if n == 0 {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	n, err := h.store.MarkAllNotificationsRead(r.Context(), claims.UserID)
	if err != nil {
		writeInternalError(w, r, "mark all notifications read", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	id, ok := urlUUID(w, r, "id", "notification")
	if !ok {
		return
	}

	n, err := h.store.DeleteNotification(r.Context(), database.DeleteNotificationParams{ID: id, UserID: claims.UserID})
	if err != nil {
		writeInternalError(w, r, "delete notification", err)
		return
	}
	if n == 0 {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
