package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/service"
	"github.com/hostelbites/api/internal/ws"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListMenuItems(ctx context.Context, category pgtype.Text) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id uuid.UUID) (int64, error)
}

// MenuHandler handles menu endpoints.
type MenuHandler struct {
	store MenuStore
	pub   service.EventPublisher
}

// NewMenuHandler creates a new MenuHandler. pub may be nil.
func NewMenuHandler(store MenuStore, pub service.EventPublisher) *MenuHandler {
	return &MenuHandler{store: store, pub: pub}
}

// RegisterRoutes registers the read-only menu endpoints.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.List)
	r.Get("/menu/{id}", h.Get)
}

// RegisterAdminRoutes registers menu management endpoints. Expected to be
// mounted under /admin behind RequireAdmin.
func (h *MenuHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/menu", h.Create)
	r.Put("/menu/{id}", h.Update)
	r.Delete("/menu/{id}", h.Delete)
}

// --- Request / Response types ---

type menuItemRequest struct {
	Name         string `json:"name" validate:"trimmed_required,max=100"`
	Description  string `json:"description" validate:"max=500"`
	Category     string `json:"category" validate:"trimmed_required,max=50"`
	Mrp          string `json:"mrp" validate:"required"`
	SellingPrice string `json:"selling_price" validate:"required"`
	Quantity     int32  `json:"quantity" validate:"gte=0"`
	Available    *bool  `json:"available"`
	ImageURL     string `json:"image_url" validate:"omitempty,url"`
}

type menuItemResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Mrp          string    `json:"mrp"`
	SellingPrice string    `json:"selling_price"`
	Quantity     int32     `json:"quantity"`
	Available    bool      `json:"available"`
	ImageURL     string    `json:"image_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		Category:     m.Category,
		Mrp:          numericToString(m.Mrp),
		SellingPrice: numericToString(m.SellingPrice),
		Quantity:     m.Quantity,
		Available:    m.Available,
		ImageURL:     m.ImageUrl,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// params validates prices and returns the normalized create params.
func (req menuItemRequest) params() (database.CreateMenuItemParams, string) {
	mrp, err := parsePrice(req.Mrp)
	if err != nil {
		return database.CreateMenuItemParams{}, "invalid mrp"
	}
	selling, err := parsePrice(req.SellingPrice)
	if err != nil {
		return database.CreateMenuItemParams{}, "invalid selling_price"
	}
	if database.NumericToDecimal(selling).GreaterThan(database.NumericToDecimal(mrp)) {
		return database.CreateMenuItemParams{}, "selling_price cannot exceed mrp"
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	return database.CreateMenuItemParams{
		Name:         strings.TrimSpace(req.Name),
		Description:  strings.TrimSpace(req.Description),
		Category:     strings.TrimSpace(req.Category),
		Mrp:          mrp,
		SellingPrice: selling,
		Quantity:     req.Quantity,
		Available:    available,
		ImageUrl:     strings.TrimSpace(req.ImageURL),
	}, ""
}

// --- Handlers ---

// List returns every menu item, optionally filtered by ?category=.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	var category pgtype.Text
	if c := strings.TrimSpace(r.URL.Query().Get("category")); c != "" {
		category = pgtype.Text{String: c, Valid: true}
	}

	items, err := h.store.ListMenuItems(r.Context(), category)
	if err != nil {
		writeInternalError(w, r, "list menu items", err)
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single menu item.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "menu item")
	if !ok {
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		writeInternalError(w, r, "get menu item", err)
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Create adds a menu item.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, msg := req.params()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), params)
	if err != nil {
		writeInternalError(w, r, "create menu item", err)
		return
	}

	resp := toMenuItemResponse(item)
	h.publish(ws.EventMenuUpdated, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// Update replaces a menu item. Admin stock edits go through here.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "menu item")
	if !ok {
		return
	}
	var req menuItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params, msg := req.params()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:           id,
		Name:         params.Name,
		Description:  params.Description,
		Category:     params.Category,
		Mrp:          params.Mrp,
		SellingPrice: params.SellingPrice,
		Quantity:     params.Quantity,
		Available:    params.Available,
		ImageUrl:     params.ImageUrl,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		writeInternalError(w, r, "update menu item", err)
		return
	}

	resp := toMenuItemResponse(item)
	h.publish(ws.EventMenuUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// Delete removes a menu item. Carts and orders keep their snapshots.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "menu item")
	if !ok {
		return
	}

	n, err := h.store.DeleteMenuItem(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, "delete menu item", err)
		return
	}
	if n == 0 {
		writeError(w, http.StatusNotFound, "menu item not found")
		return
	}

	h.publish(ws.EventMenuDeleted, map[string]uuid.UUID{"id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (h *MenuHandler) publish(eventType string, payload any) {
	service.Publish(h.pub, ws.TopicMenu, eventType, payload)
}
