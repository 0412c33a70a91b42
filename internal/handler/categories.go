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
	"github.com/hostelbites/api/internal/logging"
	"github.com/hostelbites/api/internal/service"
	"github.com/hostelbites/api/internal/ws"
	"github.com/jackc/pgx/v5"
)

// CategoryStore defines the database methods needed by category handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]database.Category, error)
	CreateCategory(ctx context.Context, arg database.CreateCategoryParams) (database.Category, error)
	UpdateCategory(ctx context.Context, arg database.UpdateCategoryParams) (database.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) (int64, error)
}

// CategoryHandler handles category CRUD endpoints.
type CategoryHandler struct {
	store CategoryStore
	pub   service.EventPublisher
}

// NewCategoryHandler creates a new CategoryHandler. pub may be nil.
func NewCategoryHandler(store CategoryStore, pub service.EventPublisher) *CategoryHandler {
	return &CategoryHandler{store: store, pub: pub}
}

func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.List)
}

// RegisterAdminRoutes is mounted under /admin behind RequireAdmin.
func (h *CategoryHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/categories", h.Create)
	r.Put("/categories/{id}", h.Update)
	r.Delete("/categories/{id}", h.Delete)
}

// --- Request / Response types ---

type categoryRequest struct {
	Name      string `json:"name" validate:"trimmed_required,max=50"`
	Key       string `json:"key" validate:"max=50"`
	SortOrder int32  `json:"sort_order" validate:"gte=0"`
}

type categoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	SortOrder int32     `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

func toCategoryResponse(c database.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Key:       c.Key,
		SortOrder: c.SortOrder,
		CreatedAt: c.CreatedAt,
	}
}

// Slugify lower-cases s and collapses every run of non-alphanumerics into
// a single hyphen: "Hot Drinks & Tea" becomes "hot-drinks-tea".
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func (req categoryRequest) key() string {
	if k := Slugify(req.Key); k != "" {
		return k
	}
	return Slugify(req.Name)
}

// --- Handlers ---

// List returns categories ordered by sort_order.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.store.ListCategories(r.Context())
	if err != nil {
		writeInternalError(w, r, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponses(cats))
}

// Create adds a category. The key defaults to the slugified name.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	key := req.key()
	if key == "" {
		writeError(w, http.StatusBadRequest, "name must contain letters or digits")
		return
	}

	cat, err := h.store.CreateCategory(r.Context(), database.CreateCategoryParams{
		Name:      strings.TrimSpace(req.Name),
		Key:       key,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "category key already exists")
			return
		}
		writeInternalError(w, r, "create category", err)
		return
	}

	h.publishAll(r)
	writeJSON(w, http.StatusCreated, toCategoryResponse(cat))
}

// Update renames or reorders a category.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "category")
	if !ok {
		return
	}
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	key := req.key()
	if key == "" {
		writeError(w, http.StatusBadRequest, "name must contain letters or digits")
		return
	}

	cat, err := h.store.UpdateCategory(r.Context(), database.UpdateCategoryParams{
		ID:        id,
		Name:      strings.TrimSpace(req.Name),
		Key:       key,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "category key already exists")
			return
		}
		writeInternalError(w, r, "update category", err)
		return
	}

	h.publishAll(r)
	writeJSON(w, http.StatusOK, toCategoryResponse(cat))
}

// Delete removes a category. Menu items keep their category key.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "category")
	if !ok {
		return
	}

	n, err := h.store.DeleteCategory(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, "delete category", err)
		return
	}
	if n == 0 {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	h.publishAll(r)
	w.WriteHeader(http.StatusNoContent)
}

// publishAll pushes the full, re-read category list to subscribers.
func (h *CategoryHandler) publishAll(r *http.Request) {
	if h.pub == nil {
		return
	}
	cats, err := h.store.ListCategories(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("reload categories for event")
		return
	}
	service.Publish(h.pub, ws.TopicCategories, ws.EventCategoriesUpdated, toCategoryResponses(cats))
}

func toCategoryResponses(cats []database.Category) []categoryResponse {
	resp := make([]categoryResponse, len(cats))
	for i, c := range cats {
		resp[i] = toCategoryResponse(c)
	}
	return resp
}
