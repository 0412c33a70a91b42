package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hostelbites/api/internal/middleware"
	"github.com/hostelbites/api/internal/service"
)

// CartManager is the cart behaviour the handler needs.
// Satisfied by *service.CartService.
type CartManager interface {
	GetCart(ctx context.Context, userID uuid.UUID) (service.Cart, error)
	AddItem(ctx context.Context, userID, itemID uuid.UUID) (service.Cart, service.AddResult, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (service.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

// CartHandler serves the signed-in user's own cart.
type CartHandler struct {
	svc CartManager
}

func NewCartHandler(svc CartManager) *CartHandler {
	return &CartHandler{svc: svc}
}

func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cart", h.Get)
	r.Post("/cart/items/{itemId}", h.Add)
	r.Delete("/cart/items/{itemId}", h.Remove)
	r.Delete("/cart", h.Clear)
}

// --- Response types ---

type cartItemResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	SellingPrice string    `json:"selling_price"`
	Quantity     int32     `json:"quantity"`
	ImageURL     string    `json:"image_url"`
}

type cartResponse struct {
	Items    []cartItemResponse `json:"items"`
	Count    int32              `json:"count"`
	Subtotal string             `json:"subtotal"`
}

type addToCartResponse struct {
	Cart              cartResponse `json:"cart"`
	StockLimitReached bool         `json:"stock_limit_reached"`
	Unavailable       bool         `json:"unavailable"`
	Available         int32        `json:"available"`
	Message           string       `json:"message,omitempty"`
}

func toCartResponse(c service.Cart) cartResponse {
	items := make([]cartItemResponse, len(c.Items))
	for i, e := range c.Items {
		items[i] = cartItemResponse{
			ID:           e.ID,
			Name:         e.Name,
			Category:     e.Category,
			SellingPrice: e.SellingPrice.StringFixed(2),
			Quantity:     e.Quantity,
			ImageURL:     e.ImageURL,
		}
	}
	return cartResponse{Items: items, Count: c.Count, Subtotal: c.Subtotal.StringFixed(2)}
}

// --- Handlers ---

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	cart, err := h.svc.GetCart(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, "get cart", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(cart))
}

// Add puts one unit of the item in the cart. Hitting the stock limit or an
// unavailable item is not an error: the unchanged cart comes back with
// stock_limit_reached or unavailable set.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	itemID, ok := urlUUID(w, r, "itemId", "menu item")
	if !ok {
		return
	}

	cart, res, err := h.svc.AddItem(r.Context(), claims.UserID, itemID)
	if err != nil {
		writeServiceError(w, r, "add to cart", err)
		return
	}

	resp := addToCartResponse{
		Cart:              toCartResponse(cart),
		StockLimitReached: res.StockLimitReached,
		Unavailable:       res.Unavailable,
		Available:         res.Available,
	}
	switch {
	case res.Unavailable:
		resp.Message = "Item is currently unavailable"
	case res.StockLimitReached:
		resp.Message = "Stock limit reached"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	itemID, ok := urlUUID(w, r, "itemId", "menu item")
	if !ok {
		return
	}

	cart, err := h.svc.RemoveItem(r.Context(), claims.UserID, itemID)
	if err != nil {
		writeServiceError(w, r, "remove from cart", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(cart))
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	if err := h.svc.ClearCart(r.Context(), claims.UserID); err != nil {
		writeServiceError(w, r, "clear cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
