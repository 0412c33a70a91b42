package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/middleware"
	"github.com/hostelbites/api/internal/service"
)

// OrderHandler serves checkout and the customer's own order history.
type OrderHandler struct {
	svc service.CustomerOrders
}

func NewOrderHandler(svc service.CustomerOrders) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.Place)
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)
}

// --- Request / Response types ---

// placeOrderRequest carries checkout fields only; the lines come from the
// stored cart.
type placeOrderRequest struct {
	OrderType    string `json:"order_type" validate:"required,oneof=delivery takeaway"`
	UPIReference string `json:"upi_reference"`
	Notes        string `json:"notes" validate:"max=500"`
	RoomNumber   string `json:"room_number" validate:"trimmed_required,max=10"`
	Whatsapp     string `json:"whatsapp" validate:"required"`
}

type orderLineResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Price    string    `json:"price"`
	Quantity int32     `json:"quantity"`
	ImageURL string    `json:"image_url"`
}

type orderResponse struct {
	ID               uuid.UUID           `json:"id"`
	UserID           uuid.UUID           `json:"user_id"`
	UserName         string              `json:"user_name"`
	Items            []orderLineResponse `json:"items"`
	Subtotal         string              `json:"subtotal"`
	DeliveryCharge   string              `json:"delivery_charge"`
	TotalAmount      string              `json:"total_amount"`
	OrderType        string              `json:"order_type"`
	Status           string              `json:"status"`
	PaymentMethod    string              `json:"payment_method"`
	UPITransactionID string              `json:"upi_transaction_id"`
	Notes            string              `json:"notes"`
	RoomNumber       string              `json:"room_number"`
	Whatsapp         string              `json:"whatsapp"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

func toOrderResponse(o database.Order) orderResponse {
	lines := make([]orderLineResponse, len(o.Items))
	for i, l := range o.Items {
		lines[i] = orderLineResponse{
			ID:       l.ID,
			Name:     l.Name,
			Price:    l.Price.StringFixed(2),
			Quantity: l.Quantity,
			ImageURL: l.ImageURL,
		}
	}
	return orderResponse{
		ID:               o.ID,
		UserID:           o.UserID,
		UserName:         o.UserName,
		Items:            lines,
		Subtotal:         numericToString(o.Subtotal),
		DeliveryCharge:   numericToString(o.DeliveryCharge),
		TotalAmount:      numericToString(o.TotalAmount),
		OrderType:        o.OrderType,
		Status:           o.Status,
		PaymentMethod:    o.PaymentMethod,
		UPITransactionID: o.UpiTransactionID,
		Notes:            o.Notes,
		RoomNumber:       o.RoomNumber,
		Whatsapp:         o.Whatsapp,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// --- Handlers ---

// Place turns the caller's cart into an order.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	var req placeOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.PlaceOrder(r.Context(), service.PlaceOrderRequest{
		UserID:       claims.UserID,
		OrderType:    req.OrderType,
		UPIReference: strings.TrimSpace(req.UPIReference),
		Notes:        req.Notes,
		RoomNumber:   req.RoomNumber,
		Whatsapp:     req.Whatsapp,
	})
	if err != nil {
		writeServiceError(w, r, "place order", err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(result.Order))
}

// List returns the caller's orders, newest first.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	limit, offset := parsePagination(r, 20, 100)

	orders, err := h.svc.ListUserOrders(r.Context(), claims.UserID, int32(limit), int32(offset))
	if err != nil {
		writeServiceError(w, r, "list user orders", err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: resp, Limit: limit, Offset: offset})
}

// Get returns one of the caller's orders. Other users' orders are 404.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	id, ok := urlUUID(w, r, "id", "order")
	if !ok {
		return
	}

	order, err := h.svc.GetUserOrder(r.Context(), claims.UserID, id)
	if err != nil {
		writeServiceError(w, r, "get user order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}
