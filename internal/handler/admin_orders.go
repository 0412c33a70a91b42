package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/service"
)

// AdminOrderHandler serves the admin order board.
type AdminOrderHandler struct {
	svc service.AdminOrders
}

func NewAdminOrderHandler(svc service.AdminOrders) *AdminOrderHandler {
	return &AdminOrderHandler{svc: svc}
}

// RegisterRoutes is mounted under /admin behind RequireAdmin.
func (h *AdminOrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)
	r.Patch("/orders/{id}/status", h.UpdateStatus)
	r.Post("/orders/{id}/cancel", h.Cancel)
	r.Patch("/orders/{id}", h.UpdateDetails)
	r.Delete("/orders/{id}", h.Clear)
}

// --- Request / Response types ---

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type updateOrderDetailsRequest struct {
	Notes        *string `json:"notes" validate:"omitempty,max=500"`
	UPIReference *string `json:"upi_reference" validate:"omitempty,max=64"`
}

// adminOrderResponse adds the statuses an admin can move the order to.
type adminOrderResponse struct {
	orderResponse
	NextStatuses []string `json:"next_statuses"`
}

type adminOrderListResponse struct {
	Orders []adminOrderResponse `json:"orders"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

func toAdminOrderResponse(o database.Order) adminOrderResponse {
	next := service.AllowedTransitions(o.OrderType, o.Status)
	if next == nil {
		next = []string{}
	}
	return adminOrderResponse{orderResponse: toOrderResponse(o), NextStatuses: next}
}

// --- Handlers ---

// List supports ?status=, ?user_id=, ?limit= and ?offset=.
func (h *AdminOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 50, 200)
	filter := service.OrderFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  int32(limit),
		Offset: int32(offset),
	}
	if s := r.URL.Query().Get("user_id"); s != "" {
		uid, err := uuid.Parse(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		filter.UserID = uid
	}

	orders, err := h.svc.ListOrders(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, "list orders", err)
		return
	}

	resp := make([]adminOrderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toAdminOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, adminOrderListResponse{Orders: resp, Limit: limit, Offset: offset})
}

func (h *AdminOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "order")
	if !ok {
		return
	}

	order, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, toAdminOrderResponse(order))
}

// UpdateStatus moves the order along its lifecycle. Setting cancelled runs
// the same stock-restoring path as Cancel.
func (h *AdminOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "order")
	if !ok {
		return
	}
	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, r, "update order status", err)
		return
	}
	writeJSON(w, http.StatusOK, toAdminOrderResponse(order))
}

func (h *AdminOrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "order")
	if !ok {
		return
	}

	order, err := h.svc.CancelOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "cancel order", err)
		return
	}
	writeJSON(w, http.StatusOK, toAdminOrderResponse(order))
}

// UpdateDetails edits notes and the UPI reference.
func (h *AdminOrderHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "order")
	if !ok {
		return
	}
	var req updateOrderDetailsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.svc.UpdateOrderDetails(r.Context(), id, service.UpdateOrderDetailsRequest{
		Notes:        req.Notes,
		UPIReference: req.UPIReference,
	})
	if err != nil {
		writeServiceError(w, r, "update order details", err)
		return
	}
	writeJSON(w, http.StatusOK, toAdminOrderResponse(order))
}

// Clear deletes a delivered or cancelled order from the board.
func (h *AdminOrderHandler) Clear(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "order")
	if !ok {
		return
	}

	if err := h.svc.ClearOrder(r.Context(), id); err != nil {
		writeServiceError(w, r, "clear order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
