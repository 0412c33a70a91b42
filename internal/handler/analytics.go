package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hostelbites/api/internal/service"
)

// AnalyticsReporter is satisfied by *service.AnalyticsService.
type AnalyticsReporter interface {
	Summary(ctx context.Context) (*service.Analytics, error)
}

// AnalyticsHandler serves the admin dashboard summary.
type AnalyticsHandler struct {
	svc AnalyticsReporter
}

func NewAnalyticsHandler(svc AnalyticsReporter) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// RegisterRoutes is mounted under /admin behind RequireAdmin.
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/analytics", h.Summary)
}

// --- Response types ---

type topItemResponse struct {
	Name         string `json:"name"`
	QuantitySold int64  `json:"quantity_sold"`
	Revenue      string `json:"revenue"`
}

type analyticsResponse struct {
	TotalOrders   int64             `json:"total_orders"`
	TotalRevenue  string            `json:"total_revenue"`
	AvgOrderValue string            `json:"avg_order_value"`
	Profit        string            `json:"profit"`
	StatusCounts  map[string]int64  `json:"status_counts"`
	TopItems      []topItemResponse `json:"top_items"`
}

func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Summary(r.Context())
	if err != nil {
		writeServiceError(w, r, "analytics summary", err)
		return
	}

	top := make([]topItemResponse, len(a.TopItems))
	for i, it := range a.TopItems {
		top[i] = topItemResponse{
			Name:         it.Name,
			QuantitySold: it.QuantitySold,
			Revenue:      it.Revenue.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, analyticsResponse{
		TotalOrders:   a.TotalOrders,
		TotalRevenue:  a.TotalRevenue.StringFixed(2),
		AvgOrderValue: a.AvgOrderValue.StringFixed(2),
		Profit:        a.Profit.StringFixed(2),
		StatusCounts:  a.StatusCounts,
		TopItems:      top,
	})
}
