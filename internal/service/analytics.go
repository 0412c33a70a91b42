package service

import (
	"context"
	"fmt"

	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/enum"
	"github.com/shopspring/decimal"
)

const topItemsLimit = 5

type AnalyticsStore interface {
	GetOrderStatusCounts(ctx context.Context) ([]database.GetOrderStatusCountsRow, error)
	GetTopSellingItems(ctx context.Context, limit int32) ([]database.GetTopSellingItemsRow, error)
}

type TopItem struct {
	Name         string
	QuantitySold int64
	Revenue      decimal.Decimal
}

// Analytics is the admin dashboard summary. Money values are whole rupees
// except item revenue.
type Analytics struct {
	TotalOrders   int64
	TotalRevenue  decimal.Decimal
	AvgOrderValue decimal.Decimal
	Profit        decimal.Decimal
	StatusCounts  map[string]int64
	TopItems      []TopItem
}

type AnalyticsService struct {
	store    AnalyticsStore
	costRate decimal.Decimal
}

// NewAnalyticsService creates an AnalyticsService. costRate is the assumed
// share of revenue spent on goods, used for the profit estimate.
func NewAnalyticsService(store AnalyticsStore, costRate float64) *AnalyticsService {
	return &AnalyticsService{store: store, costRate: decimal.NewFromFloat(costRate)}
}

// Summary computes revenue from delivered orders only, while the average
// order value and top items span every order.
func (s *AnalyticsService) Summary(ctx context.Context) (*Analytics, error) {
	rows, err := s.store.GetOrderStatusCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get order status counts: %w", err)
	}

	a := &Analytics{
		TotalRevenue:  decimal.Zero,
		AvgOrderValue: decimal.Zero,
		Profit:        decimal.Zero,
		StatusCounts:  make(map[string]int64, len(enum.OrderStatuses)),
	}
	for _, st := range enum.OrderStatuses {
		a.StatusCounts[st] = 0
	}
	for _, r := range rows {
		a.StatusCounts[r.Status] += r.OrderCount
		a.TotalOrders += r.OrderCount
		if r.Status == enum.OrderStatusDelivered {
			a.TotalRevenue = a.TotalRevenue.Add(database.NumericToDecimal(r.TotalAmount))
		}
	}

	if a.TotalOrders > 0 {
		a.AvgOrderValue = a.TotalRevenue.Div(decimal.NewFromInt(a.TotalOrders)).Round(0)
	}
	profit := a.TotalRevenue.Mul(decimal.NewFromInt(1).Sub(s.costRate)).Round(0)
	if profit.IsPositive() {
		a.Profit = profit
	}

	top, err := s.store.GetTopSellingItems(ctx, topItemsLimit)
	if err != nil {
		return nil, fmt.Errorf("get top selling items: %w", err)
	}
	a.TopItems = make([]TopItem, 0, len(top))
	for _, t := range top {
		a.TopItems = append(a.TopItems, TopItem{
			Name:         t.Name,
			QuantitySold: t.QuantitySold,
			Revenue:      database.NumericToDecimal(t.Revenue),
		})
	}
	return a, nil
}
