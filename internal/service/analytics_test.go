package service

import (
	"context"
	"errors"
	"testing"

	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/enum"
)

type mockAnalyticsStore struct {
	statusCountsFn func(ctx context.Context) ([]database.GetOrderStatusCountsRow, error)
	topItemsFn     func(ctx context.Context, limit int32) ([]database.GetTopSellingItemsRow, error)
}

func (m *mockAnalyticsStore) GetOrderStatusCounts(ctx context.Context) ([]database.GetOrderStatusCountsRow, error) {
	return m.statusCountsFn(ctx)
}
func (m *mockAnalyticsStore) GetTopSellingItems(ctx context.Context, limit int32) ([]database.GetTopSellingItemsRow, error) {
	return m.topItemsFn(ctx, limit)
}

func TestAnalyticsSummary(t *testing.T) {
	store := &mockAnalyticsStore{
		statusCountsFn: func(ctx context.Context) ([]database.GetOrderStatusCountsRow, error) {
			return []database.GetOrderStatusCountsRow{
				{Status: enum.OrderStatusDelivered, OrderCount: 3, TotalAmount: makeNumeric("1000")},
				{Status: enum.OrderStatusPreparing, OrderCount: 2, TotalAmount: makeNumeric("400")},
				{Status: enum.OrderStatusCancelled, OrderCount: 1, TotalAmount: makeNumeric("90")},
			}, nil
		},
		topItemsFn: func(ctx context.Context, limit int32) ([]database.GetTopSellingItemsRow, error) {
			if limit != 5 {
				t.Errorf("limit = %d, want 5", limit)
			}
			return []database.GetTopSellingItemsRow{
				{Name: "Maggi", QuantitySold: 12, Revenue: makeNumeric("480")},
				{Name: "Chai", QuantitySold: 9, Revenue: makeNumeric("135")},
			}, nil
		},
	}

	a, err := NewAnalyticsService(store, 0.7).Summary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.TotalOrders != 6 {
		t.Errorf("total orders = %d, want 6", a.TotalOrders)
	}
	if a.TotalRevenue.String() != "1000" {
		t.Errorf("revenue = %s, want 1000 (delivered only)", a.TotalRevenue)
	}
	// 1000 / 6 = 166.67, rounded.
	if a.AvgOrderValue.String() != "167" {
		t.Errorf("avg order value = %s, want 167", a.AvgOrderValue)
	}
	if a.Profit.String() != "300" {
		t.Errorf("profit = %s, want 300", a.Profit)
	}
	if a.StatusCounts[enum.OrderStatusPreparing] != 2 {
		t.Errorf("preparing = %d, want 2", a.StatusCounts[enum.OrderStatusPreparing])
	}
	if n, ok := a.StatusCounts[enum.OrderStatusPaymentPending]; !ok || n != 0 {
		t.Errorf("payment_pending should be reported as 0, got %d (present=%v)", n, ok)
	}
	if len(a.TopItems) != 2 || a.TopItems[0].Name != "Maggi" || a.TopItems[0].Revenue.String() != "480" {
		t.Errorf("top items = %+v", a.TopItems)
	}
}

func TestAnalyticsSummary_NoOrders(t *testing.T) {
	store := &mockAnalyticsStore{
		statusCountsFn: func(ctx context.Context) ([]database.GetOrderStatusCountsRow, error) {
			return nil, nil
		},
		topItemsFn: func(ctx context.Context, limit int32) ([]database.GetTopSellingItemsRow, error) {
			return nil, nil
		},
	}

	a, err := NewAnalyticsService(store, 0.7).Summary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.AvgOrderValue.IsZero() || !a.Profit.IsZero() || !a.TotalRevenue.IsZero() {
		t.Errorf("expected zeros, got %+v", a)
	}
	if a.TopItems == nil {
		t.Error("top items should be an empty slice, not nil")
	}
}

func TestAnalyticsSummary_CostRateAboveRevenueClampsProfit(t *testing.T) {
	store := &mockAnalyticsStore{
		statusCountsFn: func(ctx context.Context) ([]database.GetOrderStatusCountsRow, error) {
			return []database.GetOrderStatusCountsRow{
				{Status: enum.OrderStatusDelivered, OrderCount: 1, TotalAmount: makeNumeric("250")},
			}, nil
		},
		topItemsFn: func(ctx context.Context, limit int32) ([]database.GetTopSellingItemsRow, error) {
			return nil, nil
		},
	}

	a, err := NewAnalyticsService(store, 1).Summary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !a.Profit.IsZero() {
		t.Errorf("profit = %s, want 0", a.Profit)
	}
}

func TestAnalyticsSummary_StoreError(t *testing.T) {
	store := &mockAnalyticsStore{
		statusCountsFn: func(ctx context.Context) ([]database.GetOrderStatusCountsRow, error) {
			return nil, errors.New("db down")
		},
	}
	if _, err := NewAnalyticsService(store, 0.7).Summary(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
