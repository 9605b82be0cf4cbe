package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/shopboard/internal/repository"
)

func TestFillDays(t *testing.T) {
	start := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)
	sales := []repository.DailySales{
		{Day: "2026-02-28", Orders: 2, RevenueCents: 900},
		{Day: "2026-01-01", Orders: 9, RevenueCents: 9999},
	}
	got := fillDays(start, 3, sales)
	assert.Equal(t, []repository.DailySales{
		{Day: "2026-02-27"},
		{Day: "2026-02-28", Orders: 2, RevenueCents: 900},
		{Day: "2026-03-01"},
	}, got)
}

func TestClampDays(t *testing.T) {
	tests := map[string]struct {
		in, want int
	}{
		"default":  {in: 0, want: 7},
		"negative": {in: -3, want: 7},
		"kept":     {in: 30, want: 30},
		"capped":   {in: 365, want: 90},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, clampDays(tc.in))
		})
	}
}

func TestDashboardSummary(t *testing.T) {
	f := newOrderFixture(t, nil)
	ctx := context.Background()
	dashboard := NewDashboardService(f.store, newTestCache(), testRules, 0)
	dashboard.(*dashboardService).now = f.clk.Now

	paid := f.placeOrder(t, 2).Order
	_, err := f.checkout.Pay(ctx, f.user.ID, paid.ID)
	require.NoError(t, err)
	pending := f.placeOrder(t, 1).Order

	summary, err := dashboard.Summary(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 7, summary.Days)
	assert.Equal(t, int64(3140), summary.RevenueCents)
	assert.Equal(t, "31.40", summary.Revenue)
	assert.Equal(t, "USD", summary.Currency)
	assert.Equal(t, int64(3140), summary.AverageOrderCents)
	assert.Equal(t, int64(2), summary.TotalOrders)
	assert.Equal(t, int64(1), summary.Customers)
	assert.Equal(t, int64(1), summary.Products)
	assert.Equal(t, 5, summary.LowStockThreshold)
	require.Len(t, summary.LowStock, 1)
	assert.Equal(t, 2, summary.LowStock[0].Stock)
	require.Len(t, summary.TopProducts, 1)
	assert.Equal(t, int64(2), summary.TopProducts[0].Units)

	require.Len(t, summary.DailySales, 7)
	today := summary.DailySales[6]
	assert.Equal(t, "2026-03-01", today.Day)
	assert.Equal(t, int64(1), today.Orders)
	assert.Equal(t, int64(3140), today.RevenueCents)
	assert.Equal(t, "2026-02-23", summary.DailySales[0].Day)

	_, err = f.checkout.Pay(ctx, f.user.ID, pending.ID)
	require.NoError(t, err)

	cached, err := dashboard.Summary(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3140), cached.RevenueCents, "summary is cached")

	fresh, err := dashboard.Summary(ctx, 120)
	require.NoError(t, err)
	assert.Equal(t, 90, fresh.Days)
	assert.Equal(t, int64(4960), fresh.RevenueCents)
	assert.Equal(t, int64(2480), fresh.AverageOrderCents)
}
