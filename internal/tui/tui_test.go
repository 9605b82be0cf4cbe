package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/shopboard/internal/repository"
	"github.com/creamcroissant/shopboard/internal/service"
)

type stubDashboard struct {
	summary *service.DashboardSummary
	err     error
	days    int
}

func (s *stubDashboard) Summary(_ context.Context, days int) (*service.DashboardSummary, error) {
	s.days = days
	return s.summary, s.err
}

type stubOrders struct {
	service.OrderService
	orders   []*repository.Order
	detail   *service.OrderDetail
	lastList service.OrderQuery
	detailID int64
}

func (s *stubOrders) AdminList(_ context.Context, q service.OrderQuery) (*service.OrderListResult, error) {
	s.lastList = q
	return &service.OrderListResult{Orders: s.orders, Total: int64(len(s.orders))}, nil
}

func (s *stubOrders) AdminDetail(_ context.Context, id int64) (*service.OrderDetail, error) {
	s.detailID = id
	return s.detail, nil
}

func fixtures() (*stubDashboard, *stubOrders) {
	order := &repository.Order{
		ID:         7,
		TradeNo:    "T20260101",
		Status:     repository.OrderPaid,
		TotalCents: 3140,
		Currency:   "usd",
		ShippingAddress: repository.AddressSnapshot{
			FullName: "Ada Lovelace",
			Line1:    "1 Main St",
			City:     "London",
			Country:  "GB",
		},
		Items: []repository.OrderItem{{ProductName: "Teapot", UnitPriceCents: 1320, Quantity: 2, LineTotalCents: 2640}},
	}
	dash := &stubDashboard{summary: &service.DashboardSummary{
		RevenueCents:      123456,
		Currency:          "usd",
		TotalOrders:       4,
		OrdersByStatus:    []repository.StatusCount{{Status: repository.OrderPaid, Count: 3}, {Status: repository.OrderCancelled, Count: 1}},
		LowStockThreshold: 5,
		LowStock:          []*service.ProductStock{{ID: 1, Name: "Kettle", Stock: 0}},
		TopProducts:       []repository.TopProduct{{ProductID: 2, Name: "Teapot", Units: 9, RevenueCents: 9900}},
		DailySales:        []repository.DailySales{{Day: "2026-01-01", Orders: 4, RevenueCents: 123456}},
	}}
	orders := &stubOrders{
		orders: []*repository.Order{order, {ID: 8, TradeNo: "T20260102", Status: repository.OrderPending, Currency: "usd"}},
		detail: &service.OrderDetail{
			Order:    order,
			Tracking: []repository.Tracking{{Carrier: "DHL", TrackingNumber: "JD0001"}},
		},
	}
	return dash, orders
}

// run 执行命令并把结果消息交回 Update
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(Model)
}

func press(m Model, keyMsg tea.KeyMsg) (Model, tea.Cmd) {
	next, cmd := m.Update(keyMsg)
	return next.(Model), cmd
}

func TestModel_Overview(t *testing.T) {
	dash, orders := fixtures()
	m := NewModel(dash, orders)
	assert.Equal(t, "Loading...", m.View())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	m = next.(Model)
	m = run(t, m, m.loadSummary())

	assert.Equal(t, overviewDays, dash.days)
	assert.False(t, m.loading)
	view := m.View()
	for _, want := range []string{"Shopboard Live Dashboard", "1234.56 USD", "Teapot", "Kettle", "0 left", "Paid"} {
		assert.Contains(t, view, want)
	}
}

func TestModel_OrdersNavigation(t *testing.T) {
	dash, orders := fixtures()
	m := NewModel(dash, orders)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	m = next.(Model)

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ViewOrders, m.view)
	m = run(t, m, cmd)
	assert.Len(t, m.orderList, 2)
	assert.Contains(t, m.View(), "T20260102")

	// 上移从首行回绕到末行
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.selected)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.selected)

	m, cmd = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	m = run(t, m, cmd)
	assert.Equal(t, repository.OrderPending, orders.lastList.Status)
	assert.Equal(t, ordersPageSize, orders.lastList.Page.PageSize)
	assert.Contains(t, m.View(), "Orders · Pending")

	m, cmd = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ViewOrderDetail, m.view)
	m = run(t, m, cmd)
	assert.Equal(t, int64(7), orders.detailID)
	view := m.View()
	for _, want := range []string{"T20260101", "Ada Lovelace", "DHL", "26.40 USD"} {
		assert.Contains(t, view, want)
	}

	m, cmd = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewOrders, m.view)
	assert.Nil(t, m.detail)
	assert.NotNil(t, cmd)

	_, cmd = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_Error(t *testing.T) {
	dash, orders := fixtures()
	dash.err = errors.New("database is locked")
	m := NewModel(dash, orders)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(Model)
	m = run(t, m, m.loadSummary())

	assert.EqualError(t, m.err, "database is locked")
	assert.Contains(t, m.View(), "Error: database is locked")
}

func TestFormatCents(t *testing.T) {
	cases := map[string]struct {
		cents int64
		want  string
	}{
		"zero":     {0, "0.00 USD"},
		"cents":    {5, "0.05 USD"},
		"dollars":  {1320, "13.20 USD"},
		"negative": {-250, "-2.50 USD"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatCents(tc.cents, "usd"))
		})
	}
}
