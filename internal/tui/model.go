package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/creamcroissant/shopboard/internal/repository"
	"github.com/creamcroissant/shopboard/internal/service"
)

// ViewType 表示当前视图
type ViewType int

const (
	ViewOverview    ViewType = iota // 经营概览
	ViewOrders                      // 订单列表
	ViewOrderDetail                 // 订单详情
)

const (
	overviewDays   = 7
	ordersPageSize = 50
	refreshEvery   = 5 * time.Second
	loadTimeout    = 5 * time.Second
)

// statusFilters 是订单列表按 f 键循环的过滤条件，空串表示全部
var statusFilters = append([]repository.OrderStatus{""}, repository.AllOrderStatuses...)

// Model 是主 TUI 模型
type Model struct {
	dashboard service.DashboardService
	orders    service.OrderService

	// 数据
	summary     *service.DashboardSummary
	orderList   []*repository.Order
	orderTotal  int64
	selected    int
	filter      int
	detail      *service.OrderDetail
	lastRefresh time.Time

	// 视图状态
	view ViewType

	// 终端尺寸
	width  int
	height int

	// 详情视图的滚动状态
	detailScrollOffset int

	// 状态
	loading bool
	err     error

	keys keyMap
}

// keyMap 定义全部按键绑定
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Switch  key.Binding
	Filter  key.Binding
	Quit    key.Binding
	Refresh key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Switch: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "overview/orders"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "status filter"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

// NewModel 创建新的 TUI 模型
func NewModel(dashboard service.DashboardService, orders service.OrderService) Model {
	return Model{
		dashboard: dashboard,
		orders:    orders,
		view:      ViewOverview,
		keys:      defaultKeyMap(),
		loading:   true,
	}
}

// Init 实现 tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadSummary(),
		tickCmd(),
	)
}

// 消息类型

type summaryLoadedMsg struct {
	summary *service.DashboardSummary
}

type ordersLoadedMsg struct {
	orders []*repository.Order
	total  int64
}

type detailLoadedMsg struct {
	detail *service.OrderDetail
}

type errorMsg struct {
	err error
}

type tickMsg time.Time

// 命令

func (m Model) loadSummary() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		summary, err := m.dashboard.Summary(ctx, overviewDays)
		if err != nil {
			return errorMsg{err: err}
		}
		return summaryLoadedMsg{summary: summary}
	}
}

func (m Model) loadOrders() tea.Cmd {
	status := statusFilters[m.filter]
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		res, err := m.orders.AdminList(ctx, service.OrderQuery{
			Status: status,
			Page:   service.Page{Page: 1, PageSize: ordersPageSize},
		})
		if err != nil {
			return errorMsg{err: err}
		}
		return ordersLoadedMsg{orders: res.Orders, total: res.Total}
	}
}

func (m Model) loadDetail(orderID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		detail, err := m.orders.AdminDetail(ctx, orderID)
		if err != nil {
			return errorMsg{err: err}
		}
		return detailLoadedMsg{detail: detail}
	}
}

// reload 按当前视图重新拉取数据
func (m Model) reload() tea.Cmd {
	switch m.view {
	case ViewOrders:
		return m.loadOrders()
	case ViewOrderDetail:
		if m.detail != nil && m.detail.Order != nil {
			return m.loadDetail(m.detail.Order.ID)
		}
		return nil
	default:
		return m.loadSummary()
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
