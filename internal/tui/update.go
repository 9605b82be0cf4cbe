package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case summaryLoadedMsg:
		m.loading = false
		m.summary = msg.summary
		m.err = nil
		m.lastRefresh = time.Now()
		return m, nil

	case ordersLoadedMsg:
		m.loading = false
		m.orderList = msg.orders
		m.orderTotal = msg.total
		m.err = nil
		m.lastRefresh = time.Now()
		if m.selected >= len(m.orderList) {
			m.selected = max(len(m.orderList)-1, 0)
		}
		return m, nil

	case detailLoadedMsg:
		m.loading = false
		m.detail = msg.detail
		m.err = nil
		m.lastRefresh = time.Now()
		return m, nil

	case errorMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.reload(), tickCmd())
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		return m.handleUp()

	case key.Matches(msg, m.keys.Down):
		return m.handleDown()

	case key.Matches(msg, m.keys.Enter):
		return m.handleEnter()

	case key.Matches(msg, m.keys.Back):
		return m.handleBack()

	case key.Matches(msg, m.keys.Switch):
		return m.handleSwitch()

	case key.Matches(msg, m.keys.Filter):
		return m.handleFilter()

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.reload()
	}

	return m, nil
}

func (m Model) handleUp() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewOrders:
		if len(m.orderList) > 0 {
			m.selected--
			if m.selected < 0 {
				m.selected = len(m.orderList) - 1
			}
		}
	case ViewOrderDetail:
		if m.detailScrollOffset > 0 {
			m.detailScrollOffset--
		}
	}
	return m, nil
}

func (m Model) handleDown() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewOrders:
		if len(m.orderList) > 0 {
			m.selected++
			if m.selected >= len(m.orderList) {
				m.selected = 0
			}
		}
	case ViewOrderDetail:
		m.detailScrollOffset++
	}
	return m, nil
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	if m.view != ViewOrders || len(m.orderList) == 0 {
		return m, nil
	}
	order := m.orderList[m.selected]
	m.view = ViewOrderDetail
	m.detail = nil
	m.detailScrollOffset = 0
	m.loading = true
	return m, m.loadDetail(order.ID)
}

func (m Model) handleBack() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewOrderDetail:
		m.view = ViewOrders
		m.detail = nil
		m.loading = true
		return m, m.loadOrders()
	case ViewOrders:
		m.view = ViewOverview
		m.loading = true
		return m, m.loadSummary()
	}
	return m, nil
}

func (m Model) handleSwitch() (tea.Model, tea.Cmd) {
	m.loading = true
	if m.view == ViewOverview {
		m.view = ViewOrders
		return m, m.loadOrders()
	}
	m.view = ViewOverview
	m.detail = nil
	return m, m.loadSummary()
}

func (m Model) handleFilter() (tea.Model, tea.Cmd) {
	if m.view != ViewOrders {
		return m, nil
	}
	m.filter = (m.filter + 1) % len(statusFilters)
	m.selected = 0
	m.loading = true
	return m, m.loadOrders()
}
