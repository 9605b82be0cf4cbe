package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/creamcroissant/shopboard/internal/repository"
)

// View 实现 tea.Model
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.view {
	case ViewOrders:
		return m.renderOrdersView()
	case ViewOrderDetail:
		return m.renderOrderDetailView()
	default:
		return m.renderOverviewView()
	}
}

func (m Model) renderStatusLine(b *strings.Builder) {
	if m.err != nil {
		b.WriteString(styleDanger.Render(fmt.Sprintf("  Error: %v", m.err)))
		b.WriteString("\n\n")
	}
	if m.loading {
		b.WriteString(styleMuted().Render("  Loading..."))
		b.WriteString("\n\n")
	}
}

func (m Model) renderOverviewView() string {
	var b strings.Builder

	b.WriteString(styleHeader.Width(m.width).Render("  Shopboard Live Dashboard"))
	b.WriteString("\n\n")
	m.renderStatusLine(&b)

	s := m.summary
	if s == nil {
		b.WriteString(styleHelp.Render("  [tab] Orders  [r] Refresh  [q] Quit"))
		return b.String()
	}

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		styleBox.Render(renderKV("Revenue", formatCents(s.RevenueCents, s.Currency))),
		styleBox.Render(renderKV("Orders", fmt.Sprintf("%d", s.TotalOrders))),
		styleBox.Render(renderKV("Avg order", formatCents(s.AverageOrderCents, s.Currency))),
		styleBox.Render(renderKV("Customers", fmt.Sprintf("%d", s.Customers))),
		styleBox.Render(renderKV("Products", fmt.Sprintf("%d", s.Products))),
	)
	b.WriteString(cards)
	b.WriteString("\n\n")

	// 各状态订单占比
	b.WriteString(styleTitle.Render("Orders by status"))
	b.WriteString("\n")
	for _, sc := range s.OrdersByStatus {
		percent := 0.0
		if s.TotalOrders > 0 {
			percent = float64(sc.Count) * 100 / float64(s.TotalOrders)
		}
		fmt.Fprintf(&b, "  %-22s %s %d\n", StatusIcon(sc.Status), Bar(percent, 24, lookOf(sc.Status).color), sc.Count)
	}
	b.WriteString("\n")

	left := m.renderDailySales(s.DailySales, s.Currency)
	right := m.renderTopProducts(s.TopProducts, s.Currency)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))
	b.WriteString("\n\n")

	b.WriteString(styleTitle.Render(fmt.Sprintf("Low stock (≤ %d)", s.LowStockThreshold)))
	b.WriteString("\n")
	if len(s.LowStock) == 0 {
		b.WriteString(styleSuccess.Render("  All products above threshold"))
		b.WriteString("\n")
	}
	for _, p := range s.LowStock {
		style := styleWarning
		if p.Stock == 0 {
			style = styleDanger
		}
		fmt.Fprintf(&b, "  %s %-32s %s\n", style.Render("●"), truncate(p.Name, 32), style.Render(fmt.Sprintf("%d left", p.Stock)))
	}
	b.WriteString("\n")

	b.WriteString(styleMuted().Render("  Updated " + formatTime(s.GeneratedAt)))
	b.WriteString("\n")
	b.WriteString(styleHelp.Render("  [tab] Orders  [r] Refresh  [q] Quit"))
	return b.String()
}

func (m Model) renderDailySales(days []repository.DailySales, currency string) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Daily sales"))
	b.WriteString("\n")
	var peak int64
	for _, d := range days {
		peak = max(peak, d.RevenueCents)
	}
	for _, d := range days {
		percent := 0.0
		if peak > 0 {
			percent = float64(d.RevenueCents) * 100 / float64(peak)
		}
		fmt.Fprintf(&b, "  %s %s %s\n", d.Day, Bar(percent, 16, colorBrand), formatCents(d.RevenueCents, currency))
	}
	return b.String()
}

func (m Model) renderTopProducts(products []repository.TopProduct, currency string) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Top products"))
	b.WriteString("\n")
	if len(products) == 0 {
		b.WriteString(styleMuted().Render("  No sales yet"))
		return b.String()
	}
	for i, p := range products {
		fmt.Fprintf(&b, "  %d. %-24s %4d × %s\n", i+1, truncate(p.Name, 24), p.Units, formatCents(p.RevenueCents, currency))
	}
	return b.String()
}

func (m Model) renderOrdersView() string {
	var b strings.Builder

	filter := "All"
	if status := statusFilters[m.filter]; status != "" {
		filter = string(status)
	}
	b.WriteString(styleHeader.Width(m.width).Render(fmt.Sprintf("  Orders · %s · %d total", filter, m.orderTotal)))
	b.WriteString("\n\n")
	m.renderStatusLine(&b)

	tableHeader := fmt.Sprintf("  %-6s │ %-36s │ %-12s │ %-12s │ %-20s │ %s",
		"ID", "Trade No", "Status", "Total", "Customer", "Created")
	b.WriteString(styleTableHeader.Width(m.width).Render(tableHeader))
	b.WriteString("\n")
	b.WriteString(styleMuted().Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	if len(m.orderList) == 0 {
		b.WriteString(styleMuted().Render("  No orders found."))
		b.WriteString("\n")
	} else {
		// 按终端高度计算可见行数
		visibleRows := max(m.height-10, 5)
		startIdx := 0
		if m.selected >= visibleRows {
			startIdx = m.selected - visibleRows + 1
		}
		endIdx := min(startIdx+visibleRows, len(m.orderList))

		for i := startIdx; i < endIdx; i++ {
			o := m.orderList[i]
			row := fmt.Sprintf("  %-6d │ %-36s │ %-12s │ %-12s │ %-20s │ %s",
				o.ID, o.TradeNo, o.Status, formatCents(o.TotalCents, o.Currency),
				truncate(o.ShippingAddress.FullName, 20), formatTime(o.CreatedAt))
			if i == m.selected {
				b.WriteString(styleTableRowSelected.Width(m.width).Render(row))
			} else {
				b.WriteString(styleTableRow.Render(row))
			}
			b.WriteString("\n")
		}
		if len(m.orderList) > visibleRows {
			b.WriteString(styleMuted().Render(fmt.Sprintf("  Showing %d-%d of %d orders", startIdx+1, endIdx, len(m.orderList))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styleHelp.Render("  [↑/↓] Navigate  [Enter] Details  [f] Filter  [tab] Overview  [r] Refresh  [q] Quit"))
	return b.String()
}

func (m Model) renderOrderDetailView() string {
	var b strings.Builder
	b.WriteString(styleHeader.Width(m.width).Render("  Order Detail"))
	b.WriteString("\n\n")
	m.renderStatusLine(&b)

	if m.detail == nil || m.detail.Order == nil {
		b.WriteString(styleHelp.Render("  [esc] Back  [q] Quit"))
		return b.String()
	}
	o := m.detail.Order

	var body strings.Builder
	body.WriteString(renderKV("Trade No", o.TradeNo) + "\n")
	body.WriteString(renderKV("Status", StatusIcon(o.Status)) + "\n")
	body.WriteString(renderKV("Created", formatTime(o.CreatedAt)) + "\n")
	if o.PaidAt > 0 {
		body.WriteString(renderKV("Paid", fmt.Sprintf("%s (%s)", formatTime(o.PaidAt), formatCents(o.PaidAmountCents, o.Currency))) + "\n")
	}
	if o.CancelReason != "" {
		body.WriteString(renderKV("Cancel reason", o.CancelReason) + "\n")
	}
	addr := o.ShippingAddress
	body.WriteString(renderKV("Ship to", fmt.Sprintf("%s, %s, %s %s, %s", addr.FullName, addr.Line1, addr.City, addr.PostalCode, addr.Country)) + "\n\n")

	body.WriteString(styleTitle.Render("Items") + "\n")
	for _, item := range o.Items {
		fmt.Fprintf(&body, "  %-32s %3d × %-10s %s\n", truncate(item.ProductName, 32), item.Quantity,
			formatCents(item.UnitPriceCents, o.Currency), formatCents(item.LineTotalCents, o.Currency))
	}
	body.WriteString(renderKV("Subtotal", formatCents(o.SubtotalCents, o.Currency)) + "\n")
	body.WriteString(renderKV("Shipping", formatCents(o.ShippingCents, o.Currency)) + "\n")
	body.WriteString(renderKV("Total", formatCents(o.TotalCents, o.Currency)) + "\n\n")

	body.WriteString(styleTitle.Render("Tracking") + "\n")
	if len(m.detail.Tracking) == 0 {
		body.WriteString(styleMuted().Render("  none") + "\n")
	}
	for _, t := range m.detail.Tracking {
		fmt.Fprintf(&body, "  %s %s %s\n", t.Carrier, t.TrackingNumber, styleMuted().Render(t.URL))
	}
	body.WriteString("\n")

	body.WriteString(styleTitle.Render("History") + "\n")
	for _, l := range m.detail.StatusLogs {
		from := string(l.FromStatus)
		if from == "" {
			from = "-"
		}
		fmt.Fprintf(&body, "  %s  %s → %s  by %s  %s\n", formatTime(l.CreatedAt), from, l.ToStatus, l.ActorType, l.Reason)
	}

	// 详情按行滚动
	lines := strings.Split(body.String(), "\n")
	visible := max(m.height-8, 5)
	offset := min(m.detailScrollOffset, max(len(lines)-visible, 0))
	end := min(offset+visible, len(lines))
	b.WriteString(styleDetailBox.Render(strings.Join(lines[offset:end], "\n")))
	b.WriteString("\n")
	b.WriteString(styleHelp.Render("  [↑/↓] Scroll  [esc] Back  [r] Refresh  [q] Quit"))
	return b.String()
}

func renderKV(label, value string) string {
	return styleLabel.Render(label) + styleValue.Render(value)
}

func formatCents(cents int64, currency string) string {
	return decimal.New(cents, -2).StringFixed(2) + " " + strings.ToUpper(currency)
}

func formatTime(ts int64) string {
	if ts <= 0 {
		return "-"
	}
	return time.Unix(ts, 0).Local().Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
