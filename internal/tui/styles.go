package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/creamcroissant/shopboard/internal/repository"
)

// Palette
var (
	colorBrand   = lipgloss.Color("#0EA5E9")
	colorAccent  = lipgloss.Color("#38BDF8")
	colorPaid    = lipgloss.Color("#6366F1")
	colorSuccess = lipgloss.Color("#22C55E")
	colorWarning = lipgloss.Color("#F59E0B")
	colorDanger  = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorBorder  = lipgloss.Color("#334155")
	colorText    = lipgloss.Color("#F8FAFC")
)

var (
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Background(colorBrand).
			Padding(0, 1)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			MarginBottom(1)

	styleHelp = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)

	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	styleDanger  = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)

	styleTableHeader = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorText).
				Background(colorBorder).
				Padding(0, 1)

	styleTableRow = lipgloss.NewStyle().Padding(0, 1)

	styleTableRowSelected = lipgloss.NewStyle().
				Background(lipgloss.Color("#0C4A6E")).
				Foreground(colorText).
				Padding(0, 1)

	// 概览卡片
	styleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2)

	styleDetailBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBrand).
			Padding(1, 2)

	styleLabel = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(16)

	styleValue = lipgloss.NewStyle().Foreground(colorText)

	styleBarEmpty = lipgloss.NewStyle().Foreground(colorBorder)
)

// statusLook 是订单状态的图标与颜色。
type statusLook struct {
	glyph string
	color lipgloss.Color
}

var statusLooks = map[repository.OrderStatus]statusLook{
	repository.OrderPending:   {"◐", colorWarning},
	repository.OrderPaid:      {"●", colorPaid},
	repository.OrderOnRoute:   {"➜", colorAccent},
	repository.OrderDelivered: {"✔", colorSuccess},
	repository.OrderCancelled: {"○", colorDanger},
}

func lookOf(status repository.OrderStatus) statusLook {
	if look, ok := statusLooks[status]; ok {
		return look
	}
	return statusLook{"?", colorMuted}
}

// StatusIcon renders an order status with its glyph and color.
func StatusIcon(status repository.OrderStatus) string {
	look := lookOf(status)
	return lipgloss.NewStyle().Foreground(look.color).Bold(true).Render(look.glyph + " " + string(status))
}

func styleMuted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorMuted)
}

// Bar renders a horizontal bar of the given width filled to percent in color.
func Bar(percent float64, width int, color lipgloss.Color) string {
	percent = min(max(percent, 0), 100)
	filled := int(float64(width) * percent / 100)
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		styleBarEmpty.Render(strings.Repeat("░", width-filled))
}
