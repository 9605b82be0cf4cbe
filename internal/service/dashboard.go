// 文件路径: internal/service/dashboard.go
// 模块说明: 后台看板：营收、订单状态分布、顾客与商品数、低库存、热销商品与每日销售额，结果缓存 30 秒。
package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/creamcroissant/shopboard/internal/cache"
	"github.com/creamcroissant/shopboard/internal/metrics"
	"github.com/creamcroissant/shopboard/internal/repository"
)

const (
	dashboardCacheTTL   = 30 * time.Second
	defaultDashboardDay = 7
	maxDashboardDays    = 90
	dashboardTopLimit   = 10
	dashboardLowLimit   = 20
)

// RevenueStatuses 是计入营收的订单状态。
var RevenueStatuses = []repository.OrderStatus{repository.OrderPaid, repository.OrderOnRoute, repository.OrderDelivered}

// DashboardService 汇总后台看板数据。
type DashboardService interface {
	Summary(ctx context.Context, days int) (*DashboardSummary, error)
}

// DashboardSummary 是看板返回结构，金额单位为分。
type DashboardSummary struct {
	RevenueCents      int64                    `json:"revenue"`
	Revenue           string                   `json:"revenue_display"`
	Currency          string                   `json:"currency"`
	AverageOrderCents int64                    `json:"average_order"`
	OrdersByStatus    []repository.StatusCount `json:"orders_by_status"`
	TotalOrders       int64                    `json:"total_orders"`
	Customers         int64                    `json:"customers"`
	Products          int64                    `json:"products"`
	LowStockThreshold int                      `json:"low_stock_threshold"`
	LowStock          []*ProductStock          `json:"low_stock"`
	TopProducts       []repository.TopProduct  `json:"top_products"`
	Days              int                      `json:"days"`
	DailySales        []repository.DailySales  `json:"daily_sales"`
	GeneratedAt       int64                    `json:"generated_at"`
}

// ProductStock 是低库存商品摘要。
type ProductStock struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

type dashboardService struct {
	reports           repository.ReportRepository
	products          repository.ProductRepository
	cache             cache.Store
	currency          string
	lowStockThreshold int
	now               func() time.Time
}

// NewDashboardService wires the dashboard.
func NewDashboardService(store repository.Store, cacheStore cache.Store, rules PricingRules, lowStockThreshold int) DashboardService {
	if lowStockThreshold <= 0 {
		lowStockThreshold = 5
	}
	s := &dashboardService{currency: rules.Currency, lowStockThreshold: lowStockThreshold, now: time.Now}
	if store != nil {
		s.reports = store.Reports()
		s.products = store.Products()
	}
	if cacheStore != nil {
		s.cache = cacheStore.Namespace("dashboard")
	}
	return s
}

func clampDays(days int) int {
	switch {
	case days <= 0:
		return defaultDashboardDay
	case days > maxDashboardDays:
		return maxDashboardDays
	default:
		return days
	}
}

func (s *dashboardService) Summary(ctx context.Context, days int) (*DashboardSummary, error) {
	if s == nil || s.reports == nil || s.products == nil {
		return nil, fmt.Errorf("dashboard service not configured / 看板服务未配置")
	}
	days = clampDays(days)
	key := "summary:" + strconv.Itoa(days)
	if s.cache != nil {
		var cached DashboardSummary
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	summary, err := s.build(ctx, days)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, summary, dashboardCacheTTL)
	}
	return summary, nil
}

func (s *dashboardService) build(ctx context.Context, days int) (*DashboardSummary, error) {
	now := s.now().UTC()
	summary := &DashboardSummary{
		Currency:          s.currency,
		LowStockThreshold: s.lowStockThreshold,
		Days:              days,
		GeneratedAt:       now.Unix(),
	}

	revenue, err := s.reports.Revenue(ctx, RevenueStatuses)
	if err != nil {
		return nil, err
	}
	summary.RevenueCents = revenue
	summary.Revenue = decimal.New(revenue, -2).StringFixed(2)

	counts, err := s.reports.OrderCounts(ctx)
	if err != nil {
		return nil, err
	}
	summary.OrdersByStatus = counts
	var paidOrders int64
	for _, c := range counts {
		summary.TotalOrders += c.Count
		for _, st := range RevenueStatuses {
			if c.Status == st {
				paidOrders += c.Count
			}
		}
	}
	if paidOrders > 0 {
		summary.AverageOrderCents = decimal.NewFromInt(revenue).Div(decimal.NewFromInt(paidOrders)).Round(0).IntPart()
	}

	if summary.Customers, err = s.reports.CountCustomers(ctx); err != nil {
		return nil, err
	}
	if summary.Products, err = s.reports.CountProducts(ctx); err != nil {
		return nil, err
	}

	low, err := s.products.LowStock(ctx, s.lowStockThreshold, dashboardLowLimit)
	if err != nil {
		return nil, err
	}
	summary.LowStock = make([]*ProductStock, 0, len(low))
	for _, p := range low {
		summary.LowStock = append(summary.LowStock, &ProductStock{ID: p.ID, Name: p.Name, Stock: p.Stock})
	}
	metrics.SetLowStock(len(low))

	top, err := s.reports.TopProducts(ctx, RevenueStatuses, dashboardTopLimit)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []repository.TopProduct{}
	}
	summary.TopProducts = top

	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))
	sales, err := s.reports.DailySales(ctx, RevenueStatuses, start.Unix())
	if err != nil {
		return nil, err
	}
	summary.DailySales = fillDays(start, days, sales)
	return summary, nil
}

// fillDays 补齐没有销售的日期，保证返回连续的 days 天。
func fillDays(start time.Time, days int, sales []repository.DailySales) []repository.DailySales {
	byDay := make(map[string]repository.DailySales, len(sales))
	for _, d := range sales {
		byDay[d.Day] = d
	}
	out := make([]repository.DailySales, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		if d, ok := byDay[day]; ok {
			out = append(out, d)
			continue
		}
		out = append(out, repository.DailySales{Day: day})
	}
	return out
}
