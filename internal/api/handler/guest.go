// 文件路径: internal/api/handler/guest.go
// 模块说明: 游客可访问的分类与商品浏览接口。
package handler

import (
	"net/http"
	"strings"

	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
	"github.com/shopspring/decimal"
)

// GuestHandler 提供匿名可访问的商品目录。
type GuestHandler struct {
	categories service.CategoryService
	products   service.ProductService
	i18n       *i18n.Manager
}

func NewGuestHandler(categories service.CategoryService, products service.ProductService, i18nMgr *i18n.Manager) *GuestHandler {
	return &GuestHandler{categories: categories, products: products, i18n: i18nMgr}
}

// Categories 仅返回前台可见的分类。
func (h *GuestHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.categories == nil {
		RespondErrorI18n(ctx, w, http.StatusServiceUnavailable, "error.service_unavailable", h.i18n)
		return
	}
	items, err := h.categories.List(ctx, true)
	if err != nil {
		respondServiceError(ctx, w, "guest.categories", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, items)
}

func (h *GuestHandler) Products(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		RespondErrorI18n(ctx, w, http.StatusServiceUnavailable, "error.service_unavailable", h.i18n)
		return
	}
	query, err := productQuery(r)
	if err != nil {
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	result, err := h.products.List(ctx, query)
	if err != nil {
		respondServiceError(ctx, w, "guest.products", err, h.i18n)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  result.Products,
		"total": result.Total,
	})
}

func (h *GuestHandler) Product(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		RespondErrorI18n(ctx, w, http.StatusServiceUnavailable, "error.service_unavailable", h.i18n)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	view, err := h.products.Detail(ctx, id)
	if err != nil {
		respondServiceError(ctx, w, "guest.product", err, h.i18n)
		return
	}
	etag := productETag(view)
	w.Header().Set("ETag", etag)
	if etagMatches(r, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	respondData(w, http.StatusOK, view)
}

// productQuery 解析列表筛选；min_price/max_price 以元为单位（如 12.50）。
func productQuery(r *http.Request) (service.ProductQuery, error) {
	q := r.URL.Query()
	query := service.ProductQuery{
		CategoryID: queryInt64(r, "category"),
		Keyword:    q.Get("q"),
		Tag:        q.Get("tag"),
		Sort:       strings.TrimSpace(q.Get("sort")),
		Page:       queryPage(r),
	}
	if available := queryBool(r, "available"); available != nil {
		query.OnlyAvailable = *available
	}
	var err error
	if query.MinPriceCents, err = queryCents(q.Get("min_price")); err != nil {
		return query, err
	}
	if query.MaxPriceCents, err = queryCents(q.Get("max_price")); err != nil {
		return query, err
	}
	return query, nil
}

func queryCents(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	cents := d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return &cents, nil
}
