// 文件路径: internal/api/handler/order.go
// 模块说明: 用户侧下单、支付确认、订单列表/详情、取消与物流查询。
package handler

import (
	"net/http"
	"strings"

	"github.com/creamcroissant/shopboard/internal/api/requestctx"
	"github.com/creamcroissant/shopboard/internal/repository"
	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
)

// OrderHandler 处理 /user/checkout 与 /user/orders。
type OrderHandler struct {
	checkout service.CheckoutService
	orders   service.OrderService
	tracking service.TrackingService
	i18n     *i18n.Manager
}

func NewOrderHandler(checkout service.CheckoutService, orders service.OrderService, tracking service.TrackingService, i18nMgr *i18n.Manager) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders, tracking: tracking, i18n: i18nMgr}
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	var payload service.CheckoutInput
	if err := decodeJSON(r, &payload); err != nil {
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	result, err := h.checkout.Checkout(ctx, claims.ID, payload)
	if err != nil {
		respondServiceError(ctx, w, "order.checkout", err, h.i18n)
		return
	}
	respondData(w, http.StatusCreated, result)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	result, err := h.orders.List(ctx, claims.ID, orderQuery(r))
	if err != nil {
		respondServiceError(ctx, w, "order.list", err, h.i18n)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  result.Orders,
		"total": result.Total,
	})
}

func (h *OrderHandler) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	detail, err := h.orders.Detail(ctx, claims.ID, id)
	if err != nil {
		respondServiceError(ctx, w, "order.detail", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, detail)
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	var payload cancelRequest
	if err := decodeJSON(r, &payload); err != nil {
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	order, err := h.orders.Cancel(ctx, claims.ID, id, payload.Reason)
	if err != nil {
		respondServiceError(ctx, w, "order.cancel", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, order)
}

// Pay 向网关查询支付状态；未完成时返回 paid=false 与 client_secret 供前端继续支付。
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	result, err := h.checkout.Pay(ctx, claims.ID, id)
	if err != nil {
		respondServiceError(ctx, w, "order.pay", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, result)
}

func (h *OrderHandler) Tracking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	items, err := h.tracking.List(ctx, claims.ID, id)
	if err != nil {
		respondServiceError(ctx, w, "order.tracking", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, items)
}

func orderQuery(r *http.Request) service.OrderQuery {
	q := service.OrderQuery{
		Status:  repository.OrderStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
		Keyword: r.URL.Query().Get("q"),
		Page:    queryPage(r),
	}
	if from := queryInt64(r, "from"); from != nil {
		q.From = *from
	}
	if to := queryInt64(r, "to"); to != nil {
		q.To = *to
	}
	return q
}
