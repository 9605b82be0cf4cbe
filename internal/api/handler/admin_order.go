// 文件路径: internal/api/handler/admin_order.go
// 模块说明: 后台订单：检索、详情、状态流转、取消与物流单维护。
package handler

import (
	"net/http"
	"strings"

	"github.com/creamcroissant/shopboard/internal/api/requestctx"
	"github.com/creamcroissant/shopboard/internal/repository"
	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
)

type AdminOrderHandler struct {
	orders   service.OrderService
	tracking service.TrackingService
	i18n     *i18n.Manager
}

func NewAdminOrderHandler(orders service.OrderService, tracking service.TrackingService, i18nMgr *i18n.Manager) *AdminOrderHandler {
	return &AdminOrderHandler{orders: orders, tracking: tracking, i18n: i18nMgr}
}

type transitionRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h *AdminOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.orders.AdminList(ctx, orderQuery(r))
	if err != nil {
		respondServiceError(ctx, w, "admin.order.list", err, h.i18n)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  result.Orders,
		"total": result.Total,
	})
}

func (h *AdminOrderHandler) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.order.detail", "error.bad_request", h.i18n)
		return
	}
	detail, err := h.orders.AdminDetail(ctx, id)
	if err != nil {
		respondServiceError(ctx, w, "admin.order.detail", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, detail)
}

// Transition 把订单推进到目标状态，目标为 Cancelled 时同样回补库存并退款。
func (h *AdminOrderHandler) Transition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.order.status", "error.bad_request", h.i18n)
		return
	}
	var payload transitionRequest
	if err := decodeJSON(r, &payload); err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.order.status", "error.bad_request", h.i18n)
		return
	}
	to := repository.OrderStatus(strings.TrimSpace(payload.Status))
	if !to.Valid() {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.order.status", "error.invalid_status", h.i18n)
		return
	}
	order, err := h.orders.AdminTransition(ctx, requestctx.AdminFromContext(ctx).ID, id, to, payload.Reason)
	if err != nil {
		respondServiceError(ctx, w, "admin.order.status", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, order)
}

func (h *AdminOrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.order.cancel", "error.bad_request", h.i18n)
		return
	}
	var payload cancelRequest
	if err := decodeJSON(r, &payload); err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.order.cancel", "error.bad_request", h.i18n)
		return
	}
	order, err := h.orders.AdminCancel(ctx, requestctx.AdminFromContext(ctx).ID, id, payload.Reason)
	if err != nil {
		respondServiceError(ctx, w, "admin.order.cancel", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, order)
}

func (h *AdminOrderHandler) ListTracking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.order.tracking", "error.bad_request", h.i18n)
		return
	}
	items, err := h.tracking.AdminList(ctx, id)
	if err != nil {
		respondServiceError(ctx, w, "admin.order.tracking", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, items)
}

// AddTracking 仅允许 Paid/OnRoute 订单，Paid 订单会随之进入 OnRoute。
func (h *AdminOrderHandler) AddTracking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.order.tracking.add", "error.bad_request", h.i18n)
		return
	}
	var payload service.TrackingInput
	if err := decodeJSON(r, &payload); err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.order.tracking.add", "error.bad_request", h.i18n)
		return
	}
	record, err := h.tracking.Add(ctx, requestctx.AdminFromContext(ctx).ID, id, payload)
	if err != nil {
		respondServiceError(ctx, w, "admin.order.tracking.add", err, h.i18n)
		return
	}
	respondData(w, http.StatusCreated, record)
}

func (h *AdminOrderHandler) DeleteTracking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.order.tracking.delete", "error.bad_request", h.i18n)
		return
	}
	trackingID, err := pathID(r, "trackingID")
	if err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.order.tracking.delete", "error.bad_request", h.i18n)
		return
	}
	if err := h.tracking.Delete(ctx, requestctx.AdminFromContext(ctx).ID, id, trackingID); err != nil {
		respondServiceError(ctx, w, "admin.order.tracking.delete", err, h.i18n)
		return
	}
	RespondSuccessI18n(ctx, w, "success.deleted", h.i18n, nil)
}
