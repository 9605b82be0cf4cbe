// 文件路径: internal/api/handler/cart.go
// 模块说明: 购物车接口：查看、加购、改数量、删除与清空。
package handler

import (
	"net/http"

	"github.com/creamcroissant/shopboard/internal/api/requestctx"
	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
)

type CartHandler struct {
	cart service.CartService
	i18n *i18n.Manager
}

func NewCartHandler(cart service.CartService, i18nMgr *i18n.Manager) *CartHandler {
	return &CartHandler{cart: cart, i18n: i18nMgr}
}

type cartLineRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	view, err := h.cart.View(ctx, claims.ID)
	if err != nil {
		respondServiceError(ctx, w, "cart.view", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, view)
}

// Add 累加数量，未传 quantity 时按 1 处理。
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	var payload cartLineRequest
	if err := decodeJSON(r, &payload); err != nil || payload.ProductID <= 0 {
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	if payload.Quantity == 0 {
		payload.Quantity = 1
	}
	view, err := h.cart.Add(ctx, claims.ID, payload.ProductID, payload.Quantity)
	if err != nil {
		respondServiceError(ctx, w, "cart.add", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, view)
}

// SetQuantity 把数量设为给定值，0 表示删除该行。
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	productID, err := pathID(r, "productID")
	if err != nil {
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	var payload cartLineRequest
	if err := decodeJSON(r, &payload); err != nil {
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	view, err := h.cart.SetQuantity(ctx, claims.ID, productID, payload.Quantity)
	if err != nil {
		respondServiceError(ctx, w, "cart.set_quantity", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, view)
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	productID, err := pathID(r, "productID")
	if err != nil {
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	view, err := h.cart.Remove(ctx, claims.ID, productID)
	if err != nil {
		respondServiceError(ctx, w, "cart.remove", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, view)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	if err := h.cart.Clear(ctx, claims.ID); err != nil {
		respondServiceError(ctx, w, "cart.clear", err, h.i18n)
		return
	}
	RespondSuccessI18n(ctx, w, "success.cart_cleared", h.i18n, nil)
}
