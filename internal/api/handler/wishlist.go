// 文件路径: internal/api/handler/wishlist.go
// 模块说明: 心愿单接口，重复添加幂等，可一键移入购物车。
package handler

import (
	"net/http"

	"github.com/creamcroissant/shopboard/internal/api/requestctx"
	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
)

type WishlistHandler struct {
	wishlist service.WishlistService
	i18n     *i18n.Manager
}

func NewWishlistHandler(wishlist service.WishlistService, i18nMgr *i18n.Manager) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist, i18n: i18nMgr}
}

type wishlistAddRequest struct {
	ProductID int64 `json:"product_id"`
}

func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	items, err := h.wishlist.List(ctx, claims.ID)
	if err != nil {
		respondServiceError(ctx, w, "wishlist.list", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, items)
}

// Add 支持 POST /wishlist {product_id} 与 POST /wishlist/{product_id} 两种写法。
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := requestctx.UserFromContext(ctx)
	if !claims.Authenticated() {
		RespondErrorI18n(ctx, w, http.StatusUnauthorized, "error.unauthorized", h.i18n)
		return
	}
	productID, err := pathID(r, "productID")
	if err != nil {
		var payload wishlistAddRequest
		if decodeErr := decodeJSON(r, &payload); decodeErr != nil || payload.ProductID <= 0 {
			RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
			return
		}
		productID = payload.ProductID
	}
	if err := h.wishlist.Add(ctx, claims.ID, productID); err != nil {
		respondServiceError(ctx, w, "wishlist.add", err, h.i18n)
		return
	}
	items, err := h.wishlist.List(ctx, claims.ID)
	if err != nil {
		respondServiceError(ctx, w, "wishlist.add", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, items)
}

func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
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
	if err := h.wishlist.Remove(ctx, claims.ID, productID); err != nil {
		respondServiceError(ctx, w, "wishlist.remove", err, h.i18n)
		return
	}
	RespondSuccessI18n(ctx, w, "success.deleted", h.i18n, nil)
}

func (h *WishlistHandler) MoveToCart(w http.ResponseWriter, r *http.Request) {
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
	cart, err := h.wishlist.MoveToCart(ctx, claims.ID, productID)
	if err != nil {
		respondServiceError(ctx, w, "wishlist.move_to_cart", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, cart)
}
