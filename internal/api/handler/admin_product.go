// 文件路径: internal/api/handler/admin_product.go
// 模块说明: 后台商品管理，保存时由服务层重新计算售价与折扣。
package handler

import (
	"net/http"

	"github.com/creamcroissant/shopboard/internal/api/requestctx"
	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
)

type AdminProductHandler struct {
	products service.ProductService
	i18n     *i18n.Manager
}

func NewAdminProductHandler(products service.ProductService, i18nMgr *i18n.Manager) *AdminProductHandler {
	return &AdminProductHandler{products: products, i18n: i18nMgr}
}

type stockRequest struct {
	Delta int `json:"delta"`
}

type availabilityRequest struct {
	Available *bool `json:"available"`
}

func (h *AdminProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query, err := productQuery(r)
	if err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.product.list", "error.bad_request", h.i18n)
		return
	}
	result, err := h.products.AdminList(ctx, query)
	if err != nil {
		respondServiceError(ctx, w, "admin.product.list", err, h.i18n)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  result.Products,
		"total": result.Total,
	})
}

func (h *AdminProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.product.get", "error.bad_request", h.i18n)
		return
	}
	product, err := h.products.Get(ctx, id)
	if err != nil {
		respondServiceError(ctx, w, "admin.product.get", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, product)
}

func (h *AdminProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, 0, "admin.product.create")
}

func (h *AdminProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18nAction(r.Context(), w, http.StatusBadRequest, "admin.product.update", "error.bad_request", h.i18n)
		return
	}
	h.save(w, r, id, "admin.product.update")
}

func (h *AdminProductHandler) save(w http.ResponseWriter, r *http.Request, id int64, action string) {
	ctx := r.Context()
	var payload service.ProductSaveInput
	if err := decodeJSON(r, &payload); err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, action, "error.bad_request", h.i18n)
		return
	}
	payload.ID = id
	payload.ActorID = requestctx.AdminFromContext(ctx).ID
	product, err := h.products.Save(ctx, payload)
	if err != nil {
		respondServiceError(ctx, w, action, err, h.i18n)
		return
	}
	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	respondData(w, status, product)
}

func (h *AdminProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.product.delete", "error.bad_request", h.i18n)
		return
	}
	if err := h.products.Delete(ctx, requestctx.AdminFromContext(ctx).ID, id); err != nil {
		respondServiceError(ctx, w, "admin.product.delete", err, h.i18n)
		return
	}
	RespondSuccessI18n(ctx, w, "success.deleted", h.i18n, nil)
}

// AdjustStock 按增量调整库存，负数表示扣减。
func (h *AdminProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.product.stock", "error.bad_request", h.i18n)
		return
	}
	var payload stockRequest
	if err := decodeJSON(r, &payload); err != nil || payload.Delta == 0 {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.product.stock", "error.bad_request", h.i18n)
		return
	}
	product, err := h.products.AdjustStock(ctx, requestctx.AdminFromContext(ctx).ID, id, payload.Delta)
	if err != nil {
		respondServiceError(ctx, w, "admin.product.stock", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, product)
}

func (h *AdminProductHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.product.availability", "error.bad_request", h.i18n)
		return
	}
	var payload availabilityRequest
	if err := decodeJSON(r, &payload); err != nil || payload.Available == nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.product.availability", "error.bad_request", h.i18n)
		return
	}
	product, err := h.products.SetAvailability(ctx, requestctx.AdminFromContext(ctx).ID, id, *payload.Available)
	if err != nil {
		respondServiceError(ctx, w, "admin.product.availability", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, product)
}
