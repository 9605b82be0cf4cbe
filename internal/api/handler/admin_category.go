// 文件路径: internal/api/handler/admin_category.go
// 模块说明: 后台分类管理，删除仍被商品引用的分类返回 409。
package handler

import (
	"net/http"

	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
)

type AdminCategoryHandler struct {
	categories service.CategoryService
	i18n       *i18n.Manager
}

func NewAdminCategoryHandler(categories service.CategoryService, i18nMgr *i18n.Manager) *AdminCategoryHandler {
	return &AdminCategoryHandler{categories: categories, i18n: i18nMgr}
}

type sortRequest struct {
	IDs []int64 `json:"ids"`
}

func (h *AdminCategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := h.categories.List(ctx, false)
	if err != nil {
		respondServiceError(ctx, w, "admin.category.list", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, items)
}

func (h *AdminCategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload service.CategorySaveInput
	if err := decodeJSON(r, &payload); err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.category.create", "error.bad_request", h.i18n)
		return
	}
	payload.ID = 0
	category, err := h.categories.Save(ctx, payload)
	if err != nil {
		respondServiceError(ctx, w, "admin.category.create", err, h.i18n)
		return
	}
	respondData(w, http.StatusCreated, category)
}

func (h *AdminCategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.category.update", "error.bad_request", h.i18n)
		return
	}
	var payload service.CategorySaveInput
	if err := decodeJSON(r, &payload); err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.category.update", "error.bad_request", h.i18n)
		return
	}
	payload.ID = id
	category, err := h.categories.Save(ctx, payload)
	if err != nil {
		respondServiceError(ctx, w, "admin.category.update", err, h.i18n)
		return
	}
	respondData(w, http.StatusOK, category)
}

func (h *AdminCategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.category.delete", "error.bad_request", h.i18n)
		return
	}
	if err := h.categories.Delete(ctx, id); err != nil {
		respondServiceError(ctx, w, "admin.category.delete", err, h.i18n)
		return
	}
	RespondSuccessI18n(ctx, w, "success.deleted", h.i18n, nil)
}

func (h *AdminCategoryHandler) Sort(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload sortRequest
	if err := decodeJSON(r, &payload); err != nil || len(payload.IDs) == 0 {
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.category.sort", "error.bad_request", h.i18n)
		return
	}
	if err := h.categories.Sort(ctx, payload.IDs); err != nil {
		respondServiceError(ctx, w, "admin.category.sort", err, h.i18n)
		return
	}
	RespondSuccessI18n(ctx, w, "success.saved", h.i18n, nil)
}
