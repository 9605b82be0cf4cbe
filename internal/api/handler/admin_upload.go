// 文件路径: internal/api/handler/admin_upload.go
// 模块说明: 后台商品图片上传（multipart 字段 file）。
package handler

import (
	"errors"
	"net/http"

	"github.com/creamcroissant/shopboard/internal/api/requestctx"
	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
)

// multipart 边界与表单字段的额外余量。
const multipartOverhead = 64 << 10

type AdminUploadHandler struct {
	uploads service.UploadService
	i18n    *i18n.Manager
}

func NewAdminUploadHandler(uploads service.UploadService, i18nMgr *i18n.Manager) *AdminUploadHandler {
	return &AdminUploadHandler{uploads: uploads, i18n: i18nMgr}
}

func (h *AdminUploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.uploads == nil {
		RespondErrorI18nAction(ctx, w, http.StatusServiceUnavailable, "admin.upload", "error.service_unavailable", h.i18n)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.uploads.MaxSize()+multipartOverhead)
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondServiceError(ctx, w, "admin.upload", service.ErrUploadTooLarge, h.i18n)
			return
		}
		RespondErrorI18nAction(ctx, w, http.StatusBadRequest, "admin.upload", "error.missing_file", h.i18n)
		return
	}
	defer file.Close()

	obj, err := h.uploads.UploadProductImage(ctx, requestctx.AdminFromContext(ctx).ID, file)
	if err != nil {
		respondServiceError(ctx, w, "admin.upload", err, h.i18n)
		return
	}
	respondData(w, http.StatusCreated, obj)
}
