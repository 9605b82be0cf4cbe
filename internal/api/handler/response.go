// 文件路径: internal/api/handler/response.go
// 模块说明: JSON 响应与 i18n 错误文案，服务层哨兵错误在这里统一映射为 HTTP 状态码。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/creamcroissant/shopboard/internal/api/requestctx"
	"github.com/creamcroissant/shopboard/internal/payment"
	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
)

// Helper to respond with JSON
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("failed to encode response JSON", "error", err)
	}
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, map[string]any{"data": data})
}

// RespondErrorI18nAction 返回带 action 字段的翻译错误，便于前端定位是哪个操作失败。
func RespondErrorI18nAction(ctx context.Context, w http.ResponseWriter, status int, action string, key string, i18nMgr *i18n.Manager, args ...interface{}) {
	if key == "" {
		key = action
	}
	resp := map[string]any{
		"message": translate(ctx, i18nMgr, key, args...),
		"code":    key,
	}
	if action != "" {
		resp["action"] = action
	}
	respondJSON(w, status, resp)
}

// RespondErrorI18n 返回翻译后的错误文案。
func RespondErrorI18n(ctx context.Context, w http.ResponseWriter, status int, key string, i18nMgr *i18n.Manager, args ...interface{}) {
	respondJSON(w, status, map[string]any{
		"message": translate(ctx, i18nMgr, key, args...),
		"code":    key,
	})
}

// RespondSuccessI18n 返回翻译后的成功提示，可附带数据。
func RespondSuccessI18n(ctx context.Context, w http.ResponseWriter, key string, i18nMgr *i18n.Manager, data any) {
	resp := map[string]any{
		"message": translate(ctx, i18nMgr, key),
	}
	if data != nil {
		resp["data"] = data
	}
	respondJSON(w, http.StatusOK, resp)
}

func translate(ctx context.Context, i18nMgr *i18n.Manager, key string, args ...interface{}) string {
	if i18nMgr == nil {
		return key // 测试中可能未注入 manager
	}
	return i18nMgr.Translate(requestctx.GetLanguage(ctx), key, args...)
}

type errorMapping struct {
	target error
	status int
	key    string
}

// 顺序敏感：更具体的错误在前。
var serviceErrorMappings = []errorMapping{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "error.invalid_credentials"},
	{service.ErrInvalidRefreshToken, http.StatusUnauthorized, "error.invalid_refresh_token"},
	{service.ErrUnauthorized, http.StatusUnauthorized, "error.unauthorized"},
	{service.ErrRateLimited, http.StatusTooManyRequests, "error.rate_limited"},
	{service.ErrAccountDisabled, http.StatusForbidden, "error.account_disabled"},
	{service.ErrRegistrationClosed, http.StatusForbidden, "error.registration_closed"},
	{service.ErrForbidden, http.StatusForbidden, "error.forbidden"},
	{service.ErrSelfModification, http.StatusForbidden, "error.self_modification"},
	{service.ErrInvalidEmail, http.StatusBadRequest, "error.invalid_email"},
	{service.ErrInvalidPassword, http.StatusBadRequest, "error.invalid_password"},
	{service.ErrInvalidRole, http.StatusBadRequest, "error.invalid_role"},
	{service.ErrEmailExists, http.StatusConflict, "error.email_exists"},

	{service.ErrCategoryNotFound, http.StatusNotFound, "error.category_not_found"},
	{service.ErrCategoryExists, http.StatusConflict, "error.category_exists"},
	{service.ErrCategoryInUse, http.StatusConflict, "error.category_in_use"},
	{service.ErrProductNotFound, http.StatusNotFound, "error.product_not_found"},
	{service.ErrSlugExists, http.StatusConflict, "error.slug_exists"},
	{service.ErrInvalidPricing, http.StatusBadRequest, "error.invalid_pricing"},
	{service.ErrProductUnavailable, http.StatusConflict, "error.product_unavailable"},
	{service.ErrInsufficientStock, http.StatusConflict, "error.insufficient_stock"},
	{service.ErrQuantityLimit, http.StatusBadRequest, "error.quantity_limit"},
	{service.ErrCartEmpty, http.StatusBadRequest, "error.cart_empty"},

	{service.ErrAddressNotFound, http.StatusNotFound, "error.address_not_found"},
	{service.ErrAddressLimit, http.StatusConflict, "error.address_limit"},

	{service.ErrOrderNotFound, http.StatusNotFound, "error.order_not_found"},
	{service.ErrInvalidTransition, http.StatusConflict, "error.invalid_transition"},
	{service.ErrCancelWindowExpired, http.StatusConflict, "error.cancel_window_expired"},
	{service.ErrOrderConflict, http.StatusConflict, "error.order_conflict"},
	{service.ErrPaymentNotCompleted, http.StatusPaymentRequired, "error.payment_not_completed"},
	{service.ErrPaymentFailed, http.StatusBadGateway, "error.payment_failed"},
	{service.ErrRefundFailed, http.StatusBadGateway, "error.refund_failed"},
	{service.ErrTrackingNotAllowed, http.StatusConflict, "error.tracking_not_allowed"},
	{service.ErrTrackingExists, http.StatusConflict, "error.tracking_exists"},

	{service.ErrUploadTooLarge, http.StatusRequestEntityTooLarge, "error.upload_too_large"},
	{service.ErrUnsupportedMedia, http.StatusUnsupportedMediaType, "error.unsupported_media"},

	{payment.ErrInvalidSignature, http.StatusBadRequest, "error.invalid_signature"},
	{payment.ErrWebhookUnsupported, http.StatusNotFound, "error.not_found"},

	{service.ErrNotFound, http.StatusNotFound, "error.not_found"},
	{service.ErrInvalidInput, http.StatusBadRequest, "error.bad_request"},
}

// mapServiceError 返回错误对应的状态码与文案 key，未知错误按 500 处理。
func mapServiceError(err error) (int, string) {
	for _, m := range serviceErrorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.key
		}
	}
	return http.StatusInternalServerError, "error.internal_server_error"
}

// respondServiceError 把服务层错误写成 i18n 响应，5xx 时记录日志。
func respondServiceError(ctx context.Context, w http.ResponseWriter, action string, err error, i18nMgr *i18n.Manager) {
	status, key := mapServiceError(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", "action", action, "error", err)
	}
	RespondErrorI18nAction(ctx, w, status, action, key, i18nMgr)
}
