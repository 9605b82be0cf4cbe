// 文件路径: internal/api/handler/payment.go
// 模块说明: 支付网关回调入口，签名校验后由 CheckoutService 处理。
package handler

import (
	"io"
	"net/http"

	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
)

// Stripe 回调体积上限与官方 SDK 示例一致。
const maxWebhookBytes = 65536

type PaymentWebhookHandler struct {
	checkout service.CheckoutService
	i18n     *i18n.Manager
}

func NewPaymentWebhookHandler(checkout service.CheckoutService, i18nMgr *i18n.Manager) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{checkout: checkout, i18n: i18nMgr}
}

func (h *PaymentWebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		RespondErrorI18n(ctx, w, http.StatusServiceUnavailable, "error.service_unavailable", h.i18n)
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}
	if err := h.checkout.HandleWebhook(ctx, payload, r.Header.Get("Stripe-Signature")); err != nil {
		respondServiceError(ctx, w, "payment.webhook", err, h.i18n)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"received": true})
}
