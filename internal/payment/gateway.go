// 文件路径: internal/payment/gateway.go
// 模块说明: 支付网关抽象。订单服务只依赖 Gateway，Stripe 与手动收款各自实现。
package payment

import (
	"context"
	"errors"
)

// 网关名称。
const (
	ProviderManual = "manual"
	ProviderStripe = "stripe"
)

// 支付意图状态，沿用 Stripe 的取值。
const (
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusRequiresConfirmation  = "requires_confirmation"
	StatusProcessing            = "processing"
	StatusSucceeded             = "succeeded"
	StatusCanceled              = "canceled"
)

// 网关回调事件类型。
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

var (
	// ErrIntentNotFound indicates the gateway does not know the intent.
	ErrIntentNotFound = errors.New("payment: intent not found / 支付意图不存在")
	// ErrInvalidAmount indicates a non-positive charge amount.
	ErrInvalidAmount = errors.New("payment: amount must be positive / 金额必须为正")
	// ErrInvalidSignature indicates a webhook payload failed verification.
	ErrInvalidSignature = errors.New("payment: invalid webhook signature / 回调签名无效")
	// ErrWebhookUnsupported indicates the gateway has no webhooks.
	ErrWebhookUnsupported = errors.New("payment: webhook not supported / 网关不支持回调")
	// ErrAlreadyRefunded indicates the intent's charge was refunded before.
	ErrAlreadyRefunded = errors.New("payment: already refunded / 已退款")
)

// IntentRequest describes a charge for one order.
type IntentRequest struct {
	AmountCents int64
	Currency    string
	OrderID     int64
	TradeNo     string
	Email       string
}

// Intent is the gateway-side view of a payment.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	AmountCents  int64  `json:"amount"`
	Currency     string `json:"currency"`
	TradeNo      string `json:"trade_no"`
}

// Succeeded reports whether the funds were captured.
func (i *Intent) Succeeded() bool {
	return i != nil && i.Status == StatusSucceeded
}

// Refund is the result of returning money for an intent.
type Refund struct {
	ID          string `json:"id"`
	IntentID    string `json:"intent_id"`
	AmountCents int64  `json:"amount"`
	Status      string `json:"status"`
}

// Event is a verified webhook notification.
type Event struct {
	ID     string
	Type   string
	Intent *Intent
}

// Gateway creates, inspects, cancels and refunds payment intents.
type Gateway interface {
	Name() string
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	// CancelIntent voids an intent that has not captured funds yet.
	CancelIntent(ctx context.Context, id string) (*Intent, error)
	Refund(ctx context.Context, intentID string, amountCents int64) (*Refund, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}
