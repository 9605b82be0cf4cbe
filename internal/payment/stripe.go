// 文件路径: internal/payment/stripe.go
// 模块说明: Stripe PaymentIntent 网关，负责创建意图、查询状态、退款与回调验签。
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Cancel(id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

type refundAPI interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

// StripeOptions configures the Stripe gateway.
type StripeOptions struct {
	SecretKey     string
	WebhookSecret string
}

type stripeGateway struct {
	intents       intentAPI
	refunds       refundAPI
	webhookSecret string
}

// NewStripeGateway builds a gateway backed by the Stripe API.
func NewStripeGateway(opts StripeOptions) (Gateway, error) {
	key := strings.TrimSpace(opts.SecretKey)
	if key == "" {
		return nil, errors.New("stripe secret key is required / 缺少 Stripe 密钥")
	}
	sc := &client.API{}
	sc.Init(key, nil)
	return &stripeGateway{
		intents:       sc.PaymentIntents,
		refunds:       sc.Refunds,
		webhookSecret: strings.TrimSpace(opts.WebhookSecret),
	}, nil
}

func (g *stripeGateway) Name() string { return ProviderStripe }

func (g *stripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if req.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Email != "" {
		params.ReceiptEmail = stripe.String(req.Email)
	}
	params.Context = ctx
	params.AddMetadata("trade_no", req.TradeNo)
	params.AddMetadata("order_id", strconv.FormatInt(req.OrderID, 10))
	params.SetIdempotencyKey("intent-" + req.TradeNo)

	pi, err := g.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create intent / 创建支付意图失败: %w", err)
	}
	return fromStripeIntent(pi), nil
}

func (g *stripeGateway) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.intents.Get(strings.TrimSpace(id), params)
	if err != nil {
		if stripeCode(err) == stripe.ErrorCodeResourceMissing {
			return nil, ErrIntentNotFound
		}
		return nil, fmt.Errorf("stripe get intent / 查询支付意图失败: %w", err)
	}
	return fromStripeIntent(pi), nil
}

func (g *stripeGateway) CancelIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	params.Context = ctx
	pi, err := g.intents.Cancel(strings.TrimSpace(id), params)
	if err != nil {
		if stripeCode(err) == stripe.ErrorCodeResourceMissing {
			return nil, ErrIntentNotFound
		}
		return nil, fmt.Errorf("stripe cancel intent / 取消支付意图失败: %w", err)
	}
	return fromStripeIntent(pi), nil
}

func (g *stripeGateway) Refund(ctx context.Context, intentID string, amountCents int64) (*Refund, error) {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(intentID)}
	if amountCents > 0 {
		params.Amount = stripe.Int64(amountCents)
	}
	params.Context = ctx
	params.SetIdempotencyKey("refund-" + intentID)
	r, err := g.refunds.New(params)
	if err != nil {
		if stripeCode(err) == stripe.ErrorCodeChargeAlreadyRefunded {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyRefunded, intentID)
		}
		return nil, fmt.Errorf("stripe refund / 退款失败: %w", err)
	}
	return &Refund{
		ID:          r.ID,
		IntentID:    intentID,
		AmountCents: r.Amount,
		Status:      string(r.Status),
	}, nil
}

func (g *stripeGateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if g.webhookSecret == "" {
		return nil, ErrWebhookUnsupported
	}
	evt, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") && evt.Data != nil {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent event / 解析回调失败: %w", err)
		}
		out.Intent = fromStripeIntent(&pi)
	}
	return out, nil
}

func fromStripeIntent(pi *stripe.PaymentIntent) *Intent {
	if pi == nil {
		return nil
	}
	intent := &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
	}
	if pi.Metadata != nil {
		intent.TradeNo = pi.Metadata["trade_no"]
	}
	return intent
}

func stripeCode(err error) stripe.ErrorCode {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.Code
	}
	return ""
}
