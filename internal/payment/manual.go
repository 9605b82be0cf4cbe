// 文件路径: internal/payment/manual.go
// 模块说明: 手动收款网关，意图保存在缓存中，确认即视为到账，适用于货到付款与本地开发。
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/creamcroissant/shopboard/internal/cache"
)

type manualGateway struct {
	store cache.Store
	ttl   time.Duration
}

// NewManualGateway stores intents in the given cache for ttl.
func NewManualGateway(store cache.Store, ttl time.Duration) (Gateway, error) {
	if store == nil {
		return nil, errors.New("manual gateway requires cache store / 手动收款需要缓存存储")
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &manualGateway{store: store.Namespace("payment:manual"), ttl: ttl}, nil
}

func (g *manualGateway) Name() string { return ProviderManual }

func (g *manualGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if req.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	id := "manual_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	intent := &Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       StatusSucceeded,
		AmountCents:  req.AmountCents,
		Currency:     strings.ToLower(req.Currency),
		TradeNo:      req.TradeNo,
	}
	if err := g.store.SetJSON(ctx, id, intent, g.ttl); err != nil {
		return nil, fmt.Errorf("store manual intent / 保存支付意图失败: %w", err)
	}
	return intent, nil
}

func (g *manualGateway) GetIntent(ctx context.Context, id string) (*Intent, error) {
	var intent Intent
	ok, err := g.store.GetJSON(ctx, strings.TrimSpace(id), &intent)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrIntentNotFound
	}
	return &intent, nil
}

func (g *manualGateway) CancelIntent(ctx context.Context, id string) (*Intent, error) {
	intent, err := g.GetIntent(ctx, id)
	if err != nil {
		return nil, err
	}
	intent.Status = StatusCanceled
	if err := g.store.SetJSON(ctx, intent.ID, intent, g.ttl); err != nil {
		return nil, err
	}
	return intent, nil
}

func (g *manualGateway) Refund(ctx context.Context, intentID string, amountCents int64) (*Refund, error) {
	intent, err := g.GetIntent(ctx, intentID)
	if err != nil && !errors.Is(err, ErrIntentNotFound) {
		return nil, err
	}
	if amountCents <= 0 && intent != nil {
		amountCents = intent.AmountCents
	}
	if intent != nil {
		intent.Status = StatusCanceled
		if err := g.store.SetJSON(ctx, intent.ID, intent, g.ttl); err != nil {
			return nil, err
		}
	}
	return &Refund{
		ID:          "manual_re_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		IntentID:    intentID,
		AmountCents: amountCents,
		Status:      StatusSucceeded,
	}, nil
}

func (g *manualGateway) ParseWebhook([]byte, string) (*Event, error) {
	return nil, ErrWebhookUnsupported
}
