// 文件路径: internal/service/order_workflow.go
// 模块说明: 订单状态流转的公共流程：校验状态机、取消已支付订单先退款、写状态日志、失效商品缓存、通知顾客、审计与指标。
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/creamcroissant/shopboard/internal/cache"
	"github.com/creamcroissant/shopboard/internal/metrics"
	"github.com/creamcroissant/shopboard/internal/notifier"
	"github.com/creamcroissant/shopboard/internal/payment"
	"github.com/creamcroissant/shopboard/internal/repository"
	"github.com/creamcroissant/shopboard/internal/security"
	"github.com/creamcroissant/shopboard/internal/support/logging"
)

// OrderDeps 汇总订单、结算与物流服务共用的依赖。
type OrderDeps struct {
	Store    repository.Store
	Gateway  payment.Gateway
	Notifier notifier.Service
	Audit    security.Recorder
	Cache    cache.Store
	Logger   *slog.Logger
	Rules    PricingRules
	// CancelWindow 是顾客可自行取消订单的时长，默认 12 小时。
	CancelWindow time.Duration
	// PendingTTL 是未支付订单自动取消的时长，默认 24 小时。
	PendingTTL time.Duration
}

const (
	defaultCancelWindow = 12 * time.Hour
	defaultPendingTTL   = 24 * time.Hour
	// 超过该时长的退款占有视为进程中断遗留，可以再次取消，网关退款按意图幂等。
	refundClaimStale = 10 * time.Minute
)

type orderWorkflow struct {
	orders    repository.OrderRepository
	users     repository.UserRepository
	trackings repository.TrackingRepository
	gateway   payment.Gateway
	notifier  notifier.Service
	audit     security.Recorder
	cache     *productCache
	logger    *slog.Logger
	now       func() time.Time
}

func newOrderWorkflow(deps OrderDeps) *orderWorkflow {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	w := &orderWorkflow{
		gateway:  deps.Gateway,
		notifier: deps.Notifier,
		audit:    deps.Audit,
		cache:    newProductCache(deps.Cache),
		logger:   logger.With("component", "orders"),
		now:      time.Now,
	}
	if deps.Store != nil {
		w.orders = deps.Store.Orders()
		w.users = deps.Store.Users()
		w.trackings = deps.Store.Trackings()
	}
	return w
}

type transitionRequest struct {
	To              repository.OrderStatus
	ActorType       string
	ActorID         int64
	Reason          string
	PaidAmountCents int64
	Tracking        *repository.Tracking
}

func (w *orderWorkflow) load(ctx context.Context, orderID int64) (*repository.Order, error) {
	order, err := w.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// loadOwned 读取属于 userID 的订单，别人的订单同样返回 ErrOrderNotFound。
func (w *orderWorkflow) loadOwned(ctx context.Context, userID, orderID int64) (*repository.Order, error) {
	order, err := w.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (w *orderWorkflow) transition(ctx context.Context, order *repository.Order, req transitionRequest) (*repository.Order, error) {
	if !CanTransition(order.Status, req.To) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, req.To)
	}
	now := w.now().Unix()

	// 先占有订单再退款，占有期间发货或重复取消都会失败
	claimed := false
	if req.To == repository.OrderCancelled && order.Status == repository.OrderPaid && hasCapturedPayment(order) {
		if err := w.claimRefund(ctx, order, now); err != nil {
			return nil, err
		}
		if err := w.refund(ctx, order); err != nil {
			if relErr := w.orders.ReleaseRefund(ctx, order.ID); relErr != nil {
				w.logger.ErrorContext(ctx, "release refund claim failed", "order_id", order.ID, "error", relErr)
			}
			return nil, err
		}
		claimed = true
	}

	err := w.orders.Transition(ctx, repository.OrderTransition{
		OrderID:         order.ID,
		From:            order.Status,
		To:              req.To,
		Restock:         req.To == repository.OrderCancelled,
		PaidAmountCents: req.PaidAmountCents,
		Reason:          req.Reason,
		Log: repository.OrderStatusLog{
			ActorType: req.ActorType,
			ActorID:   req.ActorID,
		},
		At:            now,
		RefundClaimed: claimed,
		Tracking:      req.Tracking,
	})
	if err != nil {
		if claimed {
			// 占有保留，已退款的订单不会再进入发货
			w.logger.ErrorContext(ctx, "refunded order left uncancelled", "order_id", order.ID, "trade_no", order.TradeNo, "error", err)
		}
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrOrderNotFound
		case errors.Is(err, repository.ErrDuplicateTracking):
			return nil, ErrTrackingExists
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrOrderConflict
		}
		return nil, err
	}

	if req.To == repository.OrderCancelled {
		ids := make([]int64, 0, len(order.Items))
		for _, item := range order.Items {
			ids = append(ids, item.ProductID)
		}
		w.cache.invalidate(ctx, ids...)
		if order.Status == repository.OrderPending {
			w.releaseIntent(ctx, order)
		}
	}
	metrics.OrderTransition(string(req.To), req.ActorType)
	w.logger.InfoContext(ctx, "order status changed",
		"order_id", order.ID,
		"trade_no", order.TradeNo,
		"from", order.Status,
		"to", req.To,
		"actor", req.ActorType,
		"actor_id", req.ActorID,
	)
	if w.audit != nil {
		w.audit.Record(ctx, security.Event{
			Kind:    security.EventOrderStatus,
			ActorID: req.ActorType + ":" + strconv.FormatInt(req.ActorID, 10),
			Metadata: map[string]any{
				"order_id": order.ID,
				"from":     string(order.Status),
				"to":       string(req.To),
				"reason":   req.Reason,
			},
		})
	}

	updated, err := w.load(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	w.notifyStatus(ctx, updated, req.Reason)
	return updated, nil
}

func hasCapturedPayment(order *repository.Order) bool {
	return order.PaymentIntentID != "" && order.PaidAmountCents > 0
}

func (w *orderWorkflow) claimRefund(ctx context.Context, order *repository.Order, now int64) error {
	staleBefore := now - int64(refundClaimStale/time.Second)
	err := w.orders.ClaimRefund(ctx, order.ID, order.Status, now, staleBefore)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrOrderNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrOrderConflict
	}
	return err
}

// refund 对已支付订单原路退款，失败时订单保持不变。
func (w *orderWorkflow) refund(ctx context.Context, order *repository.Order) error {
	if w.gateway == nil {
		return fmt.Errorf("%w: payment gateway not configured / 支付网关未配置", ErrRefundFailed)
	}
	_, err := w.gateway.Refund(ctx, order.PaymentIntentID, order.PaidAmountCents)
	if errors.Is(err, payment.ErrAlreadyRefunded) {
		return nil
	}
	metrics.RefundIssued(w.gateway.Name(), err)
	if err != nil {
		w.logger.ErrorContext(ctx, "refund failed", "order_id", order.ID, "intent", order.PaymentIntentID, "error", err)
		return fmt.Errorf("%w: %v", ErrRefundFailed, err)
	}
	return nil
}

// releaseIntent 作废已取消订单的支付意图，顾客在取消前已完成付款时原路退款。
func (w *orderWorkflow) releaseIntent(ctx context.Context, order *repository.Order) {
	if w.gateway == nil || order.PaymentIntentID == "" {
		return
	}
	_, err := w.gateway.CancelIntent(ctx, order.PaymentIntentID)
	if err == nil || errors.Is(err, payment.ErrIntentNotFound) {
		return
	}
	intent, getErr := w.gateway.GetIntent(ctx, order.PaymentIntentID)
	if getErr != nil || !intent.Succeeded() {
		w.logger.WarnContext(ctx, "cancel payment intent failed", "order_id", order.ID, "intent", order.PaymentIntentID, "error", err)
		return
	}
	// 失败时由网关回调再次尝试
	_ = w.refundCaptured(ctx, order, intent)
}

// refundCaptured 退回已取消订单上到账的付款。
func (w *orderWorkflow) refundCaptured(ctx context.Context, order *repository.Order, intent *payment.Intent) error {
	if w.gateway == nil {
		return fmt.Errorf("%w: payment gateway not configured / 支付网关未配置", ErrRefundFailed)
	}
	amount := intent.AmountCents
	if amount <= 0 {
		amount = order.TotalCents
	}
	_, err := w.gateway.Refund(ctx, intent.ID, amount)
	if errors.Is(err, payment.ErrAlreadyRefunded) {
		return nil
	}
	metrics.RefundIssued(w.gateway.Name(), err)
	if err != nil {
		w.logger.ErrorContext(ctx, "refund for cancelled order failed", "order_id", order.ID, "intent", intent.ID, "error", err)
		return fmt.Errorf("%w: %v", ErrRefundFailed, err)
	}
	w.logger.WarnContext(ctx, "payment for cancelled order refunded",
		"order_id", order.ID,
		"trade_no", order.TradeNo,
		"intent", intent.ID,
		"amount", amount,
	)
	if w.audit != nil {
		w.audit.Record(ctx, security.Event{
			Kind:    security.EventOrderRefunded,
			ActorID: repository.ActorSystem + ":0",
			Metadata: map[string]any{
				"order_id": order.ID,
				"intent":   intent.ID,
				"amount":   amount,
				"status":   string(order.Status),
			},
		})
	}
	return nil
}

func (w *orderWorkflow) notifyStatus(ctx context.Context, order *repository.Order, reason string) {
	if w.notifier == nil || w.users == nil {
		return
	}
	user, err := w.users.FindByID(ctx, order.UserID)
	if err != nil {
		w.logger.WarnContext(ctx, "order notification skipped", "order_id", order.ID, "error", err)
		return
	}
	req := notifier.EmailRequest{
		To:       user.Email,
		Subject:  fmt.Sprintf("Order %s is now %s", order.TradeNo, order.Status),
		Template: notifier.TemplateOrderStatus,
		Variables: map[string]any{
			"name":     user.Name,
			"trade_no": order.TradeNo,
			"status":   string(order.Status),
			"total":    order.TotalCents,
			"currency": order.Currency,
			"reason":   reason,
		},
	}
	if err := w.notifier.SendEmail(ctx, req); err != nil {
		w.logger.WarnContext(ctx, "order notification failed", "order_id", order.ID, "error", err)
	}
}
