// 文件路径: internal/service/checkout.go
// 模块说明: 结算与支付：购物车下单、创建支付意图、确认支付以及处理网关回调。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/creamcroissant/shopboard/internal/metrics"
	"github.com/creamcroissant/shopboard/internal/payment"
	"github.com/creamcroissant/shopboard/internal/repository"
)

const maxOrderNoteLength = 500

// CheckoutService turns a cart into an order and settles its payment.
type CheckoutService interface {
	Checkout(ctx context.Context, userID int64, input CheckoutInput) (*CheckoutResult, error)
	Pay(ctx context.Context, userID, orderID int64) (*PayResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// CheckoutInput 是结算请求。
type CheckoutInput struct {
	AddressID int64  `json:"address_id"`
	Note      string `json:"note"`
}

// CheckoutResult 返回新订单与前端完成支付所需的 client_secret。
type CheckoutResult struct {
	Order           *repository.Order `json:"order"`
	PaymentProvider string            `json:"payment_provider"`
	PaymentIntentID string            `json:"payment_intent_id"`
	ClientSecret    string            `json:"client_secret"`
}

// PayResult 描述确认支付的结果。Paid 为 false 时顾客仍需在前端完成支付。
type PayResult struct {
	Order         *repository.Order `json:"order"`
	Paid          bool              `json:"paid"`
	PaymentStatus string            `json:"payment_status"`
	ClientSecret  string            `json:"client_secret,omitempty"`
}

type checkoutService struct {
	*orderWorkflow
	carts     repository.CartRepository
	products  repository.ProductRepository
	addresses repository.AddressRepository
	rules     PricingRules
}

// NewCheckoutService wires checkout and payment confirmation.
func NewCheckoutService(deps OrderDeps) CheckoutService {
	s := &checkoutService{orderWorkflow: newOrderWorkflow(deps), rules: deps.Rules}
	if deps.Store != nil {
		s.carts = deps.Store.Carts()
		s.products = deps.Store.Products()
		s.addresses = deps.Store.Addresses()
	}
	return s
}

func (s *checkoutService) ready() error {
	if s == nil || s.orders == nil || s.carts == nil || s.products == nil || s.addresses == nil || s.gateway == nil {
		return fmt.Errorf("checkout service not configured / 结算服务未配置")
	}
	return nil
}

func newTradeNo() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func (s *checkoutService) Checkout(ctx context.Context, userID int64, input CheckoutInput) (*CheckoutResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	address, err := s.addresses.FindByID(ctx, userID, input.AddressID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	note := stripTags(input.Note)
	if len(note) > maxOrderNoteLength {
		return nil, fmt.Errorf("%w: note / 备注过长", ErrInvalidInput)
	}

	items, err := s.carts.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	view, err := buildCartView(ctx, s.products, s.rules, items)
	if err != nil {
		return nil, err
	}
	if len(view.Lines) == 0 {
		return nil, ErrCartEmpty
	}
	if !view.Purchasable {
		for _, line := range view.Lines {
			if line.Available {
				continue
			}
			if line.Stock > 0 && line.Quantity > line.Stock {
				return nil, fmt.Errorf("%w: product %d", ErrInsufficientStock, line.ProductID)
			}
			return nil, fmt.Errorf("%w: product %d", ErrProductUnavailable, line.ProductID)
		}
	}

	now := s.now().Unix()
	order := &repository.Order{
		TradeNo:         newTradeNo(),
		UserID:          userID,
		Status:          repository.OrderPending,
		SubtotalCents:   view.SubtotalCents,
		ShippingCents:   view.ShippingCents,
		TotalCents:      view.TotalCents,
		Currency:        s.rules.Currency,
		PaymentProvider: s.gateway.Name(),
		ShippingAddress: address.Snapshot(),
		Note:            note,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	productIDs := make([]int64, 0, len(view.Lines))
	for _, line := range view.Lines {
		order.Items = append(order.Items, repository.OrderItem{
			ProductID:      line.ProductID,
			ProductName:    line.Name,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
			LineTotalCents: line.LineTotalCents,
		})
		productIDs = append(productIDs, line.ProductID)
	}

	placed, err := s.orders.Place(ctx, order, repository.OrderStatusLog{
		ToStatus:  repository.OrderPending,
		ActorType: repository.ActorUser,
		ActorID:   userID,
		Reason:    "checkout",
		CreatedAt: now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, fmt.Errorf("%w: %v", ErrInsufficientStock, err)
		}
		return nil, err
	}
	s.cache.invalidate(ctx, productIDs...)
	metrics.OrderPlaced()
	s.logger.InfoContext(ctx, "order placed", "order_id", placed.ID, "trade_no", placed.TradeNo, "user_id", userID, "total", placed.TotalCents)

	result := &CheckoutResult{Order: placed, PaymentProvider: s.gateway.Name()}
	intent, err := s.createIntent(ctx, placed)
	if err != nil {
		// 订单已落库，顾客稍后可通过 pay 接口重新创建支付意图。
		s.logger.WarnContext(ctx, "create payment intent failed", "order_id", placed.ID, "error", err)
	} else {
		result.PaymentIntentID = intent.ID
		result.ClientSecret = intent.ClientSecret
	}
	s.notifyStatus(ctx, placed, "checkout")
	return result, nil
}

func (s *checkoutService) createIntent(ctx context.Context, order *repository.Order) (*payment.Intent, error) {
	email := ""
	if s.users != nil {
		if user, err := s.users.FindByID(ctx, order.UserID); err == nil {
			email = user.Email
		}
	}
	intent, err := s.gateway.CreateIntent(ctx, payment.IntentRequest{
		AmountCents: order.TotalCents,
		Currency:    order.Currency,
		OrderID:     order.ID,
		TradeNo:     order.TradeNo,
		Email:       email,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	if err := s.orders.SetPaymentIntent(ctx, order.ID, s.gateway.Name(), intent.ID, s.now().Unix()); err != nil {
		return nil, err
	}
	order.PaymentProvider = s.gateway.Name()
	order.PaymentIntentID = intent.ID
	return intent, nil
}

func (s *checkoutService) Pay(ctx context.Context, userID, orderID int64) (*PayResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	order, err := s.loadOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case repository.OrderPending:
	case repository.OrderCancelled:
		return nil, fmt.Errorf("%w: order cancelled", ErrInvalidTransition)
	default:
		return &PayResult{Order: order, Paid: true, PaymentStatus: payment.StatusSucceeded}, nil
	}

	var intent *payment.Intent
	if order.PaymentIntentID == "" {
		intent, err = s.createIntent(ctx, order)
	} else {
		intent, err = s.gateway.GetIntent(ctx, order.PaymentIntentID)
		if err != nil && errors.Is(err, payment.ErrIntentNotFound) {
			intent, err = s.createIntent(ctx, order)
		}
	}
	if err != nil {
		if errors.Is(err, ErrPaymentFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	if !intent.Succeeded() {
		return &PayResult{Order: order, Paid: false, PaymentStatus: intent.Status, ClientSecret: intent.ClientSecret}, nil
	}

	updated, err := s.markPaid(ctx, order, intent, repository.ActorUser, userID)
	if err != nil {
		return nil, err
	}
	return &PayResult{Order: updated, Paid: true, PaymentStatus: intent.Status}, nil
}

func (s *checkoutService) markPaid(ctx context.Context, order *repository.Order, intent *payment.Intent, actorType string, actorID int64) (*repository.Order, error) {
	amount := intent.AmountCents
	if amount <= 0 {
		amount = order.TotalCents
	}
	updated, err := s.transition(ctx, order, transitionRequest{
		To:              repository.OrderPaid,
		ActorType:       actorType,
		ActorID:         actorID,
		Reason:          "payment " + intent.ID,
		PaidAmountCents: amount,
	})
	if err != nil {
		return nil, err
	}
	metrics.PaymentCaptured(s.gateway.Name(), order.Currency, amount)
	return updated, nil
}

func (s *checkoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if err := s.ready(); err != nil {
		return err
	}
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	if event.Type != payment.EventIntentSucceeded || event.Intent == nil {
		s.logger.DebugContext(ctx, "payment event ignored", "event_id", event.ID, "type", event.Type)
		return nil
	}
	order, err := s.orders.FindByPaymentIntent(ctx, event.Intent.ID)
	if errors.Is(err, repository.ErrNotFound) && event.Intent.TradeNo != "" {
		order, err = s.orders.FindByTradeNo(ctx, event.Intent.TradeNo)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.WarnContext(ctx, "payment event for unknown order", "event_id", event.ID, "intent", event.Intent.ID)
			return nil
		}
		return err
	}
	switch order.Status {
	case repository.OrderPending:
	case repository.OrderCancelled:
		// 订单取消后才到账的付款原路退回；取消时已退款的订单 paid_amount 大于 0
		if order.PaidAmountCents == 0 {
			return s.refundCaptured(ctx, order, event.Intent)
		}
		return nil
	default:
		return nil
	}
	if _, err := s.markPaid(ctx, order, event.Intent, repository.ActorSystem, 0); err != nil {
		// 同一笔支付的回调与前端确认可能同时到达。
		if errors.Is(err, ErrOrderConflict) {
			return nil
		}
		return err
	}
	return nil
}
