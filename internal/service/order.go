// 文件路径: internal/service/order.go
// 模块说明: 订单查询、顾客取消（创建后 12 小时内）、后台状态变更与超时未支付订单的自动取消。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/creamcroissant/shopboard/internal/payment"
	"github.com/creamcroissant/shopboard/internal/repository"
)

const expireBatchSize = 100

// OrderService exposes order queries and status changes for users and admins.
type OrderService interface {
	List(ctx context.Context, userID int64, query OrderQuery) (*OrderListResult, error)
	Detail(ctx context.Context, userID, orderID int64) (*OrderDetail, error)
	Cancel(ctx context.Context, userID, orderID int64, reason string) (*repository.Order, error)
	AdminList(ctx context.Context, query OrderQuery) (*OrderListResult, error)
	AdminDetail(ctx context.Context, orderID int64) (*OrderDetail, error)
	AdminTransition(ctx context.Context, actorID, orderID int64, to repository.OrderStatus, reason string) (*repository.Order, error)
	AdminCancel(ctx context.Context, actorID, orderID int64, reason string) (*repository.Order, error)
	ExpireStale(ctx context.Context) (int, error)
}

// OrderQuery 是订单列表过滤条件。
type OrderQuery struct {
	Status  repository.OrderStatus
	Keyword string
	From    int64
	To      int64
	Page
}

// OrderListResult 包装分页订单。
type OrderListResult struct {
	Orders []*repository.Order `json:"orders"`
	Total  int64               `json:"total"`
}

// OrderDetail 汇总订单、物流与状态日志。
type OrderDetail struct {
	Order        *repository.Order           `json:"order"`
	Tracking     []repository.Tracking       `json:"tracking"`
	StatusLogs   []repository.OrderStatusLog `json:"status_logs"`
	CanCancel    bool                        `json:"can_cancel"`
	CancelBefore int64                       `json:"cancel_before,omitempty"`
	NextStatuses []repository.OrderStatus    `json:"next_statuses,omitempty"`
}

type orderService struct {
	*orderWorkflow
	cancelWindow time.Duration
	pendingTTL   time.Duration
}

// NewOrderService wires order queries and transitions.
func NewOrderService(deps OrderDeps) OrderService {
	cancelWindow := deps.CancelWindow
	if cancelWindow <= 0 {
		cancelWindow = defaultCancelWindow
	}
	pendingTTL := deps.PendingTTL
	if pendingTTL <= 0 {
		pendingTTL = defaultPendingTTL
	}
	return &orderService{
		orderWorkflow: newOrderWorkflow(deps),
		cancelWindow:  cancelWindow,
		pendingTTL:    pendingTTL,
	}
}

func (s *orderService) ready() error {
	if s == nil || s.orders == nil {
		return fmt.Errorf("order service not configured / 订单服务未配置")
	}
	return nil
}

func (q OrderQuery) filter() (repository.OrderFilter, error) {
	if q.Status != "" && !q.Status.Valid() {
		return repository.OrderFilter{}, fmt.Errorf("%w: status / 订单状态无效", ErrInvalidInput)
	}
	if q.From > 0 && q.To > 0 && q.From >= q.To {
		return repository.OrderFilter{}, fmt.Errorf("%w: time range / 时间范围无效", ErrInvalidInput)
	}
	limit, offset := q.limitOffset()
	return repository.OrderFilter{
		Status:  q.Status,
		Keyword: strings.TrimSpace(q.Keyword),
		From:    q.From,
		To:      q.To,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

func (s *orderService) list(ctx context.Context, filter repository.OrderFilter) (*OrderListResult, error) {
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.orders.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*repository.Order{}
	}
	return &OrderListResult{Orders: orders, Total: total}, nil
}

func (s *orderService) List(ctx context.Context, userID int64, query OrderQuery) (*OrderListResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	filter, err := query.filter()
	if err != nil {
		return nil, err
	}
	filter.UserID = &userID
	// 顾客只按状态与时间过滤自己的订单。
	filter.Keyword = ""
	return s.list(ctx, filter)
}

func (s *orderService) AdminList(ctx context.Context, query OrderQuery) (*OrderListResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	filter, err := query.filter()
	if err != nil {
		return nil, err
	}
	return s.list(ctx, filter)
}

func (s *orderService) Detail(ctx context.Context, userID, orderID int64) (*OrderDetail, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	order, err := s.loadOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	detail, err := s.detail(ctx, order)
	if err != nil {
		return nil, err
	}
	detail.CanCancel = s.cancellable(order) == nil
	if detail.CanCancel {
		detail.CancelBefore = order.CreatedAt + int64(s.cancelWindow/time.Second)
	}
	return detail, nil
}

func (s *orderService) AdminDetail(ctx context.Context, orderID int64) (*OrderDetail, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	detail, err := s.detail(ctx, order)
	if err != nil {
		return nil, err
	}
	detail.CanCancel = CanTransition(order.Status, repository.OrderCancelled)
	detail.NextStatuses = NextStatuses(order.Status)
	return detail, nil
}

func (s *orderService) detail(ctx context.Context, order *repository.Order) (*OrderDetail, error) {
	detail := &OrderDetail{Order: order, Tracking: []repository.Tracking{}, StatusLogs: []repository.OrderStatusLog{}}
	if s.trackings != nil {
		tracking, err := s.trackings.ListByOrder(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		if tracking != nil {
			detail.Tracking = tracking
		}
	}
	logs, err := s.orders.StatusLogs(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if logs != nil {
		detail.StatusLogs = logs
	}
	return detail, nil
}

// cancellable 校验顾客自助取消：仅限待支付或已支付，且在取消窗口内。
func (s *orderService) cancellable(order *repository.Order) error {
	if !CanTransition(order.Status, repository.OrderCancelled) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, repository.OrderCancelled)
	}
	if s.now().Unix()-order.CreatedAt > int64(s.cancelWindow/time.Second) {
		return ErrCancelWindowExpired
	}
	return nil
}

func (s *orderService) Cancel(ctx context.Context, userID, orderID int64, reason string) (*repository.Order, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	order, err := s.loadOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.cancellable(order); err != nil {
		return nil, err
	}
	reason = stripTags(reason)
	if reason == "" {
		reason = "cancelled by customer"
	}
	return s.transition(ctx, order, transitionRequest{
		To:        repository.OrderCancelled,
		ActorType: repository.ActorUser,
		ActorID:   userID,
		Reason:    reason,
	})
}

func (s *orderService) AdminCancel(ctx context.Context, actorID, orderID int64, reason string) (*repository.Order, error) {
	return s.AdminTransition(ctx, actorID, orderID, repository.OrderCancelled, reason)
}

func (s *orderService) AdminTransition(ctx context.Context, actorID, orderID int64, to repository.OrderStatus, reason string) (*repository.Order, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !to.Valid() {
		return nil, fmt.Errorf("%w: status / 订单状态无效", ErrInvalidInput)
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	req := transitionRequest{
		To:        to,
		ActorType: repository.ActorAdmin,
		ActorID:   actorID,
		Reason:    stripTags(reason),
	}
	if to == repository.OrderPaid && CanTransition(order.Status, to) {
		amount, err := s.capturedAmount(ctx, order)
		if err != nil {
			return nil, err
		}
		req.PaidAmountCents = amount
	}
	if req.Reason == "" && to == repository.OrderCancelled {
		req.Reason = "cancelled by admin"
	}
	return s.transition(ctx, order, req)
}

// capturedAmount 后台手动标记已支付时，如订单有支付意图则以网关结果为准。
func (s *orderService) capturedAmount(ctx context.Context, order *repository.Order) (int64, error) {
	if order.PaymentIntentID == "" || s.gateway == nil {
		return order.TotalCents, nil
	}
	intent, err := s.gateway.GetIntent(ctx, order.PaymentIntentID)
	if err != nil {
		if errors.Is(err, payment.ErrIntentNotFound) {
			return 0, ErrPaymentNotCompleted
		}
		return 0, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	if !intent.Succeeded() {
		return 0, ErrPaymentNotCompleted
	}
	if intent.AmountCents > 0 {
		return intent.AmountCents, nil
	}
	return order.TotalCents, nil
}

func (s *orderService) ExpireStale(ctx context.Context) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-s.pendingTTL).Unix()
	stale, err := s.orders.ListStalePending(ctx, cutoff, expireBatchSize)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, order := range stale {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		_, err := s.transition(ctx, order, transitionRequest{
			To:        repository.OrderCancelled,
			ActorType: repository.ActorSystem,
			Reason:    "payment timeout",
		})
		if err != nil {
			if errors.Is(err, ErrOrderConflict) || errors.Is(err, ErrInvalidTransition) {
				continue
			}
			s.logger.WarnContext(ctx, "expire order failed", "order_id", order.ID, "error", err)
			continue
		}
		expired++
	}
	return expired, nil
}
