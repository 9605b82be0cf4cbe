// 文件路径: internal/service/tracking.go
// 模块说明: 物流单号。只能添加到已支付或运输中的订单，添加到已支付订单时订单转为运输中。
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/creamcroissant/shopboard/internal/repository"
)

// TrackingService manages carrier tracking records attached to orders.
type TrackingService interface {
	List(ctx context.Context, userID, orderID int64) ([]repository.Tracking, error)
	AdminList(ctx context.Context, orderID int64) ([]repository.Tracking, error)
	Add(ctx context.Context, actorID, orderID int64, input TrackingInput) (*repository.Tracking, error)
	Delete(ctx context.Context, actorID, orderID, id int64) error
}

// TrackingInput 是后台录入的物流信息。
type TrackingInput struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
	URL            string `json:"url"`
}

type trackingService struct {
	*orderWorkflow
}

// NewTrackingService wires tracking management.
func NewTrackingService(deps OrderDeps) TrackingService {
	return &trackingService{orderWorkflow: newOrderWorkflow(deps)}
}

func (s *trackingService) ready() error {
	if s == nil || s.orders == nil || s.trackings == nil {
		return fmt.Errorf("tracking service not configured / 物流服务未配置")
	}
	return nil
}

func (in TrackingInput) normalize() (TrackingInput, error) {
	in.Carrier = stripTags(in.Carrier)
	in.TrackingNumber = strings.TrimSpace(in.TrackingNumber)
	in.URL = strings.TrimSpace(in.URL)
	if in.Carrier == "" || len(in.Carrier) > 64 {
		return in, fmt.Errorf("%w: carrier / 承运商无效", ErrInvalidInput)
	}
	if in.TrackingNumber == "" || len(in.TrackingNumber) > 64 {
		return in, fmt.Errorf("%w: tracking_number / 物流单号无效", ErrInvalidInput)
	}
	if in.URL != "" {
		u, err := url.Parse(in.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return in, fmt.Errorf("%w: url / 查询链接无效", ErrInvalidInput)
		}
	}
	return in, nil
}

func (s *trackingService) List(ctx context.Context, userID, orderID int64) ([]repository.Tracking, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if _, err := s.loadOwned(ctx, userID, orderID); err != nil {
		return nil, err
	}
	return s.list(ctx, orderID)
}

func (s *trackingService) AdminList(ctx context.Context, orderID int64) ([]repository.Tracking, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, orderID); err != nil {
		return nil, err
	}
	return s.list(ctx, orderID)
}

func (s *trackingService) list(ctx context.Context, orderID int64) ([]repository.Tracking, error) {
	list, err := s.trackings.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []repository.Tracking{}
	}
	return list, nil
}

func (s *trackingService) Add(ctx context.Context, actorID, orderID int64, input TrackingInput) (*repository.Tracking, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	in, err := input.normalize()
	if err != nil {
		return nil, err
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != repository.OrderPaid && order.Status != repository.OrderOnRoute {
		return nil, ErrTrackingNotAllowed
	}
	tracking := &repository.Tracking{
		OrderID:        order.ID,
		Carrier:        in.Carrier,
		TrackingNumber: in.TrackingNumber,
		URL:            in.URL,
		CreatedAt:      s.now().Unix(),
	}
	if order.Status == repository.OrderPaid {
		// 首个物流单号与发货状态在同一事务写入
		_, err := s.transition(ctx, order, transitionRequest{
			To:        repository.OrderOnRoute,
			ActorType: repository.ActorAdmin,
			ActorID:   actorID,
			Reason:    in.Carrier + " " + in.TrackingNumber,
			Tracking:  tracking,
		})
		if err != nil {
			return nil, err
		}
		return tracking, nil
	}
	created, err := s.trackings.Create(ctx, tracking)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrTrackingExists
		}
		return nil, err
	}
	return created, nil
}

func (s *trackingService) Delete(ctx context.Context, actorID, orderID, id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.trackings.Delete(ctx, orderID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.logger.InfoContext(ctx, "tracking deleted", "order_id", orderID, "tracking_id", id, "actor_id", actorID)
	return nil
}
