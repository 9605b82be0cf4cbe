// 文件路径: internal/job/expire_orders.go
// 模块说明: 定时取消超过支付期限仍为 Pending 的订单，库存由订单服务归还。
package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/support/logging"
)

// ExpireOrdersJob 自动取消超时未支付订单。
type ExpireOrdersJob struct {
	Orders service.OrderService
	Logger *slog.Logger
}

// NewExpireOrdersJob 构造超时订单任务。
func NewExpireOrdersJob(orders service.OrderService, logger *slog.Logger) *ExpireOrdersJob {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ExpireOrdersJob{Orders: orders, Logger: logger}
}

func (j *ExpireOrdersJob) Name() string { return "orders.expire" }

func (j *ExpireOrdersJob) Run(ctx context.Context) error {
	if j == nil || j.Orders == nil {
		return fmt.Errorf("expire orders job dependencies not configured / 超时订单任务依赖未配置")
	}
	expired, err := j.Orders.ExpireStale(ctx)
	if expired > 0 {
		j.Logger.Info("stale orders cancelled", "count", expired)
	}
	if err != nil {
		return fmt.Errorf("expire orders: %w", err)
	}
	return nil
}
