// 文件路径: internal/job/low_stock.go
// 模块说明: 巡检低库存商品并更新低库存指标，配置了提醒邮箱时投递一封汇总通知。
package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/creamcroissant/shopboard/internal/async"
	"github.com/creamcroissant/shopboard/internal/metrics"
	"github.com/creamcroissant/shopboard/internal/notifier"
	"github.com/creamcroissant/shopboard/internal/repository"
	"github.com/creamcroissant/shopboard/internal/support/logging"
)

const lowStockScanLimit = 200

// LowStockJob 库存预警任务。
type LowStockJob struct {
	Products   repository.ProductRepository
	Queue      *async.NotificationQueue
	Threshold  int
	AlertEmail string
	Logger     *slog.Logger
}

// NewLowStockJob 构造库存预警任务。queue 或 alertEmail 为空时只更新指标。
func NewLowStockJob(products repository.ProductRepository, queue *async.NotificationQueue, threshold int, alertEmail string, logger *slog.Logger) *LowStockJob {
	if logger == nil {
		logger = logging.Discard()
	}
	return &LowStockJob{Products: products, Queue: queue, Threshold: threshold, AlertEmail: alertEmail, Logger: logger}
}

func (j *LowStockJob) Name() string { return "products.low_stock" }

func (j *LowStockJob) Run(ctx context.Context) error {
	if j == nil || j.Products == nil {
		return fmt.Errorf("low stock job dependencies not configured / 库存预警任务依赖未配置")
	}
	low, err := j.Products.LowStock(ctx, j.Threshold, lowStockScanLimit)
	if err != nil {
		return fmt.Errorf("low stock scan: %w", err)
	}
	metrics.SetLowStock(len(low))
	if len(low) == 0 {
		return nil
	}

	items := make([]map[string]any, 0, len(low))
	for _, p := range low {
		items = append(items, map[string]any{"id": p.ID, "name": p.Name, "stock": p.Stock})
	}
	j.Logger.Warn("products low on stock", "count", len(low), "threshold", j.Threshold)
	if j.Queue != nil && j.AlertEmail != "" {
		j.Queue.EnqueueEmail(notifier.EmailRequest{
			To:        j.AlertEmail,
			Subject:   fmt.Sprintf("%d products low on stock", len(low)),
			Template:  notifier.TemplateLowStock,
			Variables: map[string]any{"threshold": j.Threshold, "products": items},
		})
	}
	return nil
}
