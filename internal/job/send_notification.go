// 文件路径: internal/job/send_notification.go
// 模块说明: 从内存队列取出待发通知逐条投递，单条失败按指数退避重试，仍失败则放回队列等待下一轮。
package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/creamcroissant/shopboard/internal/async"
	"github.com/creamcroissant/shopboard/internal/metrics"
	"github.com/creamcroissant/shopboard/internal/notifier"
	"github.com/creamcroissant/shopboard/internal/support/logging"
)

// SendEmailJob 处理邮件通知队列。
type SendEmailJob struct {
	Queue    *async.NotificationQueue
	Notifier notifier.Service
	Logger   *slog.Logger
	// Backoff 为单条通知构造重试策略，为空时使用 defaultDeliveryBackoff。
	Backoff func() backoff.BackOff
}

// NewSendEmailJob 构造邮件通知任务。
func NewSendEmailJob(queue *async.NotificationQueue, notify notifier.Service, logger *slog.Logger) *SendEmailJob {
	if logger == nil {
		logger = logging.Discard()
	}
	return &SendEmailJob{Queue: queue, Notifier: notify, Logger: logger, Backoff: defaultDeliveryBackoff}
}

func defaultDeliveryBackoff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	policy.MaxElapsedTime = 0
	return backoff.WithMaxRetries(policy, 2)
}

// Name 返回任务标识。
func (j *SendEmailJob) Name() string { return "notify.email" }

// Run 发送邮件通知。
func (j *SendEmailJob) Run(ctx context.Context) error {
	if j == nil || j.Queue == nil || j.Notifier == nil {
		return fmt.Errorf("email notification job dependencies not configured / 邮件通知任务依赖未配置")
	}
	pending := j.Queue.DrainEmails()
	if len(pending) == 0 {
		return nil
	}
	newBackoff := j.Backoff
	if newBackoff == nil {
		newBackoff = defaultDeliveryBackoff
	}

	var sent, requeued, dropped int
	for i, item := range pending {
		if ctx.Err() != nil {
			for _, rest := range pending[i:] {
				j.Queue.Requeue(rest)
			}
			return ctx.Err()
		}
		err := backoff.Retry(func() error {
			err := j.Notifier.SendEmail(ctx, item.Request)
			if notifier.IsPermanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}, backoff.WithContext(newBackoff(), ctx))
		metrics.NotificationDelivered(err)
		switch {
		case err == nil:
			sent++
		case notifier.IsPermanent(err):
			dropped++
			j.Logger.Warn("notification dropped", "subject", item.Request.Subject, "reason", err)
		case j.Queue.Requeue(item):
			requeued++
			j.Logger.Warn("notification requeued", "to", item.Request.To, "attempts", item.Attempts+1, "error", err)
		default:
			dropped++
			j.Logger.Error("notification gave up", "to", item.Request.To, "subject", item.Request.Subject, "error", err)
		}
	}
	j.Logger.Debug("email notifications processed", "sent", sent, "requeued", requeued, "dropped", dropped)
	return nil
}
