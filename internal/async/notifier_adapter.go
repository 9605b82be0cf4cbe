// 文件路径: internal/async/notifier_adapter.go
// 模块说明: 把通知队列包装成 notifier.Service，业务服务无需关心投递方式。
package async

import (
	"context"
	"fmt"
	"strings"

	"github.com/creamcroissant/shopboard/internal/notifier"
)

// QueueNotifier implements notifier.Service by enqueueing requests.
type QueueNotifier struct {
	queue *NotificationQueue
}

// NewQueueNotifier wraps a notification queue.
func NewQueueNotifier(queue *NotificationQueue) notifier.Service {
	return &QueueNotifier{queue: queue}
}

// SendEmail 入队前先试渲染，永久性错误直接返回给调用方而不占用队列。
func (n *QueueNotifier) SendEmail(_ context.Context, req notifier.EmailRequest) error {
	if n == nil || n.queue == nil {
		return fmt.Errorf("notification queue unavailable / 通知队列不可用")
	}
	req.To = strings.TrimSpace(req.To)
	if req.To == "" {
		return notifier.ErrRecipientRequired
	}
	if _, err := notifier.Render(req); err != nil {
		return err
	}
	n.queue.EnqueueEmail(req)
	return nil
}
