// 文件路径: internal/async/notification_queue.go
// 模块说明: 订单通知的内存队列，请求线程只入队，由定时任务批量投递。
package async

import (
	"maps"
	"sync"

	"github.com/creamcroissant/shopboard/internal/notifier"
)

// DefaultMaxAttempts 是单条通知的最大投递次数。
const DefaultMaxAttempts = 5

// PendingEmail 是队列中的一条邮件及其已尝试次数。
type PendingEmail struct {
	Request  notifier.EmailRequest
	Attempts int
}

// NotificationQueue buffers outbound emails for background dispatch.
type NotificationQueue struct {
	mu          sync.Mutex
	emails      []PendingEmail
	maxAttempts int
	dropped     int
}

// NewNotificationQueue returns an empty queue.
func NewNotificationQueue() *NotificationQueue {
	return &NotificationQueue{maxAttempts: DefaultMaxAttempts}
}

// EnqueueEmail appends a pending email request.
func (q *NotificationQueue) EnqueueEmail(req notifier.EmailRequest) {
	if q == nil || req.To == "" {
		return
	}
	q.mu.Lock()
	q.emails = append(q.emails, PendingEmail{Request: cloneEmailRequest(req)})
	q.mu.Unlock()
}

// DrainEmails returns all pending emails and clears the buffer.
func (q *NotificationQueue) DrainEmails() []PendingEmail {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.emails
	q.emails = nil
	return drained
}

// Requeue puts a failed email back at the head of the queue. It returns false
// when the email has used up its attempts and was dropped.
func (q *NotificationQueue) Requeue(item PendingEmail) bool {
	if q == nil || item.Request.To == "" {
		return false
	}
	item.Attempts++
	q.mu.Lock()
	defer q.mu.Unlock()
	if item.Attempts >= q.maxAttempts {
		q.dropped++
		return false
	}
	q.emails = append([]PendingEmail{item}, q.emails...)
	return true
}

// PendingEmails reports buffered email tasks.
func (q *NotificationQueue) PendingEmails() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.emails)
}

// Dropped reports emails discarded after exhausting retries.
func (q *NotificationQueue) Dropped() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

func cloneEmailRequest(req notifier.EmailRequest) notifier.EmailRequest {
	cloned := req
	if len(req.Variables) > 0 {
		cloned.Variables = maps.Clone(req.Variables)
	}
	return cloned
}
