// 文件路径: internal/security/audit.go
// 模块说明: 审计事件记录，登录、改密、订单状态变更与后台操作都会写入。
package security

import (
	"context"
	"log/slog"
	"time"

	"github.com/creamcroissant/shopboard/internal/support/logging"
)

// 审计事件类型。
const (
	EventLoginSuccess   = "auth.login.success"
	EventLoginFailed    = "auth.login.failed"
	EventTokenRefreshed = "auth.token.refreshed"
	EventPasswordChange = "user.password.changed"
	EventUserBanned     = "admin.user.banned"
	EventOrderStatus    = "order.status.changed"
	EventOrderRefunded  = "order.payment.refunded"
	EventProductChanged = "admin.product.changed"
)

// Event 表示安全相关的行为。
type Event struct {
	Kind      string
	ActorID   string
	IP        string
	UserAgent string
	Metadata  map[string]any
	Occurred  time.Time
}

// Recorder 记录安全事件，供后续分析。
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// LoggerRecorder 将审计事件写入 slog.Logger。
type LoggerRecorder struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewLoggerRecorder 返回记录器，logger 为空时丢弃。
func NewLoggerRecorder(logger *slog.Logger) *LoggerRecorder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &LoggerRecorder{logger: logger.With("component", "audit"), now: time.Now}
}

// Record 实现 Recorder。
func (r *LoggerRecorder) Record(ctx context.Context, event Event) {
	if r == nil || r.logger == nil {
		return
	}
	if event.Occurred.IsZero() {
		event.Occurred = r.now().UTC()
	}
	r.logger.InfoContext(ctx, "audit event",
		"kind", event.Kind,
		"actor_id", event.ActorID,
		"ip", event.IP,
		"ua", event.UserAgent,
		"metadata", event.Metadata,
		"occurred", event.Occurred.Format(time.RFC3339Nano),
	)
}
