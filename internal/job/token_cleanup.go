// 文件路径: internal/job/token_cleanup.go
// 模块说明: 删除已过期的刷新令牌记录。
package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/creamcroissant/shopboard/internal/repository"
	"github.com/creamcroissant/shopboard/internal/support/logging"
)

// TokenCleanupJob 清理过期刷新令牌。
type TokenCleanupJob struct {
	Tokens repository.TokenRepository
	Logger *slog.Logger
	Now    func() time.Time
}

// NewTokenCleanupJob 构造令牌清理任务。
func NewTokenCleanupJob(tokens repository.TokenRepository, logger *slog.Logger) *TokenCleanupJob {
	if logger == nil {
		logger = logging.Discard()
	}
	return &TokenCleanupJob{Tokens: tokens, Logger: logger, Now: time.Now}
}

func (j *TokenCleanupJob) Name() string { return "tokens.cleanup" }

func (j *TokenCleanupJob) Run(ctx context.Context) error {
	if j == nil || j.Tokens == nil {
		return fmt.Errorf("token cleanup job dependencies not configured / 令牌清理任务依赖未配置")
	}
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	deleted, err := j.Tokens.DeleteExpired(ctx, now().Unix())
	if err != nil {
		return fmt.Errorf("token cleanup: %w", err)
	}
	if deleted > 0 {
		j.Logger.Info("expired refresh tokens deleted", "deleted_rows", deleted)
	}
	return nil
}
