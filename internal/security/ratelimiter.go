// 文件路径: internal/security/ratelimiter.go
// 模块说明: 固定窗口限流器，用于登录尝试与按 IP 的请求频率控制。
package security

import (
	"context"
	"fmt"
	"time"

	"github.com/creamcroissant/shopboard/internal/cache"
)

// RateLimiter 控制重复行为（如登录尝试）。
type RateLimiter struct {
	store cache.Store
	now   func() time.Time
}

// RateResult 描述 Allow 调用的结果。
type RateResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// NewRateLimiter 使用缓存存储构建限流器。
func NewRateLimiter(store cache.Store) (*RateLimiter, error) {
	if store == nil {
		return nil, fmt.Errorf("rate limiter requires cache store / 限流器需要缓存存储")
	}
	return &RateLimiter{store: store.Namespace("rate"), now: time.Now}, nil
}

// Allow 对 key 计数一次并判断是否仍在限额内。窗口从第一次计数开始。
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (RateResult, error) {
	if l == nil {
		return RateResult{}, fmt.Errorf("rate limiter not initialized / 限流器未初始化")
	}
	if limit <= 0 {
		return RateResult{}, fmt.Errorf("limit must be positive / limit 必须为正数")
	}
	if window <= 0 {
		window = time.Minute
	}

	bucket := l.bucketKey(key, window)
	current, err := l.store.Increment(ctx, bucket, 1, window)
	if err != nil {
		return RateResult{}, fmt.Errorf("increment rate limit counter / 限流计数自增失败: %w", err)
	}

	remaining := limit - int(current)
	if remaining < 0 {
		remaining = 0
	}
	return RateResult{
		Allowed:   current <= int64(limit),
		Remaining: remaining,
		ResetAt:   l.windowStart(window).Add(window),
	}, nil
}

// Reset 清除指定 key 当前窗口的计数，例如登录成功后。
func (l *RateLimiter) Reset(ctx context.Context, key string, window time.Duration) error {
	if l == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	return l.store.Delete(ctx, l.bucketKey(key, window))
}

func (l *RateLimiter) windowStart(window time.Duration) time.Time {
	return l.now().UTC().Truncate(window)
}

func (l *RateLimiter) bucketKey(key string, window time.Duration) string {
	return fmt.Sprintf("%s:%d", key, l.windowStart(window).Unix())
}
