// 文件路径: internal/storage/retry.go
// 模块说明: 为 Uploader 增加指数退避重试，参数校验类错误不重试。
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig controls upload retries.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultRetryConfig returns the retry policy used by the upload service.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     3 * time.Second,
		Multiplier:      2,
	}
}

func normalizeRetryConfig(cfg RetryConfig) RetryConfig {
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 3 * time.Second
	}
	if cfg.Multiplier == 0 {
		cfg.Multiplier = 2
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return cfg
}

type retryingUploader struct {
	next Uploader
	cfg  RetryConfig
}

// WithRetry wraps next so transient failures are retried.
func WithRetry(next Uploader, cfg RetryConfig) Uploader {
	return &retryingUploader{next: next, cfg: normalizeRetryConfig(cfg)}
}

func (u *retryingUploader) Put(ctx context.Context, key string, body []byte, contentType string) (*Object, error) {
	var obj *Object
	err := u.do(ctx, func(ctx context.Context) error {
		var err error
		obj, err = u.next.Put(ctx, key, body, contentType)
		return err
	})
	return obj, err
}

func (u *retryingUploader) Delete(ctx context.Context, key string) error {
	return u.do(ctx, func(ctx context.Context) error {
		return u.next.Delete(ctx, key)
	})
}

func (u *retryingUploader) do(ctx context.Context, fn func(ctx context.Context) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = u.cfg.InitialInterval
	policy.MaxInterval = u.cfg.MaxInterval
	policy.Multiplier = u.cfg.Multiplier
	policy.MaxElapsedTime = 0

	op := func() error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrInvalidKey) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(u.cfg.MaxRetries)), ctx)
	return backoff.Retry(op, b)
}
