// 文件路径: internal/bootstrap/infra.go
// 模块说明: 按配置装配共享基础设施：缓存（内存或 Redis）、JWT、密码哈希、限流、审计、通知队列、支付网关与上传存储。
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/creamcroissant/shopboard/internal/async"
	"github.com/creamcroissant/shopboard/internal/auth/token"
	"github.com/creamcroissant/shopboard/internal/cache"
	"github.com/creamcroissant/shopboard/internal/config"
	"github.com/creamcroissant/shopboard/internal/notifier"
	"github.com/creamcroissant/shopboard/internal/payment"
	"github.com/creamcroissant/shopboard/internal/security"
	"github.com/creamcroissant/shopboard/internal/storage"
	"github.com/creamcroissant/shopboard/internal/support/hash"
)

// Infrastructure bundles shared helpers required by services.
type Infrastructure struct {
	Cache       cache.Store
	Token       *token.Manager
	Hasher      hash.Hasher
	RateLimiter *security.RateLimiter
	Audit       security.Recorder
	// Queue 缓冲待发通知，Notifier 只入队，Delivery 由定时任务调用真正投递。
	Queue    *async.NotificationQueue
	Notifier notifier.Service
	Delivery notifier.Service
	Gateway  payment.Gateway
	Uploader storage.Uploader

	closers []func() error
}

// Close 释放外部连接（目前只有 Redis）。
func (i *Infrastructure) Close() error {
	if i == nil {
		return nil
	}
	var firstErr error
	for _, fn := range i.closers {
		if err := fn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	i.closers = nil
	return firstErr
}

// BuildInfrastructure wires implementations selected by cfg. cfg.Auth.SigningKey must already be resolved.
func BuildInfrastructure(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Infrastructure, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required / 配置不能为空")
	}
	infra := &Infrastructure{}
	ok := false
	defer func() {
		if !ok {
			_ = infra.Close()
		}
	}()

	cacheStore, err := buildCache(ctx, cfg.Cache, infra)
	if err != nil {
		return nil, err
	}
	infra.Cache = cacheStore

	if cfg.Auth.SigningKey == "" || cfg.Auth.SigningKey == defaultJWTSigningKey {
		return nil, fmt.Errorf("auth.signing_key must be resolved before building infrastructure / 签名密钥未就绪")
	}
	infra.Token, err = token.NewManager(token.Options{
		SigningKey: []byte(cfg.Auth.SigningKey),
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
		Leeway:     cfg.Auth.Leeway,
	})
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	infra.Hasher, err = hash.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt hasher: %w", err)
	}

	infra.RateLimiter, err = security.NewRateLimiter(cacheStore)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	infra.Audit = security.NewLoggerRecorder(logger)

	infra.Queue = async.NewNotificationQueue()
	infra.Notifier = async.NewQueueNotifier(infra.Queue)
	infra.Delivery = notifier.NewLoggerService(logger)

	infra.Gateway, err = buildGateway(cfg, cacheStore)
	if err != nil {
		return nil, err
	}
	infra.Uploader, err = buildUploader(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	ok = true
	return infra, nil
}

func buildCache(ctx context.Context, cfg config.CacheConfig, infra *Infrastructure) (cache.Store, error) {
	switch cfg.Driver {
	case "redis":
		store, closeFn, err := cache.NewRedisStore(ctx, cache.RedisOptions{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			Prefix:     "shopboard",
			DefaultTTL: cfg.DefaultTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		infra.closers = append(infra.closers, closeFn)
		return store, nil
	case "", "memory":
		return cache.NewStore(cache.Options{
			Prefix:          "shopboard",
			DefaultTTL:      cfg.DefaultTTL,
			CleanupInterval: time.Minute,
		}), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q / 未知缓存驱动", cfg.Driver)
	}
}

// 手动网关的支付意图与待支付订单同寿命。
func buildGateway(cfg *config.Config, cacheStore cache.Store) (payment.Gateway, error) {
	switch cfg.Payment.Provider {
	case payment.ProviderStripe:
		gw, err := payment.NewStripeGateway(payment.StripeOptions{
			SecretKey:     cfg.Payment.Stripe.SecretKey,
			WebhookSecret: cfg.Payment.Stripe.WebhookSecret,
		})
		if err != nil {
			return nil, fmt.Errorf("stripe gateway: %w", err)
		}
		return gw, nil
	case "", payment.ProviderManual:
		ttl := cfg.Order.PendingTTL + time.Hour
		gw, err := payment.NewManualGateway(cacheStore, ttl)
		if err != nil {
			return nil, fmt.Errorf("manual gateway: %w", err)
		}
		return gw, nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q / 未知支付网关", cfg.Payment.Provider)
	}
}

func buildUploader(ctx context.Context, cfg config.StorageConfig) (storage.Uploader, error) {
	var (
		uploader storage.Uploader
		err      error
	)
	switch cfg.Driver {
	case "s3":
		uploader, err = storage.NewS3Uploader(ctx, storage.S3Options{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Prefix:    cfg.S3.Prefix,
			PublicURL: cfg.S3.PublicURL,
			Endpoint:  cfg.S3.Endpoint,
		})
	case "", "local":
		uploader, err = storage.NewLocalUploader(cfg.Local.Dir, cfg.Local.BaseURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q / 未知存储驱动", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%s uploader: %w", cfg.Driver, err)
	}
	return storage.WithRetry(uploader, storage.DefaultRetryConfig()), nil
}
