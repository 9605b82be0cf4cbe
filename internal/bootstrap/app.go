// 文件路径: internal/bootstrap/app.go
// 模块说明: 把配置、数据库、基础设施、业务服务、路由与定时任务组装成一个 App，serve 与各 CLI 子命令共用。
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/creamcroissant/shopboard/internal/api"
	"github.com/creamcroissant/shopboard/internal/api/middleware"
	"github.com/creamcroissant/shopboard/internal/authz"
	"github.com/creamcroissant/shopboard/internal/config"
	"github.com/creamcroissant/shopboard/internal/job"
	"github.com/creamcroissant/shopboard/internal/repository/sqlite"
	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
)

// BuildInfo 由 ldflags 注入。
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// App 持有运行期依赖。
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	DB        *sql.DB
	Store     *sqlite.Store
	Infra     *Infrastructure
	I18n      *i18n.Manager
	Services  api.Services
	Importer  *service.CatalogImporter
	Scheduler *job.Scheduler
	StartedAt time.Time
}

// NewApp 打开数据库（含迁移）、解析签名密钥并装配所有服务与任务。调用方负责 Close。
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, info BuildInfo) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required / 配置不能为空")
	}
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := middleware.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			return nil, fmt.Errorf("http.trusted_proxies: %w", err)
		}
	}
	db, err := OpenDatabase(cfg.DB, true)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger, DB: db, StartedAt: time.Now().UTC()}
	ok := false
	defer func() {
		if !ok {
			_ = app.Close()
		}
	}()

	app.Store = sqlite.NewStore(db)
	signingKey, err := ResolveJWTSigningKey(ctx, app.Store.Settings(), cfg.Auth.SigningKey, time.Now)
	if err != nil {
		return nil, err
	}
	cfg.Auth.SigningKey = signingKey.Value
	logger.Info("jwt signing key loaded", "source", string(signingKey.Source))
	if signingKey.Weak {
		logger.Warn("auth.signing_key is shorter than recommended", "min_length", jwtSigningKeyMinLen)
	}

	app.Infra, err = BuildInfrastructure(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	app.I18n, err = i18n.NewManager(i18n.WithLogger(logger), i18n.WithDefaultLang("en-US"))
	if err != nil {
		return nil, fmt.Errorf("i18n: %w", err)
	}
	authorizer, err := authz.New()
	if err != nil {
		return nil, fmt.Errorf("authz: %w", err)
	}

	app.Services = app.buildServices(authorizer, info)
	app.Importer = service.NewCatalogImporter(app.Store, app.Services.Category, app.Services.Product)

	app.Scheduler, err = app.buildScheduler()
	if err != nil {
		return nil, err
	}

	ok = true
	return app, nil
}

// PricingRules 从配置提取定价规则。
func PricingRules(cfg config.PricingConfig) service.PricingRules {
	return service.PricingRules{
		TaxRate:               cfg.TaxRate,
		DefaultMargin:         cfg.DefaultMargin,
		Currency:              cfg.Currency,
		ShippingFeeCents:      cfg.ShippingFee,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
	}
}

func (a *App) buildServices(authorizer authz.Authorizer, info BuildInfo) api.Services {
	cfg := a.Config
	infra := a.Infra
	store := a.Store
	rules := PricingRules(cfg.Pricing)

	deps := service.OrderDeps{
		Store:        store,
		Gateway:      infra.Gateway,
		Notifier:     infra.Notifier,
		Audit:        infra.Audit,
		Cache:        infra.Cache,
		Logger:       a.Logger,
		Rules:        rules,
		CancelWindow: cfg.Order.CancelWindow,
		PendingTTL:   cfg.Order.PendingTTL,
	}
	cart := service.NewCartService(store, rules)
	fetcher := service.DefaultHostStatFetcher()

	return api.Services{
		Auth: service.NewAuthService(store, infra.Hasher, infra.Token, infra.RateLimiter, infra.Audit, service.AuthOptions{
			LoginAttempts: cfg.RateLimit.LoginAttempts,
			LoginWindow:   cfg.RateLimit.LoginWindow,
		}),
		Register:  service.NewRegistrationService(store, infra.Hasher, infra.RateLimiter),
		User:      service.NewUserService(store, infra.Hasher, infra.Audit),
		AdminUser: service.NewAdminUserService(store, infra.Hasher, infra.Audit),
		Category:  service.NewCategoryService(store),
		Product:   service.NewProductService(store, infra.Cache, rules, infra.Audit),
		Address:   service.NewAddressService(store),
		Cart:      cart,
		Wishlist:  service.NewWishlistService(store, cart),
		Checkout:  service.NewCheckoutService(deps),
		Order:     service.NewOrderService(deps),
		Tracking:  service.NewTrackingService(deps),
		Upload:    service.NewUploadService(infra.Uploader, cfg.Storage.MaxSize, a.Logger),
		Dashboard: service.NewDashboardService(store, infra.Cache, rules, cfg.Pricing.LowStockThreshold),
		AdminSystem: service.NewAdminSystemService(service.AdminSystemOptions{
			Version:           info.Version,
			Environment:       cfg.Log.Environment,
			StartedAt:         a.StartedAt,
			DataDir:           cfg.DB.Path,
			NotificationQueue: infra.Queue,
			Fetcher:           &fetcher,
		}),
		AdminSettings: service.NewAdminSettingsService(store, infra.Notifier, infra.Audit),
		Authorizer:    authorizer,
		RateLimiter:   infra.RateLimiter,
		I18n:          a.I18n,
	}
}

func (a *App) buildScheduler() (*job.Scheduler, error) {
	cfg := a.Config
	scheduler := job.NewScheduler(a.Logger)
	jobs := []struct {
		spec     string
		runnable job.Runnable
	}{
		{cfg.Jobs.ExpireOrders, job.NewExpireOrdersJob(a.Services.Order, a.Logger)},
		{cfg.Jobs.Notifications, job.NewSendEmailJob(a.Infra.Queue, a.Infra.Delivery, a.Logger)},
		{cfg.Jobs.LowStock, job.NewLowStockJob(a.Store.Products(), a.Infra.Queue, cfg.Pricing.LowStockThreshold, cfg.Jobs.AlertEmail, a.Logger)},
		{cfg.Jobs.TokenCleanup, job.NewTokenCleanupJob(a.Store.Tokens(), a.Logger)},
	}
	for _, j := range jobs {
		if _, err := scheduler.Register(j.spec, j.runnable); err != nil {
			return nil, err
		}
	}
	return scheduler, nil
}

// Router 构建 HTTP 处理器，本地存储时同时挂载 /uploads。
func (a *App) Router() http.Handler {
	var opts []api.RouterOption
	if a.Config.Storage.Driver == "" || a.Config.Storage.Driver == "local" {
		opts = append(opts, api.WithLocalUploads(a.Config.Storage.Local.Dir, a.Config.Storage.Local.BaseURL))
	}
	opts = append(opts, api.WithReadiness(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return a.DB.PingContext(ctx)
	}))
	return api.NewRouter(a.Logger, a.Services, a.Config, opts...)
}

// Close 释放数据库与外部连接。
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var firstErr error
	if a.Infra != nil {
		firstErr = a.Infra.Close()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
