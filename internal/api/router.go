// 文件路径: internal/api/router.go
// 模块说明: 组装 chi 路由：全局中间件、健康检查、/metrics、/uploads 与 /api/v1 业务路由。
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/creamcroissant/shopboard/internal/api/handler"
	"github.com/creamcroissant/shopboard/internal/api/middleware"
	"github.com/creamcroissant/shopboard/internal/authz"
	"github.com/creamcroissant/shopboard/internal/config"
	"github.com/creamcroissant/shopboard/internal/security"
	"github.com/creamcroissant/shopboard/internal/service"
	"github.com/creamcroissant/shopboard/internal/support/i18n"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services 汇总路由依赖的全部服务。
type Services struct {
	Auth          service.AuthService
	Register      service.RegistrationService
	User          service.UserService
	AdminUser     service.AdminUserService
	Category      service.CategoryService
	Product       service.ProductService
	Address       service.AddressService
	Cart          service.CartService
	Wishlist      service.WishlistService
	Checkout      service.CheckoutService
	Order         service.OrderService
	Tracking      service.TrackingService
	Upload        service.UploadService
	Dashboard     service.DashboardService
	AdminSystem   service.AdminSystemService
	AdminSettings service.AdminSettingsService
	Authorizer    authz.Authorizer
	RateLimiter   *security.RateLimiter
	I18n          *i18n.Manager
}

// RouterOption 调整路由的可选行为。
type RouterOption func(*routerOptions)

type routerOptions struct {
	uploadsDir     string
	uploadsBaseURL string
	registry       *prometheus.Registry
	readiness      func() error
}

// WithLocalUploads 在 baseURL 下提供本地上传目录的静态访问。
func WithLocalUploads(dir, baseURL string) RouterOption {
	return func(ro *routerOptions) {
		ro.uploadsDir = dir
		ro.uploadsBaseURL = baseURL
	}
}

// WithMetricsRegistry 使用独立的 Prometheus registry，测试中避免重复注册。
func WithMetricsRegistry(reg *prometheus.Registry) RouterOption {
	return func(ro *routerOptions) {
		ro.registry = reg
	}
}

// WithReadiness 设置 /_internal/ready 的探测函数（如数据库 Ping）。
func WithReadiness(check func() error) RouterOption {
	return func(ro *routerOptions) {
		ro.readiness = check
	}
}

// NewRouter wires every HTTP endpoint.
func NewRouter(logger *slog.Logger, services Services, cfg *config.Config, opts ...RouterOption) http.Handler {
	var options routerOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		panic("router requires config")
	}
	if services.Auth == nil {
		panic("router requires AuthService")
	}
	if services.Authorizer == nil {
		panic("router requires Authorizer")
	}
	if services.I18n == nil {
		panic("router requires I18n Manager")
	}

	r := chi.NewRouter()

	mCfg := middleware.DefaultMetricsConfig()
	if cfg.Metrics.Namespace != "" {
		mCfg.Namespace = cfg.Metrics.Namespace
	}
	if cfg.Metrics.Subsystem != "" {
		mCfg.Subsystem = cfg.Metrics.Subsystem
	}
	if len(cfg.Metrics.Buckets) > 0 {
		mCfg.Buckets = cfg.Metrics.Buckets
	}
	if options.registry != nil {
		mCfg.Registerer = options.registry
	}

	r.Use(chiMiddleware.RequestID)
	if cfg.Metrics.Enabled {
		r.Use(middleware.NewMetrics(mCfg).Middleware(mCfg))
	}

	skipPaths := []string{"/health", "/healthz", "/_internal/ready", "/metrics"}
	var skipPrefixes []string
	if options.uploadsDir != "" {
		skipPrefixes = append(skipPrefixes, uploadsBase(options.uploadsBaseURL)+"/")
	}
	r.Use(
		middleware.CORS(middleware.CORSConfig{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "ETag"},
			MaxAge:         86400,
		}),
		middleware.BodyLimit(middleware.BodyLimitConfig{
			MaxBytes:  cfg.HTTP.MaxBodyBytes,
			Overrides: map[string]int64{"/api/v1/admin/upload": cfg.Storage.MaxSize + 64<<10}, // 上传需容纳图片本身
		}),
		middleware.RateLimit(middleware.RateLimitConfig{
			Limiter:   services.RateLimiter,
			Limit:     cfg.RateLimit.RequestsPerIP,
			Window:    time.Minute,
			SkipPaths: skipPaths,
			Logger:    logger,
		}),
		middleware.StructuredLogger(middleware.LoggingConfig{
			Logger:        logger,
			SlowThreshold: 500 * time.Millisecond,
			SkipPaths:     skipPaths,
			SkipPrefixes:  skipPrefixes,
		}),
		chiMiddleware.Recoverer,
		chiMiddleware.Compress(5),
		middleware.I18n(services.I18n),
	)

	health := func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"ts":     time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
	r.Get("/healthz", health)
	// Alias for Docker health check
	r.Get("/health", health)
	r.Get("/_internal/ready", func(w http.ResponseWriter, _ *http.Request) {
		if options.readiness != nil {
			if err := options.readiness(); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	if cfg.Metrics.Enabled {
		var metricsHandler http.Handler = promhttp.Handler()
		if options.registry != nil {
			metricsHandler = promhttp.HandlerFor(options.registry, promhttp.HandlerOpts{})
		}
		if cfg.Metrics.Token != "" {
			r.With(middleware.MetricsGuard(cfg.Metrics.Token)).Handle("/metrics", metricsHandler)
		} else {
			r.Handle("/metrics", metricsHandler)
		}
	}

	if options.uploadsDir != "" {
		base := uploadsBase(options.uploadsBaseURL)
		files := http.StripPrefix(base+"/", http.FileServer(http.Dir(options.uploadsDir)))
		r.Get(base+"/*", func(w http.ResponseWriter, req *http.Request) {
			// 不返回目录列表
			if strings.HasSuffix(req.URL.Path, "/") {
				http.NotFound(w, req)
				return
			}
			files.ServeHTTP(w, req)
		})
	}

	r.Route("/api/v1", func(v1 chi.Router) {
		registerPassportRoutes(v1, services)
		registerGuestRoutes(v1, services)
		registerPaymentRoutes(v1, services)
		registerUserRoutes(v1, services)
		registerAdminRoutes(v1, services)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		logger.Warn("unmapped route hit", "method", req.Method, "path", req.URL.Path)
		handler.RespondErrorI18n(req.Context(), w, http.StatusNotFound, "error.not_found", services.I18n)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		handler.RespondErrorI18n(req.Context(), w, http.StatusMethodNotAllowed, "error.method_not_allowed", services.I18n)
	})

	return r
}

func registerPassportRoutes(v1 chi.Router, services Services) {
	h := handler.NewPassportHandler(services.Auth, services.Register, services.I18n)
	v1.Route("/passport/auth", func(auth chi.Router) {
		auth.Post("/register", h.Register)
		auth.Post("/login", h.Login)
		auth.Post("/refresh", h.Refresh)
	})
}

func registerGuestRoutes(v1 chi.Router, services Services) {
	h := handler.NewGuestHandler(services.Category, services.Product, services.I18n)
	v1.Route("/guest", func(guest chi.Router) {
		guest.Get("/categories", h.Categories)
		guest.Get("/products", h.Products)
		guest.Get("/products/{id}", h.Product)
	})
}

func registerPaymentRoutes(v1 chi.Router, services Services) {
	h := handler.NewPaymentWebhookHandler(services.Checkout, services.I18n)
	v1.Post("/payment/webhook/stripe", h.Stripe)
}

func registerUserRoutes(v1 chi.Router, services Services) {
	userHandler := handler.NewUserHandler(services.User, services.Auth, services.I18n)
	addressHandler := handler.NewAddressHandler(services.Address, services.I18n)
	wishlistHandler := handler.NewWishlistHandler(services.Wishlist, services.I18n)
	cartHandler := handler.NewCartHandler(services.Cart, services.I18n)
	orderHandler := handler.NewOrderHandler(services.Checkout, services.Order, services.Tracking, services.I18n)

	v1.Route("/user", func(user chi.Router) {
		user.Use(middleware.UserGuard(services.Auth))

		user.Get("/info", userHandler.Info)
		user.Post("/update", userHandler.Update)
		user.Post("/changePassword", userHandler.ChangePassword)
		user.Post("/logout", userHandler.Logout)

		user.Route("/addresses", func(r chi.Router) {
			r.Get("/", addressHandler.List)
			r.Post("/", addressHandler.Create)
			r.Get("/{id}", addressHandler.Get)
			r.Put("/{id}", addressHandler.Update)
			r.Delete("/{id}", addressHandler.Delete)
		})

		user.Route("/wishlist", func(r chi.Router) {
			r.Get("/", wishlistHandler.List)
			r.Post("/", wishlistHandler.Add)
			r.Post("/{productID}", wishlistHandler.Add)
			r.Delete("/{productID}", wishlistHandler.Remove)
			r.Post("/{productID}/move-to-cart", wishlistHandler.MoveToCart)
		})

		user.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.View)
			r.Post("/", cartHandler.Add)
			r.Delete("/", cartHandler.Clear)
			r.Put("/{productID}", cartHandler.SetQuantity)
			r.Delete("/{productID}", cartHandler.Remove)
		})

		user.Post("/checkout", orderHandler.Checkout)
		user.Route("/orders", func(r chi.Router) {
			r.Get("/", orderHandler.List)
			r.Get("/{id}", orderHandler.Detail)
			r.Post("/{id}/cancel", orderHandler.Cancel)
			r.Post("/{id}/pay", orderHandler.Pay)
			r.Get("/{id}/tracking", orderHandler.Tracking)
		})
	})
}

func registerAdminRoutes(v1 chi.Router, services Services) {
	userHandler := handler.NewAdminUserHandler(services.AdminUser, services.I18n)
	categoryHandler := handler.NewAdminCategoryHandler(services.Category, services.I18n)
	productHandler := handler.NewAdminProductHandler(services.Product, services.I18n)
	orderHandler := handler.NewAdminOrderHandler(services.Order, services.Tracking, services.I18n)
	uploadHandler := handler.NewAdminUploadHandler(services.Upload, services.I18n)
	dashboardHandler := handler.NewAdminDashboardHandler(services.Dashboard, services.I18n)
	systemHandler := handler.NewAdminSystemHandler(services.AdminSystem, services.AdminSettings, services.I18n)

	v1.Route("/admin", func(admin chi.Router) {
		admin.Use(middleware.AdminGuard(services.Auth, services.Authorizer))

		admin.Get("/dashboard", dashboardHandler.Summary)

		admin.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.List)
			r.Post("/", userHandler.Create)
			r.Get("/{id}", userHandler.Get)
			r.Post("/{id}/ban", userHandler.Ban)
			r.Post("/{id}/role", userHandler.Role)
		})

		admin.Route("/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.List)
			r.Post("/", categoryHandler.Create)
			r.Post("/sort", categoryHandler.Sort)
			r.Put("/{id}", categoryHandler.Update)
			r.Delete("/{id}", categoryHandler.Delete)
		})

		admin.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Post("/", productHandler.Create)
			r.Get("/{id}", productHandler.Get)
			r.Put("/{id}", productHandler.Update)
			r.Delete("/{id}", productHandler.Delete)
			r.Post("/{id}/stock", productHandler.AdjustStock)
			r.Post("/{id}/availability", productHandler.SetAvailability)
		})

		admin.Route("/orders", func(r chi.Router) {
			r.Get("/", orderHandler.List)
			r.Get("/{id}", orderHandler.Detail)
			r.Post("/{id}/status", orderHandler.Transition)
			r.Post("/{id}/cancel", orderHandler.Cancel)
			r.Get("/{id}/tracking", orderHandler.ListTracking)
			r.Post("/{id}/tracking", orderHandler.AddTracking)
			r.Delete("/{id}/tracking/{trackingID}", orderHandler.DeleteTracking)
		})

		admin.Post("/upload", uploadHandler.Upload)

		admin.Route("/system", func(r chi.Router) {
			r.Get("/status", systemHandler.Status)
			r.Get("/settings", systemHandler.Settings)
			r.Post("/settings", systemHandler.SaveSettings)
			r.Post("/notify/test", systemHandler.TestNotification)
		})
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func uploadsBase(baseURL string) string {
	base := "/" + strings.Trim(baseURL, "/")
	if base == "/" {
		return "/uploads"
	}
	return base
}
