package config

import (
	"log/slog"
	"time"
)

// Config 汇总应用的全部配置。
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Order     OrderConfig     `mapstructure:"order"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	Storage   StorageConfig   `mapstructure:"storage"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
}

// HTTPConfig 定义 HTTP 服务配置。
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	TrustedProxies  []string      `mapstructure:"trusted_proxies"`
}

// LogConfig 定义日志配置。
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	AddSource   bool   `mapstructure:"add_source"`
	Environment string `mapstructure:"environment"`
}

// DBConfig 定义数据库配置。
type DBConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// AuthConfig 定义认证配置。
type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
	Issuer     string        `mapstructure:"issuer"`
	Audience   string        `mapstructure:"audience"`
	Leeway     time.Duration `mapstructure:"leeway"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

// MetricsConfig 定义 Prometheus 指标配置。
type MetricsConfig struct {
	Enabled   bool      `mapstructure:"enabled"`
	Namespace string    `mapstructure:"namespace"`
	Subsystem string    `mapstructure:"subsystem"`
	Token     string    `mapstructure:"token"`
	Buckets   []float64 `mapstructure:"buckets"`
}

// CacheConfig 选择缓存后端。
type CacheConfig struct {
	Driver     string        `mapstructure:"driver"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	Redis      RedisConfig   `mapstructure:"redis"`
}

// RedisConfig 定义 Redis 连接参数。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PricingConfig 定义定价、税率与运费规则，金额单位为分。
type PricingConfig struct {
	TaxRate               float64 `mapstructure:"tax_rate"`
	DefaultMargin         float64 `mapstructure:"default_margin"`
	Currency              string  `mapstructure:"currency"`
	ShippingFee           int64   `mapstructure:"shipping_fee"`
	FreeShippingThreshold int64   `mapstructure:"free_shipping_threshold"`
	LowStockThreshold     int     `mapstructure:"low_stock_threshold"`
}

// OrderConfig 定义订单时间窗口。
type OrderConfig struct {
	CancelWindow time.Duration `mapstructure:"cancel_window"`
	PendingTTL   time.Duration `mapstructure:"pending_ttl"`
}

// PaymentConfig 选择支付网关。
type PaymentConfig struct {
	Provider string       `mapstructure:"provider"`
	Stripe   StripeConfig `mapstructure:"stripe"`
}

// StripeConfig 定义 Stripe 密钥。
type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// StorageConfig 选择上传存储后端。
type StorageConfig struct {
	Driver  string             `mapstructure:"driver"`
	MaxSize int64              `mapstructure:"max_size"`
	Local   LocalStorageConfig `mapstructure:"local"`
	S3      S3StorageConfig    `mapstructure:"s3"`
}

type LocalStorageConfig struct {
	Dir     string `mapstructure:"dir"`
	BaseURL string `mapstructure:"base_url"`
}

type S3StorageConfig struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
	PublicURL string `mapstructure:"public_url"`
	Endpoint  string `mapstructure:"endpoint"`
}

// RateLimitConfig 定义登录限流。
type RateLimitConfig struct {
	LoginAttempts int           `mapstructure:"login_attempts"`
	LoginWindow   time.Duration `mapstructure:"login_window"`
	RequestsPerIP int           `mapstructure:"requests_per_ip"`
}

// CORSConfig 定义跨域白名单。
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// JobsConfig 定义定时任务的 cron 表达式。
type JobsConfig struct {
	ExpireOrders  string `mapstructure:"expire_orders"`
	Notifications string `mapstructure:"notifications"`
	LowStock      string `mapstructure:"low_stock"`
	TokenCleanup  string `mapstructure:"token_cleanup"`
	// AlertEmail 接收低库存提醒，留空则只记录日志与指标。
	AlertEmail string `mapstructure:"alert_email"`
}

func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
