package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load 读取 config.yaml、环境变量与 .env，返回合并后的配置。
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom 与 Load 相同，但 path 非空时只读取指定文件。
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/shopboard/")
	}

	v.SetEnvPrefix("SHOPBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("payment.stripe.secret_key", "SHOPBOARD_PAYMENT_STRIPE_SECRET_KEY", "STRIPE_SECRET_KEY"); err != nil {
		return nil, fmt.Errorf("bind env payment.stripe.secret_key: %w", err)
	}
	if err := v.BindEnv("payment.stripe.webhook_secret", "SHOPBOARD_PAYMENT_STRIPE_WEBHOOK_SECRET", "STRIPE_WEBHOOK_SECRET"); err != nil {
		return nil, fmt.Errorf("bind env payment.stripe.webhook_secret: %w", err)
	}
	if err := v.BindEnv("storage.s3.bucket", "SHOPBOARD_STORAGE_S3_BUCKET", "AWS_BUCKET_NAME"); err != nil {
		return nil, fmt.Errorf("bind env storage.s3.bucket: %w", err)
	}
	if err := v.BindEnv("storage.s3.region", "SHOPBOARD_STORAGE_S3_REGION", "AWS_REGION"); err != nil {
		return nil, fmt.Errorf("bind env storage.s3.region: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		// 未找到配置文件时依赖默认值与环境变量。
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := loadDotEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验会导致运行期错误的配置组合。
func (c *Config) Validate() error {
	if c.Pricing.TaxRate < 0 || c.Pricing.TaxRate >= 100 {
		return fmt.Errorf("pricing.tax_rate must be in [0,100) / 税率必须在 0 到 100 之间")
	}
	if c.Pricing.DefaultMargin < 0 {
		return fmt.Errorf("pricing.default_margin must be >= 0 / 利润率不能为负")
	}
	if c.Order.CancelWindow <= 0 {
		return fmt.Errorf("order.cancel_window must be positive / 取消窗口必须为正")
	}
	switch c.Payment.Provider {
	case "manual":
	case "stripe":
		if c.Payment.Stripe.SecretKey == "" {
			return fmt.Errorf("payment.stripe.secret_key is required / 缺少 Stripe 密钥")
		}
	default:
		return fmt.Errorf("unknown payment provider %q / 未知支付网关", c.Payment.Provider)
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required / 缺少 S3 bucket")
		}
	default:
		return fmt.Errorf("unknown storage driver %q / 未知存储驱动", c.Storage.Driver)
	}
	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required / 缺少 Redis 地址")
		}
	default:
		return fmt.Errorf("unknown cache driver %q / 未知缓存驱动", c.Cache.Driver)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", "0.0.0.0:8080")
	v.SetDefault("http.shutdown_timeout", "15s")
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "30s")
	v.SetDefault("http.max_body_bytes", 1<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.environment", "production")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/shopboard.db")

	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.access_ttl", "15m")
	v.SetDefault("auth.refresh_ttl", "168h")
	v.SetDefault("auth.issuer", "shopboard")
	v.SetDefault("auth.audience", "shopboard-client")
	v.SetDefault("auth.leeway", "30s")
	v.SetDefault("auth.bcrypt_cost", 12)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "shopboard")

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.default_ttl", "5m")

	v.SetDefault("pricing.tax_rate", 15)
	v.SetDefault("pricing.default_margin", 30)
	v.SetDefault("pricing.currency", "usd")
	v.SetDefault("pricing.shipping_fee", 500)
	v.SetDefault("pricing.free_shipping_threshold", 5000)
	v.SetDefault("pricing.low_stock_threshold", 5)

	v.SetDefault("order.cancel_window", "12h")
	v.SetDefault("order.pending_ttl", "24h")

	v.SetDefault("payment.provider", "manual")

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.max_size", 5<<20)
	v.SetDefault("storage.local.dir", "data/uploads")
	v.SetDefault("storage.local.base_url", "/uploads")
	v.SetDefault("storage.s3.prefix", "products")

	v.SetDefault("rate_limit.login_attempts", 5)
	v.SetDefault("rate_limit.login_window", "15m")
	v.SetDefault("rate_limit.requests_per_ip", 120)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})

	v.SetDefault("jobs.expire_orders", "@every 5m")
	v.SetDefault("jobs.notifications", "@every 10s")
	v.SetDefault("jobs.low_stock", "0 0 8 * * *")
	v.SetDefault("jobs.token_cleanup", "@daily")
	v.SetDefault("jobs.alert_email", "")
}

func loadDotEnv(v *viper.Viper) error {
	for _, dir := range []string{".", ".."} {
		file := filepath.Clean(filepath.Join(dir, ".env"))
		if _, err := os.Stat(file); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("stat .env: %w", err)
		}

		envViper := viper.New()
		envViper.SetConfigFile(file)
		envViper.SetConfigType("env")
		if err := envViper.ReadInConfig(); err != nil {
			return fmt.Errorf("read .env: %w", err)
		}
		bindLegacyEnv(v, envViper)
	}
	return nil
}

// bindLegacyEnv 把常见的扁平 .env 变量映射到分层配置，真实环境变量仍然优先。
func bindLegacyEnv(target *viper.Viper, source *viper.Viper) {
	mappings := map[string]string{
		"PORT":                  "http.addr",
		"LOG_LEVEL":             "log.level",
		"NODE_ENV":              "log.environment",
		"APP_ENV":               "log.environment",
		"DB_PATH":               "database.path",
		"JWT_SECRET":            "auth.signing_key",
		"JWT_ACCESS_TTL":        "auth.access_ttl",
		"JWT_REFRESH_TTL":       "auth.refresh_ttl",
		"TAX_RATE":              "pricing.tax_rate",
		"PROFIT_MARGIN":         "pricing.default_margin",
		"STRIPE_SECRET_KEY":     "payment.stripe.secret_key",
		"STRIPE_WEBHOOK_SECRET": "payment.stripe.webhook_secret",
		"AWS_BUCKET_NAME":       "storage.s3.bucket",
		"AWS_REGION":            "storage.s3.region",
		"REDIS_ADDR":            "cache.redis.addr",
	}
	for oldKey, newKey := range mappings {
		val := source.GetString(oldKey)
		if val == "" {
			continue
		}
		if oldKey == "PORT" && !strings.Contains(val, ":") {
			val = "0.0.0.0:" + val
		}
		target.Set(newKey, val)
	}
}
