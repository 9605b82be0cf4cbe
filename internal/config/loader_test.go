package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
	assert.Equal(t, 12*time.Hour, cfg.Order.CancelWindow)
	assert.Equal(t, 24*time.Hour, cfg.Order.PendingTTL)
	assert.Equal(t, 15.0, cfg.Pricing.TaxRate)
	assert.Equal(t, int64(500), cfg.Pricing.ShippingFee)
	assert.Equal(t, "manual", cfg.Payment.Provider)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	t.Setenv("SHOPBOARD_PRICING_TAX_RATE", "8.5")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("SHOPBOARD_PAYMENT_PROVIDER", "stripe")

	cfg, err := LoadFrom(writeConfig(t, "pricing:\n  tax_rate: 20\n"))
	require.NoError(t, err)
	assert.Equal(t, 8.5, cfg.Pricing.TaxRate)
	assert.Equal(t, "stripe", cfg.Payment.Provider)
	assert.Equal(t, "sk_test_123", cfg.Payment.Stripe.SecretKey)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Pricing: PricingConfig{TaxRate: 10, DefaultMargin: 20},
			Order:   OrderConfig{CancelWindow: 12 * time.Hour},
			Payment: PaymentConfig{Provider: "manual"},
			Storage: StorageConfig{Driver: "local"},
			Cache:   CacheConfig{Driver: "memory"},
		}
	}

	testCases := map[string]struct {
		mutate  func(*Config)
		wantErr bool
	}{
		"valid":             {mutate: func(*Config) {}},
		"negative tax":      {mutate: func(c *Config) { c.Pricing.TaxRate = -1 }, wantErr: true},
		"negative margin":   {mutate: func(c *Config) { c.Pricing.DefaultMargin = -5 }, wantErr: true},
		"zero cancel":       {mutate: func(c *Config) { c.Order.CancelWindow = 0 }, wantErr: true},
		"stripe no key":     {mutate: func(c *Config) { c.Payment.Provider = "stripe" }, wantErr: true},
		"unknown provider":  {mutate: func(c *Config) { c.Payment.Provider = "paypal" }, wantErr: true},
		"s3 no bucket":      {mutate: func(c *Config) { c.Storage.Driver = "s3" }, wantErr: true},
		"redis no addr":     {mutate: func(c *Config) { c.Cache.Driver = "redis" }, wantErr: true},
		"redis with addr":   {mutate: func(c *Config) { c.Cache.Driver = "redis"; c.Cache.Redis.Addr = "localhost:6379" }},
		"unknown cache":     {mutate: func(c *Config) { c.Cache.Driver = "memcached" }, wantErr: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
