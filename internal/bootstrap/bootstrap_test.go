package bootstrap

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/shopboard/internal/config"
	"github.com/creamcroissant/shopboard/internal/payment"
	"github.com/creamcroissant/shopboard/internal/repository"
	"github.com/creamcroissant/shopboard/internal/repository/sqlite"
	"github.com/creamcroissant/shopboard/internal/support/logging"
)

func TestResolveJWTSigningKey(t *testing.T) {
	db, err := OpenDatabase(config.DBConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "keys.db")}, true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	settings := sqlite.NewStore(db).Settings()
	ctx := context.Background()
	now := func() time.Time { return time.Unix(1_700_000_000, 0) }

	key, err := resolveJWTSigningKey(ctx, settings, "  from-config  ", jwtSigningKeyDeps{now: now})
	require.NoError(t, err)
	assert.Equal(t, "from-config", key.Value)
	assert.Equal(t, JWTSigningKeySourceConfig, key.Source)
	assert.True(t, key.Weak)

	random := bytes.NewReader(bytes.Repeat([]byte{0xab}, jwtSigningKeyBytes))
	generated, err := resolveJWTSigningKey(ctx, settings, defaultJWTSigningKey, jwtSigningKeyDeps{now: now, randReader: random})
	require.NoError(t, err)
	assert.Equal(t, JWTSigningKeySourceGenerated, generated.Source)
	assert.Len(t, generated.Value, jwtSigningKeyBytes*2)
	assert.False(t, generated.Weak)

	stored, err := settings.Get(ctx, jwtSigningKeySettingKey)
	require.NoError(t, err)
	assert.Equal(t, jwtSigningKeyCategory, stored.Category)
	assert.Equal(t, int64(1_700_000_000), stored.UpdatedAt)

	again, err := resolveJWTSigningKey(ctx, settings, "", jwtSigningKeyDeps{now: now})
	require.NoError(t, err)
	assert.Equal(t, generated.Value, again.Value)
	assert.Equal(t, JWTSigningKeySourceSettings, again.Source)

	_, err = resolveJWTSigningKey(ctx, nil, "", jwtSigningKeyDeps{})
	assert.ErrorContains(t, err, "SHOPBOARD_AUTH_SIGNING_KEY")

	fresh, err := OpenDatabase(config.DBConfig{Path: filepath.Join(t.TempDir(), "fresh.db")}, true)
	require.NoError(t, err)
	t.Cleanup(func() { fresh.Close() })
	_, err = resolveJWTSigningKey(ctx, sqlite.NewStore(fresh).Settings(), "", jwtSigningKeyDeps{randReader: bytes.NewReader(nil)})
	assert.Error(t, err)
}

func TestResolveJWTSigningKey_LostRace(t *testing.T) {
	db, err := OpenDatabase(config.DBConfig{Path: filepath.Join(t.TempDir(), "race.db")}, true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	settings := &racingSettings{SettingRepository: sqlite.NewStore(db).Settings(), winner: "persisted-by-peer"}

	key, err := resolveJWTSigningKey(context.Background(), settings, "", jwtSigningKeyDeps{})
	require.NoError(t, err)
	assert.Equal(t, "persisted-by-peer", key.Value)
	assert.Equal(t, JWTSigningKeySourceSettings, key.Source)
}

// racingSettings 模拟另一个实例在读取与写入之间抢先落库。
type racingSettings struct {
	repository.SettingRepository
	winner string
}

func (r *racingSettings) CreateIfAbsent(ctx context.Context, setting *repository.Setting) (bool, error) {
	peer := *setting
	peer.Value = r.winner
	if _, err := r.SettingRepository.CreateIfAbsent(ctx, &peer); err != nil {
		return false, err
	}
	return r.SettingRepository.CreateIfAbsent(ctx, setting)
}

func TestOpenDatabase_UnsupportedDriver(t *testing.T) {
	_, err := OpenDatabase(config.DBConfig{Driver: "postgres", Path: "x.db"}, false)
	assert.Error(t, err)
	_, err = OpenSQLite("")
	assert.Error(t, err)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	body := []byte("database:\n  path: " + filepath.Join(dir, "shop.db") +
		"\nauth:\n  bcrypt_cost: 4\nstorage:\n  local:\n    dir: " + filepath.Join(dir, "uploads") +
		"\nmetrics:\n  enabled: false\n")
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, body, 0o600))
	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)
	return cfg
}

func TestBuildInfrastructure(t *testing.T) {
	ctx := context.Background()

	testCases := map[string]struct {
		mutate  func(*config.Config)
		wantErr bool
	}{
		"defaults": {},
		"unresolved signing key": {
			mutate:  func(c *config.Config) { c.Auth.SigningKey = "" },
			wantErr: true,
		},
		"unknown cache": {
			mutate:  func(c *config.Config) { c.Cache.Driver = "memcached" },
			wantErr: true,
		},
		"unknown gateway": {
			mutate:  func(c *config.Config) { c.Payment.Provider = "paypal" },
			wantErr: true,
		},
		"stripe without key": {
			mutate:  func(c *config.Config) { c.Payment.Provider = payment.ProviderStripe },
			wantErr: true,
		},
		"unknown storage": {
			mutate:  func(c *config.Config) { c.Storage.Driver = "ftp" },
			wantErr: true,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Auth.SigningKey = "bootstrap-test-signing-key"
			if tc.mutate != nil {
				tc.mutate(cfg)
			}
			infra, err := BuildInfrastructure(ctx, cfg, logging.Discard())
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { infra.Close() })
			assert.Equal(t, payment.ProviderManual, infra.Gateway.Name())
			assert.NotNil(t, infra.Uploader)
			assert.NotNil(t, infra.Queue)
		})
	}
}

func TestNewApp(t *testing.T) {
	cfg := testConfig(t)
	app, err := NewApp(context.Background(), cfg, logging.Discard(), BuildInfo{Version: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	assert.NotEmpty(t, cfg.Auth.SigningKey)
	names := make([]string, 0)
	for _, entry := range app.Scheduler.Entries() {
		names = append(names, entry.Name)
	}
	assert.Equal(t, []string{"notify.email", "orders.expire", "products.low_stock", "tokens.cleanup"}, names)
	require.NoError(t, app.Scheduler.RunNow(context.Background(), "orders.expire"))

	router := app.Router()
	for _, path := range []string{"/healthz", "/_internal/ready", "/api/v1/guest/categories"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	require.NoError(t, app.Close())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_internal/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Error(t, app.DB.Ping())
}
