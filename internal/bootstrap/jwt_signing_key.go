// 文件路径: internal/bootstrap/jwt_signing_key.go
// 模块说明: 解析 JWT 签名密钥，优先级为配置/环境变量 > settings 表 > 生成并持久化。
package bootstrap

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/creamcroissant/shopboard/internal/repository"
)

type JWTSigningKeySource string

const (
	defaultJWTSigningKey    = "change-me"
	jwtSigningKeySettingKey = "auth_signing_key"
	jwtSigningKeyCategory   = "security"
	jwtSigningKeyBytes      = 32
	// HS256 建议至少 256 位
	jwtSigningKeyMinLen = 32

	JWTSigningKeySourceConfig    JWTSigningKeySource = "config"
	JWTSigningKeySourceSettings  JWTSigningKeySource = "settings"
	JWTSigningKeySourceGenerated JWTSigningKeySource = "generated"
)

const signingKeyHint = "set SHOPBOARD_AUTH_SIGNING_KEY to override"

// SigningKey 是解析结果。Weak 表示配置的密钥短于建议长度。
type SigningKey struct {
	Value  string
	Source JWTSigningKeySource
	Weak   bool
}

type jwtSigningKeyDeps struct {
	now        func() time.Time
	randReader io.Reader
}

// ResolveJWTSigningKey resolves the JWT signing key with priority:
// config/env > settings > generate-and-persist.
func ResolveJWTSigningKey(ctx context.Context, settings repository.SettingRepository, configuredKey string, now func() time.Time) (SigningKey, error) {
	return resolveJWTSigningKey(ctx, settings, configuredKey, jwtSigningKeyDeps{
		now:        now,
		randReader: rand.Reader,
	})
}

func resolveJWTSigningKey(ctx context.Context, settings repository.SettingRepository, configuredKey string, deps jwtSigningKeyDeps) (SigningKey, error) {
	if key := strings.TrimSpace(configuredKey); key != "" && key != defaultJWTSigningKey {
		return SigningKey{Value: key, Source: JWTSigningKeySourceConfig, Weak: len(key) < jwtSigningKeyMinLen}, nil
	}

	if settings == nil {
		return SigningKey{}, fmt.Errorf("resolve jwt signing key: settings store is required when auth.signing_key is unset; %s", signingKeyHint)
	}
	if deps.now == nil {
		deps.now = time.Now
	}
	if deps.randReader == nil {
		deps.randReader = rand.Reader
	}

	stored, err := readStoredSigningKey(ctx, settings)
	if err != nil {
		return SigningKey{}, fmt.Errorf("read jwt signing key from settings: %w; %s", err, signingKeyHint)
	}
	if stored != "" {
		return SigningKey{Value: stored, Source: JWTSigningKeySourceSettings}, nil
	}

	buf := make([]byte, jwtSigningKeyBytes)
	if _, err := io.ReadFull(deps.randReader, buf); err != nil {
		return SigningKey{}, fmt.Errorf("generate jwt signing key: %w; %s", err, signingKeyHint)
	}
	generated := hex.EncodeToString(buf)

	created, err := settings.CreateIfAbsent(ctx, &repository.Setting{
		Key:       jwtSigningKeySettingKey,
		Value:     generated,
		Category:  jwtSigningKeyCategory,
		UpdatedAt: deps.now().Unix(),
	})
	if err != nil {
		return SigningKey{}, fmt.Errorf("persist jwt signing key to settings: %w; %s", err, signingKeyHint)
	}
	if created {
		return SigningKey{Value: generated, Source: JWTSigningKeySourceGenerated}, nil
	}

	// 另一个进程抢先写入，以已持久化的值为准
	stored, err = readStoredSigningKey(ctx, settings)
	if err != nil {
		return SigningKey{}, fmt.Errorf("read jwt signing key after persistence: %w; %s", err, signingKeyHint)
	}
	if stored == "" {
		return SigningKey{}, fmt.Errorf("jwt signing key not found after persistence; %s", signingKeyHint)
	}
	return SigningKey{Value: stored, Source: JWTSigningKeySourceSettings}, nil
}

func readStoredSigningKey(ctx context.Context, settings repository.SettingRepository) (string, error) {
	entry, err := settings.Get(ctx, jwtSigningKeySettingKey)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(entry.Value), nil
}
