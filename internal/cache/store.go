// 文件路径: internal/cache/store.go
// 模块说明: 缓存抽象，商品详情、看板汇总、登录限流与刷新令牌吊销共用。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ErrNotInteger 表示 Increment 作用在非整数值上。
var ErrNotInteger = errors.New("cache value is not an integer / 缓存值不是整数")

// Store 定义业务层使用的缓存接口，内存与 Redis 两种实现。
type Store interface {
	SetString(ctx context.Context, key, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	// Increment adds delta to the stored integer, returning the updated value.
	// The ttl is applied only when the key is created.
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	Namespace(prefix string) Store
}

// Options 配置内存缓存行为。
type Options struct {
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
	Prefix          string
}

// NewStore 创建基于 go-cache 的进程内缓存。
func NewStore(opts Options) Store {
	defaultTTL := opts.DefaultTTL
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	cleanup := opts.CleanupInterval
	if cleanup <= 0 {
		cleanup = defaultTTL
	}
	return &memoryStore{
		backend:    gocache.New(defaultTTL, cleanup),
		defaultTTL: defaultTTL,
		prefix:     normalizePrefix(opts.Prefix),
	}
}

type memoryStore struct {
	backend    *gocache.Cache
	defaultTTL time.Duration
	prefix     string
}

func (s *memoryStore) SetString(_ context.Context, key, value string, ttl time.Duration) error {
	s.backend.Set(s.key(key), value, s.ttl(ttl))
	return nil
}

func (s *memoryStore) GetString(_ context.Context, key string) (string, bool, error) {
	raw, ok := s.backend.Get(s.key(key))
	if !ok {
		return "", false, nil
	}
	switch v := raw.(type) {
	case string:
		return v, true, nil
	case []byte:
		return string(v), true, nil
	case int64:
		return fmt.Sprintf("%d", v), true, nil
	}
	return "", false, nil
}

func (s *memoryStore) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	s.backend.Set(s.key(key), data, s.ttl(ttl))
	return nil
}

func (s *memoryStore) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	raw, ok := s.backend.Get(s.key(key))
	if !ok {
		return false, nil
	}
	data, ok := raw.([]byte)
	if !ok {
		return false, nil
	}
	if dest == nil {
		return true, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

func (s *memoryStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.backend.Delete(s.key(key))
	}
	return nil
}

func (s *memoryStore) Increment(_ context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	k := s.key(key)
	// Add 仅在 key 不存在时成功，已存在时的错误可以忽略，ttl 因此只在首次写入时生效。
	_ = s.backend.Add(k, int64(0), s.ttl(ttl))
	value, err := s.backend.IncrementInt64(k, delta)
	if err != nil {
		return 0, ErrNotInteger
	}
	return value, nil
}

func (s *memoryStore) Namespace(prefix string) Store {
	return &memoryStore{
		backend:    s.backend,
		defaultTTL: s.defaultTTL,
		prefix:     joinPrefixes(s.prefix, prefix),
	}
}

func (s *memoryStore) key(key string) string {
	return prefixed(s.prefix, key)
}

func (s *memoryStore) ttl(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return s.defaultTTL
	}
	return ttl
}

func prefixed(prefix, key string) string {
	key = strings.TrimSpace(key)
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix
	}
	return prefix + ":" + key
}

func normalizePrefix(prefix string) string {
	return strings.Trim(prefix, ": ")
}

func joinPrefixes(parts ...string) string {
	var normalized []string
	for _, part := range parts {
		if trimmed := normalizePrefix(part); trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return strings.Join(normalized, ":")
}
