// 文件路径: internal/cache/redis.go
// 模块说明: 基于 go-redis 的缓存实现，多实例部署时共享限流计数与令牌吊销状态。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions 配置 Redis 连接。
type RedisOptions struct {
	Addr       string
	Password   string
	DB         int
	Prefix     string
	DefaultTTL time.Duration
}

type redisStore struct {
	client     redis.UniversalClient
	defaultTTL time.Duration
	prefix     string
}

// NewRedisStore 连接 Redis 并通过 PING 校验可用性。
func NewRedisStore(ctx context.Context, opts RedisOptions) (Store, func() error, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return NewRedisStoreFromClient(client, opts.Prefix, opts.DefaultTTL), client.Close, nil
}

// NewRedisStoreFromClient 包装已有客户端。
func NewRedisStoreFromClient(client redis.UniversalClient, prefix string, defaultTTL time.Duration) Store {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &redisStore{client: client, defaultTTL: defaultTTL, prefix: normalizePrefix(prefix)}
}

func (s *redisStore) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(key), value, s.ttl(ttl)).Err()
}

func (s *redisStore) GetString(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *redisStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return s.client.Set(ctx, s.key(key), data, s.ttl(ttl)).Err()
}

func (s *redisStore) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if dest == nil {
		return true, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

func (s *redisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = s.key(key)
	}
	return s.client.Del(ctx, full...).Err()
}

func (s *redisStore) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	k := s.key(key)
	value, err := s.client.IncrBy(ctx, k, delta).Result()
	if err != nil {
		return 0, err
	}
	if value == delta {
		if err := s.client.Expire(ctx, k, s.ttl(ttl)).Err(); err != nil {
			return value, err
		}
	}
	return value, nil
}

func (s *redisStore) Namespace(prefix string) Store {
	return &redisStore{client: s.client, defaultTTL: s.defaultTTL, prefix: joinPrefixes(s.prefix, prefix)}
}

func (s *redisStore) key(key string) string {
	return prefixed(s.prefix, key)
}

func (s *redisStore) ttl(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return s.defaultTTL
	}
	return ttl
}
