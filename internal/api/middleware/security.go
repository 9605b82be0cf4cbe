// 文件路径: internal/api/middleware/security.go
// 模块说明: 安全中间件：按 IP 限流、按路由的请求体上限、CORS 以及受信代理下的客户端 IP 解析。
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/creamcroissant/shopboard/internal/security"
)

// RateLimitConfig Rate Limit 配置
type RateLimitConfig struct {
	Limiter   *security.RateLimiter      // 计数存储（内存或 Redis）
	Limit     int                        // 每个窗口的请求数
	Window    time.Duration              // 时间窗口
	KeyFunc   func(*http.Request) string // 获取限流 key 的函数
	SkipPaths []string                   // 跳过限流的路径
	Logger    *slog.Logger
}

// RateLimit 按 key（默认客户端 IP）做固定窗口限流，超限返回 429。
func RateLimit(config RateLimitConfig) func(http.Handler) http.Handler {
	if config.Limit == 0 {
		config.Limit = 60
	}
	if config.Window == 0 {
		config.Window = time.Minute
	}
	if config.KeyFunc == nil {
		config.KeyFunc = ClientIP
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	skipPaths := make(map[string]bool)
	for _, p := range config.SkipPaths {
		skipPaths[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.Limiter == nil || skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			res, err := config.Limiter.Allow(r.Context(), "http:"+config.KeyFunc(r), config.Limit, config.Window)
			if err != nil {
				// 计数存储故障时放行，避免整站不可用。
				config.Logger.Warn("rate limit check failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				retry := int(time.Until(res.ResetAt).Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BodyLimitConfig 请求体大小限制配置
type BodyLimitConfig struct {
	MaxBytes  int64            // 默认上限
	Overrides map[string]int64 // 按路径覆盖，如图片上传
}

// BodyLimit 限制请求体大小，超限时下游读取会得到 *http.MaxBytesError。
func BodyLimit(config BodyLimitConfig) func(http.Handler) http.Handler {
	if config.MaxBytes == 0 {
		config.MaxBytes = 1 << 20
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := config.MaxBytes
			if override, ok := config.Overrides[r.URL.Path]; ok {
				limit = override
			}
			if r.ContentLength > limit {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins   []string // 允许的来源，"*" 表示所有
	AllowedMethods   []string // 允许的 HTTP 方法
	AllowedHeaders   []string // 允许的请求头
	ExposedHeaders   []string // 暴露给客户端的响应头
	AllowCredentials bool     // 是否允许携带凭证
	MaxAge           int      // 预检请求缓存时间（秒）
}

// CORS 跨域资源共享中间件
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = []string{"*"}
	}
	if len(config.AllowedMethods) == 0 {
		config.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}
	}
	if len(config.AllowedHeaders) == 0 {
		config.AllowedHeaders = []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Lang", "Stripe-Signature"}
	}

	allowAll := len(config.AllowedOrigins) == 1 && config.AllowedOrigins[0] == "*"
	allowedOrigins := make(map[string]bool)
	for _, o := range config.AllowedOrigins {
		allowedOrigins[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// 检查来源是否允许
			var allowOrigin string
			if allowAll {
				if config.AllowCredentials {
					allowOrigin = origin
				} else {
					allowOrigin = "*"
				}
			} else if allowedOrigins[origin] {
				allowOrigin = origin
			}

			if allowOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowOrigin)

				if config.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}

				if len(config.ExposedHeaders) > 0 {
					w.Header().Set("Access-Control-Expose-Headers", strings.Join(config.ExposedHeaders, ", "))
				}

				// 预检请求
				if r.Method == http.MethodOptions {
					w.Header().Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
					w.Header().Set("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))
					if config.MaxAge > 0 {
						w.Header().Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
					}
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

var (
	trustedMu      sync.RWMutex
	trustedProxies = mustPrefixes(DefaultTrustedProxies)
)

// DefaultTrustedProxies 是默认信任的反向代理网段（本机与私有网段）。
var DefaultTrustedProxies = []string{"127.0.0.0/8", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "fc00::/7"}

// SetTrustedProxies 替换信任的代理网段；传空切片表示不信任任何代理。
func SetTrustedProxies(cidrs []string) error {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			return fmt.Errorf("parse trusted proxy %q: %w", cidr, err)
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	trustedMu.Lock()
	trustedProxies = prefixes
	trustedMu.Unlock()
	return nil
}

// ClientIP 返回客户端 IP：仅当直连方是受信代理时才采用 X-Forwarded-For / X-Real-IP。
func ClientIP(r *http.Request) string {
	remote, ok := parseAddr(r.RemoteAddr)
	if !ok {
		return strings.TrimSpace(r.RemoteAddr)
	}
	if !isTrustedProxy(remote) {
		return remote.String()
	}

	// X-Forwarded-For 从右往左跳过受信代理，取第一个外部地址
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, ok := parseAddr(hops[i])
			if !ok {
				break
			}
			if !isTrustedProxy(hop) || i == 0 {
				return hop.String()
			}
		}
	}
	if xri, ok := parseAddr(r.Header.Get("X-Real-IP")); ok {
		return xri.String()
	}
	return remote.String()
}

func parseAddr(raw string) (netip.Addr, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return netip.Addr{}, false
	}
	if ap, err := netip.ParseAddrPort(trimmed); err == nil {
		return ap.Addr().Unmap(), true
	}
	addr, err := netip.ParseAddr(trimmed)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func isTrustedProxy(addr netip.Addr) bool {
	trustedMu.RLock()
	defer trustedMu.RUnlock()
	for _, prefix := range trustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func mustPrefixes(cidrs []string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		prefixes = append(prefixes, netip.MustParsePrefix(cidr))
	}
	return prefixes
}
