// 文件路径: internal/api/middleware/logging.go
// 模块说明: 访问日志中间件，记录请求 ID、路由、登录身份与慢请求，并脱敏敏感查询参数。
package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/creamcroissant/shopboard/internal/api/requestctx"
)

// LoggingConfig 访问日志配置
type LoggingConfig struct {
	Logger        *slog.Logger
	SlowThreshold time.Duration // 超过即记为 WARN
	SkipPaths     []string      // 精确匹配
	SkipPrefixes  []string      // 前缀匹配，如本地上传的静态文件
	RedactParams  []string      // 查询参数中需要打码的 key
}

var defaultRedactParams = []string{"token", "refresh_token", "client_secret", "password"}

// StructuredLogger 结构化访问日志
func StructuredLogger(config LoggingConfig) func(http.Handler) http.Handler {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.SlowThreshold == 0 {
		config.SlowThreshold = 500 * time.Millisecond
	}
	if len(config.RedactParams) == 0 {
		config.RedactParams = defaultRedactParams
	}

	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok || hasAnyPrefix(r.URL.Path, config.SkipPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID == "" {
				requestID = "unknown"
			}

			ctx, actor := requestctx.WithActor(r.Context())
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(ww, r.WithContext(ctx))

			duration := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", routePattern(r)),
				slog.Int("status", status),
				slog.Duration("duration", duration),
				slog.String("ip", ClientIP(r)),
				slog.Int("bytes", ww.BytesWritten()),
			}
			if actor.UserID > 0 {
				attrs = append(attrs, slog.Int64("user_id", actor.UserID), slog.String("role", actor.Role))
			}
			if ua := r.Header.Get("User-Agent"); ua != "" {
				attrs = append(attrs, slog.String("user_agent", ua))
			}
			if r.URL.RawQuery != "" {
				attrs = append(attrs, slog.String("query", redactQuery(r.URL.Query(), config.RedactParams)))
			}

			level := slog.LevelInfo
			msg := "request completed"
			switch {
			case status >= 500:
				level, msg = slog.LevelError, "request failed"
			case status >= 400:
				level, msg = slog.LevelWarn, "request error"
			case duration > config.SlowThreshold:
				level, msg = slog.LevelWarn, "slow request"
				attrs = append(attrs, slog.Duration("slow_threshold", config.SlowThreshold))
			}
			config.Logger.LogAttrs(r.Context(), level, msg, attrs...)
		})
	}
}

func redactQuery(values url.Values, keys []string) string {
	for _, key := range keys {
		if _, ok := values[key]; ok {
			values.Set(key, "***")
		}
	}
	return values.Encode()
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
