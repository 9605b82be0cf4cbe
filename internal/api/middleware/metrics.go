// 文件路径: internal/api/middleware/metrics.go
// 模块说明: HTTP 请求的 Prometheus 指标与 /metrics 访问令牌校验。
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig holds configuration for the metrics middleware.
type MetricsConfig struct {
	// Namespace is the prefix for all metrics (default: "shopboard")
	Namespace string
	// Subsystem is an optional subsystem name
	Subsystem string
	// SkipPaths are paths that should not be tracked
	SkipPaths []string
	// Buckets defines the histogram buckets for request duration
	Buckets []float64
	// Registerer receives the collectors (default: prometheus.DefaultRegisterer)
	Registerer prometheus.Registerer
}

// DefaultMetricsConfig returns the default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "shopboard",
		Subsystem: "http",
		SkipPaths: []string{"/health", "/healthz", "/_internal/ready", "/metrics"},
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}
}

// Metrics holds the Prometheus metrics collectors.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	responseSize     *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with the given configuration.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if cfg.Namespace == "" {
		cfg.Namespace = "shopboard"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "http"
	}
	if len(cfg.Buckets) == 0 {
		cfg.Buckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	}

	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(cfg.Registerer)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "area", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Request latency in seconds.",
				Buckets:   cfg.Buckets,
			},
			[]string{"method", "path"},
		),
		requestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_in_flight",
				Help:      "Current number of requests being served.",
			},
		),
		responseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "response_size_bytes",
				Help:      "Response size in bytes.",
				Buckets:   prometheus.ExponentialBuckets(128, 4, 8), // 128B 到 2MB
			},
			[]string{"method", "path"},
		),
	}
}

// Middleware returns an HTTP middleware that collects metrics.
// 处理器 panic 时先按 500 记账再继续向上抛给 Recoverer。
func (m *Metrics) Middleware(cfg MetricsConfig) func(http.Handler) http.Handler {
	skipSet := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skipSet[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skipSet[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			m.requestsInFlight.Inc()
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				m.requestsInFlight.Dec()
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				rec := recover()
				if rec != nil {
					status = http.StatusInternalServerError
				}
				pattern := routePattern(r)
				m.requestsTotal.WithLabelValues(r.Method, pattern, areaOf(pattern), strconv.Itoa(status)).Inc()
				m.requestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
				m.responseSize.WithLabelValues(r.Method, pattern).Observe(float64(ww.BytesWritten()))
				if rec != nil {
					panic(rec)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// areaOf 把 /api/v1/<area>/... 归为 guest、user、admin 等业务区域。
func areaOf(pattern string) string {
	rest, ok := strings.CutPrefix(pattern, "/api/v1/")
	if !ok {
		return "system"
	}
	area, _, _ := strings.Cut(rest, "/")
	if area == "" {
		return "system"
	}
	return area
}

// routePattern 返回 chi 匹配到的路由模板（如 /api/v1/user/orders/{id}），
// 避免把商品、订单 ID 写进标签。
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// MetricsGuard validates the metrics token.
func MetricsGuard(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := extractBearer(r.Header.Get("Authorization"))
			if token == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
