// 文件路径: internal/bootstrap/server.go
// 模块说明: 按配置构造 http.Server，未配置的超时使用保守默认值。
package bootstrap

import (
	"net/http"
	"time"

	"github.com/creamcroissant/shopboard/internal/config"
)

// NewHTTPServer constructs a baseline http.Server with conservative defaults.
func NewHTTPServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
	}
}
