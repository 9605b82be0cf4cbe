// 文件路径: internal/support/logging/logger.go
// 模块说明: 统一构造 slog 日志实例，服务、任务与中间件共用同一套输出格式。
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options customize the slog logger construction.
type Options struct {
	Level       slog.Level
	Format      string
	AddSource   bool
	Environment string
	// Output defaults to os.Stdout.
	Output io.Writer
}

// New returns a slog.Logger configured according to options (JSON by default).
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: opts.Level, AddSource: opts.AddSource}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "text", "console":
		handler = slog.NewTextHandler(out, handlerOpts)
	default:
		handler = slog.NewJSONHandler(out, handlerOpts)
	}

	logger := slog.New(handler)
	if env := strings.TrimSpace(opts.Environment); env != "" {
		logger = logger.With("env", env)
	}
	return logger
}

// Discard 返回丢弃所有输出的 logger，供测试与 CLI 子命令使用。
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
