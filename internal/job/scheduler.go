// 文件路径: internal/job/scheduler.go
// 模块说明: 基于 robfig/cron 的任务调度器，负责注册、超时、统一日志与优雅停机，也支持按名称手动执行。
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/creamcroissant/shopboard/internal/support/logging"
)

// Runnable 表示由调度器触发的后台任务。
type Runnable interface {
	Name() string
	Run(ctx context.Context) error
}

// ErrUnknownJob 表示按名称找不到任务。
var ErrUnknownJob = errors.New("scheduler: unknown job / 未知任务")

// Entry 描述一个已注册任务。
type Entry struct {
	Name string    `json:"name"`
	Spec string    `json:"spec"`
	Next time.Time `json:"next"`
}

type registered struct {
	id       cron.EntryID
	spec     string
	runnable Runnable
}

// Scheduler 封装 cron，并提供日志与优雅停机。
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
	mu      sync.Mutex
	started bool
	jobs    map[string]registered
}

const defaultJobTimeout = 2 * time.Minute

// NewScheduler 构建支持秒与自然描述的调度器。
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Discard()
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser))
	return &Scheduler{cron: c, logger: logger, timeout: defaultJobTimeout, jobs: make(map[string]registered)}
}

// Register 绑定 cron 表达式与任务。spec 为空时跳过，用于在配置里关闭某个任务。
func (s *Scheduler) Register(spec string, runnable Runnable) (cron.EntryID, error) {
	if runnable == nil {
		return 0, fmt.Errorf("scheduler: runnable is required / runnable 不能为空")
	}
	if spec == "" {
		s.logger.Info("job disabled", "job", runnable.Name())
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[runnable.Name()]; exists {
		return 0, fmt.Errorf("scheduler: job %q already registered / 任务重复注册", runnable.Name())
	}
	entryID, err := s.cron.AddFunc(spec, s.wrap(runnable))
	if err != nil {
		return 0, fmt.Errorf("scheduler: job %q: %w", runnable.Name(), err)
	}
	s.jobs[runnable.Name()] = registered{id: entryID, spec: spec, runnable: runnable}
	s.logger.Info("job registered", "job", runnable.Name(), "spec", spec)
	return entryID, nil
}

// Entries 按名称排序返回已注册任务。
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.jobs))
	for name, reg := range s.jobs {
		out = append(out, Entry{Name: name, Spec: reg.spec, Next: s.cron.Entry(reg.id).Next})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RunNow 立即同步执行指定任务，不影响 cron 计划。
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	reg, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return reg.runnable.Run(ctx)
}

// Start 启动调度器并执行任务。
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.cron.Start()
	s.started = true
}

// Stop 停止调度器，返回的 context 在执行中的任务结束后完成。
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return context.Background()
	}
	s.started = false
	return s.cron.Stop()
}

// wrap 包装任务，提供超时与统一日志。
func (s *Scheduler) wrap(runnable Runnable) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		start := time.Now()
		if err := runnable.Run(ctx); err != nil {
			s.logger.Error("job failed", "job", runnable.Name(), "error", err, "elapsed", time.Since(start))
			return
		}
		s.logger.Debug("job completed", "job", runnable.Name(), "elapsed", time.Since(start))
	}
}
