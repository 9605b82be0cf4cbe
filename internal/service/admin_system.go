// 文件路径: internal/service/admin_system.go
// 模块说明: 后台系统状态：版本、运行时长、Go 运行时、主机资源（gopsutil）与通知队列积压。
package service

import (
	"context"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// AdminSystemService 汇总后台需要的系统与队列状态。
type AdminSystemService interface {
	SystemStatus(ctx context.Context) (AdminSystemStatus, error)
}

// NotificationQueueStats 提供通知队列积压指标，避免 async 包循环依赖。
type NotificationQueueStats interface {
	PendingEmails() int
	Dropped() int
}

// HostStatFetcher 封装 gopsutil 调用，测试时可替换。
type HostStatFetcher struct {
	CPUPercent    func(interval time.Duration, percpu bool) ([]float64, error)
	VirtualMemory func() (*mem.VirtualMemoryStat, error)
	DiskUsage     func(path string) (*disk.UsageStat, error)
	LoadAvg       func() (*load.AvgStat, error)
	HostUptime    func() (uint64, error)
}

// DefaultHostStatFetcher 使用 gopsutil 读取本机数据。
func DefaultHostStatFetcher() HostStatFetcher {
	return HostStatFetcher{
		CPUPercent:    cpu.Percent,
		VirtualMemory: mem.VirtualMemory,
		DiskUsage:     disk.Usage,
		LoadAvg:       load.Avg,
		HostUptime:    host.Uptime,
	}
}

// AdminSystemOptions 注入运行时依赖。
type AdminSystemOptions struct {
	Version           string
	Environment       string
	StartedAt         time.Time
	DataDir           string
	NotificationQueue NotificationQueueStats
	Fetcher           *HostStatFetcher
	Now               func() time.Time
	HostnameResolver  func() (string, error)
}

// AdminSystemStatus 描述管理后台系统状态返回字段。
type AdminSystemStatus struct {
	Version     string           `json:"version"`
	GoVersion   string           `json:"go_version"`
	Environment string           `json:"environment"`
	Hostname    string           `json:"hostname"`
	StartedAt   time.Time        `json:"started_at"`
	Uptime      int64            `json:"uptime"`
	Runtime     AdminRuntimeStat `json:"runtime"`
	Host        AdminHostStat    `json:"host"`
	Queue       AdminQueueStat   `json:"queue"`
}

// AdminRuntimeStat 是 Go 运行时指标。
type AdminRuntimeStat struct {
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	NumGC      uint32 `json:"num_gc"`
	NumCPU     int    `json:"num_cpu"`
}

// AdminHostStat 是主机资源使用情况，读取失败的字段为零值。
type AdminHostStat struct {
	CPU       float64 `json:"cpu"`
	MemTotal  uint64  `json:"mem_total"`
	MemUsed   uint64  `json:"mem_used"`
	DiskTotal uint64  `json:"disk_total"`
	DiskUsed  uint64  `json:"disk_used"`
	Load1     float64 `json:"load1"`
	Load5     float64 `json:"load5"`
	Load15    float64 `json:"load15"`
	Uptime    uint64  `json:"uptime"`
}

// AdminQueueStat 是通知队列积压。
type AdminQueueStat struct {
	PendingEmails int `json:"pending_emails"`
	Dropped       int `json:"dropped"`
}

type adminSystemService struct {
	version     string
	environment string
	startedAt   time.Time
	dataDir     string
	notifier    NotificationQueueStats
	fetcher     HostStatFetcher
	now         func() time.Time
	hostname    func() (string, error)
}

// NewAdminSystemService 构建系统状态服务。
func NewAdminSystemService(opts AdminSystemOptions) AdminSystemService {
	startedAt := opts.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	hostResolver := opts.HostnameResolver
	if hostResolver == nil {
		hostResolver = os.Hostname
	}
	fetcher := DefaultHostStatFetcher()
	if opts.Fetcher != nil {
		fetcher = *opts.Fetcher
	}
	dataDir := opts.DataDir
	if strings.TrimSpace(dataDir) == "" {
		dataDir = "/"
	}
	return &adminSystemService{
		version:     fallbackVersion(opts.Version),
		environment: fallbackEnv(opts.Environment),
		startedAt:   startedAt,
		dataDir:     dataDir,
		notifier:    opts.NotificationQueue,
		fetcher:     fetcher,
		now:         nowFn,
		hostname:    hostResolver,
	}
}

// SystemStatus 汇总系统状态（版本、环境、运行时与主机信息）。
func (s *adminSystemService) SystemStatus(ctx context.Context) (AdminSystemStatus, error) {
	if err := ctx.Err(); err != nil {
		return AdminSystemStatus{}, err
	}
	hostname, _ := s.hostname()
	now := s.now().UTC()
	uptime := now.Unix() - s.startedAt.Unix()
	if uptime < 0 {
		uptime = 0
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	status := AdminSystemStatus{
		Version:     s.version,
		GoVersion:   runtime.Version(),
		Environment: s.environment,
		Hostname:    hostname,
		StartedAt:   s.startedAt,
		Uptime:      uptime,
		Runtime: AdminRuntimeStat{
			Goroutines: runtime.NumGoroutine(),
			HeapAlloc:  memStats.HeapAlloc,
			HeapSys:    memStats.HeapSys,
			NumGC:      memStats.NumGC,
			NumCPU:     runtime.NumCPU(),
		},
		Host: s.collectHost(),
	}
	if s.notifier != nil {
		status.Queue = AdminQueueStat{
			PendingEmails: s.notifier.PendingEmails(),
			Dropped:       s.notifier.Dropped(),
		}
	}
	return status, nil
}

func (s *adminSystemService) collectHost() AdminHostStat {
	var stat AdminHostStat
	f := s.fetcher
	if f.CPUPercent != nil {
		if percents, err := f.CPUPercent(0, false); err == nil && len(percents) > 0 {
			stat.CPU = percents[0]
		}
	}
	if f.VirtualMemory != nil {
		if v, err := f.VirtualMemory(); err == nil {
			stat.MemTotal = v.Total
			stat.MemUsed = v.Used
		}
	}
	if f.DiskUsage != nil {
		if d, err := f.DiskUsage(s.dataDir); err == nil {
			stat.DiskTotal = d.Total
			stat.DiskUsed = d.Used
		}
	}
	if f.LoadAvg != nil {
		if l, err := f.LoadAvg(); err == nil {
			stat.Load1 = l.Load1
			stat.Load5 = l.Load5
			stat.Load15 = l.Load15
		}
	}
	if f.HostUptime != nil {
		if u, err := f.HostUptime(); err == nil {
			stat.Uptime = u
		}
	}
	return stat
}

// fallbackVersion 为空时回退到开发版本标识。
func fallbackVersion(version string) string {
	if strings.TrimSpace(version) == "" {
		return "dev"
	}
	return version
}

// fallbackEnv 为空时回退到 development。
func fallbackEnv(env string) string {
	if strings.TrimSpace(env) == "" {
		return "development"
	}
	return env
}
