package health

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// Status 健康状态
type Status string

const (
	// StatusHealthy 健康
	StatusHealthy Status = "healthy"
	// StatusUnhealthy 不健康
	StatusUnhealthy Status = "unhealthy"
	// StatusDegraded 降级（可选依赖不可用）
	StatusDegraded Status = "degraded"
)

// 标准检查项名称
const (
	CheckSnapshot = "snapshot"
	CheckRedis    = "redis"
)

// CheckResult 检查结果
type CheckResult struct {
	Status    Status        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Checker 健康检查器接口
type Checker interface {
	// Check 执行健康检查
	Check(ctx context.Context) CheckResult
	// Name 检查器名称
	Name() string
}

// PingChecker 以 ping 函数实现的检查器
//
// optional 为 true 时失败只算降级。
type PingChecker struct {
	name     string
	pingFn   func(context.Context) error
	optional bool
}

// NewPingChecker 创建必需依赖的检查器
func NewPingChecker(name string, pingFn func(context.Context) error) *PingChecker {
	return &PingChecker{name: name, pingFn: pingFn}
}

// NewOptionalChecker 创建可选依赖的检查器
func NewOptionalChecker(name string, pingFn func(context.Context) error) *PingChecker {
	return &PingChecker{name: name, pingFn: pingFn, optional: true}
}

// Name 返回检查器名称
func (p *PingChecker) Name() string {
	return p.name
}

// Check 执行检查
func (p *PingChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	err := p.pingFn(ctx)
	duration := time.Since(start)

	if err == nil {
		return CheckResult{Status: StatusHealthy, Timestamp: time.Now(), Duration: duration}
	}

	status := StatusUnhealthy
	if p.optional {
		status = StatusDegraded
	}
	return CheckResult{
		Status:    status,
		Timestamp: time.Now(),
		Duration:  duration,
		Error:     err.Error(),
	}
}

// HealthChecker 健康检查管理器
type HealthChecker struct {
	mu        sync.RWMutex
	checkers  map[string]Checker
	service   string
	version   string
	startTime time.Time
	timeout   time.Duration
}

// NewHealthChecker 创建健康检查管理器
func NewHealthChecker(service, version string) *HealthChecker {
	return &HealthChecker{
		checkers:  make(map[string]Checker),
		service:   service,
		version:   version,
		startTime: time.Now(),
		timeout:   2 * time.Second,
	}
}

// Register 注册检查器
func (h *HealthChecker) Register(checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[checker.Name()] = checker
}

// Check 并发执行所有检查
func (h *HealthChecker) Check(ctx context.Context) map[string]CheckResult {
	h.mu.RLock()
	checkers := make([]Checker, 0, len(h.checkers))
	for _, checker := range h.checkers {
		checkers = append(checkers, checker)
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]CheckResult, len(checkers))
	)
	for _, checker := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			result := c.Check(ctx)
			mu.Lock()
			results[c.Name()] = result
			mu.Unlock()
		}(checker)
	}
	wg.Wait()

	return results
}

// Response 健康检查响应
type Response struct {
	Status       Status                 `json:"status"`
	Ready        bool                   `json:"ready"`
	Service      string                 `json:"service"`
	Version      string                 `json:"version"`
	Timestamp    string                 `json:"timestamp"`
	Uptime       int64                  `json:"uptime"` // 秒
	Dependencies map[string]CheckResult `json:"dependencies,omitempty"`
	Goroutines   int                    `json:"goroutines,omitempty"`
}

// Liveness 存活检查，不访问依赖
func (h *HealthChecker) Liveness() *Response {
	return &Response{
		Status:     StatusHealthy,
		Ready:      true,
		Service:    h.service,
		Version:    h.version,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Uptime:     int64(time.Since(h.startTime).Seconds()),
		Goroutines: runtime.NumGoroutine(),
	}
}

// Readiness 就绪检查：存在不健康依赖时不就绪，降级仍视为就绪
func (h *HealthChecker) Readiness(ctx context.Context) *Response {
	resp := h.Liveness()
	resp.Dependencies = h.Check(ctx)
	resp.Goroutines = 0

	for _, result := range resp.Dependencies {
		switch result.Status {
		case StatusUnhealthy:
			resp.Status = StatusUnhealthy
			resp.Ready = false
		case StatusDegraded:
			if resp.Status == StatusHealthy {
				resp.Status = StatusDegraded
			}
		}
	}
	return resp
}
