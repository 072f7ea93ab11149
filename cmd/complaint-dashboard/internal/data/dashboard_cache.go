package data

import (
	"context"
	"errors"
	"time"

	"complaintdash/cmd/complaint-dashboard/internal/domain"
	"complaintdash/pkg/cache"
	"complaintdash/pkg/monitoring"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	MaxRequests      uint32        // 半开状态允许的最大请求数
	Interval         time.Duration // 统计窗口
	Timeout          time.Duration // 熔断后恢复时间
	FailureThreshold float64       // 失败率阈值（0.0-1.0）
	MinRequests      uint32        // 最小请求数（达到后才计算失败率）
}

// DefaultBreakerConfig 默认熔断器配置
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.5,
		MinRequests:      3,
	}
}

// RedisDashboardCache 基于 Redis 的看板缓存，所有调用经过熔断器
//
// 任何错误（包括熔断打开）都按未命中处理。
type RedisDashboardCache struct {
	cache   cache.Cache
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewRedisDashboardCache 创建看板缓存
func NewRedisDashboardCache(c cache.Cache, cfg BreakerConfig, logger *zap.Logger) *RedisDashboardCache {
	logger = logger.With(zap.String("module", "dashboard-cache"))

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dashboard-cache",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, cache.ErrMiss)
		},
	})

	return &RedisDashboardCache{
		cache:   c,
		breaker: breaker,
		logger:  logger,
	}
}

// Get 获取缓存
func (c *RedisDashboardCache) Get(ctx context.Context, key string) (*domain.Dashboard, bool) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var dashboard domain.Dashboard
		if err := c.cache.GetObject(ctx, key, &dashboard); err != nil {
			return nil, err
		}
		return &dashboard, nil
	})

	switch {
	case err == nil:
		monitoring.DashboardCacheTotal.WithLabelValues(monitoring.ResultHit).Inc()
		return result.(*domain.Dashboard), true
	case errors.Is(err, cache.ErrMiss):
		monitoring.DashboardCacheTotal.WithLabelValues(monitoring.ResultMiss).Inc()
	default:
		monitoring.DashboardCacheTotal.WithLabelValues(monitoring.ResultError).Inc()
		if !errors.Is(err, gobreaker.ErrOpenState) && !errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn("Dashboard cache get failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil, false
}

// Set 写入缓存
func (c *RedisDashboardCache) Set(ctx context.Context, key string, dashboard *domain.Dashboard, ttl time.Duration) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.cache.SetObject(ctx, key, dashboard, ttl)
	})
	return err
}

// State 熔断器状态
func (c *RedisDashboardCache) State() gobreaker.State {
	return c.breaker.State()
}

// NoopDashboardCache 未启用 Redis 时使用，永远未命中
type NoopDashboardCache struct{}

// Get 永远未命中
func (NoopDashboardCache) Get(context.Context, string) (*domain.Dashboard, bool) {
	return nil, false
}

// Set 丢弃
func (NoopDashboardCache) Set(context.Context, string, *domain.Dashboard, time.Duration) error {
	return nil
}
