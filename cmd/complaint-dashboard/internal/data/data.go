package data

import (
	"context"
	"time"

	"complaintdash/cmd/complaint-dashboard/internal/conf"
	"complaintdash/cmd/complaint-dashboard/internal/domain"
	"complaintdash/pkg/cache"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ProviderSet 数据层提供者集合
var ProviderSet = wire.NewSet(
	NewRedis,
	NewSnapshotStoreFromConfig,
	NewDashboardCache,
	wire.Bind(new(domain.SnapshotRepository), new(*SnapshotStore)),
)

// NewRedis 创建 Redis 客户端；未启用时返回 nil
func NewRedis(config *conf.Config, logger *zap.Logger) (*redis.Client, func(), error) {
	if !config.Redis.Enabled {
		logger.Info("Redis disabled, dashboard cache and rate limiting are off")
		return nil, func() {}, nil
	}

	client := cache.NewRedisClient(cache.RedisOptions{
		Addr:         config.Redis.Addr,
		Password:     config.Redis.Password,
		DB:           config.Redis.DB,
		PoolSize:     config.Redis.PoolSize,
		MinIdleConns: config.Redis.MinIdleConns,
		MaxRetries:   config.Redis.MaxRetries,
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		// Redis 不可用时继续启动，缓存由熔断器兜底
		logger.Warn("Redis ping failed", zap.String("addr", config.Redis.Addr), zap.Error(err))
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Error("Failed to close redis", zap.Error(err))
		}
	}
	return client, cleanup, nil
}

// NewSnapshotStoreFromConfig 按配置创建快照存储
func NewSnapshotStoreFromConfig(config *conf.Config, logger *zap.Logger) (*SnapshotStore, error) {
	loc, err := config.Dataset.Location()
	if err != nil {
		return nil, err
	}
	return NewSnapshotStore(config.Dataset.Path, LoadOptions{
		Location:    loc,
		DateLayouts: config.Dataset.DateLayouts,
	}, logger), nil
}

// NewDashboardCache 创建看板缓存；Redis 未启用时使用空实现
func NewDashboardCache(config *conf.Config, client *redis.Client, logger *zap.Logger) domain.DashboardCache {
	if client == nil {
		return NoopDashboardCache{}
	}

	redisCache := cache.NewRedisCache(client, &cache.CacheOptions{
		DefaultTTL: config.Cache.DashboardTTL,
		KeyPrefix:  config.Cache.KeyPrefix,
	})

	cb := config.Resilience.CircuitBreaker
	return NewRedisDashboardCache(redisCache, BreakerConfig{
		MaxRequests:      cb.MaxRequests,
		Interval:         cb.Interval,
		Timeout:          cb.Timeout,
		FailureThreshold: cb.Threshold,
		MinRequests:      cb.MinRequests,
	}, logger)
}
