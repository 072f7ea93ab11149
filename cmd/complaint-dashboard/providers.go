package main

import (
	"context"

	"complaintdash/cmd/complaint-dashboard/internal/conf"
	"complaintdash/cmd/complaint-dashboard/internal/data"
	"complaintdash/cmd/complaint-dashboard/internal/service"
	"complaintdash/cmd/complaint-dashboard/internal/websocket"
	"complaintdash/pkg/health"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// provideHub 提供 WebSocket Hub
func provideHub(config *conf.Config, svc *service.DashboardService, logger *zap.Logger) *websocket.Hub {
	return websocket.NewHub(svc, websocket.HubConfig{
		MaxConnections: config.Websocket.MaxConnections,
		SendBufferSize: config.Websocket.SendBufferSize,
		AllowedOrigins: config.Websocket.AllowedOrigins,
	}, logger)
}

// provideHealthChecker 提供健康检查器：快照必需，Redis 可选
func provideHealthChecker(config *conf.Config, store *data.SnapshotStore, redisClient *redis.Client) *health.HealthChecker {
	checker := health.NewHealthChecker(config.Observability.ServiceName, config.Observability.ServiceVersion)
	checker.Register(health.NewPingChecker(health.CheckSnapshot, store.Ping))
	if redisClient != nil {
		checker.Register(health.NewOptionalChecker(health.CheckRedis, func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))
	}
	return checker
}
