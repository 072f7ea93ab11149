package domain

import (
	"context"
	"time"
)

// SnapshotRepository 数据快照仓储接口
type SnapshotRepository interface {
	// Current 获取当前快照（文件变化时自动重新加载）
	Current(ctx context.Context) (*Table, error)

	// Reload 强制重新加载
	Reload(ctx context.Context) (*Table, error)
}

// DashboardCache 看板结果缓存接口
type DashboardCache interface {
	// Get 获取缓存，未命中返回 (nil, false)
	Get(ctx context.Context, key string) (*Dashboard, bool)

	// Set 写入缓存
	Set(ctx context.Context, key string, dashboard *Dashboard, ttl time.Duration) error
}
