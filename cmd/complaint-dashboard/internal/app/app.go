package app

import (
	"context"

	"complaintdash/cmd/complaint-dashboard/internal/conf"
	"complaintdash/cmd/complaint-dashboard/internal/data"
	"complaintdash/cmd/complaint-dashboard/internal/server"
	"complaintdash/cmd/complaint-dashboard/internal/websocket"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// App 应用程序
type App struct {
	Logger     *zap.Logger
	Config     *conf.Config
	HTTPServer *server.HTTPServer
	Hub        *websocket.Hub
	Store      *data.SnapshotStore
	Redis      *redis.Client
}

// NewApp 创建应用程序
func NewApp(
	logger *zap.Logger,
	config *conf.Config,
	httpServer *server.HTTPServer,
	hub *websocket.Hub,
	store *data.SnapshotStore,
	redisClient *redis.Client,
) *App {
	return &App{
		Logger:     logger,
		Config:     config,
		HTTPServer: httpServer,
		Hub:        hub,
		Store:      store,
		Redis:      redisClient,
	}
}

// Run 加载初始快照并运行后台任务，阻塞直到 ctx 结束
//
// 初始加载失败不会阻止启动：就绪检查保持失败，直到文件可用。
func (a *App) Run(ctx context.Context) error {
	a.Store.Subscribe(a.Hub.OnSnapshotReload)

	if _, err := a.Store.Reload(ctx); err != nil {
		a.Logger.Warn("Initial snapshot load failed, waiting for dataset", zap.Error(err))
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Hub.Run(ctx)
		return nil
	})

	if a.Config.Dataset.Watch {
		g.Go(func() error {
			// 监听失败时仍可按修改时间惰性重新加载
			if err := a.Store.Watch(ctx, a.Config.Dataset.WatchDebounce); err != nil {
				a.Logger.Error("Dataset watcher failed", zap.Error(err))
			}
			return nil
		})
	}

	a.Logger.Info("Application started successfully",
		zap.String("dataset", a.Store.Path()),
		zap.Bool("watch", a.Config.Dataset.Watch),
		zap.Bool("redis", a.Redis != nil),
	)

	return g.Wait()
}
