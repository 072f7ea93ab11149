package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"complaintdash/cmd/complaint-dashboard/internal/conf"
	"complaintdash/pkg/observability"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "complaint-dashboard",
	Short:         "Customer complaint dashboard",
	Long:          `Loads a complaints CSV and serves KPIs, breakdowns and the owner leaderboard over HTTP and WebSocket.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP/WebSocket dashboard server",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "配置文件路径")
	rootCmd.AddCommand(serveCmd, reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	// 加载配置
	config, err := conf.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 初始化日志
	logger, err := initLogger(config.Observability)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting Complaint Dashboard",
		zap.String("version", config.Observability.ServiceVersion),
		zap.String("environment", config.Observability.Environment),
		zap.String("dataset", config.Dataset.Path),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化追踪
	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:    config.Observability.ServiceName,
		ServiceVersion: config.Observability.ServiceVersion,
		Environment:    config.Observability.Environment,
		Endpoint:       config.Observability.OTELEndpoint,
		SamplingRate:   config.Observability.SamplingRate,
		Enabled:        config.Observability.EnableTrace,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	// 初始化应用（通过 Wire 生成）
	app, cleanup, err := initApp(config, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer cleanup()

	appErr := make(chan error, 1)
	go func() {
		appErr <- app.Run(ctx)
	}()

	// 启动 HTTP 服务器
	httpAddr := fmt.Sprintf(":%d", config.Server.HTTPPort)
	srv := &http.Server{
		Addr:         httpAddr,
		Handler:      app.HTTPServer.Engine(),
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server starting", zap.String("addr", httpAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 启动 Prometheus metrics 服务器
	var metricsSrv *http.Server
	if config.Observability.EnableMetrics {
		metricsAddr := fmt.Sprintf(":%d", config.Server.MetricsPort)
		metricsSrv = &http.Server{
			Addr:    metricsAddr,
			Handler: promhttp.Handler(),
		}

		go func() {
			logger.Info("Metrics server starting", zap.String("addr", metricsAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("Metrics server failed", zap.Error(err))
			}
		}()
	}

	// 等待中断信号或后台任务退出
	select {
	case <-ctx.Done():
	case err := <-appErr:
		if err != nil {
			logger.Error("Application stopped unexpectedly", zap.Error(err))
		}
	}
	stop()

	logger.Info("Shutting down servers...")

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown failed", zap.Error(err))
		}
	}

	select {
	case <-app.Hub.Done():
	case <-shutdownCtx.Done():
		logger.Warn("WebSocket hub did not stop before timeout")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Tracing shutdown failed", zap.Error(err))
	}

	logger.Info("Servers exited")
	return nil
}

// initLogger 初始化日志
func initLogger(cfg conf.ObservabilityConfig) (*zap.Logger, error) {
	var zapConfig zap.Config

	if cfg.LogFormat == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// 设置日志级别
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapConfig.Level = level

	// 添加字段
	zapConfig.InitialFields = map[string]interface{}{
		"service":     cfg.ServiceName,
		"version":     cfg.ServiceVersion,
		"environment": cfg.Environment,
	}

	return zapConfig.Build()
}
