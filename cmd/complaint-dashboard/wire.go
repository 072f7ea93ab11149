//go:build wireinject
// +build wireinject

package main

import (
	"complaintdash/cmd/complaint-dashboard/internal/app"
	"complaintdash/cmd/complaint-dashboard/internal/biz"
	"complaintdash/cmd/complaint-dashboard/internal/conf"
	"complaintdash/cmd/complaint-dashboard/internal/data"
	"complaintdash/cmd/complaint-dashboard/internal/server"
	"complaintdash/cmd/complaint-dashboard/internal/service"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// initApp 初始化应用
func initApp(config *conf.Config, logger *zap.Logger) (*app.App, func(), error) {
	panic(wire.Build(
		// Data 层
		data.ProviderSet,

		// Biz 层
		biz.ProviderSet,

		// Service 层
		service.NewDashboardService,

		// Server 层
		provideHub,
		provideHealthChecker,
		server.NewHTTPServer,

		app.NewApp,
	))
}
