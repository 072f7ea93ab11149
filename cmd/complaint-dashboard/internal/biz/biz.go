package biz

import (
	"complaintdash/cmd/complaint-dashboard/internal/conf"

	"github.com/google/wire"
)

// ProviderSet 业务层提供者集合
var ProviderSet = wire.NewSet(
	NewDashboardUsecaseConfig,
	NewDashboardUsecase,
)

// NewDashboardUsecaseConfig 从应用配置提取用例配置
func NewDashboardUsecaseConfig(config *conf.Config) (DashboardUsecaseConfig, error) {
	loc, err := config.Dataset.Location()
	if err != nil {
		return DashboardUsecaseConfig{}, err
	}
	return DashboardUsecaseConfig{
		CacheTTL:      config.Cache.DashboardTTL,
		VisibleOwners: config.Dataset.VisibleOwners,
		Location:      loc,
	}, nil
}
