package service

import (
	"context"
	"fmt"
	"time"

	"complaintdash/cmd/complaint-dashboard/internal/biz"
	"complaintdash/cmd/complaint-dashboard/internal/domain"
)

// DateLayout 请求中的日期格式
const DateLayout = "2006-01-02"

// DashboardRequest 看板请求（HTTP、WebSocket、CLI 共用）
//
// Origins/Owners 缺省（nil）表示 "All"，空数组表示不选任何值。
type DashboardRequest struct {
	AsOf    string   `json:"as_of,omitempty"`
	Today   string   `json:"today,omitempty"`
	Origins []string `json:"origins,omitempty"`
	Owners  []string `json:"owners,omitempty"`
	Visible int      `json:"visible,omitempty"`
}

// Query 转换为用例查询
func (r DashboardRequest) Query() (biz.DashboardQuery, error) {
	asOf, err := parseDate("as_of", r.AsOf)
	if err != nil {
		return biz.DashboardQuery{}, err
	}
	today, err := parseDate("today", r.Today)
	if err != nil {
		return biz.DashboardQuery{}, err
	}
	if r.Visible < 0 {
		return biz.DashboardQuery{}, fmt.Errorf("%w: visible must be non-negative", domain.ErrInvalidFilter)
	}

	return biz.DashboardQuery{
		AsOf:    asOf,
		Today:   today,
		Origins: r.Origins,
		Owners:  r.Owners,
		Visible: r.Visible,
	}, nil
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q, expected YYYY-MM-DD", domain.ErrInvalidDate, field, value)
	}
	return t, nil
}

// OwnerPage 排行榜分页结果
type OwnerPage struct {
	Owners []domain.OwnerPerformance `json:"owners" yaml:"owners"`
	Total  int                       `json:"total" yaml:"total"`
	Limit  int                       `json:"limit" yaml:"limit"`
	Offset int                       `json:"offset" yaml:"offset"`
}

// DashboardService 看板服务
type DashboardService struct {
	dashboardUc *biz.DashboardUsecase
}

// NewDashboardService 创建看板服务
func NewDashboardService(dashboardUc *biz.DashboardUsecase) *DashboardService {
	return &DashboardService{dashboardUc: dashboardUc}
}

// GetDashboard 获取完整看板
func (s *DashboardService) GetDashboard(ctx context.Context, req DashboardRequest) (*domain.Dashboard, error) {
	query, err := req.Query()
	if err != nil {
		return nil, err
	}
	return s.dashboardUc.GetDashboard(ctx, query)
}

// GetKPIs 只返回顶部指标
func (s *DashboardService) GetKPIs(ctx context.Context, req DashboardRequest) (*domain.KPIs, error) {
	dashboard, err := s.GetDashboard(ctx, req)
	if err != nil {
		return nil, err
	}
	return &dashboard.KPIs, nil
}

// GetBreakdowns 只返回分项统计
func (s *DashboardService) GetBreakdowns(ctx context.Context, req DashboardRequest) (*domain.Breakdowns, error) {
	dashboard, err := s.GetDashboard(ctx, req)
	if err != nil {
		return nil, err
	}
	return &dashboard.Breakdowns, nil
}

// ListOwners 排行榜分页
func (s *DashboardService) ListOwners(ctx context.Context, req DashboardRequest, limit, offset int) (*OwnerPage, error) {
	query, err := req.Query()
	if err != nil {
		return nil, err
	}
	owners, total, err := s.dashboardUc.GetOwnerPage(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	return &OwnerPage{Owners: owners, Total: total, Limit: limit, Offset: offset}, nil
}

// GetFilterOptions 获取可选筛选项
func (s *DashboardService) GetFilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	return s.dashboardUc.GetFilterOptions(ctx)
}

// GetSnapshot 获取快照摘要
func (s *DashboardService) GetSnapshot(ctx context.Context) (*domain.SnapshotSummary, error) {
	return s.dashboardUc.Snapshot(ctx)
}

// ReloadSnapshot 强制重新加载
func (s *DashboardService) ReloadSnapshot(ctx context.Context) (*domain.SnapshotSummary, error) {
	return s.dashboardUc.Reload(ctx)
}
