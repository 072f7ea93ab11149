package biz

import (
	"context"
	"fmt"
	"time"

	"complaintdash/cmd/complaint-dashboard/internal/domain"
	"complaintdash/pkg/monitoring"
	"complaintdash/pkg/observability"

	"go.uber.org/zap"
)

const tracerName = "complaint-dashboard/biz"

// BuildDashboard 在给定快照上执行完整的筛选与统计流程
//
// 纯函数：相同输入得到相同输出，且每次返回新分配的结果。ComputedAt 由调用方填写。
func BuildDashboard(table *domain.Table, sel domain.FilterSelection, today time.Time, visible int) *domain.Dashboard {
	view := Filter(table, sel)
	ranked := RankOwners(view)

	dashboard := &domain.Dashboard{
		Filters:       appliedFilters(table, sel, today),
		FilteredCount: view.Len(),
		KPIs:          ComputeKPIs(view, today),
		Breakdowns:    Aggregate(view),
		Owners:        SplitLeaderboard(ranked, visible),
	}
	if table != nil {
		dashboard.Snapshot = table.Summary()
	}
	return dashboard
}

// appliedFilters 按快照中的出现顺序列出生效的来源与负责人
func appliedFilters(table *domain.Table, sel domain.FilterSelection, today time.Time) domain.AppliedFilters {
	applied := domain.AppliedFilters{
		AsOfDate:   sel.AsOfDate.Format(dayLayout),
		Today:      today.Format(dayLayout),
		Origins:    []string{},
		Owners:     []string{},
		AllOrigins: sel.AllOrigins,
		AllOwners:  sel.AllOwners,
	}
	for _, o := range table.DistinctOrigins() {
		if sel.MatchOrigin(o) {
			applied.Origins = append(applied.Origins, o)
		}
	}
	for _, o := range table.DistinctOwners() {
		if sel.MatchOwner(o) {
			applied.Owners = append(applied.Owners, o)
		}
	}
	return applied
}

// DashboardQuery 看板查询条件
//
// Origins/Owners 为 nil 时视为 "All"；显式的空切片不匹配任何记录。
// AsOf 为零值时取 Today，Today 为零值时取当前日期。
type DashboardQuery struct {
	AsOf    time.Time
	Today   time.Time
	Origins []string
	Owners  []string
	Visible int
}

// DashboardUsecaseConfig 看板用例配置
type DashboardUsecaseConfig struct {
	CacheTTL      time.Duration
	VisibleOwners int
	Location      *time.Location
}

// DashboardUsecase 看板用例
type DashboardUsecase struct {
	snapshots domain.SnapshotRepository
	cache     domain.DashboardCache
	config    DashboardUsecaseConfig
	now       func() time.Time
	logger    *zap.Logger
}

// NewDashboardUsecase 创建看板用例
func NewDashboardUsecase(
	snapshots domain.SnapshotRepository,
	cache domain.DashboardCache,
	config DashboardUsecaseConfig,
	logger *zap.Logger,
) *DashboardUsecase {
	if config.VisibleOwners <= 0 {
		config.VisibleOwners = DefaultVisibleOwners
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &DashboardUsecase{
		snapshots: snapshots,
		cache:     cache,
		config:    config,
		now:       time.Now,
		logger:    logger.With(zap.String("module", "dashboard-usecase")),
	}
}

// WithClock 替换时钟
func (uc *DashboardUsecase) WithClock(now func() time.Time) *DashboardUsecase {
	uc.now = now
	return uc
}

// Today 当前日期（配置时区）
func (uc *DashboardUsecase) Today() time.Time {
	return domain.DateOf(uc.now().In(uc.config.Location))
}

// GetDashboard 获取看板
func (uc *DashboardUsecase) GetDashboard(ctx context.Context, query DashboardQuery) (*domain.Dashboard, error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "dashboard.compute")
	defer span.End()

	table, sel, today, err := uc.resolve(ctx, query)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	visible := query.Visible
	if visible <= 0 {
		visible = uc.config.VisibleOwners
	}

	cacheKey := fmt.Sprintf("dashboard:%s:%s:%s:%d", table.Version, sel.Key(), today.Format(dayLayout), visible)
	if cached, ok := uc.cache.Get(ctx, cacheKey); ok {
		observability.SetAttributes(span, observability.DashboardAttributes{
			SnapshotVersion: table.Version,
			SelectionKey:    sel.Key(),
			Rows:            table.Len(),
			FilteredRows:    cached.FilteredCount,
		}.ToAttributes()...)
		return cached, nil
	}

	start := time.Now()
	dashboard := BuildDashboard(table, sel, today, visible)
	monitoring.PipelineDuration.Observe(time.Since(start).Seconds())
	dashboard.ComputedAt = uc.now()

	observability.SetAttributes(span, observability.DashboardAttributes{
		SnapshotVersion: table.Version,
		SelectionKey:    sel.Key(),
		Rows:            table.Len(),
		FilteredRows:    dashboard.FilteredCount,
	}.ToAttributes()...)

	if err := uc.cache.Set(ctx, cacheKey, dashboard, uc.config.CacheTTL); err != nil {
		uc.logger.Warn("Failed to cache dashboard", zap.String("key", cacheKey), zap.Error(err))
	}

	return dashboard, nil
}

// GetOwnerPage 获取排行榜分页
func (uc *DashboardUsecase) GetOwnerPage(ctx context.Context, query DashboardQuery, limit, offset int) ([]domain.OwnerPerformance, int, error) {
	table, sel, _, err := uc.resolve(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	ranked := RankOwners(Filter(table, sel))
	return PageOwners(ranked, limit, offset), len(ranked), nil
}

// GetFilterOptions 获取可选筛选项（首项为 "All"）
func (uc *DashboardUsecase) GetFilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	table, err := uc.snapshots.Current(ctx)
	if err != nil {
		return nil, err
	}

	options := &domain.FilterOptions{
		Origins: append([]string{domain.AllValues}, table.DistinctOrigins()...),
		Owners:  append([]string{domain.AllValues}, table.DistinctOwners()...),
	}
	for i, r := range table.Records {
		created := r.CreatedDate()
		if i == 0 || created.Before(options.MinDate) {
			options.MinDate = created
		}
		if i == 0 || created.After(options.MaxDate) {
			options.MaxDate = created
		}
	}
	return options, nil
}

// Snapshot 当前快照摘要
func (uc *DashboardUsecase) Snapshot(ctx context.Context) (*domain.SnapshotSummary, error) {
	table, err := uc.snapshots.Current(ctx)
	if err != nil {
		return nil, err
	}
	summary := table.Summary()
	return &summary, nil
}

// Reload 强制重新加载快照
func (uc *DashboardUsecase) Reload(ctx context.Context) (*domain.SnapshotSummary, error) {
	table, err := uc.snapshots.Reload(ctx)
	if err != nil {
		uc.logger.Error("Failed to reload snapshot", zap.Error(err))
		return nil, err
	}

	uc.logger.Info("Snapshot reloaded",
		zap.String("version", table.Version),
		zap.Int("rows", table.Len()),
	)
	summary := table.Summary()
	return &summary, nil
}

// resolve 取快照并构建筛选条件
func (uc *DashboardUsecase) resolve(ctx context.Context, query DashboardQuery) (*domain.Table, domain.FilterSelection, time.Time, error) {
	table, err := uc.snapshots.Current(ctx)
	if err != nil {
		return nil, domain.FilterSelection{}, time.Time{}, err
	}

	today := uc.Today()
	if !query.Today.IsZero() {
		today = inLocation(query.Today, uc.config.Location)
	}
	asOf := today
	if !query.AsOf.IsZero() {
		asOf = query.AsOf
	}

	origins := query.Origins
	if origins == nil {
		origins = []string{domain.AllValues}
	}
	owners := query.Owners
	if owners == nil {
		owners = []string{domain.AllValues}
	}

	sel, err := domain.NewFilterSelection(table, asOf, origins, owners)
	if err != nil {
		return nil, domain.FilterSelection{}, time.Time{}, err
	}
	return table, sel, today, nil
}

// inLocation 保留日历日期，转换到指定时区的零点
func inLocation(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
