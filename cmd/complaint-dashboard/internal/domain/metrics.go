package domain

import (
	"sort"
	"time"
)

// KPIs 看板顶部的四个指标
type KPIs struct {
	Todays   int `json:"todays" yaml:"todays"`
	LastWeek int `json:"last_week" yaml:"last_week"`
	Resolved int `json:"resolved" yaml:"resolved"`
	Open     int `json:"open" yaml:"open"`
}

// LabelCount 分类计数
type LabelCount struct {
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

// DailyCount 每日计数
type DailyCount struct {
	Date  string `json:"date" yaml:"date"` // YYYY-MM-DD
	Count int    `json:"count" yaml:"count"`
}

// Breakdowns 分项统计
type Breakdowns struct {
	ByOrigin map[string]int `json:"by_origin" yaml:"by_origin"`
	ByStatus map[string]int `json:"by_status" yaml:"by_status"`
	ByDay    []DailyCount   `json:"by_day" yaml:"by_day"`
}

// SortedOrigins 按计数降序（同计数按名称升序）
func (b Breakdowns) SortedOrigins() []LabelCount {
	return sortCounts(b.ByOrigin)
}

// SortedStatuses 按计数降序（同计数按名称升序）
func (b Breakdowns) SortedStatuses() []LabelCount {
	return sortCounts(b.ByStatus)
}

func sortCounts(m map[string]int) []LabelCount {
	out := make([]LabelCount, 0, len(m))
	for label, count := range m {
		out = append(out, LabelCount{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// ColorTier 解决率颜色档位
type ColorTier string

const (
	ColorTierExcellent ColorTier = "excellent" // >= 75%
	ColorTierGood      ColorTier = "good"      // >= 50%
	ColorTierFair      ColorTier = "fair"      // >= 25%
	ColorTierPoor      ColorTier = "poor"
)

// TimeTier 平均解决时长档位
type TimeTier string

const (
	TimeTierFast     TimeTier = "fast"     // <= 2 天
	TimeTierModerate TimeTier = "moderate" // <= 5 天
	TimeTierSlow     TimeTier = "slow"
)

// OwnerPerformance 负责人解决表现
type OwnerPerformance struct {
	Owner             string    `json:"owner" yaml:"owner"`
	Total             int       `json:"total" yaml:"total"`
	Resolved          int       `json:"resolved" yaml:"resolved"`
	AvgResolutionDays float64   `json:"avg_resolution_days" yaml:"avg_resolution_days"`
	Percent           float64   `json:"percent" yaml:"percent"`
	ColorTier         ColorTier `json:"color_tier" yaml:"color_tier"`
	Color             string    `json:"color" yaml:"color"`
	TimeTier          TimeTier  `json:"time_tier" yaml:"time_tier"`
}

// Leaderboard 排行榜（前若干名可见，其余折叠）
type Leaderboard struct {
	Visible []OwnerPerformance `json:"visible" yaml:"visible"`
	More    []OwnerPerformance `json:"more" yaml:"more"`
	Total   int                `json:"total" yaml:"total"`
}

// All 按排名返回全部
func (l Leaderboard) All() []OwnerPerformance {
	out := make([]OwnerPerformance, 0, len(l.Visible)+len(l.More))
	out = append(out, l.Visible...)
	return append(out, l.More...)
}

// AppliedFilters 实际生效的筛选条件
type AppliedFilters struct {
	AsOfDate   string   `json:"as_of_date" yaml:"as_of_date"`
	Today      string   `json:"today" yaml:"today"`
	Origins    []string `json:"origins" yaml:"origins"`
	Owners     []string `json:"owners" yaml:"owners"`
	AllOrigins bool     `json:"all_origins" yaml:"all_origins"`
	AllOwners  bool     `json:"all_owners" yaml:"all_owners"`
}

// Dashboard 一次计算的完整结果
type Dashboard struct {
	Snapshot      SnapshotSummary `json:"snapshot" yaml:"snapshot"`
	Filters       AppliedFilters  `json:"filters" yaml:"filters"`
	FilteredCount int             `json:"filtered_count" yaml:"filtered_count"`
	KPIs          KPIs            `json:"kpis" yaml:"kpis"`
	Breakdowns    Breakdowns      `json:"breakdowns" yaml:"breakdowns"`
	Owners        Leaderboard     `json:"owners" yaml:"owners"`
	ComputedAt    time.Time       `json:"computed_at" yaml:"computed_at"`
}
