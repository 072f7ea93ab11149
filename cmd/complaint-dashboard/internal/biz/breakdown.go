package biz

import (
	"sort"

	"complaintdash/cmd/complaint-dashboard/internal/domain"

	"github.com/samber/lo"
)

const dayLayout = "2006-01-02"

// Aggregate 计算来源、状态、每日三组分项统计（空值不计入来源与状态）
func Aggregate(view domain.FilteredView) domain.Breakdowns {
	origins := lo.FilterMap(view.Records, func(r domain.ComplaintRecord, _ int) (string, bool) {
		return r.Origin, r.HasOrigin()
	})
	statuses := lo.FilterMap(view.Records, func(r domain.ComplaintRecord, _ int) (string, bool) {
		return r.StatusReason, r.HasStatus()
	})
	days := lo.Map(view.Records, func(r domain.ComplaintRecord, _ int) string {
		return r.CreatedOn.Format(dayLayout)
	})

	return domain.Breakdowns{
		ByOrigin: lo.CountValues(origins),
		ByStatus: lo.CountValues(statuses),
		ByDay:    dailySeries(lo.CountValues(days)),
	}
}

// dailySeries 按日期升序输出时间序列
func dailySeries(counts map[string]int) []domain.DailyCount {
	dates := lo.Keys(counts)
	sort.Strings(dates)

	series := make([]domain.DailyCount, 0, len(dates))
	for _, date := range dates {
		series = append(series, domain.DailyCount{Date: date, Count: counts[date]})
	}
	return series
}
