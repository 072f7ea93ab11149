package biz

import (
	"time"

	"complaintdash/cmd/complaint-dashboard/internal/domain"

	"github.com/samber/lo"
)

// lastWeekDays 近一周窗口天数（含首尾）
const lastWeekDays = 7

// ComputeKPIs 计算四个顶部指标
//
// 各指标互相独立，一条记录可以同时计入多个指标。
// LastWeek 按时刻比较 [today-7 零点, today 零点]，今天零点之后创建的记录只计入 Todays。
func ComputeKPIs(view domain.FilteredView, today time.Time) domain.KPIs {
	day := domain.DateOf(today)
	weekStart := day.AddDate(0, 0, -lastWeekDays)

	return domain.KPIs{
		Todays: lo.CountBy(view.Records, func(r domain.ComplaintRecord) bool {
			return domain.DateOf(r.CreatedOn.In(day.Location())).Equal(day)
		}),
		LastWeek: lo.CountBy(view.Records, func(r domain.ComplaintRecord) bool {
			return !r.CreatedOn.Before(weekStart) && !r.CreatedOn.After(day)
		}),
		Resolved: lo.CountBy(view.Records, func(r domain.ComplaintRecord) bool {
			return IsResolved(r.StatusReason)
		}),
		Open: lo.CountBy(view.Records, func(r domain.ComplaintRecord) bool {
			return IsOpen(r.StatusReason)
		}),
	}
}
