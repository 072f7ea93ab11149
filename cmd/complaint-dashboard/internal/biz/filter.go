package biz

import (
	"complaintdash/cmd/complaint-dashboard/internal/domain"

	"github.com/samber/lo"
)

// Filter 按截止日期、来源、负责人三个条件同时筛选，保持源顺序
func Filter(table *domain.Table, sel domain.FilterSelection) domain.FilteredView {
	if table == nil {
		return domain.FilteredView{Records: []domain.ComplaintRecord{}}
	}

	loc := sel.AsOfDate.Location()
	records := lo.Filter(table.Records, func(r domain.ComplaintRecord, _ int) bool {
		created := domain.DateOf(r.CreatedOn.In(loc))
		return !created.After(sel.AsOfDate) &&
			sel.MatchOrigin(r.Origin) &&
			sel.MatchOwner(r.Owner)
	})

	return domain.FilteredView{Records: records}
}
