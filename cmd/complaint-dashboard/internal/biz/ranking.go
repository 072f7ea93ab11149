package biz

import (
	"sort"

	"complaintdash/cmd/complaint-dashboard/internal/domain"

	"github.com/samber/lo"
)

// DefaultVisibleOwners 默认展开显示的负责人数量
const DefaultVisibleOwners = 6

// RankOwners 计算负责人解决表现并按解决率降序排列
//
// 负责人为空的记录不参与分组；同解决率的负责人保持首次出现的顺序。
func RankOwners(view domain.FilteredView) []domain.OwnerPerformance {
	owned := lo.Filter(view.Records, func(r domain.ComplaintRecord, _ int) bool {
		return r.HasOwner()
	})
	owners := lo.Uniq(lo.Map(owned, func(r domain.ComplaintRecord, _ int) string {
		return r.Owner
	}))
	groups := lo.GroupBy(owned, func(r domain.ComplaintRecord) string {
		return r.Owner
	})

	ranked := make([]domain.OwnerPerformance, 0, len(owners))
	for _, owner := range owners {
		ranked = append(ranked, Classify(ownerPerformance(owner, groups[owner])))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Percent > ranked[j].Percent
	})
	return ranked
}

// ownerPerformance 单个负责人的统计（records 至少一条）
func ownerPerformance(owner string, records []domain.ComplaintRecord) domain.OwnerPerformance {
	resolved := lo.Filter(records, func(r domain.ComplaintRecord, _ int) bool {
		return IsResolved(r.StatusReason)
	})

	var avgDays float64
	if len(resolved) > 0 {
		days := lo.Map(resolved, func(r domain.ComplaintRecord, _ int) float64 {
			return r.ResolutionDays()
		})
		avgDays = round1(lo.Sum(days) / float64(len(days)))
	}

	return domain.OwnerPerformance{
		Owner:             owner,
		Total:             len(records),
		Resolved:          len(resolved),
		AvgResolutionDays: avgDays,
		Percent:           round1(float64(len(resolved)) / float64(len(records)) * 100),
	}
}

// SplitLeaderboard 拆分为可见部分与折叠部分
func SplitLeaderboard(ranked []domain.OwnerPerformance, visible int) domain.Leaderboard {
	if visible <= 0 {
		visible = DefaultVisibleOwners
	}
	if visible > len(ranked) {
		visible = len(ranked)
	}

	board := domain.Leaderboard{
		Visible: make([]domain.OwnerPerformance, visible),
		More:    make([]domain.OwnerPerformance, len(ranked)-visible),
		Total:   len(ranked),
	}
	copy(board.Visible, ranked[:visible])
	copy(board.More, ranked[visible:])
	return board
}

// PageOwners 对排行榜分页
func PageOwners(ranked []domain.OwnerPerformance, limit, offset int) []domain.OwnerPerformance {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(ranked) {
		return []domain.OwnerPerformance{}
	}
	end := len(ranked)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	page := make([]domain.OwnerPerformance, end-offset)
	copy(page, ranked[offset:end])
	return page
}
