package biz

import "complaintdash/cmd/complaint-dashboard/internal/domain"

// 解决率颜色阈值（百分比）
const (
	percentExcellent = 75.0
	percentGood      = 50.0
	percentFair      = 25.0
)

// 平均解决时长阈值（天）
const (
	daysFast     = 2.0
	daysModerate = 5.0
)

// 颜色提示，供渲染端使用
const (
	ColorExcellent = "#4CAF50"
	ColorGood      = "#2196F3"
	ColorFair      = "#FF9800"
	ColorPoor      = "#F44336"
)

// ClassifyPercent 根据解决率返回颜色档位与颜色提示
func ClassifyPercent(percent float64) (domain.ColorTier, string) {
	switch {
	case percent >= percentExcellent:
		return domain.ColorTierExcellent, ColorExcellent
	case percent >= percentGood:
		return domain.ColorTierGood, ColorGood
	case percent >= percentFair:
		return domain.ColorTierFair, ColorFair
	default:
		return domain.ColorTierPoor, ColorPoor
	}
}

// ClassifyResolutionTime 根据平均解决天数返回时长档位
func ClassifyResolutionTime(days float64) domain.TimeTier {
	switch {
	case days <= daysFast:
		return domain.TimeTierFast
	case days <= daysModerate:
		return domain.TimeTierModerate
	default:
		return domain.TimeTierSlow
	}
}

// Classify 填充展示用档位字段
func Classify(p domain.OwnerPerformance) domain.OwnerPerformance {
	p.ColorTier, p.Color = ClassifyPercent(p.Percent)
	p.TimeTier = ClassifyResolutionTime(p.AvgResolutionDays)
	return p
}
