package biz

import (
	"math"
	"strings"
)

// 状态原因匹配关键字（区分大小写的子串匹配）
const (
	StatusResolved = "Resolved"
	StatusDeclined = "Declined"
	StatusClosed   = "Closed"
)

var closedStatuses = []string{StatusResolved, StatusDeclined, StatusClosed}

// IsResolved 状态原因包含 "Resolved"；空值不匹配
func IsResolved(status string) bool {
	return strings.Contains(status, StatusResolved)
}

// IsOpen 状态原因不包含 Resolved/Declined/Closed 中任何一个；空值视为未结
func IsOpen(status string) bool {
	for _, s := range closedStatuses {
		if strings.Contains(status, s) {
			return false
		}
	}
	return true
}

// round1 保留一位小数，采用银行家舍入（与 numpy round 一致）
func round1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}
