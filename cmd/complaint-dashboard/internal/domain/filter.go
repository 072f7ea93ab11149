package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

// AllValues 表示"全部"的哨兵值
const AllValues = "All"

// FilterSelection 一次查询的筛选条件
//
// Origins/Owners 在构建时已经解析完毕："All" 展开为快照中出现过的全部非空值。
type FilterSelection struct {
	AsOfDate   time.Time
	Origins    map[string]struct{}
	Owners     map[string]struct{}
	AllOrigins bool
	AllOwners  bool
}

// NewFilterSelection 基于快照构建筛选条件
func NewFilterSelection(table *Table, asOf time.Time, origins, owners []string) (FilterSelection, error) {
	if table == nil {
		return FilterSelection{}, ErrSnapshotUnavailable
	}
	if asOf.IsZero() {
		return FilterSelection{}, fmt.Errorf("%w: as-of date is required", ErrInvalidDate)
	}

	loc := table.Location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := asOf.Date()

	sel := FilterSelection{
		AsOfDate:   time.Date(y, m, d, 0, 0, 0, 0, loc),
		AllOrigins: lo.Contains(origins, AllValues),
		AllOwners:  lo.Contains(owners, AllValues),
	}

	if sel.AllOrigins {
		sel.Origins = toSet(table.DistinctOrigins())
	} else {
		sel.Origins = toSet(origins)
	}
	if sel.AllOwners {
		sel.Owners = toSet(table.DistinctOwners())
	} else {
		sel.Owners = toSet(owners)
	}

	return sel, nil
}

// MatchOrigin 来源是否被选中（空值永不匹配）
func (s FilterSelection) MatchOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	_, ok := s.Origins[origin]
	return ok
}

// MatchOwner 负责人是否被选中（空值永不匹配）
func (s FilterSelection) MatchOwner(owner string) bool {
	if owner == "" {
		return false
	}
	_, ok := s.Owners[owner]
	return ok
}

// Key 规范化的筛选条件键（用于缓存）
func (s FilterSelection) Key() string {
	var b strings.Builder
	b.WriteString(s.AsOfDate.Format("2006-01-02"))
	b.WriteString("|o:")
	b.WriteString(setKey(s.Origins, s.AllOrigins))
	b.WriteString("|w:")
	b.WriteString(setKey(s.Owners, s.AllOwners))
	return b.String()
}

func setKey(set map[string]struct{}, all bool) string {
	if all {
		return AllValues
	}
	keys := lo.Keys(set)
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

// FilterOptions 可选的筛选项（首项为 "All"）
type FilterOptions struct {
	Origins []string  `json:"origins" yaml:"origins"`
	Owners  []string  `json:"owners" yaml:"owners"`
	MinDate time.Time `json:"min_date" yaml:"min_date"`
	MaxDate time.Time `json:"max_date" yaml:"max_date"`
}
