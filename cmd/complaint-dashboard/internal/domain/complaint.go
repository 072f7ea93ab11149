package domain

import (
	"time"

	"github.com/samber/lo"
)

// 源文件中的必需列
const (
	ColumnCreatedOn    = "Created On"
	ColumnModifiedOn   = "(Do Not Modify) Modified On"
	ColumnOrigin       = "Origin"
	ColumnOwner        = "Owner"
	ColumnStatusReason = "Status Reason"
)

// RequiredColumns 必需列（按校验顺序）
var RequiredColumns = []string{
	ColumnCreatedOn,
	ColumnModifiedOn,
	ColumnOrigin,
	ColumnOwner,
	ColumnStatusReason,
}

// ComplaintRecord 投诉记录
//
// Origin、Owner、StatusReason 为空字符串表示空值（源文件中的空单元格或 NA 类标记）。
type ComplaintRecord struct {
	Row          int
	CreatedOn    time.Time
	ModifiedOn   time.Time
	Origin       string
	Owner        string
	StatusReason string
	Attributes   map[string]string
}

// HasOrigin 来源是否非空
func (r *ComplaintRecord) HasOrigin() bool {
	return r.Origin != ""
}

// HasOwner 负责人是否非空
func (r *ComplaintRecord) HasOwner() bool {
	return r.Owner != ""
}

// HasStatus 状态原因是否非空
func (r *ComplaintRecord) HasStatus() bool {
	return r.StatusReason != ""
}

// ResolutionDays 从创建到最后修改的天数（含小数）
func (r *ComplaintRecord) ResolutionDays() float64 {
	return r.ModifiedOn.Sub(r.CreatedOn).Seconds() / 86400
}

// CreatedDate 创建日期（当天零点，保留时区）
func (r *ComplaintRecord) CreatedDate() time.Time {
	return DateOf(r.CreatedOn)
}

// Table 一次加载得到的只读数据快照
type Table struct {
	Path     string
	Version  string
	ModTime  time.Time
	Size     int64
	LoadedAt time.Time
	Location *time.Location
	Columns  []string
	Records  []ComplaintRecord
}

// Len 记录数
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// DistinctOrigins 按首次出现顺序返回非空来源
func (t *Table) DistinctOrigins() []string {
	if t == nil {
		return nil
	}
	values := lo.FilterMap(t.Records, func(r ComplaintRecord, _ int) (string, bool) {
		return r.Origin, r.HasOrigin()
	})
	return lo.Uniq(values)
}

// DistinctOwners 按首次出现顺序返回非空负责人
func (t *Table) DistinctOwners() []string {
	if t == nil {
		return nil
	}
	values := lo.FilterMap(t.Records, func(r ComplaintRecord, _ int) (string, bool) {
		return r.Owner, r.HasOwner()
	})
	return lo.Uniq(values)
}

// Summary 快照摘要
func (t *Table) Summary() SnapshotSummary {
	return SnapshotSummary{
		Path:     t.Path,
		Version:  t.Version,
		Rows:     t.Len(),
		Columns:  len(t.Columns),
		ModTime:  t.ModTime,
		LoadedAt: t.LoadedAt,
	}
}

// SnapshotSummary 快照摘要
type SnapshotSummary struct {
	Path     string    `json:"path" yaml:"path"`
	Version  string    `json:"version" yaml:"version"`
	Rows     int       `json:"rows" yaml:"rows"`
	Columns  int       `json:"columns" yaml:"columns"`
	ModTime  time.Time `json:"mod_time" yaml:"mod_time"`
	LoadedAt time.Time `json:"loaded_at" yaml:"loaded_at"`
}

// FilteredView 满足筛选条件的记录（保持源顺序）
type FilteredView struct {
	Records []ComplaintRecord
}

// Len 记录数
func (v FilteredView) Len() int {
	return len(v.Records)
}

// DateOf 截断到日期（保留时区）
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
