package data

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"complaintdash/cmd/complaint-dashboard/internal/domain"

	"github.com/araddon/dateparse"
	"github.com/samber/lo"
)

const utf8BOM = "\ufeff"

// naTokens 视为空值的单元格内容
var naTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// LoadOptions 加载选项
type LoadOptions struct {
	// Location 无时区信息的时间按此时区解析，默认 UTC
	Location *time.Location
	// DateLayouts 优先尝试的时间格式，全部失败后自动识别
	DateLayouts []string
}

func (o LoadOptions) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// LoadCSV 从文件加载快照
func LoadCSV(ctx context.Context, path string, opts LoadOptions) (*domain.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	table, err := parseCSV(ctx, file, opts)
	if err != nil {
		var malformed *domain.MalformedInputError
		if errors.As(err, &malformed) {
			malformed.Path = path
		}
		return nil, err
	}

	table.Path = path
	table.ModTime = info.ModTime()
	table.Size = info.Size()
	table.Version = snapshotVersion(path, info.ModTime(), info.Size())
	return table, nil
}

// ParseCSV 从任意 reader 解析快照（不含文件元数据）
func ParseCSV(r io.Reader, opts LoadOptions) (*domain.Table, error) {
	return parseCSV(context.Background(), r, opts)
}

func parseCSV(ctx context.Context, r io.Reader, opts LoadOptions) (*domain.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &domain.MalformedInputError{Err: errors.New("empty file, header row is missing")}
	}
	if err != nil {
		return nil, &domain.MalformedInputError{Err: err}
	}

	header = normalizeHeader(header)
	idx := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	for _, col := range domain.RequiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, &domain.MalformedInputError{Column: col, Err: errors.New("missing required column")}
		}
	}

	p := rowParser{header: header, idx: idx, opts: opts, loc: opts.location()}
	table := &domain.Table{
		Location: p.loc,
		Columns:  header,
		Records:  []domain.ComplaintRecord{},
		LoadedAt: time.Now(),
	}

	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &domain.MalformedInputError{Row: row, Err: err}
		}

		record, err := p.parse(row, fields)
		if err != nil {
			return nil, err
		}
		table.Records = append(table.Records, record)
	}

	return table, nil
}

// normalizeHeader 去掉 BOM 与首尾空白
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		out[i] = strings.TrimSpace(name)
	}
	return out
}

type rowParser struct {
	header []string
	idx    map[string]int
	opts   LoadOptions
	loc    *time.Location
}

func (p rowParser) parse(row int, fields []string) (domain.ComplaintRecord, error) {
	get := func(col string) string {
		pos := p.idx[col]
		if pos >= len(fields) {
			return ""
		}
		return nullable(fields[pos])
	}

	created, err := p.parseTime(get(domain.ColumnCreatedOn))
	if err != nil {
		return domain.ComplaintRecord{}, &domain.MalformedInputError{
			Row: row, Column: domain.ColumnCreatedOn, Value: get(domain.ColumnCreatedOn), Err: err,
		}
	}
	modified, err := p.parseTime(get(domain.ColumnModifiedOn))
	if err != nil {
		return domain.ComplaintRecord{}, &domain.MalformedInputError{
			Row: row, Column: domain.ColumnModifiedOn, Value: get(domain.ColumnModifiedOn), Err: err,
		}
	}

	record := domain.ComplaintRecord{
		Row:          row,
		CreatedOn:    created,
		ModifiedOn:   modified,
		Origin:       get(domain.ColumnOrigin),
		Owner:        get(domain.ColumnOwner),
		StatusReason: get(domain.ColumnStatusReason),
	}

	for i, name := range p.header {
		if isRequired(name) || i >= len(fields) {
			continue
		}
		if record.Attributes == nil {
			record.Attributes = make(map[string]string)
		}
		record.Attributes[name] = fields[i]
	}
	return record, nil
}

// parseTime 先按配置格式解析，再自动识别；结果统一转换到配置时区
func (p rowParser) parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}

	for _, layout := range p.opts.DateLayouts {
		if t, err := time.ParseInLocation(layout, value, p.loc); err == nil {
			return t.In(p.loc), nil
		}
	}

	t, err := dateparse.ParseIn(value, p.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unsupported timestamp format: %w", err)
	}
	// 带偏移量的值按原偏移解析
	return t.In(p.loc), nil
}

// nullable 空值标记统一为空字符串
func nullable(value string) string {
	if _, ok := naTokens[strings.TrimSpace(value)]; ok {
		return ""
	}
	return value
}

func isRequired(name string) bool {
	return lo.Contains(domain.RequiredColumns, name)
}

// snapshotVersion 由路径、修改时间、大小计算快照版本
func snapshotVersion(path string, modTime time.Time, size int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", path, modTime.UnixNano(), size)))
	return hex.EncodeToString(sum[:8])
}
