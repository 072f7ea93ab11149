package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput 输入文件格式错误
	ErrMalformedInput = errors.New("malformed input")

	// ErrInvalidFilter 无效的筛选条件
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvalidDate 无效的日期
	ErrInvalidDate = errors.New("invalid date")

	// ErrSnapshotUnavailable 数据快照不可用
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")
)

// MalformedInputError 描述 CSV 中具体出错的位置
type MalformedInputError struct {
	Path   string
	Row    int // 数据行号（从1开始，不含表头），0 表示表头
	Column string
	Value  string
	Err    error
}

func (e *MalformedInputError) Error() string {
	switch {
	case e.Row == 0 && e.Column != "":
		return fmt.Sprintf("malformed input %s: missing required column %q", e.Path, e.Column)
	case e.Column != "":
		return fmt.Sprintf("malformed input %s: row %d column %q value %q: %v", e.Path, e.Row, e.Column, e.Value, e.Err)
	default:
		return fmt.Sprintf("malformed input %s: %v", e.Path, e.Err)
	}
}

// Unwrap 返回底层错误
func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrMalformedInput) 成立
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}
