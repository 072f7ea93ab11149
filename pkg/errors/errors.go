package errors

import (
	"github.com/go-kratos/kratos/v2/errors"
)

// 错误原因
const (
	ReasonBadRequest          = "BAD_REQUEST"
	ReasonNotFound            = "NOT_FOUND"
	ReasonTooManyRequests     = "TOO_MANY_REQUESTS"
	ReasonInvalidParameter    = "INVALID_PARAMETER"
	ReasonInvalidDate         = "INVALID_DATE"
	ReasonInvalidFilter       = "INVALID_FILTER"
	ReasonMalformedInput      = "MALFORMED_INPUT"
	ReasonSnapshotUnavailable = "SNAPSHOT_UNAVAILABLE"
	ReasonCircuitBreakerOpen  = "CIRCUIT_BREAKER_OPEN"
	ReasonInternalServerError = "INTERNAL_SERVER_ERROR"
)

// HTTP 状态码
const (
	StatusUnprocessableEntity = 422
	StatusTooManyRequests     = 429
)

// Common errors
var (
	ErrBadRequest          = errors.BadRequest(ReasonBadRequest, "Bad request")
	ErrNotFound            = errors.NotFound(ReasonNotFound, "Resource not found")
	ErrTooManyRequests     = errors.New(StatusTooManyRequests, ReasonTooManyRequests, "Too many requests")
	ErrInternalServerError = errors.InternalServer(ReasonInternalServerError, "Internal server error")
)

// NewInvalidParameter 请求参数错误
func NewInvalidParameter(message string) *errors.Error {
	return errors.BadRequest(ReasonInvalidParameter, message)
}

// NewInvalidDate 日期参数错误
func NewInvalidDate(message string) *errors.Error {
	return errors.BadRequest(ReasonInvalidDate, message)
}

// NewInvalidFilter 筛选条件错误
func NewInvalidFilter(message string) *errors.Error {
	return errors.BadRequest(ReasonInvalidFilter, message)
}

// NewMalformedInput 数据文件格式错误
func NewMalformedInput(message string) *errors.Error {
	return errors.New(StatusUnprocessableEntity, ReasonMalformedInput, message)
}

// NewSnapshotUnavailable 数据快照不可用
func NewSnapshotUnavailable(message string) *errors.Error {
	return errors.ServiceUnavailable(ReasonSnapshotUnavailable, message)
}

// NewInternalServerError creates a new internal server error.
func NewInternalServerError(message string) *errors.Error {
	return errors.InternalServer(ReasonInternalServerError, message)
}

// FromError 转换为 kratos 错误（非 kratos 错误视为内部错误）
func FromError(err error) *errors.Error {
	return errors.FromError(err)
}
