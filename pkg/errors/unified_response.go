package errors

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
)

// UnifiedErrorResponse 统一错误响应格式
type UnifiedErrorResponse struct {
	Success   bool   `json:"success"`    // 始终为false
	ErrorCode string `json:"error_code"` // 5位数字错误码
	Reason    string `json:"reason"`     // 错误原因
	Message   string `json:"message"`    // 用户可读的错误消息
	Timestamp string `json:"timestamp"`  // ISO8601

	RequestID string            `json:"request_id,omitempty"`
	TraceID   string            `json:"trace_id,omitempty"`
	Path      string            `json:"path,omitempty"`
	Method    string            `json:"method,omitempty"`
	Details   map[string]string `json:"details,omitempty"`

	status int
}

// UnifiedSuccessResponse 统一成功响应格式
type UnifiedSuccessResponse struct {
	Success   bool                   `json:"success"` // 始终为true
	Data      interface{}            `json:"data,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Timestamp string                 `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// NewErrorResponse 由 kratos 错误创建错误响应
func NewErrorResponse(err *errors.Error) *UnifiedErrorResponse {
	reason := err.Reason
	if reason == "" {
		reason = ReasonInternalServerError
	}
	resp := &UnifiedErrorResponse{
		Success:   false,
		ErrorCode: strconv.Itoa(CodeOf(reason)),
		Reason:    reason,
		Message:   err.Message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		status:    int(err.Code),
	}
	if len(err.Metadata) > 0 {
		resp.Details = err.Metadata
	}
	return resp
}

// WithRequestID 添加请求ID
func (e *UnifiedErrorResponse) WithRequestID(requestID string) *UnifiedErrorResponse {
	e.RequestID = requestID
	return e
}

// WithTraceID 添加链路追踪ID
func (e *UnifiedErrorResponse) WithTraceID(traceID string) *UnifiedErrorResponse {
	e.TraceID = traceID
	return e
}

// WithPath 添加请求路径与方法
func (e *UnifiedErrorResponse) WithPath(method, path string) *UnifiedErrorResponse {
	e.Method = method
	e.Path = path
	return e
}

// GetHTTPStatus 获取HTTP状态码
func (e *UnifiedErrorResponse) GetHTTPStatus() int {
	if e.status >= 400 && e.status < 600 {
		return e.status
	}
	return http.StatusInternalServerError
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *UnifiedSuccessResponse {
	return &UnifiedSuccessResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// WithMessage 添加消息
func (s *UnifiedSuccessResponse) WithMessage(message string) *UnifiedSuccessResponse {
	s.Message = message
	return s
}

// WithRequestID 添加请求ID
func (s *UnifiedSuccessResponse) WithRequestID(requestID string) *UnifiedSuccessResponse {
	s.RequestID = requestID
	return s
}

// WithMeta 添加元数据
func (s *UnifiedSuccessResponse) WithMeta(meta map[string]interface{}) *UnifiedSuccessResponse {
	s.Meta = meta
	return s
}

// IsRetryable 判断错误是否可重试
func IsRetryable(reason string) bool {
	switch reason {
	case ReasonTooManyRequests, ReasonSnapshotUnavailable, ReasonCircuitBreakerOpen:
		return true
	}
	return false
}
