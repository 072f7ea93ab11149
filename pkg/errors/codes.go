package errors

// 错误码规范：
// - 1xxxx: 通用错误（HTTP 4xx）
// - 2xxxx: 业务逻辑错误
// - 3xxxx: 数据访问错误
// - 4xxxx: 外部依赖错误
// - 5xxxx: 系统级错误（HTTP 5xx）

// ==================== 通用错误 (10000-19999) ====================

const (
	CodeBadRequest      = 10000
	CodeNotFound        = 10003
	CodeTooManyRequests = 10006

	// 参数错误 (10100-10199)
	CodeInvalidParameter = 10100
	CodeInvalidDate      = 10103
)

// ==================== 业务逻辑错误 (20000-29999) ====================

const (
	CodeInvalidFilter = 20000
)

// ==================== 数据访问错误 (30000-39999) ====================

const (
	CodeMalformedInput      = 30001
	CodeSnapshotUnavailable = 30002

	// 缓存错误 (30100-30199)
	CodeCacheError = 30100
)

// ==================== 外部依赖错误 (40000-49999) ====================

const (
	CodeCircuitBreakerOpen = 40003
)

// ==================== 系统错误 (50000-59999) ====================

const (
	CodeInternalServerError = 50000
)

// reasonCodes kratos reason 与数字错误码的对应关系
var reasonCodes = map[string]int{
	ReasonBadRequest:          CodeBadRequest,
	ReasonNotFound:            CodeNotFound,
	ReasonTooManyRequests:     CodeTooManyRequests,
	ReasonInvalidParameter:    CodeInvalidParameter,
	ReasonInvalidDate:         CodeInvalidDate,
	ReasonInvalidFilter:       CodeInvalidFilter,
	ReasonMalformedInput:      CodeMalformedInput,
	ReasonSnapshotUnavailable: CodeSnapshotUnavailable,
	ReasonCircuitBreakerOpen:  CodeCircuitBreakerOpen,
	ReasonInternalServerError: CodeInternalServerError,
}

// CodeOf 根据 reason 获取数字错误码，未知 reason 返回系统错误码
func CodeOf(reason string) int {
	if code, ok := reasonCodes[reason]; ok {
		return code
	}
	return CodeInternalServerError
}
