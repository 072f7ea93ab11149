package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInvalidDate, CodeOf(ReasonInvalidDate))
	assert.Equal(t, CodeMalformedInput, CodeOf(ReasonMalformedInput))
	assert.Equal(t, CodeInternalServerError, CodeOf("SOMETHING_ELSE"))
}

func TestNewErrorResponse(t *testing.T) {
	tests := []struct {
		name   string
		err    *errors.Error
		status int
		code   string
	}{
		{"InvalidDate", NewInvalidDate("as_of: bad date"), http.StatusBadRequest, "10103"},
		{"InvalidFilter", NewInvalidFilter("visible must be a non-negative integer"), http.StatusBadRequest, "20000"},
		{"MalformedInput", NewMalformedInput("missing required column"), http.StatusUnprocessableEntity, "30001"},
		{"SnapshotUnavailable", NewSnapshotUnavailable("no snapshot"), http.StatusServiceUnavailable, "30002"},
		{"TooManyRequests", ErrTooManyRequests, http.StatusTooManyRequests, "10006"},
		{"Internal", NewInternalServerError("boom"), http.StatusInternalServerError, "50000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewErrorResponse(tt.err).WithRequestID("req-1").WithPath(http.MethodGet, "/api/v1/dashboard")

			assert.False(t, resp.Success)
			assert.Equal(t, tt.status, resp.GetHTTPStatus())
			assert.Equal(t, tt.code, resp.ErrorCode)
			assert.Equal(t, tt.err.Reason, resp.Reason)
			assert.Equal(t, "req-1", resp.RequestID)
			assert.Equal(t, "/api/v1/dashboard", resp.Path)
		})
	}
}

func TestFromError(t *testing.T) {
	plain := FromError(stderrors.New("disk on fire"))
	resp := NewErrorResponse(plain)
	assert.Equal(t, http.StatusInternalServerError, resp.GetHTTPStatus())

	wrapped := FromError(NewInvalidParameter("limit must be between 1 and 100"))
	assert.Equal(t, ReasonInvalidParameter, wrapped.Reason)
}

func TestNewSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse(map[string]int{"rows": 9}).
		WithMessage("snapshot reloaded").
		WithRequestID("req-2").
		WithMeta(map[string]interface{}{"version": "abc"})

	assert.True(t, resp.Success)
	assert.Equal(t, "snapshot reloaded", resp.Message)
	assert.Equal(t, "req-2", resp.RequestID)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ReasonSnapshotUnavailable))
	assert.True(t, IsRetryable(ReasonTooManyRequests))
	assert.False(t, IsRetryable(ReasonInvalidDate))
	assert.False(t, IsRetryable(ReasonMalformedInput))
}
