package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func fail(context.Context) error { return errors.New("connection refused") }

func TestPingChecker(t *testing.T) {
	assert.Equal(t, StatusHealthy, NewPingChecker(CheckSnapshot, ok).Check(context.Background()).Status)

	result := NewPingChecker(CheckSnapshot, fail).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Equal(t, "connection refused", result.Error)

	assert.Equal(t, StatusDegraded, NewOptionalChecker(CheckRedis, fail).Check(context.Background()).Status)
}

func TestHealthChecker_Readiness(t *testing.T) {
	tests := []struct {
		name     string
		snapshot func(context.Context) error
		redis    func(context.Context) error
		status   Status
		ready    bool
	}{
		{"AllHealthy", ok, ok, StatusHealthy, true},
		{"RedisDown", ok, fail, StatusDegraded, true},
		{"SnapshotMissing", fail, ok, StatusUnhealthy, false},
		{"BothDown", fail, fail, StatusUnhealthy, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker("complaint-dashboard", "test")
			h.Register(NewPingChecker(CheckSnapshot, tt.snapshot))
			h.Register(NewOptionalChecker(CheckRedis, tt.redis))

			resp := h.Readiness(context.Background())
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.ready, resp.Ready)
			require.Len(t, resp.Dependencies, 2)
			assert.Contains(t, resp.Dependencies, CheckSnapshot)
		})
	}
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker("complaint-dashboard", "1.0.0")
	h.Register(NewPingChecker(CheckSnapshot, fail))

	resp := h.Liveness()
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.True(t, resp.Ready)
	assert.Equal(t, "complaint-dashboard", resp.Service)
	assert.Empty(t, resp.Dependencies)
	assert.Positive(t, resp.Goroutines)
}
