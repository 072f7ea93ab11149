package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"complaintdash/cmd/complaint-dashboard/internal/biz"
	"complaintdash/cmd/complaint-dashboard/internal/conf"
	"complaintdash/cmd/complaint-dashboard/internal/data"
	"complaintdash/cmd/complaint-dashboard/internal/domain"
	"complaintdash/cmd/complaint-dashboard/internal/service"
	"complaintdash/cmd/complaint-dashboard/internal/websocket"
	apperrors "complaintdash/pkg/errors"
	"complaintdash/pkg/health"
	"complaintdash/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const fixturePath = "../data/testdata/cases.csv"

func newTestServer(t *testing.T, csvPath string) *HTTPServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config := &conf.Config{
		Observability: conf.ObservabilityConfig{ServiceName: "complaint-dashboard-test", ServiceVersion: "test"},
	}
	logger := zap.NewNop()

	store := data.NewSnapshotStore(csvPath, data.LoadOptions{
		Location:    time.UTC,
		DateLayouts: []string{"1/2/2006 15:04"},
	}, logger)
	uc := biz.NewDashboardUsecase(store, data.NoopDashboardCache{}, biz.DashboardUsecaseConfig{}, logger).
		WithClock(func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) })
	svc := service.NewDashboardService(uc)

	checker := health.NewHealthChecker(config.Observability.ServiceName, config.Observability.ServiceVersion)
	checker.Register(health.NewPingChecker(health.CheckSnapshot, store.Ping))

	hub := websocket.NewHub(svc, websocket.HubConfig{}, logger)
	return NewHTTPServer(config, svc, hub, checker, nil, logger)
}

func doRequest(s *HTTPServer, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	s.Engine().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHTTPServer_Dashboard(t *testing.T) {
	s := newTestServer(t, fixturePath)

	w := doRequest(s, http.MethodGet, "/api/v1/dashboard")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	var d domain.Dashboard
	decode(t, w, &d)
	assert.Equal(t, 7, d.FilteredCount)
	assert.Equal(t, domain.KPIs{Todays: 1, LastWeek: 4, Resolved: 4, Open: 2}, d.KPIs)
	assert.Equal(t, "Alice", d.Owners.Visible[0].Owner)
}

func TestHTTPServer_DashboardQueryParams(t *testing.T) {
	s := newTestServer(t, fixturePath)

	tests := []struct {
		name     string
		query    string
		filtered int
	}{
		{"RepeatedOrigin", "origin=Email&origin=Web", 5},
		{"CommaSeparatedOrigins", "origins=Email,Web", 5},
		{"AllOrigins", "origin=All", 7},
		{"OwnerAndAsOf", "owner=Alice&as_of=2024-03-02", 2},
		{"EmptyOriginMatchesNothing", "origin=", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(s, http.MethodGet, "/api/v1/dashboard?"+tt.query)
			require.Equal(t, http.StatusOK, w.Code)

			var d domain.Dashboard
			decode(t, w, &d)
			assert.Equal(t, tt.filtered, d.FilteredCount)
		})
	}
}

func TestHTTPServer_Parts(t *testing.T) {
	s := newTestServer(t, fixturePath)

	w := doRequest(s, http.MethodGet, "/api/v1/kpis?origin=Web")
	require.Equal(t, http.StatusOK, w.Code)
	var kpis domain.KPIs
	decode(t, w, &kpis)
	assert.Equal(t, 1, kpis.Resolved)

	w = doRequest(s, http.MethodGet, "/api/v1/breakdowns")
	require.Equal(t, http.StatusOK, w.Code)
	var b domain.Breakdowns
	decode(t, w, &b)
	assert.Equal(t, 3, b.ByOrigin["Email"])

	w = doRequest(s, http.MethodGet, "/api/v1/owners?limit=1&offset=1")
	require.Equal(t, http.StatusOK, w.Code)
	var page service.OwnerPage
	decode(t, w, &page)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Owners, 1)
	assert.Equal(t, "Bob", page.Owners[0].Owner)

	w = doRequest(s, http.MethodGet, "/api/v1/filters")
	require.Equal(t, http.StatusOK, w.Code)
	var options domain.FilterOptions
	decode(t, w, &options)
	assert.Equal(t, []string{"All", "Email", "Phone", "Web"}, options.Origins)

	w = doRequest(s, http.MethodGet, "/api/v1/snapshot")
	require.Equal(t, http.StatusOK, w.Code)
	var summary domain.SnapshotSummary
	decode(t, w, &summary)
	assert.Equal(t, 9, summary.Rows)

	w = doRequest(s, http.MethodPost, "/api/v1/snapshot/reload")
	require.Equal(t, http.StatusOK, w.Code)
	var resp apperrors.UnifiedSuccessResponse
	decode(t, w, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "snapshot reloaded", resp.Message)
}

func TestHTTPServer_Errors(t *testing.T) {
	s := newTestServer(t, fixturePath)

	tests := []struct {
		name   string
		target string
		status int
		reason string
	}{
		{"InvalidAsOf", "/api/v1/dashboard?as_of=03/10/2024", http.StatusBadRequest, apperrors.ReasonInvalidDate},
		{"InvalidToday", "/api/v1/kpis?today=yesterday", http.StatusBadRequest, apperrors.ReasonInvalidDate},
		{"InvalidVisible", "/api/v1/dashboard?visible=-2", http.StatusBadRequest, apperrors.ReasonInvalidFilter},
		{"InvalidLimit", "/api/v1/owners?limit=0", http.StatusBadRequest, apperrors.ReasonInvalidParameter},
		{"InvalidOffset", "/api/v1/owners?offset=-1", http.StatusBadRequest, apperrors.ReasonInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(s, http.MethodGet, tt.target)
			require.Equal(t, tt.status, w.Code)

			var resp apperrors.UnifiedErrorResponse
			decode(t, w, &resp)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.reason, resp.Reason)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestHTTPServer_SnapshotUnavailable(t *testing.T) {
	s := newTestServer(t, filepath.Join(t.TempDir(), "missing.csv"))

	w := doRequest(s, http.MethodGet, "/api/v1/dashboard")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp apperrors.UnifiedErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, apperrors.ReasonSnapshotUnavailable, resp.Reason)

	w = doRequest(s, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doRequest(s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPServer_MalformedInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("Origin,Owner\nEmail,Alice\n"), 0o644))
	s := newTestServer(t, path)

	w := doRequest(s, http.MethodGet, "/api/v1/dashboard")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp apperrors.UnifiedErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, apperrors.ReasonMalformedInput, resp.Reason)
	assert.Contains(t, resp.Message, "missing required column")
}

func TestHTTPServer_Ready(t *testing.T) {
	s := newTestServer(t, fixturePath)

	// 就绪依赖已加载的快照
	_, err := s.service.GetSnapshot(context.Background())
	require.NoError(t, err)

	w := doRequest(s, http.MethodGet, "/ready")
	require.Equal(t, http.StatusOK, w.Code)

	var resp health.Response
	decode(t, w, &resp)
	assert.True(t, resp.Ready)
	assert.Equal(t, health.StatusHealthy, resp.Status)
}

func TestHTTPServer_CORSPreflight(t *testing.T) {
	s := newTestServer(t, fixturePath)

	w := doRequest(s, http.MethodOptions, "/api/v1/dashboard")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
