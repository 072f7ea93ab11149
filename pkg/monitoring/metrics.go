package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts total requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	// RequestDuration measures request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)

	// SnapshotLoadsTotal counts CSV snapshot loads by result.
	SnapshotLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_snapshot_loads_total",
			Help: "Total number of complaint snapshot loads",
		},
		[]string{"result"},
	)

	// SnapshotRows reports the row count of the current snapshot.
	SnapshotRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "complaint_snapshot_rows",
			Help: "Number of complaint records in the current snapshot",
		},
	)

	// PipelineDuration measures one filter-to-leaderboard computation.
	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "complaint_pipeline_duration_seconds",
			Help:    "Dashboard pipeline duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// DashboardCacheTotal counts dashboard cache lookups by result.
	DashboardCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_dashboard_cache_total",
			Help: "Dashboard cache lookups by result",
		},
		[]string{"result"},
	)

	// WebsocketConnections reports live websocket connections.
	WebsocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "complaint_websocket_connections",
			Help: "Number of live dashboard websocket connections",
		},
	)
)

// 结果标签
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultHit     = "hit"
	ResultMiss    = "miss"
)
