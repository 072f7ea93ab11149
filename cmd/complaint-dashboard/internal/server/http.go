package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"complaintdash/cmd/complaint-dashboard/internal/conf"
	"complaintdash/cmd/complaint-dashboard/internal/domain"
	"complaintdash/cmd/complaint-dashboard/internal/service"
	"complaintdash/cmd/complaint-dashboard/internal/websocket"
	apperrors "complaintdash/pkg/errors"
	"complaintdash/pkg/health"
	"complaintdash/pkg/middleware"
	"complaintdash/pkg/observability"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultOwnerLimit = 20
	maxOwnerLimit     = 100
)

// HTTPServer HTTP 服务器
type HTTPServer struct {
	engine      *gin.Engine
	service     *service.DashboardService
	hub         *websocket.Hub
	health      *health.HealthChecker
	config      *conf.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewHTTPServer 创建 HTTP 服务器（redisClient 可为 nil）
func NewHTTPServer(
	config *conf.Config,
	srv *service.DashboardService,
	hub *websocket.Hub,
	checker *health.HealthChecker,
	redisClient *redis.Client,
	logger *zap.Logger,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	s := &HTTPServer{
		engine:      gin.New(),
		service:     srv,
		hub:         hub,
		health:      checker,
		config:      config,
		redisClient: redisClient,
		logger:      logger.With(zap.String("module", "http-server")),
	}

	s.registerMiddlewares()
	s.registerRoutes()

	return s
}

// registerMiddlewares 注册中间件
func (s *HTTPServer) registerMiddlewares() {
	s.engine.Use(gin.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(s.requestLogger())
	s.engine.Use(middleware.Metrics(s.config.Observability.ServiceName))
	s.engine.Use(s.corsMiddleware())

	if rl := s.config.Resilience.RateLimit; rl.Enabled && s.redisClient != nil {
		s.engine.Use(middleware.RateLimiterByIP(middleware.RateLimiterConfig{
			RedisClient: s.redisClient,
			MaxRequests: rl.MaxRequests,
			Window:      rl.Window,
			KeyPrefix:   s.config.Cache.KeyPrefix + ":rate_limit_ip",
			Logger:      s.logger,
		}))
	}
}

// requestLogger 请求日志中间件
func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
	}
}

// corsMiddleware CORS 中间件
func (s *HTTPServer) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// registerRoutes 注册路由
func (s *HTTPServer) registerRoutes() {
	api := s.engine.Group("/api/v1")
	{
		api.GET("/dashboard", s.getDashboard)
		api.GET("/kpis", s.getKPIs)
		api.GET("/breakdowns", s.getBreakdowns)
		api.GET("/owners", s.listOwners)
		api.GET("/filters", s.getFilterOptions)
		api.GET("/snapshot", s.getSnapshot)
		api.POST("/snapshot/reload", s.reloadSnapshot)
	}

	s.engine.GET("/ws/dashboard", s.serveWebsocket)

	s.engine.GET("/health", s.healthCheck)
	s.engine.GET("/ready", s.readinessCheck)
}

// getDashboard 获取完整看板
func (s *HTTPServer) getDashboard(c *gin.Context) {
	req, err := dashboardRequest(c)
	if err != nil {
		s.handleServiceError(c, err)
		return
	}

	dashboard, err := s.service.GetDashboard(c.Request.Context(), req)
	if err != nil {
		s.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// getKPIs 获取顶部指标
func (s *HTTPServer) getKPIs(c *gin.Context) {
	req, err := dashboardRequest(c)
	if err != nil {
		s.handleServiceError(c, err)
		return
	}

	kpis, err := s.service.GetKPIs(c.Request.Context(), req)
	if err != nil {
		s.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, kpis)
}

// getBreakdowns 获取分项统计
func (s *HTTPServer) getBreakdowns(c *gin.Context) {
	req, err := dashboardRequest(c)
	if err != nil {
		s.handleServiceError(c, err)
		return
	}

	breakdowns, err := s.service.GetBreakdowns(c.Request.Context(), req)
	if err != nil {
		s.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, breakdowns)
}

// listOwners 排行榜分页
func (s *HTTPServer) listOwners(c *gin.Context) {
	req, err := dashboardRequest(c)
	if err != nil {
		s.handleServiceError(c, err)
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultOwnerLimit)))
	if err != nil || limit <= 0 || limit > maxOwnerLimit {
		s.respondError(c, apperrors.NewInvalidParameter("invalid limit, must be between 1 and 100"))
		return
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		s.respondError(c, apperrors.NewInvalidParameter("invalid offset, must be non-negative"))
		return
	}

	page, err := s.service.ListOwners(c.Request.Context(), req, limit, offset)
	if err != nil {
		s.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// getFilterOptions 获取可选筛选项
func (s *HTTPServer) getFilterOptions(c *gin.Context) {
	options, err := s.service.GetFilterOptions(c.Request.Context())
	if err != nil {
		s.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, options)
}

// getSnapshot 获取快照摘要
func (s *HTTPServer) getSnapshot(c *gin.Context) {
	summary, err := s.service.GetSnapshot(c.Request.Context())
	if err != nil {
		s.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// reloadSnapshot 强制重新加载
func (s *HTTPServer) reloadSnapshot(c *gin.Context) {
	summary, err := s.service.ReloadSnapshot(c.Request.Context())
	if err != nil {
		s.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, apperrors.NewSuccessResponse(summary).
		WithMessage("snapshot reloaded").
		WithRequestID(middleware.GetRequestID(c)))
}

// serveWebsocket 升级为 WebSocket 连接
func (s *HTTPServer) serveWebsocket(c *gin.Context) {
	if err := s.hub.ServeWS(c.Writer, c.Request); err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
	}
}

// healthCheck 存活检查
func (s *HTTPServer) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, s.health.Liveness())
}

// readinessCheck 就绪检查
func (s *HTTPServer) readinessCheck(c *gin.Context) {
	resp := s.health.Readiness(c.Request.Context())
	if !resp.Ready {
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Engine 返回 Gin 引擎
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}

// respondError 以统一格式响应错误
func (s *HTTPServer) respondError(c *gin.Context, err *kerrors.Error) {
	resp := apperrors.NewErrorResponse(err).
		WithRequestID(middleware.GetRequestID(c)).
		WithTraceID(observability.TraceID(c.Request.Context())).
		WithPath(c.Request.Method, c.Request.URL.Path)
	c.JSON(resp.GetHTTPStatus(), resp)
}

// handleServiceError 处理服务层错误
func (s *HTTPServer) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrMalformedInput):
		s.respondError(c, apperrors.NewMalformedInput(err.Error()))
	case errors.Is(err, domain.ErrInvalidDate):
		s.respondError(c, apperrors.NewInvalidDate(err.Error()))
	case errors.Is(err, domain.ErrInvalidFilter):
		s.respondError(c, apperrors.NewInvalidFilter(err.Error()))
	case errors.Is(err, domain.ErrSnapshotUnavailable):
		s.respondError(c, apperrors.NewSnapshotUnavailable(err.Error()))
	default:
		s.logger.Error("Service error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		s.respondError(c, apperrors.NewInternalServerError("internal server error"))
	}
}

// dashboardRequest 解析看板查询参数
//
// 来源与负责人：origin/owner 可重复，值按原样使用；origins/owners 为逗号分隔。
// 两者都未出现时为 nil（即 "All"）。
func dashboardRequest(c *gin.Context) (service.DashboardRequest, error) {
	req := service.DashboardRequest{
		AsOf:    c.Query("as_of"),
		Today:   c.Query("today"),
		Origins: multiValue(c, "origin", "origins"),
		Owners:  multiValue(c, "owner", "owners"),
	}

	if v := c.Query("visible"); v != "" {
		visible, err := strconv.Atoi(v)
		if err != nil || visible < 0 {
			return req, fmt.Errorf("%w: visible must be a non-negative integer", domain.ErrInvalidFilter)
		}
		req.Visible = visible
	}
	return req, nil
}

func multiValue(c *gin.Context, repeated, commaSeparated string) []string {
	single, hasSingle := c.GetQueryArray(repeated)
	joined, hasJoined := c.GetQueryArray(commaSeparated)
	if !hasSingle && !hasJoined {
		return nil
	}

	values := make([]string, 0, len(single)+len(joined))
	for _, v := range single {
		if v != "" {
			values = append(values, v)
		}
	}
	for _, v := range joined {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}
	return values
}
