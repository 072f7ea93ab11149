package middleware

import (
	"strconv"
	"time"

	"complaintdash/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

// Metrics 记录请求数与耗时
//
// path 使用路由模板，未匹配的路由记为 "unmatched"。
func Metrics(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		monitoring.RequestsTotal.WithLabelValues(service, c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		monitoring.RequestDuration.WithLabelValues(service, c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
