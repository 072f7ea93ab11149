package middleware

import (
	"fmt"
	"net/http"
	"time"

	apperrors "complaintdash/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiterConfig 限流配置
type RateLimiterConfig struct {
	RedisClient *redis.Client
	MaxRequests int           // 最大请求数
	Window      time.Duration // 时间窗口
	KeyPrefix   string        // Redis key前缀
	Logger      *zap.Logger
}

// RateLimiterByIP IP级别固定窗口限流
//
// Redis 不可用时放行请求。
func RateLimiterByIP(config RateLimiterConfig) gin.HandlerFunc {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "rate_limit_ip"
	}
	if config.MaxRequests == 0 {
		config.MaxRequests = 100
	}
	if config.Window == 0 {
		config.Window = time.Minute
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := fmt.Sprintf("%s:%s", config.KeyPrefix, c.ClientIP())

		pipe := config.RedisClient.Pipeline()
		incr := pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, config.Window)
		if _, err := pipe.Exec(ctx); err != nil {
			config.Logger.Warn("Rate limiter unavailable, allowing request", zap.Error(err))
			c.Next()
			return
		}

		count := incr.Val()
		reset := fmt.Sprintf("%d", time.Now().Add(config.Window).Unix())
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", config.MaxRequests))
		c.Header("X-RateLimit-Reset", reset)

		if count > int64(config.MaxRequests) {
			c.Header("X-RateLimit-Remaining", "0")
			resp := apperrors.NewErrorResponse(apperrors.ErrTooManyRequests).
				WithRequestID(GetRequestID(c)).
				WithPath(c.Request.Method, c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, resp)
			return
		}

		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", int64(config.MaxRequests)-count))
		c.Next()
	}
}
