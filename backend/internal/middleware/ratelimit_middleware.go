/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-13 23:10:00
 * @FilePath: \inventory-app\backend\internal\middleware\ratelimit_middleware.go
 * @LastEditTime: 2025-10-24 10:32:16
 */
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	response "inventory-app/backend/internal/infra/common"
	appLogger "inventory-app/backend/internal/infra/logger"
	"inventory-app/backend/internal/infra/ratelimit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitMiddleware 按客户端 IP 做固定窗口限流。
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	policy  ratelimit.Policy
	prefix  string
	logger  *zap.SugaredLogger
}

// NewRateLimitMiddleware 构建限流中间件，policy.Limit <= 0 时不限流。
func NewRateLimitMiddleware(limiter ratelimit.Limiter, policy ratelimit.Policy) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		policy:  policy,
		prefix:  "ratelimit:ip",
		logger:  appLogger.S().With("component", "middleware.ratelimit"),
	}
}

// Handle 返回 Gin 中间件，超限时返回 429 并带上 Retry-After。
func (m *RateLimitMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.limiter == nil || m.policy.Limit <= 0 {
			c.Next()
			return
		}
		ip := strings.TrimSpace(c.ClientIP())
		if ip == "" {
			c.Next()
			return
		}

		decision, err := m.limiter.Take(c.Request.Context(), m.prefix+":"+ip, m.policy)
		if err != nil {
			// 限流后端故障时放行
			m.logger.Warnw("rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			m.logger.Infow("request rate limited", "ip", ip, "retry_after", seconds)
			response.Fail(c, http.StatusTooManyRequests, response.ErrTooManyRequests, "request rate limited", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
