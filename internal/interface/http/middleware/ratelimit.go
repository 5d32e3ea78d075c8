package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookcatalog/internal/infrastructure/ratelimit"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
	"github.com/xiebiao/bookcatalog/pkg/metrics"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

// MsgTooManyRequests 限流响应文案
const MsgTooManyRequests = "Too many requests"

// rateGate 按客户端IP限流
// 限流后端出错时放行(fail open)，只记录日志
type rateGate struct {
	limiter ratelimit.Limiter
	logger  *slog.Logger
}

// check 超出配额时返回ErrRateLimited，并写好X-RateLimit-*与Retry-After头
func (g rateGate) check(ctx context.Context, h http.Header, key string) error {
	d, err := g.limiter.Allow(ctx, key)
	if err != nil {
		g.logger.WarnContext(ctx, "限流检查失败，放行请求",
			slog.String("client_ip", key),
			slog.Any("error", err),
		)
		return nil
	}

	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	if d.Allowed {
		return nil
	}

	metrics.IncCounter(metrics.RateLimitedTotal)
	h.Set("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
	g.logger.DebugContext(ctx, "请求被限流",
		slog.String("client_ip", key),
		slog.Duration("retry_after", d.RetryAfter),
	)
	return apperrors.ErrRateLimited
}

// RateLimit 限流中间件(gin)
// 超出配额返回429 {"error":"Too many requests"}
func RateLimit(limiter ratelimit.Limiter, logger *slog.Logger) gin.HandlerFunc {
	gate := rateGate{limiter: limiter, logger: logger}
	return func(c *gin.Context) {
		if err := gate.check(c.Request.Context(), c.Writer.Header(), c.ClientIP()); err != nil {
			response.JSON(c, response.Error(http.StatusTooManyRequests, MsgTooManyRequests))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimitHandler 限流中间件(net/http)
func RateLimitHandler(limiter ratelimit.Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	gate := rateGate{limiter: limiter, logger: logger}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := gate.check(r.Context(), w.Header(), clientIP(r)); err != nil {
				_ = response.Write(w, response.Error(http.StatusTooManyRequests, MsgTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
