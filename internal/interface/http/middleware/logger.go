package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// requestLog 一次请求的日志字段
type requestLog struct {
	requestID string
	method    string
	path      string
	status    int
	latency   time.Duration
	clientIP  string
}

// write 输出请求日志
// 5xx记为error，4xx记为warn，其余info；超过阈值额外输出一条慢请求告警
func (l requestLog) write(ctx context.Context, log *slog.Logger, slow time.Duration) {
	attrs := []slog.Attr{
		slog.String("request_id", l.requestID),
		slog.String("method", l.method),
		slog.String("path", l.path),
		slog.Int("status", l.status),
		slog.Duration("latency", l.latency),
		slog.String("client_ip", l.clientIP),
	}

	level := slog.LevelInfo
	switch {
	case l.status >= http.StatusInternalServerError:
		level = slog.LevelError
	case l.status >= http.StatusBadRequest:
		level = slog.LevelWarn
	}
	log.LogAttrs(ctx, level, "HTTP请求", attrs...)

	if slow > 0 && l.latency > slow {
		log.LogAttrs(ctx, slog.LevelWarn, "慢请求", attrs...)
	}
}

// Logger 请求日志中间件(gin)
//
// 教学要点：
// 1. 每个请求一个请求ID，写入响应头和Context，便于串联日志
// 2. 记录方法、路径、状态码、耗时、客户端IP
// 3. 不记录请求体
func Logger(log *slog.Logger, slow time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := requestID(c.Request)
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(ContextWithRequestID(c.Request.Context(), id))

		start := time.Now()
		c.Next()

		requestLog{
			requestID: id,
			method:    c.Request.Method,
			path:      c.Request.URL.Path,
			status:    c.Writer.Status(),
			latency:   time.Since(start),
			clientIP:  c.ClientIP(),
		}.write(c.Request.Context(), log, slow)
	}
}

// RequestLogger 请求日志中间件(net/http)
func RequestLogger(log *slog.Logger, slow time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := requestID(r)
			w.Header().Set(RequestIDHeader, id)
			r = r.WithContext(ContextWithRequestID(r.Context(), id))

			rec := newStatusRecorder(w)
			start := time.Now()
			next.ServeHTTP(rec, r)

			requestLog{
				requestID: id,
				method:    r.Method,
				path:      r.URL.Path,
				status:    rec.status,
				latency:   time.Since(start),
				clientIP:  clientIP(r),
			}.write(r.Context(), log, slow)
		})
	}
}
