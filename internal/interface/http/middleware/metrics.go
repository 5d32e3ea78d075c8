package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookcatalog/pkg/metrics"
)

// unmatchedRoute 未匹配任何路由的请求统一归到这个标签，避免路径基数爆炸
const unmatchedRoute = "unmatched"

func observe(method, route string, status int, latency time.Duration) {
	metrics.IncCounterVec(metrics.HTTPRequestsTotal, map[string]string{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	})
	metrics.ObserveHistogramVec(metrics.HTTPRequestDuration, map[string]string{
		"method": method,
		"route":  route,
	}, latency.Seconds())
}

// Metrics HTTP指标中间件(gin)
// route标签使用路由模板(/api/books/:id)而不是实际路径
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.IncGauge(metrics.HTTPRequestsInProgress)
		defer metrics.DecGauge(metrics.HTTPRequestsInProgress)

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		observe(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// Instrument HTTP指标(net/http)
// 在注册路由时按路由模板包装，route标签与gin绑定保持同一种写法
func Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.IncGauge(metrics.HTTPRequestsInProgress)
		defer metrics.DecGauge(metrics.HTTPRequestsInProgress)

		rec := newStatusRecorder(w)
		start := time.Now()
		next.ServeHTTP(rec, r)

		observe(r.Method, route, rec.status, time.Since(start))
	})
}
