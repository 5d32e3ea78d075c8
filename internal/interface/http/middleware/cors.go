package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
)

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Request-ID"
)

// corsPolicy 跨域策略
// 浏览器端的图书页面与API不同源(3000 → 8080)，需要CORS头
type corsPolicy struct {
	enabled   bool
	anyOrigin bool
	origins   map[string]bool
	maxAge    string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	p := corsPolicy{
		enabled: cfg.Enabled,
		origins: make(map[string]bool, len(cfg.AllowedOrigins)),
	}
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			p.anyOrigin = true
		}
		p.origins[o] = true
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return p
}

// apply 写入CORS响应头
// 返回值：origin是否被拒绝、是否为预检请求(调用方直接返回204)
func (p corsPolicy) apply(h http.Header, origin, method string) (rejected, preflight bool) {
	if !p.enabled || origin == "" {
		return false, false
	}

	switch {
	case p.anyOrigin:
		h.Set("Access-Control-Allow-Origin", "*")
	case p.origins[origin]:
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
	default:
		return true, false
	}

	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	h.Set("Access-Control-Expose-Headers", RequestIDHeader)
	if p.maxAge != "" {
		h.Set("Access-Control-Max-Age", p.maxAge)
	}
	return false, strings.EqualFold(method, http.MethodOptions)
}

// CORS 跨域资源共享中间件(gin)
//
// 教学要点：
// 1. 只有带Origin头的请求才需要处理
// 2. Origin不在允许列表中直接403
// 3. 预检请求(OPTIONS)返回204，不进入业务处理
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	return func(c *gin.Context) {
		rejected, preflight := policy.apply(c.Writer.Header(), c.GetHeader("Origin"), c.Request.Method)
		switch {
		case rejected:
			c.AbortWithStatus(http.StatusForbidden)
		case preflight:
			c.AbortWithStatus(http.StatusNoContent)
		default:
			c.Next()
		}
	}
}

// CORSHandler 跨域资源共享中间件(net/http)
func CORSHandler(cfg config.CORSConfig) func(http.Handler) http.Handler {
	policy := newCORSPolicy(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rejected, preflight := policy.apply(w.Header(), r.Header.Get("Origin"), r.Method)
			switch {
			case rejected:
				w.WriteHeader(http.StatusForbidden)
			case preflight:
				w.WriteHeader(http.StatusNoContent)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
