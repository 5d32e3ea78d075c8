package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/ratelimit"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubLimiter struct {
	decision ratelimit.Decision
	err      error
}

func (s stubLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return s.decision, s.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"RemoteAddr", nil, "10.0.0.1:5555", "10.0.0.1"},
		{"X-Forwarded-For取第一个", map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, "10.0.0.1:5555", "1.1.1.1"},
		{"X-Real-IP", map[string]string{"X-Real-IP": "3.3.3.3"}, "10.0.0.1:5555", "3.3.3.3"},
		{"无端口", nil, "10.0.0.9", "10.0.0.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(r))
		})
	}
}

func TestRequestLogger(t *testing.T) {
	log, buf := bufferLogger()

	var seen string
	h := RequestLogger(log, time.Nanosecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		time.Sleep(time.Millisecond)
		w.WriteHeader(http.StatusNotFound)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books/9", nil))

	id := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, seen)

	out := buf.String()
	assert.Contains(t, out, "level=WARN msg=HTTP请求")
	assert.Contains(t, out, "status=404")
	assert.Contains(t, out, "path=/api/books/9")
	assert.Contains(t, out, "慢请求")
}

func TestLogger_ReusesRequestID(t *testing.T) {
	log, buf := bufferLogger()
	r := gin.New()
	r.Use(Logger(log, 0))
	r.GET("/x", func(c *gin.Context) {
		assert.Equal(t, "abc-123", RequestIDFromContext(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), "request_id=abc-123")
	assert.NotContains(t, buf.String(), "慢请求")
}

func TestCORSPolicy(t *testing.T) {
	p := newCORSPolicy(config.CORSConfig{Enabled: true, AllowedOrigins: []string{"http://a.test"}, MaxAge: 60})

	h := http.Header{}
	rejected, preflight := p.apply(h, "http://a.test", http.MethodOptions)
	assert.False(t, rejected)
	assert.True(t, preflight)
	assert.Equal(t, "http://a.test", h.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", h.Get("Vary"))
	assert.Equal(t, "60", h.Get("Access-Control-Max-Age"))

	h = http.Header{}
	rejected, _ = p.apply(h, "http://b.test", http.MethodGet)
	assert.True(t, rejected)
	assert.Empty(t, h.Get("Access-Control-Allow-Origin"))

	// 同源请求没有Origin头，不处理
	h = http.Header{}
	rejected, preflight = p.apply(h, "", http.MethodOptions)
	assert.False(t, rejected)
	assert.False(t, preflight)

	disabled := newCORSPolicy(config.CORSConfig{Enabled: false})
	rejected, preflight = disabled.apply(http.Header{}, "http://b.test", http.MethodOptions)
	assert.False(t, rejected)
	assert.False(t, preflight)
}

func TestCORSHandler(t *testing.T) {
	h := CORSHandler(config.CORSConfig{Enabled: true, AllowedOrigins: []string{"*"}})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/books", nil)
	req.Header.Set("Origin", "http://anywhere.test")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, RequestIDHeader, w.Header().Get("Access-Control-Expose-Headers"))
}

func TestRateLimitHandler(t *testing.T) {
	t.Run("拒绝", func(t *testing.T) {
		limiter := stubLimiter{decision: ratelimit.Decision{Allowed: false, Limit: 5, RetryAfter: 1500 * time.Millisecond}}
		h := RateLimitHandler(limiter, slog.Default())(okHandler())

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books", nil))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.JSONEq(t, `{"error":"Too many requests"}`, w.Body.String())
		assert.Equal(t, "2", w.Header().Get("Retry-After"))
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("后端出错时放行", func(t *testing.T) {
		log, buf := bufferLogger()
		h := RateLimitHandler(stubLimiter{err: errors.New("redis down")}, log)(okHandler())

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, buf.String(), "redis down")
	})
}

func TestRateGate_Check(t *testing.T) {
	t.Run("超出配额", func(t *testing.T) {
		gate := rateGate{
			limiter: stubLimiter{decision: ratelimit.Decision{Limit: 5, RetryAfter: 1500 * time.Millisecond}},
			logger:  slog.Default(),
		}
		h := http.Header{}
		err := gate.check(context.Background(), h, "10.0.0.1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrRateLimited))
		assert.Equal(t, "2", h.Get("Retry-After"))
		assert.Equal(t, "0", h.Get("X-RateLimit-Remaining"))
	})

	t.Run("配额内", func(t *testing.T) {
		gate := rateGate{
			limiter: stubLimiter{decision: ratelimit.Decision{Allowed: true, Limit: 5, Remaining: 3}},
			logger:  slog.Default(),
		}
		h := http.Header{}
		assert.NoError(t, gate.check(context.Background(), h, "10.0.0.1"))
		assert.Equal(t, "3", h.Get("X-RateLimit-Remaining"))
		assert.Empty(t, h.Get("Retry-After"))
	})

	t.Run("后端出错放行", func(t *testing.T) {
		gate := rateGate{limiter: stubLimiter{err: errors.New("redis down")}, logger: slog.Default()}
		h := http.Header{}
		assert.NoError(t, gate.check(context.Background(), h, "10.0.0.1"))
		assert.Empty(t, h.Get("X-RateLimit-Limit"))
	})
}

func TestRateLimit_Gin(t *testing.T) {
	limiter := stubLimiter{decision: ratelimit.Decision{Allowed: true, Limit: 5, Remaining: 4}}
	r := gin.New()
	r.Use(RateLimit(limiter, slog.Default()))
	r.GET("/api/books", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRecovery(t *testing.T) {
	log, buf := bufferLogger()
	h := Recovery(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "boom")
}

func TestChain(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("a"), mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "a,b,handler", strings.Join(order, ","))
}

func TestInstrument(t *testing.T) {
	h := Instrument("/api/books/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/books/1", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}
