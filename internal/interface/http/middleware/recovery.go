package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/xiebiao/bookcatalog/pkg/response"
)

// Recovery panic恢复(net/http)
// gin绑定直接使用gin.Recovery()
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.ErrorContext(r.Context(), "panic recovered",
						slog.String("request_id", RequestIDFromContext(r.Context())),
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
					)
					_ = response.Write(w, response.Error(http.StatusInternalServerError, "Internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Chain 按顺序组合net/http中间件，第一个在最外层
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
