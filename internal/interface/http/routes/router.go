// Package routes 文件路由绑定
//
// 约定：每个路由路径对应一个文件，文件名由路径转换而来
// (/api/books → api_books.go，/api/books/{id} → api_books_id.go)，
// 文件里的导出方法名就是HTTP方法(GET/POST/PUT/DELETE)。
// 所有路由收集到Table里，再用Go 1.22的"METHOD /path"模式注册到ServeMux。
package routes

import (
	"log/slog"
	"net/http"

	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/ratelimit"
	"github.com/xiebiao/bookcatalog/internal/interface/http/controller"
	"github.com/xiebiao/bookcatalog/internal/interface/http/middleware"
	"github.com/xiebiao/bookcatalog/pkg/metrics"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

// Route 一个路由文件导出的处理函数
type Route struct {
	Path    string
	Methods map[string]http.HandlerFunc
}

// route 所有路由文件共用的写出逻辑
type route struct {
	controller *controller.BookController
	logger     *slog.Logger
}

func (rt route) write(w http.ResponseWriter, r *http.Request, res response.Result) {
	if err := response.Write(w, res); err != nil {
		rt.logger.WarnContext(r.Context(), "写出响应失败", slog.Any("error", err))
	}
}

// Books /api/books
type Books struct{ route }

// BookByID /api/books/{id}
type BookByID struct{ route }

// Table 路由表
func Table(c *controller.BookController, logger *slog.Logger) []Route {
	base := route{controller: c, logger: logger}
	books := &Books{base}
	byID := &BookByID{base}

	return []Route{
		{
			Path: "/api/books",
			Methods: map[string]http.HandlerFunc{
				http.MethodGet:  books.GET,
				http.MethodPost: books.POST,
			},
		},
		{
			Path: "/api/books/{id}",
			Methods: map[string]http.HandlerFunc{
				http.MethodGet:    byID.GET,
				http.MethodPut:    byID.PUT,
				http.MethodDelete: byID.DELETE,
			},
		},
	}
}

// NewHandler 创建文件路由绑定的http.Handler
// limiter为nil表示未启用限流
func NewHandler(cfg *config.Config, c *controller.BookController, limiter ratelimit.Limiter, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	var api []func(http.Handler) http.Handler
	if limiter != nil {
		api = append(api, middleware.RateLimitHandler(limiter, logger))
	}
	for _, rt := range Table(c, logger) {
		for method, h := range rt.Methods {
			mux.Handle(method+" "+rt.Path, middleware.Instrument(rt.Path, middleware.Chain(h, api...)))
		}
	}

	mux.Handle("GET /ping", middleware.Instrument("/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = response.Write(w, response.OK(map[string]string{"message": "pong", "status": "healthy"}))
	})))
	mux.Handle("GET /readyz", middleware.Instrument("/readyz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = response.Write(w, c.Ready(r.Context()))
	})))
	mux.Handle("GET /metrics", metrics.Handler())

	return middleware.Chain(mux,
		middleware.Recovery(logger),
		middleware.RequestLogger(logger, cfg.Server.SlowThreshold),
		middleware.CORSHandler(cfg.CORS),
	)
}
