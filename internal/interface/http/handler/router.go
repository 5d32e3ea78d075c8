package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/ratelimit"
	"github.com/xiebiao/bookcatalog/internal/interface/http/middleware"
	"github.com/xiebiao/bookcatalog/pkg/metrics"
)

// NewRouter 创建并配置Gin引擎
// 教学要点：
// 1. 全局中间件顺序：Recovery → 日志 → 指标 → CORS
// 2. 限流只作用于/api，探针和/metrics不受限
// 3. limiter为nil表示未启用限流
func NewRouter(cfg *config.Config, h *BookHandler, limiter ratelimit.Limiter, logger *slog.Logger) *gin.Engine {
	switch cfg.Server.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.Logger(logger, cfg.Server.SlowThreshold),
		middleware.Metrics(),
		middleware.CORS(cfg.CORS),
	)

	// 运维接口
	r.GET("/ping", h.Ping)
	r.GET("/readyz", h.Ready)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Swagger文档：http://localhost:8080/swagger/index.html
	if cfg.Server.Mode != gin.ReleaseMode {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group("/api")
	if limiter != nil {
		api.Use(middleware.RateLimit(limiter, logger))
	}
	{
		books := api.Group("/books")
		books.GET("", h.ListBooks)
		books.POST("", h.CreateBook)
		books.GET("/:id", h.GetBook)
		books.PUT("/:id", h.UpdateBook)
		books.DELETE("/:id", h.DeleteBook)
	}

	return r
}
