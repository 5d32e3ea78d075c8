// Package app 依赖注入的Provider集合
//
// cmd/api(gin)、cmd/web(文件路由)两个入口共用同一套Provider，
// 只在最后一步分别组装gin.Engine或http.Handler。
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/wire"

	appbook "github.com/xiebiao/bookcatalog/internal/application/book"
	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/messaging"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/persistence/rdb"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/ratelimit"
	"github.com/xiebiao/bookcatalog/internal/interface/http/controller"
	"github.com/xiebiao/bookcatalog/pkg/logger"
	"github.com/xiebiao/bookcatalog/pkg/metrics"
	"github.com/xiebiao/bookcatalog/pkg/tracing"
)

// InfrastructureSet 基础设施层依赖
// 包含：日志、链路追踪、数据库句柄、事件发布、限流
var InfrastructureSet = wire.NewSet(
	ProvideLogger,
	ProvideTracing,
	rdb.NewHandleFromConfig,
	rdb.NewTxManager,
	rdb.NewBookRepository,
	messaging.NewPublisherFromConfig,
	ProvideLimiter,
)

// CatalogSet 领域层 + 应用层 + 与传输层无关的请求处理
var CatalogSet = wire.NewSet(
	book.NewService,
	ProvideQueryPolicy,
	appbook.NewListBooksUseCase,
	controller.NewBookController,
)

// ProviderSet 两个HTTP入口共用的全部Provider
var ProviderSet = wire.NewSet(InfrastructureSet, CatalogSet)

// Tracing 链路追踪已初始化的标记
// 放进App结构体里，Wire才会调用ProvideTracing
type Tracing struct {
	Enabled bool
}

// ProvideLogger 按配置创建Logger并设为默认Logger
// 同时初始化Prometheus指标
func ProvideLogger(cfg *config.Config) (*slog.Logger, error) {
	log, err := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	slog.SetDefault(log)
	metrics.InitMetrics()
	return log, nil
}

// ProvideTracing 初始化OpenTelemetry
// 未启用时不导出任何Span(全局TracerProvider保持no-op)
func ProvideTracing(cfg *config.Config, log *slog.Logger) (Tracing, func(), error) {
	if !cfg.Tracing.Enabled {
		return Tracing{}, func() {}, nil
	}

	shutdown, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
	if err != nil {
		return Tracing{}, nil, fmt.Errorf("初始化链路追踪失败: %w", err)
	}
	log.Info("链路追踪已启用",
		slog.String("endpoint", cfg.Tracing.Endpoint),
		slog.Float64("sample_ratio", cfg.Tracing.SampleRatio),
	)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			log.Error("关闭链路追踪失败", slog.Any("error", err))
		}
	}
	return Tracing{Enabled: true}, cleanup, nil
}

// ProvideQueryPolicy 列表查询策略
func ProvideQueryPolicy(cfg *config.Config) appbook.QueryPolicy {
	return appbook.QueryPolicy{
		DefaultLimit: cfg.Query.DefaultLimit,
		MaxLimit:     cfg.Query.MaxLimit,
	}
}

// ProvideLimiter 按配置创建限流器
// 未启用时返回nil，路由层据此跳过限流中间件
func ProvideLimiter(cfg *config.Config, log *slog.Logger) (ratelimit.Limiter, func(), error) {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return nil, func() {}, nil
	}

	switch rl.Backend {
	case config.RateLimitRedis:
		client, cleanup, err := redis.NewClient(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info("限流已启用", slog.String("backend", rl.Backend), slog.Int("requests", rl.Requests), slog.Duration("window", rl.Window))
		return redis.NewRateLimitStore(client, rl.Requests, rl.Window), cleanup, nil
	default:
		log.Info("限流已启用", slog.String("backend", config.RateLimitMemory), slog.Int("requests", rl.Requests), slog.Duration("window", rl.Window))
		return ratelimit.NewMemory(rl.Requests, rl.Window), func() {}, nil
	}
}
