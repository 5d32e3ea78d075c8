//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 教学说明：
// 1. Provider集合定义在internal/app，cmd/api与cmd/web共用
// 2. 这里只追加gin绑定特有的Provider(BookHandler、Gin引擎)
// 3. 修改后运行 `wire gen ./cmd/api` 重新生成wire_gen.go
//
// 依赖链：
// *gin.Engine 需要 → *handler.BookHandler, ratelimit.Limiter
// *handler.BookHandler 需要 → *controller.BookController
// *controller.BookController 需要 → book.Service, *appbook.ListBooksUseCase
// book.Service 需要 → book.Repository, book.EventPublisher
// book.Repository 需要 → *rdb.Handle, *rdb.TxManager
// *rdb.Handle 需要 → *config.Config

package main

import (
	"github.com/google/wire"

	"github.com/xiebiao/bookcatalog/internal/app"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
	"github.com/xiebiao/bookcatalog/internal/interface/http/handler"
)

// InitializeApp 初始化整个应用
// cleanup按创建的相反顺序释放资源(限流Redis、事件发布、数据库、链路追踪)
func InitializeApp() (*App, func(), error) {
	wire.Build(
		config.Load,
		app.ProviderSet,
		handler.NewBookHandler,
		handler.NewRouter,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
