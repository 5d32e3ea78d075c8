//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/xiebiao/bookcatalog/internal/app"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
	"github.com/xiebiao/bookcatalog/internal/interface/http/routes"
)

// InitializeApp 组装文件路由绑定
// 与cmd/api共用app.ProviderSet，只把最后一步换成routes.NewHandler
func InitializeApp() (*App, func(), error) {
	wire.Build(
		config.Load,
		app.ProviderSet,
		routes.NewHandler,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
