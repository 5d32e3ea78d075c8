// 文件路由绑定的入口
//
// 与cmd/api暴露完全相同的HTTP接口，路由来自internal/interface/http/routes，
// 端口使用web.port(默认3000)。
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/xiebiao/bookcatalog/internal/app"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
)

// App 文件路由绑定的应用
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Handler http.Handler
	Tracing app.Tracing
}

func main() {
	application, cleanup, err := InitializeApp()
	if err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}
	defer cleanup()

	if err := run(application); err != nil {
		application.Logger.Error("服务异常退出", slog.Any("error", err))
		cleanup()
		log.Fatal(err)
	}
}

func run(a *App) error {
	cfg := a.Config
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:      a.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("服务启动成功",
			slog.String("addr", srv.Addr),
			slog.String("binding", "file-routes"),
			slog.Bool("tracing", a.Tracing.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭服务失败: %w", err)
	}
	a.Logger.Info("服务已关闭")
	return nil
}
