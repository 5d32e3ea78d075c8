// @title           Book Catalog API
// @version         1.0
// @description     图书目录服务：图书的增删改查与分页搜索
// @BasePath        /
// @schemes         http
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

	"github.com/gin-gonic/gin"

	_ "github.com/xiebiao/bookcatalog/docs" // Swagger文档
	"github.com/xiebiao/bookcatalog/internal/app"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
)

// App 路由绑定(gin)的应用
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Router  *gin.Engine
	Tracing app.Tracing
}

// main 主程序入口
// 启动流程：
// 1. Wire组装依赖(配置 → 日志 → 数据库 → 领域服务 → Handler → Gin引擎)
// 2. 启动HTTP服务
// 3. 收到SIGINT/SIGTERM后优雅关闭：先停止接收请求，再按相反顺序释放资源
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
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("服务启动成功",
			slog.String("addr", srv.Addr),
			slog.String("mode", cfg.Server.Mode),
			slog.String("database", fmt.Sprintf("%s %s:%d/%s", cfg.Database.Driver, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)),
			slog.Bool("tracing", a.Tracing.Enabled),
		)
		fmt.Printf("\n🚀 服务启动成功！\n")
		fmt.Printf("   图书列表: GET  http://localhost%s/api/books\n", srv.Addr)
		fmt.Printf("   健康检查: GET  http://localhost%s/ping\n", srv.Addr)
		fmt.Printf("   API文档:  http://localhost%s/swagger/index.html\n", srv.Addr)
		fmt.Printf("\n按Ctrl+C停止服务\n\n")

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
