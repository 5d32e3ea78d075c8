// Package cli bookctl运维命令行
//
//	bookctl migrate                 自动迁移表结构
//	bookctl seed --count 5          写入示例图书
//	bookctl search "^Go" --limit 5  在终端执行列表查询(与GET /api/books相同的正则/子串策略)
//	bookctl watch                   订阅并打印图书变更事件
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	appbook "github.com/xiebiao/bookcatalog/internal/application/book"
	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/persistence/rdb"
	"github.com/xiebiao/bookcatalog/pkg/logger"
)

// 输出格式
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Catalog 命令行用到的服务
type Catalog struct {
	Handle    *rdb.Handle
	Service   book.Service
	ListBooks *appbook.ListBooksUseCase
}

// OpenFunc 按配置打开Catalog，返回的cleanup关闭数据库连接
type OpenFunc func(cfg *config.Config, log *slog.Logger) (*Catalog, func(), error)

// RootOptions 全局参数
type RootOptions struct {
	ConfigDir string
	Format    string
	Verbose   bool

	// Open 测试时替换为SQLite
	Open OpenFunc
}

// NewRootCommand 创建bookctl根命令
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{Open: OpenCatalog})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookctl",
		Short: "图书目录运维工具",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != FormatText && opts.Format != FormatJSON {
				return fmt.Errorf("无效的输出格式 %q: 只支持 text|json", opts.Format)
			}
			return nil
		},
		SilenceUsage: true,
	}

	// 已设置的字段作为flag默认值(测试时预先填好)
	if opts.ConfigDir == "" {
		opts.ConfigDir = "./config"
	}
	if opts.Format == "" {
		opts.Format = FormatText
	}
	cmd.PersistentFlags().StringVarP(&opts.ConfigDir, "config", "c", opts.ConfigDir, "配置文件目录")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", opts.Format, "输出格式(text|json)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "输出调试日志")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	cmd.AddCommand(newSearchCommand(opts))
	cmd.AddCommand(newWatchCommand(opts))
	return cmd
}

// setup 加载配置并创建日志
// 日志写到stderr，避免污染stdout上的JSON输出
func (o *RootOptions) setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFrom(o.ConfigDir, ".")
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Log.Level
	if o.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, Format: FormatText, Output: "stderr"})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// open 加载配置并打开Catalog
func (o *RootOptions) open() (*Catalog, *config.Config, *slog.Logger, func(), error) {
	cfg, log, err := o.setup()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	c, cleanup, err := o.Open(cfg, log)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return c, cfg, log, cleanup, nil
}

// OpenCatalog 默认的OpenFunc：连接配置中的数据库，事件发布保持关闭
func OpenCatalog(cfg *config.Config, log *slog.Logger) (*Catalog, func(), error) {
	h, cleanup, err := rdb.NewHandleFromConfig(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	svc := book.NewService(rdb.NewBookRepository(h, rdb.NewTxManager(h)), book.NopPublisher{}, log)
	list := appbook.NewListBooksUseCase(svc, appbook.QueryPolicy{
		DefaultLimit: cfg.Query.DefaultLimit,
		MaxLimit:     cfg.Query.MaxLimit,
	}, log)

	return &Catalog{Handle: h, Service: svc, ListBooks: list}, cleanup, nil
}
