package rdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
)

// errHandleClosed 连接句柄已关闭（按连接失败处理）
var errHandleClosed = errors.New("database is closed")

// Options 连接池与迁移选项
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DialTimeout     time.Duration // 首次Ping的超时，0表示不限
	LogLevel        logger.LogLevel
	AutoMigrate     bool
}

// Handle 进程级的数据库连接句柄
// 设计说明:
// 1. 整个进程只持有一个*gorm.DB(内部是连接池),所有请求复用
// 2. 第一次使用时才建立连接;连接失败不缓存,下一次请求会重试
// 3. 建立成功后不再重复初始化;Close之后所有操作都返回连接失败
// 4. 并发的首次调用合并为一次建连(singleflight),建连期间不持有mu
// 5. 业务代码只依赖Repository接口,不感知句柄的存在
type Handle struct {
	dialector gorm.Dialector
	opts      Options
	logger    *slog.Logger

	opening singleflight.Group

	mu     sync.Mutex
	db     *gorm.DB
	closed bool
}

// NewHandle 创建连接句柄(不会立即连接)
func NewHandle(dialector gorm.Dialector, opts Options, log *slog.Logger) *Handle {
	if log == nil {
		log = slog.Default()
	}
	return &Handle{
		dialector: dialector,
		opts:      opts,
		logger:    log,
	}
}

// NewHandleFromConfig 根据配置创建连接句柄
// 返回的cleanup用于Wire在进程退出时关闭连接池
func NewHandleFromConfig(cfg *config.Config, log *slog.Logger) (*Handle, func(), error) {
	dialector, err := Dialector(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	// 开发环境打印SQL,其余环境静默
	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	h := NewHandle(dialector, Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		DialTimeout:     cfg.Database.DialTimeout,
		LogLevel:        logLevel,
		AutoMigrate:     cfg.Database.AutoMigrate,
	}, log)

	cleanup := func() {
		if err := h.Close(); err != nil {
			h.logger.Error("关闭数据库连接失败", slog.Any("error", err))
		}
	}
	return h, cleanup, nil
}

// Dialector 按驱动选择GORM方言
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverMySQL, "":
		return mysql.Open(cfg.DSN()), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %q", cfg.Driver)
	}
}

// DB 返回共享的*gorm.DB,必要时建立连接
func (h *Handle) DB() (*gorm.DB, error) {
	if db, err := h.current(); db != nil || err != nil {
		return db, err
	}

	v, err, _ := h.opening.Do("open", func() (any, error) {
		// 排队期间上一轮可能已经连上
		if db, err := h.current(); db != nil || err != nil {
			return db, err
		}

		db, err := h.open()
		if err != nil {
			return nil, err
		}

		h.mu.Lock()
		defer h.mu.Unlock()
		// 建连期间被Close:丢弃新连接
		if h.closed {
			closeDB(db)
			return nil, errHandleClosed
		}
		h.db = db
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*gorm.DB), nil
}

// current 返回已建立的连接;尚未连接时两个返回值都为nil
func (h *Handle) current() (*gorm.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, errHandleClosed
	}
	return h.db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// open 建立连接、配置连接池、按需迁移
func (h *Handle) open() (*gorm.DB, error) {
	db, err := gorm.Open(h.dialector, &gorm.Config{
		Logger: logger.Default.LogMode(h.opts.LogLevel),
		// 各方言的唯一约束冲突统一翻译为gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 配置连接池
	// 学习要点:合理的连接池配置对性能至关重要
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	if h.opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(h.opts.MaxOpenConns)
	}
	if h.opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(h.opts.MaxIdleConns)
	}
	if h.opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(h.opts.ConnMaxLifetime)
	}

	ctx := context.Background()
	if h.opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.DialTimeout)
		defer cancel()
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	if h.opts.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	h.logger.Info("数据库连接成功", slog.String("dialect", db.Dialector.Name()))
	return db, nil
}

// Ping 检查连通性(就绪探针)
func (h *Handle) Ping(ctx context.Context) error {
	db, err := h.DB()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate 显式迁移表结构(bookctl migrate)
func (h *Handle) Migrate(ctx context.Context) error {
	db, err := h.DB()
	if err != nil {
		return err
	}
	return AutoMigrate(db.WithContext(ctx))
}

// Close 关闭连接池,可重复调用
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	if h.db == nil {
		return nil
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	h.db = nil
	return sqlDB.Close()
}

// AutoMigrate 自动迁移表结构
// 学习要点:
// 1. AutoMigrate只会创建表、添加字段,不会删除或修改现有字段
// 2. 生产环境建议通过bookctl migrate单独执行,服务启动时关闭auto_migrate
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&BookModel{})
}
