package rdb_test

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/persistence/rdb"
	"github.com/xiebiao/bookcatalog/internal/testutil"
	pkglogger "github.com/xiebiao/bookcatalog/pkg/logger"
)

func TestHandle_LazyOpen(t *testing.T) {
	h := testutil.NewSQLiteHandle(t)

	db1, err := h.DB()
	require.NoError(t, err)
	db2, err := h.DB()
	require.NoError(t, err)
	assert.Same(t, db1, db2, "连接只建立一次")

	require.NoError(t, h.Ping(context.Background()))
}

func TestHandle_Migrate(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "migrate.db")
	h := rdb.NewHandle(sqlite.Open(dsn), rdb.Options{LogLevel: logger.Silent}, pkglogger.Discard())
	t.Cleanup(func() { _ = h.Close() })

	db, err := h.DB()
	require.NoError(t, err)
	assert.False(t, db.Migrator().HasTable(&rdb.BookModel{}), "未开启auto_migrate时不建表")

	ctx := context.Background()
	require.NoError(t, h.Migrate(ctx))
	assert.True(t, db.Migrator().HasTable(&rdb.BookModel{}))

	// 重复迁移无副作用
	require.NoError(t, h.Migrate(ctx))
}

func TestHandle_Close(t *testing.T) {
	h := testutil.NewSQLiteHandle(t)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close(), "Close可重复调用")

	_, err := h.DB()
	assert.Error(t, err)
	assert.Error(t, h.Migrate(context.Background()))
}

func TestHandle_OpenFailureNotCached(t *testing.T) {
	// 目录不存在，打开失败
	bad := filepath.Join(t.TempDir(), "missing", "x.db")
	h := rdb.NewHandle(sqlite.Open(bad), rdb.Options{LogLevel: logger.Silent}, pkglogger.Discard())
	t.Cleanup(func() { _ = h.Close() })

	_, err := h.DB()
	require.Error(t, err)
	_, err = h.DB()
	assert.Error(t, err, "失败后每次调用都重新尝试")
}

// gatedDialector 在Initialize处等待release，用来模拟缓慢的建连
type gatedDialector struct {
	gorm.Dialector
	calls   *atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func newGatedDialector(t *testing.T) gatedDialector {
	return gatedDialector{
		Dialector: sqlite.Open(filepath.Join(t.TempDir(), "gated.db")),
		calls:     new(atomic.Int32),
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (d gatedDialector) Initialize(db *gorm.DB) error {
	if d.calls.Add(1) == 1 {
		close(d.entered)
	}
	<-d.release
	return d.Dialector.Initialize(db)
}

func TestHandle_ConcurrentOpen(t *testing.T) {
	d := newGatedDialector(t)
	h := rdb.NewHandle(d, rdb.Options{LogLevel: logger.Silent, DialTimeout: time.Second}, pkglogger.Discard())
	t.Cleanup(func() { _ = h.Close() })

	const n = 8
	dbs := make([]*gorm.DB, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dbs[i], errs[i] = h.DB()
		}(i)
	}

	<-d.entered
	close(d.release)
	wg.Wait()

	assert.Equal(t, int32(1), d.calls.Load(), "并发调用只建连一次")
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, dbs[0], dbs[i])
	}
}

func TestHandle_CloseWhileOpening(t *testing.T) {
	d := newGatedDialector(t)
	h := rdb.NewHandle(d, rdb.Options{LogLevel: logger.Silent}, pkglogger.Discard())

	opened := make(chan error, 1)
	go func() {
		_, err := h.DB()
		opened <- err
	}()
	<-d.entered

	// 建连阻塞时Close不应被卡住
	closed := make(chan error, 1)
	go func() { closed <- h.Close() }()
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close被建连阻塞")
	}

	close(d.release)
	assert.Error(t, <-opened, "建连期间被关闭时返回连接失败")

	_, err := h.DB()
	assert.Error(t, err)
	assert.Equal(t, int32(1), d.calls.Load(), "关闭后不再建连")
}

func TestDialector(t *testing.T) {
	tests := []struct {
		driver  string
		name    string
		wantErr bool
	}{
		{config.DriverMySQL, "mysql", false},
		{config.DriverPostgres, "postgres", false},
		{"oracle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := rdb.Dialector(config.DatabaseConfig{
				Driver: tt.driver, Host: "localhost", Port: 1, User: "u", DBName: "db",
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, d.Name())
		})
	}
}
