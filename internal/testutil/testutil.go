// Package testutil 测试辅助:SQLite存储、完整处理链、HTTP请求构造与响应解析
package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm/logger"

	appbook "github.com/xiebiao/bookcatalog/internal/application/book"
	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/persistence/rdb"
	"github.com/xiebiao/bookcatalog/internal/interface/http/controller"
	pkglogger "github.com/xiebiao/bookcatalog/pkg/logger"
)

// SQLiteDriver 注册了regexp函数的SQLite驱动名
// SQLite的 X REGEXP Y 会调用用户函数 regexp(Y, X)
const SQLiteDriver = "sqlite3_regexp"

var registerOnce sync.Once

func registerDriver() {
	registerOnce.Do(func() {
		sql.Register(SQLiteDriver, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("regexp", regexpMatch, true)
			},
		})
	})
}

// regexpMatch 正则匹配,NULL视为不匹配
// 非法正则返回regexp包的解析错误("error parsing regexp: ...")
func regexpMatch(pattern string, value interface{}) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, err
	}
	switch v := value.(type) {
	case string:
		return re.MatchString(v), nil
	case []byte:
		if v == nil {
			return false, nil
		}
		return re.Match(v), nil
	default:
		return false, nil
	}
}

// NewSQLiteHandle 创建基于临时文件的SQLite连接句柄(已迁移表结构)
// 测试结束时自动关闭
func NewSQLiteHandle(t testing.TB) *rdb.Handle {
	t.Helper()
	registerDriver()

	dsn := filepath.Join(t.TempDir(), "bookcatalog.db") + "?_busy_timeout=5000"
	h := rdb.NewHandle(
		sqlite.Dialector{DriverName: SQLiteDriver, DSN: dsn},
		rdb.Options{
			// SQLite同一时间只允许一个写者
			MaxOpenConns: 1,
			MaxIdleConns: 1,
			LogLevel:     logger.Silent,
			AutoMigrate:  true,
		},
		pkglogger.Discard(),
	)
	if _, err := h.DB(); err != nil {
		t.Fatalf("打开SQLite失败: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

// Ptr 返回值的指针
func Ptr[T any](v T) *T {
	return &v
}

// NewRequest 构造JSON请求
// body为string时原样作为请求体(用于构造非法JSON)
func NewRequest(method, path string, body interface{}) *http.Request {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		bodyBytes, err := json.Marshal(b)
		if err != nil {
			panic(fmt.Sprintf("序列化请求体失败: %v", err))
		}
		reader = bytes.NewReader(bodyBytes)
	}

	r := httptest.NewRequest(method, path, reader)
	if reader != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	return r
}

// RecordResponse 解析后的响应
type RecordResponse struct {
	Code   int
	Header http.Header
	Raw    []byte
	Body   map[string]interface{}
}

// RecordHTTPResponse 读取httptest.ResponseRecorder的结果
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	raw, _ := io.ReadAll(result.Body)

	var body map[string]interface{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Raw:    raw,
		Body:   body,
	}
}

// Stack 基于SQLite的完整处理链：仓储 → 领域服务 → 列表用例 → controller
type Stack struct {
	Handle     *rdb.Handle
	Repo       book.Repository
	Service    book.Service
	ListBooks  *appbook.ListBooksUseCase
	Controller *controller.BookController
}

// NewStack 创建测试用处理链
// 事件发布使用NopPublisher
func NewStack(t testing.TB) *Stack {
	t.Helper()

	h := NewSQLiteHandle(t)
	log := pkglogger.Discard()
	repo := rdb.NewBookRepository(h, rdb.NewTxManager(h))
	svc := book.NewService(repo, book.NopPublisher{}, log)
	list := appbook.NewListBooksUseCase(svc, appbook.QueryPolicy{}, log)

	return &Stack{
		Handle:     h,
		Repo:       repo,
		Service:    svc,
		ListBooks:  list,
		Controller: controller.NewBookController(svc, list, log),
	}
}
