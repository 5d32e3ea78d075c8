package rdb

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/xiebiao/bookcatalog/internal/domain/book"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
	"github.com/xiebiao/bookcatalog/pkg/metrics"
)

// MySQL错误码
const (
	mysqlDuplicateEntry = 1062 // ER_DUP_ENTRY
	mysqlRegexpError    = 1139 // ER_REGEXP_ERROR(MySQL 5.7 / MariaDB)
	mysqlRegexpFirst    = 3684 // ER_REGEXP_*(MySQL 8.0 ICU正则)
	mysqlRegexpLast     = 3700
)

// Postgres SQLSTATE
const (
	pgUniqueViolation          = "23505"
	pgInvalidRegularExpression = "2201B"
)

// classify 把数据库错误归类为领域错误
// 学习要点:
// 1. 连接失败优先判断,永远不会被当作正则错误(不触发降级)
// 2. 已经是AppError的错误原样返回,避免重复包装
// 3. 无法归类的错误包装为内部错误,保留原始错误文本用于details
func classify(err error, message string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return book.ErrBookNotFound
	case apperrors.IsAppError(err):
		return err
	case isConnectionError(err):
		metrics.IncCounterVec(metrics.StoreErrorsTotal, map[string]string{"kind": "unavailable"})
		return book.ErrStoreUnavailable.WithCause(err)
	case isDuplicateError(err):
		return book.ErrBookDuplicate.WithCause(err)
	case isPatternError(err):
		return book.ErrInvalidPattern.WithCause(err)
	default:
		metrics.IncCounterVec(metrics.StoreErrorsTotal, map[string]string{"kind": "internal"})
		return apperrors.Wrap(err, message)
	}
}

// isConnectionError 判断是否为连接类错误
func isConnectionError(err error) bool {
	if errors.Is(err, errHandleClosed) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, gomysql.ErrInvalidConn) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	// database/sql关闭后的错误没有导出哨兵
	return strings.Contains(err.Error(), "sql: database is closed")
}

// isDuplicateError 判断是否为唯一约束冲突
// MySQL: 1062 Duplicate entry 'xxx' for key 'yyy'
// Postgres: 23505 unique_violation
func isDuplicateError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	// 兼容检查:其他驱动(如SQLite)只能看错误信息
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}

// isPatternError 判断是否为正则表达式语法错误
// 驱动有结构化错误码时只看错误码,否则看错误信息
func isPatternError(err error) bool {
	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) {
		n := int(myErr.Number)
		return n == mysqlRegexpError || (n >= mysqlRegexpFirst && n <= mysqlRegexpLast)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgInvalidRegularExpression
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "error parsing regexp") ||
		strings.Contains(msg, "regular expression")
}
