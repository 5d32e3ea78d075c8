// Package controller 与传输层无关的图书请求处理
//
// gin路由(handler包)和文件路由(routes包)都只做一件事：
// 从各自的请求对象里取出原始参数，交给BookController，再把Result写回去。
package controller

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	appbook "github.com/xiebiao/bookcatalog/internal/application/book"
	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/interface/http/dto"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

// 响应中的错误信息
const (
	MsgRequiredFields     = "Title and author are required"
	MsgBookNotFound       = "Book not found"
	MsgBookExists         = "Book already exists"
	MsgDatabaseFailed     = "Database connection failed"
	MsgInvalidBody        = "Invalid request body"
	MsgInvalidPublishedAt = "Invalid publishedAt date"
	MsgBookDeleted        = "Book deleted successfully"
	MsgFailedFetchBooks   = "Failed to fetch books"
	MsgFailedCreateBook   = "Failed to create book"
	MsgFailedFetchBook    = "Failed to fetch book"
	MsgFailedUpdateBook   = "Failed to update book"
	MsgFailedDeleteBook   = "Failed to delete book"
	MsgServiceNotReady    = "Service not ready"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BookController 图书请求处理
type BookController struct {
	bookService book.Service
	listBooks   *appbook.ListBooksUseCase
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewBookController 创建图书请求处理
func NewBookController(bookService book.Service, listBooks *appbook.ListBooksUseCase, logger *slog.Logger) *BookController {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookController{
		bookService: bookService,
		listBooks:   listBooks,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger,
	}
}

// ListBooks 分页查询
// page/limit按整数前缀解析，无法解析或小于1时使用默认值
func (bc *BookController) ListBooks(ctx context.Context, query url.Values) response.Result {
	result, err := bc.listBooks.Execute(ctx, appbook.ListBooksRequest{
		Page:   ParseIntPrefix(query.Get("page")),
		Limit:  ParseIntPrefix(query.Get("limit")),
		Search: query.Get("search"),
	})
	if err != nil {
		return bc.fail(ctx, MsgFailedFetchBooks, err)
	}

	return response.OK(dto.ListBooksResponse{
		Books: dto.NewBookResponses(result.Books),
		Pagination: dto.PaginationResponse{
			Page:       result.Pagination.Page,
			Limit:      result.Pagination.Limit,
			Total:      result.Pagination.Total,
			TotalPages: result.Pagination.TotalPages,
		},
	})
}

// CreateBook 创建图书
func (bc *BookController) CreateBook(ctx context.Context, body []byte) response.Result {
	fields, bad := bc.bind(body)
	if bad != nil {
		return *bad
	}

	b, err := bc.bookService.CreateBook(ctx, fields)
	if err != nil {
		return bc.fail(ctx, MsgFailedCreateBook, err)
	}
	return response.Created(dto.NewBookResponse(b))
}

// GetBook 查询单本图书
func (bc *BookController) GetBook(ctx context.Context, rawID string) response.Result {
	id, ok := ParseID(rawID)
	if !ok {
		return response.Error(http.StatusNotFound, MsgBookNotFound)
	}

	b, err := bc.bookService.GetBookByID(ctx, id)
	if err != nil {
		return bc.fail(ctx, MsgFailedFetchBook, err)
	}
	if b == nil {
		return response.Error(http.StatusNotFound, MsgBookNotFound)
	}
	return response.OK(dto.NewBookResponse(b))
}

// UpdateBook 整体替换图书字段
// 先校验请求体再看id，与创建接口的校验顺序一致
func (bc *BookController) UpdateBook(ctx context.Context, rawID string, body []byte) response.Result {
	fields, bad := bc.bind(body)
	if bad != nil {
		return *bad
	}

	id, ok := ParseID(rawID)
	if !ok {
		return response.Error(http.StatusNotFound, MsgBookNotFound)
	}

	b, err := bc.bookService.UpdateBook(ctx, id, fields)
	if err != nil {
		return bc.fail(ctx, MsgFailedUpdateBook, err)
	}
	return response.OK(dto.NewBookResponse(b))
}

// DeleteBook 删除图书
func (bc *BookController) DeleteBook(ctx context.Context, rawID string) response.Result {
	id, ok := ParseID(rawID)
	if !ok {
		return response.Error(http.StatusNotFound, MsgBookNotFound)
	}

	if err := bc.bookService.DeleteBook(ctx, id); err != nil {
		return bc.fail(ctx, MsgFailedDeleteBook, err)
	}
	return response.Message(MsgBookDeleted)
}

// Ready 就绪检查：数据库可达返回200，否则503
func (bc *BookController) Ready(ctx context.Context) response.Result {
	if err := bc.bookService.Ping(ctx); err != nil {
		bc.logger.WarnContext(ctx, "就绪检查失败", slog.Any("error", err))
		return response.Error(http.StatusServiceUnavailable, MsgServiceNotReady)
	}
	return response.OK(map[string]string{"status": "ready"})
}

// bind 解析并校验请求体
// 空请求体按{}处理，于是落到必填校验
func (bc *BookController) bind(body []byte) (book.Fields, *response.Result) {
	var req dto.BookRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			r := response.ErrorWithDetails(http.StatusBadRequest, MsgInvalidBody, err.Error())
			return book.Fields{}, &r
		}
	}

	if err := bc.validate.Struct(req); err != nil {
		r := response.Error(http.StatusBadRequest, MsgRequiredFields)
		return book.Fields{}, &r
	}

	fields, err := req.Fields()
	if err != nil {
		r := response.Error(http.StatusBadRequest, MsgInvalidPublishedAt)
		return book.Fields{}, &r
	}
	return fields, nil
}

// fail 错误分类 → 响应
// 学习要点：
// 1. 连接失败最先判断，固定文案，不暴露底层信息
// 2. 已知的业务错误映射为4xx
// 3. 其余错误统一500，details带上最底层的错误描述
func (bc *BookController) fail(ctx context.Context, action string, err error) response.Result {
	switch {
	case errors.Is(err, book.ErrStoreUnavailable):
		bc.logger.ErrorContext(ctx, "数据库连接失败", slog.String("action", action), slog.Any("error", err))
		return response.Error(http.StatusInternalServerError, MsgDatabaseFailed)
	case errors.Is(err, book.ErrBookNotFound):
		return response.Error(http.StatusNotFound, MsgBookNotFound)
	case errors.Is(err, book.ErrBookDuplicate):
		return response.Error(http.StatusBadRequest, MsgBookExists)
	case errors.Is(err, book.ErrInvalidBook):
		return response.Error(http.StatusBadRequest, MsgRequiredFields)
	case errors.Is(err, book.ErrInvalidPublishedAt):
		return response.Error(http.StatusBadRequest, MsgInvalidPublishedAt)
	}

	bc.logger.ErrorContext(ctx, action, slog.Any("error", err))
	return response.ErrorWithDetails(http.StatusInternalServerError, action, apperrors.Cause(err))
}

// ParseID 解析路径中的图书ID
// 只接受正整数，其他输入不可能匹配任何记录
func ParseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// ParseIntPrefix 按整数前缀解析查询参数
// 跳过前导空白，可带正负号，遇到第一个非数字字符停止："12abc" → 12
// 没有数字或溢出时返回0，由调用方套用默认值
func ParseIntPrefix(raw string) int {
	i := 0
	for i < len(raw) && isSpace(raw[i]) {
		i++
	}
	start := i
	if i < len(raw) && (raw[i] == '+' || raw[i] == '-') {
		i++
	}
	digits := i
	for i < len(raw) && raw[i] >= '0' && raw[i] <= '9' {
		i++
	}
	if i == digits {
		return 0
	}

	n, err := strconv.Atoi(raw[start:i])
	if err != nil {
		return 0
	}
	return n
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}
