package book

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/pkg/metrics"
	"github.com/xiebiao/bookcatalog/pkg/tracing"
)

const (
	// DefaultPage 默认页码
	DefaultPage = 1
	// DefaultLimit 默认每页数量
	DefaultLimit = 10

	tracerName = "bookcatalog/application/book"
)

// QueryPolicy 列表查询策略
// MaxLimit为0表示不限制每页数量(与原有行为一致)
type QueryPolicy struct {
	DefaultLimit int
	MaxLimit     int
}

// ListBooksUseCase 图书列表查询用例
// 设计说明:
// 1. 搜索词非空时先走正则匹配,正则非法时降级为子串匹配
// 2. 只有"正则非法"才触发降级,连接失败等错误原样返回
// 3. total与当前页使用同一过滤条件,保证分页计算一致
type ListBooksUseCase struct {
	bookService book.Service
	policy      QueryPolicy
	logger      *slog.Logger
}

// NewListBooksUseCase 创建列表查询用例
func NewListBooksUseCase(bookService book.Service, policy QueryPolicy, logger *slog.Logger) *ListBooksUseCase {
	if policy.DefaultLimit < 1 {
		policy.DefaultLimit = DefaultLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ListBooksUseCase{
		bookService: bookService,
		policy:      policy,
		logger:      logger,
	}
}

// ListBooksRequest 列表查询请求
// Page/Limit小于1时使用默认值
type ListBooksRequest struct {
	Page   int
	Limit  int
	Search string
}

// Pagination 分页信息
type Pagination struct {
	Page       int
	Limit      int
	Total      int64
	TotalPages int
}

// ListBooksResponse 列表查询响应
type ListBooksResponse struct {
	Books      []*book.Book
	Pagination Pagination
	Mode       book.MatchMode // 实际使用的匹配方式
}

// Execute 执行列表查询用例
// 学习要点:
// 1. 参数默认值处理(page默认1, limit默认10)
// 2. offset = (page-1) * limit
// 3. totalPages = ceil(total / limit), total为0时为0
func (uc *ListBooksUseCase) Execute(ctx context.Context, req ListBooksRequest) (*ListBooksResponse, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "ListBooks")
	defer span.End()

	// 1. 参数默认值与范围限制
	page, limit := uc.normalize(req.Page, req.Limit)

	params := book.ListParams{
		Offset: Offset(page, limit),
		Limit:  limit,
		Search: req.Search,
		Mode:   book.MatchNone,
	}
	if req.Search != "" {
		params.Mode = book.MatchPattern
	}

	// 2. 查询(正则优先)
	books, total, err := uc.bookService.ListBooks(ctx, params)

	// 3. 正则非法 → 子串匹配
	if err != nil && params.Mode == book.MatchPattern && errors.Is(err, book.ErrInvalidPattern) {
		uc.logger.WarnContext(ctx, "正则搜索失败,改用子串匹配",
			slog.String("search", req.Search),
			slog.Any("error", err),
		)
		metrics.IncCounter(metrics.SearchFallbacksTotal)

		params.Mode = book.MatchSubstring
		books, total, err = uc.bookService.ListBooks(ctx, params)
	}
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("search.mode", params.Mode.String()),
		attribute.Int64("result.total", total),
	)

	return &ListBooksResponse{
		Books: books,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: TotalPages(total, limit),
		},
		Mode: params.Mode,
	}, nil
}

// normalize 处理默认值与上限
func (uc *ListBooksUseCase) normalize(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = uc.policy.DefaultLimit
	}
	if uc.policy.MaxLimit > 0 && limit > uc.policy.MaxLimit {
		limit = uc.policy.MaxLimit
	}
	return page, limit
}

// Offset 计算偏移量(page-1)*limit
// 乘积超出int时取math.MaxInt：页码远超末页时返回空页，total照常统计
func Offset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

// TotalPages 计算总页数(向上取整)
func TotalPages(total int64, limit int) int {
	if limit < 1 || total <= 0 {
		return 0
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return int(pages)
}
