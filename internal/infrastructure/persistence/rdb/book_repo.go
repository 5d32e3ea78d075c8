package rdb

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/pkg/tracing"
)

const tracerName = "bookcatalog/infrastructure/rdb"

// likeEscape LIKE转义字符
// 选用'!'而不是'\\':MySQL字符串字面量里的反斜杠本身需要转义,'!'在各方言下含义一致
const likeEscape = "!"

// searchColumns 搜索字段(OR语义)
var searchColumns = []string{"title", "author", "description"}

// bookRepository 图书仓储实现(GORM,支持MySQL/Postgres)
// 设计说明:
// 1. 实现domain/book/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 所有数据库错误经classify归类为领域错误
type bookRepository struct {
	handle *Handle
	tx     *TxManager
}

// NewBookRepository 创建图书仓储
func NewBookRepository(handle *Handle, tx *TxManager) book.Repository {
	return &bookRepository{handle: handle, tx: tx}
}

// Create 创建图书
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	ctx, span := tracing.StartSpan(ctx, tracerName, "BookRepository.Create")
	defer span.End()

	db, err := r.handle.DB()
	if err != nil {
		return r.fail(span, classify(err, "创建图书失败"))
	}

	// 1. 领域实体 → GORM模型(ID与时间戳由数据库/GORM填充)
	model := toBookModel(b)

	// 2. 插入数据库
	if err := dbFromContext(ctx, db).Create(model).Error; err != nil {
		return r.fail(span, classify(err, "创建图书失败"))
	}

	// 3. 回填自增ID与时间戳
	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找图书
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "BookRepository.FindByID")
	defer span.End()

	db, err := r.handle.DB()
	if err != nil {
		return nil, r.fail(span, classify(err, "查询图书失败"))
	}

	var model BookModel
	if err := dbFromContext(ctx, db).First(&model, id).Error; err != nil {
		return nil, r.fail(span, classify(err, "查询图书失败"))
	}
	return toBookEntity(&model), nil
}

// Update 整体替换可变字段
// 学习要点:
// 1. 不预先查询:UPDATE ... WHERE id = ? 命中0行即视为不存在
// 2. 四个字段全部写入,nil写为NULL(整体替换而非部分更新)
// 3. UPDATE与回读放在同一事务中,返回的一定是本次写入的结果
func (r *bookRepository) Update(ctx context.Context, id uint, fields book.Fields) (*book.Book, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "BookRepository.Update")
	defer span.End()

	var updated *book.Book
	err := r.tx.Transaction(ctx, func(ctx context.Context) error {
		db := ctx.Value(txKey{}).(*gorm.DB)

		result := db.Model(&BookModel{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"title":        fields.Title,
				"author":       fields.Author,
				"description":  nullable(fields.Description),
				"published_at": nullableTime(fields.PublishedAt),
				"updated_at":   time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return book.ErrBookNotFound
		}

		var model BookModel
		if err := db.First(&model, id).Error; err != nil {
			return err
		}
		updated = toBookEntity(&model)
		return nil
	})
	if err != nil {
		return nil, r.fail(span, classify(err, "更新图书失败"))
	}
	return updated, nil
}

// Delete 删除图书(物理删除)
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	ctx, span := tracing.StartSpan(ctx, tracerName, "BookRepository.Delete")
	defer span.End()

	db, err := r.handle.DB()
	if err != nil {
		return r.fail(span, classify(err, "删除图书失败"))
	}

	result := dbFromContext(ctx, db).Delete(&BookModel{}, id)
	if result.Error != nil {
		return r.fail(span, classify(result.Error, "删除图书失败"))
	}
	if result.RowsAffected == 0 {
		return book.ErrBookNotFound
	}
	return nil
}

// List 分页查询图书列表
// 学习要点:
// 1. 当前页与总数使用同一个过滤条件(Scopes复用),分页计算才一致
// 2. 排序created_at DESC, id DESC:创建时间相同时按插入顺序倒序,结果稳定
// 3. 正则非法时返回ErrInvalidPattern,是否降级由应用层决定
func (r *bookRepository) List(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "BookRepository.List")
	defer span.End()
	span.SetAttributes(
		attribute.String("search.mode", params.Mode.String()),
		attribute.Int("query.offset", params.Offset),
		attribute.Int("query.limit", params.Limit),
	)

	db, err := r.handle.DB()
	if err != nil {
		return nil, 0, r.fail(span, classify(err, "查询图书列表失败"))
	}
	filter := searchScope(db.Dialector.Name(), params)

	// 1. 当前页
	var models []BookModel
	err = dbFromContext(ctx, db).
		Scopes(filter).
		Order("created_at DESC").
		Order("id DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, r.fail(span, classify(err, "查询图书列表失败"))
	}

	// 2. 同一条件下的总数
	var total int64
	if err := dbFromContext(ctx, db).Model(&BookModel{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, r.fail(span, classify(err, "查询图书总数失败"))
	}

	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	return books, total, nil
}

// Ping 检查存储连通性
func (r *bookRepository) Ping(ctx context.Context) error {
	if err := r.handle.Ping(ctx); err != nil {
		return classify(err, "数据库不可用")
	}
	return nil
}

// fail 记录Span错误后原样返回
func (r *bookRepository) fail(span trace.Span, err error) error {
	tracing.RecordError(span, err)
	return err
}

// =========================================
// 辅助函数:搜索条件
// =========================================

// searchScope 按匹配方式生成过滤条件
func searchScope(dialect string, params book.ListParams) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params.Search == "" {
			return db
		}
		switch params.Mode {
		case book.MatchPattern:
			op := patternOperator(dialect)
			return db.Where(orClause(op+" ?"), repeat(params.Search)...)
		case book.MatchSubstring:
			term := "%" + escapeLike(params.Search) + "%"
			return db.Where(orClause("LIKE ? ESCAPE '"+likeEscape+"'"), repeat(term)...)
		default:
			return db
		}
	}
}

// patternOperator 各方言的正则匹配运算符
func patternOperator(dialect string) string {
	if dialect == "postgres" {
		return "~"
	}
	// mysql、sqlite(需要注册regexp函数)
	return "REGEXP"
}

// orClause 生成 "title OP OR author OP OR description OP"
func orClause(predicate string) string {
	parts := make([]string, len(searchColumns))
	for i, col := range searchColumns {
		parts[i] = col + " " + predicate
	}
	return strings.Join(parts, " OR ")
}

// repeat 每个搜索字段各绑定一次参数
func repeat(v string) []interface{} {
	args := make([]interface{}, len(searchColumns))
	for i := range args {
		args[i] = v
	}
	return args
}

// escapeLike 转义LIKE通配符,搜索词按字面量匹配
func escapeLike(s string) string {
	r := strings.NewReplacer(
		likeEscape, likeEscape+likeEscape,
		"%", likeEscape+"%",
		"_", likeEscape+"_",
	)
	return r.Replace(s)
}

// nullable *string → 参数值(nil写为NULL)
func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// nullableTime *time.Time → 参数值(nil写为NULL)
func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
