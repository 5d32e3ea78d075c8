package book

import (
	"context"
)

// Repository 图书仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 实现方负责把数据库错误归类为领域错误:
//   - 记录不存在 → ErrBookNotFound
//   - 唯一约束冲突 → ErrBookDuplicate
//   - 正则语法错误 → ErrInvalidPattern
//   - 连接失败 → ErrStoreUnavailable
type Repository interface {
	// Create 创建图书,回填ID与时间戳
	Create(ctx context.Context, book *Book) error

	// FindByID 根据ID查找图书
	FindByID(ctx context.Context, id uint) (*Book, error)

	// Update 整体替换可变字段并刷新updated_at,返回更新后的记录
	// 不做预先查询:UPDATE未命中任何行即返回ErrBookNotFound
	Update(ctx context.Context, id uint, fields Fields) (*Book, error)

	// Delete 物理删除图书
	Delete(ctx context.Context, id uint) error

	// List 分页查询图书列表
	// 返回当前页数据与同一过滤条件下的总数
	List(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// Ping 检查存储连通性(用于就绪探针)
	Ping(ctx context.Context) error
}

// MatchMode 搜索匹配方式
type MatchMode int

const (
	// MatchNone 不过滤
	MatchNone MatchMode = iota
	// MatchPattern 正则匹配(MySQL REGEXP / Postgres ~)
	MatchPattern
	// MatchSubstring 子串包含(LIKE '%term%')
	MatchSubstring
)

// String 便于日志输出
func (m MatchMode) String() string {
	switch m {
	case MatchPattern:
		return "pattern"
	case MatchSubstring:
		return "substring"
	default:
		return "none"
	}
}

// ListParams 列表查询参数
// 搜索字段固定为title、author、description(OR语义)
// 排序固定为created_at DESC, id DESC
type ListParams struct {
	Offset int       // 偏移量
	Limit  int       // 每页数量
	Search string    // 搜索词
	Mode   MatchMode // 匹配方式
}
