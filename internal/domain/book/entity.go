package book

import (
	"time"
)

// Book 图书实体(聚合根)
// DDD设计说明:
// 1. 图书目录只有一个实体,ID由数据库自增分配,分配后不可变更
// 2. Description/PublishedAt可为空,使用指针表达NULL
// 3. CreatedAt创建后不可变更,UpdatedAt每次成功更新都会刷新(由仓储写入)
type Book struct {
	ID          uint
	Title       string
	Author      string
	Description *string
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Fields 图书的可变字段
// 更新采用整体替换语义:四个字段全部覆盖,不做部分更新
type Fields struct {
	Title       string
	Author      string
	Description *string
	PublishedAt *time.Time
}

// Validate 校验必填字段
// 业务规则:title与author必须非空
func (f Fields) Validate() error {
	if f.Title == "" || f.Author == "" {
		return ErrInvalidBook
	}
	return nil
}

// NewBook 创建新图书(工厂方法)
// ID和时间戳由仓储在持久化时回填
func NewBook(f Fields) *Book {
	return &Book{
		Title:       f.Title,
		Author:      f.Author,
		Description: f.Description,
		PublishedAt: f.PublishedAt,
	}
}
