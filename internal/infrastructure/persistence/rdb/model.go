package rdb

import (
	"time"

	"github.com/xiebiao/bookcatalog/internal/domain/book"
)

// BookModel GORM图书模型
// 设计说明:
// 1. 这是infrastructure层的数据模型,包含GORM tag
// 2. domain/book/entity.go是领域实体,不依赖GORM
// 3. 物理删除,不使用gorm.DeletedAt
// 4. 列表固定按created_at倒序,为其建立索引
type BookModel struct {
	ID          uint       `gorm:"primaryKey;autoIncrement"`
	Title       string     `gorm:"size:255;not null;comment:书名"`
	Author      string     `gorm:"size:255;not null;comment:作者"`
	Description *string    `gorm:"type:text;comment:图书描述"`
	PublishedAt *time.Time `gorm:"comment:出版日期"`
	CreatedAt   time.Time  `gorm:"index:idx_books_created_at;comment:创建时间"`
	UpdatedAt   time.Time  `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// toBookModel 领域实体 → GORM模型
func toBookModel(b *book.Book) *BookModel {
	return &BookModel{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description,
		PublishedAt: b.PublishedAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// toBookEntity GORM模型 → 领域实体
func toBookEntity(m *BookModel) *book.Book {
	return &book.Book{
		ID:          m.ID,
		Title:       m.Title,
		Author:      m.Author,
		Description: m.Description,
		PublishedAt: m.PublishedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
