package dto

import (
	"time"

	"github.com/xiebiao/bookcatalog/internal/domain/book"
)

// 日期格式
// publishedAt接受完整的RFC3339时间，也接受HTML日期控件提交的YYYY-MM-DD
const dateOnlyLayout = "2006-01-02"

// BookRequest 创建/更新图书请求
// validator tag说明:
// - required: 必填且非空字符串
// - description为null或缺省时存为NULL，空字符串原样保存
// - publishedAt为null、缺省或空字符串时存为NULL
type BookRequest struct {
	Title       string  `json:"title" validate:"required" example:"The Go Programming Language"`
	Author      string  `json:"author" validate:"required" example:"Alan Donovan"`
	Description *string `json:"description" example:"Go语言入门与进阶"`
	PublishedAt *string `json:"publishedAt" example:"2015-10-26"`
}

// ParsePublishedAt 解析出版日期
// 返回nil表示未提供
func (r BookRequest) ParsePublishedAt() (*time.Time, error) {
	if r.PublishedAt == nil || *r.PublishedAt == "" {
		return nil, nil
	}
	raw := *r.PublishedAt

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateOnlyLayout, raw)
	if err != nil {
		return nil, book.ErrInvalidPublishedAt
	}
	return &t, nil
}

// Fields 转换为领域层的可变字段
func (r BookRequest) Fields() (book.Fields, error) {
	publishedAt, err := r.ParsePublishedAt()
	if err != nil {
		return book.Fields{}, err
	}
	return book.Fields{
		Title:       r.Title,
		Author:      r.Author,
		Description: r.Description,
		PublishedAt: publishedAt,
	}, nil
}

// BookResponse 图书响应
// 可空字段输出为null，时间统一为UTC的RFC3339格式
type BookResponse struct {
	ID          uint       `json:"id" example:"1"`
	Title       string     `json:"title" example:"The Go Programming Language"`
	Author      string     `json:"author" example:"Alan Donovan"`
	Description *string    `json:"description" example:"Go语言入门与进阶"`
	PublishedAt *time.Time `json:"publishedAt" example:"2015-10-26T00:00:00Z"`
	CreatedAt   time.Time  `json:"createdAt" example:"2024-01-15T10:30:00Z"`
	UpdatedAt   time.Time  `json:"updatedAt" example:"2024-01-15T10:30:00Z"`
}

// PaginationResponse 分页信息
type PaginationResponse struct {
	Page       int   `json:"page" example:"1"`
	Limit      int   `json:"limit" example:"10"`
	Total      int64 `json:"total" example:"42"`
	TotalPages int   `json:"totalPages" example:"5"`
}

// ListBooksResponse 图书列表响应
// books在没有数据时输出[]而不是null
type ListBooksResponse struct {
	Books      []BookResponse     `json:"books"`
	Pagination PaginationResponse `json:"pagination"`
}

// NewBookResponse 领域实体 → 响应DTO
func NewBookResponse(b *book.Book) BookResponse {
	resp := BookResponse{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description,
		CreatedAt:   b.CreatedAt.UTC(),
		UpdatedAt:   b.UpdatedAt.UTC(),
	}
	if b.PublishedAt != nil {
		t := b.PublishedAt.UTC()
		resp.PublishedAt = &t
	}
	return resp
}

// NewBookResponses 批量转换
func NewBookResponses(books []*book.Book) []BookResponse {
	list := make([]BookResponse, 0, len(books))
	for _, b := range books {
		list = append(list, NewBookResponse(b))
	}
	return list
}
