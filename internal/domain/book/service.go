package book

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Service 图书领域服务接口
// 设计说明:
// 1. 单条记录的读写(get/create/update/delete)在这里完成
// 2. 每个操作对应一次存储往返(更新为两次:UPDATE + 回读)
// 3. 不在请求之间缓存任何记录
type Service interface {
	// GetBookByID 根据ID获取图书
	// 不存在时返回(nil, nil),由调用方映射为404
	GetBookByID(ctx context.Context, id uint) (*Book, error)

	// CreateBook 创建图书
	// 唯一约束冲突返回ErrBookDuplicate
	CreateBook(ctx context.Context, fields Fields) (*Book, error)

	// UpdateBook 整体替换图书的可变字段
	// 不存在返回ErrBookNotFound
	UpdateBook(ctx context.Context, id uint, fields Fields) (*Book, error)

	// DeleteBook 删除图书(物理删除)
	// 不存在返回ErrBookNotFound
	DeleteBook(ctx context.Context, id uint) error

	// ListBooks 按给定匹配方式分页查询
	// 正则失败后的降级策略由应用层决定
	ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// Ping 检查存储连通性
	Ping(ctx context.Context) error
}

// service 领域服务实现
type service struct {
	repo      Repository
	publisher EventPublisher
	logger    *slog.Logger
}

// NewService 创建图书领域服务
func NewService(repo Repository, publisher EventPublisher, logger *slog.Logger) Service {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// GetBookByID 根据ID获取图书
func (s *service) GetBookByID(ctx context.Context, id uint) (*Book, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

// CreateBook 创建图书
func (s *service) CreateBook(ctx context.Context, fields Fields) (*Book, error) {
	// 1. 必填校验(handler层已校验,这里保证领域不变量)
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	// 2. 创建实体并持久化
	b := NewBook(fields)
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	// 3. 发布事件
	s.publish(ctx, Event{Type: EventCreated, BookID: b.ID, Book: b})
	return b, nil
}

// UpdateBook 整体替换图书的可变字段
func (s *service) UpdateBook(ctx context.Context, id uint, fields Fields) (*Book, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	b, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, Event{Type: EventUpdated, BookID: b.ID, Book: b})
	return b, nil
}

// DeleteBook 删除图书
func (s *service) DeleteBook(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, Event{Type: EventDeleted, BookID: id})
	return nil
}

// ListBooks 分页查询图书列表
func (s *service) ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error) {
	return s.repo.List(ctx, params)
}

// Ping 检查存储连通性
func (s *service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// publish 发布变更事件
// 发布失败只记录日志,不影响已经成功的写操作
func (s *service) publish(ctx context.Context, event Event) {
	event.OccurredAt = time.Now()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "发布图书事件失败",
			slog.String("event", string(event.Type)),
			slog.Uint64("book_id", uint64(event.BookID)),
			slog.Any("error", err),
		)
	}
}
