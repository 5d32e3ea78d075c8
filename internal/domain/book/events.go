package book

import (
	"context"
	"time"
)

// EventType 图书变更事件类型
// 同时作为消息队列的routing key
type EventType string

const (
	EventCreated EventType = "book.created"
	EventUpdated EventType = "book.updated"
	EventDeleted EventType = "book.deleted"
)

// Event 图书变更事件
// 删除事件只携带BookID,Book为nil
type Event struct {
	Type       EventType
	BookID     uint
	Book       *Book
	OccurredAt time.Time
}

// EventPublisher 事件发布接口
// 由infrastructure层实现(RabbitMQ),未启用时使用NopPublisher
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher 不发布任何事件
type NopPublisher struct{}

// Publish 实现EventPublisher
func (NopPublisher) Publish(context.Context, Event) error { return nil }
