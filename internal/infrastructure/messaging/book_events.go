package messaging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
	"github.com/xiebiao/bookcatalog/pkg/circuitbreaker"
	"github.com/xiebiao/bookcatalog/pkg/metrics"
	"github.com/xiebiao/bookcatalog/pkg/mq"
)

// ExchangeType 图书事件使用Topic Exchange，订阅方可以用book.*通配
const ExchangeType = "topic"

// MessagePublisher 按routing key发布JSON消息（*mq.Publisher实现了它）
type MessagePublisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// BookMessage 图书变更事件的消息体
// 删除事件没有book字段
type BookMessage struct {
	Type       string       `json:"type"`
	BookID     uint         `json:"bookId"`
	Book       *BookPayload `json:"book,omitempty"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// BookPayload 消息中的图书快照，字段与HTTP响应保持一致
type BookPayload struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Description *string    `json:"description"`
	PublishedAt *time.Time `json:"publishedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// BookEventPublisher 把领域事件发布到RabbitMQ
// 实现book.EventPublisher
type BookEventPublisher struct {
	publisher MessagePublisher
	breaker   *circuitbreaker.CircuitBreaker
}

// NewBookEventPublisher 创建事件发布器
func NewBookEventPublisher(publisher MessagePublisher) *BookEventPublisher {
	return &BookEventPublisher{publisher: publisher}
}

// WithBreaker 用熔断器保护发布
// Broker持续失败时直接返回circuitbreaker.ErrOpenState，写请求不再等待
func (p *BookEventPublisher) WithBreaker(cb *circuitbreaker.CircuitBreaker) *BookEventPublisher {
	p.breaker = cb
	return p
}

// Publish 实现book.EventPublisher
func (p *BookEventPublisher) Publish(ctx context.Context, event book.Event) error {
	publish := func() error {
		return p.publisher.Publish(ctx, string(event.Type), ToMessage(event))
	}

	var err error
	if p.breaker != nil {
		err = p.breaker.Execute(publish)
	} else {
		err = publish()
	}

	result := "success"
	switch {
	case errors.Is(err, circuitbreaker.ErrOpenState):
		result = "rejected"
	case err != nil:
		result = "failure"
	}
	metrics.IncCounterVec(metrics.EventsPublishedTotal, map[string]string{
		"type":   string(event.Type),
		"result": result,
	})
	return err
}

// ToMessage 领域事件 → 消息体
func ToMessage(event book.Event) BookMessage {
	msg := BookMessage{
		Type:       string(event.Type),
		BookID:     event.BookID,
		OccurredAt: event.OccurredAt,
	}
	if b := event.Book; b != nil {
		msg.Book = &BookPayload{
			ID:          b.ID,
			Title:       b.Title,
			Author:      b.Author,
			Description: b.Description,
			PublishedAt: b.PublishedAt,
			CreatedAt:   b.CreatedAt,
			UpdatedAt:   b.UpdatedAt,
		}
	}
	return msg
}

// NewPublisherFromConfig 按配置创建事件发布器
// 未启用时返回NopPublisher；cleanup关闭MQ连接
func NewPublisherFromConfig(cfg *config.Config, log *slog.Logger) (book.EventPublisher, func(), error) {
	if !cfg.Events.Enabled {
		return book.NopPublisher{}, func() {}, nil
	}

	publisher, err := mq.NewPublisher(cfg.Events.URL, cfg.Events.Exchange, ExchangeType, log)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := publisher.Close(); err != nil {
			log.Error("关闭消息发布者失败", slog.Any("error", err))
		}
	}
	breaker := circuitbreaker.New("book-events", circuitbreaker.Settings{
		Timeout:       cfg.Events.BreakerTimeout,
		ReadyToTrip:   circuitbreaker.ConsecutiveFailures(uint32(cfg.Events.BreakerFailures)),
		OnStateChange: breakerStateLogger(log),
	})
	return NewBookEventPublisher(publisher).WithBreaker(breaker), cleanup, nil
}

// breakerStateLogger 熔断器状态变化时记录日志并更新指标
func breakerStateLogger(log *slog.Logger) func(name string, from, to circuitbreaker.State) {
	return func(name string, from, to circuitbreaker.State) {
		level := slog.LevelInfo
		if to == circuitbreaker.StateOpen {
			level = slog.LevelWarn
		}
		log.Log(context.Background(), level, "熔断器状态变化",
			slog.String("name", name),
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
		metrics.SetGaugeVec(metrics.BreakerState, map[string]string{"name": name}, float64(to))
	}
}
