package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/bookcatalog/internal/infrastructure/ratelimit"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// RateLimitStore 基于Redis的固定窗口限流
// 设计说明：
// 1. Key设计：ratelimit:{client}:{窗口起始unix秒}，每个窗口一个计数器
// 2. INCR + EXPIRE放在同一个事务管道里，一次网络往返
// 3. 多个服务实例共享同一个Redis，配额是全局的
type RateLimitStore struct {
	client   *redis.Client
	requests int
	window   time.Duration
	nowFn    func() time.Time
}

// NewRateLimitStore 创建限流存储
func NewRateLimitStore(client *redis.Client, requests int, window time.Duration) *RateLimitStore {
	return &RateLimitStore{
		client:   client,
		requests: requests,
		window:   window,
		nowFn:    time.Now,
	}
}

// Allow 实现ratelimit.Limiter
// 学习要点：
// 1. 窗口起点按window对齐，同一窗口内的请求落在同一个key
// 2. 过期时间设为window，窗口结束后计数器自动删除，无需手动清理
func (s *RateLimitStore) Allow(ctx context.Context, key string) (ratelimit.Decision, error) {
	now := s.nowFn()
	windowStart := now.Truncate(s.window)
	redisKey := s.key(key, windowStart)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return ratelimit.Decision{}, apperrors.ErrRedisError.WithCause(err)
	}

	count := int(incr.Val())
	if count > s.requests {
		return ratelimit.Decision{
			Allowed:    false,
			Limit:      s.requests,
			RetryAfter: windowStart.Add(s.window).Sub(now),
		}, nil
	}
	return ratelimit.Decision{
		Allowed:   true,
		Limit:     s.requests,
		Remaining: s.requests - count,
	}, nil
}

func (s *RateLimitStore) key(client string, windowStart time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%d", client, windowStart.Unix())
}
