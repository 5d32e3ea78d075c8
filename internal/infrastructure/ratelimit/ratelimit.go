// Package ratelimit 按客户端限流
//
// 两种后端：
//   - Memory：进程内令牌桶（golang.org/x/time/rate），单实例部署
//   - Redis：固定窗口计数（INCR + EXPIRE），多实例共享配额，见persistence/redis
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Decision 一次限流判断的结果
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration // 被拒绝时建议的等待时间
}

// Limiter 限流器
// key通常是客户端IP；后端出错时由调用方决定放行还是拒绝
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Memory 进程内令牌桶限流
// 每个key一个rate.Limiter：window内最多requests次，允许一次性突发requests次
type Memory struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	nowFn func() time.Time

	mu        sync.Mutex
	bucket    map[string]*entry
	lastSweep time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemory 创建进程内限流器
func NewMemory(requests int, window time.Duration) *Memory {
	return &Memory{
		limit:  rate.Limit(float64(requests) / window.Seconds()),
		burst:  requests,
		idle:   3 * window,
		nowFn:  time.Now,
		bucket: make(map[string]*entry),
	}
}

// Allow 实现Limiter
func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	now := m.nowFn()

	m.mu.Lock()
	e, ok := m.bucket[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.bucket[key] = e
	}
	e.lastSeen = now
	m.sweep(now)
	m.mu.Unlock()

	r := e.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		// 不等待，归还令牌并拒绝
		r.CancelAt(now)
		return Decision{Allowed: false, Limit: m.burst, RetryAfter: delay}, nil
	}

	remaining := int(e.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Limit: m.burst, Remaining: remaining}, nil
}

// sweep 清理长时间不活跃的key，调用方持有锁
func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.idle {
		return
	}
	m.lastSweep = now
	for k, e := range m.bucket {
		if now.Sub(e.lastSeen) > m.idle {
			delete(m.bucket, k)
		}
	}
}

// Len 当前跟踪的key数量
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bucket)
}
