/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-10 17:01:17
 * @FilePath: \inventory-app\backend\internal\infra\ratelimit\limiter.go
 * @LastEditTime: 2025-10-23 09:18:44
 */
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Policy 描述固定窗口限流规则，Limit <= 0 表示不限流。
type Policy struct {
	Limit  int
	Window time.Duration
}

// PerMinute 构造每分钟 n 次的规则。
func PerMinute(n int) Policy {
	return Policy{Limit: n, Window: time.Minute}
}

func (p Policy) normalized() Policy {
	if p.Window <= 0 {
		p.Window = time.Minute
	}
	return p
}

// Decision 是一次限流判断的结果。
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

func unlimited() Decision {
	return Decision{Allowed: true, Limit: -1, Remaining: -1}
}

func decide(p Policy, count int, ttl time.Duration) Decision {
	remaining := p.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	d := Decision{Allowed: count <= p.Limit, Limit: p.Limit, Remaining: remaining}
	if !d.Allowed {
		if ttl <= 0 {
			ttl = p.Window
		}
		d.RetryAfter = ttl
	}
	return d
}

// Limiter 统一 Redis 与内存两种实现。
type Limiter interface {
	Take(ctx context.Context, key string, policy Policy) (Decision, error)
}

// RedisLimiter 用 INCR + PEXPIRE 实现跨实例共享的固定窗口。
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter 构造 Redis 限流器。
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{client: client, prefix: prefix}
}

// Take 计数一次请求，窗口从该 key 第一次出现时开始。
func (r *RedisLimiter) Take(ctx context.Context, key string, policy Policy) (Decision, error) {
	if policy.Limit <= 0 {
		return unlimited(), nil
	}
	p := policy.normalized()
	namespaced := r.prefix + ":" + key

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, namespaced)
	ttl := pipe.PTTL(ctx, namespaced)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}
	remaining := ttl.Val()
	if remaining < 0 {
		// 新窗口，或上次设置过期时间失败
		if err := r.client.PExpire(ctx, namespaced, p.Window).Err(); err != nil {
			return Decision{}, err
		}
		remaining = p.Window
	}
	return decide(p, int(incr.Val()), remaining), nil
}

// MemoryLimiter 是单进程内的实现，本地模式与测试使用。
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]window
	now     func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

// NewMemoryLimiter 构造内存限流器。
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]window), now: time.Now}
}

// Take 计数一次请求，顺带清理已过期的窗口。
func (m *MemoryLimiter) Take(_ context.Context, key string, policy Policy) (Decision, error) {
	if policy.Limit <= 0 {
		return unlimited(), nil
	}
	p := policy.normalized()

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		m.prune(now)
		w = window{resetAt: now.Add(p.Window)}
	}
	w.count++
	m.windows[key] = w
	return decide(p, w.count, w.resetAt.Sub(now)), nil
}

func (m *MemoryLimiter) prune(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
}
