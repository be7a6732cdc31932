package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryLimiterWindow(t *testing.T) {
	m := NewMemoryLimiter()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()
	policy := Policy{Limit: 2, Window: time.Minute}

	for i := 0; i < 2; i++ {
		d, _ := m.Take(ctx, "1.2.3.4", policy)
		if !d.Allowed {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	d, _ := m.Take(ctx, "1.2.3.4", policy)
	if d.Allowed || d.RetryAfter != time.Minute || d.Remaining != 0 {
		t.Fatalf("third request should be limited, got %+v", d)
	}
	if other, _ := m.Take(ctx, "5.6.7.8", policy); !other.Allowed {
		t.Fatalf("keys must be isolated")
	}

	now = now.Add(time.Minute)
	if d, _ := m.Take(ctx, "1.2.3.4", policy); !d.Allowed || d.Remaining != 1 {
		t.Fatalf("window should reset, got %+v", d)
	}
}

func TestUnlimitedPolicy(t *testing.T) {
	d, err := NewMemoryLimiter().Take(context.Background(), "k", Policy{})
	if err != nil || !d.Allowed || d.Remaining != -1 {
		t.Fatalf("zero limit must not throttle, got %+v (%v)", d, err)
	}
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRedisLimiter(client, "test")
	ctx := context.Background()
	policy := PerMinute(1)

	if d, err := limiter.Take(ctx, "ip", policy); err != nil || !d.Allowed {
		t.Fatalf("first request should pass: %+v (%v)", d, err)
	}
	d, err := limiter.Take(ctx, "ip", policy)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if d.Allowed || d.RetryAfter <= 0 {
		t.Fatalf("second request should be limited: %+v", d)
	}

	mr.FastForward(time.Minute + time.Second)
	if d, _ := limiter.Take(ctx, "ip", policy); !d.Allowed {
		t.Fatalf("window should expire in redis")
	}
}
