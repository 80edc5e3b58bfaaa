package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter increments the hit count stored under key, expiring it after window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter keeps fixed-window counters in Redis.
type RedisCounter struct {
	redis *redis.Client
}

func NewRedisCounter(ctx context.Context, redisURL string) (*RedisCounter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisCounter{redis: client}, nil
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.redis.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *RedisCounter) Close() error {
	return c.redis.Close()
}

// Limiter admits at most limit hits per key in each fixed window.
type Limiter struct {
	counter Counter
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewLimiter(counter Counter, limit int, window time.Duration) *Limiter {
	if window < time.Second {
		window = time.Second
	}
	return &Limiter{counter: counter, limit: limit, window: window, now: time.Now}
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Count      int64
	Remaining  int64
	RetryAfter time.Duration
}

func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.now()
	secs := int64(l.window / time.Second)
	bucket := now.Unix() / secs
	windowKey := fmt.Sprintf("ratelimit:%s:%d", key, bucket)

	count, err := l.counter.Incr(ctx, windowKey, l.window)
	if err != nil {
		return Decision{Allowed: true}, err
	}

	resetAt := time.Unix((bucket+1)*secs, 0)
	remaining := int64(l.limit) - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:    count <= int64(l.limit),
		Count:      count,
		Remaining:  remaining,
		RetryAfter: resetAt.Sub(now),
	}, nil
}
