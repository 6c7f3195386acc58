// Package throttle counts failed PIN logins per school code in Redis and
// locks the code out once the budget is spent.
package throttle

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Limiter struct {
	client      redis.Cmdable
	maxAttempts int
	lockout     time.Duration
}

// New returns nil when client is nil. A nil Limiter allows everything.
func New(client redis.Cmdable, maxAttempts int, lockout time.Duration) *Limiter {
	if client == nil {
		return nil
	}
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	if lockout <= 0 {
		lockout = 15 * time.Minute
	}
	return &Limiter{client: client, maxAttempts: maxAttempts, lockout: lockout}
}

// Allow reports whether another attempt may be made for key.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil {
		return true, nil
	}
	value, err := l.client.Get(ctx, loginKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	count, err := strconv.Atoi(value)
	if err != nil {
		return true, err
	}
	return count < l.maxAttempts, nil
}

// Fail records a failed attempt. The window starts at the first failure.
// The counter and its expiry are set in one MULTI/EXEC.
func (l *Limiter) Fail(ctx context.Context, key string) error {
	if l == nil {
		return nil
	}
	redisKey := loginKey(key)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, l.lockout)
		return nil
	})
	return err
}

func (l *Limiter) Reset(ctx context.Context, key string) error {
	if l == nil {
		return nil
	}
	return l.client.Del(ctx, loginKey(key)).Err()
}

func loginKey(key string) string {
	return "taptell:login-pin:" + strings.ToUpper(strings.TrimSpace(key))
}
