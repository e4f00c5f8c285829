package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"manifesto-backend/internal/shared/telemetry"
)

// checkAndRecordScript trims expired events, counts the remainder, and adds
// the new event only if the count is under the max. Running it as one script
// keeps check-then-increment atomic across concurrent requests.
var checkAndRecordScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], 0, ARGV[1])
local count = redis.call('ZCARD', KEYS[1])
if count >= tonumber(ARGV[2]) then
  return 0
end
redis.call('ZADD', KEYS[1], ARGV[3], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

// RedisLimiter implements Limiter over a Redis sorted set per (user, op).
type RedisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisLimiter constructs a limiter for the given Redis endpoint.
func NewRedisLimiter(addr, password string, db int) (*RedisLimiter, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisLimiter{client: client, now: time.Now}, nil
}

// CheckAndRecord counts events newer than now-window and records a new one
// when under maxCount. Store failures log a warning and allow the operation.
func (l *RedisLimiter) CheckAndRecord(ctx context.Context, userID, operation string, maxCount int, window time.Duration) (bool, error) {
	key := limiterKey(operation, userID)
	now := l.now()
	cutoff := now.Add(-window).UnixMilli()
	member := fmt.Sprintf("%d", now.UnixNano())

	res, err := checkAndRecordScript.Run(ctx, l.client, []string{key},
		cutoff,
		maxCount,
		now.UnixMilli(),
		member,
		window.Milliseconds(),
	).Int()
	if err != nil {
		telemetry.Warn("ratelimit.store_unavailable", map[string]any{
			"operation": operation,
			"error":     err.Error(),
		})
		return true, err
	}
	return res == 1, nil
}

// limiterKey namespaces one sorted set per (operation, user) pair.
func limiterKey(operation, userID string) string {
	return fmt.Sprintf("ratelimit:%s:%s", operation, userID)
}

// Close releases the underlying Redis connection.
func (l *RedisLimiter) Close() error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Close()
}

var _ Limiter = (*RedisLimiter)(nil)
