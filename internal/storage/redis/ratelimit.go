package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "ratelimit:"

// fixedWindowScript increments the counter for the current window and sets
// its expiry on first use, atomically.
var fixedWindowScript = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	return {current, redis.call('PTTL', KEYS[1])}
`)

type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow counts one hit for subject. When the limit is exceeded it returns
// false and the time until the window resets.
func (l *RateLimiter) Allow(ctx context.Context, subject string) (bool, time.Duration, error) {
	windowStart := l.now().UnixMilli() / l.window.Milliseconds()
	key := fmt.Sprintf("%s%s:%d", rateLimitPrefix, subject, windowStart)

	res, err := fixedWindowScript.Run(ctx, l.client, []string{key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return true, 0, fmt.Errorf("redis rate limit: %w", err)
	}

	count, pttl := res[0], res[1]
	if count > int64(l.limit) {
		retry := time.Duration(pttl) * time.Millisecond
		if retry <= 0 {
			retry = l.window
		}
		return false, retry, nil
	}
	return true, 0, nil
}
