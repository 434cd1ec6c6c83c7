package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RateLimiter implements a sliding-window rate limiter backed by Redis.
// When Redis is disabled the limiter is a no-op and always allows.
type RateLimiter struct {
	client *Client
	key    string
	limit  int
	window time.Duration
}

// RateLimitConfig describes limits for a single upstream provider.
type RateLimitConfig struct {
	Key    string
	Limit  int
	Window time.Duration
}

// Provider quotas. Finnhub free tier allows 60 calls/min, Alpha Vantage
// 25 calls/day is too coarse to enforce here so we cap bursts instead.
var (
	FinnhubRateLimit = RateLimitConfig{
		Key:    "ratelimit:finnhub",
		Limit:  60,
		Window: time.Minute,
	}
	AlphaVantageRateLimit = RateLimitConfig{
		Key:    "ratelimit:alphavantage",
		Limit:  5,
		Window: time.Minute,
	}
	TefasRateLimit = RateLimitConfig{
		Key:    "ratelimit:tefas",
		Limit:  30,
		Window: time.Minute,
	}
)

// NewRateLimiter creates a rate limiter with the given config.
func NewRateLimiter(client *Client, cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		client: client,
		key:    cfg.Key,
		limit:  cfg.Limit,
		window: cfg.Window,
	}
}

// slidingWindowScript atomically prunes expired entries, counts the
// remainder, and records the new request if under the limit.
var slidingWindowScript = goredis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)

if count < limit then
	redis.call('ZADD', key, now, now)
	redis.call('PEXPIRE', key, window)
	return {1, limit - count - 1}
end

return {0, 0}
`)

// Allow reports whether a request may proceed, and how many slots remain.
func (r *RateLimiter) Allow(ctx context.Context) (bool, int, error) {
	if !r.client.Enabled() {
		return true, r.limit, nil
	}

	now := time.Now().UnixMilli()
	res, err := slidingWindowScript.Run(ctx, r.client.Redis(),
		[]string{r.key}, now, r.window.Milliseconds(), r.limit).Slice()
	if err != nil {
		// Fail open: an unavailable limiter must not block lookups.
		return true, 0, fmt.Errorf("rate limit check failed: %w", err)
	}

	allowed, _ := res[0].(int64)
	remaining, _ := res[1].(int64)
	return allowed == 1, int(remaining), nil
}

// Wait blocks until a request is allowed or the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		allowed, _, err := r.Allow(ctx)
		if err != nil {
			return nil
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}
