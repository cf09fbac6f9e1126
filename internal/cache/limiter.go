package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Fixed window counter; the first hit in a window sets the expiry.
const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

type RateLimiter struct {
	client *redis.Client
	script *redis.Script
	prefix string
}

func NewRateLimiter(client *redis.Client, prefix string) *RateLimiter {
	if client == nil {
		return nil
	}
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RateLimiter{
		client: client,
		script: redis.NewScript(rateLimitScript),
		prefix: prefix,
	}
}

// Allow counts one hit against key. It fails open: when Redis is slow or
// down, requests are let through.
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	if l == nil || l.client == nil {
		return true
	}
	if key == "" || limit <= 0 || window <= 0 {
		return true
	}
	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	ctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	allowed, err := l.script.Run(ctx, l.client, []string{l.prefix + ":" + key}, ttl, limit).Int64()
	if err != nil {
		return true
	}
	return allowed == 1
}
