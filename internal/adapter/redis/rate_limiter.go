package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
)

// tokenBucketScript refills the bucket by elapsed time and takes one token.
// KEYS[1] bucket hash; ARGV now_ms, capacity, tokens per minute.
var tokenBucketScript = goredis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3]) / 60000

local state = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil then
	tokens = capacity
	ts = now
end

local elapsed = math.max(0, now - ts)
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end

redis.call("HSET", key, "tokens", tostring(tokens), "ts", tostring(now))
redis.call("PEXPIRE", key, math.ceil(capacity / rate) + 1000)
return allowed
`)

// ActionRateLimiter is a per user, per action token bucket kept in Redis so
// every instance shares the same budget.
type ActionRateLimiter struct {
	rdb      goredis.Scripter
	clock    clockwork.Clock
	capacity int
	rate     int
}

// NewActionRateLimiter allows bursts of capacity and refills rate tokens per minute.
func NewActionRateLimiter(rdb goredis.Scripter, clock clockwork.Clock, capacity, rate int) *ActionRateLimiter {
	return &ActionRateLimiter{rdb: rdb, clock: clock, capacity: capacity, rate: rate}
}

func (l *ActionRateLimiter) Allow(ctx context.Context, userID uuid.UUID, action string) (bool, error) {
	key := fmt.Sprintf("rate_limit:%s:%s", action, userID)
	allowed, err := tokenBucketScript.Run(ctx, l.rdb, []string{key},
		l.clock.Now().UnixMilli(), l.capacity, l.rate).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}
	return allowed == 1, nil
}
