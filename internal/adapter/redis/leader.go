package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var ErrNotLeader = errors.New("not leader")

var renewLeaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
else
	return 0
end
`)

var releaseLeaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`)

// LeaderLock is a single leader lease on one key. The holder must renew it
// before ttl runs out.
type LeaderLock struct {
	rdb        goredis.Cmdable
	key        string
	instanceID string
	ttl        time.Duration
}

func NewLeaderLock(rdb goredis.Cmdable, key, instanceID string, ttl time.Duration) *LeaderLock {
	return &LeaderLock{rdb: rdb, key: "leader:" + key, instanceID: instanceID, ttl: ttl}
}

func (l *LeaderLock) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.key, l.instanceID, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire leader lock: %w", err)
	}
	return ok, nil
}

// Renew extends the lease. ErrNotLeader when another instance holds it.
func (l *LeaderLock) Renew(ctx context.Context) error {
	n, err := renewLeaseScript.Run(ctx, l.rdb, []string{l.key}, l.instanceID, l.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("failed to renew leader lock: %w", err)
	}
	if n == 0 {
		return ErrNotLeader
	}
	return nil
}

func (l *LeaderLock) Release(ctx context.Context) error {
	if err := releaseLeaseScript.Run(ctx, l.rdb, []string{l.key}, l.instanceID).Err(); err != nil {
		return fmt.Errorf("failed to release leader lock: %w", err)
	}
	return nil
}

func (l *LeaderLock) TTL() time.Duration { return l.ttl }
