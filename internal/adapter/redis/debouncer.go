package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Debouncer marks a key for ttl using SET NX. Only the first caller in the
// window gets false.
type Debouncer struct {
	rdb goredis.Cmdable
}

func NewDebouncer(rdb goredis.Cmdable) *Debouncer {
	return &Debouncer{rdb: rdb}
}

func (d *Debouncer) IsDebounced(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := goredis.SetArgs{TTL: ttl, Mode: "NX"}
	_, err := d.rdb.SetArgs(ctx, "debounce:"+key, "1", args).Result()
	if errors.Is(err, goredis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to set debounce: %w", err)
	}
	return false, nil
}
