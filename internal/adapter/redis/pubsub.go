package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const notificationChannel = "notifications"

// NotificationBus fans notification events out to every instance over Redis
// pub/sub. Delivery is best effort; clients recover missed events by
// refetching their unread list.
type NotificationBus struct {
	rdb *goredis.Client
}

func NewNotificationBus(rdb *goredis.Client) *NotificationBus {
	return &NotificationBus{rdb: rdb}
}

func (b *NotificationBus) Publish(ctx context.Context, event domain.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode notification event: %w", err)
	}
	if err := b.rdb.Publish(ctx, notificationChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification event: %w", err)
	}
	return nil
}

// Run delivers events to handle until ctx is cancelled. handle must not block.
func (b *NotificationBus) Run(ctx context.Context, handle func(domain.NotificationEvent)) {
	pubsub := b.rdb.Subscribe(ctx, notificationChannel)
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok || msg == nil {
				return
			}
			var event domain.NotificationEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.Warn("Dropping malformed notification event", "error", err)
				continue
			}
			handle(event)
		case <-ctx.Done():
			return
		}
	}
}
