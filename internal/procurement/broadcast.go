package procurement

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisBroadcaster publishes lifecycle events on a per-shop pub/sub
// channel. Failures are logged and swallowed; subscribers are best
// effort.
type RedisBroadcaster struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisBroadcaster(client *redis.Client, logger *slog.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, logger: logger}
}

// EventChannel names the pub/sub channel for one shop.
func EventChannel(shopID int64) string {
	return fmt.Sprintf("procurement:events:%d", shopID)
}

// Broadcast publishes one event.
func (b *RedisBroadcaster) Broadcast(ctx context.Context, evt Event) {
	if b == nil || b.client == nil {
		return
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		b.logger.Warn("event marshal failed", slog.String("event", evt.Name), slog.Any("error", err))
		return
	}
	if err := b.client.Publish(ctx, EventChannel(evt.ShopID), payload).Err(); err != nil {
		b.logger.Warn("event publish failed", slog.String("event", evt.Name), slog.Any("error", err))
	}
}
