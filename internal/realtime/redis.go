package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultChannel = "stationgate:events"

// Bridge relays change events through a Redis pub/sub channel so that a
// write on one API instance reaches subscribers connected to another. Local
// delivery also goes through Redis: the bridge's own subscription feeds the
// hub, keeping every instance on the same path.
type Bridge struct {
	rdb     *redis.Client
	hub     *Hub
	channel string
	lg      *zap.SugaredLogger
}

func NewBridge(rdb *redis.Client, hub *Hub, lg *zap.SugaredLogger) *Bridge {
	return &Bridge{rdb: rdb, hub: hub, channel: defaultChannel, lg: lg}
}

// Publish sends the event to the Redis channel. Losing an event here is
// logged but not fatal; subscribers re-read on their next notification.
func (b *Bridge) Publish(evt Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		b.lg.Warnw("event marshal failed", "error", err)
		return
	}
	if err := b.rdb.Publish(context.Background(), b.channel, payload).Err(); err != nil {
		b.lg.Warnw("event publish failed", "table", evt.Table, "key", evt.Key, "error", err)
	}
}

// Run consumes the Redis channel and feeds the local hub until ctx ends.
func (b *Bridge) Run(ctx context.Context) {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	defer pubsub.Close()
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				b.lg.Warnw("event decode failed", "error", err)
				continue
			}
			b.hub.Publish(evt)
		}
	}
}
