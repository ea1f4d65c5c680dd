package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/tips-platform/pkg/contracts/events"
)

// StartRedisSubscriber repassa ao Hub os avisos publicados no canal Redis
// (API e settlement-worker publicam; cada réplica da API tem seu próprio Hub).
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub *Hub, log *zap.Logger) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev events.Lifecycle
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn("ws subscriber unmarshal error", zap.Error(err))
					continue
				}
				hub.Broadcast(ev)
			}
		}
	}()
}
