package pubsub

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/tips-platform/pkg/contracts/events"
)

// RedisBroadcaster publica avisos de transição no canal consumido pelo hub /mobile/ws
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, ev events.Lifecycle) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.r.Publish(ctx, b.channel, payload).Err()
}

// Publisher é qualquer destino de eventos de ciclo de vida (Kafka, Redis)
type Publisher interface {
	Publish(ctx context.Context, ev events.Lifecycle) error
}

// Fanout entrega o evento a todos os destinos; falha de um não impede os demais
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev events.Lifecycle) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
