package producer

import (
	"context"
	"time"

	"github.com/radieske/tips-platform/internal/shared/kafka"
	"github.com/radieske/tips-platform/pkg/contracts/events"
)

// KafkaPublisher publica transições de palpites no tópico bet_lifecycle
type KafkaPublisher struct {
	Writer *kafka.Writer
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

// Publish usa o id do palpite como chave (mesma partição por palpite); lote usa o pool
func (p *KafkaPublisher) Publish(ctx context.Context, e events.Lifecycle) error {
	if e.Ts.IsZero() {
		e.Ts = time.Now().UTC()
	}
	key := e.RecordID
	if key == "" {
		key = e.Pool
	}
	return kafka.WriteJSON(ctx, p.Writer, key, e)
}
