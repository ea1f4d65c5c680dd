package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/radieske/tips-platform/internal/tips-client/api"
)

// Surfaces agrupa um store por superfície; criado uma vez na raiz da aplicação e injetado
type Surfaces struct {
	ApprovedBets *Store
	TrainingPool *Store
	LiveSignals  *Store
	LiveHistory  *Store
}

func NewSurfaces(c *api.Client, n Notifier, log *zap.Logger, opts ...Option) *Surfaces {
	with := func(extra ...Option) []Option {
		o := append([]Option{WithNotifier(n)}, opts...)
		return append(o, extra...)
	}
	return &Surfaces{
		ApprovedBets: New("approved-bets", c.ApprovedBets, log, with(WithRemover(c.DeleteBet))...),
		TrainingPool: New("training-pool", c.TrainingAll, log, with()...),
		LiveSignals:  New("live-signals", c.LiveSignals, log, with()...),
		LiveHistory:  New("live-history", c.LiveHistory, log, with()...),
	}
}

// ForPool devolve os stores afetados por uma mudança no pool
func (s *Surfaces) ForPool(pool string) []*Store {
	switch pool {
	case "approved":
		return []*Store{s.ApprovedBets, s.LiveSignals, s.LiveHistory}
	case "training":
		return []*Store{s.TrainingPool}
	}
	return nil
}

// All devolve todos os stores
func (s *Surfaces) All() []*Store {
	return []*Store{s.ApprovedBets, s.TrainingPool, s.LiveSignals, s.LiveHistory}
}

// Remove apaga um palpite aprovado no servidor e o tira de todos os stores do pool aprovado
func (s *Surfaces) Remove(ctx context.Context, id string) error {
	if err := s.ApprovedBets.Remove(ctx, id); err != nil {
		return err
	}
	for _, st := range s.ForPool("approved") {
		st.Drop(id)
	}
	return nil
}
