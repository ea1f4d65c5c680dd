package settlement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/tips-platform/internal/shared/pubsub"
	"github.com/radieske/tips-platform/pkg/contracts/events"
	"github.com/radieske/tips-platform/pkg/contracts/prediction"
)

// PendingBet é o mínimo necessário para liquidar um palpite
type PendingBet struct {
	ID      string
	Pool    string
	MatchID string
	Market  string
}

// Store é a persistência usada pela liquidação
type Store interface {
	ListPending(ctx context.Context) ([]PendingBet, error)
	ResultsFor(ctx context.Context, matchIDs []string) (map[string]Result, error)
	// Settle só altera linhas ainda PENDING; false quando outra execução chegou antes
	Settle(ctx context.Context, id string, outcome prediction.Settled) (bool, error)
}

// Service liquida palpites PENDING cujas partidas já têm resultado.
// Execuções concorrentes no mesmo processo são serializadas.
type Service struct {
	store Store
	pub   pubsub.Publisher
	log   *zap.Logger
	now   func() time.Time

	mu sync.Mutex

	OnSettled  func(status prediction.Status)
	OnSkipped  func(reason string) // "no_result" | "unsupported_market"
	OnAfterRun func(settled int, took time.Duration)
}

func NewService(store Store, pub pubsub.Publisher, log *zap.Logger) *Service {
	return &Service{store: store, pub: pub, log: log, now: time.Now}
}

// WithClock troca o relógio (testes)
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Run liquida o que for possível e devolve quantos palpites mudaram de status
func (s *Service) Run(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()

	pending, err := s.store.ListPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending: %w", err)
	}
	if len(pending) == 0 {
		s.afterRun(0, start)
		return 0, nil
	}

	ids := make([]string, 0, len(pending))
	seen := make(map[string]struct{}, len(pending))
	for _, p := range pending {
		if _, ok := seen[p.MatchID]; ok {
			continue
		}
		seen[p.MatchID] = struct{}{}
		ids = append(ids, p.MatchID)
	}

	results, err := s.store.ResultsFor(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("load results: %w", err)
	}

	settled := 0
	for _, p := range pending {
		res, ok := results[p.MatchID]
		if !ok {
			s.skipped("no_result")
			continue
		}

		st, ok := Evaluate(p.Market, res)
		if !ok {
			s.log.Debug("unsupported market", zap.String("id", p.ID), zap.String("market", p.Market))
			s.skipped("unsupported_market")
			continue
		}

		outcome, err := prediction.NewSettled(st, res.Score(), s.now())
		if err != nil {
			s.afterRun(settled, start)
			return settled, err
		}

		changed, err := s.store.Settle(ctx, p.ID, outcome)
		if err != nil {
			// o que já foi liquidado fica liquidado; o chamador recebe a contagem parcial
			s.afterRun(settled, start)
			return settled, fmt.Errorf("settle %s: %w", p.ID, err)
		}
		if !changed {
			continue
		}
		settled++
		if s.OnSettled != nil {
			s.OnSettled(st)
		}

		s.publish(ctx, events.Lifecycle{
			Type:     events.LifecycleSettled,
			Pool:     p.Pool,
			RecordID: p.ID,
			MatchID:  p.MatchID,
			Status:   string(st),
			Ts:       s.now().UTC(),
		})
	}

	s.log.Info("settlement run finished", zap.Int("pending", len(pending)), zap.Int("settled", settled))
	s.afterRun(settled, start)
	return settled, nil
}

// falha de publicação não desfaz a liquidação
func (s *Service) publish(ctx context.Context, ev events.Lifecycle) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.log.Warn("lifecycle publish failed", zap.String("id", ev.RecordID), zap.Error(err))
	}
}

func (s *Service) skipped(reason string) {
	if s.OnSkipped != nil {
		s.OnSkipped(reason)
	}
}

func (s *Service) afterRun(n int, start time.Time) {
	if s.OnAfterRun != nil {
		s.OnAfterRun(n, s.now().Sub(start))
	}
}
