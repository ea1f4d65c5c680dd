package actions

import (
	"context"

	"go.uber.org/zap"

	"github.com/radieske/tips-platform/internal/tips-api/dto"
	"github.com/radieske/tips-platform/internal/tips-client/store"
	"github.com/radieske/tips-platform/pkg/contracts/prediction"
)

// Client é o subconjunto da API usado pelas ações
type Client interface {
	Approve(ctx context.Context, req dto.ApproveRequest) error
	RunSettlement(ctx context.Context) (int, error)
}

// Actions dispara as transições aprovar e liquidar.
// Sem retry e sem chave de idempotência: repetir a chamada pode duplicar o efeito.
type Actions struct {
	client     Client
	candidates *Candidates
	surfaces   *store.Surfaces
	notify     store.Notifier
	log        *zap.Logger
}

func New(c Client, cands *Candidates, s *store.Surfaces, n store.Notifier, log *zap.Logger) *Actions {
	return &Actions{client: c, candidates: cands, surfaces: s, notify: n, log: log}
}

// Approve promove o candidato. Em sucesso o candidato sai do conjunto de trabalho
// e os stores do pool aprovado ficam desatualizados; em falha nada muda.
func (a *Actions) Approve(ctx context.Context, c prediction.Candidate, odds string) error {
	if err := a.client.Approve(ctx, dto.FromCandidate(c, odds)); err != nil {
		a.log.Warn("approve failed", zap.String("match_id", c.MatchID), zap.String("market", c.Market), zap.Error(err))
		a.notify.Notify("could not approve " + c.HomeTeam + " x " + c.AwayTeam + ": " + err.Error())
		return err
	}

	a.candidates.remove(c.Key())
	if a.surfaces != nil {
		for _, s := range a.surfaces.ForPool("approved") {
			s.Invalidate()
		}
	}
	return nil
}

// RunSettlement devolve quantos palpites foram liquidados; os stores precisam ser recarregados
func (a *Actions) RunSettlement(ctx context.Context) (int, error) {
	n, err := a.client.RunSettlement(ctx)
	if err != nil {
		a.log.Warn("settlement failed", zap.Error(err))
		a.notify.Notify("settlement failed: " + err.Error())
		return 0, err
	}
	if n > 0 && a.surfaces != nil {
		for _, s := range a.surfaces.All() {
			s.Invalidate()
		}
	}
	return n, nil
}
