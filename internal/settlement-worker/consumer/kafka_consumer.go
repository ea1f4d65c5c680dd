package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/tips-platform/internal/shared/kafka"
	"github.com/radieske/tips-platform/internal/tips-api/repo"
	"github.com/radieske/tips-platform/pkg/contracts/events"
)

// MessageReader é o lado de leitura de um kafka.Reader com commit manual
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// MessageWriter recebe mensagens inválidas (DLQ)
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type ResultStore interface {
	UpsertResult(ctx context.Context, ev events.MatchResult) error
}

type TrainingStore interface {
	InsertTraining(ctx context.Context, n repo.NewPrediction) (string, bool, error)
}

// Hooks são callbacks de métricas por estágio; todos opcionais
type Hooks struct {
	OnConsumed func()
	OnPersist  func()
	OnError    func(stage string)
}

func (h Hooks) consumed() {
	if h.OnConsumed != nil {
		h.OnConsumed()
	}
}

func (h Hooks) persisted() {
	if h.OnPersist != nil {
		h.OnPersist()
	}
}

func (h Hooks) failed(stage string) {
	if h.OnError != nil {
		h.OnError(stage)
	}
}

// errPoison marca mensagens que nunca vão ser processáveis (vão para a DLQ)
var errPoison = errors.New("poison message")

// retryBackoff é a espera entre tentativas de leitura, gravação e DLQ
var retryBackoff = 500 * time.Millisecond

func wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(retryBackoff):
		return nil
	}
}

// loop lê até o contexto ser cancelado. O offset só é confirmado depois que a
// mensagem foi gravada ou desviada para a DLQ; falha de banco repete a mesma mensagem.
func loop(ctx context.Context, log *zap.Logger, r MessageReader, hooks Hooks, handle func(context.Context, kafka.Message) error, onPoison func(kafka.Message, error) error) error {
	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("kafka fetch failed", zap.Error(err))
			hooks.failed("read")
			if err := wait(ctx); err != nil {
				return err
			}
			continue
		}
		hooks.consumed()

		if err := process(ctx, log, m, hooks, handle, onPoison); err != nil {
			return err
		}
		if err := r.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("kafka commit failed", zap.Error(err), zap.Int64("offset", m.Offset))
			hooks.failed("commit")
		}
	}
}

// process insiste na mensagem até gravá-la ou desviá-la; só devolve erro com ctx cancelado
func process(ctx context.Context, log *zap.Logger, m kafka.Message, hooks Hooks, handle func(context.Context, kafka.Message) error, onPoison func(kafka.Message, error) error) error {
	for {
		err := handle(ctx, m)
		switch {
		case err == nil:
			hooks.persisted()
			return nil
		case errors.Is(err, errPoison):
			log.Warn("invalid message", zap.Error(err), zap.Int64("offset", m.Offset))
			hooks.failed("decode")
			if onPoison == nil {
				return nil
			}
			derr := onPoison(m, err)
			if derr == nil {
				return nil
			}
			log.Warn("dlq write failed", zap.Error(derr), zap.Int64("offset", m.Offset))
			hooks.failed("dlq")
		default:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("db write failed, retrying", zap.Error(err), zap.Int64("offset", m.Offset))
			hooks.failed("db")
		}
		if err := wait(ctx); err != nil {
			return err
		}
	}
}

// ResultsProcessor consome match_results e grava os placares finais
type ResultsProcessor struct {
	Log    *zap.Logger
	Reader MessageReader
	Store  ResultStore
	DLQ    MessageWriter // opcional
	Hooks  Hooks

	// OnAfterPersist dispara após gravar um resultado (ex.: acordar a liquidação)
	OnAfterPersist func(ev events.MatchResult)
}

func (p *ResultsProcessor) Run(ctx context.Context) error {
	return loop(ctx, p.Log, p.Reader, p.Hooks, p.handle, p.deadLetter)
}

func (p *ResultsProcessor) handle(ctx context.Context, m kafka.Message) error {
	var ev events.MatchResult
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		return fmt.Errorf("%w: %v", errPoison, err)
	}
	if err := validateResult(ev); err != nil {
		return fmt.Errorf("%w: %v", errPoison, err)
	}
	if ev.FinalAt.IsZero() {
		ev.FinalAt = m.Time
	}

	if err := p.Store.UpsertResult(ctx, ev); err != nil {
		return err
	}
	p.Log.Debug("match result stored", zap.String("match_id", ev.MatchID), zap.String("status", ev.Status))
	if p.OnAfterPersist != nil {
		p.OnAfterPersist(ev)
	}
	return nil
}

func validateResult(ev events.MatchResult) error {
	if strings.TrimSpace(ev.MatchID) == "" {
		return errors.New("matchId required")
	}
	if ev.HomeGoals < 0 || ev.AwayGoals < 0 {
		return errors.New("negative goals")
	}
	switch ev.Status {
	case events.MatchFinished, events.MatchAbandoned, events.MatchCancelled:
		return nil
	}
	return fmt.Errorf("unknown match status %q", ev.Status)
}

func (p *ResultsProcessor) deadLetter(m kafka.Message, cause error) error {
	if p.DLQ == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	dl := kafka.Message{
		Key:   m.Key,
		Value: m.Value,
		Headers: append(m.Headers, kafka.Header{
			Key:   "error",
			Value: []byte(cause.Error()),
		}),
	}
	return p.DLQ.WriteMessages(ctx, dl)
}

// CandidatesProcessor consome analysis_candidates e alimenta o pool de treino
type CandidatesProcessor struct {
	Log    *zap.Logger
	Reader MessageReader
	Store  TrainingStore
	Hooks  Hooks

	// OnIngested dispara só quando o candidato é novo no pool
	OnIngested func(id string, ev events.CandidateProduced)
}

func (p *CandidatesProcessor) Run(ctx context.Context) error {
	return loop(ctx, p.Log, p.Reader, p.Hooks, p.handle, nil)
}

func (p *CandidatesProcessor) handle(ctx context.Context, m kafka.Message) error {
	var ev events.CandidateProduced
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		return fmt.Errorf("%w: %v", errPoison, err)
	}
	c := ev.Candidate
	if c.MatchID == "" || c.Market == "" {
		return fmt.Errorf("%w: candidate without matchId or market", errPoison)
	}

	id, inserted, err := p.Store.InsertTraining(ctx, repo.NewPrediction{
		MatchID:   c.MatchID,
		HomeTeam:  c.HomeTeam,
		AwayTeam:  c.AwayTeam,
		League:    c.League,
		Market:    c.Market,
		Odds:      c.Odds,
		MatchTime: c.MatchTime,
	})
	if err != nil {
		return err
	}
	if inserted && p.OnIngested != nil {
		p.OnIngested(id, ev)
	}
	return nil
}
