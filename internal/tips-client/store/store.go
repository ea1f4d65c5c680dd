// Package store mantém o cache local de palpites de cada superfície
// (aprovados, pool de treino, sinais ao vivo, histórico).
//
// Load substitui a coleção inteira em caso de sucesso e preserva a anterior
// em caso de falha; o erro nunca sai do store, fica em State().Err.
// Uma segunda chamada de Load com outra em voo não faz nada.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/tips-platform/internal/shared/winrate"
	"github.com/radieske/tips-platform/pkg/contracts/prediction"
)

// ErrRemoveUnsupported é devolvido por superfícies somente leitura
var ErrRemoveUnsupported = errors.New("remove not supported on this surface")

type (
	Fetcher func(ctx context.Context) ([]prediction.Record, error)
	Remover func(ctx context.Context, id string) error
)

// Notifier exibe avisos transitórios (toast); falhas de ações mutantes passam por aqui
type Notifier interface {
	Notify(msg string)
}

// LogNotifier só registra o aviso no log
type LogNotifier struct{ Log *zap.Logger }

func (n LogNotifier) Notify(msg string) { n.Log.Warn(msg) }

// State é uma cópia imutável do estado do store
type State struct {
	Records  []prediction.Record
	Rates    winrate.Rates
	Loading  bool
	Err      string
	Stale    bool // a coleção mudou no servidor; recarregar
	LoadedAt time.Time
}

// Store guarda a coleção de uma superfície
type Store struct {
	name   string
	fetch  Fetcher
	remove Remover
	notify Notifier
	log    *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	state   State
	subs    map[int]func(State)
	nextSub int

	// ids removidos enquanto uma carga estava em voo; a resposta dela ainda pode trazê-los
	droppedInFlight map[string]struct{}
}

type Option func(*Store)

func WithRemover(r Remover) Option { return func(s *Store) { s.remove = r } }

func WithNotifier(n Notifier) Option { return func(s *Store) { s.notify = n } }

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func New(name string, fetch Fetcher, log *zap.Logger, opts ...Option) *Store {
	s := &Store{
		name:  name,
		fetch: fetch,
		log:   log.With(zap.String("store", name)),
		now:   time.Now,
		subs:  make(map[int]func(State)),
	}
	for _, o := range opts {
		o(s)
	}
	if s.notify == nil {
		s.notify = LogNotifier{Log: s.log}
	}
	return s
}

func (s *Store) Name() string { return s.name }

// State devolve uma cópia do estado atual
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) snapshot() State {
	st := s.state
	st.Records = append([]prediction.Record(nil), s.state.Records...)
	return st
}

// Subscribe registra um observador chamado a cada mudança de estado.
// A função devolvida cancela a inscrição.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// publish avisa os observadores; chamado sem o lock
func (s *Store) publish(st State) {
	s.mu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// Load busca a coleção completa. Se ctx for cancelado antes da resposta
// ser aplicada, o resultado é descartado.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	if s.state.Loading {
		s.mu.Unlock()
		return
	}
	s.state.Loading = true
	st := s.snapshot()
	s.mu.Unlock()
	s.publish(st)

	records, err := s.fetch(ctx)

	s.mu.Lock()
	s.state.Loading = false
	switch {
	case ctx.Err() != nil:
		s.log.Debug("load result dropped", zap.Error(ctx.Err()))
	case err != nil:
		s.state.Err = err.Error()
		s.log.Warn("load failed", zap.Error(err))
	default:
		s.state.Records = s.withoutDropped(prediction.Dedupe(records))
		s.state.Err = ""
		s.state.Stale = false
		s.state.LoadedAt = s.now()
		s.recompute()
	}
	s.droppedInFlight = nil
	st = s.snapshot()
	s.mu.Unlock()
	s.publish(st)
}

// Refresh é o mesmo que Load
func (s *Store) Refresh(ctx context.Context) { s.Load(ctx) }

// Remove apaga um palpite no servidor e, em caso de sucesso, da coleção local.
// Falha não altera a coleção nem o campo de erro: só gera aviso.
func (s *Store) Remove(ctx context.Context, id string) error {
	if s.remove == nil {
		return ErrRemoveUnsupported
	}
	if err := s.remove(ctx, id); err != nil {
		s.log.Warn("remove failed", zap.String("id", id), zap.Error(err))
		s.notify.Notify("could not delete " + id + ": " + err.Error())
		return err
	}
	s.Drop(id)
	return nil
}

// Drop tira o palpite da coleção local sem falar com o servidor.
// Se houver carga em voo, o id também é filtrado da resposta dela.
func (s *Store) Drop(id string) {
	s.mu.Lock()
	if s.state.Loading {
		if s.droppedInFlight == nil {
			s.droppedInFlight = make(map[string]struct{})
		}
		s.droppedInFlight[id] = struct{}{}
	}
	kept := s.state.Records[:0:0]
	for _, r := range s.state.Records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	changed := len(kept) != len(s.state.Records)
	s.state.Records = kept
	s.recompute()
	st := s.snapshot()
	s.mu.Unlock()
	if changed {
		s.publish(st)
	}
}

// chamado com o lock
func (s *Store) withoutDropped(records []prediction.Record) []prediction.Record {
	if len(s.droppedInFlight) == 0 {
		return records
	}
	kept := records[:0]
	for _, r := range records {
		if _, gone := s.droppedInFlight[r.ID]; !gone {
			kept = append(kept, r)
		}
	}
	return kept
}

// Invalidate marca a coleção como desatualizada (após aprovar ou liquidar)
func (s *Store) Invalidate() {
	s.mu.Lock()
	if s.state.Stale {
		s.mu.Unlock()
		return
	}
	s.state.Stale = true
	st := s.snapshot()
	s.mu.Unlock()
	s.publish(st)
}

// chamado com o lock
func (s *Store) recompute() {
	s.state.Rates = winrate.Compute(s.state.Records, s.now())
}
