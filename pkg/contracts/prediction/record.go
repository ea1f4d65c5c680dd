package prediction

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPhase indica status e resultado inconsistentes
var ErrInvalidPhase = errors.New("status and outcome disagree")

// Phase é a fase do palpite: Pending ou Settled.
// A interface é selada para que status e resultado não possam divergir.
type Phase interface {
	isPhase()
}

// Pending é um palpite ainda sem resultado
type Pending struct{}

// Settled é um palpite liquidado (WON, LOST ou REFUND)
type Settled struct {
	Result     Status
	FinalScore string
	SettledAt  time.Time
}

func (Pending) isPhase() {}
func (Settled) isPhase() {}

// NewSettled monta uma fase liquidada validando os campos obrigatórios
func NewSettled(result Status, finalScore string, settledAt time.Time) (Settled, error) {
	if !result.Terminal() {
		return Settled{}, fmt.Errorf("%w: %s is not terminal", ErrInvalidPhase, result)
	}
	if finalScore == "" || settledAt.IsZero() {
		return Settled{}, fmt.Errorf("%w: %s without final score or settledAt", ErrInvalidPhase, result)
	}
	return Settled{Result: result, FinalScore: finalScore, SettledAt: settledAt.UTC()}, nil
}

// Record é o palpite rastreado (PredictionRecord), com id atribuído pelo servidor
type Record struct {
	ID         string
	MatchID    string
	HomeTeam   string
	AwayTeam   string
	League     string
	MatchTime  time.Time
	Market     string
	Odds       string // opcional; "" = ausente
	CreatedAt  time.Time
	ApprovedAt time.Time
	Phase      Phase
}

// Status deriva o status da fase; fase nil é tratada como Pending
func (r Record) Status() Status {
	if s, ok := r.Phase.(Settled); ok {
		return s.Result
	}
	return StatusPending
}

// Outcome retorna o resultado quando liquidado
func (r Record) Outcome() (Settled, bool) {
	s, ok := r.Phase.(Settled)
	return s, ok
}

// IsSettled indica status terminal
func (r Record) IsSettled() bool {
	_, ok := r.Phase.(Settled)
	return ok
}

type wireRecord struct {
	ID         string     `json:"id"`
	MatchID    string     `json:"matchId"`
	HomeTeam   string     `json:"homeTeam"`
	AwayTeam   string     `json:"awayTeam"`
	League     string     `json:"league"`
	MatchTime  Timestamp  `json:"matchTime"`
	Market     string     `json:"market"`
	Odds       flexString `json:"odds,omitempty"`
	Status     string     `json:"status"`
	FinalScore string     `json:"finalScore,omitempty"`
	SettledAt  *Timestamp `json:"settledAt,omitempty"`
	CreatedAt  Timestamp  `json:"createdAt"`
	ApprovedAt *Timestamp `json:"approvedAt,omitempty"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	w := wireRecord{
		ID:        r.ID,
		MatchID:   r.MatchID,
		HomeTeam:  r.HomeTeam,
		AwayTeam:  r.AwayTeam,
		League:    r.League,
		MatchTime: Timestamp{r.MatchTime},
		Market:    r.Market,
		Odds:      flexString(r.Odds),
		Status:    string(r.Status()),
		CreatedAt: Timestamp{r.CreatedAt},
	}
	if !r.ApprovedAt.IsZero() {
		w.ApprovedAt = &Timestamp{r.ApprovedAt}
	}
	if s, ok := r.Outcome(); ok {
		w.FinalScore = s.FinalScore
		w.SettledAt = &Timestamp{s.SettledAt}
	}
	return json.Marshal(w)
}

// UnmarshalJSON rejeita registros em que status e resultado não batem:
// PENDING sem finalScore/settledAt, terminal com ambos.
func (r *Record) UnmarshalJSON(b []byte) error {
	var w wireRecord
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	st, err := ParseStatus(w.Status)
	if err != nil {
		return err
	}

	var settledAt time.Time
	if w.SettledAt != nil {
		settledAt = w.SettledAt.Time
	}

	var phase Phase = Pending{}
	if st == StatusPending {
		if w.FinalScore != "" || !settledAt.IsZero() {
			return fmt.Errorf("record %s: %w: pending with outcome", w.ID, ErrInvalidPhase)
		}
	} else {
		s, err := NewSettled(st, w.FinalScore, settledAt)
		if err != nil {
			return fmt.Errorf("record %s: %w", w.ID, err)
		}
		phase = s
	}

	*r = Record{
		ID:        w.ID,
		MatchID:   w.MatchID,
		HomeTeam:  w.HomeTeam,
		AwayTeam:  w.AwayTeam,
		League:    w.League,
		MatchTime: w.MatchTime.Time,
		Market:    w.Market,
		Odds:      string(w.Odds),
		CreatedAt: w.CreatedAt.Time,
		Phase:     phase,
	}
	if w.ApprovedAt != nil {
		r.ApprovedAt = w.ApprovedAt.Time
	}
	return nil
}

// Dedupe mantém a primeira ocorrência de cada id, preservando a ordem
func Dedupe(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
