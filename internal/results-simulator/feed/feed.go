package feed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/tips-platform/pkg/contracts/events"
	"github.com/radieske/tips-platform/pkg/contracts/prediction"
)

// Fixture é um confronto do catálogo simulado
type Fixture struct {
	Home   string
	Away   string
	League string
}

var DefaultFixtures = []Fixture{
	{"Flamengo", "Palmeiras", "Brasileirão"},
	{"Grêmio", "Internacional", "Brasileirão"},
	{"Corinthians", "Santos", "Brasileirão"},
	{"São Paulo", "Vasco", "Brasileirão"},
	{"Benfica", "Porto", "Primeira Liga"},
	{"Boca Juniors", "River Plate", "Liga Profesional"},
}

var DefaultMarkets = []string{
	"Over 2.5", "Under 2.5", "Over 1.5", "Under 3", "Home Win", "Draw", "Away Win",
	"1X", "X2", "BTTS Yes", "BTTS No",
}

// Feed gera rodadas: candidatos para partidas novas e resultados das partidas da rodada anterior
type Feed struct {
	rng      *rand.Rand
	fixtures []Fixture
	markets  []string
	now      func() time.Time
	source   string

	round   int
	waiting []events.CandidateProduced // uma entrada por partida aguardando resultado
}

func New(seed int64, source string, now func() time.Time) *Feed {
	return &Feed{
		rng:      rand.New(rand.NewSource(seed)),
		fixtures: DefaultFixtures,
		markets:  DefaultMarkets,
		now:      now,
		source:   source,
	}
}

// NextRound fecha as partidas pendentes e abre novas
func (f *Feed) NextRound() ([]events.CandidateProduced, []events.MatchResult) {
	now := f.now().UTC()

	results := make([]events.MatchResult, 0, len(f.waiting))
	for _, w := range f.waiting {
		results = append(results, f.result(w.Candidate, now))
	}
	f.waiting = f.waiting[:0]

	f.round++
	var cands []events.CandidateProduced
	for i, fx := range f.fixtures {
		matchID := fmt.Sprintf("SIM-%04d-%02d", f.round, i+1)
		kickoff := now.Add(time.Duration(30+f.rng.Intn(90)) * time.Minute)

		// 1 a 3 mercados por partida, sem repetir
		picks := f.rng.Perm(len(f.markets))[:1+f.rng.Intn(3)]
		for _, p := range picks {
			c := events.CandidateProduced{
				Candidate: prediction.Candidate{
					MatchID:   matchID,
					HomeTeam:  fx.Home,
					AwayTeam:  fx.Away,
					League:    fx.League,
					Market:    f.markets[p],
					MatchTime: kickoff,
					Odds:      f.odds(),
				},
				TsUnixMs: now.UnixMilli(),
				Source:   f.source,
			}
			cands = append(cands, c)
		}
		f.waiting = append(f.waiting, cands[len(cands)-1])
	}
	return cands, results
}

func (f *Feed) result(c prediction.Candidate, now time.Time) events.MatchResult {
	r := events.MatchResult{
		MatchID:  c.MatchID,
		HomeTeam: c.HomeTeam,
		AwayTeam: c.AwayTeam,
		Status:   events.MatchFinished,
		FinalAt:  now,
		Source:   f.source,
	}
	switch roll := f.rng.Intn(100); {
	case roll < 3:
		r.Status = events.MatchAbandoned
	case roll < 5:
		r.Status = events.MatchCancelled
	default:
		r.HomeGoals = f.goals()
		r.AwayGoals = f.goals()
	}
	return r
}

// gols com cauda curta: 0..5
func (f *Feed) goals() int {
	weights := []int{25, 35, 22, 11, 5, 2}
	roll := f.rng.Intn(100)
	for g, w := range weights {
		if roll < w {
			return g
		}
		roll -= w
	}
	return 0
}

// odd entre 1.30 e 4.50 com duas casas
func (f *Feed) odds() string {
	cents := 130 + f.rng.Intn(321)
	return decimal.New(int64(cents), -2).StringFixed(2)
}
