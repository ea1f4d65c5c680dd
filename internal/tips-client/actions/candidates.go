package actions

import (
	"sort"
	"sync"

	"github.com/radieske/tips-platform/pkg/contracts/prediction"
)

// Candidates é o conjunto de trabalho de candidatos ainda não aprovados, por partida+mercado
type Candidates struct {
	mu    sync.Mutex
	items map[string]prediction.Candidate
}

func NewCandidates(cs ...prediction.Candidate) *Candidates {
	c := &Candidates{items: make(map[string]prediction.Candidate, len(cs))}
	c.Add(cs...)
	return c
}

func (c *Candidates) Add(cs ...prediction.Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, x := range cs {
		c.items[x.Key()] = x
	}
}

func (c *Candidates) Get(key string) (prediction.Candidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	x, ok := c.items[key]
	return x, ok
}

func (c *Candidates) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

func (c *Candidates) remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *Candidates) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// List ordena por horário da partida e depois pela chave
func (c *Candidates) List() []prediction.Candidate {
	c.mu.Lock()
	out := make([]prediction.Candidate, 0, len(c.items))
	for _, x := range c.items {
		out = append(out, x)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].MatchTime.Equal(out[j].MatchTime) {
			return out[i].MatchTime.Before(out[j].MatchTime)
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}

// FromTraining monta candidatos a partir do pool de treino: PENDING e ainda não aprovados
func FromTraining(training, approved []prediction.Record) []prediction.Candidate {
	taken := make(map[string]struct{}, len(approved))
	for _, r := range approved {
		taken[r.MatchID+"|"+r.Market] = struct{}{}
	}
	var out []prediction.Candidate
	for _, r := range training {
		if r.IsSettled() {
			continue
		}
		c := prediction.Candidate{
			MatchID:   r.MatchID,
			HomeTeam:  r.HomeTeam,
			AwayTeam:  r.AwayTeam,
			League:    r.League,
			Market:    r.Market,
			MatchTime: r.MatchTime,
			Odds:      r.Odds,
		}
		if _, ok := taken[c.Key()]; ok {
			continue
		}
		out = append(out, c)
	}
	return out
}
