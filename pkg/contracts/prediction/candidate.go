package prediction

import "time"

// Candidate é um resultado de análise ainda não promovido (sem id, sem status)
type Candidate struct {
	MatchID   string    `json:"matchId"`
	HomeTeam  string    `json:"homeTeam"`
	AwayTeam  string    `json:"awayTeam"`
	League    string    `json:"league"`
	Market    string    `json:"market"`
	MatchTime time.Time `json:"matchTime"`
	Odds      string    `json:"odds,omitempty"` // sugerida pela análise
}

// Key identifica o candidato no conjunto de trabalho (partida + mercado)
func (c Candidate) Key() string { return c.MatchID + "|" + c.Market }
