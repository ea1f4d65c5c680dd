package events

import "time"

// Evento publicado no tópico "match_results" pelo feed de resultados
type MatchResult struct {
	MatchID   string    `json:"matchId"`
	HomeTeam  string    `json:"homeTeam"`
	AwayTeam  string    `json:"awayTeam"`
	HomeGoals int       `json:"homeGoals"`
	AwayGoals int       `json:"awayGoals"`
	Status    string    `json:"status"` // "FINISHED" | "ABANDONED" | "CANCELLED"
	FinalAt   time.Time `json:"finalAt"`
	Source    string    `json:"source"`
}

const (
	MatchFinished  = "FINISHED"
	MatchAbandoned = "ABANDONED"
	MatchCancelled = "CANCELLED"
)
