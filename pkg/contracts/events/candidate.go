package events

import "github.com/radieske/tips-platform/pkg/contracts/prediction"

// Evento publicado no tópico "analysis_candidates"; todo candidato entra no pool de treino
type CandidateProduced struct {
	Candidate prediction.Candidate `json:"candidate"`
	TsUnixMs  int64                `json:"ts_unix_ms"`
	Source    string               `json:"source"`
}
