package dto

import (
	"github.com/radieske/tips-platform/internal/shared/winrate"
	"github.com/radieske/tips-platform/pkg/contracts/prediction"
)

// Todas as respostas carregam "success"; falhas usam ErrorResponse

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type ApproveResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
}

type BetsResponse struct {
	Success bool                `json:"success"`
	Bets    []prediction.Record `json:"bets"`
}

type TrainingResponse struct {
	Success bool                `json:"success"`
	Data    []prediction.Record `json:"data"`
}

type StatsResponse struct {
	Success bool            `json:"success"`
	Stats   winrate.Summary `json:"stats"`
}

type SettlementResponse struct {
	Success bool `json:"success"`
	Settled int  `json:"settled"`
}

type SignalsResponse struct {
	Success bool                `json:"success"`
	Signals []prediction.Record `json:"signals"`
}

type HistoryResponse struct {
	Success bool                `json:"success"`
	History []prediction.Record `json:"history"`
}
