// Package winrate calcula taxas de acerto sobre palpites liquidados.
//
// REFUND não conta como vitória nem entra no denominador: só WON e LOST
// são "liquidados para efeito de taxa".
package winrate

import (
	"time"

	"github.com/radieske/tips-platform/pkg/contracts/prediction"
)

// DailyWindow é a janela da taxa diária
const DailyWindow = 24 * time.Hour

// Rates são percentuais inteiros em [0,100]
type Rates struct {
	Daily   int `json:"dailyWinRate"`
	Monthly int `json:"monthlyWinRate"`
}

// Compute calcula as taxas diária e mensal. A ordem da entrada não importa.
// A diária considera createdAt >= now-24h (limite inferior inclusivo).
func Compute(records []prediction.Record, now time.Time) Rates {
	cutoff := now.Add(-DailyWindow)

	var won, settled, dailyWon, dailySettled int
	for _, r := range records {
		st := r.Status()
		if st != prediction.StatusWon && st != prediction.StatusLost {
			continue
		}
		settled++
		recent := !r.CreatedAt.Before(cutoff)
		if recent {
			dailySettled++
		}
		if st == prediction.StatusWon {
			won++
			if recent {
				dailyWon++
			}
		}
	}

	return Rates{
		Daily:   Percent(dailyWon, dailySettled),
		Monthly: Percent(won, settled),
	}
}

// Percent arredonda 100*part/total meio-para-cima; total 0 devolve 0
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	// round(100p/t) = floor((200p + t) / 2t) sem ponto flutuante
	return (200*part + total) / (2 * total)
}

// Summary alimenta GET /training/stats
type Summary struct {
	Total    int `json:"total"`
	Won      int `json:"won"`
	Lost     int `json:"lost"`
	Refunded int `json:"refunded"`
	Pending  int `json:"pending"`
	WinRate  int `json:"winRate"`
}

// Summarize conta os palpites por status; WinRate segue a mesma regra de Compute
func Summarize(records []prediction.Record) Summary {
	var s Summary
	for _, r := range records {
		s.Total++
		switch r.Status() {
		case prediction.StatusWon:
			s.Won++
		case prediction.StatusLost:
			s.Lost++
		case prediction.StatusRefund:
			s.Refunded++
		default:
			s.Pending++
		}
	}
	s.WinRate = Percent(s.Won, s.Won+s.Lost)
	return s
}
