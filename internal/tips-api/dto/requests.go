package dto

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/radieske/tips-platform/pkg/contracts/prediction"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// odd decimal maior que 1 ("1.85"); vazio é tratado por omitempty
	_ = v.RegisterValidation("odds", func(fl validator.FieldLevel) bool {
		_, err := NormalizeOdds(fl.Field().String())
		return err == nil
	})
	return v
}

// ApproveRequest é o corpo de POST /bets/approve
type ApproveRequest struct {
	MatchID   string               `json:"matchId" validate:"required"`
	HomeTeam  string               `json:"homeTeam" validate:"required"`
	AwayTeam  string               `json:"awayTeam" validate:"required"`
	League    string               `json:"league" validate:"max=120"`
	Market    string               `json:"market" validate:"required,max=80"`
	Odds      string               `json:"odds" validate:"omitempty,odds"`
	MatchTime prediction.Timestamp `json:"matchTime"`
}

func (r *ApproveRequest) Validate() error {
	return validate.Struct(r)
}

// FromCandidate monta o corpo de aprovação; odds vazia mantém a sugerida
func FromCandidate(c prediction.Candidate, odds string) ApproveRequest {
	if odds == "" {
		odds = c.Odds
	}
	return ApproveRequest{
		MatchID:   c.MatchID,
		HomeTeam:  c.HomeTeam,
		AwayTeam:  c.AwayTeam,
		League:    c.League,
		Market:    c.Market,
		Odds:      odds,
		MatchTime: prediction.Timestamp{Time: c.MatchTime},
	}
}

// NormalizeOdds valida e normaliza a odd ("1.850" -> "1.85")
func NormalizeOdds(s string) (string, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", fmt.Errorf("odds %q: %w", s, err)
	}
	if d.LessThanOrEqual(decimal.NewFromInt(1)) {
		return "", fmt.Errorf("odds %q must be greater than 1", s)
	}
	return d.String(), nil
}
