package settlement

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/radieske/tips-platform/pkg/contracts/events"
	"github.com/radieske/tips-platform/pkg/contracts/prediction"
)

// Result é o placar final de uma partida
type Result struct {
	MatchID   string
	HomeGoals int
	AwayGoals int
	Status    string // events.MatchFinished | MatchAbandoned | MatchCancelled
}

// Score formata o placar como "casa-fora"
func (r Result) Score() string { return fmt.Sprintf("%d-%d", r.HomeGoals, r.AwayGoals) }

// Void indica partida que não terminou; todo mercado vira REFUND
func (r Result) Void() bool {
	return r.Status == events.MatchAbandoned || r.Status == events.MatchCancelled
}

var half = decimal.RequireFromString("0.5")

// Evaluate decide o status de um mercado dado o resultado.
// ok=false quando o mercado não é suportado (o palpite continua PENDING).
func Evaluate(market string, r Result) (st prediction.Status, ok bool) {
	if r.Void() {
		return prediction.StatusRefund, true
	}

	m := normalize(market)
	home, away := r.HomeGoals, r.AwayGoals

	switch m {
	case "1", "home", "home win":
		return verdict(home > away), true
	case "x", "draw":
		return verdict(home == away), true
	case "2", "away", "away win":
		return verdict(away > home), true
	case "1x":
		return verdict(home >= away), true
	case "x2":
		return verdict(away >= home), true
	case "12":
		return verdict(home != away), true
	case "btts", "btts yes", "both teams to score", "both teams to score yes":
		return verdict(home > 0 && away > 0), true
	case "btts no", "both teams to score no":
		return verdict(home == 0 || away == 0), true
	}

	if line, over, ok := totalsLine(m); ok {
		total := decimal.NewFromInt(int64(home + away))
		switch cmp := total.Cmp(line); {
		case cmp == 0:
			return prediction.StatusRefund, true
		case (cmp > 0) == over:
			return prediction.StatusWon, true
		default:
			return prediction.StatusLost, true
		}
	}

	return "", false
}

func verdict(won bool) prediction.Status {
	if won {
		return prediction.StatusWon
	}
	return prediction.StatusLost
}

// normalize: minúsculas, sem hífens/dois-pontos, espaços colapsados
func normalize(market string) string {
	m := strings.ToLower(market)
	m = strings.NewReplacer("-", " ", ":", " ", "_", " ").Replace(m)
	return strings.Join(strings.Fields(m), " ")
}

// totalsLine reconhece "over 2.5", "under 3", "o2.5", "u 1.5".
// Linhas asiáticas (.25/.75) não são suportadas.
func totalsLine(m string) (line decimal.Decimal, over bool, ok bool) {
	var rest string
	switch {
	case strings.HasPrefix(m, "over"):
		over, rest = true, strings.TrimPrefix(m, "over")
	case strings.HasPrefix(m, "under"):
		rest = strings.TrimPrefix(m, "under")
	case strings.HasPrefix(m, "o"):
		over, rest = true, strings.TrimPrefix(m, "o")
	case strings.HasPrefix(m, "u"):
		rest = strings.TrimPrefix(m, "u")
	default:
		return decimal.Decimal{}, false, false
	}
	rest = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "goals"))

	line, err := decimal.NewFromString(rest)
	if err != nil || line.IsNegative() {
		return decimal.Decimal{}, false, false
	}
	frac := line.Sub(line.Floor())
	if !frac.IsZero() && !frac.Equal(half) {
		return decimal.Decimal{}, false, false
	}
	return line, over, true
}
