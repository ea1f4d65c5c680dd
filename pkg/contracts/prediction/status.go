package prediction

import "fmt"

// Status é o estado de ciclo de vida de um palpite
type Status string

const (
	StatusPending Status = "PENDING"
	StatusWon     Status = "WON"
	StatusLost    Status = "LOST"
	StatusRefund  Status = "REFUND"
)

// Terminal indica se o status é resultado de liquidação
func (s Status) Terminal() bool {
	return s == StatusWon || s == StatusLost || s == StatusRefund
}

// ParseStatus valida um status vindo do wire
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusWon, StatusLost, StatusRefund:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}
