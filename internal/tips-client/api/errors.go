package api

import "fmt"

// Kind separa as três origens de falha; a UI só usa a mensagem
type Kind int

const (
	KindTransport   Kind = iota + 1 // requisição não chegou ou estourou timeout
	KindHTTP                        // status não-2xx
	KindApplication                 // 2xx com success:false ou corpo inválido
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindHTTP:
		return "http"
	case KindApplication:
		return "application"
	}
	return "unknown"
}

// Error é o erro devolvido por todas as chamadas do Client
type Error struct {
	Kind    Kind
	Op      string // "GET /bets/approved"
	Status  int    // 0 em falha de transporte
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("%s: http %d: %s", e.Op, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }
