package ws

// ClientMsg é a mensagem recebida do cliente WebSocket
type ClientMsg struct {
	Type string `json:"type"` // subscribe | unsubscribe | ping
	Pool string `json:"pool"` // "approved" | "training"; requerido em subscribe/unsubscribe
}
