package events

import "time"

// Tipos de transição publicados em "bet_lifecycle" e no canal tips_updates
const (
	LifecycleApproved = "APPROVED"
	LifecycleDeleted  = "DELETED"
	LifecycleSettled  = "SETTLED"
	LifecycleIngested = "INGESTED"
)

// Lifecycle é emitido a cada transição de um palpite
type Lifecycle struct {
	Type     string    `json:"type"`
	Pool     string    `json:"pool"` // "approved" | "training"
	RecordID string    `json:"recordId,omitempty"`
	MatchID  string    `json:"matchId,omitempty"`
	Status   string    `json:"status,omitempty"`
	Count    int       `json:"count,omitempty"` // settle em lote
	Ts       time.Time `json:"ts"`
}
