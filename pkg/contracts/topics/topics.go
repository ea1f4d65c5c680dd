package topics

const (
	// Entrada do settlement-worker
	MatchResults       = "match_results"
	AnalysisCandidates = "analysis_candidates"

	// Ciclo de vida dos palpites (approve/delete/settle)
	BetLifecycle = "bet_lifecycle"

	// DLQ
	MatchResultsDLQ = "match_results_dlq"

	// Canal Redis Pub/Sub consumido pelo hub /mobile/ws
	TipsUpdatesChannel = "tips_updates"
)
