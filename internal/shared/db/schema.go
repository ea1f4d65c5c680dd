package db

const schema = `
-- Palpites: pool "approved" (promovidos pelo usuário) e "training" (todo candidato da análise)
CREATE TABLE IF NOT EXISTS predictions (
    id          TEXT PRIMARY KEY,
    pool        TEXT NOT NULL CHECK (pool IN ('approved', 'training')),
    match_id    TEXT NOT NULL,
    home_team   TEXT NOT NULL,
    away_team   TEXT NOT NULL,
    league      TEXT NOT NULL DEFAULT '',
    market      TEXT NOT NULL,
    odds        TEXT NOT NULL DEFAULT '',
    match_time  TIMESTAMPTZ,
    status      TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'WON', 'LOST', 'REFUND')),
    final_score TEXT,
    settled_at  TIMESTAMPTZ,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    approved_at TIMESTAMPTZ,
    CHECK ((status = 'PENDING') = (final_score IS NULL AND settled_at IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_predictions_pool_status ON predictions(pool, status);
CREATE INDEX IF NOT EXISTS idx_predictions_match ON predictions(match_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_predictions_training_key ON predictions(match_id, market) WHERE pool = 'training';

-- Resultados finais recebidos do feed
CREATE TABLE IF NOT EXISTS match_results (
    match_id   TEXT PRIMARY KEY,
    home_goals INT NOT NULL,
    away_goals INT NOT NULL,
    status     TEXT NOT NULL,
    final_at   TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Histórico de transições (auditoria)
CREATE TABLE IF NOT EXISTS prediction_transitions (
    id            BIGSERIAL PRIMARY KEY,
    prediction_id TEXT NOT NULL,
    old_status    TEXT NOT NULL,
    new_status    TEXT NOT NULL,
    reason        TEXT,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
