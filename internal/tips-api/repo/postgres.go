package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/radieske/tips-platform/internal/settlement"
	"github.com/radieske/tips-platform/pkg/contracts/events"
	"github.com/radieske/tips-platform/pkg/contracts/prediction"
)

// ErrNotFound indica que o palpite não existe no pool
var ErrNotFound = errors.New("prediction not found")

const (
	PoolApproved = "approved"
	PoolTraining = "training"
)

// Filtro por fase
type Phase int

const (
	AnyPhase Phase = iota
	OnlyPending
	OnlySettled
)

// Query seleciona palpites de um pool
type Query struct {
	Pool  string
	Phase Phase
	Limit int // 0 = sem limite
}

// NewPrediction são os dados de um palpite a ser criado
type NewPrediction struct {
	MatchID   string
	HomeTeam  string
	AwayTeam  string
	League    string
	Market    string
	Odds      string
	MatchTime time.Time
}

// Postgres implementa a persistência de palpites e resultados de partidas
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const selectColumns = `id, match_id, home_team, away_team, league, market, odds,
	match_time, status, final_score, settled_at, created_at, approved_at`

// List devolve os palpites do pool, mais recentes primeiro
func (p *Postgres) List(ctx context.Context, q Query) ([]prediction.Record, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + selectColumns + ` FROM predictions WHERE pool=$1`)
	switch q.Phase {
	case OnlyPending:
		sb.WriteString(` AND status='PENDING'`)
	case OnlySettled:
		sb.WriteString(` AND status<>'PENDING'`)
	}
	sb.WriteString(` ORDER BY created_at DESC, id`)
	args := []any{q.Pool}
	if q.Limit > 0 {
		sb.WriteString(` LIMIT $2`)
		args = append(args, q.Limit)
	}

	rows, err := p.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []prediction.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Approve cria um palpite PENDING no pool aprovado e devolve o id gerado
func (p *Postgres) Approve(ctx context.Context, n NewPrediction) (string, error) {
	id := uuid.NewString()
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO predictions (id,pool,match_id,home_team,away_team,league,market,odds,match_time,status,approved_at)
		VALUES ($1,'approved',$2,$3,$4,$5,$6,$7,$8,'PENDING',NOW())`,
		id, n.MatchID, n.HomeTeam, n.AwayTeam, n.League, n.Market, n.Odds, nullTime(n.MatchTime),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// InsertTraining registra um candidato no pool de treino; repetido (partida+mercado) é ignorado
func (p *Postgres) InsertTraining(ctx context.Context, n NewPrediction) (string, bool, error) {
	id := uuid.NewString()
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO predictions (id,pool,match_id,home_team,away_team,league,market,odds,match_time,status)
		VALUES ($1,'training',$2,$3,$4,$5,$6,$7,$8,'PENDING')
		ON CONFLICT (match_id, market) WHERE pool = 'training' DO NOTHING`,
		id, n.MatchID, n.HomeTeam, n.AwayTeam, n.League, n.Market, n.Odds, nullTime(n.MatchTime),
	)
	if err != nil {
		return "", false, err
	}
	n2, _ := res.RowsAffected()
	return id, n2 == 1, nil
}

// Delete remove um palpite aprovado
func (p *Postgres) Delete(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM predictions WHERE id=$1 AND pool='approved'`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertResult grava o placar final (reenvio do feed sobrescreve)
func (p *Postgres) UpsertResult(ctx context.Context, ev events.MatchResult) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO match_results (match_id,home_goals,away_goals,status,final_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,NOW())
		ON CONFLICT (match_id) DO UPDATE
		SET home_goals=EXCLUDED.home_goals,
		    away_goals=EXCLUDED.away_goals,
		    status=EXCLUDED.status,
		    final_at=EXCLUDED.final_at,
		    updated_at=NOW()`,
		ev.MatchID, ev.HomeGoals, ev.AwayGoals, ev.Status, ev.FinalAt,
	)
	return err
}

// ListPending implementa settlement.Store
func (p *Postgres) ListPending(ctx context.Context) ([]settlement.PendingBet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, pool, match_id, market FROM predictions
		WHERE status='PENDING' ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []settlement.PendingBet
	for rows.Next() {
		var b settlement.PendingBet
		if err := rows.Scan(&b.ID, &b.Pool, &b.MatchID, &b.Market); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ResultsFor implementa settlement.Store
func (p *Postgres) ResultsFor(ctx context.Context, matchIDs []string) (map[string]settlement.Result, error) {
	out := make(map[string]settlement.Result, len(matchIDs))
	if len(matchIDs) == 0 {
		return out, nil
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT match_id, home_goals, away_goals, status FROM match_results
		WHERE match_id = ANY($1)`, pq.Array(matchIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var r settlement.Result
		if err := rows.Scan(&r.MatchID, &r.HomeGoals, &r.AwayGoals, &r.Status); err != nil {
			return nil, err
		}
		out[r.MatchID] = r
	}
	return out, rows.Err()
}

// Settle implementa settlement.Store: transição PENDING -> terminal + auditoria na mesma transação
func (p *Postgres) Settle(ctx context.Context, id string, s prediction.Settled) (bool, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE predictions SET status=$2, final_score=$3, settled_at=$4
		WHERE id=$1 AND status='PENDING'`,
		id, string(s.Result), s.FinalScore, s.SettledAt,
	)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO prediction_transitions (prediction_id,old_status,new_status,reason)
		VALUES ($1,'PENDING',$2,$3)`,
		id, string(s.Result), "final score "+s.FinalScore,
	); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (prediction.Record, error) {
	var (
		r          prediction.Record
		status     string
		matchTime  sql.NullTime
		finalScore sql.NullString
		settledAt  sql.NullTime
		approvedAt sql.NullTime
	)
	if err := s.Scan(&r.ID, &r.MatchID, &r.HomeTeam, &r.AwayTeam, &r.League, &r.Market, &r.Odds,
		&matchTime, &status, &finalScore, &settledAt, &r.CreatedAt, &approvedAt); err != nil {
		return prediction.Record{}, err
	}

	st, err := prediction.ParseStatus(status)
	if err != nil {
		return prediction.Record{}, fmt.Errorf("prediction %s: %w", r.ID, err)
	}
	r.Phase = prediction.Pending{}
	if st.Terminal() {
		ph, err := prediction.NewSettled(st, finalScore.String, settledAt.Time)
		if err != nil {
			return prediction.Record{}, fmt.Errorf("prediction %s: %w", r.ID, err)
		}
		r.Phase = ph
	}
	if matchTime.Valid {
		r.MatchTime = matchTime.Time.UTC()
	}
	if approvedAt.Valid {
		r.ApprovedAt = approvedAt.Time.UTC()
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
