package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/tips-platform/internal/shared/winrate"
	"github.com/radieske/tips-platform/internal/tips-api/dto"
	"github.com/radieske/tips-platform/internal/tips-api/repo"
	"github.com/radieske/tips-platform/pkg/contracts/events"
	"github.com/radieske/tips-platform/pkg/contracts/prediction"
)

// GET /bets/approved
func (a *API) listApproved(w http.ResponseWriter, r *http.Request) {
	bets, err := a.Repo.List(r.Context(), repo.Query{Pool: repo.PoolApproved})
	if err != nil {
		a.internalError(w, "list approved", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BetsResponse{Success: true, Bets: bets})
}

// POST /bets/approve
func (a *API) approve(w http.ResponseWriter, r *http.Request) {
	var req dto.ApproveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	odds := ""
	if req.Odds != "" {
		// Validate já garantiu que a odd é decimal > 1
		odds, _ = dto.NormalizeOdds(req.Odds)
	}

	id, err := a.Repo.Approve(r.Context(), repo.NewPrediction{
		MatchID:   req.MatchID,
		HomeTeam:  req.HomeTeam,
		AwayTeam:  req.AwayTeam,
		League:    req.League,
		Market:    req.Market,
		Odds:      odds,
		MatchTime: req.MatchTime.Time,
	})
	if err != nil {
		a.internalError(w, "approve", err)
		return
	}

	a.Log.Info("prediction approved", zap.String("id", id), zap.String("match_id", req.MatchID), zap.String("market", req.Market))
	a.publish(r.Context(), events.Lifecycle{
		Type:     events.LifecycleApproved,
		Pool:     repo.PoolApproved,
		RecordID: id,
		MatchID:  req.MatchID,
		Status:   string(prediction.StatusPending),
	})
	writeJSON(w, http.StatusOK, dto.ApproveResponse{Success: true, ID: id})
}

// DELETE /bets/{id}
func (a *API) deleteBet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		a.internalError(w, "delete", err)
		return
	}

	a.publish(r.Context(), events.Lifecycle{
		Type:     events.LifecycleDeleted,
		Pool:     repo.PoolApproved,
		RecordID: id,
	})
	w.WriteHeader(http.StatusNoContent)
}

// POST /settlement/run
func (a *API) runSettlement(w http.ResponseWriter, r *http.Request) {
	n, err := a.Settler.Run(r.Context())
	if n > 0 {
		// uma execução que falhou no meio pode ter liquidado parte dos palpites
		a.invalidateStats(r.Context())
	}
	if err != nil {
		a.internalError(w, "settlement", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SettlementResponse{Success: true, Settled: n})
}

// GET /training/all
func (a *API) listTraining(w http.ResponseWriter, r *http.Request) {
	data, err := a.Repo.List(r.Context(), repo.Query{Pool: repo.PoolTraining})
	if err != nil {
		a.internalError(w, "list training", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.TrainingResponse{Success: true, Data: data})
}

// GET /training/stats, preferencialmente do cache
func (a *API) trainingStats(w http.ResponseWriter, r *http.Request) {
	if a.Stats != nil {
		if s, ok, err := a.Stats.Get(r.Context()); err == nil && ok {
			writeJSON(w, http.StatusOK, dto.StatsResponse{Success: true, Stats: s})
			return
		}
	}

	data, err := a.Repo.List(r.Context(), repo.Query{Pool: repo.PoolTraining})
	if err != nil {
		a.internalError(w, "training stats", err)
		return
	}
	s := winrate.Summarize(data)
	if a.Stats != nil {
		if err := a.Stats.Set(r.Context(), s); err != nil {
			a.Log.Warn("stats cache set failed", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, dto.StatsResponse{Success: true, Stats: s})
}

// GET /mobile/live-signals: aprovados ainda PENDING
func (a *API) liveSignals(w http.ResponseWriter, r *http.Request) {
	signals, err := a.Repo.List(r.Context(), repo.Query{Pool: repo.PoolApproved, Phase: repo.OnlyPending})
	if err != nil {
		a.internalError(w, "live signals", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SignalsResponse{Success: true, Signals: signals})
}

// GET /mobile/live-history: aprovados já liquidados
func (a *API) liveHistory(w http.ResponseWriter, r *http.Request) {
	history, err := a.Repo.List(r.Context(), repo.Query{Pool: repo.PoolApproved, Phase: repo.OnlySettled, Limit: 200})
	if err != nil {
		a.internalError(w, "live history", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.HistoryResponse{Success: true, History: history})
}
