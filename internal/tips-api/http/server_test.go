package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/tips-platform/internal/shared/winrate"
	"github.com/radieske/tips-platform/internal/tips-api/repo"
	"github.com/radieske/tips-platform/pkg/contracts/events"
	"github.com/radieske/tips-platform/pkg/contracts/prediction"
)

type fakeRepo struct {
	mu       sync.Mutex
	records  map[string][]prediction.Record // pool -> registros
	approved []repo.NewPrediction
	listErr  error
	lists    int
}

func (f *fakeRepo) List(ctx context.Context, q repo.Query) ([]prediction.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []prediction.Record{}
	for _, r := range f.records[q.Pool] {
		switch {
		case q.Phase == repo.OnlyPending && r.IsSettled():
			continue
		case q.Phase == repo.OnlySettled && !r.IsSettled():
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRepo) Approve(ctx context.Context, n repo.NewPrediction) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approved = append(f.approved, n)
	return "new-id", nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs := f.records[repo.PoolApproved]
	for i, r := range recs {
		if r.ID == id {
			f.records[repo.PoolApproved] = append(recs[:i], recs[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

type fakeSettler struct {
	n   int
	err error
}

func (f fakeSettler) Run(ctx context.Context) (int, error) { return f.n, f.err }

type memStats struct {
	s           *winrate.Summary
	invalidated int
}

func (m *memStats) Get(ctx context.Context) (winrate.Summary, bool, error) {
	if m.s == nil {
		return winrate.Summary{}, false, nil
	}
	return *m.s, true, nil
}

func (m *memStats) Set(ctx context.Context, s winrate.Summary) error { m.s = &s; return nil }

func (m *memStats) Invalidate(ctx context.Context) error { m.s = nil; m.invalidated++; return nil }

type capture struct {
	mu  sync.Mutex
	evs []events.Lifecycle
}

func (c *capture) Publish(ctx context.Context, ev events.Lifecycle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evs = append(c.evs, ev)
	return nil
}

var created = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func won(id string) prediction.Record {
	ph, _ := prediction.NewSettled(prediction.StatusWon, "2-1", created.Add(3*time.Hour))
	return prediction.Record{ID: id, MatchID: "m-" + id, HomeTeam: "A", AwayTeam: "B", Market: "Over 2.5", CreatedAt: created, Phase: ph}
}

func lost(id string) prediction.Record {
	ph, _ := prediction.NewSettled(prediction.StatusLost, "0-0", created.Add(3*time.Hour))
	return prediction.Record{ID: id, MatchID: "m-" + id, HomeTeam: "A", AwayTeam: "B", Market: "Over 2.5", CreatedAt: created, Phase: ph}
}

func open(id string) prediction.Record {
	return prediction.Record{ID: id, MatchID: "m-" + id, HomeTeam: "A", AwayTeam: "B", Market: "Draw", CreatedAt: created, Phase: prediction.Pending{}}
}

func newAPI() (*API, *fakeRepo, *capture) {
	r := &fakeRepo{records: map[string][]prediction.Record{
		repo.PoolApproved: {won("a1"), open("a2")},
		repo.PoolTraining: {won("t1"), lost("t2"), won("t3"), open("t4")},
	}}
	c := &capture{}
	return &API{Log: zap.NewNop(), Repo: r, Settler: fakeSettler{n: 3}, Events: c}, r, c
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListApproved(t *testing.T) {
	api, _, _ := newAPI()
	rec := do(t, api.Router(), http.MethodGet, "/bets/approved", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Success bool                `json:"success"`
		Bets    []prediction.Record `json:"bets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Success || len(body.Bets) != 2 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if body.Bets[0].Status() != prediction.StatusWon {
		t.Errorf("expected first bet WON, got %s", body.Bets[0].Status())
	}
}

func TestMobileSurfacesSplitByPhase(t *testing.T) {
	api, _, _ := newAPI()
	h := api.Router()

	var signals struct {
		Signals []prediction.Record `json:"signals"`
	}
	_ = json.Unmarshal(do(t, h, http.MethodGet, "/mobile/live-signals", "").Body.Bytes(), &signals)
	if len(signals.Signals) != 1 || signals.Signals[0].ID != "a2" {
		t.Errorf("expected only the pending approved record, got %+v", signals.Signals)
	}

	var history struct {
		History []prediction.Record `json:"history"`
	}
	_ = json.Unmarshal(do(t, h, http.MethodGet, "/mobile/live-history", "").Body.Bytes(), &history)
	if len(history.History) != 1 || history.History[0].ID != "a1" {
		t.Errorf("expected only the settled approved record, got %+v", history.History)
	}
}

func TestApproveValidatesAndNormalizesOdds(t *testing.T) {
	api, r, c := newAPI()
	h := api.Router()

	body := `{"matchId":"m9","homeTeam":"Home","awayTeam":"Away","league":"L","market":"Over 2.5","odds":"1.850","matchTime":1717236000000}`
	rec := do(t, h, http.MethodPost, "/bets/approve", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	if len(r.approved) != 1 || r.approved[0].Odds != "1.85" {
		t.Fatalf("expected normalized odds, got %+v", r.approved)
	}
	if r.approved[0].MatchTime.IsZero() {
		t.Error("expected matchTime decoded from epoch ms")
	}
	if len(c.evs) != 1 || c.evs[0].Type != events.LifecycleApproved || c.evs[0].RecordID != "new-id" {
		t.Errorf("expected approved event, got %+v", c.evs)
	}
}

func TestApproveRejectsInvalidPayload(t *testing.T) {
	api, r, _ := newAPI()
	h := api.Router()

	for name, body := range map[string]string{
		"bad json":       `{`,
		"missing match":  `{"homeTeam":"H","awayTeam":"A","market":"Draw"}`,
		"odds not >1":    `{"matchId":"m","homeTeam":"H","awayTeam":"A","market":"Draw","odds":"1.00"}`,
		"odds not a num": `{"matchId":"m","homeTeam":"H","awayTeam":"A","market":"Draw","odds":"abc"}`,
	} {
		rec := do(t, h, http.MethodPost, "/bets/approve", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, rec.Code)
		}
		var e struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &e)
		if e.Success || e.Error == "" {
			t.Errorf("%s: expected error envelope, got %s", name, rec.Body.String())
		}
	}
	if len(r.approved) != 0 {
		t.Fatalf("nothing should be persisted, got %+v", r.approved)
	}
}

func TestApproveWithoutOdds(t *testing.T) {
	api, r, _ := newAPI()
	rec := do(t, api.Router(), http.MethodPost, "/bets/approve", `{"matchId":"m","homeTeam":"H","awayTeam":"A","market":"Draw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if r.approved[0].Odds != "" {
		t.Errorf("expected empty odds, got %q", r.approved[0].Odds)
	}
}

func TestDeleteBet(t *testing.T) {
	api, r, c := newAPI()
	h := api.Router()

	rec := do(t, h, http.MethodDelete, "/bets/a1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(r.records[repo.PoolApproved]) != 1 {
		t.Fatalf("expected record removed")
	}
	if len(c.evs) != 1 || c.evs[0].Type != events.LifecycleDeleted {
		t.Errorf("expected deleted event, got %+v", c.evs)
	}

	if rec := do(t, h, http.MethodDelete, "/bets/a1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestRunSettlementInvalidatesStats(t *testing.T) {
	api, _, _ := newAPI()
	stats := &memStats{s: &winrate.Summary{Total: 1}}
	api.Stats = stats

	rec := do(t, api.Router(), http.MethodPost, "/settlement/run", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Success bool `json:"success"`
		Settled int  `json:"settled"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if !body.Success || body.Settled != 3 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if stats.invalidated != 1 {
		t.Errorf("expected stats invalidated once, got %d", stats.invalidated)
	}
}

func TestRunSettlementFailure(t *testing.T) {
	api, _, _ := newAPI()
	api.Settler = fakeSettler{err: errors.New("db down")}
	rec := do(t, api.Router(), http.MethodPost, "/settlement/run", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Errorf("expected error envelope, got %s", rec.Body.String())
	}
}

func TestRunSettlementPartialFailureInvalidatesStats(t *testing.T) {
	api, _, _ := newAPI()
	api.Settler = fakeSettler{n: 2, err: errors.New("settle x: connection reset")}
	stats := &memStats{s: &winrate.Summary{Total: 1}}
	api.Stats = stats

	rec := do(t, api.Router(), http.MethodPost, "/settlement/run", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if stats.invalidated != 1 || stats.s != nil {
		t.Fatalf("records settled before the failure must invalidate stats, got %d", stats.invalidated)
	}
}

func TestTrainingStatsUsesCache(t *testing.T) {
	api, r, _ := newAPI()
	api.Stats = &memStats{}
	h := api.Router()

	for i := 0; i < 2; i++ {
		rec := do(t, h, http.MethodGet, "/training/stats", "")
		var body struct {
			Success bool            `json:"success"`
			Stats   winrate.Summary `json:"stats"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		if body.Stats.Total != 4 || body.Stats.Won != 2 || body.Stats.Lost != 1 || body.Stats.WinRate != 67 {
			t.Fatalf("unexpected stats %+v", body.Stats)
		}
	}
	if r.lists != 1 {
		t.Errorf("expected the second call served from cache, repo listed %d times", r.lists)
	}
}

func TestListTrainingError(t *testing.T) {
	api, r, _ := newAPI()
	r.listErr = errors.New("boom")
	rec := do(t, api.Router(), http.MethodGet, "/training/all", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestAuthAppliedToRoutes(t *testing.T) {
	api, _, _ := newAPI()
	api.Auth = func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	if rec := do(t, api.Router(), http.MethodGet, "/training/all", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
