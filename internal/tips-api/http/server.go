package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/tips-platform/internal/shared/pubsub"
	"github.com/radieske/tips-platform/internal/shared/winrate"
	"github.com/radieske/tips-platform/internal/tips-api/dto"
	"github.com/radieske/tips-platform/internal/tips-api/repo"
	"github.com/radieske/tips-platform/pkg/contracts/events"
	"github.com/radieske/tips-platform/pkg/contracts/prediction"
)

// Repo é a persistência usada pelos handlers
type Repo interface {
	List(ctx context.Context, q repo.Query) ([]prediction.Record, error)
	Approve(ctx context.Context, n repo.NewPrediction) (string, error)
	Delete(ctx context.Context, id string) error
}

// Settler dispara a liquidação
type Settler interface {
	Run(ctx context.Context) (int, error)
}

// StatsCache guarda o resumo do pool de treino
type StatsCache interface {
	Get(ctx context.Context) (winrate.Summary, bool, error)
	Set(ctx context.Context, s winrate.Summary) error
	Invalidate(ctx context.Context) error
}

const maxBodyBytes = 64 << 10

// API expõe os endpoints REST de palpites
type API struct {
	Log     *zap.Logger
	Repo    Repo
	Settler Settler
	Stats   StatsCache       // opcional
	Events  pubsub.Publisher // opcional
	Auth    func(http.Handler) http.Handler
	WS      http.HandlerFunc // opcional; GET /mobile/ws

	// OnRequest recebe rota, status e duração (métricas)
	OnRequest func(route string, status int, took time.Duration)
}

// Router monta as rotas; /mobile/ws fica fora do middleware de auth
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.observe)

	if a.WS != nil {
		r.Get("/mobile/ws", a.WS)
	}

	r.Group(func(r chi.Router) {
		if a.Auth != nil {
			r.Use(a.Auth)
		}
		r.Get("/bets/approved", a.listApproved)
		r.Post("/bets/approve", a.approve)
		r.Delete("/bets/{id}", a.deleteBet)
		r.Post("/settlement/run", a.runSettlement)
		r.Get("/training/all", a.listTraining)
		r.Get("/training/stats", a.trainingStats)
		r.Get("/mobile/live-signals", a.liveSignals)
		r.Get("/mobile/live-history", a.liveHistory)
	})
	return r
}

func (a *API) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		a.Log.Debug("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
		if a.OnRequest != nil {
			a.OnRequest(route, status, time.Since(start))
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Success: false, Error: msg})
}

func (a *API) internalError(w http.ResponseWriter, op string, err error) {
	a.Log.Error(op+" failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, op+" failed")
}

func (a *API) publish(ctx context.Context, ev events.Lifecycle) {
	if a.Events == nil {
		return
	}
	ev.Ts = time.Now().UTC()
	if err := a.Events.Publish(ctx, ev); err != nil {
		a.Log.Warn("lifecycle publish failed", zap.String("type", ev.Type), zap.Error(err))
	}
}

func (a *API) invalidateStats(ctx context.Context) {
	if a.Stats == nil {
		return
	}
	if err := a.Stats.Invalidate(ctx); err != nil {
		a.Log.Warn("stats cache invalidate failed", zap.Error(err))
	}
}
