package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/tips-platform/internal/settlement"
	sharedcache "github.com/radieske/tips-platform/internal/shared/cache"
	"github.com/radieske/tips-platform/internal/shared/config"
	"github.com/radieske/tips-platform/internal/shared/db"
	"github.com/radieske/tips-platform/internal/shared/kafka"
	"github.com/radieske/tips-platform/internal/shared/logger"
	"github.com/radieske/tips-platform/internal/shared/metrics"
	"github.com/radieske/tips-platform/internal/shared/pubsub"
	"github.com/radieske/tips-platform/internal/tips-api/auth"
	"github.com/radieske/tips-platform/internal/tips-api/cache"
	httpapi "github.com/radieske/tips-platform/internal/tips-api/http"
	"github.com/radieske/tips-platform/internal/tips-api/producer"
	"github.com/radieske/tips-platform/internal/tips-api/repo"
	"github.com/radieske/tips-platform/internal/tips-api/ws"
	"github.com/radieske/tips-platform/pkg/contracts/prediction"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "tips-api"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Postgres
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.CreateSchema(ctx, pg); err != nil {
		log.Fatal("schema", zap.Error(err))
	}

	// Redis: cache de stats + pub/sub de avisos
	rdb, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer (topic bet_lifecycle)
	writer := kafka.NewWriter(cfg.Brokers(), cfg.TopicBetLifecycle)
	defer writer.Close()

	repository := repo.NewPostgres(pg)
	stats := cache.NewStatsCache(rdb, cfg.StatsCacheTTL)
	events := pubsub.Fanout{
		producer.NewKafkaPublisher(writer),
		pubsub.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel),
	}

	// métricas
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "tips_api_requests_total", Help: "requisições por rota e status"}, []string{"route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "tips_api_request_seconds", Help: "latência por rota", Buckets: prometheus.DefBuckets}, []string{"route"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "tips_api_settled_total", Help: "palpites liquidados via API por status"}, []string{"status"})
	prometheus.MustRegister(requests, latency, settled)

	settler := settlement.NewService(repository, events, log)
	settler.OnSettled = func(st prediction.Status) { settled.WithLabelValues(string(st)).Inc() }

	hub := ws.NewHub(func(r *http.Request) bool { return true }, log)
	ws.StartRedisSubscriber(ctx, rdb, cfg.RedisPubSubChannel, hub, log)
	wsClients := prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: "tips_api_ws_subscribers", Help: "assinantes do pool aprovado"}, func() float64 {
		return float64(hub.Subscribers(repo.PoolApproved))
	})
	prometheus.MustRegister(wsClients)

	api := &httpapi.API{
		Log:     log,
		Repo:    repository,
		Settler: settler,
		Stats:   stats,
		Events:  events,
		Auth:    auth.Middleware(cfg.JWTSecret, log),
		WS:      hub.HandleWS,
		OnRequest: func(route string, status int, took time.Duration) {
			requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
			latency.WithLabelValues(route).Observe(took.Seconds())
		},
	}

	// metrics/health
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, map[string]metrics.HealthFunc{
		"postgres": pg.PingContext,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}, func(err error) { log.Error("metrics server failed", zap.Error(err)) })

	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = apiSrv.Shutdown(sctx)
		_ = msrv.Shutdown(sctx)
	}()

	log.Info("tips-api listening", zap.String("addr", apiSrv.Addr), zap.Bool("auth", cfg.JWTSecret != ""))
	if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("api", zap.Error(err))
	}
	log.Info("tips-api stopped")
}
