package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/tips-platform/internal/settlement"
	"github.com/radieske/tips-platform/internal/settlement-worker/consumer"
	sharedcache "github.com/radieske/tips-platform/internal/shared/cache"
	"github.com/radieske/tips-platform/internal/shared/config"
	"github.com/radieske/tips-platform/internal/shared/db"
	"github.com/radieske/tips-platform/internal/shared/kafka"
	"github.com/radieske/tips-platform/internal/shared/logger"
	"github.com/radieske/tips-platform/internal/shared/metrics"
	"github.com/radieske/tips-platform/internal/shared/pubsub"
	"github.com/radieske/tips-platform/internal/tips-api/cache"
	"github.com/radieske/tips-platform/internal/tips-api/producer"
	"github.com/radieske/tips-platform/internal/tips-api/repo"
	"github.com/radieske/tips-platform/pkg/contracts/events"
	"github.com/radieske/tips-platform/pkg/contracts/prediction"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "settlement-worker"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.CreateSchema(ctx, pg); err != nil {
		log.Fatal("schema", zap.Error(err))
	}

	rdb, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	brokers := cfg.Brokers()
	for _, topic := range []string{cfg.TopicMatchResults, cfg.TopicAnalysisCandidates, cfg.TopicBetLifecycle, cfg.TopicMatchResultsDLQ} {
		tctx, tcancel := context.WithTimeout(ctx, 5*time.Second)
		if err := kafka.EnsureTopic(tctx, brokers[0], topic); err != nil {
			log.Warn("ensure topic failed", zap.String("topic", topic), zap.Error(err))
		}
		tcancel()
	}

	resultsReader := kafka.NewReader(brokers, cfg.TopicMatchResults, "settlement-worker-results")
	defer resultsReader.Close()
	candidatesReader := kafka.NewReader(brokers, cfg.TopicAnalysisCandidates, "settlement-worker-candidates")
	defer candidatesReader.Close()
	dlq := kafka.NewWriter(brokers, cfg.TopicMatchResultsDLQ)
	defer dlq.Close()
	lifecycle := kafka.NewWriter(brokers, cfg.TopicBetLifecycle)
	defer lifecycle.Close()

	repository := repo.NewPostgres(pg)
	stats := cache.NewStatsCache(rdb, cfg.StatsCacheTTL)
	publisher := pubsub.Fanout{
		producer.NewKafkaPublisher(lifecycle),
		pubsub.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel),
	}

	// Métricas Prometheus por estágio
	consumed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_worker_messages_consumed_total", Help: "mensagens consumidas"}, []string{"topic"})
	persisted := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_worker_db_writes_total", Help: "escritas no banco"}, []string{"topic"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_worker_errors_total", Help: "erros por estágio"}, []string{"topic", "stage"})
	settledBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_worker_settled_total", Help: "palpites liquidados por status"}, []string{"status"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_worker_skipped_total", Help: "palpites não liquidados por motivo"}, []string{"reason"})
	runSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "settlement_worker_run_seconds", Help: "duração de cada execução", Buckets: prometheus.DefBuckets})
	prometheus.MustRegister(consumed, persisted, errorsBy, settledBy, skipped, runSeconds)

	hooks := func(topic string) consumer.Hooks {
		return consumer.Hooks{
			OnConsumed: func() { consumed.WithLabelValues(topic).Inc() },
			OnPersist:  func() { persisted.WithLabelValues(topic).Inc() },
			OnError:    func(stage string) { errorsBy.WithLabelValues(topic, stage).Inc() },
		}
	}

	svc := settlement.NewService(repository, publisher, log)
	svc.OnSettled = func(st prediction.Status) { settledBy.WithLabelValues(string(st)).Inc() }
	svc.OnSkipped = func(reason string) { skipped.WithLabelValues(reason).Inc() }
	svc.OnAfterRun = func(n int, took time.Duration) {
		runSeconds.Observe(took.Seconds())
		if n == 0 {
			return
		}
		ictx, icancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer icancel()
		if err := stats.Invalidate(ictx); err != nil {
			log.Warn("stats cache invalidate failed", zap.Error(err))
		}
	}

	// resultado novo acorda a liquidação sem esperar o ticker
	wake := make(chan struct{}, 1)

	results := &consumer.ResultsProcessor{
		Log:    log.With(zap.String("topic", cfg.TopicMatchResults)),
		Reader: resultsReader,
		Store:  repository,
		DLQ:    dlq,
		Hooks:  hooks(cfg.TopicMatchResults),
		OnAfterPersist: func(events.MatchResult) {
			select {
			case wake <- struct{}{}:
			default:
			}
		},
	}

	candidates := &consumer.CandidatesProcessor{
		Log:    log.With(zap.String("topic", cfg.TopicAnalysisCandidates)),
		Reader: candidatesReader,
		Store:  repository,
		Hooks:  hooks(cfg.TopicAnalysisCandidates),
		OnIngested: func(id string, ev events.CandidateProduced) {
			pctx, pcancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer pcancel()
			_ = stats.Invalidate(pctx)
			if err := publisher.Publish(pctx, events.Lifecycle{
				Type:     events.LifecycleIngested,
				Pool:     repo.PoolTraining,
				RecordID: id,
				MatchID:  ev.Candidate.MatchID,
				Status:   string(prediction.StatusPending),
				Ts:       time.Now().UTC(),
			}); err != nil {
				log.Warn("ingest notice failed", zap.Error(err))
			}
		},
	}

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, map[string]metrics.HealthFunc{
		"postgres": pg.PingContext,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}, func(err error) { log.Error("metrics server failed", zap.Error(err)) })
	defer msrv.Close()

	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				log.Error(name+" stopped with error", zap.Error(err))
				cancel()
			}
		}()
	}
	run("results consumer", results.Run)
	run("candidates consumer", candidates.Run)

	log.Info("settlement-worker started", zap.Duration("interval", cfg.SettlementInterval))

	ticker := time.NewTicker(cfg.SettlementInterval)
	defer ticker.Stop()
	settle := func() {
		if _, err := svc.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("settlement run failed", zap.Error(err))
		}
	}
	settle()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			settle()
		case <-wake:
			settle()
		}
	}

	wg.Wait()
	log.Info("settlement-worker stopped")
}
