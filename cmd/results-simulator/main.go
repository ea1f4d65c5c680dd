package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/tips-platform/internal/results-simulator/feed"
	"github.com/radieske/tips-platform/internal/shared/config"
	"github.com/radieske/tips-platform/internal/shared/kafka"
	"github.com/radieske/tips-platform/internal/shared/logger"
	"github.com/radieske/tips-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "results-simulator"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	interval := 30 * time.Second
	if v := os.Getenv("SIM_ROUND_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			interval = d
		}
	}
	seed := time.Now().UnixNano()
	if v := os.Getenv("SIM_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			seed = n
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	brokers := cfg.Brokers()
	candidatesW := kafka.NewWriter(brokers, cfg.TopicAnalysisCandidates)
	defer candidatesW.Close()
	resultsW := kafka.NewWriter(brokers, cfg.TopicMatchResults)
	defer resultsW.Close()

	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "results_sim_messages_published_total",
		Help: "mensagens publicadas por tópico",
	}, []string{"topic"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "results_sim_publish_errors_total",
		Help: "falhas de publicação por tópico",
	}, []string{"topic"})
	prometheus.MustRegister(published, failures)

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, nil, func(err error) {
		log.Error("metrics server failed", zap.Error(err))
	})
	defer msrv.Close()

	f := feed.New(seed, cfg.ServiceName, time.Now)
	round := func() {
		cands, results := f.NextRound()
		for _, r := range results {
			if err := kafka.WriteJSON(ctx, resultsW, r.MatchID, r); err != nil {
				log.Warn("publish result failed", zap.String("match_id", r.MatchID), zap.Error(err))
				failures.WithLabelValues(cfg.TopicMatchResults).Inc()
				continue
			}
			published.WithLabelValues(cfg.TopicMatchResults).Inc()
		}
		for _, c := range cands {
			if err := kafka.WriteJSON(ctx, candidatesW, c.Candidate.MatchID, c); err != nil {
				log.Warn("publish candidate failed", zap.String("match_id", c.Candidate.MatchID), zap.Error(err))
				failures.WithLabelValues(cfg.TopicAnalysisCandidates).Inc()
				continue
			}
			published.WithLabelValues(cfg.TopicAnalysisCandidates).Inc()
		}
		log.Info("round published", zap.Int("candidates", len(cands)), zap.Int("results", len(results)))
	}

	log.Info("results simulator running", zap.Duration("interval", interval), zap.Int64("seed", seed))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	round()
	for {
		select {
		case <-ctx.Done():
			log.Info("results simulator stopped")
			return
		case <-ticker.C:
			round()
		}
	}
}
