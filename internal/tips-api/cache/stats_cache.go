package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/tips-platform/internal/shared/winrate"
)

const statsKey = "tips:training:stats"

// StatsCache guarda o resumo de GET /training/stats por um TTL curto
type StatsCache struct {
	R   *redis.Client
	TTL time.Duration
}

func NewStatsCache(r *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{R: r, TTL: ttl}
}

// Get devolve (resumo, true) em cache hit
func (c *StatsCache) Get(ctx context.Context) (winrate.Summary, bool, error) {
	var s winrate.Summary
	b, err := c.R.Get(ctx, statsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return s, false, nil
	}
	if err != nil {
		return s, false, err
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return s, false, err
	}
	return s, true, nil
}

func (c *StatsCache) Set(ctx context.Context, s winrate.Summary) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, statsKey, b, c.TTL).Err()
}

// Invalidate é chamado após liquidação e ingestão de candidatos
func (c *StatsCache) Invalidate(ctx context.Context) error {
	return c.R.Del(ctx, statsKey).Err()
}
