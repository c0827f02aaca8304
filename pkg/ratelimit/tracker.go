package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for usage tracking.
var (
	apiCallsToday = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "workshop_api_calls_today",
		Help: "Steam Web API calls recorded today for the active key",
	})

	usageWarningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workshop_api_usage_warnings_total",
		Help: "Calls made while usage was above a warning threshold",
	}, []string{"level"})
)

// Tracker counts API calls per key and UTC day.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
	limit  int64
	now    func() time.Time
}

// NewTracker creates a new usage tracker. A non-positive dailyLimit selects
// DefaultDailyLimit.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger, dailyLimit int64) *Tracker {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}
	return &Tracker{
		redis:  redisClient,
		logger: logger,
		limit:  dailyLimit,
		now:    time.Now,
	}
}

// GetState returns today's usage for apiKey.
func (t *Tracker) GetState(ctx context.Context, apiKey string) (*UsageState, error) {
	now := t.now()

	calls, err := t.redis.Get(ctx, redisKey(apiKey, now)).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get usage counter: %w", err)
	}

	return t.state(calls, now), nil
}

// Record counts one call for apiKey and returns the updated usage.
func (t *Tracker) Record(ctx context.Context, apiKey string) (*UsageState, error) {
	now := t.now()
	key := redisKey(apiKey, now)

	// Keep the counter an hour past midnight so late readers still see it.
	pipe := t.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireAt(ctx, key, nextReset(now).Add(time.Hour))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("record usage in redis: %w", err)
	}

	state := t.state(incr.Val(), now)
	apiCallsToday.Set(float64(state.Calls))

	switch {
	case state.IsCritical():
		usageWarningsTotal.WithLabelValues("critical").Inc()
		t.logger.Error().
			Int64("calls", state.Calls).
			Int64("remaining", state.Remaining()).
			Dur("reset_in", state.TimeUntilReset(now)).
			Msg("Steam API daily budget almost exhausted")
	case state.NeedsWarning():
		usageWarningsTotal.WithLabelValues("warning").Inc()
		t.logger.Warn().
			Int64("calls", state.Calls).
			Int64("remaining", state.Remaining()).
			Msg("Steam API daily budget running low")
	default:
		t.logger.Debug().Int64("calls", state.Calls).Msg("Steam API usage recorded")
	}

	return state, nil
}

func (t *Tracker) state(calls int64, now time.Time) *UsageState {
	return &UsageState{
		Calls:   calls,
		Limit:   t.limit,
		Day:     day(now),
		ResetAt: nextReset(now),
	}
}
