package repo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"foodscan/internal/domain"
)

const usageKeyPrefix = "analysis_usage:"

// UsageRepositoryRedis keeps one sorted set per user, scored by event time in
// unix milliseconds. Members older than the retention are trimmed on append.
type UsageRepositoryRedis struct {
	client    redis.UniversalClient
	retention time.Duration
}

// NewUsageRepositoryRedis builds the ledger. retention should be at least the
// quota window.
func NewUsageRepositoryRedis(client redis.UniversalClient, retention time.Duration) *UsageRepositoryRedis {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &UsageRepositoryRedis{client: client, retention: retention}
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func usageKey(userID string) string {
	return usageKeyPrefix + userID
}

func (r *UsageRepositoryRedis) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	n, err := r.client.ZCount(ctx, usageKey(userID), strconv.FormatInt(since.UnixMilli(), 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("count usage: %w", err)
	}
	return int(n), nil
}

func (r *UsageRepositoryRedis) Append(ctx context.Context, event domain.UsageEvent) error {
	event = normalizeEvent(event)
	key := usageKey(event.UserID)
	cutoff := event.CreatedAt.Add(-r.retention).UnixMilli()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(event.CreatedAt.UnixMilli()), Member: event.ID})
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
		pipe.Expire(ctx, key, r.retention)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append usage: %w", err)
	}
	return nil
}

var _ domain.UsageLedger = (*UsageRepositoryRedis)(nil)
