package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/finance-tracker/internal/domain"
)

const (
	defaultSummaryTTL = 10 * time.Minute
	minGenerationTTL  = 24 * time.Hour
)

// ErrStaleSummary is returned by Set when the month was invalidated after the
// summary was computed.
var ErrStaleSummary = errors.New("summary cache: stale summary")

// SummaryCache stores monthly summaries in Redis keyed by user and month.
//
// Each month also carries a generation counter. Invalidate bumps it, and Set
// only writes when the counter still matches the one Get observed, so a
// summary computed before a concurrent write is never stored.
type SummaryCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	genTTL time.Duration
}

// NewSummaryCache builds a cache. A non-positive ttl uses ten minutes.
func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = defaultSummaryTTL
	}
	genTTL := minGenerationTTL
	if ttl > genTTL {
		genTTL = ttl
	}
	return &SummaryCache{client: client, prefix: "finance:summary:", ttl: ttl, genTTL: genTTL}
}

func (c *SummaryCache) key(userID, monthYear string) string {
	return c.prefix + userID + ":" + monthYear
}

func (c *SummaryCache) generationKey(userID, monthYear string) string {
	return c.prefix + "gen:" + userID + ":" + monthYear
}

// Get returns the cached summary and the month's current generation; found is
// false on a miss. Pass the generation back to Set.
func (c *SummaryCache) Get(ctx context.Context, userID, monthYear string) (summary domain.MonthlySummary, generation int64, found bool, err error) {
	values, err := c.client.MGet(ctx, c.key(userID, monthYear), c.generationKey(userID, monthYear)).Result()
	if err != nil {
		return domain.MonthlySummary{}, 0, false, fmt.Errorf("summary cache: get: %w", err)
	}

	if raw, ok := values[1].(string); ok {
		generation, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.MonthlySummary{}, 0, false, fmt.Errorf("summary cache: generation: %w", err)
		}
	}

	raw, ok := values[0].(string)
	if !ok {
		return domain.MonthlySummary{}, generation, false, nil
	}
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return domain.MonthlySummary{}, generation, false, fmt.Errorf("summary cache: decode: %w", err)
	}
	return summary, generation, true, nil
}

// Set stores summary until the TTL elapses or the month is invalidated.
// It returns ErrStaleSummary when the month's generation moved past generation.
func (c *SummaryCache) Set(ctx context.Context, userID string, summary domain.MonthlySummary, generation int64) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("summary cache: encode: %w", err)
	}

	key := c.key(userID, summary.MonthYear)
	genKey := c.generationKey(userID, summary.MonthYear)

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return ErrStaleSummary
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStaleSummary), errors.Is(err, redis.TxFailedErr):
		return ErrStaleSummary
	default:
		return fmt.Errorf("summary cache: set: %w", err)
	}
}

// Invalidate drops the cached summary of one month and bumps its generation.
func (c *SummaryCache) Invalidate(ctx context.Context, userID, monthYear string) error {
	genKey := c.generationKey(userID, monthYear)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, c.genTTL)
		pipe.Del(ctx, c.key(userID, monthYear))
		return nil
	})
	if err != nil {
		return fmt.Errorf("summary cache: invalidate: %w", err)
	}
	return nil
}
