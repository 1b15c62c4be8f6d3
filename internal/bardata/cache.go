package bardata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"alpharai/internal/bars"
	"alpharai/internal/interfaces"
)

// CachedSource caches serialized bar slices in Redis in front of another
// source. Cache failures fall through to the inner source.
type CachedSource struct {
	inner  interfaces.BarSource
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

var _ interfaces.BarSource = (*CachedSource)(nil)

func NewCachedSource(inner interfaces.BarSource, client *redis.Client, ttl time.Duration, log *slog.Logger) *CachedSource {
	return &CachedSource{inner: inner, client: client, ttl: ttl, log: log}
}

func (c *CachedSource) RecentBars(ctx context.Context, symbol string, timeframeMinutes, n int) (*bars.Frame, error) {
	key := cacheKey(symbol, timeframeMinutes, n)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var series []bars.Bar
		if err := json.Unmarshal(raw, &series); err == nil {
			if frame, err := bars.New(series); err == nil {
				c.log.DebugContext(ctx, "bar cache hit", "key", key, "rows", len(series))
				return frame, nil
			}
		}
		// A corrupt entry is dropped and refetched.
		c.client.Del(ctx, key)
	}

	frame, err := c.inner.RecentBars(ctx, symbol, timeframeMinutes, n)
	if err != nil {
		return nil, err
	}

	series := make([]bars.Bar, frame.Len())
	for i := range series {
		series[i] = frame.Bar(i)
	}
	if raw, err := json.Marshal(series); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.log.WarnContext(ctx, "bar cache write failed", "key", key, "error", err)
		}
	}
	return frame, nil
}

func cacheKey(symbol string, timeframeMinutes, n int) string {
	return fmt.Sprintf("bars:%s:%d:%d", symbol, timeframeMinutes, n)
}
