package sources

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"
)

// limited waits on a token bucket before every search.
type limited struct {
	Adapter
	limiter *rate.Limiter
}

// Limited throttles a to rps requests per second.
func Limited(a Adapter, rps float64) Adapter {
	if rps <= 0 {
		return a
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &limited{Adapter: a, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *limited) Search(ctx context.Context, query string) ([]Candidate, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.Adapter.Search(ctx, query)
}

// ResultCache is the subset of the search cache adapters use.
type ResultCache interface {
	Get(ctx context.Context, key string, v any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}

type cached struct {
	Adapter
	cache ResultCache
	log   *slog.Logger
}

// Cached serves repeated queries from cache. Cache failures are logged and
// bypassed. Results are stored even when the caller has gone away, so an
// abandoned scrape still warms the cache.
func Cached(a Adapter, c ResultCache, log *slog.Logger) Adapter {
	if c == nil {
		return a
	}
	if log == nil {
		log = slog.Default()
	}
	return &cached{Adapter: a, cache: c, log: log}
}

func cacheKey(adapter, query string) string {
	return "search:" + adapter + ":" + strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func (c *cached) Search(ctx context.Context, query string) ([]Candidate, error) {
	key := cacheKey(c.Name(), query)
	var hit []Candidate
	found, err := c.cache.Get(ctx, key, &hit)
	if err != nil {
		c.log.Warn("search cache read failed", "adapter", c.Name(), "error", err)
	}
	if found {
		c.log.Debug("search cache hit", "adapter", c.Name(), "query", query)
		return hit, nil
	}

	res, err := c.Adapter.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = []Candidate{}
	}
	if err := c.cache.Set(context.WithoutCancel(ctx), key, res); err != nil {
		c.log.Warn("search cache write failed", "adapter", c.Name(), "error", err)
	}
	return res, nil
}
