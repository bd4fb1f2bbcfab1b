package extract

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"pricewatch/internal/core"
)

const extractCacheKey = "pricewatch:extract:v1"

// CachedLoader decorates a core.Loader with a get-or-compute cache. Cache
// errors never fail a load; the loader falls through to the source and logs
// the problem.
type CachedLoader struct {
	inner core.Loader
	cache Cache
	ttl   time.Duration
	log   *logrus.Logger
}

func NewCachedLoader(inner core.Loader, cache Cache, ttl time.Duration, log *logrus.Logger) *CachedLoader {
	return &CachedLoader{inner: inner, cache: cache, ttl: ttl, log: log}
}

func (c *CachedLoader) Load(ctx context.Context) ([]core.InvoiceLine, error) {
	lines, ok, err := c.cache.Get(ctx, extractCacheKey)
	if err != nil {
		c.log.WithError(err).Warn("extract cache read failed, loading from source")
	}
	if ok {
		c.log.WithField("lines", len(lines)).Debug("extract served from cache")
		return lines, nil
	}

	lines, err = c.inner.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, extractCacheKey, lines, c.ttl); err != nil {
		c.log.WithError(err).Warn("extract cache write failed")
	}
	return lines, nil
}
