package enrichment

import (
	"context"
	"strconv"
	"time"

	"domainwizard/internal/engine"
	"domainwizard/internal/logger"
	"domainwizard/internal/ports"
)

// SharedTTL is how long enrichment answers live in the shared cache.
const SharedTTL = 7 * 24 * time.Hour

// CachedDevEcosystem answers from the engine LRU, then the shared cache,
// then the wrapped source. shared may be nil.
type CachedDevEcosystem struct {
	inner  ports.DevEcosystem
	ctx    *engine.Context
	shared ports.SharedCache
}

func NewCachedDevEcosystem(inner ports.DevEcosystem, ectx *engine.Context, shared ports.SharedCache) *CachedDevEcosystem {
	return &CachedDevEcosystem{inner: inner, ctx: ectx, shared: shared}
}

func (c *CachedDevEcosystem) Popularity(ctx context.Context, word string) (int, error) {
	if n, ok := c.ctx.DevPopularity.Get(word); ok {
		return n, nil
	}
	key := "dev:" + word
	if v, ok := sharedGet(ctx, c.ctx.Logger, c.shared, key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.ctx.DevPopularity.Add(word, n)
			return n, nil
		}
	}
	n, err := c.inner.Popularity(ctx, word)
	if err != nil {
		return 0, err
	}
	c.ctx.DevPopularity.Add(word, n)
	sharedSet(ctx, c.ctx.Logger, c.shared, key, strconv.Itoa(n))
	return n, nil
}

type CachedArchive struct {
	inner  ports.Archive
	ctx    *engine.Context
	shared ports.SharedCache
}

func NewCachedArchive(inner ports.Archive, ectx *engine.Context, shared ports.SharedCache) *CachedArchive {
	return &CachedArchive{inner: inner, ctx: ectx, shared: shared}
}

func (c *CachedArchive) HasSnapshot(ctx context.Context, name string) (bool, error) {
	if v, ok := c.ctx.Archived.Get(name); ok {
		return v, nil
	}
	key := "archive:" + name
	if v, ok := sharedGet(ctx, c.ctx.Logger, c.shared, key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.ctx.Archived.Add(name, b)
			return b, nil
		}
	}
	b, err := c.inner.HasSnapshot(ctx, name)
	if err != nil {
		return false, err
	}
	c.ctx.Archived.Add(name, b)
	sharedSet(ctx, c.ctx.Logger, c.shared, key, strconv.FormatBool(b))
	return b, nil
}

// Shared cache failures only cost a lookup.
func sharedGet(ctx context.Context, log logger.Logger, shared ports.SharedCache, key string) (string, bool) {
	if shared == nil {
		return "", false
	}
	v, ok, err := shared.Get(ctx, key)
	if err != nil {
		log.Debug("shared cache read failed", logger.String("key", key), logger.Error(err))
		return "", false
	}
	return v, ok
}

func sharedSet(ctx context.Context, log logger.Logger, shared ports.SharedCache, key, value string) {
	if shared == nil {
		return
	}
	if err := shared.Set(ctx, key, value, SharedTTL); err != nil {
		log.Debug("shared cache write failed", logger.String("key", key), logger.Error(err))
	}
}
