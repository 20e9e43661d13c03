package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/morvo/internal/cache"
)

// payloadCache - кеш ответов вендоров. Ошибки кеша не роняют вызов, только логируются.
type payloadCache struct {
	c        cache.Cache
	ttl      time.Duration
	observer Observer
	logger   *zap.Logger
}

func newPayloadCache(c cache.Cache, ttl time.Duration, o Observer, logger *zap.Logger) payloadCache {
	return payloadCache{c: c, ttl: ttl, observer: observerOrNop(o), logger: logger}
}

func (p payloadCache) get(ctx context.Context, key string, dst any) bool {
	if p.c == nil {
		return false
	}
	ok, err := cache.GetJSON(ctx, p.c, key, dst)
	if err != nil {
		p.logger.Debug("cache read failed", zap.String("key", key), zap.Error(err))
	}
	p.observer.ObserveCache(ok)
	return ok
}

func (p payloadCache) set(ctx context.Context, key string, v any) {
	if p.c == nil || p.ttl <= 0 {
		return
	}
	if err := cache.SetJSON(ctx, p.c, key, v, p.ttl); err != nil {
		p.logger.Debug("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
