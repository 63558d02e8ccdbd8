package embedding

import (
	"context"

	"go.uber.org/zap"
)

// QueryEmbedder embeds single queries through an in-process LRU and an optional shared
// remote cache. Entries are never invalidated by dataset changes.
type QueryEmbedder struct {
	embedder Embedder
	cache    *QueryCache
	remote   RemoteCache
	logger   *zap.Logger
}

// QueryOption configures a QueryEmbedder.
type QueryOption func(*QueryEmbedder)

// WithRemoteCache adds a shared cache consulted after the local LRU misses.
func WithRemoteCache(r RemoteCache) QueryOption {
	return func(q *QueryEmbedder) { q.remote = r }
}

// WithLogger sets the logger for remote cache failures.
func WithLogger(l *zap.Logger) QueryOption {
	return func(q *QueryEmbedder) {
		if l != nil {
			q.logger = l
		}
	}
}

// NewQueryEmbedder wraps e with a cache of the given capacity.
func NewQueryEmbedder(e Embedder, capacity int, opts ...QueryOption) *QueryEmbedder {
	q := &QueryEmbedder{
		embedder: e,
		cache:    NewQueryCache(capacity),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// EmbedQuery returns the embedding for text, calling the service only on a cache miss.
func (q *QueryEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := CacheKey(q.embedder.Model(), text)
	if v, ok := q.cache.Get(key); ok {
		return v, nil
	}
	if q.remote != nil {
		v, ok, err := q.remote.Get(ctx, key)
		if err != nil {
			q.logger.Warn("remote query cache get failed", zap.Error(err))
		}
		if ok {
			q.cache.Set(key, v)
			return v, nil
		}
	}

	vectors, err := q.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if err := checkCount([]string{text}, vectors); err != nil {
		return nil, err
	}
	v := vectors[0]
	q.cache.Set(key, v)
	if q.remote != nil {
		if err := q.remote.Set(ctx, key, v); err != nil {
			q.logger.Warn("remote query cache set failed", zap.Error(err))
		}
	}
	return v, nil
}
