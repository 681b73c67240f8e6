package wrapper

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/rise-and-shine/dispatch/cqrs/query"
	"github.com/rise-and-shine/dispatch/observability/logger"
)

// DefaultCacheTTL is used for queries that do not implement CacheTTLAware.
const DefaultCacheTTL = 60 * time.Second

//nolint:gochecknoglobals // stateless codec, sorted map keys keep cache keys stable
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Cache stores query results as bytes. found reports whether key was
// present, so an empty payload is still a hit. rediswr.Cache implements it.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CacheAware is implemented by queries that opt out of caching by
// returning false.
type CacheAware interface {
	UseCache() bool
}

// CacheTTLAware is implemented by queries with their own cache TTL.
type CacheTTLAware interface {
	CacheTTL() time.Duration
}

type cacheBehavior struct {
	cache  Cache
	ttl    time.Duration
	prefix string
	logger logger.Logger
}

// CacheOption configures the cache behavior.
type CacheOption func(*cacheBehavior)

// WithCacheTTL sets the default TTL of cached results.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(b *cacheBehavior) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

// WithCachePrefix prefixes every cache key.
func WithCachePrefix(prefix string) CacheOption {
	return func(b *cacheBehavior) {
		b.prefix = prefix
	}
}

// WithCacheLogger logs cache failures through l.
func WithCacheLogger(l logger.Logger) CacheOption {
	return func(b *cacheBehavior) {
		b.logger = l.Named("cqrs.query.cache")
	}
}

// NewCacheBehavior serves query results from cache when possible and stores
// fresh results after a miss.
//
// Keys have the form "<prefix><identifier>:<json(query)>". Results are
// decoded into the type the handler was registered with; handlers registered
// without a result type are never cached. Cache failures are logged and the
// query falls back to its handler.
func NewCacheBehavior(cache Cache, opts ...CacheOption) query.Behavior {
	b := &cacheBehavior{
		cache:  cache,
		ttl:    DefaultCacheTTL,
		logger: logger.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *cacheBehavior) Handle(ctx context.Context, q query.Query, next query.Next) (any, error) {
	if aware, ok := q.(CacheAware); ok && !aware.UseCache() {
		return next(ctx, q)
	}

	desc, ok := query.DescriptorFromContext(ctx)
	if !ok || desc.Decode == nil {
		return next(ctx, q)
	}

	if !Cacheable(q) {
		return next(ctx, q)
	}

	log := b.logger.WithContext(ctx).With("query_name", q.QueryName())

	key, err := b.key(q)
	if err != nil {
		log.With("error", err.Error()).Warn("failed to build cache key")
		return next(ctx, q)
	}

	if cached, hit := b.lookup(ctx, log, key, desc); hit {
		return cached, nil
	}

	res, err := next(ctx, q)
	if err != nil {
		return res, err
	}

	b.store(ctx, log, key, res, b.ttlFor(q))
	return res, nil
}

func (b *cacheBehavior) key(q query.Query) (string, error) {
	k, err := Key(q)
	if err != nil {
		return "", err
	}
	return b.prefix + k, nil
}

func (b *cacheBehavior) lookup(ctx context.Context, log logger.Logger, key string, desc query.Descriptor) (any, bool) {
	data, found, err := b.cache.Get(ctx, key)
	if err != nil {
		log.With("error", err.Error()).Warn("failed to read query cache")
		return nil, false
	}
	if !found {
		return nil, false
	}

	v, err := desc.Decode(data, json.Unmarshal)
	if err != nil {
		log.With("error", err.Error()).Warn("failed to decode cached query result")
		return nil, false
	}
	return v, true
}

func (b *cacheBehavior) store(ctx context.Context, log logger.Logger, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		log.With("error", err.Error()).Warn("failed to encode query result")
		return
	}

	if err = b.cache.Set(ctx, key, data, ttl); err != nil {
		log.With("error", err.Error()).Warn("failed to write query cache")
	}
}

func (b *cacheBehavior) ttlFor(q query.Query) time.Duration {
	if aware, ok := q.(CacheTTLAware); ok {
		if ttl := aware.CacheTTL(); ttl > 0 {
			return ttl
		}
	}
	return b.ttl
}
