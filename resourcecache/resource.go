package resourcecache

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/goliatone/go-pos-console/api"
	"github.com/goliatone/go-pos-console/cache"
	"github.com/goliatone/go-pos-console/filter"
	"github.com/goliatone/go-pos-console/listcache"
	"github.com/goliatone/go-pos-console/mutation"
)

// Backend is the remote side of a resource.
type Backend[T any] interface {
	List(ctx context.Context, query url.Values) (api.ListResult[T], error)
	GetByID(ctx context.Context, id string) (T, error)
}

// Interface assertions
var (
	_ Backend[api.Menu]    = (*api.Resource[api.Menu])(nil)
	_ mutation.Invalidator = (*CachedResource[api.Menu])(nil)
)

// detailNamespace prefixes every detail cache key.
const detailNamespace = "GetByID"

// Option configures a CachedResource.
type Option func(*options)

type options struct {
	mutator     *mutation.Mutator
	logger      *slog.Logger
	listOptions []listcache.Option
}

// WithMutator routes writes through m. The resource must be registered as one
// of m's invalidators.
func WithMutator(m *mutation.Mutator) Option {
	return func(o *options) { o.mutator = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithListOptions passes options to the underlying list cache.
func WithListOptions(opts ...listcache.Option) Option {
	return func(o *options) { o.listOptions = append(o.listOptions, opts...) }
}

// CachedResource decorates a Backend with the list cache for List and the detail
// cache for GetByID. Successful writes invalidate both.
type CachedResource[T any] struct {
	schema        filter.Schema
	base          Backend[T]
	lists         *listcache.Cache[T]
	cache         cache.CacheService
	keySerializer cache.KeySerializer
	mutator       *mutation.Mutator
	logger        *slog.Logger
}

// New creates a CachedResource for schema's resource.
func New[T any](schema filter.Schema, base Backend[T], cacheService cache.CacheService, keySerializer cache.KeySerializer, opts ...Option) *CachedResource[T] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	listOpts := append([]listcache.Option{
		listcache.WithLogger(o.logger),
		listcache.WithKeySerializer(keySerializer),
	}, o.listOptions...)

	c := &CachedResource[T]{
		schema:        schema,
		base:          base,
		lists:         listcache.New[T](schema, listOpts...),
		cache:         cacheService,
		keySerializer: keySerializer,
		mutator:       o.mutator,
		logger:        o.logger.With(slog.String("component", "resourcecache"), slog.String("resource", schema.Resource)),
	}
	if c.mutator == nil {
		c.mutator = mutation.New(mutation.WithLogger(o.logger), mutation.WithInvalidators(c))
	}
	return c
}

// Resource returns the resource name.
func (c *CachedResource[T]) Resource() string {
	return c.schema.Resource
}

// Schema returns the resource's filter schema.
func (c *CachedResource[T]) Schema() filter.Schema {
	return c.schema
}

// Lists returns the list cache.
func (c *CachedResource[T]) Lists() *listcache.Cache[T] {
	return c.lists
}

// Fetcher returns the list fetcher that queries the backend.
func (c *CachedResource[T]) Fetcher() listcache.Fetcher[T] {
	return func(ctx context.Context, f filter.FilterState) (listcache.Page[T], error) {
		res, err := c.base.List(ctx, c.schema.Encode(f))
		if err != nil {
			return listcache.Page[T]{}, err
		}
		return res.Page(), nil
	}
}

// Observe returns a list observer for a screen.
func (c *CachedResource[T]) Observe() *listcache.Observer[T] {
	return c.lists.Observe()
}

// List blocks until the page for f is loaded, sharing in-flight requests.
func (c *CachedResource[T]) List(ctx context.Context, f filter.FilterState) (listcache.Entry[T], error) {
	return c.lists.Fetch(ctx, f, c.Fetcher())
}

// GetByID retrieves a record by ID, with caching.
func (c *CachedResource[T]) GetByID(ctx context.Context, id string) (T, error) {
	key := c.keySerializer.SerializeKey(detailNamespace, c.schema.Resource, id)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (T, error) {
		return c.base.GetByID(ctx, id)
	})
}

// Mutate runs req through the mutator. req.Resource defaults to this resource.
func (c *CachedResource[T]) Mutate(ctx context.Context, req mutation.Request[T]) mutation.Result[T] {
	if req.Resource == "" {
		req.Resource = c.schema.Resource
	}
	return mutation.Mutate(ctx, c.mutator, req)
}

// Invalidate drops the cached lists and details when resource is this one.
// A failed detail delete is logged and the lists are still dropped.
func (c *CachedResource[T]) Invalidate(ctx context.Context, resource string) error {
	if resource != c.schema.Resource {
		return nil
	}
	prefix := c.keySerializer.SerializeKey(detailNamespace, c.schema.Resource) + cache.KeySeparator
	if err := c.cache.DeleteByPrefix(ctx, prefix); err != nil {
		c.logger.WarnContext(ctx, "detail cache invalidation failed", slog.String("prefix", prefix), slog.String("error", err.Error()))
	} else {
		c.logger.DebugContext(ctx, "detail cache invalidated", slog.String("prefix", prefix))
	}
	return c.lists.Invalidate(ctx, resource)
}
