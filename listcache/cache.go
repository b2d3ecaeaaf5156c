package listcache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-pos-console/cache"
	"github.com/goliatone/go-pos-console/filter"
)

// ErrObserverClosed is returned by an Observer after Close.
var ErrObserverClosed = errors.New("listcache: observer closed")

type options struct {
	logger     *slog.Logger
	timeout    time.Duration
	serializer cache.KeySerializer
}

// Option configures a Cache.
type Option func(*options)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFetchTimeout bounds every fetch. Zero disables the bound.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithKeySerializer replaces the default key serializer.
func WithKeySerializer(s cache.KeySerializer) Option {
	return func(o *options) {
		if s != nil {
			o.serializer = s
		}
	}
}

// slot holds the entry of one key. refs is only touched inside entries.Compute.
type slot[T any] struct {
	id        uint64
	refs      int
	entry     atomic.Pointer[Entry[T]]
	done      chan struct{}
	doneOnce  sync.Once
	discarded atomic.Bool
}

func (s *slot[T]) settle() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *slot[T]) discard() {
	s.discarded.Store(true)
	s.settle()
}

func (s *slot[T]) snapshot() Entry[T] {
	return *s.entry.Load()
}

// Cache is the shared list cache of one resource. Screens read it through an
// Observer; only fetch completion and Invalidate write to it.
type Cache[T any] struct {
	schema     filter.Schema
	serializer cache.KeySerializer
	entries    *xsync.MapOf[Key, *slot[T]]
	timeout    time.Duration
	logger     *slog.Logger

	seq     atomic.Uint64
	fetches atomic.Int64
}

// New creates the list cache for schema's resource.
func New[T any](schema filter.Schema, opts ...Option) *Cache[T] {
	o := options{
		logger:     slog.Default(),
		serializer: cache.NewDefaultKeySerializer(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Cache[T]{
		schema:     schema,
		serializer: o.serializer,
		entries:    xsync.NewMapOf[Key, *slot[T]](),
		timeout:    o.timeout,
		logger:     o.logger.With(slog.String("component", "listcache"), slog.String("resource", schema.Resource)),
	}
}

// Resource returns the resource name the cache belongs to.
func (c *Cache[T]) Resource() string {
	return c.schema.Resource
}

// KeyFor returns the key of f. Fields the resource does not use are ignored and
// bounds are compared in canonical form.
func (c *Cache[T]) KeyFor(f filter.FilterState) Key {
	canonical := c.schema.Canonicalize(f)
	return Key{
		Resource: c.schema.Resource,
		Filter:   c.serializer.SerializeKey(c.schema.Resource, canonical),
	}
}

// Len returns the number of live entries.
func (c *Cache[T]) Len() int {
	return c.entries.Size()
}

// Fetches returns how many fetches the cache has issued.
func (c *Cache[T]) Fetches() int64 {
	return c.fetches.Load()
}

// Peek returns the entry for f without registering interest or fetching.
func (c *Cache[T]) Peek(f filter.FilterState) (Entry[T], bool) {
	s, ok := c.entries.Load(c.KeyFor(f))
	if !ok {
		return Entry[T]{}, false
	}
	return s.snapshot(), true
}

// Fetch blocks until the entry for f is ready or failed. Concurrent calls for the
// same key share one request.
func (c *Cache[T]) Fetch(ctx context.Context, f filter.FilterState, fetcher Fetcher[T]) (Entry[T], error) {
	o := c.Observe()
	defer o.Close()

	o.Read(ctx, f, fetcher)
	return o.Wait(ctx)
}

// Invalidate discards every entry when resource is this cache's resource, so the
// next read fetches again. Waiting observers are woken and refetch.
func (c *Cache[T]) Invalidate(ctx context.Context, resource string) error {
	if resource != c.schema.Resource {
		return nil
	}

	victims := make(map[Key]*slot[T])
	c.entries.Range(func(key Key, s *slot[T]) bool {
		victims[key] = s
		return true
	})

	// Only the slots seen above are dropped; a slot acquired since then is
	// already a fresh fetch.
	discarded := 0
	for key, victim := range victims {
		dropped := false
		c.entries.Compute(key, func(old *slot[T], loaded bool) (*slot[T], bool) {
			if !loaded {
				return old, true
			}
			if old != victim {
				return old, false
			}
			dropped = true
			return old, true
		})
		if dropped {
			victim.discard()
			discarded++
		}
	}

	c.logger.DebugContext(ctx, "list cache invalidated", slog.Int("entries", discarded))
	return nil
}

// Forget discards the entry of f only; use it to retry a failed fetch for the
// same filter.
func (c *Cache[T]) Forget(f filter.FilterState) {
	key := c.KeyFor(f)
	if s, ok := c.entries.LoadAndDelete(key); ok {
		s.discard()
	}
}

// acquire registers interest in key, creating the entry and starting its fetch
// when none exists or the existing one failed. Holders of a replaced failed
// entry are woken and move to the new one.
func (c *Cache[T]) acquire(ctx context.Context, key Key, f filter.FilterState, fetcher Fetcher[T]) *slot[T] {
	var created, failed *slot[T]

	s, _ := c.entries.Compute(key, func(old *slot[T], loaded bool) (*slot[T], bool) {
		if loaded && old.snapshot().Status == StatusError {
			failed, loaded = old, false
		}
		if !loaded {
			old = &slot[T]{id: c.seq.Add(1), done: make(chan struct{})}
			old.entry.Store(&Entry[T]{Key: key, Filter: f, Status: StatusPending})
			created = old
		}
		old.refs++
		return old, false
	})

	if failed != nil {
		failed.discard()
	}
	if created != nil {
		c.fetches.Add(1)
		go c.run(context.WithoutCancel(ctx), key, f, fetcher, created)
	}
	return s
}

// release drops one unit of interest. The entry is discarded with its last observer.
func (c *Cache[T]) release(key Key, s *slot[T]) {
	drop := false
	c.entries.Compute(key, func(old *slot[T], loaded bool) (*slot[T], bool) {
		if !loaded {
			return old, true
		}
		if old != s {
			return old, false
		}
		old.refs--
		drop = old.refs <= 0
		return old, drop
	})
	if drop {
		s.discard()
	}
}

func (c *Cache[T]) run(ctx context.Context, key Key, f filter.FilterState, fetcher Fetcher[T], s *slot[T]) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	started := time.Now()
	c.logger.DebugContext(ctx, "list fetch started", slog.Uint64("request_id", s.id), slog.Int("page", f.Page), slog.Int("size", f.Size))

	page, err := fetcher(ctx, f)

	entry := &Entry[T]{Key: key, Filter: f}
	if err != nil {
		entry.Status = StatusError
		entry.Err = err
		c.logger.WarnContext(ctx, "list fetch failed", slog.Uint64("request_id", s.id), slog.String("error", err.Error()))
	} else {
		entry.Status = StatusReady
		entry.Rows = page.Rows
		entry.Paging = page.Paging
		c.logger.DebugContext(ctx, "list fetch completed",
			slog.Uint64("request_id", s.id),
			slog.Int("rows", len(page.Rows)),
			slog.Duration("elapsed", time.Since(started)))
	}

	applied := false
	c.entries.Compute(key, func(old *slot[T], loaded bool) (*slot[T], bool) {
		if !loaded {
			return old, true
		}
		if old == s {
			s.entry.Store(entry)
			applied = true
		}
		return old, false
	})

	if !applied {
		c.logger.DebugContext(ctx, "stale list response dropped", slog.Uint64("request_id", s.id))
	}
	s.settle()
}
