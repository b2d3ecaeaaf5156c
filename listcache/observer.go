package listcache

import (
	"context"
	"sync"

	"github.com/goliatone/go-pos-console/filter"
)

// Observer is one screen's view of a Cache. It follows a single active key at a
// time; results for keys it has moved away from never reach it.
type Observer[T any] struct {
	cache *Cache[T]

	mu      sync.Mutex
	ctx     context.Context
	key     Key
	filter  filter.FilterState
	fetcher Fetcher[T]
	slot    *slot[T]
	closed  bool
}

// Observe returns a new Observer. Close it when the screen goes away.
func (c *Cache[T]) Observe() *Observer[T] {
	return &Observer[T]{cache: c}
}

// Read makes f the active filter and returns its entry without blocking.
// An existing pending or ready entry is returned as is; otherwise a fetch starts
// and a pending entry is returned. The observer holding a failed entry keeps
// seeing it until it changes keys, the cache is invalidated or the entry is
// forgotten; any other reader of that key starts a new attempt.
func (o *Observer[T]) Read(ctx context.Context, f filter.FilterState, fetcher Fetcher[T]) Entry[T] {
	key := o.cache.KeyFor(f)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return Entry[T]{Key: key, Filter: f, Status: StatusError, Err: ErrObserverClosed}
	}

	if o.slot != nil && o.key == key && !o.slot.discarded.Load() {
		return o.slot.snapshot()
	}

	prev, prevKey := o.slot, o.key
	o.ctx, o.key, o.filter, o.fetcher = ctx, key, f, fetcher
	o.slot = o.cache.acquire(ctx, key, f, fetcher)
	if prev != nil {
		o.cache.release(prevKey, prev)
	}

	return o.slot.snapshot()
}

// Current returns the entry of the active filter, refetching it when the entry
// was invalidated. ok is false before the first Read.
func (o *Observer[T]) Current() (entry Entry[T], ok bool) {
	o.mu.Lock()
	if o.slot == nil || o.closed {
		o.mu.Unlock()
		return Entry[T]{}, false
	}
	ctx, f, fetcher := o.ctx, o.filter, o.fetcher
	o.mu.Unlock()

	return o.Read(ctx, f, fetcher), true
}

// Key returns the active key.
func (o *Observer[T]) Key() Key {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.key
}

// Wait blocks until the active entry is ready or failed and returns it. If the
// entry is invalidated while waiting, Wait refetches and keeps waiting. If the
// observer switches keys while waiting, Wait follows the new key.
func (o *Observer[T]) Wait(ctx context.Context) (Entry[T], error) {
	for {
		o.mu.Lock()
		if o.closed {
			o.mu.Unlock()
			return Entry[T]{}, ErrObserverClosed
		}
		s := o.slot
		o.mu.Unlock()

		if s == nil {
			return Entry[T]{}, nil
		}

		if !s.discarded.Load() {
			select {
			case <-s.done:
			case <-ctx.Done():
				return Entry[T]{}, ctx.Err()
			}
		}

		if s.discarded.Load() {
			if _, ok := o.Current(); !ok {
				return Entry[T]{}, ErrObserverClosed
			}
			continue
		}

		o.mu.Lock()
		same := o.slot == s
		o.mu.Unlock()
		if !same {
			continue
		}

		return s.snapshot(), nil
	}
}

// Close releases the observer's interest. Results arriving afterwards are dropped.
func (o *Observer[T]) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	if o.slot != nil {
		o.cache.release(o.key, o.slot)
	}
}
