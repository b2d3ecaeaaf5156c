package console

import (
	"context"

	"github.com/goliatone/go-pos-console/filter"
	"github.com/goliatone/go-pos-console/listcache"
	"github.com/goliatone/go-pos-console/mutation"
	"github.com/goliatone/go-pos-console/resourcecache"
)

// Deleter removes one record remotely.
type Deleter interface {
	DeleteByID(ctx context.Context, id string) error
}

// ListOption configures a ListScreen.
type ListOption func(*listOptions)

type listOptions struct {
	entity         string
	returnTo       string
	successMessage string
	failureMessage string
}

// WithEntity names the record in notices, e.g. "menu".
func WithEntity(entity string) ListOption {
	return func(o *listOptions) { o.entity = entity }
}

// WithReturnTo sets where a delete navigates to.
func WithReturnTo(path string) ListOption {
	return func(o *listOptions) { o.returnTo = path }
}

// WithDeleteMessages replaces the delete notices.
func WithDeleteMessages(success, failure string) ListOption {
	return func(o *listOptions) { o.successMessage, o.failureMessage = success, failure }
}

// ListScreen is one mounted list screen: the location's filter, an observer on
// the resource's list cache and the delete action.
type ListScreen[T any] struct {
	resource *resourcecache.CachedResource[T]
	store    *filter.Store
	observer *listcache.Observer[T]
	fetcher  listcache.Fetcher[T]
	deleter  Deleter
	notifier Notifier
	opts     listOptions
}

// NewListScreen mounts a list screen for resource at loc. deleter may be nil
// for screens without delete.
func NewListScreen[T any](resource *resourcecache.CachedResource[T], loc filter.Location, deleter Deleter, notifier Notifier, opts ...ListOption) *ListScreen[T] {
	o := listOptions{entity: resource.Resource()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.successMessage == "" && o.failureMessage == "" {
		o.successMessage, o.failureMessage = mutation.Messages(o.entity, mutation.Delete)
	}

	return &ListScreen[T]{
		resource: resource,
		store:    filter.NewStore(resource.Schema(), loc),
		observer: resource.Observe(),
		fetcher:  resource.Fetcher(),
		deleter:  deleter,
		notifier: notifier,
		opts:     o,
	}
}

// Filter returns the current filter.
func (s *ListScreen[T]) Filter() filter.FilterState {
	return s.store.Read()
}

// Store returns the screen's filter store.
func (s *ListScreen[T]) Store() *filter.Store {
	return s.store
}

// Load reads the entry for the location's filter without blocking.
func (s *ListScreen[T]) Load(ctx context.Context) listcache.Entry[T] {
	return s.observer.Read(ctx, s.store.Read(), s.fetcher)
}

// Current returns the entry shown now, refetching after an invalidation.
func (s *ListScreen[T]) Current(ctx context.Context) listcache.Entry[T] {
	if e, ok := s.observer.Current(); ok {
		return e
	}
	return s.Load(ctx)
}

// Wait blocks until the shown entry is ready or failed.
func (s *ListScreen[T]) Wait(ctx context.Context) (listcache.Entry[T], error) {
	return s.observer.Wait(ctx)
}

// Search applies new filters and returns to the first page.
func (s *ListScreen[T]) Search(ctx context.Context, text string, ranges map[string]filter.Range, dates map[string]filter.DateRange) listcache.Entry[T] {
	return s.read(ctx, s.store.Search(text, ranges, dates))
}

// NextPage moves one page forward.
func (s *ListScreen[T]) NextPage(ctx context.Context) listcache.Entry[T] {
	return s.read(ctx, s.store.NextPage())
}

// PreviousPage moves one page back.
func (s *ListScreen[T]) PreviousPage(ctx context.Context) listcache.Entry[T] {
	return s.read(ctx, s.store.PreviousPage())
}

// GoTo jumps to page.
func (s *ListScreen[T]) GoTo(ctx context.Context, page int) listcache.Entry[T] {
	return s.read(ctx, s.store.GoTo(page))
}

// SetSize changes the page size.
func (s *ListScreen[T]) SetSize(ctx context.Context, size int) listcache.Entry[T] {
	return s.read(ctx, s.store.SetSize(size))
}

// Retry forgets a failed entry and fetches it again.
func (s *ListScreen[T]) Retry(ctx context.Context) listcache.Entry[T] {
	f := s.store.Read()
	s.resource.Lists().Forget(f)
	return s.read(ctx, f)
}

// RowNumber is the 1-based number of the row at index on the current page.
func (s *ListScreen[T]) RowNumber(index int) int {
	return filter.RowNumber(s.store.Read(), index)
}

// Delete asks for confirmation and deletes id. On success the resource's
// lists are invalidated and the screen refetches.
func (s *ListScreen[T]) Delete(ctx context.Context, id string) mutation.Result[T] {
	var zero T
	req := mutation.Request[T]{
		Operation:      mutation.Delete,
		Prompt:         mutation.DeletePrompt,
		SuccessMessage: s.opts.successMessage,
		FailureMessage: s.opts.failureMessage,
		ReturnTo:       s.opts.returnTo,
	}
	if s.deleter != nil {
		req.Call = func(ctx context.Context) (T, error) {
			return zero, s.deleter.DeleteByID(ctx, id)
		}
	}

	res := s.resource.Mutate(ctx, req)
	notify(ctx, s.notifier, res.Outcome.Notice)
	if res.Outcome.Status == mutation.Succeeded {
		s.Current(ctx)
	}
	return res
}

// Close unmounts the screen. Late results are dropped.
func (s *ListScreen[T]) Close() {
	s.observer.Close()
}

func (s *ListScreen[T]) read(ctx context.Context, f filter.FilterState) listcache.Entry[T] {
	return s.observer.Read(ctx, f, s.fetcher)
}
