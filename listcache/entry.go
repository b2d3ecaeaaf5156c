package listcache

import (
	"context"

	"github.com/goliatone/go-pos-console/filter"
)

// Status is the lifecycle state of an Entry.
type Status int

const (
	StatusPending Status = iota
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Key identifies a cached list. Two filters that are field-wise equal for the
// resource produce equal keys.
type Key struct {
	Resource string
	Filter   string
}

// Paging describes where a page sits in the whole result set.
type Paging struct {
	TotalElements int
	TotalPages    int
	HasNext       bool
	HasPrevious   bool
}

// Page is one fetched page of rows, in server order.
type Page[T any] struct {
	Rows   []T
	Paging Paging
}

// Fetcher loads one page for a filter from the remote API.
type Fetcher[T any] func(ctx context.Context, f filter.FilterState) (Page[T], error)

// Entry is the cached result, or pending/error marker, for one Key.
// A ready entry always holds a complete page; entries are replaced, never merged.
type Entry[T any] struct {
	Key    Key
	Filter filter.FilterState
	Rows   []T
	Paging Paging
	Status Status
	Err    error
}

// Pending reports whether the fetch has not completed yet.
func (e Entry[T]) Pending() bool { return e.Status == StatusPending }

// Ready reports whether Rows and Paging hold a fetched page.
func (e Entry[T]) Ready() bool { return e.Status == StatusReady }

// Failed reports whether the fetch failed; Err holds the cause.
func (e Entry[T]) Failed() bool { return e.Status == StatusError }
