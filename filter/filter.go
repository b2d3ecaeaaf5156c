// Package filter holds the list screens' search and pagination state and its
// canonical encoding in the URL query string.
package filter

import (
	"maps"
	"slices"
)

const (
	// DefaultPage is used when the page parameter is missing or invalid.
	DefaultPage = 1
	// DefaultSize is used when the size parameter is missing or not an allowed size.
	DefaultSize = 10
	// DateLayout is the wire format of date range bounds.
	DateLayout = "2006-01-02"
)

// PageSizes lists the page sizes a list screen offers.
var PageSizes = []int{5, 10, 100}

// ValidSize reports whether size is one of PageSizes.
func ValidSize(size int) bool {
	return slices.Contains(PageSizes, size)
}

// Range is an inclusive numeric range. Bounds are canonical decimal strings;
// an empty bound means the side is unbounded.
type Range struct {
	Min string
	Max string
}

// IsZero reports whether neither bound is set.
func (r Range) IsZero() bool {
	return r.Min == "" && r.Max == ""
}

// DateRange is an inclusive date range in DateLayout. Empty means unbounded.
type DateRange struct {
	Start string
	End   string
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.Start == "" && r.End == ""
}

// FilterState is the canonical query shape of a list screen.
type FilterState struct {
	Text   string
	Ranges map[string]Range
	Dates  map[string]DateRange
	Page   int
	Size   int
}

// New returns a FilterState on the first page with the default size.
func New() FilterState {
	return FilterState{Page: DefaultPage, Size: DefaultSize}
}

// Normalize applies defaults and drops empty filters. Normalized states compare
// equal with Equal exactly when they select the same rows.
func (f FilterState) Normalize() FilterState {
	out := FilterState{Text: f.Text, Page: f.Page, Size: f.Size}
	if out.Page < 1 {
		out.Page = DefaultPage
	}
	if !ValidSize(out.Size) {
		out.Size = DefaultSize
	}

	for name, r := range f.Ranges {
		if r.IsZero() {
			continue
		}
		if out.Ranges == nil {
			out.Ranges = make(map[string]Range)
		}
		out.Ranges[name] = r
	}

	for name, d := range f.Dates {
		if d.IsZero() {
			continue
		}
		if out.Dates == nil {
			out.Dates = make(map[string]DateRange)
		}
		out.Dates[name] = d
	}

	return out
}

// Equal reports whether f and other are field-wise equal after normalization.
func (f FilterState) Equal(other FilterState) bool {
	a, b := f.Normalize(), other.Normalize()
	return a.Text == b.Text &&
		a.Page == b.Page &&
		a.Size == b.Size &&
		maps.Equal(a.Ranges, b.Ranges) &&
		maps.Equal(a.Dates, b.Dates)
}

// WithPage returns a copy of f positioned on page.
func (f FilterState) WithPage(page int) FilterState {
	f.Ranges = maps.Clone(f.Ranges)
	f.Dates = maps.Clone(f.Dates)
	f.Page = page
	return f
}

// WithSize returns a copy of f using size.
func (f FilterState) WithSize(size int) FilterState {
	f.Ranges = maps.Clone(f.Ranges)
	f.Dates = maps.Clone(f.Dates)
	f.Size = size
	return f
}

// Offset returns the zero based index of the first row of the current page.
func (f FilterState) Offset() int {
	n := f.Normalize()
	return n.Size * (n.Page - 1)
}

// RowNumber returns the one based position of the index-th row of the current page
// within the whole result set.
func RowNumber(f FilterState, index int) int {
	return index + 1 + f.Offset()
}
