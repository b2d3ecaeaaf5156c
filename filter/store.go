package filter

import (
	"net/url"
	"sync"
)

// Location is the navigable location whose query string holds a list screen's state.
type Location interface {
	Query() url.Values
	// Replace swaps the whole query string as a single navigation event.
	Replace(query url.Values)
}

// MemoryLocation is a Location held in memory.
type MemoryLocation struct {
	mu          sync.Mutex
	query       url.Values
	navigations int
}

// NewMemoryLocation returns a MemoryLocation starting at query (may be nil).
func NewMemoryLocation(query url.Values) *MemoryLocation {
	return &MemoryLocation{query: cloneValues(query)}
}

func (l *MemoryLocation) Query() url.Values {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneValues(l.query)
}

func (l *MemoryLocation) Replace(query url.Values) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.query = cloneValues(query)
	l.navigations++
}

// Navigations counts Replace calls.
func (l *MemoryLocation) Navigations() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.navigations
}

// URLLocation is a Location backed by a URL, e.g. the current request URL of a web console.
type URLLocation struct {
	mu  sync.Mutex
	url url.URL
}

// NewURLLocation copies u.
func NewURLLocation(u *url.URL) *URLLocation {
	return &URLLocation{url: *u}
}

func (l *URLLocation) Query() url.Values {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.url.Query()
}

func (l *URLLocation) Replace(query url.Values) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.url.RawQuery = query.Encode()
}

// String returns the current URL.
func (l *URLLocation) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.url.String()
}

// Store reads and writes one list screen's FilterState through a Location.
// The state lives only in the location; Store keeps no copy.
type Store struct {
	schema Schema
	loc    Location

	mu        sync.Mutex
	nextID    int
	listeners map[int]func(FilterState)
}

// NewStore binds schema to loc.
func NewStore(schema Schema, loc Location) *Store {
	return &Store{
		schema:    schema,
		loc:       loc,
		listeners: make(map[int]func(FilterState)),
	}
}

// Schema returns the store's schema.
func (s *Store) Schema() Schema {
	return s.schema
}

// Read parses the location's current query.
func (s *Store) Read() FilterState {
	return s.schema.Decode(s.loc.Query())
}

// Write replaces the location's query with next in one navigation and then
// notifies every subscriber exactly once.
func (s *Store) Write(next FilterState) FilterState {
	s.loc.Replace(s.schema.Encode(next))
	state := s.Read()

	s.mu.Lock()
	listeners := make([]func(FilterState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
	return state
}

// Subscribe registers fn to run after every Write. The returned func removes it.
func (s *Store) Subscribe(fn func(FilterState)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Search applies new text, range and date filters and returns to the first page
// with the default size.
func (s *Store) Search(text string, ranges map[string]Range, dates map[string]DateRange) FilterState {
	return s.Write(FilterState{
		Text:   text,
		Ranges: ranges,
		Dates:  dates,
		Page:   DefaultPage,
		Size:   DefaultSize,
	})
}

// NextPage moves one page forward.
func (s *Store) NextPage() FilterState {
	cur := s.Read()
	return s.Write(cur.WithPage(cur.Page + 1))
}

// PreviousPage moves one page back, never below the first page.
func (s *Store) PreviousPage() FilterState {
	cur := s.Read()
	page := cur.Page - 1
	if page < DefaultPage {
		page = DefaultPage
	}
	return s.Write(cur.WithPage(page))
}

// GoTo jumps to page.
func (s *Store) GoTo(page int) FilterState {
	return s.Write(s.Read().WithPage(page))
}

// SetSize changes the page size and keeps the current page.
func (s *Store) SetSize(size int) FilterState {
	return s.Write(s.Read().WithSize(size))
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for key, vals := range v {
		out[key] = append([]string(nil), vals...)
	}
	return out
}
