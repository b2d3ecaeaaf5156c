// Package testsupport holds test helpers: fixture loading and an in-memory
// stand-in for an API resource.
package testsupport

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-pos-console/api"
	"github.com/goliatone/go-pos-console/apperror"
	"github.com/goliatone/go-pos-console/filter"
	"github.com/goliatone/go-pos-console/listcache"
)

// Accessors tells the fake backend how to read and set a record's id and
// how to match the list query.
type Accessors[T any] struct {
	ID    func(T) string
	SetID func(T, string) T
	// Match reports whether row satisfies query. Nil matches everything.
	Match func(row T, query url.Values) bool
}

// FakeBackend is an in-memory resource with the API's paging and error
// behaviour. Calls are counted per method.
type FakeBackend[T any] struct {
	acc Accessors[T]

	mu    sync.Mutex
	rows  []T
	calls map[string]int
	fail  map[string]error
	gate  chan struct{}
}

// NewFakeBackend returns a backend seeded with rows.
func NewFakeBackend[T any](acc Accessors[T], rows ...T) *FakeBackend[T] {
	return &FakeBackend[T]{
		acc:   acc,
		rows:  append([]T(nil), rows...),
		calls: make(map[string]int),
		fail:  make(map[string]error),
	}
}

// Calls returns how often method was called.
func (f *FakeBackend[T]) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// FailWith makes every later call of method fail with err. A nil err clears it.
func (f *FakeBackend[T]) FailWith(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, method)
		return
	}
	f.fail[method] = err
}

// Hold blocks List calls until the returned release func is called.
func (f *FakeBackend[T]) Hold() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.gate = nil
			f.mu.Unlock()
			close(gate)
		})
	}
}

// Rows returns a copy of the stored rows.
func (f *FakeBackend[T]) Rows() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]T(nil), f.rows...)
}

func (f *FakeBackend[T]) enter(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.fail[method]
}

// List filters, then pages the rows like the API: page and size come from the
// query and default to 1 and 10.
func (f *FakeBackend[T]) List(ctx context.Context, query url.Values) (api.ListResult[T], error) {
	if err := f.enter("List"); err != nil {
		return api.ListResult[T]{}, err
	}

	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return api.ListResult[T]{}, ctx.Err()
		}
	}

	f.mu.Lock()
	matched := make([]T, 0, len(f.rows))
	for _, row := range f.rows {
		if f.acc.Match == nil || f.acc.Match(row, query) {
			matched = append(matched, row)
		}
	}
	f.mu.Unlock()

	page := intParam(query, filter.PageParam, filter.DefaultPage)
	size := intParam(query, filter.SizeParam, filter.DefaultSize)
	p := listcache.SlicePage(matched, page, size)

	return api.ListResult[T]{
		Data: p.Rows,
		Paging: api.Paging{
			TotalElement: p.Paging.TotalElements,
			TotalPages:   p.Paging.TotalPages,
			Page:         page,
			Size:         size,
			HasNext:      p.Paging.HasNext,
			HasPrevious:  p.Paging.HasPrevious,
		},
	}, nil
}

// GetByID returns the row with id or a 404 error.
func (f *FakeBackend[T]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	if err := f.enter("GetByID"); err != nil {
		return zero, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.index(id); i >= 0 {
		return f.rows[i], nil
	}
	return zero, apperror.FromStatus(404, "data not found")
}

// Create stores payload under a new uuid when it has no id. payload is a T or
// anything whose JSON decodes into one.
func (f *FakeBackend[T]) Create(ctx context.Context, payload any) (T, error) {
	var zero T
	if err := f.enter("Create"); err != nil {
		return zero, err
	}

	var row T
	if err := decodeInto(payload, &row); err != nil {
		return zero, err
	}
	if f.acc.ID(row) == "" {
		row = f.acc.SetID(row, uuid.NewString())
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index(f.acc.ID(row)) >= 0 {
		return zero, apperror.FromStatus(409, "Data already exist")
	}
	f.rows = append(f.rows, row)
	return row, nil
}

// Update merges payload's JSON fields into the row with the same id.
func (f *FakeBackend[T]) Update(ctx context.Context, payload any) (T, error) {
	var zero T
	if err := f.enter("Update"); err != nil {
		return zero, err
	}

	var probe T
	if err := decodeInto(payload, &probe); err != nil {
		return zero, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(f.acc.ID(probe))
	if i < 0 {
		return zero, apperror.FromStatus(404, "data not found")
	}
	row := f.rows[i]
	if err := decodeInto(payload, &row); err != nil {
		return zero, err
	}
	f.rows[i] = row
	return row, nil
}

// DeleteByID removes the row with id.
func (f *FakeBackend[T]) DeleteByID(ctx context.Context, id string) error {
	if err := f.enter("DeleteByID"); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return apperror.FromStatus(404, "data not found")
	}
	f.rows = append(f.rows[:i], f.rows[i+1:]...)
	return nil
}

func (f *FakeBackend[T]) index(id string) int {
	for i, row := range f.rows {
		if f.acc.ID(row) == id {
			return i
		}
	}
	return -1
}

func decodeInto[T any](payload any, dest *T) error {
	if v, ok := payload.(T); ok {
		*dest = v
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return apperror.FromStatus(400, err.Error())
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return apperror.FromStatus(400, err.Error())
	}
	return nil
}

func intParam(query url.Values, name string, fallback int) int {
	n, err := strconv.Atoi(query.Get(name))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// NameContains matches rows whose name contains the query's param value,
// ignoring case. An empty value matches everything.
func NameContains[T any](param string, name func(T) string) func(T, url.Values) bool {
	return func(row T, query url.Values) bool {
		q := strings.ToLower(query.Get(param))
		return q == "" || strings.Contains(strings.ToLower(name(row)), q)
	}
}

// MenuAccessors are the accessors of api.Menu. List matches the name param.
func MenuAccessors() Accessors[api.Menu] {
	return Accessors[api.Menu]{
		ID:    func(m api.Menu) string { return m.ID },
		SetID: func(m api.Menu, id string) api.Menu { m.ID = id; return m },
		Match: NameContains[api.Menu]("name", func(m api.Menu) string { return m.Name }),
	}
}

// TableAccessors are the accessors of api.Table. List matches the name param.
func TableAccessors() Accessors[api.Table] {
	return Accessors[api.Table]{
		ID:    func(t api.Table) string { return t.ID },
		SetID: func(t api.Table, id string) api.Table { t.ID = id; return t },
		Match: NameContains[api.Table]("name", func(t api.Table) string { return t.Name }),
	}
}

// UserAccessors are the accessors of api.User. List matches the name param.
func UserAccessors() Accessors[api.User] {
	return Accessors[api.User]{
		ID:    func(u api.User) string { return u.ID },
		SetID: func(u api.User, id string) api.User { u.ID = id; return u },
		Match: NameContains[api.User]("name", func(u api.User) string { return u.Name }),
	}
}
