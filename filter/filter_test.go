package filter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDefaults(t *testing.T) {
	f := Menus.Decode(url.Values{})

	assert.Equal(t, FilterState{Page: 1, Size: 10}, f)
}

func TestDecodeCoercesInvalidNumbers(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		want  FilterState
	}{
		{
			name:  "non numeric page and size",
			query: url.Values{"page": {"abc"}, "size": {"ten"}},
			want:  FilterState{Page: 1, Size: 10},
		},
		{
			name:  "page below one",
			query: url.Values{"page": {"0"}, "size": {"5"}},
			want:  FilterState{Page: 1, Size: 5},
		},
		{
			name:  "size outside allowed set",
			query: url.Values{"page": {"3"}, "size": {"50"}},
			want:  FilterState{Page: 3, Size: 10},
		},
		{
			name:  "non numeric price bound is dropped",
			query: url.Values{"minPrice": {"cheap"}, "maxPrice": {"100000"}, "page": {"1"}, "size": {"10"}},
			want: FilterState{
				Ranges: map[string]Range{"price": {Max: "100000"}},
				Page:   1,
				Size:   10,
			},
		},
		{
			name:  "empty strings are absent filters",
			query: url.Values{"name": {""}, "minPrice": {""}, "maxPrice": {""}},
			want:  FilterState{Page: 1, Size: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Menus.Decode(tt.query))
		})
	}
}

func TestDecodeDates(t *testing.T) {
	f := Transactions.Decode(url.Values{
		"userName":       {"budi"},
		"startTransDate": {"2024-01-01"},
		"endTransDate":   {"01/31/2024"},
	})

	assert.Equal(t, "budi", f.Text)
	assert.Equal(t, map[string]DateRange{"transDate": {Start: "2024-01-01"}}, f.Dates)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
		state  FilterState
	}{
		{name: "defaults", schema: Tables, state: New()},
		{name: "text only", schema: Tables, state: FilterState{Text: "VIP 01", Page: 2, Size: 5}},
		{
			name:   "menu price range",
			schema: Menus,
			state: FilterState{
				Text:   "nasi & teh",
				Ranges: map[string]Range{"price": {Min: "0", Max: "100000"}},
				Page:   4,
				Size:   100,
			},
		},
		{
			name:   "half open range",
			schema: Menus,
			state:  FilterState{Ranges: map[string]Range{"price": {Min: "12500.5"}}, Page: 1, Size: 10},
		},
		{
			name:   "transaction dates",
			schema: Transactions,
			state: FilterState{
				Text:  "siti",
				Dates: map[string]DateRange{"transDate": {Start: "2024-01-01", End: "2024-06-30"}},
				Page:  7,
				Size:  10,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded := tt.schema.Decode(tt.schema.Encode(tt.state))
			assert.True(t, tt.state.Equal(decoded), "want %+v, got %+v", tt.state, decoded)
			assert.Equal(t, tt.state.Normalize(), decoded)
		})
	}
}

func TestEncodeOmitsUnusedFields(t *testing.T) {
	state := FilterState{
		Text:   "meja",
		Ranges: map[string]Range{"price": {Min: "1"}},
		Dates:  map[string]DateRange{"transDate": {Start: "2024-01-01"}},
		Page:   1,
		Size:   10,
	}

	values := Tables.Encode(state)
	assert.Equal(t, url.Values{"name": {"meja"}, "page": {"1"}, "size": {"10"}}, values)
}

func TestProjectDropsForeignFilters(t *testing.T) {
	withPrice := FilterState{Text: "a", Ranges: map[string]Range{"price": {Min: "5"}}, Page: 1, Size: 10}
	plain := FilterState{Text: "a", Page: 1, Size: 10}

	assert.True(t, Tables.Project(withPrice).Equal(Tables.Project(plain)))
	assert.False(t, Menus.Project(withPrice).Equal(Menus.Project(plain)))
}

func TestEqualIgnoresEmptyEntries(t *testing.T) {
	a := FilterState{Ranges: map[string]Range{"price": {}}, Page: 0, Size: 0}
	b := New()

	assert.True(t, a.Equal(b))
}

func TestRowNumber(t *testing.T) {
	assert.Equal(t, 1, RowNumber(FilterState{Page: 1, Size: 10}, 0))
	assert.Equal(t, 23, RowNumber(FilterState{Page: 3, Size: 10}, 2))
	assert.Equal(t, 7, RowNumber(FilterState{Page: 2, Size: 5}, 1))
}

func TestStoreWriteIsOneNavigationAndOneNotification(t *testing.T) {
	loc := NewMemoryLocation(url.Values{"name": {"old"}, "page": {"2"}, "size": {"5"}, "tab": {"x"}})
	store := NewStore(Menus, loc)

	var notified []FilterState
	cancel := store.Subscribe(func(f FilterState) { notified = append(notified, f) })
	defer cancel()

	next := store.Write(FilterState{Text: "soto", Page: 1, Size: 100})

	assert.Equal(t, 1, loc.Navigations())
	require.Len(t, notified, 1)
	assert.Equal(t, next, notified[0])
	assert.Equal(t, url.Values{"name": {"soto"}, "page": {"1"}, "size": {"100"}}, loc.Query())
}

func TestStoreUnsubscribe(t *testing.T) {
	store := NewStore(Tables, NewMemoryLocation(nil))

	calls := 0
	cancel := store.Subscribe(func(FilterState) { calls++ })
	store.NextPage()
	cancel()
	store.NextPage()

	assert.Equal(t, 1, calls)
}

func TestStoreNavigationHelpers(t *testing.T) {
	store := NewStore(Menus, NewMemoryLocation(nil))

	assert.Equal(t, 1, store.PreviousPage().Page, "previous page is clamped at 1")
	assert.Equal(t, 2, store.NextPage().Page)

	sized := store.SetSize(100)
	assert.Equal(t, 2, sized.Page, "changing size keeps the page")
	assert.Equal(t, 100, sized.Size)

	assert.Equal(t, 5, store.GoTo(5).Page)

	searched := store.Search("bakso", map[string]Range{"price": {Min: "1000"}}, nil)
	assert.Equal(t, FilterState{
		Text:   "bakso",
		Ranges: map[string]Range{"price": {Min: "1000"}},
		Page:   1,
		Size:   10,
	}, searched)
}

func TestURLLocation(t *testing.T) {
	u, err := url.Parse("https://pos.example/dashboard/table?page=3&size=5")
	require.NoError(t, err)

	loc := NewURLLocation(u)
	store := NewStore(Tables, loc)
	assert.Equal(t, FilterState{Page: 3, Size: 5}, store.Read())

	store.NextPage()
	assert.Equal(t, "https://pos.example/dashboard/table?page=4&size=5", loc.String())
}
