package listcache

import "github.com/goliatone/go-pos-console/filter"

// Paginate computes paging metadata for page of size over total rows.
func Paginate(total, page, size int) Paging {
	if size < 1 {
		size = filter.DefaultSize
	}
	if page < 1 {
		page = filter.DefaultPage
	}
	if total < 0 {
		total = 0
	}

	pages := (total + size - 1) / size
	return Paging{
		TotalElements: total,
		TotalPages:    pages,
		HasNext:       page < pages,
		HasPrevious:   page > 1,
	}
}

// SlicePage cuts the requested page out of rows. Pages past the end are empty.
func SlicePage[T any](rows []T, page, size int) Page[T] {
	paging := Paginate(len(rows), page, size)
	if size < 1 {
		size = filter.DefaultSize
	}
	if page < 1 {
		page = filter.DefaultPage
	}

	start := (page - 1) * size
	if start >= len(rows) {
		return Page[T]{Rows: []T{}, Paging: paging}
	}
	end := min(start+size, len(rows))

	out := make([]T, end-start)
	copy(out, rows[start:end])
	return Page[T]{Rows: out, Paging: paging}
}
