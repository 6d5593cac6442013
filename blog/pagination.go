// blog/pagination.go
package blog

import "strconv"

// DefaultPageSize is the fixed number of items per rendered page.
const DefaultPageSize = 10

// PaginationData holds all the necessary info for rendering pagination controls.
type PaginationData struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int
	NextPage    int
	PrevPage    int
	HasNext     bool
	HasPrev     bool
}

// Page is one bounded window of an ordered collection.
type Page[T any] struct {
	Items      []T
	Pagination PaginationData
}

// Paginate slices an ordered collection into a 1-based page. rawPage comes
// straight from the request: a non-numeric value falls back to page 1, while
// a numeric value outside the valid range (below 1 or past the end) clamps
// to the last page. The returned page never holds more than pageSize items;
// an empty collection yields a single empty page.
func Paginate[T any](items []T, pageSize int, rawPage string) Page[T] {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	page, err := strconv.Atoi(rawPage)
	switch {
	case err != nil:
		page = 1
	case page < 1 || page > totalPages:
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page[T]{
		Items: items[start:end],
		Pagination: PaginationData{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalItems:  total,
			NextPage:    page + 1,
			PrevPage:    page - 1,
			HasNext:     page < totalPages,
			HasPrev:     page > 1,
		},
	}
}
