package blog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeItems(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return items
}

func TestPaginateWindows(t *testing.T) {
	cases := []struct {
		name      string
		total     int
		page      string
		wantLen   int
		wantFirst int
	}{
		{"first page full", 15, "1", 10, 0},
		{"last page partial", 15, "2", 5, 10},
		{"exact multiple first", 20, "1", 10, 0},
		{"exact multiple last", 20, "2", 10, 10},
		{"fewer than one page", 3, "1", 3, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page := Paginate(makeItems(tc.total), 10, tc.page)
			assert.Len(t, page.Items, tc.wantLen)
			assert.LessOrEqual(t, len(page.Items), 10)
			if tc.wantLen > 0 {
				assert.Equal(t, tc.wantFirst, page.Items[0])
			}
		})
	}
}

func TestPaginateNonNumericPageFallsBackToFirst(t *testing.T) {
	for _, raw := range []string{"", "abc", "1.5", "two"} {
		page := Paginate(makeItems(25), 10, raw)
		assert.Equal(t, 1, page.Pagination.CurrentPage, "raw=%q", raw)
		assert.Equal(t, 0, page.Items[0], "raw=%q", raw)
	}
}

func TestPaginateClampsOutOfRangePageToLast(t *testing.T) {
	// Past the end and numerically below 1 both count as out of range and
	// land on the last page; only non-numeric input means page 1.
	for _, raw := range []string{"99", "0", "-3"} {
		page := Paginate(makeItems(25), 10, raw)
		assert.Equal(t, 3, page.Pagination.CurrentPage, "raw=%q", raw)
		assert.Len(t, page.Items, 5, "raw=%q", raw)
		assert.Equal(t, 20, page.Items[0], "raw=%q", raw)
		assert.False(t, page.Pagination.HasNext, "raw=%q", raw)
		assert.True(t, page.Pagination.HasPrev, "raw=%q", raw)
	}
}

func TestPaginateMetadata(t *testing.T) {
	page := Paginate(makeItems(25), 10, "2")
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.Equal(t, 25, page.Pagination.TotalItems)
	assert.True(t, page.Pagination.HasPrev)
	assert.True(t, page.Pagination.HasNext)
	assert.Equal(t, 1, page.Pagination.PrevPage)
	assert.Equal(t, 3, page.Pagination.NextPage)
}

func TestPaginateEmptyCollection(t *testing.T) {
	page := Paginate(makeItems(0), 10, "1")
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Equal(t, 1, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNext)
	assert.False(t, page.Pagination.HasPrev)
}
