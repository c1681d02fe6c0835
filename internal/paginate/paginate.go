// Package paginate slices the filtered records into pages and computes
// the page number list shown under the table.
package paginate

import "github.com/j-veylop/bus-counter-tui/internal/models"

const (
	// DefaultPageSize is used when a non-positive page size is requested.
	DefaultPageSize = 10
	// maxVisiblePages is the largest page count listed without ellipses.
	maxVisiblePages = 5
)

// TotalPages returns ceil(n/size), never less than 1.
func TotalPages(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	return max(1, (n+size-1)/size)
}

// Paginate returns the window for pageIndex (1-based). Out-of-range
// indices are clamped, never rejected.
func Paginate(records []models.CounterRecord, pageIndex, pageSize int) models.PageWindow {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	n := len(records)
	pages := TotalPages(n, pageSize)
	pageIndex = min(max(pageIndex, 1), pages)

	start := (pageIndex - 1) * pageSize
	end := min(start+pageSize, n)

	w := models.PageWindow{
		VisibleRecords: records[start:end:end],
		PageNumbers:    PageNumbers(pageIndex, pages),
		PageIndex:      pageIndex,
		PageSize:       pageSize,
		TotalPages:     pages,
		TotalRecords:   n,
	}
	if n > 0 {
		w.Start = start + 1
		w.End = end
	}
	return w
}

// PageNumbers returns the compact page list for current out of total.
// Up to five pages are listed in full; otherwise the first and last pages
// stay visible and the gap is collapsed to an ellipsis.
func PageNumbers(current, total int) []models.PageItem {
	if total <= maxVisiblePages {
		return pages(1, total)
	}

	gap := models.PageItem{Ellipsis: true}
	switch {
	case current <= 3:
		return append(pages(1, 4), gap, page(total))
	case current >= total-2:
		return append([]models.PageItem{page(1), gap}, pages(total-3, total)...)
	}
	items := []models.PageItem{page(1), gap}
	items = append(items, pages(current-1, current+1)...)
	return append(items, gap, page(total))
}

func page(n int) models.PageItem {
	return models.PageItem{Number: n}
}

func pages(from, to int) []models.PageItem {
	items := make([]models.PageItem, 0, to-from+1)
	for n := from; n <= to; n++ {
		items = append(items, page(n))
	}
	return items
}

// Cursor tracks the current page index and size between recomputations.
type Cursor struct {
	index int
	size  int
}

// NewCursor returns a cursor on page 1.
func NewCursor(size int) *Cursor {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Cursor{index: 1, size: size}
}

// Index returns the current 1-based page.
func (c *Cursor) Index() int {
	return c.index
}

// Size returns the page size.
func (c *Cursor) Size() int {
	return c.size
}

// SetPage moves to page n. Clamping happens in Window.
func (c *Cursor) SetPage(n int) {
	c.index = max(n, 1)
}

// SetPageSize changes the page size and always returns to page 1.
func (c *Cursor) SetPageSize(size int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	c.size = size
	c.index = 1
}

// Reset returns to page 1. Called whenever the record set changes.
func (c *Cursor) Reset() {
	c.index = 1
}

// Window paginates records at the cursor and pins the cursor to the
// clamped index.
func (c *Cursor) Window(records []models.CounterRecord) models.PageWindow {
	w := Paginate(records, c.index, c.size)
	c.index = w.PageIndex
	return w
}
