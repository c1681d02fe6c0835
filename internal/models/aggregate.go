package models

import (
	"strconv"
	"time"
)

// ResolvedRange is a concrete fetch interval. End is the last included
// millisecond. A nil *ResolvedRange means the range is unbounded.
type ResolvedRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r *ResolvedRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	return !t.Before(r.Start) && !t.After(r.End)
}

// SameDay reports whether both ends fall on the same calendar date.
func (r *ResolvedRange) SameDay() bool {
	if r == nil {
		return false
	}
	y1, m1, d1 := r.Start.Date()
	y2, m2, d2 := r.End.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Key identifies the range for caching, e.g. "2024-06-01..2024-06-07".
func (r *ResolvedRange) Key() string {
	if r == nil {
		return "all"
	}
	return r.Start.Format(time.DateOnly) + ".." + r.End.Format(time.DateOnly)
}

func (r *ResolvedRange) String() string {
	if r == nil {
		return "all time"
	}
	const layout = "2006-01-02 15:04"
	return r.Start.Format(layout) + " → " + r.End.Format(layout)
}

// CompanySeries is one chart point: the inbound passenger sum of a company.
type CompanySeries struct {
	CompanyID string
	Value     int
}

// AggregateResult is the derived snapshot behind the stats cards, chart and table.
type AggregateResult struct {
	SeriesByCompany     []CompanySeries
	Records             []CounterRecord
	TotalPassengers     int
	ActiveVehicleCount  int
	DistinctCameraCount int
	InProgressCount     int
}

// TotalIn returns the sum of all series values.
func (a AggregateResult) TotalIn() int {
	total := 0
	for _, s := range a.SeriesByCompany {
		total += s.Value
	}
	return total
}

// PageItem is one entry of the page number list: a page or an ellipsis.
type PageItem struct {
	Number   int
	Ellipsis bool
}

func (p PageItem) String() string {
	if p.Ellipsis {
		return "…"
	}
	return strconv.Itoa(p.Number)
}

// PageWindow is the visible slice of the filtered records.
// Start and End are the 1-based positions of the first and last visible
// record; both are zero when there are no records.
type PageWindow struct {
	VisibleRecords []CounterRecord
	PageNumbers    []PageItem
	PageIndex      int
	PageSize       int
	TotalPages     int
	TotalRecords   int
	Start          int
	End            int
}

// HasPrev reports whether a previous page exists.
func (w PageWindow) HasPrev() bool {
	return w.PageIndex > 1
}

// HasNext reports whether a following page exists.
func (w PageWindow) HasNext() bool {
	return w.PageIndex < w.TotalPages
}
