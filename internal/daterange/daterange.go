// Package daterange turns a date range mode into a concrete fetch interval.
package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/j-veylop/bus-counter-tui/internal/models"
)

var (
	// ErrInvalidRange is matched by every *InvalidRangeError.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrMissingBound is returned when a mode needs a custom bound that is empty.
	ErrMissingBound = errors.New("missing custom date bound")
	// ErrBadBound is returned when a custom bound cannot be parsed.
	ErrBadBound = errors.New("unparseable custom date bound")
	// ErrUnknownMode is returned for modes the resolver does not know.
	ErrUnknownMode = errors.New("unknown date range mode")
)

// InvalidRangeError reports a start that lies after the end.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("start %s is after end %s",
		e.Start.Format("2006-01-02 15:04"), e.End.Format("2006-01-02 15:04"))
}

// Is makes errors.Is(err, ErrInvalidRange) succeed.
func (e *InvalidRangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

var boundLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

type options struct {
	window models.TimeWindow
}

// Option customises Resolve.
type Option func(*options)

// WithTimeWindow narrows today and yesterday to part of the day.
// The zero window leaves the full day.
func WithTimeWindow(w models.TimeWindow) Option {
	return func(o *options) {
		o.window = w
	}
}

// Resolve maps a mode and the current instant to a concrete interval in
// now's location. It returns nil for RangeAll. It is pure: the same inputs
// always give the same output.
func Resolve(mode models.DateRangeMode, now time.Time, customStart, customEnd string, opts ...Option) (*models.ResolvedRange, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	loc := now.Location()
	today := startOfDay(now)

	switch mode {
	case models.RangeAll:
		return nil, nil
	case models.RangeToday:
		return narrowDay(today, o.window)
	case models.RangeYesterday:
		return narrowDay(today.AddDate(0, 0, -1), o.window)
	case models.RangeLast7Days:
		return wholeDays(today.AddDate(0, 0, -6), today), nil
	case models.RangeLast30Days:
		return wholeDays(today.AddDate(0, 0, -29), today), nil
	case models.RangeThisMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return wholeDays(first, today), nil
	case models.RangeLastMonth:
		firstThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return wholeDays(firstThis.AddDate(0, -1, 0), firstThis.AddDate(0, 0, -1)), nil
	case models.RangeSingleDay:
		if strings.TrimSpace(customStart) == "" {
			return nil, fmt.Errorf("single day: %w", ErrMissingBound)
		}
		day, _, err := parseBound(customStart, loc)
		if err != nil {
			return nil, err
		}
		return wholeDays(startOfDay(day), startOfDay(day)), nil
	case models.RangeCustom:
		return resolveCustom(customStart, customEnd, loc)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}

// FromFilter resolves the interval described by a filter state.
func FromFilter(f models.FilterState, now time.Time) (*models.ResolvedRange, error) {
	return Resolve(f.DateRange, now, f.CustomStart, f.CustomEnd, WithTimeWindow(f.TimeOfDay.Window()))
}

// ValidateBounds checks that two custom bounds, when both set, are
// ordered. Empty bounds are accepted.
func ValidateBounds(customStart, customEnd string, loc *time.Location) error {
	if strings.TrimSpace(customStart) == "" || strings.TrimSpace(customEnd) == "" {
		return nil
	}
	_, err := resolveCustom(customStart, customEnd, loc)
	return err
}

// ISODates returns the YYYY-MM-DD dates of both ends of r.
func ISODates(r *models.ResolvedRange) (start, end string) {
	if r == nil {
		return "", ""
	}
	return r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly)
}

func resolveCustom(customStart, customEnd string, loc *time.Location) (*models.ResolvedRange, error) {
	if strings.TrimSpace(customStart) == "" || strings.TrimSpace(customEnd) == "" {
		return nil, fmt.Errorf("custom range: %w", ErrMissingBound)
	}

	start, _, err := parseBound(customStart, loc)
	if err != nil {
		return nil, err
	}
	end, endHasTime, err := parseBound(customEnd, loc)
	if err != nil {
		return nil, err
	}
	if !endHasTime {
		end = endOfDay(end)
	}

	if start.After(end) {
		return nil, &InvalidRangeError{Start: start, End: end}
	}
	return &models.ResolvedRange{Start: start, End: end}, nil
}

// parseBound parses a date or date-time bound. Date-only values resolve to
// midnight and report hasTime=false.
func parseBound(value string, loc *time.Location) (t time.Time, hasTime bool, err error) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation(time.DateOnly, value, loc); err == nil {
		return t, false, nil
	}
	for _, layout := range boundLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.In(loc), true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w: %q", ErrBadBound, value)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// endOfDay returns the last millisecond of t's calendar day. Wall-clock
// construction keeps the result on that day across DST shifts.
func endOfDay(t time.Time) time.Time {
	return clockOn(t, 23, 59, 59, 999)
}

func clockOn(day time.Time, hour, minute, sec, ms int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, minute, sec, ms*int(time.Millisecond), day.Location())
}

func wholeDays(first, last time.Time) *models.ResolvedRange {
	return &models.ResolvedRange{Start: first, End: endOfDay(last)}
}

// narrowDay returns the full day starting at dayStart, clipped to the
// window. The result never leaves that calendar day.
func narrowDay(dayStart time.Time, w models.TimeWindow) (*models.ResolvedRange, error) {
	r := wholeDays(dayStart, dayStart)
	if w.IsZero() {
		return r, nil
	}

	from := clockOn(dayStart, w.From.Hour, w.From.Minute, 0, 0)
	to := clockOn(dayStart, w.To.Hour, w.To.Minute, 59, 999)
	if from.After(r.Start) {
		r.Start = from
	}
	if to.Before(r.End) {
		r.End = to
	}
	if r.Start.After(r.End) {
		return nil, &InvalidRangeError{Start: r.Start, End: r.End}
	}
	return r, nil
}
