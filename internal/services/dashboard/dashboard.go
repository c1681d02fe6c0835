// Package dashboard owns the filter state and keeps the fetched records,
// aggregates, current page and map markers consistent with it.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/j-veylop/bus-counter-tui/internal/aggregate"
	"github.com/j-veylop/bus-counter-tui/internal/daterange"
	"github.com/j-veylop/bus-counter-tui/internal/logger"
	"github.com/j-veylop/bus-counter-tui/internal/models"
	"github.com/j-veylop/bus-counter-tui/internal/paginate"
	"github.com/j-veylop/bus-counter-tui/internal/services/counters"
)

// ErrStaleResponse is returned by FetchBuses when a newer fetch started
// before this one completed. The response is discarded.
var ErrStaleResponse = errors.New("stale fetch response discarded")

// MarkerSink receives the filtered records whenever they change.
type MarkerSink interface {
	SetRecords(records []models.CounterRecord, mode models.MapViewMode)
}

// Change describes the effect of a SetFilter call.
type Change struct {
	// RangeErr is set when the new filters do not resolve to an interval
	// yet, e.g. custom mode before both bounds are entered.
	RangeErr     error
	Key          models.FilterKey
	NeedsFetch   bool
	VehicleReset bool
}

// FetchResult describes a completed fetch.
type FetchResult struct {
	Range *models.ResolvedRange
	// Fetched is the repository's answer before narrowing to Range. It
	// covers whole days and is what the snapshot cache stores.
	Fetched     []models.CounterRecord
	Duration    time.Duration
	Generation  uint64
	RecordCount int
}

// Snapshot is a consistent copy of everything the views render.
type Snapshot struct {
	LastFetched  time.Time
	FetchErr     error
	Range        *models.ResolvedRange
	Filter       models.FilterState
	Companies    []string
	Vehicles     []string
	Routes       []string
	Result       models.AggregateResult
	Page         models.PageWindow
	Generation   uint64
	TotalFetched int
	Loading      bool
	FromCache    bool
}

// Controller is the single owner of FilterState. All methods are safe for
// concurrent use; fetches complete on caller goroutines.
type Controller struct {
	repo        counters.Repository
	markers     MarkerSink
	now         func() time.Time
	cursor      *paginate.Cursor
	fetched     *models.ResolvedRange
	requested   *models.ResolvedRange
	fetchErr    error
	lastFetched time.Time
	records     []models.CounterRecord
	result      models.AggregateResult
	page        models.PageWindow
	filter      models.FilterState
	generation  uint64
	hasFetched  bool
	requesting  bool
	loading     bool
	fromCache   bool
	mu          sync.RWMutex
}

// Option customises a Controller.
type Option func(*Controller)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithMarkers attaches the map marker sink.
func WithMarkers(sink MarkerSink) Option {
	return func(c *Controller) {
		c.markers = sink
	}
}

// WithPageSize sets the initial page size.
func WithPageSize(size int) Option {
	return func(c *Controller) {
		c.cursor = paginate.NewCursor(size)
	}
}

// WithFilter replaces the default initial filters.
func WithFilter(f models.FilterState) Option {
	return func(c *Controller) {
		c.filter = f
	}
}

// New creates a controller with default filters and no records.
func New(repo counters.Repository, opts ...Option) *Controller {
	c := &Controller{
		repo:   repo,
		now:    time.Now,
		filter: models.DefaultFilterState(),
		cursor: paginate.NewCursor(paginate.DefaultPageSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.recompute()
	return c
}

// SetFilter is the only way to change the filters. Every accepted change
// re-aggregates, returns to page 1 and rebuilds the markers. The returned
// Change reports whether the caller must refetch.
func (c *Controller) SetFilter(key models.FilterKey, value string) (Change, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	change := Change{Key: key}

	next, err := c.filter.With(key, value)
	if err != nil {
		return change, err
	}

	if key == models.FilterCustomStart || key == models.FilterCustomEnd {
		if err := daterange.ValidateBounds(next.CustomStart, next.CustomEnd, c.now().Location()); err != nil {
			return change, err
		}
	}

	if key == models.FilterCompany && next.VehicleID != models.AllValue {
		if !slices.Contains(aggregate.Vehicles(c.records, next.CompanyID), next.VehicleID) {
			next.VehicleID = models.AllValue
			change.VehicleReset = true
		}
	}

	c.filter = next

	if key.AffectsRange() {
		resolved, err := daterange.FromFilter(next, c.now())
		switch {
		case err != nil:
			change.RangeErr = err
		case !c.requesting || !sameRange(resolved, c.requested):
			change.NeedsFetch = true
		}
	}

	c.recompute()
	logger.Debug("filter changed", "key", key, "value", value, "needs_fetch", change.NeedsFetch)
	return change, nil
}

// FetchBuses resolves the current range, fetches it and replaces the
// record set. When several fetches overlap only the latest one applies;
// earlier ones return ErrStaleResponse, as does a response whose range no
// longer matches the filters. On failure the previous records and
// aggregates stay in place and the error is kept in the snapshot.
func (c *Controller) FetchBuses(ctx context.Context) (FetchResult, error) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	now := c.now()
	resolved, err := daterange.FromFilter(c.filter, now)
	if err == nil {
		c.requested = resolved
		c.requesting = true
	}
	c.loading = true
	c.mu.Unlock()

	result := FetchResult{Generation: gen}
	if err != nil {
		return result, c.fail(gen, err)
	}
	result.Range = resolved

	start := time.Now()
	records, err := counters.FetchRange(ctx, c.repo, resolved)
	result.Duration = time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		logger.Debug("discarding stale fetch", "generation", gen, "latest", c.generation)
		return result, ErrStaleResponse
	}
	c.loading = false

	if current, rangeErr := daterange.FromFilter(c.filter, now); rangeErr != nil || !sameRange(current, resolved) {
		logger.Debug("discarding fetch for a range no longer selected", "generation", gen, "range", resolved.Key())
		c.abandonRequest()
		return result, ErrStaleResponse
	}

	if err != nil {
		c.abandonRequest()
		c.fetchErr = fmt.Errorf("failed to fetch counters: %w", err)
		return result, c.fetchErr
	}

	result.Fetched = records
	records = narrow(records, resolved)
	result.RecordCount = len(records)

	c.records = records
	c.fetched = resolved
	c.fetchErr = nil
	c.lastFetched = now
	c.hasFetched = true
	c.fromCache = false
	c.recompute()
	return result, nil
}

// abandonRequest points the requested range back at the loaded one after
// the latest fetch produced nothing. Must be called with c.mu held.
func (c *Controller) abandonRequest() {
	c.requested = c.fetched
	c.requesting = c.hasFetched
}

func (c *Controller) fail(gen uint64, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.generation {
		c.loading = false
		c.fetchErr = err
	}
	return err
}

// Seed installs cached records when no fetch has completed yet. It is a
// no-op afterwards so a slow cache read never overwrites live data. The
// records are narrowed to the current range like a fetched set.
func (c *Controller) Seed(records []models.CounterRecord, fetchedAt time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasFetched {
		return false
	}
	if r, err := daterange.FromFilter(c.filter, c.now()); err == nil {
		records = narrow(records, r)
	}
	c.records = records
	c.lastFetched = fetchedAt
	c.fromCache = true
	c.recompute()
	return true
}

// CurrentRange resolves the current filters without fetching.
func (c *Controller) CurrentRange() (*models.ResolvedRange, error) {
	c.mu.RLock()
	f := c.filter
	c.mu.RUnlock()
	return daterange.FromFilter(f, c.now())
}

// GetFilteredBuses returns the records passing the current filters.
func (c *Controller) GetFilteredBuses() []models.CounterRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.result.Records)
}

// GetAvailableCompanies returns the companies present in the fetched records.
func (c *Controller) GetAvailableCompanies() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return aggregate.Companies(c.records)
}

// GetAvailableBusIds returns the vehicles of the selected company, or of
// every company when none is selected.
func (c *Controller) GetAvailableBusIds() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return aggregate.Vehicles(c.records, c.filter.CompanyID)
}

// GetAvailableRoutes returns the route keys present in the fetched records.
func (c *Controller) GetAvailableRoutes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return aggregate.Routes(c.records)
}

// Filter returns the current filters.
func (c *Controller) Filter() models.FilterState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// Page returns the current page window.
func (c *Controller) Page() models.PageWindow {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.page
}

// SetPage moves to page n, clamped to the available pages.
func (c *Controller) SetPage(n int) models.PageWindow {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursor.SetPage(n)
	c.page = c.cursor.Window(c.result.Records)
	return c.page
}

// NextPage advances one page if possible.
func (c *Controller) NextPage() models.PageWindow {
	return c.SetPage(c.Page().PageIndex + 1)
}

// PrevPage goes back one page if possible.
func (c *Controller) PrevPage() models.PageWindow {
	return c.SetPage(c.Page().PageIndex - 1)
}

// SetPageSize changes the page size and returns to page 1.
func (c *Controller) SetPageSize(size int) models.PageWindow {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursor.SetPageSize(size)
	c.page = c.cursor.Window(c.result.Records)
	return c.page
}

// Snapshot returns a consistent copy of the view state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		Filter:       c.filter,
		Range:        c.fetched,
		Result:       c.result,
		Page:         c.page,
		Companies:    aggregate.Companies(c.records),
		Vehicles:     aggregate.Vehicles(c.records, c.filter.CompanyID),
		Routes:       aggregate.Routes(c.records),
		FetchErr:     c.fetchErr,
		LastFetched:  c.lastFetched,
		Generation:   c.generation,
		TotalFetched: len(c.records),
		Loading:      c.loading,
		FromCache:    c.fromCache,
	}
}

// recompute must be called with c.mu held. The new aggregate is built
// before anything is replaced.
func (c *Controller) recompute() {
	result := aggregate.Aggregate(c.records, c.filter)

	c.result = result
	c.cursor.Reset()
	c.page = c.cursor.Window(result.Records)

	if c.markers != nil {
		c.markers.SetRecords(result.Records, c.filter.MapViewMode)
	}
}

// narrow drops timestamped records outside r. The repository answers at
// day granularity, so time-of-day windows are applied here.
func narrow(records []models.CounterRecord, r *models.ResolvedRange) []models.CounterRecord {
	if r == nil {
		return records
	}
	out := records[:0:0]
	for _, rec := range records {
		if rec.RecordedAt.IsZero() || r.Contains(rec.RecordedAt) {
			out = append(out, rec)
		}
	}
	return out
}

func sameRange(a, b *models.ResolvedRange) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Start.Equal(b.Start) && a.End.Equal(b.End)
}
