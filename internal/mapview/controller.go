// Package mapview keeps map markers in sync with the filtered counter
// records and drives camera moves on an abstract map renderer.
package mapview

import (
	"strconv"
	"sync"
	"time"

	"github.com/golang/geo/s2"

	"github.com/j-veylop/bus-counter-tui/internal/logger"
	"github.com/j-veylop/bus-counter-tui/internal/models"
)

// Camera and layout tuning.
const (
	ZoomThreshold = 12.0
	FlyToZoom     = 15.0
	FlyDuration   = 1500 * time.Millisecond
	PopupBuffer   = 300 * time.Millisecond
	FitPadding    = 60
	FitMaxZoom    = 13.0
	ResizeDelay   = 100 * time.Millisecond

	// InitialZoom is the camera zoom before any records are framed.
	InitialZoom = 11.0
)

// InitialCenter is where the camera starts: central Bangkok.
var InitialCenter = LatLng{Lat: 13.7563, Lng: 100.5018}

// Representation is how a marker is drawn.
type Representation int

// Marker representations.
const (
	Simplified Representation = iota
	Detailed
)

func (r Representation) String() string {
	if r == Detailed {
		return "detailed"
	}
	return "simplified"
}

// RepresentationForZoom returns Simplified below ZoomThreshold and Detailed otherwise.
func RepresentationForZoom(zoom float64) Representation {
	if zoom < ZoomThreshold {
		return Simplified
	}
	return Detailed
}

// LatLng is a geographic position in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// Bounds is a lat/lng rectangle.
type Bounds struct {
	SouthWest LatLng
	NorthEast LatLng
}

// Center returns the midpoint of the bounds.
func (b Bounds) Center() LatLng {
	return LatLng{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lng: (b.SouthWest.Lng + b.NorthEast.Lng) / 2,
	}
}

// BoundsOf returns the smallest rectangle containing every positioned
// record. ok is false when no record has coordinates.
func BoundsOf(records []models.CounterRecord) (b Bounds, ok bool) {
	rect := s2.EmptyRect()
	for _, r := range records {
		if !r.HasPosition() {
			continue
		}
		rect = rect.AddPoint(s2.LatLngFromDegrees(r.Lat, r.Lng))
	}
	if rect.IsEmpty() {
		return Bounds{}, false
	}
	lo, hi := rect.Lo(), rect.Hi()
	return Bounds{
		SouthWest: LatLng{Lat: lo.Lat.Degrees(), Lng: lo.Lng.Degrees()},
		NorthEast: LatLng{Lat: hi.Lat.Degrees(), Lng: hi.Lng.Degrees()},
	}, true
}

// Marker is everything a renderer needs to draw one record.
type Marker struct {
	Record         models.CounterRecord
	Label          string
	Handle         Handle
	Representation Representation
}

// Renderer is the mapping surface the controller drives. Implementations
// must not call back into the controller from these methods.
type Renderer interface {
	// Loaded reports whether the map is ready for mutations.
	Loaded() bool
	// OnLoad registers fn to run once when the map becomes ready.
	OnLoad(fn func())
	Zoom() float64
	CreateMarker(m Marker)
	SetRepresentation(h Handle, rep Representation)
	RemoveMarker(h Handle)
	FlyTo(center LatLng, zoom float64, duration time.Duration)
	FitBounds(b Bounds, padding int, maxZoom float64)
	OpenPopup(h Handle)
	Resize()
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type pendingSet struct {
	records []models.CounterRecord
	mode    models.MapViewMode
}

// Controller owns every marker on the map. All mutations are serialised.
type Controller struct {
	renderer    Renderer
	sched       Scheduler
	popupTimer  Timer
	resizeTimer Timer
	pending     *pendingSet
	live        []Handle
	arena       arena
	rep         Representation
	rebuilds    uint64
	mu          sync.Mutex
	loaded      bool
	closed      bool
}

// Option customises a Controller.
type Option func(*Controller)

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		c.sched = s
	}
}

// NewController attaches a controller to r. If the map is not ready yet,
// mutations are deferred until its load signal fires.
func NewController(r Renderer, opts ...Option) *Controller {
	c := &Controller{
		renderer: r,
		sched:    realScheduler{},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.rep = RepresentationForZoom(r.Zoom())
	if r.Loaded() {
		c.loaded = true
	} else {
		r.OnLoad(c.handleLoad)
	}
	return c
}

func (c *Controller) handleLoad() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded || c.closed {
		return
	}
	c.loaded = true
	c.rep = RepresentationForZoom(c.renderer.Zoom())
	if p := c.pending; p != nil {
		c.pending = nil
		c.rebuild(p.records, p.mode)
	}
}

// SetRecords replaces every marker with one per positioned record. A
// single marker gets a fly-to and a delayed popup; several markers are
// framed with fit-bounds.
func (c *Controller) SetRecords(records []models.CounterRecord, mode models.MapViewMode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if !c.loaded {
		c.pending = &pendingSet{records: records, mode: mode}
		return
	}
	c.rebuild(records, mode)
}

// SetZoom switches every live marker together when the zoom crosses
// ZoomThreshold.
func (c *Controller) SetZoom(zoom float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rep := RepresentationForZoom(zoom)
	if rep == c.rep {
		return
	}
	c.rep = rep
	if !c.loaded {
		return
	}
	for _, h := range c.live {
		c.renderer.SetRepresentation(h, rep)
	}
}

// SyncZoom reads the renderer's current zoom and applies it.
func (c *Controller) SyncZoom() {
	c.SetZoom(c.renderer.Zoom())
}

// Resize re-triggers the renderer's layout after ResizeDelay. Repeated
// calls collapse into one.
func (c *Controller) Resize() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if c.resizeTimer != nil {
		c.resizeTimer.Stop()
	}
	c.resizeTimer = c.sched.AfterFunc(ResizeDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return
		}
		c.renderer.Resize()
	})
}

// Representation returns the representation live markers use.
func (c *Controller) Representation() Representation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rep
}

// Live returns the handles of every live marker.
func (c *Controller) Live() []Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Handle, len(c.live))
	copy(out, c.live)
	return out
}

// IsLive reports whether h still refers to a marker on the map.
func (c *Controller) IsLive(h Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.arena.valid(h)
}

// Pending reports whether a record set is waiting for the map to load.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// Close removes every marker and cancels pending timers.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimers()
	c.clear()
	c.pending = nil
	c.closed = true
}

func (c *Controller) stopTimers() {
	if c.popupTimer != nil {
		c.popupTimer.Stop()
		c.popupTimer = nil
	}
	if c.resizeTimer != nil {
		c.resizeTimer.Stop()
		c.resizeTimer = nil
	}
}

func (c *Controller) clear() {
	for _, h := range c.live {
		if c.arena.release(h) && c.loaded {
			c.renderer.RemoveMarker(h)
		}
	}
	c.live = c.live[:0]
}

// rebuild must be called with c.mu held.
func (c *Controller) rebuild(records []models.CounterRecord, mode models.MapViewMode) {
	if c.popupTimer != nil {
		c.popupTimer.Stop()
		c.popupTimer = nil
	}
	c.clear()
	if c.arena.live != 0 {
		logger.Error("map markers survived rebuild", "count", c.arena.live)
	}
	c.rebuilds++

	var placed []Marker
	for _, r := range records {
		if !r.HasPosition() {
			continue
		}
		m := Marker{
			Handle:         c.arena.alloc(),
			Record:         r,
			Label:          label(r, mode),
			Representation: c.rep,
		}
		c.renderer.CreateMarker(m)
		c.live = append(c.live, m.Handle)
		placed = append(placed, m)
	}

	switch len(placed) {
	case 0:
		return
	case 1:
		target := placed[0]
		c.renderer.FlyTo(LatLng{Lat: target.Record.Lat, Lng: target.Record.Lng}, FlyToZoom, FlyDuration)
		generation := c.rebuilds
		c.popupTimer = c.sched.AfterFunc(FlyDuration+PopupBuffer, func() {
			c.openPopup(target.Handle, generation)
		})
	default:
		if b, ok := BoundsOf(records); ok {
			c.renderer.FitBounds(b, FitPadding, FitMaxZoom)
		}
	}
}

func (c *Controller) openPopup(h Handle, generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || generation != c.rebuilds || !c.arena.valid(h) {
		return
	}
	c.popupTimer = nil
	c.renderer.OpenPopup(h)
}

// label returns the count a marker shows for the map view mode.
func label(r models.CounterRecord, mode models.MapViewMode) string {
	switch mode {
	case models.MapViewIn:
		return strconv.Itoa(r.InCount)
	case models.MapViewOut:
		return strconv.Itoa(r.OutCount)
	}
	return strconv.Itoa(r.Passengers())
}
