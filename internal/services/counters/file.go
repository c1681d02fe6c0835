package counters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/bus-counter-tui/internal/logger"
	"github.com/j-veylop/bus-counter-tui/internal/models"
)

// EventType defines the type of file source event.
type EventType int

const (
	// EventSourceChanged indicates the file was rewritten and should be refetched.
	EventSourceChanged EventType = iota
	// EventSourceError indicates the watcher or a reload failed.
	EventSourceError
)

// Event represents a file source event.
type Event struct {
	Error error
	Type  EventType
}

const debounceInterval = 100 * time.Millisecond

// FileRepository serves counters from a JSON file and watches it for
// changes. The file holds the same payload the API returns.
type FileRepository struct {
	watcher       *fsnotify.Watcher
	debounceTimer *time.Timer
	eventChan     chan Event
	stopChan      chan struct{}
	path          string
	records       []models.CounterRecord
	mu            sync.RWMutex
	closeOnce     sync.Once
}

// NewFileRepository loads path and starts watching its directory.
func NewFileRepository(path string) (*FileRepository, error) {
	r := &FileRepository{
		path:      path,
		eventChan: make(chan Event, 16),
		stopChan:  make(chan struct{}),
	}

	if err := r.reload(); err != nil {
		return nil, err
	}
	if err := r.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}
	return r, nil
}

// Events returns the channel of change notifications.
func (r *FileRepository) Events() <-chan Event {
	return r.eventChan
}

// Path returns the watched file.
func (r *FileRepository) Path() string {
	return r.path
}

// FetchAll returns every record in the file.
func (r *FileRepository) FetchAll(ctx context.Context) ([]models.CounterRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.CounterRecord, len(r.records))
	copy(out, r.records)
	return out, nil
}

// FetchByDate returns records timestamped on date.
func (r *FileRepository) FetchByDate(ctx context.Context, date string) ([]models.CounterRecord, error) {
	return r.FetchByDateRange(ctx, date, date)
}

// FetchByDateRange returns records timestamped between start and end
// inclusive. Records without a timestamp are excluded.
func (r *FileRepository) FetchByDateRange(ctx context.Context, start, end string) ([]models.CounterRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	from, err := time.ParseInLocation(time.DateOnly, start, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	to, err := time.ParseInLocation(time.DateOnly, end, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	to = to.AddDate(0, 0, 1)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.CounterRecord
	for _, rec := range r.records {
		if rec.RecordedAt.IsZero() {
			continue
		}
		if !rec.RecordedAt.Before(from) && rec.RecordedAt.Before(to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *FileRepository) reload() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("failed to read counter file: %w", err)
	}
	records, err := Decode(data)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.records = records
	r.mu.Unlock()
	return nil
}

func (r *FileRepository) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	r.watcher = watcher

	// Watch the directory so editors that replace the file are caught.
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go r.watchLoop()
	return nil
}

func (r *FileRepository) watchLoop() {
	for {
		select {
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(r.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				r.mu.Lock()
				if r.debounceTimer != nil {
					r.debounceTimer.Stop()
				}
				r.debounceTimer = time.AfterFunc(debounceInterval, r.handleFileChange)
				r.mu.Unlock()
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.sendEvent(Event{Type: EventSourceError, Error: err})

		case <-r.stopChan:
			return
		}
	}
}

func (r *FileRepository) handleFileChange() {
	if err := r.reload(); err != nil {
		logger.Warn("counter file reload failed", "path", r.path, "error", err)
		r.sendEvent(Event{Type: EventSourceError, Error: err})
		return
	}
	r.sendEvent(Event{Type: EventSourceChanged})
}

// sendEvent sends without blocking, dropping the oldest event when full.
func (r *FileRepository) sendEvent(event Event) {
	select {
	case r.eventChan <- event:
	default:
		select {
		case <-r.eventChan:
		default:
		}
		select {
		case r.eventChan <- event:
		default:
		}
	}
}

// Close stops the watcher.
func (r *FileRepository) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.stopChan)

		r.mu.Lock()
		if r.debounceTimer != nil {
			r.debounceTimer.Stop()
		}
		r.mu.Unlock()

		if r.watcher != nil {
			err = r.watcher.Close()
		}
	})
	return err
}
