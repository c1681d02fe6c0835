// Package counters provides the sources of passenger counter records:
// the counter HTTP API and a watched local JSON file.
package counters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/j-veylop/bus-counter-tui/internal/daterange"
	"github.com/j-veylop/bus-counter-tui/internal/models"
)

// Repository fetches counter records. Dates are YYYY-MM-DD.
type Repository interface {
	FetchAll(ctx context.Context) ([]models.CounterRecord, error)
	FetchByDate(ctx context.Context, date string) ([]models.CounterRecord, error)
	FetchByDateRange(ctx context.Context, start, end string) ([]models.CounterRecord, error)
}

// ErrSourceRejected is returned when the payload envelope reports failure.
var ErrSourceRejected = errors.New("counter source rejected request")

// FetchRange picks the repository call matching r: everything for a nil
// range, a single date when both ends share a day, a date range otherwise.
func FetchRange(ctx context.Context, repo Repository, r *models.ResolvedRange) ([]models.CounterRecord, error) {
	if r == nil {
		return repo.FetchAll(ctx)
	}
	start, end := daterange.ISODates(r)
	if r.SameDay() {
		return repo.FetchByDate(ctx, start)
	}
	return repo.FetchByDateRange(ctx, start, end)
}

type envelope struct {
	Success *bool               `json:"success"`
	Message string              `json:"message"`
	Data    []models.RawCounter `json:"data"`
}

// Decode parses either a bare array of raw counters or a
// {"success": ..., "data": [...]} envelope.
func Decode(data []byte) ([]models.CounterRecord, error) {
	var raw []models.RawCounter
	if err := json.Unmarshal(data, &raw); err != nil {
		var env envelope
		if envErr := json.Unmarshal(data, &env); envErr != nil {
			return nil, fmt.Errorf("failed to decode counters: %w", err)
		}
		if env.Success != nil && !*env.Success {
			return nil, fmt.Errorf("%w: %s", ErrSourceRejected, env.Message)
		}
		raw = env.Data
	}

	records := make([]models.CounterRecord, len(raw))
	for i, r := range raw {
		records[i] = r.ToRecord()
	}
	return records, nil
}
