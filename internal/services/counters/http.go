package counters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/j-veylop/bus-counter-tui/internal/logger"
	"github.com/j-veylop/bus-counter-tui/internal/models"
)

// ErrUnexpectedStatus is wrapped by errors for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Config holds configuration for the HTTP repository.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:       "http://localhost:3000/api",
		Timeout:       10 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    500 * time.Millisecond,
	}
}

// HTTPRepository reads counters from the counter API.
type HTTPRepository struct {
	client *http.Client
	config Config
}

// NewHTTPRepository creates a repository. A nil client gets one with the
// configured timeout.
func NewHTTPRepository(config Config, client *http.Client) *HTTPRepository {
	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = defaults.RetryDelay
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = defaults.RetryAttempts
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	return &HTTPRepository{client: client, config: config}
}

// FetchAll returns every counter.
func (r *HTTPRepository) FetchAll(ctx context.Context) ([]models.CounterRecord, error) {
	return r.get(ctx, "/counters", nil)
}

// FetchByDate returns counters recorded on date.
func (r *HTTPRepository) FetchByDate(ctx context.Context, date string) ([]models.CounterRecord, error) {
	return r.get(ctx, "/counters/by-date", url.Values{"date": {date}})
}

// FetchByDateRange returns counters recorded between start and end inclusive.
func (r *HTTPRepository) FetchByDateRange(ctx context.Context, start, end string) ([]models.CounterRecord, error) {
	return r.get(ctx, "/counters/by-date-range", url.Values{"startDate": {start}, "endDate": {end}})
}

// get performs a GET with bounded exponential retry. Client errors (4xx)
// and undecodable bodies are not retried.
func (r *HTTPRepository) get(ctx context.Context, path string, query url.Values) ([]models.CounterRecord, error) {
	endpoint := r.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var records []models.CounterRecord
	op := func() error {
		body, err := r.do(ctx, endpoint)
		if err != nil {
			return err
		}
		records, err = Decode(body)
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.config.RetryDelay
	b.MaxElapsedTime = 0
	policy := backoff.WithMaxRetries(b, uint64(r.config.RetryAttempts-1))

	notify := func(err error, wait time.Duration) {
		logger.Warn("counter fetch failed, retrying", "url", endpoint, "error", err, "wait", wait)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *HTTPRepository) do(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("counter request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read counter response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, truncate(string(body), 200))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
