package counters

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/j-veylop/bus-counter-tui/internal/models"
)

type MockRoundTripper struct {
	RoundTripFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.RoundTripFunc(req)
}

func respond(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

const twoCounters = `[
	{"counter_id": 1, "counter_bus_id": "V1", "counter_com_id": "A", "counter_in_count": 10, "counter_out_count": 4},
	{"counter_id": 2, "counter_bus_id": "V2", "counter_com_id": "B", "counter_in_count": 3, "counter_out_count": 1}
]`

func newTestRepo(t *testing.T, attempts int, fn func(req *http.Request) (*http.Response, error)) *HTTPRepository {
	t.Helper()
	client := &http.Client{Transport: &MockRoundTripper{RoundTripFunc: fn}}
	return NewHTTPRepository(Config{
		BaseURL:       "http://counters.test/api/",
		RetryAttempts: attempts,
		RetryDelay:    time.Millisecond,
	}, client)
}

func TestHTTPRepository_Endpoints(t *testing.T) {
	tests := []struct {
		name string
		call func(r *HTTPRepository) ([]models.CounterRecord, error)
		want string
	}{
		{
			name: "All",
			call: func(r *HTTPRepository) ([]models.CounterRecord, error) { return r.FetchAll(context.Background()) },
			want: "/api/counters",
		},
		{
			name: "ByDate",
			call: func(r *HTTPRepository) ([]models.CounterRecord, error) {
				return r.FetchByDate(context.Background(), "2024-06-01")
			},
			want: "/api/counters/by-date?date=2024-06-01",
		},
		{
			name: "ByDateRange",
			call: func(r *HTTPRepository) ([]models.CounterRecord, error) {
				return r.FetchByDateRange(context.Background(), "2024-06-01", "2024-06-07")
			},
			want: "/api/counters/by-date-range?endDate=2024-06-07&startDate=2024-06-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			repo := newTestRepo(t, 1, func(req *http.Request) (*http.Response, error) {
				got = req.URL.RequestURI()
				return respond(200, twoCounters), nil
			})

			records, err := tt.call(repo)
			if err != nil {
				t.Fatalf("fetch error = %v", err)
			}
			if got != tt.want {
				t.Errorf("request URI = %q, want %q", got, tt.want)
			}
			if len(records) != 2 || records[0].VehicleID != "V1" {
				t.Errorf("records = %+v", records)
			}
		})
	}
}

func TestHTTPRepository_Envelope(t *testing.T) {
	repo := newTestRepo(t, 1, func(*http.Request) (*http.Response, error) {
		return respond(200, `{"success": true, "data": `+twoCounters+`}`), nil
	})

	records, err := repo.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("len(records) = %d, want 2", len(records))
	}
}

func TestHTTPRepository_RejectedEnvelope(t *testing.T) {
	repo := newTestRepo(t, 3, func(*http.Request) (*http.Response, error) {
		return respond(200, `{"success": false, "message": "db offline"}`), nil
	})

	_, err := repo.FetchAll(context.Background())
	if !errors.Is(err, ErrSourceRejected) {
		t.Errorf("FetchAll() error = %v, want ErrSourceRejected", err)
	}
}

func TestHTTPRepository_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	repo := newTestRepo(t, 3, func(*http.Request) (*http.Response, error) {
		if calls.Add(1) < 3 {
			return respond(503, "busy"), nil
		}
		return respond(200, twoCounters), nil
	})

	records, err := repo.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if len(records) != 2 {
		t.Errorf("len(records) = %d, want 2", len(records))
	}
}

func TestHTTPRepository_GivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	repo := newTestRepo(t, 2, func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, errors.New("connection refused")
	})

	if _, err := repo.FetchAll(context.Background()); err == nil {
		t.Fatal("FetchAll() error = nil, want failure")
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestHTTPRepository_UnsetAttemptsUseDefault(t *testing.T) {
	for _, attempts := range []int{0, -2} {
		var calls atomic.Int32
		repo := newTestRepo(t, attempts, func(*http.Request) (*http.Response, error) {
			calls.Add(1)
			return nil, errors.New("connection refused")
		})

		if _, err := repo.FetchAll(context.Background()); err == nil {
			t.Fatalf("attempts %d: FetchAll() error = nil, want failure", attempts)
		}
		if want := int32(DefaultConfig().RetryAttempts); calls.Load() != want {
			t.Errorf("attempts %d: calls = %d, want %d", attempts, calls.Load(), want)
		}
	}
}

func TestHTTPRepository_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	repo := newTestRepo(t, 5, func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return respond(404, "not found"), nil
	})

	_, err := repo.FetchAll(context.Background())
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("FetchAll() error = %v, want ErrUnexpectedStatus", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestHTTPRepository_BadJSONNotRetried(t *testing.T) {
	var calls atomic.Int32
	repo := newTestRepo(t, 5, func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return respond(200, "<html>"), nil
	})

	if _, err := repo.FetchAll(context.Background()); err == nil {
		t.Fatal("FetchAll() error = nil, want decode failure")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestNewHTTPRepository_Defaults(t *testing.T) {
	repo := NewHTTPRepository(Config{}, nil)
	if repo.config.BaseURL != "http://localhost:3000/api" {
		t.Errorf("BaseURL = %q", repo.config.BaseURL)
	}
	if repo.client.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", repo.client.Timeout)
	}
}

type recordingRepo struct {
	call string
	args []string
}

func (r *recordingRepo) FetchAll(context.Context) ([]models.CounterRecord, error) {
	r.call = "all"
	return nil, nil
}

func (r *recordingRepo) FetchByDate(_ context.Context, date string) ([]models.CounterRecord, error) {
	r.call, r.args = "date", []string{date}
	return nil, nil
}

func (r *recordingRepo) FetchByDateRange(_ context.Context, start, end string) ([]models.CounterRecord, error) {
	r.call, r.args = "range", []string{start, end}
	return nil, nil
}

func TestFetchRange(t *testing.T) {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	endOfDay := day.Add(24*time.Hour - time.Millisecond)

	tests := []struct {
		name     string
		r        *models.ResolvedRange
		wantCall string
		wantArgs []string
	}{
		{"Unbounded", nil, "all", nil},
		{"SingleDay", &models.ResolvedRange{Start: day.Add(5 * time.Hour), End: endOfDay}, "date", []string{"2024-06-01"}},
		{"MultiDay", &models.ResolvedRange{Start: day, End: endOfDay.AddDate(0, 0, 6)}, "range", []string{"2024-06-01", "2024-06-07"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &recordingRepo{}
			if _, err := FetchRange(context.Background(), repo, tt.r); err != nil {
				t.Fatalf("FetchRange() error = %v", err)
			}
			if repo.call != tt.wantCall {
				t.Errorf("call = %q, want %q", repo.call, tt.wantCall)
			}
			if strings.Join(repo.args, ",") != strings.Join(tt.wantArgs, ",") {
				t.Errorf("args = %v, want %v", repo.args, tt.wantArgs)
			}
		})
	}
}
