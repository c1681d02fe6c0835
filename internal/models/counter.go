// Package models defines data structures and domain types.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CounterStatus is the display status derived from a record's activity flag.
type CounterStatus string

// Counter status values.
const (
	StatusInProgress CounterStatus = "In Progress"
	StatusCompleted  CounterStatus = "Completed"
)

// CounterRecord is one vehicle's passenger counter reading.
type CounterRecord struct {
	RecordedAt time.Time `json:"recordedAt,omitzero"`
	VehicleID  string    `json:"vehicleId"`
	CompanyID  string    `json:"companyId"`
	CameraID   string    `json:"cameraId,omitempty"`
	Route      string    `json:"route,omitempty"`
	ID         int64     `json:"id"`
	CounterID  int64     `json:"counterId"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	InCount    int       `json:"inCount"`
	OutCount   int       `json:"outCount"`
	Active     bool      `json:"active"`
}

// Passengers returns the number of passengers still on board.
func (r CounterRecord) Passengers() int {
	return max(0, r.InCount-r.OutCount)
}

// Status returns the display status of the record.
func (r CounterRecord) Status() CounterStatus {
	if r.Active {
		return StatusInProgress
	}
	return StatusCompleted
}

// HasPosition reports whether the record carries usable coordinates.
func (r CounterRecord) HasPosition() bool {
	return r.Lat != 0 || r.Lng != 0
}

// RawCounter is the wire shape returned by the counter API.
// Numeric fields may arrive either as JSON numbers or as strings.
type RawCounter struct {
	ID         FlexString `json:"counter_id"`
	DeviceID   FlexString `json:"counter_device_id"`
	BusID      FlexString `json:"counter_bus_id"`
	CompanyID  FlexString `json:"counter_com_id"`
	Lat        FlexString `json:"counter_lat"`
	Lng        FlexString `json:"counter_lng"`
	InCount    FlexString `json:"counter_in_count"`
	OutCount   FlexString `json:"counter_out_count"`
	CameraID   FlexString `json:"counter_installed_camera_id"`
	Active     FlexString `json:"counter_active"`
	Route      FlexString `json:"counter_route"`
	RecordedAt FlexString `json:"counter_created_at"`
}

// ToRecord maps the wire shape onto a CounterRecord.
// Unparseable numbers become zero and negative counts are clamped.
func (raw RawCounter) ToRecord() CounterRecord {
	id := raw.ID.Int64()
	counterID := id
	if raw.DeviceID != "" {
		counterID = raw.DeviceID.Int64()
	}

	return CounterRecord{
		ID:         id,
		CounterID:  counterID,
		VehicleID:  raw.BusID.String(),
		CompanyID:  raw.CompanyID.String(),
		Lat:        raw.Lat.Float64(),
		Lng:        raw.Lng.Float64(),
		InCount:    max(0, int(raw.InCount.Int64())),
		OutCount:   max(0, int(raw.OutCount.Int64())),
		CameraID:   raw.CameraID.String(),
		Route:      raw.Route.String(),
		Active:     raw.Active.Bool(),
		RecordedAt: raw.RecordedAt.Time(),
	}
}

// FlexString accepts a JSON string, number, boolean or null and keeps
// its textual form.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode string: %w", err)
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	*f = FlexString(data)
	return nil
}

// String returns the raw text.
func (f FlexString) String() string {
	return string(f)
}

// Int64 parses the value as an integer, truncating decimals. Returns 0 on failure.
func (f FlexString) Int64() int64 {
	if f == "" {
		return 0
	}
	if n, err := strconv.ParseInt(string(f), 10, 64); err == nil {
		return n
	}
	if v, err := strconv.ParseFloat(string(f), 64); err == nil {
		return int64(v)
	}
	return 0
}

// Float64 parses the value as a float. Returns 0 on failure.
func (f FlexString) Float64() float64 {
	v, err := strconv.ParseFloat(string(f), 64)
	if err != nil {
		return 0
	}
	return v
}

// Bool interprets true/1/yes as true.
func (f FlexString) Bool() bool {
	switch strings.ToLower(string(f)) {
	case "true", "1", "yes", "active":
		return true
	}
	return false
}

// Time parses RFC3339 or "2006-01-02 15:04:05" timestamps. Returns the zero time on failure.
func (f FlexString) Time() time.Time {
	if f == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, string(f), time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// CompareIDs orders identifiers numerically when both are integers and
// lexically otherwise. Numbers sort before non-numbers.
func CompareIDs(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}
