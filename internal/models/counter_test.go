package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCounterRecord_Passengers(t *testing.T) {
	tests := []struct {
		name string
		in   int
		out  int
		want int
	}{
		{"MoreIn", 10, 4, 6},
		{"Equal", 5, 5, 0},
		{"MoreOut", 3, 8, 0},
		{"Zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CounterRecord{InCount: tt.in, OutCount: tt.out}
			if got := r.Passengers(); got != tt.want {
				t.Errorf("Passengers() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCounterRecord_Status(t *testing.T) {
	if got := (CounterRecord{Active: true}).Status(); got != StatusInProgress {
		t.Errorf("Status() = %q, want %q", got, StatusInProgress)
	}
	if got := (CounterRecord{}).Status(); got != StatusCompleted {
		t.Errorf("Status() = %q, want %q", got, StatusCompleted)
	}
}

func TestRawCounter_ToRecord(t *testing.T) {
	payload := `{
		"counter_id": 42,
		"counter_bus_id": "BUS-7",
		"counter_com_id": 3,
		"counter_lat": "13.7563",
		"counter_lng": "100.5018",
		"counter_in_count": "12",
		"counter_out_count": -2,
		"counter_installed_camera_id": "CAM-1",
		"counter_active": 1,
		"counter_route": "R1",
		"counter_created_at": "2024-06-01T08:30:00Z"
	}`

	var raw RawCounter
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	rec := raw.ToRecord()
	if rec.ID != 42 || rec.CounterID != 42 {
		t.Errorf("ID/CounterID = %d/%d, want 42/42", rec.ID, rec.CounterID)
	}
	if rec.VehicleID != "BUS-7" {
		t.Errorf("VehicleID = %q, want %q", rec.VehicleID, "BUS-7")
	}
	if rec.CompanyID != "3" {
		t.Errorf("CompanyID = %q, want %q", rec.CompanyID, "3")
	}
	if rec.Lat != 13.7563 || rec.Lng != 100.5018 {
		t.Errorf("Lat/Lng = %v/%v, want 13.7563/100.5018", rec.Lat, rec.Lng)
	}
	if rec.InCount != 12 {
		t.Errorf("InCount = %d, want 12", rec.InCount)
	}
	if rec.OutCount != 0 {
		t.Errorf("OutCount = %d, want 0 (clamped)", rec.OutCount)
	}
	if !rec.Active {
		t.Error("Active should be true")
	}
	if rec.Route != "R1" || rec.CameraID != "CAM-1" {
		t.Errorf("Route/CameraID = %q/%q", rec.Route, rec.CameraID)
	}
	want := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	if !rec.RecordedAt.Equal(want) {
		t.Errorf("RecordedAt = %v, want %v", rec.RecordedAt, want)
	}
}

func TestRawCounter_DeviceID(t *testing.T) {
	var raw RawCounter
	if err := json.Unmarshal([]byte(`{"counter_id":"5","counter_device_id":"9001","counter_lat":null}`), &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	rec := raw.ToRecord()
	if rec.ID != 5 || rec.CounterID != 9001 {
		t.Errorf("ID/CounterID = %d/%d, want 5/9001", rec.ID, rec.CounterID)
	}
	if rec.HasPosition() {
		t.Error("HasPosition() should be false without coordinates")
	}
}

func TestCompareIDs(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"9", "10", -1},
		{"10", "9", 1},
		{"7", "7", 0},
		{"A", "B", -1},
		{"2", "A", -1},
		{"A", "2", 1},
	}

	for _, tt := range tests {
		if got := CompareIDs(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareIDs(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
