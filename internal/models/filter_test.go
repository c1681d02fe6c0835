package models

import (
	"testing"
	"time"
)

func TestDefaultFilterState(t *testing.T) {
	f := DefaultFilterState()

	if f.CompanyID != AllValue || f.Route != AllValue || f.VehicleID != AllValue {
		t.Errorf("wildcard filters = %q/%q/%q, want all", f.CompanyID, f.Route, f.VehicleID)
	}
	if f.DateRange != RangeToday {
		t.Errorf("DateRange = %q, want %q", f.DateRange, RangeToday)
	}
	if f.ChartType != ChartBar {
		t.Errorf("ChartType = %q, want %q", f.ChartType, ChartBar)
	}
	if f.MapViewMode != MapViewAll {
		t.Errorf("MapViewMode = %q, want %q", f.MapViewMode, MapViewAll)
	}
}

func TestFilterState_With(t *testing.T) {
	base := DefaultFilterState()

	tests := []struct {
		name    string
		key     FilterKey
		value   string
		wantErr bool
	}{
		{"Company", FilterCompany, "3", false},
		{"EmptyCompanyIsAll", FilterCompany, "", false},
		{"DateRange", FilterDateRange, "last_7_days", false},
		{"BadDateRange", FilterDateRange, "fortnight", true},
		{"TimeOfDay", FilterTimeOfDay, "night", false},
		{"BadTimeOfDay", FilterTimeOfDay, "noon", true},
		{"ChartPie", FilterChartType, "pie", false},
		{"BadChart", FilterChartType, "line", true},
		{"MapOut", FilterMapView, "out", false},
		{"BadMap", FilterMapView, "sideways", true},
		{"UnknownKey", FilterKey("color"), "red", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := base.With(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("With() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			want := tt.value
			if want == "" {
				want = AllValue
			}
			if got.Get(tt.key) != want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got.Get(tt.key), want)
			}
		})
	}
}

func TestFilterKey_AffectsRange(t *testing.T) {
	for _, k := range []FilterKey{FilterDateRange, FilterCustomStart, FilterCustomEnd, FilterTimeOfDay} {
		if !k.AffectsRange() {
			t.Errorf("%q.AffectsRange() = false, want true", k)
		}
	}
	for _, k := range []FilterKey{FilterCompany, FilterRoute, FilterVehicle, FilterChartType, FilterMapView} {
		if k.AffectsRange() {
			t.Errorf("%q.AffectsRange() = true, want false", k)
		}
	}
}

func TestTimeOfDay_Window(t *testing.T) {
	if !AllDay.Window().IsZero() {
		t.Error("AllDay window should be zero")
	}
	w := Morning.Window()
	if w.From != (Clock{Hour: 5}) {
		t.Errorf("Morning.From = %v, want 05:00", w.From)
	}
	if w.To.String() != "11:59" {
		t.Errorf("Morning.To = %q, want 11:59", w.To.String())
	}
}

func TestResolvedRange(t *testing.T) {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	r := &ResolvedRange{Start: day, End: day.Add(24*time.Hour - time.Millisecond)}

	if !r.SameDay() {
		t.Error("SameDay() = false, want true")
	}
	if !r.Contains(day.Add(12 * time.Hour)) {
		t.Error("Contains(noon) = false, want true")
	}
	if r.Contains(day.Add(24 * time.Hour)) {
		t.Error("Contains(next midnight) = true, want false")
	}
	if r.Key() != "2024-06-01..2024-06-01" {
		t.Errorf("Key() = %q", r.Key())
	}

	var unbounded *ResolvedRange
	if !unbounded.Contains(day) {
		t.Error("nil range should contain everything")
	}
	if unbounded.Key() != "all" {
		t.Errorf("nil Key() = %q, want all", unbounded.Key())
	}
}

func TestPageItem_String(t *testing.T) {
	if got := (PageItem{Number: 7}).String(); got != "7" {
		t.Errorf("String() = %q, want 7", got)
	}
	if got := (PageItem{Ellipsis: true}).String(); got != "…" {
		t.Errorf("String() = %q, want …", got)
	}
}
