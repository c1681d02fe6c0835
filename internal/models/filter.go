package models

import "fmt"

// AllValue is the wildcard accepted by the company, route and vehicle filters.
const AllValue = "all"

// DateRangeMode selects how the fetch interval is derived.
type DateRangeMode string

// Date range modes.
const (
	RangeAll        DateRangeMode = "all"
	RangeToday      DateRangeMode = "today"
	RangeYesterday  DateRangeMode = "yesterday"
	RangeLast7Days  DateRangeMode = "last_7_days"
	RangeLast30Days DateRangeMode = "last_30_days"
	RangeThisMonth  DateRangeMode = "this_month"
	RangeLastMonth  DateRangeMode = "last_month"
	RangeSingleDay  DateRangeMode = "single_day"
	RangeCustom     DateRangeMode = "custom"
)

// DateRangeModes lists every mode in display order.
var DateRangeModes = []DateRangeMode{
	RangeToday, RangeYesterday, RangeLast7Days, RangeLast30Days,
	RangeThisMonth, RangeLastMonth, RangeSingleDay, RangeCustom, RangeAll,
}

// Label returns a human-readable name for the mode.
func (m DateRangeMode) Label() string {
	switch m {
	case RangeAll:
		return "All time"
	case RangeToday:
		return "Today"
	case RangeYesterday:
		return "Yesterday"
	case RangeLast7Days:
		return "Last 7 days"
	case RangeLast30Days:
		return "Last 30 days"
	case RangeThisMonth:
		return "This month"
	case RangeLastMonth:
		return "Last month"
	case RangeSingleDay:
		return "Single day"
	case RangeCustom:
		return "Custom"
	}
	return string(m)
}

// Valid reports whether m is a known mode.
func (m DateRangeMode) Valid() bool {
	for _, known := range DateRangeModes {
		if m == known {
			return true
		}
	}
	return false
}

// ChartType selects the per-company chart rendering.
type ChartType string

// Chart types.
const (
	ChartBar ChartType = "bar"
	ChartPie ChartType = "pie"
)

// MapViewMode selects which count the map markers display.
type MapViewMode string

// Map view modes.
const (
	MapViewAll MapViewMode = "all"
	MapViewIn  MapViewMode = "in"
	MapViewOut MapViewMode = "out"
)

// TimeOfDay is a preset that narrows single-day ranges to part of the day.
type TimeOfDay string

// Time of day presets.
const (
	AllDay    TimeOfDay = "all_day"
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// TimesOfDay lists every preset in display order.
var TimesOfDay = []TimeOfDay{AllDay, Morning, Afternoon, Evening, Night}

// Clock is a wall-clock time of day at minute resolution.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// TimeWindow bounds part of a day. Both ends are inclusive to the minute.
type TimeWindow struct {
	From Clock
	To   Clock
}

// IsZero reports whether the window is unset, meaning the whole day.
func (w TimeWindow) IsZero() bool {
	return w == TimeWindow{}
}

// Window returns the time window for the preset. AllDay yields the zero window.
func (t TimeOfDay) Window() TimeWindow {
	switch t {
	case Morning:
		return TimeWindow{From: Clock{5, 0}, To: Clock{11, 59}}
	case Afternoon:
		return TimeWindow{From: Clock{12, 0}, To: Clock{16, 59}}
	case Evening:
		return TimeWindow{From: Clock{17, 0}, To: Clock{20, 59}}
	case Night:
		return TimeWindow{From: Clock{21, 0}, To: Clock{23, 59}}
	}
	return TimeWindow{}
}

// Label returns a human-readable name for the preset.
func (t TimeOfDay) Label() string {
	switch t {
	case Morning:
		return "Morning"
	case Afternoon:
		return "Afternoon"
	case Evening:
		return "Evening"
	case Night:
		return "Night"
	}
	return "All day"
}

// FilterKey names a mutable field of FilterState.
type FilterKey string

// Filter keys accepted by SetFilter.
const (
	FilterCompany     FilterKey = "companyId"
	FilterDateRange   FilterKey = "dateRange"
	FilterCustomStart FilterKey = "customStart"
	FilterCustomEnd   FilterKey = "customEnd"
	FilterTimeOfDay   FilterKey = "timeOfDay"
	FilterRoute       FilterKey = "route"
	FilterVehicle     FilterKey = "vehicleId"
	FilterChartType   FilterKey = "chartType"
	FilterMapView     FilterKey = "mapViewMode"
)

// AffectsRange reports whether changing the key can move the resolved
// fetch interval.
func (k FilterKey) AffectsRange() bool {
	switch k {
	case FilterDateRange, FilterCustomStart, FilterCustomEnd, FilterTimeOfDay:
		return true
	}
	return false
}

// FilterState is the full set of user-selected filters.
type FilterState struct {
	CompanyID   string
	DateRange   DateRangeMode
	CustomStart string
	CustomEnd   string
	TimeOfDay   TimeOfDay
	Route       string
	VehicleID   string
	ChartType   ChartType
	MapViewMode MapViewMode
}

// DefaultFilterState returns the filters the dashboard starts with.
func DefaultFilterState() FilterState {
	return FilterState{
		CompanyID:   AllValue,
		DateRange:   RangeToday,
		TimeOfDay:   AllDay,
		Route:       AllValue,
		VehicleID:   AllValue,
		ChartType:   ChartBar,
		MapViewMode: MapViewAll,
	}
}

// Get returns the current value for key.
func (f FilterState) Get(key FilterKey) string {
	switch key {
	case FilterCompany:
		return f.CompanyID
	case FilterDateRange:
		return string(f.DateRange)
	case FilterCustomStart:
		return f.CustomStart
	case FilterCustomEnd:
		return f.CustomEnd
	case FilterTimeOfDay:
		return string(f.TimeOfDay)
	case FilterRoute:
		return f.Route
	case FilterVehicle:
		return f.VehicleID
	case FilterChartType:
		return string(f.ChartType)
	case FilterMapView:
		return string(f.MapViewMode)
	}
	return ""
}

// With returns a copy of f with key set to value. Enumerated keys are
// validated; free-form keys are accepted as-is, with empty values for the
// wildcard keys normalised to AllValue.
func (f FilterState) With(key FilterKey, value string) (FilterState, error) {
	switch key {
	case FilterCompany:
		f.CompanyID = orAll(value)
	case FilterRoute:
		f.Route = orAll(value)
	case FilterVehicle:
		f.VehicleID = orAll(value)
	case FilterCustomStart:
		f.CustomStart = value
	case FilterCustomEnd:
		f.CustomEnd = value
	case FilterDateRange:
		mode := DateRangeMode(value)
		if !mode.Valid() {
			return f, fmt.Errorf("unknown date range %q", value)
		}
		f.DateRange = mode
	case FilterTimeOfDay:
		tod := TimeOfDay(value)
		switch tod {
		case AllDay, Morning, Afternoon, Evening, Night:
		default:
			return f, fmt.Errorf("unknown time of day %q", value)
		}
		f.TimeOfDay = tod
	case FilterChartType:
		switch ChartType(value) {
		case ChartBar, ChartPie:
		default:
			return f, fmt.Errorf("unknown chart type %q", value)
		}
		f.ChartType = ChartType(value)
	case FilterMapView:
		switch MapViewMode(value) {
		case MapViewAll, MapViewIn, MapViewOut:
		default:
			return f, fmt.Errorf("unknown map view mode %q", value)
		}
		f.MapViewMode = MapViewMode(value)
	default:
		return f, fmt.Errorf("unknown filter key %q", key)
	}
	return f, nil
}

func orAll(value string) string {
	if value == "" {
		return AllValue
	}
	return value
}
