// Package aggregate derives dashboard totals, per-company series and
// selector options from a set of counter records.
package aggregate

import (
	"slices"

	"github.com/j-veylop/bus-counter-tui/internal/models"
)

// Aggregate applies the company, route and vehicle filters and computes
// the derived snapshot. The company series deliberately ignores the
// company filter so the chart always compares every company.
func Aggregate(records []models.CounterRecord, filter models.FilterState) models.AggregateResult {
	filtered := make([]models.CounterRecord, 0, len(records))
	vehicles := make(map[string]struct{})
	cameras := make(map[string]struct{})
	series := make(map[string]int)

	var result models.AggregateResult

	for _, r := range records {
		if !matches(filter.Route, r.Route) || !matches(filter.VehicleID, r.VehicleID) {
			continue
		}
		series[r.CompanyID] += r.InCount

		if !matches(filter.CompanyID, r.CompanyID) {
			continue
		}
		filtered = append(filtered, r)
		result.TotalPassengers += r.Passengers()
		if r.Active {
			result.InProgressCount++
		}
		if r.VehicleID != "" {
			vehicles[r.VehicleID] = struct{}{}
		}
		if r.CameraID != "" {
			cameras[r.CameraID] = struct{}{}
		}
	}

	result.Records = filtered
	result.ActiveVehicleCount = len(vehicles)
	result.DistinctCameraCount = len(cameras)
	result.SeriesByCompany = toSeries(series)
	return result
}

// Filter returns the records that pass the company, route and vehicle filters.
func Filter(records []models.CounterRecord, filter models.FilterState) []models.CounterRecord {
	out := make([]models.CounterRecord, 0, len(records))
	for _, r := range records {
		if matches(filter.CompanyID, r.CompanyID) &&
			matches(filter.Route, r.Route) &&
			matches(filter.VehicleID, r.VehicleID) {
			out = append(out, r)
		}
	}
	return out
}

// Companies returns the distinct company ids in ascending order.
func Companies(records []models.CounterRecord) []string {
	return distinct(records, func(r models.CounterRecord) (string, bool) {
		return r.CompanyID, true
	})
}

// Vehicles returns the distinct vehicle ids, restricted to companyID
// unless it is the wildcard.
func Vehicles(records []models.CounterRecord, companyID string) []string {
	return distinct(records, func(r models.CounterRecord) (string, bool) {
		return r.VehicleID, matches(companyID, r.CompanyID)
	})
}

// Routes returns the distinct route keys in ascending order.
func Routes(records []models.CounterRecord) []string {
	return distinct(records, func(r models.CounterRecord) (string, bool) {
		return r.Route, true
	})
}

// matches compares a filter value against a record field. Routes are
// opaque keys, so no normalisation happens here. An empty field never
// matches a specific value.
func matches(filter, value string) bool {
	if filter == "" || filter == models.AllValue {
		return true
	}
	return value != "" && value == filter
}

func toSeries(sums map[string]int) []models.CompanySeries {
	series := make([]models.CompanySeries, 0, len(sums))
	for id, v := range sums {
		series = append(series, models.CompanySeries{CompanyID: id, Value: v})
	}
	slices.SortFunc(series, func(a, b models.CompanySeries) int {
		return models.CompareIDs(a.CompanyID, b.CompanyID)
	})
	return series
}

func distinct(records []models.CounterRecord, pick func(models.CounterRecord) (string, bool)) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		v, ok := pick(r)
		if !ok || v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.SortFunc(out, models.CompareIDs)
	return out
}
