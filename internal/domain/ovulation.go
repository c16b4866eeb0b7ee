package domain

import (
	"slices"
	"time"
)

// OvulationRise is the sustained rise over the pre-rise baseline, in
// hundredths of a degree Fahrenheit (0.4°F).
const OvulationRise = 40

// SeriesPoint is one chart-ready reading.
type SeriesPoint struct {
	DateTime time.Time `json:"dateTime"`
	Degrees  float64   `json:"degrees"`
}

// SortedTemperatures returns a copy of records ordered by DateTime ascending.
func SortedTemperatures(records []TemperatureRecord) []TemperatureRecord {
	out := append(make([]TemperatureRecord, 0, len(records)), records...)
	slices.SortStableFunc(out, func(a, b TemperatureRecord) int {
		return a.DateTime.Compare(b.DateTime)
	})
	return out
}

// DetectOvulation scans the readings in time order for the first window of
// three consecutive records where the second and third are both at least
// OvulationRise above the first. It returns the DateTime of the second
// record of that window.
//
// Windows are consecutive records, not consecutive calendar days: a gap in
// logging does not break a window.
func DetectOvulation(records []TemperatureRecord) (time.Time, bool) {
	if len(records) < 3 {
		return time.Time{}, false
	}
	sorted := SortedTemperatures(records)
	for i := 0; i <= len(sorted)-3; i++ {
		base := sorted[i].Temperature
		if sorted[i+1].Temperature-base >= OvulationRise &&
			sorted[i+2].Temperature-base >= OvulationRise {
			return sorted[i+1].DateTime, true
		}
	}
	return time.Time{}, false
}

// Series converts records into ascending (DateTime, Degrees) pairs.
func Series(records []TemperatureRecord) []SeriesPoint {
	sorted := SortedTemperatures(records)
	out := make([]SeriesPoint, 0, len(sorted))
	for _, r := range sorted {
		out = append(out, SeriesPoint{DateTime: r.DateTime, Degrees: r.Degrees()})
	}
	return out
}

// LatestCycle returns the cycle with the greatest StartDate. Among equal
// start dates the first one encountered wins.
func LatestCycle(cycles []CycleRecord) (CycleRecord, bool) {
	if len(cycles) == 0 {
		return CycleRecord{}, false
	}
	latest := cycles[0]
	for _, c := range cycles[1:] {
		if c.StartDate.After(latest.StartDate) {
			latest = c
		}
	}
	return latest, true
}

// CycleDay returns the number of calendar days between the most recent cycle
// start on or before t and t itself. The start day is day 0.
func CycleDay(cycles []CycleRecord, t time.Time, loc *time.Location) (int, bool) {
	found := false
	var start time.Time
	for _, c := range cycles {
		if DaysBetween(c.StartDate, t, loc) < 0 {
			continue
		}
		if !found || c.StartDate.After(start) {
			start = c.StartDate
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return DaysBetween(start, t, loc), true
}
