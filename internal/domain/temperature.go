// Package domain contains the BBT entities, calendar math, ovulation analysis
// and the ports implemented by the storage adapters.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TemperatureRecord is a single basal body temperature reading.
// Temperature is stored in hundredths of a degree Fahrenheit (97.40°F -> 9740).
type TemperatureRecord struct {
	ID          uuid.UUID `json:"id"`
	DateTime    time.Time `json:"dateTime"`
	Temperature int       `json:"temperature"`
}

// NewTemperatureRecord creates a record with a fresh ID.
func NewTemperatureRecord(dateTime time.Time, hundredths int) TemperatureRecord {
	return TemperatureRecord{ID: uuid.New(), DateTime: dateTime, Temperature: hundredths}
}

// Degrees returns the temperature in degrees Fahrenheit.
func (r TemperatureRecord) Degrees() float64 {
	return float64(r.Temperature) / 100.0
}

// Formatted renders the temperature the way a basal thermometer shows it, e.g. "97.40°F".
func (r TemperatureRecord) Formatted() string {
	return FormatHundredths(r.Temperature)
}

// FormatHundredths formats a hundredths-of-a-degree value with two decimals.
func FormatHundredths(v int) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d°F", sign, v/100, v%100)
}

// CycleRecord marks the first day of a menstrual cycle.
type CycleRecord struct {
	ID        uuid.UUID `json:"id"`
	StartDate time.Time `json:"startDate"`
}

// NewCycleRecord creates a record whose StartDate is the start of day's
// calendar day in loc.
func NewCycleRecord(day time.Time, loc *time.Location) CycleRecord {
	return CycleRecord{ID: uuid.New(), StartDate: StartOfDay(day, loc)}
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(orLocal(loc)).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, orLocal(loc))
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(orLocal(loc)).Date()
	by, bm, bd := b.In(orLocal(loc)).Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween counts calendar days from from to to in loc. It is negative
// when to falls on an earlier day. Days are counted on the calendar, so a
// DST transition does not shift the result.
func DaysBetween(from, to time.Time, loc *time.Location) int {
	fy, fm, fd := from.In(orLocal(loc)).Date()
	ty, tm, td := to.In(orLocal(loc)).Date()
	f := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	t := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	// Unix seconds, not Duration, so spans beyond ~292 years stay exact.
	return int((t.Unix() - f.Unix()) / 86400)
}

// DayString formats t's calendar day in loc as YYYY-MM-DD.
func DayString(t time.Time, loc *time.Location) string {
	return t.In(orLocal(loc)).Format("2006-01-02")
}

// ParseDay parses a YYYY-MM-DD string as midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, orLocal(loc))
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
