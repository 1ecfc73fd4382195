package domain

import (
	"fmt"
	"strings"
	"time"
)

// Periodicity identifies one kind of periodic note
type Periodicity int

const (
	Yearly Periodicity = iota
	Quarterly
	Monthly
	Weekly
	Daily
)

// AllPeriodicities returns every periodicity, coarsest first.
// Passes rely on this order so a year boundary is handled before finer periods.
func AllPeriodicities() []Periodicity {
	return []Periodicity{Yearly, Quarterly, Monthly, Weekly, Daily}
}

// String returns the lowercase name used in settings and messages
func (p Periodicity) String() string {
	switch p {
	case Yearly:
		return "yearly"
	case Quarterly:
		return "quarterly"
	case Monthly:
		return "monthly"
	case Weekly:
		return "weekly"
	case Daily:
		return "daily"
	default:
		return "unknown"
	}
}

// Unit returns the calendar unit a note of this periodicity covers
func (p Periodicity) Unit() Unit {
	switch p {
	case Yearly:
		return UnitYear
	case Quarterly:
		return UnitQuarter
	case Monthly:
		return UnitMonth
	case Weekly:
		return UnitWeek
	default:
		return UnitDay
	}
}

// ParsePeriodicity parses a periodicity name (case-insensitive)
func ParsePeriodicity(s string) (Periodicity, error) {
	for _, p := range AllPeriodicities() {
		if strings.EqualFold(strings.TrimSpace(s), p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown periodicity: %q", s)
}

// Unit is a calendar unit
type Unit string

const (
	UnitDay     Unit = "day"
	UnitWeek    Unit = "week"
	UnitMonth   Unit = "month"
	UnitQuarter Unit = "quarter"
	UnitYear    Unit = "year"
)

// Periodicity returns the periodicity whose notes cover one unit
func (u Unit) Periodicity() Periodicity {
	switch u {
	case UnitYear:
		return Yearly
	case UnitQuarter:
		return Quarterly
	case UnitMonth:
		return Monthly
	case UnitWeek:
		return Weekly
	default:
		return Daily
	}
}

// StartOf truncates t to the start of the unit in t's location.
// Weeks start on Sunday; see StartOfWeek for ISO weeks.
func StartOf(unit Unit, t time.Time) time.Time {
	y, m, d := t.Date()
	loc := t.Location()

	switch unit {
	case UnitYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	case UnitQuarter:
		first := time.Month((Quarter(t)-1)*3 + 1)
		return time.Date(y, first, 1, 0, 0, 0, 0, loc)
	case UnitMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case UnitWeek:
		return StartOfWeek(t, time.Sunday)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
}

// StartOfWeek truncates t to midnight of the latest first weekday not after t
func StartOfWeek(t time.Time, first time.Weekday) time.Time {
	y, m, d := t.Date()
	offset := (int(t.Weekday()) - int(first) + 7) % 7
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// AddUnits moves t by n units, keeping the wall clock time
func AddUnits(unit Unit, t time.Time, n int) time.Time {
	switch unit {
	case UnitYear:
		return t.AddDate(n, 0, 0)
	case UnitQuarter:
		return t.AddDate(0, 3*n, 0)
	case UnitMonth:
		return t.AddDate(0, n, 0)
	case UnitWeek:
		return t.AddDate(0, 0, 7*n)
	default:
		return t.AddDate(0, 0, n)
	}
}

// IsWeekend reports whether t falls on a Saturday or Sunday
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Quarter returns the 1-based quarter of t
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// ISODate formats t as YYYY-MM-DD, the format used for execution bookkeeping
func ISODate(t time.Time) string {
	return t.Format("2006-01-02")
}
