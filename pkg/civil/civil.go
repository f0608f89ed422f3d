// Package civil provides calendar-date helpers that follow civil calendar
// rules (Gregorian, leap-year aware). All values are normalized to midnight UTC
// so that comparisons between dates never depend on the server time zone.
package civil

import "time"

// DateLayout is the wire format for civil dates.
const DateLayout = "2006-01-02"

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the clock part of t, keeping the calendar day as observed in t's location.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// Today returns the current civil date.
func Today() time.Time {
	return Truncate(time.Now())
}

// Parse parses a YYYY-MM-DD date.
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DaysInMonth returns the number of days of month in year.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths adds n calendar months to t. The day of month is preserved when
// the target month has it, otherwise it is clamped to the target month's last
// day (Jan 31 + 1 month = Feb 28, or Feb 29 in a leap year).
//
// time.AddDate normalizes overflow instead (Jan 31 + 1 month = Mar 2), which is
// why it is not used here.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	ty := y + floorDiv(total, 12)
	tm := time.Month(floorMod(total, 12) + 1)
	if last := DaysInMonth(ty, tm); d > last {
		d = last
	}
	return Date(ty, tm, d)
}

// Between reports whether from <= t <= to, comparing calendar days only.
func Between(t, from, to time.Time) bool {
	t = Truncate(t)
	return !t.Before(Truncate(from)) && !t.After(Truncate(to))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
