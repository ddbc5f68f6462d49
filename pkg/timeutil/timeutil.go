// Package timeutil provides calendar-day arithmetic for streak tracking and
// day-rollover detection. Streaks compare calendar dates, not elapsed
// wall-clock hours, so all helpers normalize to the start of day first.
// No external dependencies - uses only standard library.
package timeutil

import "time"

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
)

// StartOfDay returns the start of the day (00:00:00) in the time's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the end of the day (23:59:59.999999999) in the time's location.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// StartOfWeek returns the start of the week (Monday 00:00:00) in the time's location.
func StartOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return StartOfDay(t.AddDate(0, 0, -(weekday - 1)))
}

// SameDay checks if two times fall on the same calendar day.
// The second time is converted to the first time's location before comparing.
func SameDay(t1, t2 time.Time) bool {
	t2 = t2.In(t1.Location())
	return t1.Year() == t2.Year() && t1.YearDay() == t2.YearDay()
}

// SameWeek checks if two times fall in the same Monday-based week.
func SameWeek(t1, t2 time.Time) bool {
	return SameDay(StartOfWeek(t1), StartOfWeek(t2.In(t1.Location())))
}

// IsConsecutiveDay checks if t2 is the calendar day after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	return SameDay(t1.AddDate(0, 0, 1), t2)
}

// DaysBetween returns the signed number of calendar days from one time to
// another. A positive result means "to" is after "from". Partial days do not
// count: 23:59 to 00:01 the next day is one day.
func DaysBetween(from, to time.Time) int {
	a := StartOfDay(from)
	b := StartOfDay(to.In(from.Location()))
	return int(b.Sub(a).Hours() / 24)
}

// DayKey formats a time as a YYYY-MM-DD key. Per-day storage keys use this so
// a day rollover naturally invalidates stale entries.
func DayKey(t time.Time) string {
	return t.Format(FormatDate)
}

// ParseDayKey parses a YYYY-MM-DD key back into the start of that day in UTC.
func ParseDayKey(key string) (time.Time, error) {
	return time.Parse(FormatDate, key)
}
