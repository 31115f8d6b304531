package daterange

import (
	"encoding/json"
	"time"
)

// DateLayout is the literal format collaborators match on for cache keys and file names.
const DateLayout = "2006-01-02"

// CalendarDate is a date without a time-of-day component.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// Date builds a CalendarDate. Out-of-range days and months are normalized the way time.Date does.
func Date(year int, month time.Month, day int) CalendarDate {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// CoerceToMidnight normalizes any instant to midnight UTC of its calendar date,
// so date-only and datetime values compare on equal terms.
func CoerceToMidnight(t time.Time) time.Time {
	return DateOf(t).Time()
}

// Time returns the midnight UTC instant for the date.
func (d CalendarDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d CalendarDate) IsZero() bool {
	return d == CalendarDate{}
}

func (d CalendarDate) Before(o CalendarDate) bool {
	return d.Time().Before(o.Time())
}

func (d CalendarDate) After(o CalendarDate) bool {
	return d.Time().After(o.Time())
}

// AddDays shifts the date by n calendar days.
func (d CalendarDate) AddDays(n int) CalendarDate {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// AddYears shifts the date by n years. A day that does not exist in the
// target month (Feb 29 into a non-leap year) clamps to the month's last day.
func (d CalendarDate) AddYears(n int) CalendarDate {
	year := d.Year + n
	day := d.Day
	if last := daysIn(year, d.Month); day > last {
		day = last
	}
	return CalendarDate{Year: year, Month: d.Month, Day: day}
}

// FirstOfMonth returns the first day of the date's month.
func (d CalendarDate) FirstOfMonth() CalendarDate {
	return CalendarDate{Year: d.Year, Month: d.Month, Day: 1}
}

func (d CalendarDate) String() string {
	return FormatDate(d)
}

// FormatDate renders d as YYYY-MM-DD.
func FormatDate(d CalendarDate) string {
	return d.Time().Format(DateLayout)
}

// ParseDate is the inverse of FormatDate.
func ParseDate(s string) (CalendarDate, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return CalendarDate{}, &FormatError{Field: "date", Value: s, Reason: "expected YYYY-MM-DD"}
	}
	return DateOf(t), nil
}

// MinDate returns the chronologically earlier of a and b.
func MinDate(a, b CalendarDate) CalendarDate {
	if b.Before(a) {
		return b
	}
	return a
}

// MaxDate returns the chronologically later of a and b.
func MaxDate(a, b CalendarDate) CalendarDate {
	if b.After(a) {
		return b
	}
	return a
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (d CalendarDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatDate(d))
}

func (d *CalendarDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
