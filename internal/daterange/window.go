package daterange

import (
	"strconv"
	"strings"
	"time"
)

// Granularity selects the default display window policy.
type Granularity string

const (
	Daily   Granularity = "daily"
	Monthly Granularity = "monthly"
)

// DefaultMonthlyYears is how far back the monthly default window reaches.
const DefaultMonthlyYears = 20

// ReferencePeriods are the climate normals offered to the user.
var ReferencePeriods = []string{"1981-2010", "1991-2020"}

// MinPickerDate is the earliest date a user may pick.
var MinPickerDate = Date(1920, time.January, 1)

// ParseGranularity accepts "daily" or "monthly".
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case Daily:
		return Daily, nil
	case Monthly:
		return Monthly, nil
	default:
		return "", &FormatError{Field: "granularity", Value: s, Reason: "expected daily or monthly"}
	}
}

// Window is a closed interval of calendar dates.
type Window struct {
	Start CalendarDate `json:"start"`
	End   CalendarDate `json:"end"`
}

// Contains reports whether o lies entirely within w.
func (w Window) Contains(o Window) bool {
	return !o.Start.Before(w.Start) && !o.End.After(w.End)
}

// ReferencePeriod is a named climate baseline, e.g. "1981-2010".
type ReferencePeriod struct {
	Name string `json:"name"`
	Window
}

// DefaultWindow computes the date picker defaults for a granularity.
//
// Daily windows cover the year ending today. Monthly windows end on the last
// day of the previous month and start on the first of the current month
// `years` years earlier. years <= 0 falls back to DefaultMonthlyYears.
func DefaultWindow(g Granularity, today CalendarDate, years int) Window {
	if g == Monthly {
		if years <= 0 {
			years = DefaultMonthlyYears
		}
		first := today.FirstOfMonth()
		return Window{
			Start: first.AddYears(-years),
			End:   first.AddDays(-1),
		}
	}
	return Window{
		Start: today.AddYears(-1).AddDays(1),
		End:   today,
	}
}

// ParseReferencePeriod parses "YYYY-YYYY" into [Jan 1 start, Dec 31 end].
// Each year must be exactly four ASCII digits; signs, padding and shorter
// years are rejected. The years are not checked for order: "2010-1981"
// yields a reversed window.
func ParseReferencePeriod(s string) (ReferencePeriod, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return ReferencePeriod{}, &FormatError{Field: "reference period", Value: s, Reason: "expected two years joined by '-'"}
	}
	start, ok := parseYear(parts[0])
	if !ok {
		return ReferencePeriod{}, &FormatError{Field: "reference period", Value: s, Reason: "start year is not a four-digit number"}
	}
	end, ok := parseYear(parts[1])
	if !ok {
		return ReferencePeriod{}, &FormatError{Field: "reference period", Value: s, Reason: "end year is not a four-digit number"}
	}
	return ReferencePeriod{
		Name: s,
		Window: Window{
			Start: Date(start, time.January, 1),
			End:   Date(end, time.December, 31),
		},
	}, nil
}

func parseYear(s string) (int, bool) {
	if len(s) != 4 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	y, err := strconv.Atoi(s)
	return y, err == nil
}

// ResolveDownloadWindow returns the tightest window containing both the
// display window and the reference period.
func ResolveDownloadWindow(display, reference Window) Window {
	return Window{
		Start: MinDate(display.Start, reference.Start),
		End:   MaxDate(display.End, reference.End),
	}
}
