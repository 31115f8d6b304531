package daterange

import (
	"github.com/jonboulle/clockwork"
)

// Request is what the user picked. Start and End are nil when the user kept
// the picker defaults.
type Request struct {
	Granularity     Granularity
	ReferencePeriod string
	Start           *CalendarDate
	End             *CalendarDate
}

// Resolution holds every window derived from a Request, plus the
// string forms handed to the download and plot collaborators.
type Resolution struct {
	Defaults  Window          `json:"defaults"`
	Display   Window          `json:"display"`
	Reference ReferencePeriod `json:"reference"`
	Download  Window          `json:"download"`

	DisplayStart  string `json:"displayStart"`
	DisplayEnd    string `json:"displayEnd"`
	DownloadStart string `json:"downloadStart"`
	DownloadEnd   string `json:"downloadEnd"`
}

// Resolver resolves date windows against an injectable clock.
type Resolver struct {
	clock clockwork.Clock
	years int
}

// NewResolver creates a Resolver. A nil clock uses real time.
func NewResolver(clock clockwork.Clock, monthlyYears int) *Resolver {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if monthlyYears <= 0 {
		monthlyYears = DefaultMonthlyYears
	}
	return &Resolver{clock: clock, years: monthlyYears}
}

// Today returns the current calendar date in the clock's location.
func (r *Resolver) Today() CalendarDate {
	return DateOf(r.clock.Now())
}

// Defaults returns the picker defaults for g as of today.
func (r *Resolver) Defaults(g Granularity) Window {
	return DefaultWindow(g, r.Today(), r.years)
}

// Resolve derives display, reference and download windows for req.
// A malformed reference period fails the whole resolution.
func (r *Resolver) Resolve(req Request) (Resolution, error) {
	ref, err := ParseReferencePeriod(req.ReferencePeriod)
	if err != nil {
		return Resolution{}, err
	}

	defaults := r.Defaults(req.Granularity)
	display := defaults
	if req.Start != nil {
		display.Start = *req.Start
	}
	if req.End != nil {
		display.End = *req.End
	}

	download := ResolveDownloadWindow(display, ref.Window)

	return Resolution{
		Defaults:      defaults,
		Display:       display,
		Reference:     ref,
		Download:      download,
		DisplayStart:  FormatDate(display.Start),
		DisplayEnd:    FormatDate(display.End),
		DownloadStart: FormatDate(download.Start),
		DownloadEnd:   FormatDate(download.End),
	}, nil
}
