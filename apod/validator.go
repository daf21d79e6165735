package apod

import (
	"fmt"
	"time"
	_ "time/tzdata" // the service location must resolve on hosts without a zoneinfo database
)

const (
	// MinCount is the smallest number of random entries the API serves
	MinCount = 1
	// MaxCount is the largest number of random entries the API serves
	MaxCount = 100

	// windowMessageLayout formats the window bounds in DateOutOfRange messages
	windowMessageLayout = "January 02 2006"
)

// FirstValidDate is the date of the first published Astronomy Picture of the Day
var FirstValidDate = time.Date(1995, time.June, 16, 0, 0, 0, 0, time.UTC)

// ServiceLocation is the time zone the APOD service publishes in. "Today"
// is always evaluated here, never in the caller's local zone.
var ServiceLocation = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("apod: load location %s: %v", name, err))
	}
	return loc
}

// Day truncates t to a calendar date in UTC, keeping t's own year, month and day
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewDate returns the given calendar date
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return d, nil
}

// sameDay reports whether a and b fall on the same calendar date, each read in its own location
func sameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// DateWindow is the inclusive range of dates the service accepts
type DateWindow struct {
	First time.Time
	Last  time.Time
}

// WindowAt returns the valid window as of now, with the last valid date
// evaluated in ServiceLocation
func WindowAt(now time.Time) DateWindow {
	return DateWindow{
		First: FirstValidDate,
		Last:  Day(now.In(ServiceLocation)),
	}
}

// Contains reports whether d lies inside the window, bounds included
func (w DateWindow) Contains(d time.Time) bool {
	day := Day(d)
	return !day.Before(Day(w.First)) && !day.After(Day(w.Last))
}

// Validator checks caller input against a DateWindow. It performs no I/O.
type Validator struct {
	window DateWindow
}

// NewValidator creates a validator for the given window
func NewValidator(window DateWindow) *Validator {
	return &Validator{window: window}
}

// Window returns the window the validator checks against
func (v *Validator) Window() DateWindow {
	return v.window
}

// ValidateDate checks that d lies inside the window
func (v *Validator) ValidateDate(d time.Time) ErrorInfo {
	if !v.window.Contains(d) {
		return v.dateOutOfRange()
	}
	return noError
}

// ValidateDateRange checks both bounds against the window before checking
// their order. A zero end defaults to the window's last date.
func (v *Validator) ValidateDateRange(start, end time.Time) ErrorInfo {
	if end.IsZero() {
		end = v.window.Last
	}

	if !v.window.Contains(start) {
		return v.dateOutOfRange()
	}
	if !v.window.Contains(end) {
		return v.dateOutOfRange()
	}
	if Day(start).After(Day(end)) {
		return ErrorInfo{Kind: KindStartDateAfterEndDate, Message: msgStartDateAfterEndDate}
	}

	return noError
}

// ValidateCount checks that n lies within MinCount..MaxCount
func (v *Validator) ValidateCount(n int) ErrorInfo {
	if n < MinCount || n > MaxCount {
		return ErrorInfo{Kind: KindCountOutOfRange, Message: msgCountOutOfRange}
	}
	return noError
}

func (v *Validator) dateOutOfRange() ErrorInfo {
	return ErrorInfo{
		Kind: KindDateOutOfRange,
		Message: fmt.Sprintf("Dates must be between %s and %s.",
			v.window.First.Format(windowMessageLayout),
			v.window.Last.Format(windowMessageLayout)),
	}
}
