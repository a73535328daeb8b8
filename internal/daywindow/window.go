// Package daywindow computes the tracker's "day": a 24 hour window that
// starts at 05:00 local time instead of midnight.
//
// Every place that needs to know what "today" or "tomorrow" is must go
// through this package so that all boundaries agree.
package daywindow

import "time"

// BoundaryHour is the local hour at which a window starts.
const BoundaryHour = 5

// Length of every window.
const Length = 24 * time.Hour

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Clock is the time source used by callers that need "now".
type Clock interface {
	Now() time.Time
}

// Compute returns the window containing ref. Before 05:00 the window
// started at 05:00 of the previous calendar date.
func Compute(ref time.Time) Window {
	start := time.Date(ref.Year(), ref.Month(), ref.Day(), BoundaryHour, 0, 0, 0, ref.Location())
	if ref.Hour() < BoundaryHour {
		start = time.Date(ref.Year(), ref.Month(), ref.Day()-1, BoundaryHour, 0, 0, 0, ref.Location())
	}
	return Window{Start: start, End: start.Add(Length)}
}

// Today is the window containing clock.Now().
func Today(clock Clock) Window {
	return Compute(clock.Now())
}

// Tomorrow is the window right after Today.
func Tomorrow(clock Clock) Window {
	return Today(clock).Next()
}

// Next is the window starting at w.End. Windows are exactly Length long, so
// across a DST change Next().Start is not at BoundaryHour local time.
func (w Window) Next() Window {
	return Window{Start: w.End, End: w.End.Add(Length)}
}

func (w Window) Prev() Window {
	return Window{Start: w.Start.Add(-Length), End: w.Start}
}

// Contains reports whether t falls inside [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Key formats the window's start date as YYYY-MM-DD.
func (w Window) Key() string {
	return w.Start.Format("2006-01-02")
}
