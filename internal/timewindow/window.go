// Package timewindow provides the half-open time interval used by
// reservations and queue gating.
package timewindow

import (
	"errors"
	"fmt"
	"time"
)

// MaxReservationDuration is the longest window a court may be booked for.
const MaxReservationDuration = 2 * time.Hour

var ErrInvalidWindow = errors.New("invalid time window")

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) Window {
	return Window{Start: start, End: end}
}

// Starting returns the window of length d beginning at start.
func Starting(start time.Time, d time.Duration) Window {
	return Window{Start: start, End: start.Add(d)}
}

// Overlaps reports whether a and b share any instant. Windows that only
// touch at a boundary (a.End == b.Start) do not overlap.
func Overlaps(a, b Window) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

func (w Window) Overlaps(other Window) bool {
	return Overlaps(w, other)
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

func DurationHours(w Window) float64 {
	return w.Duration().Hours()
}

// SnapToHour truncates minutes, seconds and sub-second precision.
func SnapToHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// Snapped returns w with both bounds truncated to the hour.
func (w Window) Snapped() Window {
	return Window{Start: SnapToHour(w.Start), End: SnapToHour(w.End)}
}

// Validate checks ordering and the duration cap. A window of exactly max is valid.
func (w Window) Validate(max time.Duration) error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidWindow)
	}
	if !w.Start.Before(w.End) {
		return fmt.Errorf("%w: start must be before end", ErrInvalidWindow)
	}
	if max > 0 && w.Duration() > max {
		return fmt.Errorf("%w: duration %s exceeds %s", ErrInvalidWindow, w.Duration(), max)
	}
	return nil
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
