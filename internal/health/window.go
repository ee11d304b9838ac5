package health

import (
	"fmt"
	"time"
)

// TimeWindow is the half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Today returns [start of now's calendar day, now).
func Today(now time.Time) TimeWindow {
	return TimeWindow{Start: StartOfDay(now), End: now}
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Matches reports whether a sample belongs to the window. A sample matches when
// it starts inside the window; its end may run past the window's end.
func (w TimeWindow) Matches(s Sample) bool {
	return w.Contains(s.Start)
}

// Duration is End minus Start.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// String makes TimeWindow satisfy the fmt.Stringer interface.
func (w TimeWindow) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
