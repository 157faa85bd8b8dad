// Package window models the daily confirmation window: a fixed clock-hour
// range during which end-of-day confirmations are meant to be submitted.
package window

import (
	"fmt"
	"time"

	"github.com/dukerupert/accountable/internal/calendar"
)

const (
	DefaultStartHour = 23
	DefaultEndHour   = 24
)

// Window is the half-open hour range [StartHour, EndHour) in Location. A
// window whose start is after its end wraps past midnight.
type Window struct {
	StartHour int
	EndHour   int
	Location  *time.Location
}

// Status is a point-in-time view of the window for display.
type Status struct {
	Open      bool          `json:"open"`
	UntilOpen time.Duration `json:"until_open"`
	Remaining time.Duration `json:"remaining"`
}

// Default returns the last hour of the day in loc.
func Default(loc *time.Location) Window {
	return Window{StartHour: DefaultStartHour, EndHour: DefaultEndHour, Location: loc}
}

// New validates the hour pair and returns a Window.
func New(startHour, endHour int, loc *time.Location) (Window, error) {
	w := Window{StartHour: startHour, EndHour: endHour, Location: loc}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

func (w Window) Validate() error {
	if w.StartHour < 0 || w.StartHour > 23 {
		return fmt.Errorf("window start hour %d out of range 0-23", w.StartHour)
	}
	if w.EndHour < 1 || w.EndHour > 24 {
		return fmt.Errorf("window end hour %d out of range 1-24", w.EndHour)
	}
	if w.StartHour == w.EndHour || (w.StartHour == 0 && w.EndHour == 24) {
		return fmt.Errorf("window %02d-%02d must cover part of the day", w.StartHour, w.EndHour)
	}
	return nil
}

func (w Window) loc() *time.Location {
	if w.Location == nil {
		return time.Local
	}
	return w.Location
}

func (w Window) wraps() bool {
	return w.StartHour > w.EndHour
}

// IsOpen reports whether now's local hour falls inside the window.
func (w Window) IsOpen(now time.Time) bool {
	h := now.In(w.loc()).Hour()
	if w.wraps() {
		return h >= w.StartHour || h < w.EndHour
	}
	return h >= w.StartHour && h < w.EndHour
}

// TimeUntilOpen returns how long until the window next opens, or zero while
// it is open.
func (w Window) TimeUntilOpen(now time.Time) time.Duration {
	if w.IsOpen(now) {
		return 0
	}
	return w.next(now, w.StartHour).Sub(now)
}

// TimeRemaining returns how long the open window has left, or zero while it
// is closed.
func (w Window) TimeRemaining(now time.Time) time.Duration {
	if !w.IsOpen(now) {
		return 0
	}
	return w.next(now, w.EndHour).Sub(now)
}

// Day returns the day whose window is open at now. A wrapping window that is
// still open after midnight belongs to the previous day. ok is false while
// the window is closed.
func (w Window) Day(now time.Time) (day calendar.Day, ok bool) {
	if !w.IsOpen(now) {
		return calendar.Day{}, false
	}
	local := now.In(w.loc())
	day = calendar.FromTime(local, w.loc())
	if w.wraps() && local.Hour() < w.EndHour {
		day = day.Yesterday()
	}
	return day, true
}

// Status snapshots the window at now.
func (w Window) Status(now time.Time) Status {
	return Status{
		Open:      w.IsOpen(now),
		UntilOpen: w.TimeUntilOpen(now),
		Remaining: w.TimeRemaining(now),
	}
}

func (w Window) String() string {
	return fmt.Sprintf("%02d:00-%02d:00 %s", w.StartHour, w.EndHour, w.loc())
}

// next returns the first instant after now at which the local clock reads
// hour:00. Hour 24 is midnight of the following day.
func (w Window) next(now time.Time, hour int) time.Time {
	local := now.In(w.loc())
	t := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, w.loc())
	if !t.After(now) {
		t = time.Date(local.Year(), local.Month(), local.Day()+1, hour, 0, 0, 0, w.loc())
	}
	return t
}
