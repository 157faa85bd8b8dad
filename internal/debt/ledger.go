// Package debt implements the ledger arithmetic for avoid habits: every
// violation adds one unit of debt and every confirmed clean day pays one back.
package debt

import (
	"time"

	"github.com/dukerupert/accountable/internal/calendar"
)

// Entry is the per-habit ledger row.
type Entry struct {
	Debt int `json:"debt"`
	// LastCleanDay is the day clean-day credit was last applied.
	LastCleanDay calendar.Day `json:"last_clean_day"`
}

// RecordViolation returns e with one more unit of debt. Debt has no upper
// bound.
func RecordViolation(e Entry) Entry {
	e.Debt++
	return e
}

// ConfirmCleanDay credits day against e. If day was already credited, or is
// earlier than the last credited day, e is returned unchanged and credited is
// false. Debt never drops below zero.
//
// The ledger does not look at the event log; callers decide whether day was
// clean before confirming it.
func ConfirmCleanDay(e Entry, day calendar.Day) (next Entry, credited bool) {
	if !e.LastCleanDay.IsZero() && !day.After(e.LastCleanDay) {
		return e, false
	}
	e.Debt = max(0, e.Debt-1)
	e.LastCleanDay = day
	return e, true
}

// IsConfirmed reports whether day has already been credited.
func (e Entry) IsConfirmed(day calendar.Day) bool {
	return !e.LastCleanDay.IsZero() && e.LastCleanDay.Equal(day)
}

// CountOnDay counts the timestamps that fall on day in loc.
func CountOnDay(timestamps []time.Time, day calendar.Day, loc *time.Location) int {
	n := 0
	for _, ts := range timestamps {
		if day.Contains(ts, loc) {
			n++
		}
	}
	return n
}
