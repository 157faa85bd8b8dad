// Package streak maintains current and longest streaks from daily
// success/failure outcomes. It is shared by build completions and avoid
// clean-day confirmations.
package streak

import (
	"errors"
	"fmt"

	"github.com/dukerupert/accountable/internal/calendar"
)

// State is the streak bookkeeping embedded in a habit. Zero days mean the
// date is absent.
type State struct {
	CurrentLength int          `json:"current_streak"`
	CurrentStart  calendar.Day `json:"current_streak_start"`
	LongestLength int          `json:"longest_streak"`
	LongestStart  calendar.Day `json:"longest_streak_start"`
	// LongestEnd is set only once the record streak has been broken.
	LongestEnd calendar.Day `json:"longest_streak_end"`
	// LastDate is the last day that contributed to any streak.
	LastDate calendar.Day `json:"last_streak_date"`
}

// Apply returns the state after recording the outcome of day. Apply is not
// idempotent for successes: callers must invoke it at most once per day.
func Apply(s State, day calendar.Day, success bool) State {
	if !success {
		return Reset(s)
	}

	length, start := 1, day
	if !s.LastDate.IsZero() && s.LastDate.Equal(day.Yesterday()) {
		length = s.CurrentLength + 1
		start = s.CurrentStart
		if start.IsZero() {
			start = day
		}
	}

	if length > s.LongestLength {
		s.LongestStart = start
		s.LongestEnd = calendar.Day{}
	}
	s.LongestLength = max(s.LongestLength, length)
	s.CurrentLength = length
	s.CurrentStart = start
	s.LastDate = day
	return s
}

// Reset breaks the current streak. When the broken streak is the record, the
// record is closed at LastDate. LastDate itself is preserved.
func Reset(s State) State {
	if s.CurrentLength > 0 && s.CurrentLength == s.LongestLength {
		s.LongestEnd = s.LastDate
	}
	s.CurrentLength = 0
	s.CurrentStart = calendar.Day{}
	return s
}

// IsRecordActive reports whether the longest streak is the one in progress.
func (s State) IsRecordActive() bool {
	return s.LongestLength > 0 && s.LongestEnd.IsZero()
}

var (
	ErrNegativeLength  = errors.New("streak length is negative")
	ErrLongestTooShort = errors.New("longest streak is shorter than current streak")
	ErrStartMismatch   = errors.New("current streak start must be set exactly when the streak is active")
	ErrEndBeforeStart  = errors.New("longest streak ends before it starts")
	ErrClosedButActive = errors.New("longest streak is closed while a streak is active")
)

// Validate checks the invariants every persisted State must hold.
func (s State) Validate() error {
	if s.CurrentLength < 0 || s.LongestLength < 0 {
		return ErrNegativeLength
	}
	if s.LongestLength < s.CurrentLength {
		return fmt.Errorf("%w: %d < %d", ErrLongestTooShort, s.LongestLength, s.CurrentLength)
	}
	if (s.CurrentLength > 0) == s.CurrentStart.IsZero() {
		return ErrStartMismatch
	}
	if !s.LongestEnd.IsZero() {
		if s.LongestEnd.Before(s.LongestStart) {
			return fmt.Errorf("%w: %s < %s", ErrEndBeforeStart, s.LongestEnd, s.LongestStart)
		}
		// A closed record cannot be the streak in progress: any active
		// streak must have started after the record ended.
		if s.CurrentLength > 0 && !s.CurrentStart.After(s.LongestEnd) {
			return ErrClosedButActive
		}
	}
	return nil
}
