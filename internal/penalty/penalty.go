// Package penalty derives the stacked requirement of a build habit from the
// days it went without a completion.
package penalty

import (
	"fmt"
	"math"
	"strings"

	"github.com/dukerupert/accountable/internal/calendar"
)

// Stacking selects how the requirement grows with the penalty level.
type Stacking string

const (
	// Additive adds one base value per missed day: base + base*level.
	Additive Stacking = "additive"
	// Doubling doubles the requirement per missed day: base * 2^level.
	Doubling Stacking = "doubling"
)

// maxDoublingLevel caps the exponent of the doubling stack.
const maxDoublingLevel = 30

// ParseStacking accepts "additive" or "doubling" (case-insensitive). An empty
// string selects Additive.
func ParseStacking(s string) (Stacking, error) {
	switch Stacking(strings.ToLower(strings.TrimSpace(s))) {
	case "", Additive:
		return Additive, nil
	case Doubling:
		return Doubling, nil
	default:
		return "", fmt.Errorf("unknown penalty stacking %q", s)
	}
}

// Level returns the penalty level in force on day for a habit created on
// created. lastCompleted is the most recent completed day strictly before
// day, or the zero Day when the habit was never completed.
func Level(created, day, lastCompleted calendar.Day) int {
	if day.Equal(created) {
		return 0
	}
	if !lastCompleted.IsZero() {
		return max(0, calendar.DaysBetween(lastCompleted, day)-1)
	}
	return max(0, calendar.DaysBetween(created, day))
}

// Required returns the task amount owed at the given level. The result
// saturates at math.MaxInt.
func (s Stacking) Required(base, level int) int {
	level = max(level, 0)
	if s == Doubling {
		level = min(level, maxDoublingLevel)
		if base > math.MaxInt>>level {
			return math.MaxInt
		}
		return base << level
	}
	if level > 0 && base > (math.MaxInt-base)/level {
		return math.MaxInt
	}
	return base + base*level
}

// Required is Additive.Required.
func Required(base, level int) int {
	return Additive.Required(base, level)
}
