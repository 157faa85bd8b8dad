package model

import (
	"time"

	"github.com/dukerupert/accountable/internal/calendar"
	"github.com/dukerupert/accountable/internal/streak"
)

type Kind string

const (
	KindBuild Kind = "build"
	KindAvoid Kind = "avoid"
)

func (k Kind) Valid() bool {
	return k == KindBuild || k == KindAvoid
}

// BuildTarget holds the fields that only build habits carry.
type BuildTarget struct {
	BaseTaskValue int    `json:"base_task_value"`
	Unit          string `json:"unit"`
}

// Habit is the stored habit aggregate. Build is non-nil exactly when Kind is
// KindBuild.
type Habit struct {
	ID        string       `json:"id"`
	OwnerID   string       `json:"owner_id"`
	Name      string       `json:"name"`
	Kind      Kind         `json:"kind"`
	Build     *BuildTarget `json:"build,omitempty"`
	CreatedOn calendar.Day `json:"created_on"`
	CreatedAt time.Time    `json:"created_at"`
	Streak    streak.State `json:"streak"`
}

func (h Habit) IsBuild() bool { return h.Kind == KindBuild }
func (h Habit) IsAvoid() bool { return h.Kind == KindAvoid }

// NewHabit is the input for creating a habit.
type NewHabit struct {
	Name          string `json:"name"`
	Kind          Kind   `json:"kind"`
	BaseTaskValue int    `json:"base_task_value,omitempty"`
	Unit          string `json:"unit,omitempty"`
}

// DailyStatus is the single per-day record of a build habit.
type DailyStatus struct {
	HabitID      string       `json:"habit_id"`
	Day          calendar.Day `json:"day"`
	Completed    bool         `json:"completed"`
	PenaltyLevel int          `json:"penalty_level"`
	// AutoProcessed marks rows written by the day rollover rather than the user.
	AutoProcessed bool      `json:"auto_processed"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Event is one logged violation of an avoid habit.
type Event struct {
	ID         string    `json:"id"`
	HabitID    string    `json:"habit_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Value      int       `json:"value"`
	Notes      string    `json:"notes,omitempty"`
}
