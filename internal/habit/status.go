package habit

import (
	"github.com/dukerupert/accountable/internal/calendar"
	"github.com/dukerupert/accountable/internal/debt"
	"github.com/dukerupert/accountable/internal/model"
	"github.com/dukerupert/accountable/internal/penalty"
)

// BuildStatus is the derived state of a build habit on one day.
type BuildStatus struct {
	PenaltyLevel      int    `json:"penalty_level"`
	RequiredTaskValue int    `json:"required_task_value"`
	Unit              string `json:"unit"`
	TodayCompleted    bool   `json:"today_completed"`
	TodayMissed       bool   `json:"today_missed"`
}

// AvoidStatus is the derived state of an avoid habit on one day.
type AvoidStatus struct {
	Debt            int  `json:"debt"`
	TodayEventCount int  `json:"today_event_count"`
	TodayConfirmed  bool `json:"today_confirmed"`
}

// WithStatus is a habit together with the block that matches its kind.
// Exactly one of BuildStatus and AvoidStatus is set.
type WithStatus struct {
	model.Habit
	Day         calendar.Day `json:"day"`
	BuildStatus *BuildStatus `json:"build_status,omitempty"`
	AvoidStatus *AvoidStatus `json:"avoid_status,omitempty"`
}

// Facts is the history ComputeStatus needs. Build habits read LastCompleted
// and Today; avoid habits read Debt and EventCount.
type Facts struct {
	LastCompleted calendar.Day
	Today         *model.DailyStatus
	Debt          debt.Entry
	EventCount    int
}

// ComputeStatus derives the status of h on today. A habit with no history at
// all yields penalty zero, debt zero and nothing confirmed.
func ComputeStatus(h model.Habit, f Facts, today calendar.Day, stacking penalty.Stacking) WithStatus {
	ws := WithStatus{Habit: h, Day: today}

	switch h.Kind {
	case model.KindBuild:
		base, unit := 0, ""
		if h.Build != nil {
			base, unit = h.Build.BaseTaskValue, h.Build.Unit
		}
		level := penalty.Level(h.CreatedOn, today, f.LastCompleted)
		bs := &BuildStatus{
			PenaltyLevel:      level,
			RequiredTaskValue: stacking.Required(base, level),
			Unit:              unit,
		}
		if f.Today != nil {
			bs.TodayCompleted = f.Today.Completed
			bs.TodayMissed = !f.Today.Completed
		}
		ws.BuildStatus = bs
	case model.KindAvoid:
		ws.AvoidStatus = &AvoidStatus{
			Debt:            f.Debt.Debt,
			TodayEventCount: f.EventCount,
			TodayConfirmed:  f.Debt.IsConfirmed(today),
		}
	}
	return ws
}
