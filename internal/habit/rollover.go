package habit

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/accountable/internal/calendar"
	"github.com/dukerupert/accountable/internal/model"
	"github.com/dukerupert/accountable/internal/store"
	"github.com/dukerupert/accountable/internal/streak"
)

// RolloverResult counts what Rollover changed.
type RolloverResult struct {
	Day       calendar.Day `json:"day"`
	Habits    int          `json:"habits"`
	Missed    int          `json:"missed"`
	Broken    int          `json:"broken"`
	Unchanged int          `json:"unchanged"`
}

// Rollover closes day for every habit. Build habits without a status for day
// are marked missed by the system; avoid habits whose streak is still running
// but whose day was never confirmed lose the streak. Debt is left alone.
// Running Rollover twice for the same day changes nothing the second time.
// A day whose wrapping window is still open is refused until it closes.
func (s *Service) Rollover(ctx context.Context, day calendar.Day) (*RolloverResult, error) {
	if day.IsZero() {
		return nil, invalid("day", "is required")
	}
	if !day.Before(s.Today()) {
		return nil, invalid("day", "%s has not ended yet", day)
	}
	if s.StillConfirmable(day) {
		return nil, invalid("day", "%s can still be confirmed until its window closes", day)
	}

	habits, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("rollover %s: %w", day, err)
	}

	var missed, broken, unchanged atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.RolloverWorkers)
	for _, h := range habits {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcome, err := s.rolloverHabit(h.ID, day)
			if err != nil {
				return fmt.Errorf("habit %s: %w", h.ID, err)
			}
			switch outcome {
			case outcomeMissed:
				missed.Add(1)
			case outcomeBroken:
				broken.Add(1)
			default:
				unchanged.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("rollover %s: %w", day, err)
	}

	res := &RolloverResult{
		Day:       day,
		Habits:    len(habits),
		Missed:    int(missed.Load()),
		Broken:    int(broken.Load()),
		Unchanged: int(unchanged.Load()),
	}
	s.logger.Info("rollover complete", "day", day, "habits", res.Habits, "missed", res.Missed, "broken", res.Broken)
	return res, nil
}

// StillConfirmable reports whether day's confirmation window is open right
// now. Only a window that wraps past midnight keeps a finished day open.
func (s *Service) StillConfirmable(day calendar.Day) bool {
	open, ok := s.cfg.Window.Day(s.cfg.Now())
	return ok && open.Equal(day)
}

type rolloverOutcome int

const (
	outcomeUnchanged rolloverOutcome = iota
	outcomeMissed
	outcomeBroken
)

func (s *Service) rolloverHabit(id string, day calendar.Day) (rolloverOutcome, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	outcome := outcomeUnchanged
	err := s.store.Update(func(tx *store.HabitTx) error {
		h, err := tx.GetByID(id)
		if err != nil {
			return err
		}
		// Deleted since the list was read, or not yet alive on day.
		if h == nil || day.Before(h.CreatedOn) {
			return nil
		}

		switch h.Kind {
		case model.KindBuild:
			existing, err := tx.GetDailyStatus(id, day)
			if err != nil || existing != nil {
				return err
			}
			if _, err := s.writeStatus(tx, h, day, false, true); err != nil {
				return err
			}
			outcome = outcomeMissed
			if !h.Streak.LastDate.IsZero() && day.Before(h.Streak.LastDate) {
				return nil
			}
			if h.Streak.CurrentLength == 0 {
				return nil
			}
			h.Streak = streak.Apply(h.Streak, day, false)
			return tx.SaveStreak(*h)

		case model.KindAvoid:
			if h.Streak.CurrentLength == 0 || !h.Streak.LastDate.Before(day) {
				return nil
			}
			h.Streak = streak.Reset(h.Streak)
			if err := tx.SaveStreak(*h); err != nil {
				return err
			}
			outcome = outcomeBroken
		}
		return nil
	})
	return outcome, err
}
